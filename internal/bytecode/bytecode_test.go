package bytecode

import "testing"

func TestLocalVarRoundTrip(t *testing.T) {
	v := MakeLocal(40, false)
	if v.Offset() != 40 || v.AddrMode() {
		t.Fatalf("got offset=%d addrMode=%v, want 40/false", v.Offset(), v.AddrMode())
	}
	v2 := MakeLocal(40, true)
	if v2.Offset() != 40 || !v2.AddrMode() {
		t.Fatalf("got offset=%d addrMode=%v, want 40/true", v2.Offset(), v2.AddrMode())
	}
	if v == v2 {
		t.Fatalf("address-mode flag should distinguish the two encodings")
	}
}

func TestOpcodeStringKnownAndUnknown(t *testing.T) {
	if got := OpAddI32.String(); got != "Add_i32" {
		t.Fatalf("OpAddI32.String() = %q", got)
	}
	if got := Opcode(9999).String(); got != "Opcode(9999)" {
		t.Fatalf("unknown opcode String() = %q", got)
	}
}

func TestModuleReserveThenSetFunction(t *testing.T) {
	m := NewModule()
	id := m.ReserveFunction("helper")
	if _, ok := m.FunctionID("helper"); !ok {
		t.Fatalf("expected helper to resolve immediately after reservation")
	}
	m.SetFunction(id, &Function{Name: "helper", FrameSize: 8})
	got, ok := m.FunctionID("helper")
	if !ok || got != id {
		t.Fatalf("FunctionID changed across SetFunction: got %d, want %d", got, id)
	}
	if m.Functions[id].FrameSize != 8 {
		t.Fatalf("SetFunction did not replace the placeholder")
	}
}
