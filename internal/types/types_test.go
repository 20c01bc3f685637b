package types

import "testing"

type strName string

func (s strName) String() string { return string(s) }

func TestCanonicalizationPointer(t *testing.T) {
	c := NewContext()
	i32 := c.Primitive(KindInt32)
	p1 := c.PointerTo(c.PointerTo(i32))
	p2 := c.PointerTo(c.PointerTo(i32))
	if p1 != p2 {
		t.Fatalf("pointer_to(pointer_to(T)) must canonicalize to the same instance")
	}
}

func TestCanonicalizationArrayStructFunction(t *testing.T) {
	c := NewContext()
	i32 := c.Primitive(KindInt32)
	a1 := c.ArrayOf(4, true, i32)
	a2 := c.ArrayOf(4, true, i32)
	if a1 != a2 {
		t.Fatalf("arrays with identical shape must canonicalize")
	}
	aUnknown1 := c.ArrayOf(0, false, i32)
	aUnknown2 := c.ArrayOf(99, false, i32) // length ignored when hasLength=false
	if aUnknown1 != aUnknown2 {
		t.Fatalf("unknown-length arrays of the same element must canonicalize")
	}

	fields := []Field{{Name: strName("x"), Type: i32}, {Name: strName("y"), Type: i32}}
	s1 := c.StructOf("Point", fields)
	s2 := c.StructOf("Point", []Field{{Name: strName("x"), Type: i32}, {Name: strName("y"), Type: i32}})
	if s1 != s2 {
		t.Fatalf("structs with identical name/fields must canonicalize")
	}

	f1 := c.Function([]*Type{i32, i32}, i32)
	f2 := c.Function([]*Type{i32, i32}, i32)
	if f1 != f2 {
		t.Fatalf("functions with identical signature must canonicalize")
	}
}

func TestStructFieldOrderMatters(t *testing.T) {
	c := NewContext()
	i32 := c.Primitive(KindInt32)
	i64 := c.Primitive(KindInt64)
	s1 := c.StructOf("S", []Field{{Name: strName("a"), Type: i32}, {Name: strName("b"), Type: i64}})
	s2 := c.StructOf("S", []Field{{Name: strName("b"), Type: i64}, {Name: strName("a"), Type: i32}})
	if s1 == s2 {
		t.Fatalf("field order is significant; these must not canonicalize together")
	}
}

func TestLayoutStructPaddingAndAlignment(t *testing.T) {
	c := NewContext()
	i8 := c.Primitive(KindInt8)
	i32 := c.Primitive(KindInt32)
	s := c.StructOf("", []Field{{Name: strName("a"), Type: i8}, {Name: strName("b"), Type: i32}})
	if Align(s) != 4 {
		t.Fatalf("expected struct alignment 4, got %d", Align(s))
	}
	if Size(s) != 8 { // 1 byte + 3 padding + 4 bytes
		t.Fatalf("expected padded struct size 8, got %d", Size(s))
	}
	if off := FieldOffset(s, 1); off != 4 {
		t.Fatalf("expected field b at offset 4, got %d", off)
	}
}

func TestArraySize(t *testing.T) {
	c := NewContext()
	i64 := c.Primitive(KindInt64)
	a := c.ArrayOf(10, true, i64)
	if Size(a) != 80 {
		t.Fatalf("expected array size 80, got %d", Size(a))
	}
}

func TestPointerSizeIsPlatformWordSize(t *testing.T) {
	c := NewContext()
	i32 := c.Primitive(KindInt32)
	p := c.PointerTo(i32)
	if Size(p) != 8 {
		t.Fatalf("expected pointer size 8, got %d", Size(p))
	}
}

func TestBuiltinByName(t *testing.T) {
	b, ok := BuiltinByName("AggregationHashTable")
	if !ok || b != BuiltinAggregationHashTable {
		t.Fatalf("expected to resolve AggregationHashTable builtin")
	}
	if _, ok := BuiltinByName("NotARealBuiltin"); ok {
		t.Fatalf("expected miss for unknown builtin name")
	}
}
