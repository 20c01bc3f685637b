package vm

import (
	"testing"

	"github.com/turingcompl33t/tpl/internal/arena"
	"github.com/turingcompl33t/tpl/internal/ast"
	"github.com/turingcompl33t/tpl/internal/bytecode"
	"github.com/turingcompl33t/tpl/internal/ident"
	"github.com/turingcompl33t/tpl/internal/parser"
	"github.com/turingcompl33t/tpl/internal/reporter"
	"github.com/turingcompl33t/tpl/internal/sema"
	"github.com/turingcompl33t/tpl/internal/types"
)

func compile(t *testing.T, src string) *bytecode.Module {
	t.Helper()
	a := arena.New()
	fac := ast.NewNodeFactory(0)
	ids := ident.New(a.NewRegion("idents"))
	rep := reporter.New("test.tpl")
	p := parser.New("test.tpl", src, fac, ids, rep)
	file := p.Parse()
	if rep.HasErrors() {
		t.Fatalf("parse errors: %s", rep.RenderAll())
	}
	ctx := types.NewContext()
	an := sema.New(ctx, fac, rep)
	an.Analyze(file)
	if rep.HasErrors() {
		t.Fatalf("sema errors: %s", rep.RenderAll())
	}
	return bytecode.Generate(ctx, an, file)
}

func TestVMSimpleArithmeticReturn(t *testing.T) {
	mod := compile(t, `fun main() -> int32 {
		var x: int32 = 2
		var y: int32 = 3
		return x * y + 1
	}`)
	m := New(mod, nil)
	got, err := m.Call("main")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int32() != 7 {
		t.Fatalf("expected 7, got %d", got.Int32())
	}
}

func TestVMIntegerNarrowingCast(t *testing.T) {
	mod := compile(t, `fun main() -> int8 {
		var x: int32 = 300
		return x
	}`)
	m := New(mod, nil)
	got, err := m.Call("main")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 300 truncated to 8 bits is 44.
	if got.Int8() != 44 {
		t.Fatalf("expected 44, got %d", got.Int8())
	}
}

func TestVMIfElseControlFlow(t *testing.T) {
	mod := compile(t, `fun pick(a: int32, b: int32) -> int32 {
		if (a > b) {
			return a
		} else {
			return b
		}
	}`)
	m := New(mod, nil)
	got, err := m.Call("pick", Int32(3), Int32(9))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int32() != 9 {
		t.Fatalf("expected 9, got %d", got.Int32())
	}
}

func TestVMForLoopAccumulates(t *testing.T) {
	mod := compile(t, `fun sumTo(n: int32) -> int32 {
		var total: int32 = 0
		for (var i: int32 = 0; i < n; i = i + 1) {
			total = total + i
		}
		return total
	}`)
	m := New(mod, nil)
	got, err := m.Call("sumTo", Int32(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int32() != 10 {
		t.Fatalf("expected 0+1+2+3+4=10, got %d", got.Int32())
	}
}

func TestVMFunctionCall(t *testing.T) {
	mod := compile(t, `fun add(a: int32, b: int32) -> int32 { return a + b }
	fun main() -> int32 { return add(20, 22) }`)
	m := New(mod, nil)
	got, err := m.Call("main")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int32() != 42 {
		t.Fatalf("expected 42, got %d", got.Int32())
	}
}

func TestVMDivideByZeroIsRuntimeError(t *testing.T) {
	mod := compile(t, `fun main(n: int32) -> int32 {
		return 10 / n
	}`)
	m := New(mod, nil)
	_, err := m.Call("main", Int32(0))
	if err == nil {
		t.Fatalf("expected a runtime error for division by zero")
	}
	if _, ok := err.(*RuntimeError); !ok {
		t.Fatalf("expected a *RuntimeError, got %T: %v", err, err)
	}
}

func TestVMModuloByZeroIsRuntimeError(t *testing.T) {
	mod := compile(t, `fun main(n: int32) -> int32 {
		return 10 % n
	}`)
	m := New(mod, nil)
	_, err := m.Call("main", Int32(0))
	if err == nil {
		t.Fatalf("expected a runtime error for modulo by zero")
	}
}

func TestVMFloatDivideByZeroIsNotAnError(t *testing.T) {
	mod := compile(t, `fun main(n: float64) -> float64 {
		return 1.0 / n
	}`)
	m := New(mod, nil)
	got, err := m.Call("main", Float64Val(0))
	if err != nil {
		t.Fatalf("float division by zero should not be a runtime error, got %v", err)
	}
	if !isInf(got.Float64()) {
		t.Fatalf("expected +Inf, got %v", got.Float64())
	}
}

func isInf(f float64) bool {
	return f > 1e300 || f < -1e300
}

func TestVMStructPointerFieldAssignment(t *testing.T) {
	mod := compile(t, `struct Point {
		x: int32,
		y: int32
	}
	fun setX(p: *Point, v: int32) {
		p.x = v
	}
	fun main() -> int32 {
		var pt: Point
		setX(&pt, 99)
		return pt.x
	}`)
	m := New(mod, nil)
	got, err := m.Call("main")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int32() != 99 {
		t.Fatalf("expected 99, got %d", got.Int32())
	}
}

func TestVMSizeOfFoldsToConstant(t *testing.T) {
	// @sizeOf names a type, not a value; it is resolved entirely at
	// compile time and never reaches a runtime shim.
	mod := compile(t, `fun main() -> uint32 {
		return @sizeOf(int64)
	}`)
	m := New(mod, Registry{})
	got, err := m.Call("main")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Uint32() != 8 {
		t.Fatalf("expected 8, got %d", got.Uint32())
	}
}

func TestVMUnresolvedRuntimeBuiltinIsRuntimeError(t *testing.T) {
	mod := compile(t, `fun main(n: int32) -> uint64 {
		return @hash(n)
	}`)
	m := New(mod, Registry{})
	_, err := m.Call("main", Int32(7))
	if err == nil {
		t.Fatalf("expected unresolved builtin to surface as a runtime error")
	}
	if _, ok := err.(*RuntimeError); !ok {
		t.Fatalf("expected a *RuntimeError, got %T: %v", err, err)
	}
}

func TestVMCallRuntimeShimIsInvoked(t *testing.T) {
	mod := compile(t, `fun main(n: int32) -> uint64 {
		return @hash(n)
	}`)
	reg := Registry{
		"hash": func(vm *VM, fr *Frame, ins *bytecode.Instr) error {
			var h uint64
			for _, a := range ins.Args {
				h = h*31 + readU(fr, a, 4)
			}
			writeU(fr, ins.A, 8, h)
			return nil
		},
	}
	m := New(mod, reg)
	got, err := m.Call("main", Int32(7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Uint64() != 7 {
		t.Fatalf("expected 7, got %d", got.Uint64())
	}
}

func TestVMFloatWidenIsNumericNotBitwise(t *testing.T) {
	// A naive bitwise widen would reinterpret float32(1.5)'s 4-byte
	// pattern as part of a float64, producing garbage far from 1.5.
	mod := compile(t, `fun main(a: float32) -> float64 {
		return a
	}`)
	m := New(mod, nil)
	got, err := m.Call("main", Float32Val(1.5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Float64() != 1.5 {
		t.Fatalf("expected 1.5, got %v", got.Float64())
	}
}

func TestVMFloatNarrowIsNumericNotBitwise(t *testing.T) {
	mod := compile(t, `fun main(a: float64) -> float32 {
		return a
	}`)
	m := New(mod, nil)
	got, err := m.Call("main", Float64Val(2.25))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Float32() != 2.25 {
		t.Fatalf("expected 2.25, got %v", got.Float32())
	}
}
