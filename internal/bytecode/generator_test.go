package bytecode

import (
	"testing"

	"github.com/turingcompl33t/tpl/internal/arena"
	"github.com/turingcompl33t/tpl/internal/ast"
	"github.com/turingcompl33t/tpl/internal/ident"
	"github.com/turingcompl33t/tpl/internal/parser"
	"github.com/turingcompl33t/tpl/internal/reporter"
	"github.com/turingcompl33t/tpl/internal/sema"
	"github.com/turingcompl33t/tpl/internal/types"
)

func compile(t *testing.T, src string) *Module {
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
	return Generate(ctx, an, file)
}

func findOp(code []Instr, op Opcode) (int, bool) {
	for i, ins := range code {
		if ins.Op == op {
			return i, true
		}
	}
	return 0, false
}

func countOp(code []Instr, op Opcode) int {
	n := 0
	for _, ins := range code {
		if ins.Op == op {
			n++
		}
	}
	return n
}

func TestGenerateSimpleArithmetic(t *testing.T) {
	mod := compile(t, `fun main() -> int32 {
		var x: int32 = 2
		var y: int32 = 3
		return x * y + 1
	}`)
	if len(mod.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(mod.Functions))
	}
	fn := mod.Functions[0]
	if fn.ParamCount != 0 {
		t.Fatalf("expected 0 params, got %d", fn.ParamCount)
	}
	if fn.FrameSize < 8 {
		t.Fatalf("expected frame to hold at least two int32 locals, got %d bytes", fn.FrameSize)
	}
	if _, ok := findOp(fn.Code, OpMulI32); !ok {
		t.Fatalf("expected a Mul_i32 instruction in %v", fn.Code)
	}
	if _, ok := findOp(fn.Code, OpAddI32); !ok {
		t.Fatalf("expected an Add_i32 instruction in %v", fn.Code)
	}
	if _, ok := findOp(fn.Code, OpReturn); !ok {
		t.Fatalf("expected a Return instruction in %v", fn.Code)
	}
}

func TestGenerateNarrowingAssignmentEmitsIntegralCast(t *testing.T) {
	mod := compile(t, `fun main() -> int8 {
		var x: int32 = 258
		var y: int8 = x
		return y
	}`)
	fn := mod.Functions[0]
	if _, ok := findOp(fn.Code, OpIntegralCast); !ok {
		t.Fatalf("expected an IntegralCast instruction in %v", fn.Code)
	}
}

func TestGenerateIfElseProducesBalancedJumps(t *testing.T) {
	mod := compile(t, `fun f(x: int32) -> int32 {
		if (x > 0) {
			return 1
		} else {
			return 0
		}
	}`)
	fn := mod.Functions[0]
	jfIdx, ok := findOp(fn.Code, OpJumpIfFalse)
	if !ok {
		t.Fatalf("expected a JumpIfFalse instruction in %v", fn.Code)
	}
	target := jfIdx + int(fn.Code[jfIdx].Imm)
	if target < 0 || target > len(fn.Code) {
		t.Fatalf("JumpIfFalse target %d out of range (code len %d)", target, len(fn.Code))
	}
	jIdx, ok := findOp(fn.Code, OpJump)
	if !ok {
		t.Fatalf("expected a Jump instruction (end of then-branch) in %v", fn.Code)
	}
	jTarget := jIdx + int(fn.Code[jIdx].Imm)
	if jTarget != len(fn.Code) {
		t.Fatalf("Jump at end of then-branch should land at the function's end, got %d want %d", jTarget, len(fn.Code))
	}
}

func TestGenerateForLoopJumpsBackward(t *testing.T) {
	mod := compile(t, `fun f() -> int32 {
		var i: int32 = 0
		for (i = 0; i < 10; i = i + 1) {
			i = i
		}
		return i
	}`)
	fn := mod.Functions[0]
	backIdx, ok := findOp(fn.Code, OpJump)
	if !ok {
		t.Fatalf("expected a backward Jump instruction in %v", fn.Code)
	}
	if fn.Code[backIdx].Imm >= 0 {
		t.Fatalf("expected the loop's back-edge jump to have a negative delta, got %d", fn.Code[backIdx].Imm)
	}
}

func TestGenerateForwardCallResolvesFunctionID(t *testing.T) {
	mod := compile(t, `fun main() -> int32 { return helper() }
	fun helper() -> int32 { return 1 }`)
	helperID, ok := mod.FunctionID("helper")
	if !ok {
		t.Fatalf("expected helper to be registered")
	}
	mainFn := mod.Functions[0]
	callIdx, ok := findOp(mainFn.Code, OpCall)
	if !ok {
		t.Fatalf("expected a Call instruction in %v", mainFn.Code)
	}
	if int(mainFn.Code[callIdx].Imm) != helperID {
		t.Fatalf("Call targets function id %d, want %d", mainFn.Code[callIdx].Imm, helperID)
	}
}

func TestGenerateStructFieldAssignmentUsesLeaAndAssign(t *testing.T) {
	mod := compile(t, `struct Point { x: int32, y: int32 }
	fun setX(p: *Point, v: int32) -> int32 {
		p.x = v
		return p.x
	}`)
	fn := mod.Functions[0]
	if _, ok := findOp(fn.Code, OpLeaIndirect); !ok {
		t.Fatalf("expected field assignment through a pointer receiver to compute an address via LeaIndirect in %v", fn.Code)
	}
	if countOp(fn.Code, OpAssign4) == 0 {
		t.Fatalf("expected an Assign4 for the int32 field write in %v", fn.Code)
	}
}

func TestGenerateSizeOfFoldsToImmediate(t *testing.T) {
	// @sizeOf's operand names a type, not a value; it is resolved at
	// compile time and never reaches the VM as a runtime call.
	mod := compile(t, `fun f() -> uint32 { return @sizeOf(int64) }`)
	fn := mod.Functions[0]
	if _, ok := findOp(fn.Code, OpCallRuntime); ok {
		t.Fatalf("expected @sizeOf to fold to a constant, not dispatch CallRuntime, in %v", fn.Code)
	}
	idx, ok := findOp(fn.Code, OpAssignImm4)
	if !ok {
		t.Fatalf("expected an AssignImm4 carrying @sizeOf's folded result in %v", fn.Code)
	}
	if fn.Code[idx].Imm != 8 {
		t.Fatalf("expected sizeOf(int64) == 8, got %d", fn.Code[idx].Imm)
	}
}

func TestGenerateBuiltinCallDispatchesCallRuntime(t *testing.T) {
	mod := compile(t, `fun f(n: int32) -> uint64 { return @hash(n) }`)
	fn := mod.Functions[0]
	idx, ok := findOp(fn.Code, OpCallRuntime)
	if !ok {
		t.Fatalf("expected a CallRuntime instruction for @hash in %v", fn.Code)
	}
	if fn.Code[idx].Name != "hash" {
		t.Fatalf("expected CallRuntime.Name = %q, got %q", "hash", fn.Code[idx].Name)
	}
}

func TestGenerateShortCircuitAnd(t *testing.T) {
	mod := compile(t, `fun f(a: bool, b: bool) -> bool {
		return a && b
	}`)
	fn := mod.Functions[0]
	if _, ok := findOp(fn.Code, OpJumpIfFalse); !ok {
		t.Fatalf("expected && to branch around evaluating its right operand, got %v", fn.Code)
	}
}
