package sema

import (
	"testing"

	"github.com/turingcompl33t/tpl/internal/arena"
	"github.com/turingcompl33t/tpl/internal/ast"
	"github.com/turingcompl33t/tpl/internal/ident"
	"github.com/turingcompl33t/tpl/internal/parser"
	"github.com/turingcompl33t/tpl/internal/reporter"
	"github.com/turingcompl33t/tpl/internal/types"
)

func analyze(t *testing.T, src string) (*ast.File, *reporter.Reporter, *Analyzer) {
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
	an := New(types.NewContext(), fac, rep)
	an.Analyze(file)
	return file, rep, an
}

func TestSemaSimpleArithmeticNoErrors(t *testing.T) {
	src := `fun main() -> int32 {
		var x: int32 = 2
		var y: int32 = 3
		return x * y + 1
	}`
	_, rep, _ := analyze(t, src)
	if rep.HasErrors() {
		t.Fatalf("unexpected errors: %s", rep.RenderAll())
	}
}

func TestSemaNarrowingAssignmentInsertsIntegralCast(t *testing.T) {
	src := `fun main() -> int8 {
		var x: int32 = 258
		var y: int8 = x
		return y
	}`
	file, rep, _ := analyze(t, src)
	if rep.HasErrors() {
		t.Fatalf("unexpected errors: %s", rep.RenderAll())
	}
	fd := file.Decls[0].(*ast.FunctionDecl)
	yDecl := fd.Fn.Body.Stmts[1].(*ast.DeclStmt).Decl.(*ast.VariableDecl)
	cast, ok := yDecl.Init.(*ast.ImplicitCastExpr)
	if !ok || cast.CastKindTag != ast.CastIntegralCast {
		t.Fatalf("expected an IntegralCast on the narrowing assignment, got %#v", yDecl.Init)
	}
}

func TestSemaUndeclaredIdentifier(t *testing.T) {
	_, rep, _ := analyze(t, `fun f() -> int32 { return missing }`)
	if !rep.HasErrors() {
		t.Fatalf("expected undeclared identifier error")
	}
}

func TestSemaRedeclarationInSameScope(t *testing.T) {
	src := `fun f() -> int32 {
		var x: int32 = 1
		var x: int32 = 2
		return x
	}`
	_, rep, _ := analyze(t, src)
	if !rep.HasErrors() {
		t.Fatalf("expected redeclaration error")
	}
}

func TestSemaStructFieldAccess(t *testing.T) {
	src := `struct Point {
		x: int32,
		y: int32
	}
	fun sum(p: *Point) -> int32 {
		return p.x + p.y
	}`
	_, rep, _ := analyze(t, src)
	if rep.HasErrors() {
		t.Fatalf("unexpected errors: %s", rep.RenderAll())
	}
}

func TestSemaUnknownFieldReported(t *testing.T) {
	src := `struct Point {
		x: int32
	}
	fun f(p: *Point) -> int32 {
		return p.z
	}`
	_, rep, _ := analyze(t, src)
	if !rep.HasErrors() {
		t.Fatalf("expected a field-not-found error")
	}
}

func TestSemaCallArityMismatch(t *testing.T) {
	src := `fun add(a: int32, b: int32) -> int32 { return a + b }
	fun main() -> int32 { return add(1) }`
	_, rep, _ := analyze(t, src)
	if !rep.HasErrors() {
		t.Fatalf("expected arity mismatch error")
	}
}

func TestSemaForwardFunctionReference(t *testing.T) {
	src := `fun main() -> int32 { return helper() }
	fun helper() -> int32 { return 1 }`
	_, rep, _ := analyze(t, src)
	if rep.HasErrors() {
		t.Fatalf("unexpected errors: %s", rep.RenderAll())
	}
}

func TestSemaSizeOfBuiltin(t *testing.T) {
	src := `fun f() -> uint32 { return @sizeOf(int64) }`
	_, rep, _ := analyze(t, src)
	if rep.HasErrors() {
		t.Fatalf("unexpected errors: %s", rep.RenderAll())
	}
}

func TestSemaUnknownBuiltinReported(t *testing.T) {
	src := `fun f() -> int32 { return @bogus(1) }`
	_, rep, _ := analyze(t, src)
	if !rep.HasErrors() {
		t.Fatalf("expected unknown builtin error")
	}
}

func TestSemaIfConditionMustBeBool(t *testing.T) {
	src := `fun f() -> int32 {
		if (1) {
			return 1
		}
		return 0
	}`
	_, rep, _ := analyze(t, src)
	if !rep.HasErrors() {
		t.Fatalf("expected non-boolean condition error")
	}
}

func TestSemaPointerNilComparison(t *testing.T) {
	src := `struct Point { x: int32 }
	fun f(p: *Point) -> bool {
		return p == nil
	}`
	_, rep, _ := analyze(t, src)
	if rep.HasErrors() {
		t.Fatalf("unexpected errors: %s", rep.RenderAll())
	}
}
