package parser

import (
	"testing"

	"github.com/turingcompl33t/tpl/internal/arena"
	"github.com/turingcompl33t/tpl/internal/ast"
	"github.com/turingcompl33t/tpl/internal/ident"
	"github.com/turingcompl33t/tpl/internal/reporter"
)

func newParser(t *testing.T, src string) (*Parser, *reporter.Reporter) {
	t.Helper()
	a := arena.New()
	fac := ast.NewNodeFactory(0)
	ids := ident.New(a.NewRegion("idents"))
	rep := reporter.New("test.tpl")
	return New("test.tpl", src, fac, ids, rep), rep
}

func TestParseSimpleFunction(t *testing.T) {
	src := `fun main() -> int32 {
		var x: int32 = 2
		var y: int32 = 3
		return x * y + 1
	}`
	p, rep := newParser(t, src)
	file := p.Parse()
	if rep.HasErrors() {
		t.Fatalf("unexpected errors: %s", rep.RenderAll())
	}
	if len(file.Decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(file.Decls))
	}
	fd, ok := file.Decls[0].(*ast.FunctionDecl)
	if !ok {
		t.Fatalf("expected FunctionDecl, got %T", file.Decls[0])
	}
	if fd.Name.String() != "main" {
		t.Fatalf("expected name main, got %q", fd.Name.String())
	}
	if len(fd.Fn.Body.Stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(fd.Fn.Body.Stmts))
	}
	ret, ok := fd.Fn.Body.Stmts[2].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("expected ReturnStmt, got %T", fd.Fn.Body.Stmts[2])
	}
	bin, ok := ret.Value.(*ast.BinaryExpr)
	if !ok || bin.Op != ast.BinAdd {
		t.Fatalf("expected top-level add, got %#v", ret.Value)
	}
}

func TestParsePrecedence(t *testing.T) {
	// x * y + 1 should parse as (x*y) + 1, not x*(y+1).
	p, rep := newParser(t, `fun f() -> int32 { return x * y + 1 }`)
	file := p.Parse()
	if rep.HasErrors() {
		t.Fatalf("unexpected errors: %s", rep.RenderAll())
	}
	fd := file.Decls[0].(*ast.FunctionDecl)
	ret := fd.Fn.Body.Stmts[0].(*ast.ReturnStmt)
	top := ret.Value.(*ast.BinaryExpr)
	if top.Op != ast.BinAdd {
		t.Fatalf("expected top-level op Add, got %v", top.Op)
	}
	if _, ok := top.Left.(*ast.BinaryExpr); !ok {
		t.Fatalf("expected left operand to be the multiplication, got %#v", top.Left)
	}
}

func TestParseIfForBuiltinCall(t *testing.T) {
	src := `fun f() -> int32 {
		var sum: int32 = 0
		for (var i: int32 = 0; i < 10; i = i + 1) {
			if (i == 5) {
				sum = sum + @sizeOf(int64)
			} else {
				sum = sum + 1
			}
		}
		return sum
	}`
	p, rep := newParser(t, src)
	file := p.Parse()
	if rep.HasErrors() {
		t.Fatalf("unexpected errors: %s", rep.RenderAll())
	}
	fd := file.Decls[0].(*ast.FunctionDecl)
	forStmt, ok := fd.Fn.Body.Stmts[1].(*ast.ForStmt)
	if !ok {
		t.Fatalf("expected ForStmt, got %T", fd.Fn.Body.Stmts[1])
	}
	ifStmt, ok := forStmt.Body.Stmts[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected IfStmt, got %T", forStmt.Body.Stmts[0])
	}
	if ifStmt.Else == nil {
		t.Fatalf("expected else branch")
	}
	assign := ifStmt.Then.Stmts[0].(*ast.AssignmentStmt)
	bin := assign.Value.(*ast.BinaryExpr)
	call, ok := bin.Right.(*ast.CallExpr)
	if !ok || call.CallKindTag != ast.CallBuiltin || call.BuiltinName != "sizeOf" {
		t.Fatalf("expected builtin call sizeOf, got %#v", bin.Right)
	}
}

func TestParseStructDeclAndFieldAccess(t *testing.T) {
	src := `struct Point {
		x: int32,
		y: int32
	}
	fun sum(p: *Point) -> int32 {
		return p.x + p.y
	}`
	p, rep := newParser(t, src)
	file := p.Parse()
	if rep.HasErrors() {
		t.Fatalf("unexpected errors: %s", rep.RenderAll())
	}
	if len(file.Decls) != 2 {
		t.Fatalf("expected 2 decls, got %d", len(file.Decls))
	}
	sd := file.Decls[0].(*ast.StructDecl)
	if len(sd.Struct.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(sd.Struct.Fields))
	}
	fd := file.Decls[1].(*ast.FunctionDecl)
	paramType, ok := fd.Fn.Params[0].Type.(*ast.PointerTypeRepr)
	if !ok {
		t.Fatalf("expected pointer param type, got %T", fd.Fn.Params[0].Type)
	}
	if _, ok := paramType.Elem.(*ast.StructTypeRepr); !ok {
		t.Fatalf("expected nominal struct type repr for Point, got %T", paramType.Elem)
	}
}

func TestParseForIn(t *testing.T) {
	src := `fun f(iter: TableVectorIterator) -> int32 {
		var total: int32 = 0
		for row in iter {
			total = total + 1
		}
		return total
	}`
	p, rep := newParser(t, src)
	file := p.Parse()
	if rep.HasErrors() {
		t.Fatalf("unexpected errors: %s", rep.RenderAll())
	}
	fd := file.Decls[0].(*ast.FunctionDecl)
	forIn, ok := fd.Fn.Body.Stmts[1].(*ast.ForInStmt)
	if !ok {
		t.Fatalf("expected ForInStmt, got %T", fd.Fn.Body.Stmts[1])
	}
	if forIn.Target.String() != "row" {
		t.Fatalf("expected target row, got %q", forIn.Target.String())
	}
}

func TestParseSyntaxErrorRecorded(t *testing.T) {
	p, rep := newParser(t, `fun f( -> int32 { return 1 }`)
	p.Parse()
	if !rep.HasErrors() {
		t.Fatalf("expected a diagnostic for malformed parameter list")
	}
}
