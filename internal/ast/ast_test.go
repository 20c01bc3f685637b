package ast

import (
	"testing"

	"github.com/turingcompl33t/tpl/internal/arena"
	"github.com/turingcompl33t/tpl/internal/ident"
)

func TestExprTypeSlotStartsNil(t *testing.T) {
	f := NewNodeFactory(0)
	lit := f.NewLiteral(Pos{1, 1}, LiteralInt32)
	lit.Int32 = 7
	if lit.ResolvedType() != nil {
		t.Fatalf("expected nil type slot before sema")
	}
	lit.SetType("int32") // sema would set a *types.Type; a string stands in here
	if lit.ResolvedType() != "int32" {
		t.Fatalf("expected type slot to be set exactly once")
	}
}

func TestWalkOrderDeclsBeforeContents(t *testing.T) {
	f := NewNodeFactory(0)
	a := arena.New()
	in := ident.New(a.NewRegion("idents"))

	x := f.NewIdentifier(Pos{1, 1}, in.Intern("x"))
	y := f.NewIdentifier(Pos{1, 2}, in.Intern("y"))
	bin := f.NewBinary(Pos{1, 3}, BinAdd, x, y)
	ret := f.NewReturnStmt(Pos{1, 4}, bin)
	block := f.NewBlockStmt(Pos{1, 0}, []Stmt{ret}, Pos{2, 0})

	var order []Kind
	Walk(block, func(n Node) bool {
		order = append(order, n.Kind())
		return true
	})
	want := []Kind{KindBlockStmt, KindReturnStmt, KindBinaryExpr, KindIdentifierExpr, KindIdentifierExpr}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestWalkCanStopDescent(t *testing.T) {
	f := NewNodeFactory(0)
	a := arena.New()
	in := ident.New(a.NewRegion("idents"))
	x := f.NewIdentifier(Pos{1, 1}, in.Intern("x"))
	un := f.NewUnary(Pos{1, 2}, UnaryNeg, x)

	visited := 0
	Walk(un, func(n Node) bool {
		visited++
		return false // never descend
	})
	if visited != 1 {
		t.Fatalf("expected exactly one visited node, got %d", visited)
	}
}
