package sema

import (
	"github.com/turingcompl33t/tpl/internal/ast"
	"github.com/turingcompl33t/tpl/internal/reporter"
	"github.com/turingcompl33t/tpl/internal/types"
)

// ScopeKind distinguishes the four lexical scope kinds spec.md §4.4.1
// names: File, Function, Block, Loop.
type ScopeKind uint8

const (
	ScopeFile ScopeKind = iota
	ScopeFunction
	ScopeBlock
	ScopeLoop
)

// binding is what a name resolves to: the declaring node plus its
// resolved type.
type binding struct {
	decl ast.Decl
	typ  *types.Type
}

// scope is one level of the lexical scope stack.
type scope struct {
	kind   ScopeKind
	parent *scope
	names  map[string]*binding
}

func newScope(kind ScopeKind, parent *scope) *scope {
	return &scope{kind: kind, parent: parent, names: make(map[string]*binding)}
}

// lookupLocal resolves name within this scope only.
func (s *scope) lookupLocal(name string) (*binding, bool) {
	b, ok := s.names[name]
	return b, ok
}

// lookup resolves name in this scope, then each enclosing scope in turn.
func (s *scope) lookup(name string) (*binding, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.names[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// declare binds name in this scope, reporting a redeclaration error
// instead of overwriting an existing binding in the same scope.
func (a *Analyzer) declare(s *scope, name string, pos ast.Pos, decl ast.Decl, typ *types.Type) {
	if _, exists := s.lookupLocal(name); exists {
		a.rep.Report(reporter.MsgRedeclaration, pos, name)
		return
	}
	s.names[name] = &binding{decl: decl, typ: typ}
}
