package sema

import (
	"github.com/turingcompl33t/tpl/internal/ast"
	"github.com/turingcompl33t/tpl/internal/reporter"
	"github.com/turingcompl33t/tpl/internal/types"
)

func (a *Analyzer) checkBlock(b *ast.BlockStmt) {
	a.pushScope(ScopeBlock)
	for i, s := range b.Stmts {
		b.Stmts[i] = a.checkStmt(s)
	}
	a.popScope()
}

// checkStmt type-checks s and returns the statement to keep in its
// parent's slot (statements are never rewritten the way expressions are,
// but the signature mirrors checkExpr's for uniformity across callers
// that also handle nil).
func (a *Analyzer) checkStmt(s ast.Stmt) ast.Stmt {
	switch x := s.(type) {
	case *ast.DeclStmt:
		a.checkLocalDecl(x.Decl)
		return x
	case *ast.ExprStmt:
		expr, _ := a.checkExpr(x.X)
		x.X = expr
		return x
	case *ast.AssignmentStmt:
		a.checkAssignment(x)
		return x
	case *ast.BlockStmt:
		a.checkBlock(x)
		return x
	case *ast.IfStmt:
		a.checkIf(x)
		return x
	case *ast.ForStmt:
		a.checkFor(x)
		return x
	case *ast.ForInStmt:
		a.checkForIn(x)
		return x
	case *ast.ReturnStmt:
		a.checkReturn(x)
		return x
	default:
		a.rep.Report(reporter.MsgUnreachable, s.Pos(), "unknown Stmt variant")
		return s
	}
}

func (a *Analyzer) checkLocalDecl(d ast.Decl) {
	switch x := d.(type) {
	case *ast.VariableDecl:
		a.checkVariableDecl(x)
	case *ast.StructDecl:
		a.declareStruct(x)
	case *ast.FunctionDecl:
		a.declareFunctionSignature(x)
		a.checkFunctionBody(x)
	}
}

func (a *Analyzer) checkVariableDecl(d *ast.VariableDecl) {
	var declaredType *types.Type
	if d.Type != nil {
		declaredType = a.resolveType(d.Type)
	}
	var finalType *types.Type
	if d.Init != nil {
		init, it := a.checkExpr(d.Init)
		d.Init = init
		if declaredType != nil && it != nil {
			converted, ok := a.assignConvert(init, it, declaredType)
			d.Init = converted
			if !ok {
				a.rep.Report(reporter.MsgTypeMismatchAssignment, d.Pos(), it.String(), declaredType.String())
			}
			finalType = declaredType
		} else if declaredType == nil {
			finalType = it
		} else {
			finalType = declaredType
		}
	} else {
		finalType = declaredType
	}
	a.declare(a.cur, d.Name.String(), d.Pos(), d, finalType)
}

func (a *Analyzer) checkAssignment(s *ast.AssignmentStmt) {
	target, tt := a.checkExpr(s.Target)
	s.Target = target
	switch target.(type) {
	case *ast.IdentifierExpr, *ast.MemberExpr, *ast.IndexExpr:
	default:
		if _, ok := target.(*ast.UnaryExpr); !ok {
			a.rep.Report(reporter.MsgNotAnLValue, s.Pos())
		}
	}
	value, vt := a.checkExpr(s.Value)
	s.Value = value
	if tt == nil || vt == nil {
		return
	}
	converted, ok := a.assignConvert(value, vt, tt)
	s.Value = converted
	if !ok {
		a.rep.Report(reporter.MsgTypeMismatchAssignment, s.Pos(), vt.String(), tt.String())
	}
}

func (a *Analyzer) checkCondition(cond ast.Expr) ast.Expr {
	c, ct := a.checkExpr(cond)
	if ct == nil {
		return c
	}
	c, ct = a.coerceToBool(c, ct)
	if ct == nil || ct.Kind() != types.KindBool {
		a.rep.Report(reporter.MsgNonBooleanCondition, cond.Pos(), typeNameOrInvalid(ct))
	}
	return c
}

func (a *Analyzer) checkIf(s *ast.IfStmt) {
	s.Cond = a.checkCondition(s.Cond)
	a.checkBlock(s.Then)
	if s.Else != nil {
		s.Else = a.checkStmt(s.Else)
	}
}

func (a *Analyzer) checkFor(s *ast.ForStmt) {
	a.pushScope(ScopeLoop)
	if s.Init != nil {
		s.Init = a.checkStmt(s.Init)
	}
	if s.Cond != nil {
		s.Cond = a.checkCondition(s.Cond)
	}
	if s.Next != nil {
		s.Next = a.checkStmt(s.Next)
	}
	a.checkBlock(s.Body)
	a.popScope()
}

func (a *Analyzer) checkForIn(s *ast.ForInStmt) {
	iterable, it := a.checkExpr(s.Iterable)
	s.Iterable = iterable

	var elemType *types.Type
	if it != nil {
		elemType = a.forInElementType(it, s.Pos())
	}

	a.pushScope(ScopeLoop)
	a.declare(a.cur, s.Target.String(), s.Pos(), nil, elemType)
	a.checkBlock(s.Body)
	a.popScope()
}

// forInElementType picks the per-iteration binding type for a for-in
// loop, per spec.md §4.5.3's "specialized lowering per iterable kind":
// a TableVectorIterator binds a *VectorProjectionIterator each pass, a
// JoinHashTable binds a *HashTableEntry.
func (a *Analyzer) forInElementType(it *types.Type, pos ast.Pos) *types.Type {
	if it.Kind() != types.KindBuiltin {
		a.rep.Report(reporter.MsgInvalidForInIterable, pos, it.String())
		return nil
	}
	switch it.BuiltinKind() {
	case types.BuiltinTableVectorIterator:
		return a.ctx.PointerTo(a.ctx.BuiltinType(types.BuiltinVectorProjectionIterator))
	case types.BuiltinJoinHashTable:
		return a.ctx.PointerTo(a.ctx.BuiltinType(types.BuiltinHashTableEntry))
	default:
		a.rep.Report(reporter.MsgInvalidForInIterable, pos, it.String())
		return nil
	}
}

func (a *Analyzer) checkReturn(s *ast.ReturnStmt) {
	if s.Value == nil {
		if a.fnRet != nil && a.fnRet.Kind() != types.KindNil {
			a.rep.Report(reporter.MsgTypeMismatchReturn, s.Pos(), "nil", a.fnRet.String())
		}
		return
	}
	value, vt := a.checkExpr(s.Value)
	s.Value = value
	if vt == nil || a.fnRet == nil {
		return
	}
	converted, ok := a.assignConvert(value, vt, a.fnRet)
	s.Value = converted
	if !ok {
		a.rep.Report(reporter.MsgTypeMismatchReturn, s.Pos(), vt.String(), a.fnRet.String())
	}
}
