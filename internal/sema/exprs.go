package sema

import (
	"github.com/turingcompl33t/tpl/internal/ast"
	"github.com/turingcompl33t/tpl/internal/reporter"
	"github.com/turingcompl33t/tpl/internal/types"
)

// checkExpr types e, possibly rewriting it with an inserted
// ImplicitCastExpr, and returns the (possibly new) expression together
// with its resolved type. A nil type means an error was already
// reported; callers must not emit a second diagnostic that merely
// restates "the operand's type is unknown."
func (a *Analyzer) checkExpr(e ast.Expr) (ast.Expr, *types.Type) {
	switch x := e.(type) {
	case *ast.LiteralExpr:
		return a.checkLiteral(x)
	case *ast.IdentifierExpr:
		return a.checkIdentifier(x)
	case *ast.UnaryExpr:
		return a.checkUnary(x)
	case *ast.BinaryExpr:
		return a.checkBinary(x)
	case *ast.ComparisonExpr:
		return a.checkComparison(x)
	case *ast.CallExpr:
		return a.checkCall(x)
	case *ast.IndexExpr:
		return a.checkIndex(x)
	case *ast.MemberExpr:
		return a.checkMember(x)
	case *ast.BadExpr:
		return x, nil
	case *ast.ImplicitCastExpr:
		// Only sema produces these; seeing one means a double-check of
		// already-analyzed output, which should not happen.
		return x, asType(x.ResolvedType())
	default:
		a.rep.Report(reporter.MsgUnreachable, e.Pos(), "unknown Expr variant")
		return e, nil
	}
}

func asType(v any) *types.Type {
	t, _ := v.(*types.Type)
	return t
}

func (a *Analyzer) checkLiteral(lit *ast.LiteralExpr) (ast.Expr, *types.Type) {
	var t *types.Type
	switch lit.LitKind {
	case ast.LiteralNil:
		t = a.ctx.PointerTo(a.ctx.Primitive(types.KindNil))
	case ast.LiteralBool:
		t = a.ctx.Primitive(types.KindBool)
	case ast.LiteralInt32:
		t = a.ctx.Primitive(types.KindInt32)
	case ast.LiteralFloat32:
		t = a.ctx.Primitive(types.KindFloat32)
	case ast.LiteralString:
		t = a.ctx.Primitive(types.KindString)
	}
	lit.SetType(t)
	return lit, t
}

func (a *Analyzer) checkIdentifier(id *ast.IdentifierExpr) (ast.Expr, *types.Type) {
	b, ok := a.cur.lookup(id.Name.String())
	if !ok {
		a.rep.Report(reporter.MsgUndeclaredIdentifier, id.Pos(), id.Name.String())
		return a.fac.NewBad(id.Pos()), nil
	}
	id.Decl = b.decl
	id.SetType(b.typ)
	return id, b.typ
}

func (a *Analyzer) checkUnary(u *ast.UnaryExpr) (ast.Expr, *types.Type) {
	operand, ot := a.checkExpr(u.Operand)
	u.Operand = operand
	if ot == nil {
		return u, nil
	}
	var result *types.Type
	switch u.Op {
	case ast.UnaryNot:
		operand, ot = a.coerceToBool(operand, ot)
		u.Operand = operand
		if ot == nil || ot.Kind() != types.KindBool {
			a.rep.Report(reporter.MsgUnaryRequiresBool, u.Pos(), typeNameOrInvalid(ot))
			return u, nil
		}
		result = a.ctx.Primitive(types.KindBool)
	case ast.UnaryNeg:
		if !ot.IsArithmetic() {
			a.rep.Report(reporter.MsgUnaryRequiresNumeric, u.Pos(), ot.String())
			return u, nil
		}
		result = ot
	case ast.UnaryDeref:
		if ot.Kind() != types.KindPointer {
			a.rep.Report(reporter.MsgUnaryRequiresPointer, u.Pos(), ot.String())
			return u, nil
		}
		result = ot.Elem()
	case ast.UnaryAddr:
		result = a.ctx.PointerTo(ot)
	}
	u.SetType(result)
	return u, result
}

// coerceToBool inserts SqlBoolToBool when t is the SQL Boolean builtin;
// otherwise returns e/t unchanged.
func (a *Analyzer) coerceToBool(e ast.Expr, t *types.Type) (ast.Expr, *types.Type) {
	if t == nil {
		return e, t
	}
	if t.Kind() == types.KindBuiltin && t.BuiltinKind() == types.BuiltinBoolean {
		boolT := a.ctx.Primitive(types.KindBool)
		return a.insertCast(ast.CastSqlBoolToBool, e, boolT), boolT
	}
	return e, t
}

func (a *Analyzer) insertCast(kind ast.CastKind, e ast.Expr, target *types.Type) ast.Expr {
	c := a.fac.NewImplicitCast(e.Pos(), kind, e)
	c.SetType(target)
	return c
}

func typeNameOrInvalid(t *types.Type) string {
	if t == nil {
		return "<invalid>"
	}
	return t.String()
}

// -----------------------------------------------------------------------
// Binary arithmetic / logical
// -----------------------------------------------------------------------

func (a *Analyzer) checkBinary(b *ast.BinaryExpr) (ast.Expr, *types.Type) {
	left, lt := a.checkExpr(b.Left)
	right, rt := a.checkExpr(b.Right)
	b.Left, b.Right = left, right
	if lt == nil || rt == nil {
		return b, nil
	}

	if b.Op == ast.BinAnd || b.Op == ast.BinOr {
		left, lt = a.coerceToBool(b.Left, lt)
		right, rt = a.coerceToBool(b.Right, rt)
		b.Left, b.Right = left, right
		if lt == nil || lt.Kind() != types.KindBool || rt == nil || rt.Kind() != types.KindBool {
			a.rep.Report(reporter.MsgTypeMismatchBinary, b.Pos(), typeNameOrInvalid(lt), typeNameOrInvalid(rt))
			return b, nil
		}
		b.SetType(lt)
		return b, lt
	}

	newL, newR, common, ok := a.normalizeArithmeticOperands(b.Left, b.Right, lt, rt, b.Pos())
	b.Left, b.Right = newL, newR
	if !ok {
		return b, nil
	}
	b.SetType(common)
	return b, common
}

// normalizeArithmeticOperands implements spec.md §4.4.3's cast table for
// mismatched binary operands: integer widening, float widening, int<->
// float, and primitive<->SQL-value promotion (with SQL Integer widening
// to SQL Real when mixed with a Real operand).
func (a *Analyzer) normalizeArithmeticOperands(l, r ast.Expr, lt, rt *types.Type, pos ast.Pos) (ast.Expr, ast.Expr, *types.Type, bool) {
	if lt == rt {
		return l, r, lt, true
	}

	if lt.IsNumeric() && rt.IsNumeric() {
		switch {
		case lt.IsInteger() && rt.IsInteger():
			wide := widerType(lt, rt)
			if lt != wide {
				l = a.insertCast(ast.CastIntegralCast, l, wide)
			} else {
				r = a.insertCast(ast.CastIntegralCast, r, wide)
			}
			return l, r, wide, true
		case lt.IsFloat() && rt.IsFloat():
			wide := widerType(lt, rt)
			if lt != wide {
				l = a.insertCast(ast.CastFloatWiden, l, wide)
			} else {
				r = a.insertCast(ast.CastFloatWiden, r, wide)
			}
			return l, r, wide, true
		case lt.IsInteger() && rt.IsFloat():
			l = a.insertCast(ast.CastIntToFloat, l, rt)
			return l, r, rt, true
		default: // lt.IsFloat() && rt.IsInteger()
			r = a.insertCast(ast.CastIntToFloat, r, lt)
			return l, r, lt, true
		}
	}

	if isSQLNumeric(lt) || isSQLNumeric(rt) {
		sqlL, sqlLT := a.toSQLNumeric(l, lt)
		sqlR, sqlRT := a.toSQLNumeric(r, rt)
		if sqlLT == nil || sqlRT == nil {
			a.rep.Report(reporter.MsgTypeMismatchBinary, pos, typeNameOrInvalid(lt), typeNameOrInvalid(rt))
			return l, r, nil, false
		}
		if sqlLT == sqlRT {
			return sqlL, sqlR, sqlLT, true
		}
		realT := a.ctx.BuiltinType(types.BuiltinReal)
		if sqlLT.BuiltinKind() == types.BuiltinInteger {
			sqlL = a.insertCast(ast.CastSqlIntToSqlReal, sqlL, realT)
		} else {
			sqlR = a.insertCast(ast.CastSqlIntToSqlReal, sqlR, realT)
		}
		return sqlL, sqlR, realT, true
	}

	a.rep.Report(reporter.MsgTypeMismatchBinary, pos, lt.String(), rt.String())
	return l, r, nil, false
}

func isSQLNumeric(t *types.Type) bool {
	return t != nil && t.Kind() == types.KindBuiltin &&
		(t.BuiltinKind() == types.BuiltinInteger || t.BuiltinKind() == types.BuiltinReal)
}

// toSQLNumeric promotes a primitive int/float operand to its SQL
// counterpart; SQL Integer/Real operands pass through unchanged.
func (a *Analyzer) toSQLNumeric(e ast.Expr, t *types.Type) (ast.Expr, *types.Type) {
	if isSQLNumeric(t) {
		return e, t
	}
	if t.IsInteger() {
		target := a.ctx.BuiltinType(types.BuiltinInteger)
		return a.insertCast(ast.CastIntToSqlInt, e, target), target
	}
	if t.IsFloat() {
		target := a.ctx.BuiltinType(types.BuiltinReal)
		return a.insertCast(ast.CastFloatToSqlReal, e, target), target
	}
	return e, nil
}

func widerType(a, b *types.Type) *types.Type {
	if types.Size(a) >= types.Size(b) {
		return a
	}
	return b
}

// -----------------------------------------------------------------------
// Comparisons
// -----------------------------------------------------------------------

func (a *Analyzer) checkComparison(c *ast.ComparisonExpr) (ast.Expr, *types.Type) {
	left, lt := a.checkExpr(c.Left)
	right, rt := a.checkExpr(c.Right)
	c.Left, c.Right = left, right
	if lt == nil || rt == nil {
		return c, nil
	}

	if lt.Kind() == types.KindPointer && rt.Kind() == types.KindPointer {
		if c.Op != ast.CmpEq && c.Op != ast.CmpNotEq {
			a.rep.Report(reporter.MsgPointerIncompatibleComparison, c.Pos(), lt.String(), rt.String())
			return c, nil
		}
		compatible := lt == rt || lt.Elem().Kind() == types.KindNil || rt.Elem().Kind() == types.KindNil
		if !compatible {
			a.rep.Report(reporter.MsgPointerIncompatibleComparison, c.Pos(), lt.String(), rt.String())
			return c, nil
		}
		result := a.ctx.Primitive(types.KindBool)
		c.SetType(result)
		return c, result
	}

	if lt.IsSQLValue() || rt.IsSQLValue() {
		if !lt.IsSQLValue() || !rt.IsSQLValue() {
			a.rep.Report(reporter.MsgTypeMismatchBinary, c.Pos(), lt.String(), rt.String())
			return c, nil
		}
		if lt != rt {
			if isSQLNumeric(lt) && isSQLNumeric(rt) {
				newL, newR, _, ok := a.normalizeArithmeticOperands(c.Left, c.Right, lt, rt, c.Pos())
				c.Left, c.Right = newL, newR
				if !ok {
					return c, nil
				}
			} else {
				a.rep.Report(reporter.MsgTypeMismatchBinary, c.Pos(), lt.String(), rt.String())
				return c, nil
			}
		}
		result := a.ctx.BuiltinType(types.BuiltinBoolean)
		c.SetType(result)
		return c, result
	}

	if lt.IsNumeric() && rt.IsNumeric() {
		newL, newR, _, ok := a.normalizeArithmeticOperands(c.Left, c.Right, lt, rt, c.Pos())
		c.Left, c.Right = newL, newR
		if !ok {
			return c, nil
		}
		result := a.ctx.Primitive(types.KindBool)
		c.SetType(result)
		return c, result
	}

	if lt == rt {
		result := a.ctx.Primitive(types.KindBool)
		c.SetType(result)
		return c, result
	}

	a.rep.Report(reporter.MsgTypeMismatchBinary, c.Pos(), lt.String(), rt.String())
	return c, nil
}

// -----------------------------------------------------------------------
// Calls
// -----------------------------------------------------------------------

func (a *Analyzer) checkCall(call *ast.CallExpr) (ast.Expr, *types.Type) {
	if call.CallKindTag == ast.CallBuiltin {
		return a.checkBuiltinCall(call)
	}

	calleeIdent, ok := call.Callee.(*ast.IdentifierExpr)
	if !ok {
		a.rep.Report(reporter.MsgNotAFunction, call.Pos(), "<non-identifier callee>")
		return call, nil
	}
	callee, ct := a.checkExpr(calleeIdent)
	call.Callee = callee
	if ct == nil {
		return call, nil
	}
	if ct.Kind() != types.KindFunction {
		a.rep.Report(reporter.MsgNotAFunction, call.Pos(), ct.String())
		return call, nil
	}
	params := ct.Params()
	if len(call.Args) != len(params) {
		a.rep.Report(reporter.MsgArityMismatch, call.Pos(), len(params), len(call.Args))
		return call, ct.Return()
	}
	for i, argExpr := range call.Args {
		arg, at := a.checkExpr(argExpr)
		if at == nil {
			call.Args[i] = arg
			continue
		}
		converted, ok := a.assignConvert(arg, at, params[i])
		if !ok {
			a.rep.Report(reporter.MsgTypeMismatchCallArg, argExpr.Pos(), at.String(), i, params[i].String())
		}
		call.Args[i] = converted
	}
	call.SetType(ct.Return())
	return call, ct.Return()
}

// -----------------------------------------------------------------------
// Index / Member
// -----------------------------------------------------------------------

func (a *Analyzer) checkIndex(ix *ast.IndexExpr) (ast.Expr, *types.Type) {
	obj, ot := a.checkExpr(ix.Object)
	ix.Object = obj
	idx, it := a.checkExpr(ix.Index)
	ix.Index = idx
	if ot == nil || it == nil {
		return ix, nil
	}
	switch ot.Kind() {
	case types.KindArray:
		if !it.IsInteger() {
			a.rep.Report(reporter.MsgIndexRequiresInteger, ix.Index.Pos(), it.String())
			return ix, nil
		}
		result := ot.Elem()
		ix.SetType(result)
		return ix, result
	case types.KindMap:
		key, val := ot.MapKeyVal()
		converted, ok := a.assignConvert(ix.Index, it, key)
		ix.Index = converted
		if !ok {
			a.rep.Report(reporter.MsgIndexRequiresInteger, ix.Index.Pos(), it.String())
			return ix, nil
		}
		ix.SetType(val)
		return ix, val
	default:
		a.rep.Report(reporter.MsgIndexRequiresArrayOrMap, ix.Pos(), ot.String())
		return ix, nil
	}
}

func (a *Analyzer) checkMember(m *ast.MemberExpr) (ast.Expr, *types.Type) {
	obj, ot := a.checkExpr(m.Object)
	m.Object = obj
	if ot == nil {
		return m, nil
	}
	structType := ot
	if ot.Kind() == types.KindPointer {
		structType = ot.Elem()
		m.ViaPointer = true
	}
	if structType.Kind() != types.KindStruct {
		a.rep.Report(reporter.MsgMemberRequiresStruct, m.Pos(), m.Member.String(), ot.String())
		return m, nil
	}
	_, field, ok := structType.FieldByName(m.Member.String())
	if !ok {
		a.rep.Report(reporter.MsgFieldNotInStruct, m.Pos(), structType.String(), m.Member.String())
		return m, nil
	}
	m.SetType(field.Type)
	return m, field.Type
}

// -----------------------------------------------------------------------
// Assignment conversion
// -----------------------------------------------------------------------

// assignConvert converts value (of type vt) for assignment/argument-
// passing into a location of type target, inserting the matching
// implicit cast per spec.md §4.4.3. Returns ok=false (with value
// returned unchanged) if no conversion applies and the types differ.
func (a *Analyzer) assignConvert(value ast.Expr, vt, target *types.Type) (ast.Expr, bool) {
	if vt == target {
		return value, true
	}
	if vt.IsInteger() && target.IsInteger() {
		return a.insertCast(ast.CastIntegralCast, value, target), true
	}
	if vt.IsFloat() && target.IsFloat() {
		kind := ast.CastFloatWiden
		if types.Size(vt) > types.Size(target) {
			kind = ast.CastFloatNarrow
		}
		return a.insertCast(kind, value, target), true
	}
	if vt.IsInteger() && target.IsFloat() {
		return a.insertCast(ast.CastIntToFloat, value, target), true
	}
	if vt.IsFloat() && target.IsInteger() {
		return a.insertCast(ast.CastFloatToInt, value, target), true
	}
	if vt.IsInteger() && target.Kind() == types.KindBuiltin && target.BuiltinKind() == types.BuiltinInteger {
		return a.insertCast(ast.CastIntToSqlInt, value, target), true
	}
	if vt.IsFloat() && target.Kind() == types.KindBuiltin && target.BuiltinKind() == types.BuiltinReal {
		return a.insertCast(ast.CastFloatToSqlReal, value, target), true
	}
	if vt.Kind() == types.KindBuiltin && vt.BuiltinKind() == types.BuiltinInteger &&
		target.Kind() == types.KindBuiltin && target.BuiltinKind() == types.BuiltinReal {
		return a.insertCast(ast.CastSqlIntToSqlReal, value, target), true
	}
	if vt.Kind() == types.KindBuiltin && vt.BuiltinKind() == types.BuiltinBoolean && target.Kind() == types.KindBool {
		return a.insertCast(ast.CastSqlBoolToBool, value, target), true
	}
	if vt.Kind() == types.KindPointer && target.Kind() == types.KindPointer {
		if vt.Elem().Kind() == types.KindNil || target.Elem().Kind() == types.KindNil {
			return a.insertCast(ast.CastBitCast, value, target), true
		}
		if vt.Elem().Kind() == types.KindArray && target.Kind() == types.KindPointer {
			return a.insertCast(ast.CastBitCast, value, target), true
		}
	}
	return value, false
}
