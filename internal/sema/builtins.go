package sema

import (
	"strconv"
	"strings"

	"github.com/turingcompl33t/tpl/internal/ast"
	"github.com/turingcompl33t/tpl/internal/reporter"
	"github.com/turingcompl33t/tpl/internal/types"
)

// checkBuiltinCall validates a `@name(...)` call against the fixed
// signature schema for name, per spec.md §4.4.4. The builtin set is
// closed; an unrecognized name is itself an error, not a fallback to
// treating it as a regular call.
func (a *Analyzer) checkBuiltinCall(call *ast.CallExpr) (ast.Expr, *types.Type) {
	name := call.BuiltinName
	switch name {
	case "sizeOf":
		return a.checkSizeOf(call)
	case "offsetOf":
		return a.checkOffsetOf(call)
	case "ptrCast":
		return a.checkPtrCast(call)

	case "intToSql":
		return a.checkUnaryConvert(call, 1, func(at *types.Type) bool { return at.IsInteger() },
			types.BuiltinInteger, ast.CastIntToSqlInt)
	case "floatToSql":
		return a.checkUnaryConvert(call, 1, func(at *types.Type) bool { return at.IsFloat() },
			types.BuiltinReal, ast.CastFloatToSqlReal)
	case "boolToSql":
		return a.checkUnaryConvert(call, 1, func(at *types.Type) bool { return at.Kind() == types.KindBool },
			types.BuiltinBoolean, ast.CastSqlBoolToBool)
	case "stringToSql":
		return a.checkUnaryConvert(call, 1, func(at *types.Type) bool { return at.Kind() == types.KindString },
			types.BuiltinStringVal, ast.CastBitCast)
	case "dateToSql":
		return a.checkFixedArgs(call, []argCheck{intArg, intArg, intArg}, a.ctx.BuiltinType(types.BuiltinDate))

	case "concat":
		return a.checkVariadicSQL(call, types.BuiltinStringVal)
	case "hash":
		return a.checkHash(call)
	case "extractYear":
		return a.checkFixedArgs(call, []argCheck{builtinArg(types.BuiltinDate)}, a.ctx.BuiltinType(types.BuiltinInteger))

	case "sqlSin", "sqlCos", "sqlTan", "sqlExp", "sqlLn", "sqlSqrt", "sqlFloor", "sqlCeil":
		return a.checkFixedArgs(call, []argCheck{builtinArg(types.BuiltinReal)}, a.ctx.BuiltinType(types.BuiltinReal))
	case "sqlRound":
		return a.checkFixedArgs(call, []argCheck{builtinArg(types.BuiltinReal), intArg}, a.ctx.BuiltinType(types.BuiltinReal))

	case "tableIterInit":
		return a.checkFixedArgs(call, []argCheck{
			ptrArg(types.BuiltinTableVectorIterator), ptrArg(types.BuiltinExecutionContext), stringArg,
		}, a.ctx.Primitive(types.KindNil))
	case "tableIterAdvance":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinTableVectorIterator)}, a.ctx.Primitive(types.KindBool))
	case "tableIterGetVPI":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinTableVectorIterator)},
			a.ctx.PointerTo(a.ctx.BuiltinType(types.BuiltinVectorProjectionIterator)))
	case "tableIterClose":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinTableVectorIterator)}, a.ctx.Primitive(types.KindNil))

	case "vpiGetInteger":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinVectorProjectionIterator), intArg},
			a.ctx.BuiltinType(types.BuiltinInteger))
	case "vpiGetReal":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinVectorProjectionIterator), intArg},
			a.ctx.BuiltinType(types.BuiltinReal))
	case "vpiAdvance":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinVectorProjectionIterator)}, a.ctx.Primitive(types.KindBool))

	case "aggHTInit":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinAggregationHashTable), ptrArg(types.BuiltinMemoryPool), intArg},
			a.ctx.Primitive(types.KindNil))
	case "aggHTLookup", "aggHTInsert":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinAggregationHashTable), intArg},
			a.ctx.PointerTo(a.ctx.Primitive(types.KindUint8)))

	case "joinHTInit":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinJoinHashTable), ptrArg(types.BuiltinMemoryPool), intArg},
			a.ctx.Primitive(types.KindNil))
	case "joinHTInsert":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinJoinHashTable), intArg},
			a.ctx.PointerTo(a.ctx.Primitive(types.KindUint8)))
	case "joinHTBuild":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinJoinHashTable)}, a.ctx.Primitive(types.KindNil))

	case "sorterInit":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinSorter), ptrArg(types.BuiltinMemoryPool), intArg},
			a.ctx.Primitive(types.KindNil))
	case "sorterInsert":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinSorter)}, a.ctx.PointerTo(a.ctx.Primitive(types.KindUint8)))
	case "sorterSort":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinSorter)}, a.ctx.Primitive(types.KindNil))
	case "sorterIterInit":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinSorterIterator), ptrArg(types.BuiltinSorter)},
			a.ctx.Primitive(types.KindNil))
	case "sorterIterHasNext":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinSorterIterator)}, a.ctx.Primitive(types.KindBool))
	case "sorterIterGetRow":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinSorterIterator)}, a.ctx.PointerTo(a.ctx.Primitive(types.KindUint8)))
	case "sorterIterNext":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinSorterIterator)}, a.ctx.Primitive(types.KindNil))

	case "joinHTLookup":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinJoinProbeIterator), ptrArg(types.BuiltinJoinHashTable), intArg},
			a.ctx.Primitive(types.KindNil))
	case "joinProbeHasNext":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinJoinProbeIterator)}, a.ctx.Primitive(types.KindBool))
	case "joinProbeGetRow":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinJoinProbeIterator)}, a.ctx.PointerTo(a.ctx.Primitive(types.KindUint8)))
	case "joinProbeNext":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinJoinProbeIterator)}, a.ctx.Primitive(types.KindNil))

	case "filterMgrInit":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinFilterManager)}, a.ctx.Primitive(types.KindNil))
	case "filterMgrInsertIntClause":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinFilterManager), intArg, intArg, builtinArg(types.BuiltinInteger)},
			a.ctx.Primitive(types.KindNil))
	case "filterMgrInsertRealClause":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinFilterManager), intArg, intArg, builtinArg(types.BuiltinReal)},
			a.ctx.Primitive(types.KindNil))
	case "filterMgrRunFilters":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinTupleIdList), ptrArg(types.BuiltinFilterManager), ptrArg(types.BuiltinVectorProjectionIterator)},
			a.ctx.Primitive(types.KindNil))

	case "vfeInit":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinVectorFilterExecutor), ptrArg(types.BuiltinVectorProjectionIterator)},
			a.ctx.Primitive(types.KindNil))
	case "vfeSelectInt":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinVectorFilterExecutor), intArg, intArg, builtinArg(types.BuiltinInteger)},
			a.ctx.Primitive(types.KindNil))
	case "vfeSelectReal":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinVectorFilterExecutor), intArg, intArg, builtinArg(types.BuiltinReal)},
			a.ctx.Primitive(types.KindNil))
	case "vfeGetTupleIdList":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinVectorFilterExecutor)}, a.ctx.PointerTo(a.ctx.BuiltinType(types.BuiltinTupleIdList)))

	case "tidListSize":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinTupleIdList)}, a.ctx.Primitive(types.KindInt64))
	case "tidListGet":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinTupleIdList), intArg}, a.ctx.Primitive(types.KindInt64))

	case "ahtIterInit":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinAHTIterator), ptrArg(types.BuiltinAggregationHashTable)},
			a.ctx.Primitive(types.KindNil))
	case "ahtIterHasNext":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinAHTIterator)}, a.ctx.Primitive(types.KindBool))
	case "ahtIterGetRow":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinAHTIterator)}, a.ctx.PointerTo(a.ctx.Primitive(types.KindUint8)))
	case "ahtIterNext":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinAHTIterator)}, a.ctx.Primitive(types.KindNil))

	case "ahtOverflowIterInit":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinAHTOverflowPartitionIterator), ptrArg(types.BuiltinAggregationHashTable)},
			a.ctx.Primitive(types.KindNil))
	case "ahtOverflowIterHasNext":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinAHTOverflowPartitionIterator)}, a.ctx.Primitive(types.KindBool))
	case "ahtOverflowIterGetRow":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinAHTOverflowPartitionIterator)}, a.ctx.PointerTo(a.ctx.Primitive(types.KindUint8)))
	case "ahtOverflowIterNext":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinAHTOverflowPartitionIterator)}, a.ctx.Primitive(types.KindNil))

	case "countInit", "countStarInit", "integerSumInit", "integerMinInit", "integerMaxInit",
		"realSumInit", "realMinInit", "realMaxInit", "avgInit":
		return a.checkAggInit(call, name)
	case "countAdvance", "countStarAdvance", "integerSumAdvance", "integerMinAdvance", "integerMaxAdvance",
		"realSumAdvance", "realMinAdvance", "realMaxAdvance", "avgAdvance":
		return a.checkAggAdvance(call, name)
	case "countMerge", "countStarMerge", "integerSumMerge", "integerMinMerge", "integerMaxMerge",
		"realSumMerge", "realMinMerge", "realMaxMerge", "avgMerge":
		return a.checkAggMerge(call, name)
	case "countReset", "countStarReset", "integerSumReset", "integerMinReset", "integerMaxReset",
		"realSumReset", "realMinReset", "realMaxReset", "avgReset":
		return a.checkAggReset(call, name)
	case "countResult", "countStarResult", "integerSumResult", "integerMinResult", "integerMaxResult",
		"realSumResult", "realMinResult", "realMaxResult", "avgResult":
		return a.checkAggResult(call, name)

	case "csvReaderInit":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinCSVReader), stringArg}, a.ctx.Primitive(types.KindBool))
	case "csvReaderAdvance":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinCSVReader)}, a.ctx.Primitive(types.KindBool))
	case "csvReaderGetField":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinCSVReader), intArg}, a.ctx.BuiltinType(types.BuiltinStringVal))
	case "csvReaderClose":
		return a.checkFixedArgs(call, []argCheck{ptrArg(types.BuiltinCSVReader)}, a.ctx.Primitive(types.KindNil))

	default:
		a.rep.Report(reporter.MsgUnknownBuiltin, call.Pos(), name)
		return call, nil
	}
}

// argCheck validates and (if necessary) rewrites one argument; it
// returns the possibly-rewritten expression, whether it matched, and a
// human-readable expected-type description for error messages.
type argCheck func(a *Analyzer, e ast.Expr) (ast.Expr, bool, string)

func ptrArg(b types.Builtin) argCheck {
	return func(a *Analyzer, e ast.Expr) (ast.Expr, bool, string) {
		expr, t := a.checkExpr(e)
		want := a.ctx.PointerTo(a.ctx.BuiltinType(b))
		if t == nil {
			return expr, false, want.String()
		}
		if t == want {
			return expr, true, want.String()
		}
		return expr, false, want.String()
	}
}

func builtinArg(b types.Builtin) argCheck {
	return func(a *Analyzer, e ast.Expr) (ast.Expr, bool, string) {
		expr, t := a.checkExpr(e)
		want := a.ctx.BuiltinType(b)
		if t == nil {
			return expr, false, want.String()
		}
		return expr, t == want, want.String()
	}
}

// intArg accepts any integer-typed argument, widening it to int64 so
// every builtin that reads an intArg position at runtime (internal/
// builtins' generic CallRuntime shims) can assume a fixed 8-byte operand
// regardless of which integer type the caller wrote at the call site.
func intArg(a *Analyzer, e ast.Expr) (ast.Expr, bool, string) {
	expr, t := a.checkExpr(e)
	if t == nil || !t.IsInteger() {
		return expr, false, "integer"
	}
	i64 := a.ctx.Primitive(types.KindInt64)
	if t != i64 {
		expr = a.insertCast(ast.CastIntegralCast, expr, i64)
	}
	return expr, true, "integer"
}

func stringArg(a *Analyzer, e ast.Expr) (ast.Expr, bool, string) {
	expr, t := a.checkExpr(e)
	if t == nil {
		return expr, false, "string"
	}
	return expr, t.Kind() == types.KindString, "string"
}

// eitherIntegerOrRealArg accepts a SQL Integer or SQL Real operand — the
// Count aggregator (unlike CountStar) counts non-null values of either
// kind, so its advance clause can't commit to one builtinArg.
func eitherIntegerOrRealArg(a *Analyzer, e ast.Expr) (ast.Expr, bool, string) {
	expr, t := a.checkExpr(e)
	if t == nil {
		return expr, false, "Integer or Real"
	}
	ok := t == a.ctx.BuiltinType(types.BuiltinInteger) || t == a.ctx.BuiltinType(types.BuiltinReal)
	return expr, ok, "Integer or Real"
}

// aggregatorSpec describes one aggregator kind's nominal type, its
// advance clause's value shape, and its result type, per spec.md
// glossary's "a runtime object supporting init, advance, merge, reset,
// result". argKind: 0 = no value argument (CountStar), 1 = Integer,
// 2 = Real, 3 = Integer or Real (Count).
type aggregatorSpec struct {
	builtin types.Builtin
	argKind int
	result  types.Builtin
}

var aggregatorSpecs = map[string]aggregatorSpec{
	"count":      {types.BuiltinCount, 3, types.BuiltinInteger},
	"countStar":  {types.BuiltinCountStar, 0, types.BuiltinInteger},
	"integerSum": {types.BuiltinIntegerSum, 1, types.BuiltinInteger},
	"integerMin": {types.BuiltinIntegerMin, 1, types.BuiltinInteger},
	"integerMax": {types.BuiltinIntegerMax, 1, types.BuiltinInteger},
	"realSum":    {types.BuiltinRealSum, 2, types.BuiltinReal},
	"realMin":    {types.BuiltinRealMin, 2, types.BuiltinReal},
	"realMax":    {types.BuiltinRealMax, 2, types.BuiltinReal},
	"avg":        {types.BuiltinAvg, 2, types.BuiltinReal},
}

func (a *Analyzer) checkAggInit(call *ast.CallExpr, name string) (ast.Expr, *types.Type) {
	spec := aggregatorSpecs[strings.TrimSuffix(name, "Init")]
	return a.checkFixedArgs(call, []argCheck{ptrArg(spec.builtin)}, a.ctx.Primitive(types.KindNil))
}

func (a *Analyzer) checkAggAdvance(call *ast.CallExpr, name string) (ast.Expr, *types.Type) {
	spec := aggregatorSpecs[strings.TrimSuffix(name, "Advance")]
	checks := []argCheck{ptrArg(spec.builtin)}
	switch spec.argKind {
	case 1:
		checks = append(checks, builtinArg(types.BuiltinInteger))
	case 2:
		checks = append(checks, builtinArg(types.BuiltinReal))
	case 3:
		checks = append(checks, eitherIntegerOrRealArg)
	}
	return a.checkFixedArgs(call, checks, a.ctx.Primitive(types.KindNil))
}

func (a *Analyzer) checkAggMerge(call *ast.CallExpr, name string) (ast.Expr, *types.Type) {
	spec := aggregatorSpecs[strings.TrimSuffix(name, "Merge")]
	return a.checkFixedArgs(call, []argCheck{ptrArg(spec.builtin), ptrArg(spec.builtin)}, a.ctx.Primitive(types.KindNil))
}

func (a *Analyzer) checkAggReset(call *ast.CallExpr, name string) (ast.Expr, *types.Type) {
	spec := aggregatorSpecs[strings.TrimSuffix(name, "Reset")]
	return a.checkFixedArgs(call, []argCheck{ptrArg(spec.builtin)}, a.ctx.Primitive(types.KindNil))
}

func (a *Analyzer) checkAggResult(call *ast.CallExpr, name string) (ast.Expr, *types.Type) {
	spec := aggregatorSpecs[strings.TrimSuffix(name, "Result")]
	return a.checkFixedArgs(call, []argCheck{ptrArg(spec.builtin)}, a.ctx.BuiltinType(spec.result))
}

// checkFixedArgs validates an exact-arity builtin call against checks,
// reporting an arity or per-position type mismatch, and sets the call's
// result type to result.
func (a *Analyzer) checkFixedArgs(call *ast.CallExpr, checks []argCheck, result *types.Type) (ast.Expr, *types.Type) {
	if len(call.Args) != len(checks) {
		a.rep.Report(reporter.MsgArityMismatch, call.Pos(), len(checks), len(call.Args))
		return call, result
	}
	ok := true
	for i, check := range checks {
		expr, matched, want := check(a, call.Args[i])
		call.Args[i] = expr
		if !matched {
			a.rep.Report(reporter.MsgInvalidBuiltinSignature, call.Args[i].Pos(), call.BuiltinName,
				"argument "+strconv.Itoa(i)+" must be "+want)
			ok = false
		}
	}
	if !ok {
		call.SetType(result)
		return call, result
	}
	call.SetType(result)
	return call, result
}

func (a *Analyzer) checkSizeOf(call *ast.CallExpr) (ast.Expr, *types.Type) {
	if len(call.Args) != 1 {
		a.rep.Report(reporter.MsgArityMismatch, call.Pos(), 1, len(call.Args))
		return call, a.ctx.Primitive(types.KindUint32)
	}
	t := a.exprAsTypeName(call.Args[0])
	result := a.ctx.Primitive(types.KindUint32)
	if t == nil {
		a.rep.Report(reporter.MsgInvalidBuiltinSignature, call.Args[0].Pos(), "sizeOf", "argument must name a type")
	}
	call.SetType(result)
	return call, result
}

func (a *Analyzer) checkOffsetOf(call *ast.CallExpr) (ast.Expr, *types.Type) {
	result := a.ctx.Primitive(types.KindUint32)
	if len(call.Args) != 2 {
		a.rep.Report(reporter.MsgArityMismatch, call.Pos(), 2, len(call.Args))
		return call, result
	}
	structType := a.exprAsTypeName(call.Args[0])
	fieldIdent, ok := call.Args[1].(*ast.IdentifierExpr)
	if !ok {
		a.rep.Report(reporter.MsgInvalidBuiltinSignature, call.Args[1].Pos(), "offsetOf", "argument 1 must be a field name")
		call.SetType(result)
		return call, result
	}
	if structType == nil || structType.Kind() != types.KindStruct {
		a.rep.Report(reporter.MsgInvalidBuiltinSignature, call.Args[0].Pos(), "offsetOf", "argument 0 must name a struct type")
		call.SetType(result)
		return call, result
	}
	if _, _, ok := structType.FieldByName(fieldIdent.Name.String()); !ok {
		a.rep.Report(reporter.MsgFieldNotInStruct, call.Args[1].Pos(), structType.String(), fieldIdent.Name.String())
	}
	call.SetType(result)
	return call, result
}

// checkPtrCast validates `ptrCast(*T, value)`: the first operand is
// parsed as a unary-deref expression by the general expression grammar
// (since `*T` and pointer-dereference share surface syntax); it is
// reinterpreted here as a type name per spec.md §4.4.4's special case.
func (a *Analyzer) checkPtrCast(call *ast.CallExpr) (ast.Expr, *types.Type) {
	if len(call.Args) != 2 {
		a.rep.Report(reporter.MsgArityMismatch, call.Pos(), 2, len(call.Args))
		return call, nil
	}
	var target *types.Type
	if un, ok := call.Args[0].(*ast.UnaryExpr); ok && un.Op == ast.UnaryDeref {
		if elemT := a.exprAsTypeName(un.Operand); elemT != nil {
			target = a.ctx.PointerTo(elemT)
		}
	} else if t := a.exprAsTypeName(call.Args[0]); t != nil && t.Kind() == types.KindPointer {
		target = t
	}
	if target == nil {
		a.rep.Report(reporter.MsgInvalidBuiltinSignature, call.Args[0].Pos(), "ptrCast", "argument 0 must be a pointer type")
	}
	value, _ := a.checkExpr(call.Args[1])
	call.Args[1] = a.insertCast(ast.CastBitCast, value, target)
	call.SetType(target)
	return call, target
}

func (a *Analyzer) checkUnaryConvert(call *ast.CallExpr, arity int, accepts func(*types.Type) bool, result types.Builtin, cast ast.CastKind) (ast.Expr, *types.Type) {
	resultT := a.ctx.BuiltinType(result)
	if len(call.Args) != arity {
		a.rep.Report(reporter.MsgArityMismatch, call.Pos(), arity, len(call.Args))
		return call, resultT
	}
	arg, at := a.checkExpr(call.Args[0])
	if at == nil || !accepts(at) {
		a.rep.Report(reporter.MsgInvalidBuiltinSignature, call.Args[0].Pos(), call.BuiltinName, "argument 0 has the wrong type")
		call.Args[0] = arg
		call.SetType(resultT)
		return call, resultT
	}
	call.Args[0] = a.insertCast(cast, arg, resultT)
	call.SetType(resultT)
	return call, resultT
}

func (a *Analyzer) checkVariadicSQL(call *ast.CallExpr, result types.Builtin) (ast.Expr, *types.Type) {
	resultT := a.ctx.BuiltinType(result)
	if len(call.Args) == 0 {
		a.rep.Report(reporter.MsgArityMismatch, call.Pos(), 1, 0)
		return call, resultT
	}
	for i, argExpr := range call.Args {
		arg, at := a.checkExpr(argExpr)
		if at == nil || !at.IsSQLValue() {
			a.rep.Report(reporter.MsgInvalidBuiltinSignature, argExpr.Pos(), call.BuiltinName, "every argument must be a SQL value")
		}
		call.Args[i] = arg
	}
	call.SetType(resultT)
	return call, resultT
}

func (a *Analyzer) checkHash(call *ast.CallExpr) (ast.Expr, *types.Type) {
	resultT := a.ctx.Primitive(types.KindUint64)
	if len(call.Args) == 0 {
		a.rep.Report(reporter.MsgArityMismatch, call.Pos(), 1, 0)
		return call, resultT
	}
	for i, argExpr := range call.Args {
		arg, at := a.checkExpr(argExpr)
		if at == nil || !(at.IsSQLValue() || at.IsNumeric()) {
			a.rep.Report(reporter.MsgInvalidBuiltinSignature, argExpr.Pos(), call.BuiltinName, "every argument must be a SQL value or number")
		}
		call.Args[i] = arg
	}
	call.SetType(resultT)
	return call, resultT
}

// exprAsTypeName interprets e as a type-name expression, as used by
// @sizeOf and the first argument of @offsetOf: a bare identifier naming
// a primitive, struct, or builtin, or a `*T` pointer expression built
// from the ordinary expression grammar. Array types are not accepted.
func (a *Analyzer) exprAsTypeName(e ast.Expr) *types.Type {
	switch x := e.(type) {
	case *ast.IdentifierExpr:
		return a.resolveNominal(x.Name.String(), x.Pos())
	case *ast.UnaryExpr:
		if x.Op == ast.UnaryDeref {
			if elem := a.exprAsTypeName(x.Operand); elem != nil {
				return a.ctx.PointerTo(elem)
			}
		}
	}
	return nil
}
