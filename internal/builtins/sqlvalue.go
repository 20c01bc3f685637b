// Package builtins implements the native handlers behind TPL's runtime
// builtin calls (spec.md §4.7): SQL value arithmetic/comparison, table
// and vector iteration, aggregation, joins, sorting, and CSV input. Each
// handler is a vm.Shim registered under the same name the bytecode
// generator emits in an OpCallRuntime instruction's Name field.
//
// The grounding for the SQL value shapes themselves (a nullable tagged
// value per glossary's "SQL value") is cockroachdb-cockroach's
// util/encoding package, whose memcmp-ordered byte encoding this package
// reuses conceptually for sort/hash keys (see enckey.go); cockroach's own
// package is internal to its module and not importable here.
package builtins

import (
	"math"

	"golang.org/x/exp/constraints"

	"github.com/turingcompl33t/tpl/internal/bytecode"
	"github.com/turingcompl33t/tpl/internal/vm"
)

// Integer is the SQL Integer value: a nullable signed 64-bit quantity.
type Integer struct {
	Null  bool
	Value int64
}

// Real is the SQL Real value: a nullable IEEE-754 double.
type Real struct {
	Null  bool
	Value float64
}

// Date is the SQL Date value: a nullable count of days since
// 1970-01-01 (proleptic Gregorian calendar).
type Date struct {
	Null  bool
	Value int32
}

// Timestamp is the SQL Timestamp value: a nullable microseconds-since-
// epoch quantity.
type Timestamp struct {
	Null  bool
	Value int64
}

// StringVal is the SQL StringVal value: a nullable string.
type StringVal struct {
	Null  bool
	Value string
}

// Boolean is TPL's SQL-nullable bool. It is vm.SQLBool itself, not a
// distinct type: the ForceBoolTruth opcode is a native VM instruction,
// not a CallRuntime shim, so the VM must be able to type-assert a value
// this package produces directly.
type Boolean = vm.SQLBool

// boxInt implements the "boxInt" runtime name: box a primitive signed or
// unsigned integer of any width (carried on ins.SrcSize/Signed, since the
// generator emits this same name regardless of source width) from ins.B
// into a SQL Integer. genCast emits this as a single-operand B-only
// instruction, not a variadic CallRuntime, so the source is ins.B rather
// than ins.Args[0].
func boxInt(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	var v int64
	if ins.Signed {
		v = fr.ReadInt(ins.B.Offset(), int(ins.SrcSize))
	} else {
		v = int64(fr.ReadUint(ins.B.Offset(), int(ins.SrcSize)))
	}
	fr.SetBoxed(ins.A.Offset(), Integer{Value: v})
	return nil
}

// boxReal implements "boxReal": box a primitive float32 or float64 (width
// on ins.SrcSize) from ins.B into a SQL Real.
func boxReal(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	var f float64
	if ins.SrcSize == 4 {
		f = float64(fr.ReadFloat32(ins.B.Offset()))
	} else {
		f = fr.ReadFloat64(ins.B.Offset())
	}
	fr.SetBoxed(ins.A.Offset(), Real{Value: f})
	return nil
}

// sqlIntToReal implements "sqlIntToReal": promote an already-boxed SQL
// Integer at ins.B to a SQL Real, preserving nullness.
func sqlIntToReal(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	i, _ := fr.Boxed(ins.B.Offset()).(Integer)
	fr.SetBoxed(ins.A.Offset(), Real{Null: i.Null, Value: float64(i.Value)})
	return nil
}

// boxedArg reads the i'th argument of a variadic CallRuntime instruction
// (one whose operands ride on ins.Args, not ins.B/ins.C — genCall's
// generic builtin-dispatch path, used by every shim in this file except
// the binary-operator and cast family above).
func boxedArg(fr *vm.Frame, ins *bytecode.Instr, i int) any {
	return fr.Boxed(ins.Args[i].Offset())
}

func sqlAdd(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error { return sqlArith(fr, ins, opAdd) }
func sqlSub(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error { return sqlArith(fr, ins, opSub) }
func sqlMul(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error { return sqlArith(fr, ins, opMul) }
func sqlDiv(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error { return sqlArith(fr, ins, opDiv) }
func sqlMod(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error { return sqlArith(fr, ins, opMod) }
func sqlBitAnd(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	return sqlArith(fr, ins, opBitAnd)
}
func sqlBitOr(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error { return sqlArith(fr, ins, opBitOr) }
func sqlBitXor(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	return sqlArith(fr, ins, opBitXor)
}

type arithOp int

const (
	opAdd arithOp = iota
	opSub
	opMul
	opDiv
	opMod
	opBitAnd
	opBitOr
	opBitXor
)

// sqlArith dispatches a boxed l/r pair held in ins.B/ins.C (genBinary
// emits SQL arithmetic this way, not as a variadic CallRuntime), both
// Integer or both Real — sema's normalizeArithmeticOperands
// guarantees a common SQL type by the time this shim runs — per
// spec.md §4.4.3's SQL-numeric promotion table. Bitwise ops are
// Integer-only, per §4.4.4's builtin signature table.
func sqlArith(fr *vm.Frame, ins *bytecode.Instr, op arithOp) error {
	l0 := fr.Boxed(ins.B.Offset())
	if l, ok := l0.(Integer); ok {
		r, _ := fr.Boxed(ins.C.Offset()).(Integer)
		if l.Null || r.Null {
			fr.SetBoxed(ins.A.Offset(), Integer{Null: true})
			return nil
		}
		result, divZero := arithInt(op, l.Value, r.Value)
		if divZero {
			name := "sqlDiv"
			if op == opMod {
				name = "sqlMod"
			}
			return &vm.RuntimeError{Func: name, Msg: "division by zero"}
		}
		fr.SetBoxed(ins.A.Offset(), Integer{Value: result})
		return nil
	}
	l, _ := l0.(Real)
	r, _ := fr.Boxed(ins.C.Offset()).(Real)
	if l.Null || r.Null {
		fr.SetBoxed(ins.A.Offset(), Real{Null: true})
		return nil
	}
	fr.SetBoxed(ins.A.Offset(), Real{Value: arithFloat(op, l.Value, r.Value)})
	return nil
}

// arithInt evaluates an integer arithOp generically over any signed
// integer width (only int64 is instantiated today, for SQL Integer, but
// the generic form is what lets this and arithFloat below share one
// dispatch shape per golang.org/x/exp/constraints). The second return
// value reports division/modulo by zero; the caller picks the right
// RuntimeError.Func name since arithOp alone can't name the builtin.
func arithInt[T constraints.Signed](op arithOp, l, r T) (T, bool) {
	switch op {
	case opAdd:
		return l + r, false
	case opSub:
		return l - r, false
	case opMul:
		return l * r, false
	case opDiv:
		if r == 0 {
			return 0, true
		}
		return l / r, false
	case opMod:
		if r == 0 {
			return 0, true
		}
		return l % r, false
	case opBitAnd:
		return l & r, false
	case opBitOr:
		return l | r, false
	default: // opBitXor
		return l ^ r, false
	}
}

// arithFloat evaluates an arithOp over any floating-point width. Real
// division by zero produces IEEE-754 Inf/NaN rather than an error,
// matching the VM's own float-division policy.
func arithFloat[T constraints.Float](op arithOp, l, r T) T {
	switch op {
	case opAdd:
		return l + r
	case opSub:
		return l - r
	case opMul:
		return l * r
	case opDiv:
		return l / r
	default: // opMod
		return T(math.Mod(float64(l), float64(r)))
	}
}

func sqlCompareEq(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	return sqlCompare(fr, ins, cmpEq)
}
func sqlCompareNe(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	return sqlCompare(fr, ins, cmpNe)
}
func sqlCompareLt(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	return sqlCompare(fr, ins, cmpLt)
}
func sqlCompareLe(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	return sqlCompare(fr, ins, cmpLe)
}
func sqlCompareGt(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	return sqlCompare(fr, ins, cmpGt)
}
func sqlCompareGe(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	return sqlCompare(fr, ins, cmpGe)
}

type cmpOp int

const (
	cmpEq cmpOp = iota
	cmpNe
	cmpLt
	cmpLe
	cmpGt
	cmpGe
)

// cmp evaluates a cmpOp over any ordered type (int64 for Integer/
// Timestamp, int32 for Date, float64 for Real, int64 for the string
// ordinal below) — one generic body instead of a hand-duplicated
// function per operand width, per golang.org/x/exp/constraints.
func cmp[T constraints.Ordered](c cmpOp, l, r T) bool {
	switch c {
	case cmpEq:
		return l == r
	case cmpNe:
		return l != r
	case cmpLt:
		return l < r
	case cmpLe:
		return l <= r
	case cmpGt:
		return l > r
	default:
		return l >= r
	}
}

// sqlCompare evaluates a SQL comparison held in ins.B/ins.C (genBinary's
// comparison path, the same shape as sqlArith above). A null operand
// makes the result itself a SQL-null Boolean (three-valued logic),
// consistent with ForceBoolTruth treating a null Boolean as primitive
// false.
func sqlCompare(fr *vm.Frame, ins *bytecode.Instr, c cmpOp) error {
	l0 := fr.Boxed(ins.B.Offset())
	if l, ok := l0.(Integer); ok {
		r, _ := fr.Boxed(ins.C.Offset()).(Integer)
		if l.Null || r.Null {
			fr.SetBoxed(ins.A.Offset(), Boolean{Null: true})
			return nil
		}
		fr.SetBoxed(ins.A.Offset(), Boolean{Value: cmp(c, l.Value, r.Value)})
		return nil
	}
	if l, ok := l0.(Real); ok {
		r, _ := fr.Boxed(ins.C.Offset()).(Real)
		if l.Null || r.Null {
			fr.SetBoxed(ins.A.Offset(), Boolean{Null: true})
			return nil
		}
		fr.SetBoxed(ins.A.Offset(), Boolean{Value: cmp(c, l.Value, r.Value)})
		return nil
	}
	if l, ok := l0.(StringVal); ok {
		r, _ := fr.Boxed(ins.C.Offset()).(StringVal)
		if l.Null || r.Null {
			fr.SetBoxed(ins.A.Offset(), Boolean{Null: true})
			return nil
		}
		var ord int64
		switch {
		case l.Value < r.Value:
			ord = -1
		case l.Value > r.Value:
			ord = 1
		}
		fr.SetBoxed(ins.A.Offset(), Boolean{Value: cmp[int64](c, ord, 0)})
		return nil
	}
	if l, ok := l0.(Timestamp); ok {
		r, _ := fr.Boxed(ins.C.Offset()).(Timestamp)
		if l.Null || r.Null {
			fr.SetBoxed(ins.A.Offset(), Boolean{Null: true})
			return nil
		}
		fr.SetBoxed(ins.A.Offset(), Boolean{Value: cmp(c, l.Value, r.Value)})
		return nil
	}
	l, _ := l0.(Date)
	r, _ := fr.Boxed(ins.C.Offset()).(Date)
	if l.Null || r.Null {
		fr.SetBoxed(ins.A.Offset(), Boolean{Null: true})
		return nil
	}
	fr.SetBoxed(ins.A.Offset(), Boolean{Value: cmp(c, l.Value, r.Value)})
	return nil
}

// realUnary applies fn to a boxed SQL Real argument (genCall's generic
// Args-slice convention), preserving nullness — the shape every
// trig/exp/rounding builtin below shares.
func realUnary(fr *vm.Frame, ins *bytecode.Instr, fn func(float64) float64) error {
	r, _ := boxedArg(fr, ins, 0).(Real)
	if r.Null {
		fr.SetBoxed(ins.A.Offset(), Real{Null: true})
		return nil
	}
	fr.SetBoxed(ins.A.Offset(), Real{Value: fn(r.Value)})
	return nil
}

func sqlSin(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error  { return realUnary(fr, ins, math.Sin) }
func sqlCos(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error  { return realUnary(fr, ins, math.Cos) }
func sqlTan(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error  { return realUnary(fr, ins, math.Tan) }
func sqlExp(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error  { return realUnary(fr, ins, math.Exp) }
func sqlLn(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error   { return realUnary(fr, ins, math.Log) }
func sqlSqrt(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error { return realUnary(fr, ins, math.Sqrt) }
func sqlFloor(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	return realUnary(fr, ins, math.Floor)
}
func sqlCeil(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	return realUnary(fr, ins, math.Ceil)
}

// sqlRound rounds a boxed SQL Real to ins's second argument's number of
// decimal places (a primitive int64, not a boxed SQL Integer — intArg's
// width-normalization in sema/builtins.go guarantees an 8-byte operand).
func sqlRound(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	r, _ := boxedArg(fr, ins, 0).(Real)
	if r.Null {
		fr.SetBoxed(ins.A.Offset(), Real{Null: true})
		return nil
	}
	places := fr.ReadInt(ins.Args[1].Offset(), 8)
	scale := math.Pow(10, float64(places))
	fr.SetBoxed(ins.A.Offset(), Real{Value: math.Round(r.Value*scale) / scale})
	return nil
}
