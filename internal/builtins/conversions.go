package builtins

import (
	"github.com/cespare/xxhash/v2"

	"github.com/turingcompl33t/tpl/internal/bytecode"
	"github.com/turingcompl33t/tpl/internal/vm"
)

// intToSql implements "intToSql": sema wraps @intToSql's argument in a
// CastIntToSqlInt ImplicitCastExpr, so by the time the generic builtin
// dispatch in genCall evaluates it, it has already gone through
// genCast's "boxInt" CallRuntime and Args[0] is already a boxed SQL
// Integer — this shim just forwards it.
func intToSql(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	fr.SetBoxed(ins.A.Offset(), boxedArg(fr, ins, 0))
	return nil
}

// floatToSql implements "floatToSql", the Real analogue of intToSql
// above: its argument already went through genCast's "boxReal".
func floatToSql(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	fr.SetBoxed(ins.A.Offset(), boxedArg(fr, ins, 0))
	return nil
}

func boolToSql(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	fr.SetBoxed(ins.A.Offset(), Boolean{Value: fr.ReadBool(ins.Args[0].Offset())})
	return nil
}

func stringToSql(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	s, _ := boxedArg(fr, ins, 0).(string)
	fr.SetBoxed(ins.A.Offset(), StringVal{Value: s})
	return nil
}

// dateToSql implements "dateToSql": build a SQL Date from year/month/day
// integer components (sema/builtins.go validates exactly three int
// arguments), via the same civil-calendar day-count conversion
// extractYear inverts.
func dateToSql(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	y := int(fr.ReadInt(ins.Args[0].Offset(), 8))
	mo := int(fr.ReadInt(ins.Args[1].Offset(), 8))
	d := int(fr.ReadInt(ins.Args[2].Offset(), 8))
	fr.SetBoxed(ins.A.Offset(), Date{Value: int32(daysFromCivil(y, mo, d))})
	return nil
}

// daysFromCivil is Howard Hinnant's days-since-epoch algorithm, the
// standard closed-form civil-calendar-to-day-count conversion (no
// library in the pack provides this; it's a few lines of integer
// arithmetic, not a dependency-worthy concern).
func daysFromCivil(y, m, d int) int {
	if m <= 2 {
		y--
	}
	era := y
	if era < 0 {
		era -= 399
	}
	era /= 400
	yoe := y - era*400
	var mp int
	if m > 2 {
		mp = m - 3
	} else {
		mp = m + 9
	}
	doy := (153*mp+2)/5 + d - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

// concat implements "concat": variadic string concatenation (spec.md
// §4.4.4's @concat), short-circuiting to a null StringVal if any operand
// is null.
func concat(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	var out []byte
	for _, a := range ins.Args {
		s, ok := fr.Boxed(a.Offset()).(StringVal)
		if !ok || s.Null {
			fr.SetBoxed(ins.A.Offset(), StringVal{Null: true})
			return nil
		}
		out = append(out, s.Value...)
	}
	fr.SetBoxed(ins.A.Offset(), StringVal{Value: string(out)})
	return nil
}

// hash implements "hash": xxhash over every argument's encoded key bytes
// (enckey.go), matching TPL's own upstream choice of xxhash for
// aggregation/join hash tables so @hash and the hash tables agree.
func hash(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	d := xxhash.New()
	for _, a := range ins.Args {
		d.Write(encodeKeyArg(fr, a))
	}
	fr.WriteUint(ins.A.Offset(), 8, d.Sum64())
	return nil
}

// extractYear implements "extractYear": pull the calendar year out of a
// boxed SQL Date.
func extractYear(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	dt, _ := boxedArg(fr, ins, 0).(Date)
	if dt.Null {
		fr.SetBoxed(ins.A.Offset(), Integer{Null: true})
		return nil
	}
	y, _, _ := civilFromDays(int(dt.Value))
	fr.SetBoxed(ins.A.Offset(), Integer{Value: int64(y)})
	return nil
}

// civilFromDays is the inverse of daysFromCivil.
func civilFromDays(z int) (year, month, day int) {
	z += 719468
	era := z
	if era < 0 {
		era -= 146096
	}
	era /= 146097
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d := doy - (153*mp+2)/5 + 1
	var m int
	if mp < 10 {
		m = mp + 3
	} else {
		m = mp - 9
	}
	if m <= 2 {
		y++
	}
	return y, m, d
}
