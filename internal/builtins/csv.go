package builtins

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/turingcompl33t/tpl/internal/bytecode"
	"github.com/turingcompl33t/tpl/internal/vm"
)

// CSVReader streams one row at a time from a file on disk, for plan
// functions that scan external data rather than a catalog Table (grounded
// on original_source's CSV-backed scenario, §4.7/S6's bulk-load path).
// encoding/csv is the standard library's own CSV reader; nothing in the
// example pack wraps a richer CSV library, and the format itself is
// simple enough that reaching past the standard one would just be
// reimplementing it, so this is the one builtin in the package that is
// deliberately stdlib-only.
type CSVReader struct {
	f    *os.File
	r    *csv.Reader
	row  []string
	done bool
}

func csvReaderInit(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	p := ptrArg(fr, ins, 0)
	path, _ := fr.Boxed(ins.Args[1].Offset()).(string)
	if p.IsNil() {
		fr.WriteBool(ins.A.Offset(), false)
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		fr.WriteBool(ins.A.Offset(), false)
		return nil
	}
	writeHandle(p, newHandle(&CSVReader{f: f, r: csv.NewReader(f)}))
	fr.WriteBool(ins.A.Offset(), true)
	return nil
}

func csvReaderAdvance(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	r, _ := resolveHandle(handleArg(fr, ins, 0)).(*CSVReader)
	if r == nil || r.done {
		fr.WriteBool(ins.A.Offset(), false)
		return nil
	}
	row, err := r.r.Read()
	if err != nil {
		r.done = true
		if err != io.EOF {
			return err
		}
		fr.WriteBool(ins.A.Offset(), false)
		return nil
	}
	r.row = row
	fr.WriteBool(ins.A.Offset(), true)
	return nil
}

func csvReaderGetField(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	r, _ := resolveHandle(handleArg(fr, ins, 0)).(*CSVReader)
	col := int(fr.ReadInt(ins.Args[1].Offset(), 8))
	if r == nil || col < 0 || col >= len(r.row) {
		fr.SetBoxed(ins.A.Offset(), StringVal{Null: true})
		return nil
	}
	fr.SetBoxed(ins.A.Offset(), StringVal{Value: r.row[col]})
	return nil
}

func csvReaderClose(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	r, _ := resolveHandle(handleArg(fr, ins, 0)).(*CSVReader)
	if r != nil {
		r.f.Close()
	}
	closeHandle(handleArg(fr, ins, 0))
	return nil
}
