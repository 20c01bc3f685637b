package builtins

import (
	"github.com/turingcompl33t/tpl/internal/bytecode"
	"github.com/turingcompl33t/tpl/internal/vm"
)

// vectorBatchSize caps how many rows one TableVectorIterator batch holds,
// grounded on original_source/src/sql/vector_projection_iterator.cpp's
// fixed vector size (NoisePage's "projected column batch" convention);
// scenario tables in this package are small enough that this is usually
// one batch, but the loop in tableIterAdvance still chunks by it so
// larger catalogs exercise more than a single iteration.
const vectorBatchSize = 2048

// TableVectorIterator scans a Table's rows in fixed-size batches, handing
// each batch to a VectorProjectionIterator (tableIterGetVPI) for
// column-at-a-time access — the two-iterator split mirrors
// cyw0ng95-sqlvibe's register VM separating "which rows" from "which
// column value" even though this in-memory table has no on-disk segment
// boundaries to respect.
type TableVectorIterator struct {
	table *Table
	pos   int // next row to start a batch at
	vpi   uint64
}

func tableIterInit(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	p := ptrArg(fr, ins, 0)
	ec, _ := fr.Boxed(ins.Args[1].Offset()).(*ExecutionContext)
	name, _ := fr.Boxed(ins.Args[2].Offset()).(string)
	if ec == nil || p.IsNil() {
		fr.WriteBool(ins.A.Offset(), false)
		return nil
	}
	t, ok := ec.Catalog[name]
	if !ok {
		fr.WriteBool(ins.A.Offset(), false)
		return nil
	}
	writeHandle(p, newHandle(&TableVectorIterator{table: t}))
	fr.WriteBool(ins.A.Offset(), true)
	return nil
}

func tableIterAdvance(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	it, _ := resolveHandle(handleArg(fr, ins, 0)).(*TableVectorIterator)
	if it == nil || it.pos >= len(it.table.Rows) {
		fr.WriteBool(ins.A.Offset(), false)
		return nil
	}
	end := it.pos + vectorBatchSize
	if end > len(it.table.Rows) {
		end = len(it.table.Rows)
	}
	vpi := &VectorProjectionIterator{table: it.table, start: it.pos, end: end, cursor: it.pos - 1}
	it.vpi = newHandle(vpi)
	it.pos = end
	fr.WriteBool(ins.A.Offset(), true)
	return nil
}

func tableIterGetVPI(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	it, _ := resolveHandle(handleArg(fr, ins, 0)).(*TableVectorIterator)
	if it == nil {
		setHandleResult(fr, ins, 0)
		return nil
	}
	setHandleResult(fr, ins, it.vpi)
	return nil
}

func tableIterClose(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	closeHandle(handleArg(fr, ins, 0))
	return nil
}

// tableIterNext implements "tableIterNext", the runtime name genForIn
// emits for `for row in iter` over a TableVectorIterator: it advances
// through vector batches transparently, writing the active
// VectorProjectionIterator's handle into elem (ins.B) and reporting
// exhaustion via ins.A. Unlike tableIterAdvance/tableIterGetVPI above,
// this shim's iter operand (ins.C) is the iterator local itself, not its
// address — genForIn passes the iterable's LocalVar directly — so its
// handle is read as a raw 8-byte value at ins.C rather than through
// ptrArg/handleArg.
func tableIterNext(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	h := fr.ReadUint(ins.C.Offset(), 8)
	it, _ := resolveHandle(h).(*TableVectorIterator)
	if it == nil {
		fr.WriteBool(ins.A.Offset(), false)
		return nil
	}
	for {
		if vpi, _ := resolveHandle(it.vpi).(*VectorProjectionIterator); vpi != nil && vpi.cursor+1 < vpi.end {
			vpi.cursor++
			fr.SetBoxed(ins.B.Offset(), it.vpi)
			fr.WriteBool(ins.A.Offset(), true)
			return nil
		}
		if it.pos >= len(it.table.Rows) {
			fr.WriteBool(ins.A.Offset(), false)
			return nil
		}
		end := it.pos + vectorBatchSize
		if end > len(it.table.Rows) {
			end = len(it.table.Rows)
		}
		it.vpi = newHandle(&VectorProjectionIterator{table: it.table, start: it.pos, end: end, cursor: it.pos - 1})
		it.pos = end
	}
}

// VectorProjectionIterator exposes column-at-a-time access to one
// TableVectorIterator batch's current row.
type VectorProjectionIterator struct {
	table  *Table
	start  int
	end    int
	cursor int // table.Rows index of the current row, start-1 before the first Advance
}

func (v *VectorProjectionIterator) row() []any {
	if v.cursor < v.start || v.cursor >= v.end {
		return nil
	}
	return v.table.Rows[v.cursor]
}

func vpiAdvance(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	v, _ := resolveHandle(handleArg(fr, ins, 0)).(*VectorProjectionIterator)
	if v == nil {
		fr.WriteBool(ins.A.Offset(), false)
		return nil
	}
	v.cursor++
	fr.WriteBool(ins.A.Offset(), v.cursor < v.end)
	return nil
}

func vpiGetInteger(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	v, col := vpiArgs(fr, ins)
	if v == nil {
		fr.SetBoxed(ins.A.Offset(), Integer{Null: true})
		return nil
	}
	row := v.row()
	if row == nil || col < 0 || col >= len(row) {
		fr.SetBoxed(ins.A.Offset(), Integer{Null: true})
		return nil
	}
	iv, _ := row[col].(Integer)
	fr.SetBoxed(ins.A.Offset(), iv)
	return nil
}

func vpiGetReal(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	v, col := vpiArgs(fr, ins)
	if v == nil {
		fr.SetBoxed(ins.A.Offset(), Real{Null: true})
		return nil
	}
	row := v.row()
	if row == nil || col < 0 || col >= len(row) {
		fr.SetBoxed(ins.A.Offset(), Real{Null: true})
		return nil
	}
	rv, _ := row[col].(Real)
	fr.SetBoxed(ins.A.Offset(), rv)
	return nil
}

func vpiArgs(fr *vm.Frame, ins *bytecode.Instr) (*VectorProjectionIterator, int) {
	v, _ := resolveHandle(handleArg(fr, ins, 0)).(*VectorProjectionIterator)
	col := int(fr.ReadInt(ins.Args[1].Offset(), 8))
	return v, col
}
