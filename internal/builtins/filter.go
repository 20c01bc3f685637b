package builtins

import (
	"github.com/turingcompl33t/tpl/internal/bytecode"
	"github.com/turingcompl33t/tpl/internal/vm"
)

// TupleIdList is the vectorized filter result: the row positions (table.Rows
// indices) that survived a predicate evaluation over one VectorProjectionIterator
// batch, grounded on original_source/src/sql/vector_projection_iterator.cpp's
// TID-list convention for carrying a selection vector between filter stages
// without materializing a fresh row set.
type TupleIdList struct {
	ids []int
}

func tidListSize(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	l, _ := resolveHandle(handleArg(fr, ins, 0)).(*TupleIdList)
	if l == nil {
		fr.WriteUint(ins.A.Offset(), 8, 0)
		return nil
	}
	fr.WriteUint(ins.A.Offset(), 8, uint64(len(l.ids)))
	return nil
}

func tidListGet(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	l, _ := resolveHandle(handleArg(fr, ins, 0)).(*TupleIdList)
	idx := int(fr.ReadInt(ins.Args[1].Offset(), 8))
	if l == nil || idx < 0 || idx >= len(l.ids) {
		var negOne int64 = -1
		fr.WriteUint(ins.A.Offset(), 8, uint64(negOne))
		return nil
	}
	fr.WriteUint(ins.A.Offset(), 8, uint64(int64(l.ids[idx])))
	return nil
}

// VectorFilterExecutor evaluates one vectorized comparison clause
// (column op constant) against every row in a VectorProjectionIterator's
// current batch, grounded on cyw0ng95-sqlvibe's register VM comparison
// opcodes (BcEq, BcLt, ...) — its per-row scalar comparisons adapted here
// to run once per batch and accumulate surviving rows into a TupleIdList
// instead of branching per instruction.
type VectorFilterExecutor struct {
	vpi  *VectorProjectionIterator
	list *TupleIdList
}

func vfeInit(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	p := ptrArg(fr, ins, 0)
	v, _ := resolveHandle(handleArg(fr, ins, 1)).(*VectorProjectionIterator)
	if p.IsNil() || v == nil {
		return nil
	}
	writeHandle(p, newHandle(&VectorFilterExecutor{vpi: v}))
	return nil
}

// vfeSelectInt runs one Integer-column comparison clause, intersecting
// with whatever the executor has already selected (so multiple
// vfeSelect* calls on the same executor AND their clauses together, the
// same composition FilterManager below uses across separate executors).
func vfeSelectInt(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	vfe, _ := resolveHandle(handleArg(fr, ins, 0)).(*VectorFilterExecutor)
	if vfe == nil {
		return nil
	}
	col := int(fr.ReadInt(ins.Args[1].Offset(), 8))
	op := cmpOp(fr.ReadInt(ins.Args[2].Offset(), 8))
	constant, _ := boxedArg(fr, ins, 3).(Integer)
	vfe.list = intersectIds(vfe.list, selectInt(vfe.vpi, col, op, constant))
	return nil
}

// vfeSelectReal is vfeSelectInt's Real-column counterpart.
func vfeSelectReal(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	vfe, _ := resolveHandle(handleArg(fr, ins, 0)).(*VectorFilterExecutor)
	if vfe == nil {
		return nil
	}
	col := int(fr.ReadInt(ins.Args[1].Offset(), 8))
	op := cmpOp(fr.ReadInt(ins.Args[2].Offset(), 8))
	constant, _ := boxedArg(fr, ins, 3).(Real)
	vfe.list = intersectIds(vfe.list, selectReal(vfe.vpi, col, op, constant))
	return nil
}

func vfeGetTupleIdList(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	vfe, _ := resolveHandle(handleArg(fr, ins, 0)).(*VectorFilterExecutor)
	if vfe == nil {
		setHandleResult(fr, ins, 0)
		return nil
	}
	setHandleResult(fr, ins, newHandle(vfe.list))
	return nil
}

func selectInt(v *VectorProjectionIterator, col int, op cmpOp, constant Integer) *TupleIdList {
	out := &TupleIdList{}
	if v == nil || constant.Null {
		return out
	}
	for cur := v.start; cur < v.end; cur++ {
		row := v.table.Rows[cur]
		if col < 0 || col >= len(row) {
			continue
		}
		iv, ok := row[col].(Integer)
		if !ok || iv.Null {
			continue
		}
		if cmp(op, iv.Value, constant.Value) {
			out.ids = append(out.ids, cur)
		}
	}
	return out
}

func selectReal(v *VectorProjectionIterator, col int, op cmpOp, constant Real) *TupleIdList {
	out := &TupleIdList{}
	if v == nil || constant.Null {
		return out
	}
	for cur := v.start; cur < v.end; cur++ {
		row := v.table.Rows[cur]
		if col < 0 || col >= len(row) {
			continue
		}
		rv, ok := row[col].(Real)
		if !ok || rv.Null {
			continue
		}
		if cmp(op, rv.Value, constant.Value) {
			out.ids = append(out.ids, cur)
		}
	}
	return out
}

// intersectIds ANDs two TID lists together. prev being nil (the
// executor's first clause) means "everything matches so far".
func intersectIds(prev, next *TupleIdList) *TupleIdList {
	if prev == nil {
		return next
	}
	have := make(map[int]bool, len(next.ids))
	for _, id := range next.ids {
		have[id] = true
	}
	out := &TupleIdList{}
	for _, id := range prev.ids {
		if have[id] {
			out.ids = append(out.ids, id)
		}
	}
	return out
}

// filterClause is one FilterManager-registered predicate: a column index,
// a comparison op (reusing sqlvalue.go's cmpOp — the same BcEq/BcLt-style
// enum a VectorFilterExecutor clause uses), and an Integer or Real
// constant operand.
type filterClause struct {
	col    int
	op     cmpOp
	isReal bool
	i      Integer
	r      Real
}

// FilterManager holds a compiled sequence of clauses and drives one
// VectorFilterExecutor per batch to AND them all together, grounded on
// cyw0ng95-sqlvibe's chained comparison-opcode evaluation generalized to
// the vectorized, multi-clause case a compiled WHERE clause needs.
type FilterManager struct {
	clauses []filterClause
}

func filterMgrInit(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	p := ptrArg(fr, ins, 0)
	if p.IsNil() {
		return nil
	}
	writeHandle(p, newHandle(&FilterManager{}))
	return nil
}

func filterMgrInsertIntClause(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	fm, _ := resolveHandle(handleArg(fr, ins, 0)).(*FilterManager)
	if fm == nil {
		return nil
	}
	col := int(fr.ReadInt(ins.Args[1].Offset(), 8))
	op := cmpOp(fr.ReadInt(ins.Args[2].Offset(), 8))
	constant, _ := boxedArg(fr, ins, 3).(Integer)
	fm.clauses = append(fm.clauses, filterClause{col: col, op: op, i: constant})
	return nil
}

func filterMgrInsertRealClause(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	fm, _ := resolveHandle(handleArg(fr, ins, 0)).(*FilterManager)
	if fm == nil {
		return nil
	}
	col := int(fr.ReadInt(ins.Args[1].Offset(), 8))
	op := cmpOp(fr.ReadInt(ins.Args[2].Offset(), 8))
	constant, _ := boxedArg(fr, ins, 3).(Real)
	fm.clauses = append(fm.clauses, filterClause{col: col, op: op, isReal: true, r: constant})
	return nil
}

// filterMgrRunFilters applies every registered clause to vpi's current
// batch, ANDing results across clauses via a fresh VectorFilterExecutor
// per clause, and hands back the surviving rows as a TupleIdList.
func filterMgrRunFilters(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	p := ptrArg(fr, ins, 0)
	fm, _ := resolveHandle(handleArg(fr, ins, 1)).(*FilterManager)
	v, _ := resolveHandle(handleArg(fr, ins, 2)).(*VectorProjectionIterator)
	if p.IsNil() || fm == nil || v == nil {
		return nil
	}
	var result *TupleIdList
	for _, c := range fm.clauses {
		var clause *TupleIdList
		if c.isReal {
			clause = selectReal(v, c.col, c.op, c.r)
		} else {
			clause = selectInt(v, c.col, c.op, c.i)
		}
		result = intersectIds(result, clause)
	}
	if result == nil {
		result = &TupleIdList{}
		for cur := v.start; cur < v.end; cur++ {
			result.ids = append(result.ids, cur)
		}
	}
	writeHandle(p, newHandle(result))
	return nil
}
