package builtins

import (
	"github.com/turingcompl33t/tpl/internal/bytecode"
	"github.com/turingcompl33t/tpl/internal/vm"
)

// AggregationHashTable groups rows by hash key and hands each group a
// fixed-size payload buffer the calling query function owns the layout
// of (spec.md §4.7's "the VM never interprets a payload, only allocates
// and addresses it"), grounded on cockroachdb-cockroach/sql/group.go's
// hash-then-probe grouping shape generalized from cockroach's
// typed-row grouping to an opaque byte payload.
type AggregationHashTable struct {
	pool     *MemoryPool
	payload  int
	groups   map[uint64][]byte
	inserted []uint64 // insertion order, walked by AHTIterator
}

func aggHTInit(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	p := ptrArg(fr, ins, 0)
	pool := poolArg(fr, ins, 1)
	payload := int(fr.ReadInt(ins.Args[2].Offset(), 8))
	if p.IsNil() {
		return nil
	}
	writeHandle(p, newHandle(&AggregationHashTable{pool: pool, payload: payload, groups: make(map[uint64][]byte)}))
	return nil
}

// aggHTLookup returns the existing group payload for hash, or a null
// pointer (a zero vm.Ptr) if no group has been inserted under it yet — the
// calling query function is expected to follow a miss with aggHTInsert.
func aggHTLookup(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	aht, hash := aggHTArgs(fr, ins)
	if aht == nil {
		fr.SetBoxed(ins.A.Offset(), vm.Ptr{})
		return nil
	}
	buf, ok := aht.groups[hash]
	if !ok {
		fr.SetBoxed(ins.A.Offset(), vm.Ptr{})
		return nil
	}
	fr.SetBoxed(ins.A.Offset(), vm.Ptr{Buf: buf, Off: 0})
	return nil
}

// aggHTInsert allocates a new zeroed payload for hash (the caller is
// responsible for initializing the aggregator state it writes there) and
// returns its address.
func aggHTInsert(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	aht, hash := aggHTArgs(fr, ins)
	if aht == nil {
		fr.SetBoxed(ins.A.Offset(), vm.Ptr{})
		return nil
	}
	buf := aht.pool.Allocate(aht.payload)
	aht.groups[hash] = buf
	aht.inserted = append(aht.inserted, hash)
	fr.SetBoxed(ins.A.Offset(), vm.Ptr{Buf: buf, Off: 0})
	return nil
}

func aggHTArgs(fr *vm.Frame, ins *bytecode.Instr) (*AggregationHashTable, uint64) {
	aht, _ := resolveHandle(handleArg(fr, ins, 0)).(*AggregationHashTable)
	hash := fr.ReadUint(ins.Args[1].Offset(), 8)
	return aht, hash
}

// AHTIterator walks every group an AggregationHashTable holds, in
// insertion order — the post-build scan a compiled aggregation plan
// runs once all input rows have been advanced into their groups,
// mirroring SorterIterator's init/hasNext/getRow/next shape in sorter.go.
type AHTIterator struct {
	aht    *AggregationHashTable
	cursor int
}

func ahtIterInit(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	p := ptrArg(fr, ins, 0)
	aht, _ := resolveHandle(handleArg(fr, ins, 1)).(*AggregationHashTable)
	if p.IsNil() || aht == nil {
		return nil
	}
	writeHandle(p, newHandle(&AHTIterator{aht: aht, cursor: -1}))
	return nil
}

func ahtIterHasNext(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	it, _ := resolveHandle(handleArg(fr, ins, 0)).(*AHTIterator)
	if it == nil {
		fr.WriteBool(ins.A.Offset(), false)
		return nil
	}
	fr.WriteBool(ins.A.Offset(), it.cursor+1 < len(it.aht.inserted))
	return nil
}

func ahtIterGetRow(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	it, _ := resolveHandle(handleArg(fr, ins, 0)).(*AHTIterator)
	if it == nil || it.cursor < 0 || it.cursor >= len(it.aht.inserted) {
		fr.SetBoxed(ins.A.Offset(), vm.Ptr{})
		return nil
	}
	fr.SetBoxed(ins.A.Offset(), vm.Ptr{Buf: it.aht.groups[it.aht.inserted[it.cursor]], Off: 0})
	return nil
}

func ahtIterNext(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	it, _ := resolveHandle(handleArg(fr, ins, 0)).(*AHTIterator)
	if it != nil {
		it.cursor++
	}
	return nil
}

// AHTOverflowPartitionIterator walks the overflow partitions a build-side
// aggregation spills to once it exceeds its in-memory budget.
// original_source's aggregation_hash_table.cpp partitions overflow groups
// across multiple partition files for a later out-of-core merge pass;
// this package's AggregationHashTable never spills (spec.md's "single
// process, single address space" non-goal for out-of-core execution), so
// there is exactly one partition — the table itself — and this iterator
// degenerates to wrapping a single AHTIterator over it. The shim contract
// still matches the multi-partition one so a compiled query plan that
// iterates partitions-of-partitions works unchanged if a future backend
// adds real spilling.
type AHTOverflowPartitionIterator struct {
	it        *AHTIterator
	exhausted bool
}

func ahtOverflowIterInit(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	p := ptrArg(fr, ins, 0)
	aht, _ := resolveHandle(handleArg(fr, ins, 1)).(*AggregationHashTable)
	if p.IsNil() || aht == nil {
		return nil
	}
	writeHandle(p, newHandle(&AHTOverflowPartitionIterator{it: &AHTIterator{aht: aht, cursor: -1}}))
	return nil
}

func ahtOverflowIterHasNext(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	p, _ := resolveHandle(handleArg(fr, ins, 0)).(*AHTOverflowPartitionIterator)
	if p == nil || p.exhausted {
		fr.WriteBool(ins.A.Offset(), false)
		return nil
	}
	fr.WriteBool(ins.A.Offset(), p.it.cursor+1 < len(p.it.aht.inserted))
	return nil
}

func ahtOverflowIterGetRow(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	p, _ := resolveHandle(handleArg(fr, ins, 0)).(*AHTOverflowPartitionIterator)
	if p == nil {
		fr.SetBoxed(ins.A.Offset(), vm.Ptr{})
		return nil
	}
	it := p.it
	if it.cursor < 0 || it.cursor >= len(it.aht.inserted) {
		fr.SetBoxed(ins.A.Offset(), vm.Ptr{})
		return nil
	}
	fr.SetBoxed(ins.A.Offset(), vm.Ptr{Buf: it.aht.groups[it.aht.inserted[it.cursor]], Off: 0})
	return nil
}

// ahtOverflowIterNext advances within the sole partition, marking the
// iterator exhausted once it runs out — there is no second partition to
// advance into.
func ahtOverflowIterNext(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	p, _ := resolveHandle(handleArg(fr, ins, 0)).(*AHTOverflowPartitionIterator)
	if p == nil {
		return nil
	}
	p.it.cursor++
	if p.it.cursor >= len(p.it.aht.inserted) {
		p.exhausted = true
	}
	return nil
}

// aggKind identifies which of the nine aggregator nominal types an
// Aggregator handle was created for (spec.md glossary's "a runtime
// object supporting init, advance, merge, reset, result"), grounded on
// cockroachdb-cockroach/sql/group.go's aggregate accumulator shapes.
type aggKind int

const (
	aggCount aggKind = iota
	aggCountStar
	aggIntegerSum
	aggIntegerMin
	aggIntegerMax
	aggRealSum
	aggRealMin
	aggRealMax
	aggAvg
)

// Aggregator is the runtime accumulator behind every aggregator kind.
// One Go type serves all nine: the fields not relevant to a given kind
// simply stay zero, which keeps the init/advance/merge/reset/result
// shims below a single small dispatch each rather than nine near-
// duplicate structs.
type Aggregator struct {
	kind             aggKind
	count            int64
	sumI, minI, maxI int64
	sumF, minF, maxF float64
	hasValue         bool
}

func (a *Aggregator) advanceInt(v Integer) {
	if v.Null {
		return
	}
	switch a.kind {
	case aggCount:
		a.count++
	case aggIntegerSum:
		a.sumI += v.Value
		a.hasValue = true
	case aggIntegerMin:
		if !a.hasValue || v.Value < a.minI {
			a.minI = v.Value
		}
		a.hasValue = true
	case aggIntegerMax:
		if !a.hasValue || v.Value > a.maxI {
			a.maxI = v.Value
		}
		a.hasValue = true
	}
}

func (a *Aggregator) advanceReal(v Real) {
	if v.Null {
		return
	}
	switch a.kind {
	case aggCount:
		a.count++
	case aggRealSum:
		a.sumF += v.Value
		a.hasValue = true
	case aggRealMin:
		if !a.hasValue || v.Value < a.minF {
			a.minF = v.Value
		}
		a.hasValue = true
	case aggRealMax:
		if !a.hasValue || v.Value > a.maxF {
			a.maxF = v.Value
		}
		a.hasValue = true
	case aggAvg:
		a.sumF += v.Value
		a.count++
	}
}

func (a *Aggregator) merge(o *Aggregator) {
	switch a.kind {
	case aggCount, aggCountStar:
		a.count += o.count
	case aggIntegerSum:
		a.sumI += o.sumI
		a.hasValue = a.hasValue || o.hasValue
	case aggIntegerMin:
		if o.hasValue && (!a.hasValue || o.minI < a.minI) {
			a.minI = o.minI
		}
		a.hasValue = a.hasValue || o.hasValue
	case aggIntegerMax:
		if o.hasValue && (!a.hasValue || o.maxI > a.maxI) {
			a.maxI = o.maxI
		}
		a.hasValue = a.hasValue || o.hasValue
	case aggRealSum:
		a.sumF += o.sumF
		a.hasValue = a.hasValue || o.hasValue
	case aggRealMin:
		if o.hasValue && (!a.hasValue || o.minF < a.minF) {
			a.minF = o.minF
		}
		a.hasValue = a.hasValue || o.hasValue
	case aggRealMax:
		if o.hasValue && (!a.hasValue || o.maxF > a.maxF) {
			a.maxF = o.maxF
		}
		a.hasValue = a.hasValue || o.hasValue
	case aggAvg:
		a.sumF += o.sumF
		a.count += o.count
	}
}

func (a *Aggregator) reset() {
	a.count, a.sumI, a.minI, a.maxI = 0, 0, 0, 0
	a.sumF, a.minF, a.maxF = 0, 0, 0
	a.hasValue = false
}

func (a *Aggregator) result() any {
	switch a.kind {
	case aggCount, aggCountStar:
		return Integer{Value: a.count}
	case aggIntegerSum:
		return Integer{Null: !a.hasValue, Value: a.sumI}
	case aggIntegerMin:
		return Integer{Null: !a.hasValue, Value: a.minI}
	case aggIntegerMax:
		return Integer{Null: !a.hasValue, Value: a.maxI}
	case aggRealSum:
		return Real{Null: !a.hasValue, Value: a.sumF}
	case aggRealMin:
		return Real{Null: !a.hasValue, Value: a.minF}
	case aggRealMax:
		return Real{Null: !a.hasValue, Value: a.maxF}
	default: // aggAvg
		if a.count == 0 {
			return Real{Null: true}
		}
		return Real{Value: a.sumF / float64(a.count)}
	}
}

// aggInit returns the "<kind>Init" shim for kind: each aggregator kind
// has its own nominal type, so only init needs to know which kind it is
// creating — advance/merge/reset/result below read it back off the
// handle and dispatch internally.
func aggInit(kind aggKind) vm.Shim {
	return func(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
		p := ptrArg(fr, ins, 0)
		if p.IsNil() {
			return nil
		}
		writeHandle(p, newHandle(&Aggregator{kind: kind}))
		return nil
	}
}

// aggAdvance implements every "<kind>Advance" shim but countStarAdvance,
// whose sema signature has no value argument (ins.Args has length 1, not
// 2); that shape is handled by aggAdvanceCountStar below instead.
func aggAdvance(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	a, _ := resolveHandle(handleArg(fr, ins, 0)).(*Aggregator)
	if a == nil {
		return nil
	}
	switch v := boxedArg(fr, ins, 1).(type) {
	case Integer:
		a.advanceInt(v)
	case Real:
		a.advanceReal(v)
	}
	return nil
}

func aggAdvanceCountStar(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	a, _ := resolveHandle(handleArg(fr, ins, 0)).(*Aggregator)
	if a != nil {
		a.count++
	}
	return nil
}

func aggMerge(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	a, _ := resolveHandle(handleArg(fr, ins, 0)).(*Aggregator)
	o, _ := resolveHandle(handleArg(fr, ins, 1)).(*Aggregator)
	if a != nil && o != nil {
		a.merge(o)
	}
	return nil
}

func aggReset(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	a, _ := resolveHandle(handleArg(fr, ins, 0)).(*Aggregator)
	if a != nil {
		a.reset()
	}
	return nil
}

func aggResult(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	a, _ := resolveHandle(handleArg(fr, ins, 0)).(*Aggregator)
	if a == nil {
		fr.SetBoxed(ins.A.Offset(), Integer{Null: true})
		return nil
	}
	fr.SetBoxed(ins.A.Offset(), a.result())
	return nil
}
