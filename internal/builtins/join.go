package builtins

import (
	"github.com/turingcompl33t/tpl/internal/bytecode"
	"github.com/turingcompl33t/tpl/internal/vm"
)

// JoinHashTable accumulates build-side rows keyed by hash, then answers
// probe-side lookups after Build closes insertion. A plain Go map plus
// an intrusive per-key chain (the entries slice) is the equi-join
// probing structure here — github.com/google/btree's ordered tree is not
// a fit for hash-equality joins (it answers range queries, not
// hash-equality ones), so it is not wired in for this component; see
// DESIGN.md.
type JoinHashTable struct {
	pool    *MemoryPool
	payload int
	built   bool
	entries map[uint64][][]byte
	order   []uint64 // hash keys in first-insertion order, for deterministic for-in iteration

	iterBucket int
	iterEntry  int
}

func joinHTInit(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	p := ptrArg(fr, ins, 0)
	pool := poolArg(fr, ins, 1)
	payload := int(fr.ReadInt(ins.Args[2].Offset(), 8))
	if p.IsNil() {
		return nil
	}
	writeHandle(p, newHandle(&JoinHashTable{pool: pool, payload: payload, entries: make(map[uint64][][]byte)}))
	return nil
}

// joinHTInsert allocates a build-side row's payload buffer under hash,
// for the caller to fill in. Valid only before joinHTBuild is called.
func joinHTInsert(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	jht, _ := resolveHandle(handleArg(fr, ins, 0)).(*JoinHashTable)
	hash := fr.ReadUint(ins.Args[1].Offset(), 8)
	if jht == nil {
		fr.SetBoxed(ins.A.Offset(), vm.Ptr{})
		return nil
	}
	buf := jht.pool.Allocate(jht.payload)
	if _, ok := jht.entries[hash]; !ok {
		jht.order = append(jht.order, hash)
	}
	jht.entries[hash] = append(jht.entries[hash], buf)
	fr.SetBoxed(ins.A.Offset(), vm.Ptr{Buf: buf, Off: 0})
	return nil
}

// hashTableNext implements "hashTableNext", the runtime name genForIn
// emits for `for entry in jht` over a JoinHashTable: it walks every
// build-side entry across every bucket in insertion order, writing the
// current entry's payload address into elem (ins.B) — a HashTableEntry
// is just the caller-owned byte buffer itself, so no handle is needed,
// unlike the VectorProjectionIterator case in table.go. jht (ins.C) is
// read as a raw handle, matching tableIterNext's convention for the
// iterable operand genForIn passes directly.
func hashTableNext(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	h := fr.ReadUint(ins.C.Offset(), 8)
	jht, _ := resolveHandle(h).(*JoinHashTable)
	if jht == nil {
		fr.WriteBool(ins.A.Offset(), false)
		return nil
	}
	for jht.iterBucket < len(jht.order) {
		bucket := jht.entries[jht.order[jht.iterBucket]]
		if jht.iterEntry < len(bucket) {
			fr.SetBoxed(ins.B.Offset(), vm.Ptr{Buf: bucket[jht.iterEntry], Off: 0})
			jht.iterEntry++
			fr.WriteBool(ins.A.Offset(), true)
			return nil
		}
		jht.iterBucket++
		jht.iterEntry = 0
	}
	fr.WriteBool(ins.A.Offset(), false)
	return nil
}

// JoinProbeIterator walks the build-side entries matching one probe-side
// hash, handed out by joinHTLookup — the probe half of the join protocol
// joinHTInsert/joinHTBuild set up on the build side. Its init/hasNext/
// getRow/next shape mirrors SorterIterator in sorter.go.
type JoinProbeIterator struct {
	bucket [][]byte
	cursor int
}

// joinHTLookup is the probe/lookup-by-hash builtin: it hands back an
// iterator over every build-side row inserted under hash (the bucket may
// hold zero, one, or many rows — an equi-join key is not unique on the
// build side in general), rather than a single pointer the way
// aggHTLookup does for its one-row-per-key groups.
func joinHTLookup(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	p := ptrArg(fr, ins, 0)
	jht, _ := resolveHandle(handleArg(fr, ins, 1)).(*JoinHashTable)
	hash := fr.ReadUint(ins.Args[2].Offset(), 8)
	if p.IsNil() || jht == nil {
		return nil
	}
	writeHandle(p, newHandle(&JoinProbeIterator{bucket: jht.entries[hash], cursor: -1}))
	return nil
}

func joinProbeHasNext(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	it, _ := resolveHandle(handleArg(fr, ins, 0)).(*JoinProbeIterator)
	if it == nil {
		fr.WriteBool(ins.A.Offset(), false)
		return nil
	}
	fr.WriteBool(ins.A.Offset(), it.cursor+1 < len(it.bucket))
	return nil
}

func joinProbeGetRow(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	it, _ := resolveHandle(handleArg(fr, ins, 0)).(*JoinProbeIterator)
	if it == nil || it.cursor < 0 || it.cursor >= len(it.bucket) {
		fr.SetBoxed(ins.A.Offset(), vm.Ptr{})
		return nil
	}
	fr.SetBoxed(ins.A.Offset(), vm.Ptr{Buf: it.bucket[it.cursor], Off: 0})
	return nil
}

func joinProbeNext(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	it, _ := resolveHandle(handleArg(fr, ins, 0)).(*JoinProbeIterator)
	if it != nil {
		it.cursor++
	}
	return nil
}

// joinHTBuild finalizes the build side. This in-memory hash map needs no
// further indexing step, unlike original_source's partitioned
// build-then-sort join table, so this is a no-op marker the probe side
// can check — kept as its own builtin so the call sequence in compiled
// query plans matches spec.md §4.7's join protocol exactly.
func joinHTBuild(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	jht, _ := resolveHandle(handleArg(fr, ins, 0)).(*JoinHashTable)
	if jht != nil {
		jht.built = true
	}
	return nil
}
