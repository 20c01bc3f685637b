package builtins

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/turingcompl33t/tpl/internal/bytecode"
	"github.com/turingcompl33t/tpl/internal/vm"
)

// Sorter accumulates fixed-size row payloads and sorts them by raw byte
// comparison of the payload — compiled query code is expected to write
// its sort key as an enckey.go-style memcmp-ordered prefix at the start
// of each row, the same convention the hash builtins' own key encoding
// uses, so a single byte-compare rule serves both. original_source's
// sorter.cpp instead threads a generated comparator function through;
// TPL's runtime builtins have no function-pointer calling convention for
// that, so the ordered-prefix convention stands in for it.
type Sorter struct {
	pool    *MemoryPool
	payload int
	mu      sync.Mutex
	rows    [][]byte
	sorted  bool
}

func sorterInit(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	p := ptrArg(fr, ins, 0)
	pool := poolArg(fr, ins, 1)
	payload := int(fr.ReadInt(ins.Args[2].Offset(), 8))
	if p.IsNil() {
		return nil
	}
	writeHandle(p, newHandle(&Sorter{pool: pool, payload: payload}))
	return nil
}

// sorterInsert allocates the next row's payload buffer. Safe to call
// concurrently from several VMs sharing this Sorter: the payload
// allocation and the append both happen under the sorter's mutex.
func sorterInsert(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	s, _ := resolveHandle(handleArg(fr, ins, 0)).(*Sorter)
	if s == nil {
		fr.SetBoxed(ins.A.Offset(), vm.Ptr{})
		return nil
	}
	s.mu.Lock()
	buf := s.pool.Allocate(s.payload)
	s.rows = append(s.rows, buf)
	s.mu.Unlock()
	fr.SetBoxed(ins.A.Offset(), vm.Ptr{Buf: buf, Off: 0})
	return nil
}

// sorterSort sorts the accumulated rows in place. Large row counts are
// split into runtime.GOMAXPROCS chunks, each sorted on its own goroutine,
// then k-way merged — the parallel-sort-then-merge structure
// original_source's sorter.cpp uses for its per-thread builders, applied
// here to one shared row slice since this package's builtins have no
// per-worker builder handle of their own.
func sorterSort(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	s, _ := resolveHandle(handleArg(fr, ins, 0)).(*Sorter)
	if s == nil {
		return nil
	}
	rows, err := parallelSort(m, s.rows)
	if err != nil {
		return err
	}
	s.rows = rows
	s.sorted = true
	return nil
}

func less(a, b []byte) bool { return bytes.Compare(a, b) < 0 }

// sortChunks is the vm.ThreadStates implementation parallelSort hands
// vm.RunParallel: each worker's slot is the chunk of rows it alone sorts
// in place, mirroring original_source's sorter.cpp thread-local-builders
// structure with goroutine-local chunks standing in for the per-thread
// builders (§4.4.4's sorting entry; scenario S7).
type sortChunks struct{ chunks [][][]byte }

func (s *sortChunks) Len() int       { return len(s.chunks) }
func (s *sortChunks) Slot(i int) any { return s.chunks[i] }

// parallelSort sorts rows across vm.Workers() goroutines via
// vm.VM.RunParallel and merges the resulting runs. Below a small
// threshold it just sorts in place — parallelism overhead isn't worth it
// for a handful of rows, and RunParallel's worker-per-hardware-thread
// fan-out would be pure overhead at that size.
func parallelSort(m *vm.VM, rows [][]byte) ([][]byte, error) {
	const minParallelRows = 4096
	if len(rows) < minParallelRows {
		sort.Slice(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
		return rows, nil
	}
	workers := vm.Workers()
	chunkSize := (len(rows) + workers - 1) / workers
	var chunks [][][]byte
	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		chunks = append(chunks, rows[start:end])
	}
	err := m.RunParallel(context.Background(), &sortChunks{chunks: chunks}, func(worker int, wvm *vm.VM, state any) error {
		chunk := state.([][]byte)
		sort.Slice(chunk, func(i, j int) bool { return less(chunk[i], chunk[j]) })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mergeRuns(chunks), nil
}

// mergeRuns k-way merges already-sorted runs into one sorted slice.
func mergeRuns(runs [][][]byte) [][]byte {
	total := 0
	for _, r := range runs {
		total += len(r)
	}
	out := make([][]byte, 0, total)
	idx := make([]int, len(runs))
	for {
		best := -1
		for i, r := range runs {
			if idx[i] >= len(r) {
				continue
			}
			if best == -1 || less(r[idx[i]], runs[best][idx[best]]) {
				best = i
			}
		}
		if best == -1 {
			break
		}
		out = append(out, runs[best][idx[best]])
		idx[best]++
	}
	return out
}

// SorterIterator walks a sorted Sorter's rows in order.
type SorterIterator struct {
	sorter *Sorter
	cursor int
}

func sorterIterInit(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	p := ptrArg(fr, ins, 0)
	s, _ := resolveHandle(handleArg(fr, ins, 1)).(*Sorter)
	if p.IsNil() || s == nil {
		return nil
	}
	writeHandle(p, newHandle(&SorterIterator{sorter: s, cursor: -1}))
	return nil
}

func sorterIterHasNext(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	it, _ := resolveHandle(handleArg(fr, ins, 0)).(*SorterIterator)
	if it == nil {
		fr.WriteBool(ins.A.Offset(), false)
		return nil
	}
	fr.WriteBool(ins.A.Offset(), it.cursor+1 < len(it.sorter.rows))
	return nil
}

func sorterIterGetRow(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	it, _ := resolveHandle(handleArg(fr, ins, 0)).(*SorterIterator)
	if it == nil || it.cursor < 0 || it.cursor >= len(it.sorter.rows) {
		fr.SetBoxed(ins.A.Offset(), vm.Ptr{})
		return nil
	}
	fr.SetBoxed(ins.A.Offset(), vm.Ptr{Buf: it.sorter.rows[it.cursor], Off: 0})
	return nil
}

func sorterIterNext(m *vm.VM, fr *vm.Frame, ins *bytecode.Instr) error {
	it, _ := resolveHandle(handleArg(fr, ins, 0)).(*SorterIterator)
	if it != nil {
		it.cursor++
	}
	return nil
}
