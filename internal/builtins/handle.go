package builtins

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/turingcompl33t/tpl/internal/bytecode"
	"github.com/turingcompl33t/tpl/internal/vm"
)

// Every opaque runtime-object builtin type (TableVectorIterator,
// AggregationHashTable, Sorter, ...) occupies a single pointer-sized slot
// in its owning frame (types.Size's "opaque runtime object handles
// default to a single pointer slot" rule) holding a uint64 handle, not
// the Go value itself — a frame is a raw byte buffer recycled through a
// sync.Pool (internal/vm's frame.go), so it cannot safely host a live
// Go pointer with its own finalizers/GC roots across a pool reuse.
// handles maps a handle to the actual object; nextHandle hands out
// unique ids. A sync.Map rather than a mutex-guarded map, since
// parallel builtins (RunParallel) may allocate/resolve handles
// concurrently from worker VMs sharing no frame state but this one
// registry.
var (
	handles    sync.Map // uint64 -> any
	nextHandle uint64
)

func newHandle(obj any) uint64 {
	h := atomic.AddUint64(&nextHandle, 1)
	handles.Store(h, obj)
	return h
}

func resolveHandle(h uint64) any {
	v, _ := handles.Load(h)
	return v
}

func closeHandle(h uint64) {
	handles.Delete(h)
}

// handleSlot returns the 8-byte slice backing the handle slot a pointer
// argument addresses.
func handleSlot(p vm.Ptr) []byte { return p.Slice(8) }

func readHandle(p vm.Ptr) uint64 { return binary.LittleEndian.Uint64(handleSlot(p)) }

func writeHandle(p vm.Ptr, h uint64) { binary.LittleEndian.PutUint64(handleSlot(p), h) }

// ptrArg resolves the i'th CallRuntime argument, which must be a boxed
// vm.Ptr (the address-of a pointer-typed builtin-object argument, e.g.
// `&iter` where `iter: TableVectorIterator` is a local).
func ptrArg(fr *vm.Frame, ins *bytecode.Instr, i int) vm.Ptr {
	p, _ := fr.Boxed(ins.Args[i].Offset()).(vm.Ptr)
	return p
}

// handleArg resolves the i'th CallRuntime argument to a handle id. The
// boxed value there is either a vm.Ptr (an `&iter`-style address, whose
// addressed storage holds the handle) or a uint64 handle directly (a
// pointer-to-opaque-object value obtained as a previous call's own
// result, e.g. `vpi := @tableIterGetVPI(&iter)`, which has no addressed
// frame storage of its own to indirect through).
func handleArg(fr *vm.Frame, ins *bytecode.Instr, i int) uint64 {
	switch b := fr.Boxed(ins.Args[i].Offset()).(type) {
	case vm.Ptr:
		if b.IsNil() {
			return 0
		}
		return readHandle(b)
	case uint64:
		return b
	default:
		return 0
	}
}

// setHandleResult boxes h as ins's own result — the representation a
// pointer-to-opaque-object return value takes (see handleArg).
func setHandleResult(fr *vm.Frame, ins *bytecode.Instr, h uint64) {
	fr.SetBoxed(ins.A.Offset(), h)
}
