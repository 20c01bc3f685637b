package builtins

import (
	"github.com/turingcompl33t/tpl/internal/arena"
	"github.com/turingcompl33t/tpl/internal/bytecode"
	"github.com/turingcompl33t/tpl/internal/vm"
)

// MemoryPool is the runtime allocator handle query-plan functions thread
// through every aggregation/join/sort builtin (spec.md §4.7's
// "MemoryPool" execution-context handle). It is internal/arena's bump
// allocator, reused here rather than reimplemented: a query's row/payload
// allocations are exactly the kind of "allocate many small fixed-size
// records, free them all together at query teardown" workload the arena
// package was already built for.
type MemoryPool struct {
	region *arena.Region
}

// NewMemoryPool creates a MemoryPool backed by a, tagged for diagnostics
// the way internal/arena's own callers tag their regions.
func NewMemoryPool(a *arena.Arena) *MemoryPool {
	return &MemoryPool{region: a.NewRegion("query-execution")}
}

// Allocate returns a zeroed, 8-byte-aligned buffer of size bytes, good
// for the lifetime of the owning ExecutionContext.
func (p *MemoryPool) Allocate(size int) []byte {
	return p.region.Allocate(size, 8)
}

// Table is an in-memory columnar relation an ExecutionContext's catalog
// resolves @tableIterInit's table-name argument against. Real NoisePage
// table storage (buffer pool, MVCC, on-disk segments) is out of scope;
// this is the in-memory stand-in SPEC_FULL.md's execution-context
// section calls for so S1-style table-scan plans have something to scan.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any // Rows[i][c] is the boxed SQL value (Integer, Real, ...) of row i, column c
}

// ExecutionContext is the BuiltinExecutionContext handle: the catalog and
// memory pool a compiled TPL function receives to do real work against.
type ExecutionContext struct {
	Pool    *MemoryPool
	Catalog map[string]*Table
	States  *ThreadStateContainer
}

// NewExecutionContext creates an ExecutionContext over a fresh arena and
// empty catalog; AddTable populates it before a plan function runs.
func NewExecutionContext() *ExecutionContext {
	return &ExecutionContext{
		Pool:    NewMemoryPool(arena.New()),
		Catalog: make(map[string]*Table),
	}
}

// AddTable registers t in the catalog under t.Name.
func (ec *ExecutionContext) AddTable(t *Table) {
	ec.Catalog[t.Name] = t
}

// ThreadStateContainer is the vm.ThreadStates implementation
// vm.VM.RunParallel consumes (spec.md §5's per-worker mutable scratch
// state for parallel builtins, e.g. per-thread aggregation hash tables
// later merged by the driving function).
type ThreadStateContainer struct {
	slots []any
}

// NewThreadStateContainer allocates n slots, one per expected worker
// (vm.Workers() in the common case), each initialized by newState.
func NewThreadStateContainer(n int, newState func(i int) any) *ThreadStateContainer {
	c := &ThreadStateContainer{slots: make([]any, n)}
	for i := range c.slots {
		c.slots[i] = newState(i)
	}
	return c
}

// Len implements vm.ThreadStates.
func (c *ThreadStateContainer) Len() int { return len(c.slots) }

// Slot implements vm.ThreadStates.
func (c *ThreadStateContainer) Slot(i int) any { return c.slots[i] }

// boxExecutionContext wraps ec as the vm.Value a VM.Call argument carries
// for an ExecutionContext-typed parameter. Like MemoryPool below,
// ExecutionContext is supplied to a compiled query function from the
// driver rather than constructed by TPL code (there is no
// "executionContextInit" runtime builtin), so its boxed representation
// is the raw *ExecutionContext Go pointer itself, installed directly by
// VM.Invoke's Boxed-parameter path — not a handle, since nothing in TPL
// ever takes its address.
func boxExecutionContext(ec *ExecutionContext) vm.Value { return vm.Boxed(ec) }

// boxMemoryPool is MemoryPool's analogue of boxExecutionContext.
func boxMemoryPool(p *MemoryPool) vm.Value { return vm.Boxed(p) }

func ecArg(fr *vm.Frame, ins *bytecode.Instr, i int) *ExecutionContext {
	ec, _ := fr.Boxed(ins.Args[i].Offset()).(*ExecutionContext)
	return ec
}

func poolArg(fr *vm.Frame, ins *bytecode.Instr, i int) *MemoryPool {
	p, _ := fr.Boxed(ins.Args[i].Offset()).(*MemoryPool)
	return p
}
