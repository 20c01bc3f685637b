package vm

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ThreadStates is the slice of per-worker mutable state a parallel
// builtin hands RunParallel — satisfied by builtins.ThreadStateContainer,
// kept as an interface here so this package need not import
// internal/builtins (which itself imports internal/vm for Shim/Registry).
type ThreadStates interface {
	Len() int
	Slot(i int) any
}

// Workers returns the worker count a parallel builtin should use: one per
// hardware thread, per spec.md §5, bounded to at least 1.
func Workers() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		return 1
	}
	return n
}

// WorkerFn is one parallel builtin's per-worker body: given a fresh VM
// instance (sharing only the parent's read-only module, per spec.md §5's
// "worker VMs share only the module... they do not share activation
// frames"), the worker index, and its thread-state slot, invoke the
// user callback function and report any runtime error.
type WorkerFn func(worker int, wvm *VM, state any) error

// RunParallel fans callback out across states.Len() goroutines, each
// running against an independently forked VM and its own thread-state
// slot, and blocks until every worker has finished or one has failed.
// Grounded on cockroachdb-cockroach's pervasive use of errgroup for
// bounded worker-pool fan-out (e.g. its distsql flow coordination),
// generalized here to TPL's fixed one-worker-per-thread policy rather
// than a dynamically sized pool.
func (vm *VM) RunParallel(ctx context.Context, states ThreadStates, callback WorkerFn) error {
	g, _ := errgroup.WithContext(ctx)
	for i := 0; i < states.Len(); i++ {
		i := i
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("parallel worker panicked", "worker", i, "panic", r)
					err = fmt.Errorf("worker %d panicked: %v", i, r)
				}
			}()
			if werr := callback(i, vm.Fork(), states.Slot(i)); werr != nil {
				slog.Error("parallel worker failed", "worker", i, "err", werr)
				return werr
			}
			return nil
		})
	}
	return g.Wait()
}
