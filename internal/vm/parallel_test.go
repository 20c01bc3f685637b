package vm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

type intStates struct{ n int }

func (s *intStates) Len() int       { return s.n }
func (s *intStates) Slot(i int) any { return i }

func TestRunParallelInvokesEveryWorker(t *testing.T) {
	m := New(nil, nil)
	var seen int64
	err := m.RunParallel(context.Background(), &intStates{n: 8}, func(worker int, wvm *VM, state any) error {
		atomic.AddInt64(&seen, 1)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != 8 {
		t.Fatalf("expected 8 workers invoked, got %d", seen)
	}
}

func TestRunParallelPropagatesWorkerError(t *testing.T) {
	m := New(nil, nil)
	wantErr := errors.New("boom")
	err := m.RunParallel(context.Background(), &intStates{n: 4}, func(worker int, wvm *VM, state any) error {
		if worker == 2 {
			return wantErr
		}
		return nil
	})
	if err == nil {
		t.Fatalf("expected the worker error to propagate")
	}
}

func TestRunParallelRecoversWorkerPanic(t *testing.T) {
	m := New(nil, nil)
	err := m.RunParallel(context.Background(), &intStates{n: 4}, func(worker int, wvm *VM, state any) error {
		if worker == 1 {
			panic("worker exploded")
		}
		return nil
	})
	if err == nil {
		t.Fatalf("expected a recovered panic to surface as an error")
	}
}
