package core

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

var inProcessTaskSeq uint64

func nextInProcessTaskID() uint64 {
	return atomic.AddUint64(&inProcessTaskSeq, 1)
}

// inProcessCancelState implements the in-process Cancel contract: cancel
// "cannot stop a running task but guarantees the body is never entered if
// the wait slot hadn't started yet" (spec.md §4.4). tryStart and tryCancel
// race under the same mutex so exactly one of them wins for a given task.
type inProcessCancelState struct {
	mu        sync.Mutex
	started   bool
	cancelled bool
}

func (s *inProcessCancelState) tryStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled {
		return false
	}
	s.started = true
	return true
}

func (s *inProcessCancelState) tryCancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return false
	}
	s.cancelled = true
	return true
}

// SubmitInProcess runs thunk on executor and returns a CompletionHandle
// wired to its result. This is the in-process analogue of isolate.Submit,
// sharing the same CompletionHandle[T] implementation (spec.md §4.4).
func SubmitInProcess[T any](ctx context.Context, executor *InProcessExecutor, thunk func(context.Context) (T, error), traits TaskTraits, logger Logger) *CompletionHandle[T] {
	taskID := nextInProcessTaskID()
	state := &inProcessCancelState{}
	handle := NewCompletionHandle[T](taskID, executor.name, state.tryCancel, logger)

	task := func(ctx context.Context) {
		if !state.tryStart() {
			// Cancelled before this slot was dispatched; Cancel() already
			// transitioned the handle, the task body must never run.
			return
		}

		defer func() {
			if r := recover(); r != nil {
				handle.Reject(fmt.Errorf("panic: %v", r), debug.Stack())
			}
		}()

		value, err := thunk(ctx)
		if err != nil {
			handle.Reject(err, debug.Stack())
			return
		}
		handle.Resolve(value)
	}

	if err := executor.Execute(ctx, task, traits); err != nil {
		handle.Reject(err, nil)
	}

	return handle
}
