package core

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestInProcessExecutor_BoundsConcurrency(t *testing.T) {
	e := NewInProcessExecutor("bound", 2)
	defer e.Close()

	var active int32
	var maxActive int32
	release := make(chan struct{})

	for i := 0; i < 5; i++ {
		if err := e.Execute(context.Background(), func(ctx context.Context) {
			n := atomic.AddInt32(&active, 1)
			for {
				old := atomic.LoadInt32(&maxActive)
				if n <= old || atomic.CompareAndSwapInt32(&maxActive, old, n) {
					break
				}
			}
			<-release
			atomic.AddInt32(&active, -1)
		}, DefaultTaskTraits()); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
	}

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&active) != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("active = %d, want 2", atomic.LoadInt32(&active))
		}
		time.Sleep(time.Millisecond)
	}
	close(release)

	if got := atomic.LoadInt32(&maxActive); got > 2 {
		t.Fatalf("maxActive = %d, want <= 2", got)
	}
}

func TestInProcessExecutor_QueuesPastMax(t *testing.T) {
	e := NewInProcessExecutor("queue", 1)
	defer e.Close()

	release := make(chan struct{})
	if err := e.Execute(context.Background(), func(ctx context.Context) { <-release }, DefaultTaskTraits()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if err := e.Execute(context.Background(), func(ctx context.Context) {}, DefaultTaskTraits()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for e.Stats().Queued != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("Queued = %d, want 1", e.Stats().Queued)
		}
		time.Sleep(time.Millisecond)
	}
	close(release)
}

func TestInProcessExecutor_PanicRecovered(t *testing.T) {
	e := NewInProcessExecutor("panic", 1)
	defer e.Close()

	done := make(chan struct{})
	if err := e.Execute(context.Background(), func(ctx context.Context) { panic("boom") }, DefaultTaskTraits()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if err := e.Execute(context.Background(), func(ctx context.Context) { close(done) }, DefaultTaskTraits()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task after a panicking task never ran")
	}
}

func TestInProcessExecutor_RejectsAfterClose(t *testing.T) {
	e := NewInProcessExecutor("closed", 1)
	e.Close()

	if err := e.Execute(context.Background(), func(ctx context.Context) {}, DefaultTaskTraits()); err != ErrExecutorClosed {
		t.Fatalf("Execute() error = %v, want ErrExecutorClosed", err)
	}
}

func TestInProcessExecutor_ClearAllDropsQueued(t *testing.T) {
	e := NewInProcessExecutor("clear", 1)
	defer e.Close()

	release := make(chan struct{})
	if err := e.Execute(context.Background(), func(ctx context.Context) { <-release }, DefaultTaskTraits()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if err := e.Execute(context.Background(), func(ctx context.Context) { t.Fatal("cleared task must not run") }, DefaultTaskTraits()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for e.Stats().Queued != 1 {
		if time.Now().After(deadline) {
			t.Fatal("second task never reached the queue")
		}
		time.Sleep(time.Millisecond)
	}

	e.ClearAll()
	if got := e.Stats().Queued; got != 0 {
		t.Fatalf("Queued after ClearAll = %d, want 0", got)
	}
	close(release)
}
