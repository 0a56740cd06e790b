package isolate

import (
	"sync"
	"testing"
	"time"

	"github.com/finch-labs/isopool/core"
)

func echoEntry(arg []byte) ([]byte, error) {
	out := make([]byte, len(arg))
	copy(out, arg)
	return out, nil
}

func waitForAck(t *testing.T, pool *Pool, entry Entry, argument []byte) ([]byte, *core.TaskError) {
	t.Helper()
	done := make(chan struct{})
	var result []byte
	var ackErr *core.TaskError
	if _, err := pool.submitWithCallback(entry, argument, func(r []byte, e *core.TaskError) {
		result, ackErr = r, e
		close(done)
	}); err != nil {
		t.Fatalf("submitWithCallback() error = %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ack")
	}
	return result, ackErr
}

func TestPool_SubmitEchoRoundTrip(t *testing.T) {
	pool := New("echo", 2, 1, 60, nil, nil)
	defer pool.Shutdown()

	result, ackErr := waitForAck(t, pool, echoEntry, []byte("hello"))
	if ackErr != nil {
		t.Fatalf("ackErr = %v, want nil", ackErr)
	}
	if string(result) != "hello" {
		t.Fatalf("result = %q, want %q", result, "hello")
	}
}

func TestPool_SpawnsUpToMax(t *testing.T) {
	pool := New("spawn", 3, 0, 60, nil, nil)
	defer pool.Shutdown()

	release := make(chan struct{})
	block := func([]byte) ([]byte, error) {
		<-release
		return nil, nil
	}

	for i := 0; i < 3; i++ {
		if _, err := pool.Submit(block, nil); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if pool.Stats().ActiveWorkers == 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("ActiveWorkers = %d, want 3", pool.Stats().ActiveWorkers)
		}
		time.Sleep(5 * time.Millisecond)
	}
	close(release)
}

func TestPool_OverflowsPastMax(t *testing.T) {
	pool := New("overflow", 1, 0, 60, nil, nil)
	defer pool.Shutdown()

	release := make(chan struct{})
	block := func([]byte) ([]byte, error) {
		<-release
		return nil, nil
	}

	if _, err := pool.Submit(block, nil); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if _, err := pool.Submit(echoEntry, []byte("queued")); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if pool.Stats().Overflow == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Overflow = %d, want 1", pool.Stats().Overflow)
		}
		time.Sleep(5 * time.Millisecond)
	}
	close(release)
}

func TestPool_CancelQueuedTask(t *testing.T) {
	pool := New("cancel", 1, 0, 60, nil, nil)
	defer pool.Shutdown()

	release := make(chan struct{})
	block := func([]byte) ([]byte, error) {
		<-release
		return nil, nil
	}

	if _, err := pool.Submit(block, nil); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	queuedID, err := pool.Submit(echoEntry, []byte("never runs"))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for pool.Stats().Overflow != 1 {
		if time.Now().After(deadline) {
			t.Fatal("task never reached overflow")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if !pool.Cancel(queuedID) {
		t.Fatal("Cancel() = false, want true")
	}
	if pool.Cancel(queuedID) {
		t.Fatal("second Cancel() = true, want false")
	}
	if got := pool.Stats().Overflow; got != 0 {
		t.Fatalf("Overflow = %d after cancel, want 0", got)
	}
	close(release)
}

func TestPool_CoreWorkerSurvivesIdle(t *testing.T) {
	pool := New("core-retention", 2, 1, 1, nil, nil)
	defer pool.Shutdown()

	if _, err := pool.Submit(echoEntry, []byte("x")); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for pool.Stats().ActiveWorkers != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("ActiveWorkers = %d, want 1", pool.Stats().ActiveWorkers)
		}
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(2500 * time.Millisecond)

	stats := pool.Stats()
	if stats.ActiveWorkers != 1 {
		t.Fatalf("ActiveWorkers after idle = %d, want 1 (core worker must survive)", stats.ActiveWorkers)
	}
	if stats.ReapedTotal != 0 {
		t.Fatalf("ReapedTotal = %d, want 0", stats.ReapedTotal)
	}
}

func TestPool_NonCoreWorkerIsReaped(t *testing.T) {
	pool := New("reap", 2, 0, 1, nil, nil)
	defer pool.Shutdown()

	if _, err := pool.Submit(echoEntry, []byte("x")); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for pool.Stats().ActiveWorkers != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("ActiveWorkers = %d, want 1", pool.Stats().ActiveWorkers)
		}
		time.Sleep(5 * time.Millisecond)
	}

	deadline = time.Now().Add(3 * time.Second)
	for {
		stats := pool.Stats()
		if stats.ActiveWorkers == 0 && stats.ReapedTotal == 1 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("worker not reaped: %+v", stats)
		}
		time.Sleep(25 * time.Millisecond)
	}
}

func TestPool_RejectsAfterShutdown(t *testing.T) {
	pool := New("shutdown", 1, 0, 60, nil, nil)
	pool.Shutdown()

	if _, err := pool.Submit(echoEntry, nil); err != core.ErrPoolShutDown {
		t.Fatalf("Submit() error = %v, want ErrPoolShutDown", err)
	}
	if pool.Cancel(1) {
		t.Fatal("Cancel() after shutdown = true, want false")
	}
}

func TestPool_ShutdownResolvesQueuedCallbacks(t *testing.T) {
	pool := New("shutdown-drain", 1, 0, 60, nil, nil)

	release := make(chan struct{})
	block := func([]byte) ([]byte, error) {
		<-release
		return nil, nil
	}
	if _, err := pool.Submit(block, nil); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	var mu sync.Mutex
	var queuedErr *core.TaskError
	done := make(chan struct{})
	if _, err := pool.submitWithCallback(echoEntry, []byte("queued"), func(_ []byte, e *core.TaskError) {
		mu.Lock()
		queuedErr = e
		mu.Unlock()
		close(done)
	}); err != nil {
		t.Fatalf("submitWithCallback() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for pool.Stats().Overflow != 1 {
		if time.Now().After(deadline) {
			t.Fatal("task never reached overflow")
		}
		time.Sleep(5 * time.Millisecond)
	}

	go pool.Shutdown()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("queued callback never resolved on shutdown")
	}

	mu.Lock()
	defer mu.Unlock()
	if queuedErr == nil {
		t.Fatal("queuedErr = nil, want ErrPoolShutDown-wrapped TaskError")
	}
	close(release)
}
