package core

import (
	"testing"
	"time"
)

func TestJoin_EmptyReturnsImmediately(t *testing.T) {
	done := make(chan struct{})
	go func() {
		Join(nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Join(nil) did not return")
	}
}

func TestJoin_WaitsForAllTerminalStates(t *testing.T) {
	resolved := NewCompletionHandle[int](1, "test", nil, nil)
	rejected := NewCompletionHandle[int](2, "test", nil, nil)
	cancelled := NewCompletionHandle[int](3, "test", func() bool { return true }, nil)

	done := make(chan struct{})
	go func() {
		Join([]Joinable{resolved, rejected, cancelled})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Join returned before all handles were terminal")
	case <-time.After(20 * time.Millisecond):
	}

	resolved.Resolve(1)
	rejected.Reject(errBoom, nil)
	cancelled.Cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Join did not return after all handles settled")
	}
}

func TestJoin_DedupesIdenticalHandle(t *testing.T) {
	h := NewCompletionHandle[int](1, "test", nil, nil)

	done := make(chan struct{})
	go func() {
		// The same handle appears twice; Join must still return once
		// h settles rather than waiting for two distinct settlements.
		Join([]Joinable{h, h})
		close(done)
	}()

	h.Resolve(1)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Join([h, h]) did not return after h settled")
	}
}

var errBoom = &TaskError{Message: "boom"}
