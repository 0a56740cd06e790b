package isopool

import (
	"context"
	"errors"
	"testing"

	"github.com/finch-labs/isopool/isolate"
)

func TestSubmitIsolated_DefaultPool(t *testing.T) {
	handle := SubmitIsolated(func(n int) (int, error) { return n + 1, nil }, 41, nil, "")
	value, err := handle.Wait()
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if value != 42 {
		t.Fatalf("value = %d, want 42", value)
	}
}

func TestSubmitIsolated_ExplicitPool(t *testing.T) {
	pool := isolate.New("explicit", 1, 1, 60, nil, nil)
	defer pool.Shutdown()

	handle := SubmitIsolated(func(s string) (string, error) { return s + s, nil }, "ab", pool, "double")
	value, err := handle.Wait()
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if value != "abab" {
		t.Fatalf("value = %q, want %q", value, "abab")
	}
}

func TestSubmitInProcess_DefaultExecutor(t *testing.T) {
	handle := SubmitInProcess(context.Background(), func(ctx context.Context) (int, error) {
		return 7, nil
	}, DefaultTaskTraits(), nil)

	value, err := handle.Wait()
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if value != 7 {
		t.Fatalf("value = %d, want 7", value)
	}
}

func TestSubmitInProcess_PropagatesError(t *testing.T) {
	wantErr := errors.New("in-process failure")
	handle := SubmitInProcess(context.Background(), func(ctx context.Context) (int, error) {
		return 0, wantErr
	}, DefaultTaskTraits(), nil)

	_, err := handle.Wait()
	if err == nil || err.Error() != wantErr.Error() {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestDefaultPool_IsSingleton(t *testing.T) {
	if DefaultPool() != DefaultPool() {
		t.Fatal("DefaultPool() returned different instances across calls")
	}
}

func TestDefaultExecutor_IsSingleton(t *testing.T) {
	if DefaultExecutor() != DefaultExecutor() {
		t.Fatal("DefaultExecutor() returned different instances across calls")
	}
}
