package isolate

import (
	"fmt"

	"github.com/finch-labs/isopool/core"
)

// ackPayload is what onAck hands off to the goroutine that resolves a
// Submit-created handle.
type ackPayload struct {
	result []byte
	err    *core.TaskError
}

// Submit wraps argument in a TaskEnvelope, serializes it with serializer,
// submits it to pool, and returns a CompletionHandle[T] wired to the
// eventual ack. fn runs on the worker side purely in terms of A and T; the
// (de)serialization at both boundary crossings is handled here so fn
// itself never sees raw bytes, mirroring SubmitInProcess's shape for the
// in-process executor (core/submit.go) but crossing an isolation boundary
// instead of just a goroutine boundary.
func Submit[A, T any](pool *Pool, serializer core.EnvelopeSerializer, fn func(A) (T, error), argument A, logger core.Logger) *core.CompletionHandle[T] {
	argBytes, err := serializer.Serialize(argument)
	if err != nil {
		handle := core.NewCompletionHandle[T](0, pool.name, nil, logger)
		handle.Reject(fmt.Errorf("serialize argument: %w", err), nil)
		return handle
	}

	entry := func(raw []byte) ([]byte, error) {
		var a A
		if err := serializer.Deserialize(raw, &a); err != nil {
			return nil, fmt.Errorf("deserialize argument: %w", err)
		}
		result, err := fn(a)
		if err != nil {
			return nil, err
		}
		out, err := serializer.Serialize(result)
		if err != nil {
			return nil, fmt.Errorf("serialize result: %w", err)
		}
		return out, nil
	}

	// onAck can fire from the pool's run-loop goroutine as soon as the
	// worker acks — possibly before this function has finished
	// constructing the handle it would resolve. ackCh decouples the two:
	// onAck only ever does a non-blocking buffered send (exactly one ack
	// per task), and a dedicated goroutine below applies it to the handle
	// once the handle actually exists.
	ackCh := make(chan ackPayload, 1)
	onAck := func(result []byte, ackErr *core.TaskError) {
		ackCh <- ackPayload{result: result, err: ackErr}
	}

	taskID, err := pool.submitWithCallback(entry, argBytes, onAck)
	if err != nil {
		handle := core.NewCompletionHandle[T](0, pool.name, nil, logger)
		handle.Reject(err, nil)
		return handle
	}

	canceler := func() bool { return pool.Cancel(taskID) }
	handle := core.NewCompletionHandle[T](taskID, pool.name, canceler, logger)

	// If the envelope is cancelled while still queued, no ack will ever
	// arrive; without this the waiter goroutine below would block forever.
	cancelled := make(chan struct{})
	handle.OnCancel(func() { close(cancelled) })

	go func() {
		select {
		case payload := <-ackCh:
			if payload.err != nil {
				handle.Reject(payload.err, payload.err.Stack)
				return
			}
			var value T
			if err := serializer.Deserialize(payload.result, &value); err != nil {
				handle.Reject(fmt.Errorf("deserialize result: %w", err), nil)
				return
			}
			handle.Resolve(value)
		case <-cancelled:
		}
	}()

	return handle
}
