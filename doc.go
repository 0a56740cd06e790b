// Package isopool provides a bounded-concurrency task execution library
// with two complementary execution models: an isolated worker pool
// (dedicated goroutines communicating only through serialized byte
// envelopes) and an in-process executor (a bounded semaphore gate over
// bare goroutines). Both report their outcome through the same
// CompletionHandle[T] future.
//
// # Quick Start
//
// Submit work to the process-wide default isolated pool:
//
//	handle := isopool.SubmitIsolated(func(n int) (int, error) {
//		return n * n, nil
//	}, 7, nil, "square")
//	result, err := handle.Wait()
//
// Submit work to the process-wide default in-process executor, for tasks
// that need to share the caller's heap (closures, live pointers) instead
// of crossing a serialization boundary:
//
//	handle := isopool.SubmitInProcess(ctx, func(ctx context.Context) (int, error) {
//		return 42, nil
//	}, isopool.DefaultTaskTraits(), nil)
//
// # Key Concepts
//
// Pool: a fixed set of core workers plus reapable overflow workers, up to
// max, each running one task at a time in its own goroutine and
// communicating with the pool only through the wire the way separate
// processes would (spec.md's isolation model). InProcessExecutor: the
// same admission-and-overflow contract without isolation, for
// cooperative work that doesn't need it.
//
// CompletionHandle[T]: the future both execution models resolve. Wait
// blocks for a terminal state; Then/WhenComplete/OnCancel register
// callbacks; Cancel removes not-yet-dispatched work.
//
// Join: waits for a heterogeneous collection of handles to all reach a
// terminal state.
//
// # Thread Safety
//
// Pool and InProcessExecutor are safe for concurrent use from multiple
// goroutines. CompletionHandle[T]'s producer-side methods (Resolve,
// Reject) are called exactly once by the owning pool/executor; consumer-
// side methods are safe to call from any number of goroutines.
package isopool
