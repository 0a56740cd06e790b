// Package isolate implements the isolated execution pool: a bounded set of
// dedicated worker goroutines that each run one task at a time and
// communicate with their owning pool only by passing serialized bytes,
// mirroring the teacher's GoroutineThreadPool/scheduler split but with a
// dedicated goroutine per worker instead of a shared pull queue, and byte
// arguments/results instead of live closures crossing the boundary.
package isolate

// Entry is the isolation-safe execution unit: it receives the task's
// serialized argument and returns the serialized result, or an error. It
// must not capture state that could not also survive being marshaled —
// that is the isolation boundary spec.md §3 describes.
type Entry func(argument []byte) ([]byte, error)

// TaskEnvelope is the unit dispatched to a worker's inbound channel. The
// argument has already been serialized by the caller (isolate.Submit) so
// the pool and worker never see the caller's live Go value.
type TaskEnvelope struct {
	id       uint64
	entry    Entry
	argument []byte
}
