package isopool

import (
	"context"
	"runtime"
	"sync"

	"github.com/finch-labs/isopool/core"
	"github.com/finch-labs/isopool/isolate"
)

// Process-wide default pool/executor, lazily constructed on first use
// (spec.md §6): a default IsolatedPool sized to 2x logical CPU count and a
// default InProcessExecutor sized to core.DefaultExecutorMaxSize. Neither
// has a teardown hook, mirroring the teacher's global-thread-pool
// singleton (pool.go's InitGlobalThreadPool/GetGlobalThreadPool) but
// initialized lazily instead of requiring an explicit Init call.
var (
	defaultPoolOnce sync.Once
	defaultPoolInst *isolate.Pool

	defaultExecutorOnce sync.Once
	defaultExecutorInst *core.InProcessExecutor
)

// DefaultPool returns the process-wide default IsolatedPool, constructing
// it on first call.
func DefaultPool() *isolate.Pool {
	defaultPoolOnce.Do(func() {
		defaultPoolInst = isolate.New("isopool-default", 2*runtime.NumCPU(), 0, 120, nil, core.NewNoOpLogger())
	})
	return defaultPoolInst
}

// DefaultExecutor returns the process-wide default InProcessExecutor,
// constructing it on first call.
func DefaultExecutor() *core.InProcessExecutor {
	defaultExecutorOnce.Do(func() {
		defaultExecutorInst = core.NewInProcessExecutor("isopool-default", core.DefaultExecutorMaxSize)
	})
	return defaultExecutorInst
}

// SubmitIsolated runs fn(argument) on pool (or the process-wide default
// pool if nil) inside an isolated worker, and returns a CompletionHandle
// wired to its result. debugLabel is attached to the log lines the returned
// handle emits (an onError subscriber that panics); the pool's own logging
// does not carry it. It defaults to "CompletableIsolate" when empty.
func SubmitIsolated[A, T any](fn func(A) (T, error), argument A, pool *isolate.Pool, debugLabel string) *core.CompletionHandle[T] {
	if pool == nil {
		pool = DefaultPool()
	}
	if debugLabel == "" {
		debugLabel = "CompletableIsolate"
	}
	return isolate.Submit(pool, core.NewJSONSerializer(), fn, argument, labeledLogger{label: debugLabel})
}

// labeledLogger tags every log line with the submission's debug label.
type labeledLogger struct {
	label string
}

func (l labeledLogger) Debug(msg string, fields ...core.Field) {
	core.NewDefaultLogger().Debug(msg, append(fields, core.F("debugLabel", l.label))...)
}
func (l labeledLogger) Info(msg string, fields ...core.Field) {
	core.NewDefaultLogger().Info(msg, append(fields, core.F("debugLabel", l.label))...)
}
func (l labeledLogger) Warn(msg string, fields ...core.Field) {
	core.NewDefaultLogger().Warn(msg, append(fields, core.F("debugLabel", l.label))...)
}
func (l labeledLogger) Error(msg string, fields ...core.Field) {
	core.NewDefaultLogger().Error(msg, append(fields, core.F("debugLabel", l.label))...)
}

// SubmitInProcess runs thunk on executor (or the process-wide default
// executor if nil) and returns a CompletionHandle wired to its result.
func SubmitInProcess[T any](ctx context.Context, thunk func(context.Context) (T, error), traits core.TaskTraits, executor *core.InProcessExecutor) *core.CompletionHandle[T] {
	if executor == nil {
		executor = DefaultExecutor()
	}
	return core.SubmitInProcess(ctx, executor, thunk, traits, core.NewNoOpLogger())
}
