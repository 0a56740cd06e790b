package isopool

import (
	"github.com/finch-labs/isopool/core"
	"github.com/finch-labs/isopool/isolate"
)

// Re-exports of the core/isolate types most callers only ever need by
// their root-package name, the way the teacher's types.go re-exports
// core's task-runner API under the taskrunner package.

// Task is a unit of work run by InProcessExecutor.
type Task = core.Task

// TaskTraits describes a task's scheduling attributes.
type TaskTraits = core.TaskTraits

// TaskPriority is a task's scheduling priority.
type TaskPriority = core.TaskPriority

const (
	TaskPriorityBestEffort   TaskPriority = core.TaskPriorityBestEffort
	TaskPriorityUserVisible  TaskPriority = core.TaskPriorityUserVisible
	TaskPriorityUserBlocking TaskPriority = core.TaskPriorityUserBlocking
)

var (
	DefaultTaskTraits  = core.DefaultTaskTraits
	TraitsUserBlocking = core.TraitsUserBlocking
	TraitsBestEffort   = core.TraitsBestEffort
	TraitsUserVisible  = core.TraitsUserVisible
)

// CompletionHandle is the future returned by both SubmitIsolated and
// SubmitInProcess.
type CompletionHandle[T any] = core.CompletionHandle[T]

// Joinable is the subset of CompletionHandle's API Join needs.
type Joinable = core.Joinable

// Join blocks until every handle has reached a terminal state.
var Join = core.Join

// Entry is the isolation-safe execution unit an isolated pool runs.
type Entry = isolate.Entry

// Pool is an isolated execution pool of dedicated worker goroutines.
type Pool = isolate.Pool

// EnvelopeSerializer round-trips arguments/results across an isolated
// pool's worker boundary.
type EnvelopeSerializer = core.EnvelopeSerializer

// JSONSerializer is the default EnvelopeSerializer.
type JSONSerializer = core.JSONSerializer

var NewJSONSerializer = core.NewJSONSerializer

// InProcessExecutor bounds concurrently running cooperative tasks on the
// caller's own goroutines.
type InProcessExecutor = core.InProcessExecutor

// Logger, PanicHandler, Metrics, and RejectedTaskHandler are the ambient
// hooks shared by Pool and InProcessExecutor.
type (
	Logger              = core.Logger
	Field               = core.Field
	PanicHandler        = core.PanicHandler
	Metrics             = core.Metrics
	RejectedTaskHandler = core.RejectedTaskHandler
	ExecutorConfig      = core.ExecutorConfig
	PoolStats           = core.PoolStats
	ExecutorStats       = core.ExecutorStats
	TaskError           = core.TaskError
)

var (
	F                     = core.F
	NewDefaultLogger      = core.NewDefaultLogger
	NewNoOpLogger         = core.NewNoOpLogger
	DefaultExecutorConfig = core.DefaultExecutorConfig
	ErrPoolShutDown       = core.ErrPoolShutDown
	ErrExecutorClosed     = core.ErrExecutorClosed
)
