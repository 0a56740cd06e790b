package core

import "context"

// Task is the unit of work accepted by InProcessExecutor.
type Task func(ctx context.Context)

// =============================================================================
// TaskTraits: ambient metadata attached to a Task, used for metrics labeling
// only. Neither InProcessExecutor nor IsolatedPool orders work by priority
// or traits; both are strictly FIFO.
// =============================================================================

type TaskPriority int

const (
	TaskPriorityBestEffort TaskPriority = iota
	TaskPriorityUserVisible
	TaskPriorityUserBlocking
)

type TaskTraits struct {
	Priority TaskPriority
	Category string
}

func DefaultTaskTraits() TaskTraits {
	return TaskTraits{Priority: TaskPriorityUserVisible}
}

func TraitsUserBlocking() TaskTraits {
	return TaskTraits{Priority: TaskPriorityUserBlocking}
}

func TraitsBestEffort() TaskTraits {
	return TaskTraits{Priority: TaskPriorityBestEffort}
}

func TraitsUserVisible() TaskTraits {
	return TaskTraits{Priority: TaskPriorityUserVisible}
}
