package core

import "errors"

// ErrPoolShutDown is returned by IsolatedPool.Submit once the pool has been
// shut down (spec error kind: SubmissionRejected).
var ErrPoolShutDown = errors.New("isopool: pool is shut down")

// ErrExecutorClosed is returned by InProcessExecutor once it has been
// closed (spec error kind: SubmissionRejected).
var ErrExecutorClosed = errors.New("isopool: executor is closed")

// TaskError carries a task failure across a CompletionHandle. An isolated
// worker builds one from a failed task's error message (or recovered panic)
// and stack, so the original error's dynamic type does not reach the
// caller; the in-process variant rejects its handle with the task's own
// error value instead.
type TaskError struct {
	Message string
	Stack   []byte
}

func (e *TaskError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// serializedTaskError is a JSON shape for a TaskError. The isolated pool
// passes *TaskError values over its channels and does not use it.
type serializedTaskError struct {
	Message string `json:"message"`
	Stack   string `json:"stack"`
}
