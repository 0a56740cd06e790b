package isolate

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/finch-labs/isopool/core"
)

// workerEventKind tags the messages a worker sends its pool over the
// shared result channel.
type workerEventKind int

const (
	eventReady workerEventKind = iota
	eventAck
	eventExit
)

// workerEvent is the message shape a worker sends to its owning pool.
// Ack forwards the full (taskID, result, err) triple rather than just the
// taskID, per spec.md §9 Open Question #1: the pool has no other way to
// learn a task's outcome since the worker never touches the caller's
// CompletionHandle directly.
type workerEvent struct {
	kind      workerEventKind
	debugName string

	// eventReady
	inbound chan TaskEnvelope

	// eventAck
	taskID uint64
	result []byte
	ackErr *core.TaskError
}

// worker is a single dedicated goroutine that runs at most one task at a
// time. It never touches pool internals directly — everything crosses
// resultCh and goneCh, matching the message-passing discipline the
// isolation boundary is meant to model (core/executor.go's InProcessExecutor
// runs tasks as bare goroutines instead, since it has no isolation to
// preserve).
type worker struct {
	debugName         string
	isCore            bool
	keepActiveSeconds int
	panicHandler      core.PanicHandler
	logger            core.Logger
}

func newWorker(debugName string, isCore bool, keepActiveSeconds int, panicHandler core.PanicHandler, logger core.Logger) *worker {
	return &worker{
		debugName:         debugName,
		isCore:            isCore,
		keepActiveSeconds: keepActiveSeconds,
		panicHandler:      panicHandler,
		logger:            logger,
	}
}

// run is the worker's entire lifecycle. It announces itself ready, then
// alternates between running envelopes handed to it and idling. A
// non-core worker that idles past keepActiveSeconds reaps itself; a core
// worker never does. Regardless of exit path, goneCh receives the
// worker's name exactly once, right before the goroutine returns — the
// authoritative "no further messages will arrive" signal spec.md §4.2
// requires the pool to tolerate racing against the resultCh exit
// sentinel.
func (w *worker) run(ctx context.Context, resultCh chan<- workerEvent, goneCh chan<- string) {
	inbound := make(chan TaskEnvelope, 1)
	defer func() { goneCh <- w.debugName }()

	select {
	case resultCh <- workerEvent{kind: eventReady, debugName: w.debugName, inbound: inbound}:
	case <-ctx.Done():
		return
	}

	var tickCh <-chan time.Time
	if !w.isCore {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		tickCh = ticker.C
	}

	idleSeconds := 0
	for {
		select {
		case env, ok := <-inbound:
			if !ok {
				return
			}
			idleSeconds = 0
			result, ackErr := w.execute(ctx, env)
			select {
			case resultCh <- workerEvent{kind: eventAck, debugName: w.debugName, taskID: env.id, result: result, ackErr: ackErr}:
			case <-ctx.Done():
				return
			}

		case <-tickCh:
			idleSeconds++
			if idleSeconds > w.keepActiveSeconds {
				close(inbound)
				select {
				case resultCh <- workerEvent{kind: eventExit, debugName: w.debugName}:
				case <-ctx.Done():
				}
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// execute runs env's entry, recovering any panic locally so that under no
// circumstance does a task failure escape the worker goroutine (spec.md
// §4.1). The recovered value is folded into the same TaskError shape a
// returned error would produce.
func (w *worker) execute(ctx context.Context, env TaskEnvelope) (result []byte, taskErr *core.TaskError) {
	defer func() {
		if r := recover(); r != nil {
			taskErr = &core.TaskError{Message: fmt.Sprintf("panic: %v", r), Stack: debug.Stack()}
			w.panicHandler.HandlePanic(ctx, w.debugName, -1, r, taskErr.Stack)
			w.logger.Error("isolated task panicked", core.F("worker", w.debugName), core.F("taskId", env.id), core.F("panic", r))
		}
	}()

	out, err := env.entry(env.argument)
	if err != nil {
		return nil, &core.TaskError{Message: err.Error(), Stack: debug.Stack()}
	}
	return out, nil
}
