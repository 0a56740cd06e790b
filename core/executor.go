package core

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// InProcessExecutor bounds the number of concurrently running cooperative
// tasks on the caller's own goroutines to maxSize, with a FIFO wait queue
// for the rest. Unlike IsolatedPool there is no isolation, no reaper, and
// no cancellation by id — it is exactly a weighted semaphore admission gate
// (golang.org/x/sync/semaphore.Weighted) plus the teacher's FIFOTaskQueue,
// generalized from the teacher's persistent-worker-pool model
// (GoroutineThreadPool + TaskScheduler) to a spawn-per-admitted-task model,
// which is what spec.md §4.3 actually describes: "if inFlight < maxSize,
// increment inFlight and start task; else enqueue."
type InProcessExecutor struct {
	name    string
	maxSize int64
	sem     *semaphore.Weighted

	mu     sync.Mutex
	queue  *FIFOTaskQueue
	closed bool

	inFlight int64
	rejected int64

	panicHandler        PanicHandler
	metrics             Metrics
	rejectedTaskHandler RejectedTaskHandler
	logger              Logger

	wg sync.WaitGroup
}

const DefaultExecutorMaxSize = 20

// NewInProcessExecutor creates an executor bounded to maxSize concurrent
// tasks, using default handlers.
func NewInProcessExecutor(name string, maxSize int) *InProcessExecutor {
	return NewInProcessExecutorWithConfig(name, maxSize, DefaultExecutorConfig(), NewNoOpLogger())
}

// NewInProcessExecutorWithConfig creates an executor with explicit handlers
// and logger.
func NewInProcessExecutorWithConfig(name string, maxSize int, config *ExecutorConfig, logger Logger) *InProcessExecutor {
	if maxSize <= 0 {
		maxSize = DefaultExecutorMaxSize
	}
	if config == nil {
		config = DefaultExecutorConfig()
	}
	if logger == nil {
		logger = NewNoOpLogger()
	}

	panicHandler := config.PanicHandler
	if panicHandler == nil {
		panicHandler = &DefaultPanicHandler{}
	}
	metrics := config.Metrics
	if metrics == nil {
		metrics = &NilMetrics{}
	}
	rejectedTaskHandler := config.RejectedTaskHandler
	if rejectedTaskHandler == nil {
		rejectedTaskHandler = &DefaultRejectedTaskHandler{}
	}

	return &InProcessExecutor{
		name:                name,
		maxSize:             int64(maxSize),
		sem:                 semaphore.NewWeighted(int64(maxSize)),
		queue:               NewFIFOTaskQueue(),
		panicHandler:        panicHandler,
		metrics:             metrics,
		rejectedTaskHandler: rejectedTaskHandler,
		logger:              logger,
	}
}

// Execute admits task immediately if a slot is free, otherwise enqueues it
// FIFO. Returns ErrExecutorClosed if the executor has been closed.
func (e *InProcessExecutor) Execute(ctx context.Context, task Task, traits TaskTraits) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		atomic.AddInt64(&e.rejected, 1)
		e.rejectedTaskHandler.HandleRejectedTask(e.name, "closed")
		e.metrics.RecordTaskRejected(e.name, "closed")
		return ErrExecutorClosed
	}
	e.queue.Push(task, traits)
	e.mu.Unlock()

	e.metrics.RecordQueueDepth(e.name, e.queue.Len())
	e.dispatch(ctx)
	return nil
}

// ExecuteList executes each task in order.
func (e *InProcessExecutor) ExecuteList(ctx context.Context, tasks []Task, traits TaskTraits) error {
	for _, t := range tasks {
		if err := e.Execute(ctx, t, traits); err != nil {
			return err
		}
	}
	return nil
}

// ClearAll drops every queued-but-not-yet-started task; they will never run
// and never complete.
func (e *InProcessExecutor) ClearAll() {
	e.queue.Clear()
	e.metrics.RecordQueueDepth(e.name, 0)
}

// ActiveCount returns the number of tasks currently running.
func (e *InProcessExecutor) ActiveCount() int {
	return int(atomic.LoadInt64(&e.inFlight))
}

// Stats returns a snapshot of executor state for observability.
func (e *InProcessExecutor) Stats() ExecutorStats {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	return ExecutorStats{
		Name:     e.name,
		MaxSize:  int(e.maxSize),
		Queued:   e.queue.Len(),
		Active:   e.ActiveCount(),
		Rejected: atomic.LoadInt64(&e.rejected),
		Closed:   closed,
	}
}

// Close marks the executor closed; no further Execute calls are admitted.
// Already-running tasks finish, and each one that finishes still dispatches
// the next queued task, so Close waits until the queue is drained and every
// started task has returned (call ClearAll first to drop queued tasks).
func (e *InProcessExecutor) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.wg.Wait()
}

// dispatch admits as many queued tasks as there are free semaphore slots.
// It is safe to call concurrently; TryAcquire never blocks, so this never
// stalls the caller.
func (e *InProcessExecutor) dispatch(ctx context.Context) {
	for {
		if !e.sem.TryAcquire(1) {
			return
		}
		e.mu.Lock()
		item, ok := e.queue.Pop()
		e.mu.Unlock()
		if !ok {
			e.sem.Release(1)
			return
		}
		e.metrics.RecordQueueDepth(e.name, e.queue.Len())
		atomic.AddInt64(&e.inFlight, 1)
		e.wg.Add(1)
		go e.run(ctx, item)
	}
}

func (e *InProcessExecutor) run(ctx context.Context, item TaskItem) {
	defer e.wg.Done()
	defer func() {
		atomic.AddInt64(&e.inFlight, -1)
		e.sem.Release(1)
		e.dispatch(ctx)
	}()
	defer func() {
		if r := recover(); r != nil {
			e.panicHandler.HandlePanic(ctx, e.name, -1, r, debug.Stack())
			e.metrics.RecordTaskPanic(e.name, r)
		}
	}()

	start := time.Now()
	item.Task(ctx)
	e.metrics.RecordTaskDuration(e.name, item.Traits.Priority, time.Since(start))
}
