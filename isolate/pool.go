package isolate

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/finch-labs/isopool/core"
)

// workerRecord is the pool's bookkeeping for one live worker goroutine.
type workerRecord struct {
	debugName string
	isCore    bool
	inbound   chan TaskEnvelope
	busy      bool
	exited    bool
}

type submitRequest struct {
	entry    Entry
	argument []byte
	onAck    func(result []byte, err *core.TaskError)
	reply    chan submitReply
}

type submitReply struct {
	taskID uint64
	err    error
}

type cancelRequest struct {
	taskID uint64
	reply  chan bool
}

type statsRequest struct {
	reply chan core.PoolStats
}

// Pool is the isolated execution pool (spec.md §4.2's IsolatedPool). A
// single owning goroutine (run) serializes every state transition; all
// public methods only ever send a request over a channel and wait for the
// matching reply, so Pool itself needs no mutex — generalized from the
// teacher's GoroutineThreadPool, replacing its shared-queue-pulled-by-N-
// persistent-workers model with per-worker inbound channels and an
// explicit core/overflow/reap lifecycle the teacher's pool doesn't have.
type Pool struct {
	name              string
	id                string
	max               int
	core              int
	keepActiveSeconds int

	panicHandler core.PanicHandler
	metrics      core.Metrics
	rejected     core.RejectedTaskHandler
	logger       core.Logger

	submitCh   chan submitRequest
	cancelCh   chan cancelRequest
	statsCh    chan statsRequest
	resultCh   chan workerEvent
	goneCh     chan string
	shutdownCh chan chan struct{}
	doneCh     chan struct{}

	workerCtx    context.Context
	workerCancel context.CancelFunc
}

// New creates an IsolatedPool named name with up to max concurrent
// workers, core of which are never reaped for idling. Idle non-core
// workers are reaped after keepActiveSeconds of inactivity. The pool's
// run loop starts immediately.
func New(name string, max, coreSize int, keepActiveSeconds int, config *core.ExecutorConfig, logger core.Logger) *Pool {
	if max <= 0 {
		max = 1
	}
	if coreSize < 0 {
		coreSize = 0
	}
	if coreSize > max {
		coreSize = max
	}
	if keepActiveSeconds <= 0 {
		keepActiveSeconds = 60
	}
	if config == nil {
		config = core.DefaultExecutorConfig()
	}
	if logger == nil {
		logger = core.NewNoOpLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &Pool{
		name:              name,
		id:                uuid.NewString(),
		max:               max,
		core:              coreSize,
		keepActiveSeconds: keepActiveSeconds,
		panicHandler:      config.PanicHandler,
		metrics:           config.Metrics,
		rejected:          config.RejectedTaskHandler,
		logger:            logger,
		submitCh:          make(chan submitRequest),
		cancelCh:          make(chan cancelRequest),
		statsCh:           make(chan statsRequest),
		resultCh:          make(chan workerEvent),
		goneCh:            make(chan string),
		shutdownCh:        make(chan chan struct{}),
		doneCh:            make(chan struct{}),
		workerCtx:         ctx,
		workerCancel:      cancel,
	}

	go p.run()
	return p
}

// Submit enqueues entry to run against argument on the next available
// worker, spawning one if the pool hasn't reached max, and returns the
// assigned task id. It returns ErrPoolShutDown once Shutdown has been
// called.
func (p *Pool) Submit(entry Entry, argument []byte) (uint64, error) {
	return p.submitWithCallback(entry, argument, nil)
}

func (p *Pool) submitWithCallback(entry Entry, argument []byte, onAck func([]byte, *core.TaskError)) (uint64, error) {
	reply := make(chan submitReply, 1)
	select {
	case p.submitCh <- submitRequest{entry: entry, argument: argument, onAck: onAck, reply: reply}:
	case <-p.doneCh:
		return 0, core.ErrPoolShutDown
	}
	r := <-reply
	return r.taskID, r.err
}

// Cancel removes taskID from the overflow wait queue if it is still
// there, returning true iff it did. A task already dispatched to a
// worker cannot be cancelled (spec.md §4.4).
func (p *Pool) Cancel(taskID uint64) bool {
	reply := make(chan bool, 1)
	select {
	case p.cancelCh <- cancelRequest{taskID: taskID, reply: reply}:
	case <-p.doneCh:
		return false
	}
	return <-reply
}

// Stats returns a point-in-time snapshot of pool state.
func (p *Pool) Stats() core.PoolStats {
	reply := make(chan core.PoolStats, 1)
	select {
	case p.statsCh <- statsRequest{reply: reply}:
	case <-p.doneCh:
		return core.PoolStats{ID: p.id, Max: p.max, Core: p.core, ShutDown: true}
	}
	return <-reply
}

// Shutdown stops accepting new submissions, drops all queued-but-not-
// dispatched work, forcibly terminates every worker, and blocks until
// they have all reported gone.
func (p *Pool) Shutdown() {
	reply := make(chan struct{})
	select {
	case p.shutdownCh <- reply:
		<-reply
	case <-p.doneCh:
	}
}

func (p *Pool) run() {
	defer close(p.doneCh)

	workers := make([]*workerRecord, 0, p.max)
	byName := make(map[string]*workerRecord, p.max)
	pendingCore := make(map[string]bool, p.max)
	pendingEnvelope := make(map[string]TaskEnvelope, p.max)
	callbacks := make(map[uint64]func([]byte, *core.TaskError), p.max)
	overflow := newOverflowQueue()

	var nextTaskID uint64
	var nextWorkerSeq uint64
	activeWorkers := 0
	reapedTotal := int64(0)
	isShutDown := false

	spawn := func(isCore bool) string {
		nextWorkerSeq++
		name := fmt.Sprintf("%s-%s-w%d", p.name, p.id[:8], nextWorkerSeq)
		pendingCore[name] = isCore
		w := newWorker(name, isCore, p.keepActiveSeconds, p.panicHandler, p.logger)
		go w.run(p.workerCtx, p.resultCh, p.goneCh)
		activeWorkers++
		return name
	}

	removeWorker := func(name string) {
		wr, ok := byName[name]
		if !ok {
			// A worker that goes before its eventReady was handled is
			// only tracked in pendingCore.
			if _, pending := pendingCore[name]; pending {
				delete(pendingCore, name)
				delete(pendingEnvelope, name)
				activeWorkers--
			}
			return
		}
		if wr.exited {
			return
		}
		wr.exited = true
		delete(byName, name)
		for i, w := range workers {
			if w == wr {
				workers = append(workers[:i], workers[i+1:]...)
				break
			}
		}
		activeWorkers--
		reapedTotal++
	}

	dispatch := func() {
		for _, wr := range workers {
			if wr.busy || wr.exited {
				continue
			}
			env, ok := overflow.pop()
			if !ok {
				break
			}
			wr.busy = true
			wr.inbound <- env
		}
		for overflow.len() > 0 && activeWorkers < p.max {
			env, ok := overflow.pop()
			if !ok {
				break
			}
			isCore := activeWorkers < p.core
			// The just-spawned worker isn't in `workers` yet (it hasn't
			// announced eventReady); stash its envelope until it does.
			pendingEnvelope[spawn(isCore)] = env
		}
		p.metrics.RecordQueueDepth(p.name, overflow.len())
	}

	for {
		select {
		case req := <-p.submitCh:
			if isShutDown {
				p.rejected.HandleRejectedTask(p.name, "shutdown")
				p.metrics.RecordTaskRejected(p.name, "shutdown")
				req.reply <- submitReply{err: core.ErrPoolShutDown}
				continue
			}
			nextTaskID++
			taskID := nextTaskID
			env := TaskEnvelope{id: taskID, entry: req.entry, argument: req.argument}
			if req.onAck != nil {
				callbacks[taskID] = req.onAck
			}

			if activeWorkers < p.max {
				isCore := activeWorkers < p.core
				pendingEnvelope[spawn(isCore)] = env
			} else {
				overflow.push(env)
				p.metrics.RecordQueueDepth(p.name, overflow.len())
				dispatch()
			}
			req.reply <- submitReply{taskID: taskID}

		case req := <-p.cancelCh:
			removed := overflow.removeByID(req.taskID)
			if removed {
				delete(callbacks, req.taskID)
			}
			req.reply <- removed

		case req := <-p.statsCh:
			coreWorkers := 0
			for _, w := range workers {
				if w.isCore {
					coreWorkers++
				}
			}
			for _, isCore := range pendingCore {
				if isCore {
					coreWorkers++
				}
			}
			req.reply <- core.PoolStats{
				ID:            p.id,
				Max:           p.max,
				Core:          p.core,
				ActiveWorkers: activeWorkers,
				CoreWorkers:   coreWorkers,
				Overflow:      overflow.len(),
				ReapedTotal:   reapedTotal,
				ShutDown:      isShutDown,
			}

		case ev := <-p.resultCh:
			switch ev.kind {
			case eventReady:
				wr := &workerRecord{debugName: ev.debugName, isCore: pendingCore[ev.debugName], inbound: ev.inbound}
				delete(pendingCore, ev.debugName)
				workers = append(workers, wr)
				byName[ev.debugName] = wr
				if env, ok := pendingEnvelope[ev.debugName]; ok {
					delete(pendingEnvelope, ev.debugName)
					wr.busy = true
					wr.inbound <- env
				}
				dispatch()

			case eventAck:
				if wr, ok := byName[ev.debugName]; ok {
					wr.busy = false
				}
				if cb, ok := callbacks[ev.taskID]; ok {
					delete(callbacks, ev.taskID)
					cb(ev.result, ev.ackErr)
				}
				dispatch()

			case eventExit:
				removeWorker(ev.debugName)
				dispatch()
			}

		case name := <-p.goneCh:
			removeWorker(name)
			dispatch()

		case reply := <-p.shutdownCh:
			isShutDown = true
			for {
				env, ok := overflow.pop()
				if !ok {
					break
				}
				if cb, ok := callbacks[env.id]; ok {
					delete(callbacks, env.id)
					cb(nil, &core.TaskError{Message: core.ErrPoolShutDown.Error()})
				}
			}
			p.workerCancel()
			for activeWorkers > 0 {
				select {
				case name := <-p.goneCh:
					removeWorker(name)
				case ev := <-p.resultCh:
					if ev.kind == eventExit {
						removeWorker(ev.debugName)
					}
				}
			}
			close(reply)
			return
		}
	}
}
