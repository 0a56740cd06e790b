package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/finch-labs/isopool/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExecutorSnapshotProvider provides current InProcessExecutor stats snapshots.
type ExecutorSnapshotProvider interface {
	Stats() core.ExecutorStats
}

// PoolSnapshotProvider provides current IsolatedPool stats snapshots.
type PoolSnapshotProvider interface {
	Stats() core.PoolStats
}

// SnapshotPoller periodically exports executor/pool Stats() snapshots into Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	executorsMu sync.RWMutex
	executors   map[string]ExecutorSnapshotProvider

	poolsMu sync.RWMutex
	pools   map[string]PoolSnapshotProvider

	executorQueued   *prom.GaugeVec
	executorActive   *prom.GaugeVec
	executorRejected *prom.GaugeVec
	executorClosed   *prom.GaugeVec

	poolActiveWorkers *prom.GaugeVec
	poolCoreWorkers   *prom.GaugeVec
	poolOverflow      *prom.GaugeVec
	poolReapedTotal   *prom.GaugeVec
	poolShutDown      *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	executorQueued := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "isopool",
		Name:      "executor_queued",
		Help:      "Queued tasks per in-process executor.",
	}, []string{"executor"})
	executorActive := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "isopool",
		Name:      "executor_active",
		Help:      "Active tasks per in-process executor.",
	}, []string{"executor"})
	executorRejected := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "isopool",
		Name:      "executor_rejected_total",
		Help:      "Executor rejected task count snapshot.",
	}, []string{"executor"})
	executorClosed := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "isopool",
		Name:      "executor_closed",
		Help:      "Executor closed state (1=closed, 0=open).",
	}, []string{"executor"})

	poolActiveWorkers := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "isopool",
		Name:      "pool_active_workers",
		Help:      "Active worker count per isolated pool.",
	}, []string{"pool"})
	poolCoreWorkers := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "isopool",
		Name:      "pool_core_workers",
		Help:      "Core worker count per isolated pool.",
	}, []string{"pool"})
	poolOverflow := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "isopool",
		Name:      "pool_overflow",
		Help:      "Queued-past-max task count per isolated pool.",
	}, []string{"pool"})
	poolReapedTotal := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "isopool",
		Name:      "pool_reaped_total",
		Help:      "Total idle workers reaped per isolated pool.",
	}, []string{"pool"})
	poolShutDown := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "isopool",
		Name:      "pool_shut_down",
		Help:      "Pool shutdown state (1=shut down, 0=running).",
	}, []string{"pool"})

	var err error
	if executorQueued, err = registerCollector(reg, executorQueued); err != nil {
		return nil, err
	}
	if executorActive, err = registerCollector(reg, executorActive); err != nil {
		return nil, err
	}
	if executorRejected, err = registerCollector(reg, executorRejected); err != nil {
		return nil, err
	}
	if executorClosed, err = registerCollector(reg, executorClosed); err != nil {
		return nil, err
	}
	if poolActiveWorkers, err = registerCollector(reg, poolActiveWorkers); err != nil {
		return nil, err
	}
	if poolCoreWorkers, err = registerCollector(reg, poolCoreWorkers); err != nil {
		return nil, err
	}
	if poolOverflow, err = registerCollector(reg, poolOverflow); err != nil {
		return nil, err
	}
	if poolReapedTotal, err = registerCollector(reg, poolReapedTotal); err != nil {
		return nil, err
	}
	if poolShutDown, err = registerCollector(reg, poolShutDown); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:          interval,
		executors:         make(map[string]ExecutorSnapshotProvider),
		pools:             make(map[string]PoolSnapshotProvider),
		executorQueued:    executorQueued,
		executorActive:    executorActive,
		executorRejected:  executorRejected,
		executorClosed:    executorClosed,
		poolActiveWorkers: poolActiveWorkers,
		poolCoreWorkers:   poolCoreWorkers,
		poolOverflow:      poolOverflow,
		poolReapedTotal:   poolReapedTotal,
		poolShutDown:      poolShutDown,
	}, nil
}

// AddExecutor adds or replaces an executor snapshot provider by name.
func (p *SnapshotPoller) AddExecutor(name string, provider ExecutorSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "executor")
	p.executorsMu.Lock()
	p.executors[name] = provider
	p.executorsMu.Unlock()
}

// AddPool adds or replaces a pool snapshot provider by name.
func (p *SnapshotPoller) AddPool(name string, provider PoolSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "pool")
	p.poolsMu.Lock()
	p.pools[name] = provider
	p.poolsMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.executorsMu.RLock()
	for name, provider := range p.executors {
		stats := provider.Stats()
		p.executorQueued.WithLabelValues(name).Set(float64(stats.Queued))
		p.executorActive.WithLabelValues(name).Set(float64(stats.Active))
		p.executorRejected.WithLabelValues(name).Set(float64(stats.Rejected))
		if stats.Closed {
			p.executorClosed.WithLabelValues(name).Set(1)
		} else {
			p.executorClosed.WithLabelValues(name).Set(0)
		}
	}
	p.executorsMu.RUnlock()

	p.poolsMu.RLock()
	for name, provider := range p.pools {
		stats := provider.Stats()
		p.poolActiveWorkers.WithLabelValues(name).Set(float64(stats.ActiveWorkers))
		p.poolCoreWorkers.WithLabelValues(name).Set(float64(stats.CoreWorkers))
		p.poolOverflow.WithLabelValues(name).Set(float64(stats.Overflow))
		p.poolReapedTotal.WithLabelValues(name).Set(float64(stats.ReapedTotal))
		if stats.ShutDown {
			p.poolShutDown.WithLabelValues(name).Set(1)
		} else {
			p.poolShutDown.WithLabelValues(name).Set(0)
		}
	}
	p.poolsMu.RUnlock()
}
