package prometheus

import (
	"context"
	"testing"
	"time"

	"github.com/finch-labs/isopool/core"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type executorStub struct {
	stats core.ExecutorStats
}

func (s executorStub) Stats() core.ExecutorStats { return s.stats }

type poolStub struct {
	stats core.PoolStats
}

func (s poolStub) Stats() core.PoolStats { return s.stats }

func TestSnapshotPoller_CollectsExecutorAndPoolStats(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	poller.AddExecutor("executor-a", executorStub{stats: core.ExecutorStats{
		Name:     "executor-a",
		MaxSize:  4,
		Queued:   3,
		Active:   1,
		Rejected: 2,
		Closed:   true,
	}})
	poller.AddPool("pool-a", poolStub{stats: core.PoolStats{
		Max:           8,
		ActiveWorkers: 2,
		CoreWorkers:   1,
		Overflow:      4,
		ReapedTotal:   5,
		ShutDown:      true,
	}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)
	defer poller.Stop()

	assertEventually(t, 2*time.Second, func() bool {
		queued := testutil.ToFloat64(poller.executorQueued.WithLabelValues("executor-a"))
		active := testutil.ToFloat64(poller.poolActiveWorkers.WithLabelValues("pool-a"))
		return queued == 3 && active == 2
	})

	if got := testutil.ToFloat64(poller.executorClosed.WithLabelValues("executor-a")); got != 1 {
		t.Fatalf("executor closed gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(poller.poolShutDown.WithLabelValues("pool-a")); got != 1 {
		t.Fatalf("pool shut down gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(poller.poolOverflow.WithLabelValues("pool-a")); got != 4 {
		t.Fatalf("pool overflow gauge = %v, want 4", got)
	}
	if got := testutil.ToFloat64(poller.poolReapedTotal.WithLabelValues("pool-a")); got != 5 {
		t.Fatalf("pool reaped total gauge = %v, want 5", got)
	}
}

func TestSnapshotPoller_StartStop_Idempotent(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller.Start(ctx)
	poller.Start(ctx)
	poller.Stop()
	poller.Stop()
}

func assertEventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}
