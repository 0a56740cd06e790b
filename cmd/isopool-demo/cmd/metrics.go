package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/finch-labs/isopool/core"
	"github.com/finch-labs/isopool/isolate"
	obs "github.com/finch-labs/isopool/observability/prometheus"
)

var metricsAddr string

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Serves Prometheus metrics for a live Pool and InProcessExecutor while driving demo tasks",
	RunE:  runMetrics,
}

func init() {
	metricsCmd.Flags().StringVar(&metricsAddr, "addr", ":2112", "address to serve /metrics on")
}

func runMetrics(cmd *cobra.Command, args []string) error {
	reg := prom.NewRegistry()

	exporter, err := obs.NewMetricsExporter("isopool", reg, obs.ExporterOptions{})
	if err != nil {
		return fmt.Errorf("new metrics exporter: %w", err)
	}

	poller, err := obs.NewSnapshotPoller(reg, 200*time.Millisecond)
	if err != nil {
		return fmt.Errorf("new snapshot poller: %w", err)
	}

	config := &core.ExecutorConfig{
		PanicHandler:        &core.DefaultPanicHandler{},
		Metrics:             exporter,
		RejectedTaskHandler: &core.DefaultRejectedTaskHandler{},
	}

	pool := isolate.New("metrics-pool", 4, 1, 10, config, core.NewNoOpLogger())
	defer pool.Shutdown()

	executor := core.NewInProcessExecutorWithConfig("metrics-executor", 3, config, core.NewNoOpLogger())
	defer executor.Close()

	poller.AddPool("metrics-pool", pool)
	poller.AddExecutor("metrics-executor", executor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)
	defer poller.Stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: metricsAddr, Handler: mux}

	go func() {
		_ = server.ListenAndServe()
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	serializer := core.NewJSONSerializer()
	joinable := make([]core.Joinable, 0, 16)
	for i := 0; i < 8; i++ {
		joinable = append(joinable, isolate.Submit(pool, serializer, func(n int) (int, error) {
			time.Sleep(10 * time.Millisecond)
			return n, nil
		}, i, core.NewNoOpLogger()))
	}
	for i := 0; i < 8; i++ {
		joinable = append(joinable, core.SubmitInProcess(context.Background(), executor, func(ctx context.Context) (int, error) {
			time.Sleep(10 * time.Millisecond)
			return i, nil
		}, core.DefaultTaskTraits(), core.NewNoOpLogger()))
	}
	core.Join(joinable)

	fmt.Printf("Prometheus endpoint is up at http://127.0.0.1%s/metrics\n", metricsAddr)
	fmt.Println("Try: curl -s http://127.0.0.1" + metricsAddr + "/metrics | grep '^isopool_'")

	// Keep the demo alive briefly so a local scrape has something to hit.
	time.Sleep(2 * time.Second)
	return nil
}
