package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/finch-labs/isopool/core"
	"github.com/finch-labs/isopool/isolate"
)

var throughputCmd = &cobra.Command{
	Use:   "throughput",
	Short: "max=4, core=0, 1000 tasks sleeping 100ms each; checks wall time stays near 1000/4 x 100ms",
	RunE:  runThroughput,
}

func runThroughput(cmd *cobra.Command, args []string) error {
	taskCount := 1000
	sleep := 100 * time.Millisecond
	if scaleDown {
		taskCount = 40
		sleep = 20 * time.Millisecond
	}

	pool := isolate.New("throughput-demo", 4, 0, 60, nil, core.NewNoOpLogger())
	defer pool.Shutdown()

	serializer := core.NewJSONSerializer()
	handles := make([]*core.CompletionHandle[int], taskCount)
	joinable := make([]core.Joinable, taskCount)

	start := time.Now()
	for i := 0; i < taskCount; i++ {
		index := i
		handles[i] = isolate.Submit(pool, serializer, func(n int) (int, error) {
			time.Sleep(sleep)
			return n, nil
		}, index, core.NewNoOpLogger())
		joinable[i] = handles[i]
	}

	core.Join(joinable)
	elapsed := time.Since(start)

	lower := time.Duration(taskCount/4) * sleep
	upper := lower * 6 / 5
	if elapsed < lower || elapsed >= upper {
		return fmt.Errorf("elapsed = %s, want within [%s, %s)", elapsed, lower, upper)
	}

	for i, h := range handles {
		if h.Result() != i {
			return fmt.Errorf("handle %d: result = %d, want %d", i, h.Result(), i)
		}
	}

	fmt.Printf("throughput: %d tasks, max=4 workers, elapsed=%s, every result matched its index\n", taskCount, elapsed)
	return nil
}
