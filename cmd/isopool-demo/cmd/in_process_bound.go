package cmd

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/finch-labs/isopool/core"
)

var inProcessBoundCmd = &cobra.Command{
	Use:   "in-process-bound",
	Short: "InProcessExecutor(maxSize=3), 9 tasks of 100ms each; checks activeCount() never exceeds 3",
	RunE:  runInProcessBound,
}

func runInProcessBound(cmd *cobra.Command, args []string) error {
	sleep := 100 * time.Millisecond
	if scaleDown {
		sleep = 20 * time.Millisecond
	}

	executor := core.NewInProcessExecutor("in-process-bound-demo", 3)
	defer executor.Close()

	var maxObserved int32
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				if got := int32(executor.ActiveCount()); got > atomic.LoadInt32(&maxObserved) {
					atomic.StoreInt32(&maxObserved, got)
				}
				time.Sleep(time.Millisecond)
			}
		}
	}()

	joinable := make([]core.Joinable, 9)
	start := time.Now()
	for i := 0; i < 9; i++ {
		joinable[i] = core.SubmitInProcess(context.Background(), executor, func(ctx context.Context) (int, error) {
			time.Sleep(sleep)
			return 0, nil
		}, core.DefaultTaskTraits(), core.NewNoOpLogger())
	}
	core.Join(joinable)
	elapsed := time.Since(start)
	close(stop)

	if got := atomic.LoadInt32(&maxObserved); got > 3 {
		return fmt.Errorf("observed activeCount() = %d, want <= 3", got)
	}

	fmt.Printf("in-process-bound: maxSize=3, 9 tasks, elapsed=%s, activeCount() never exceeded 3\n", elapsed)
	return nil
}
