package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/finch-labs/isopool/core"
	"github.com/finch-labs/isopool/isolate"
)

var cancelQueuedCmd = &cobra.Command{
	Use:   "cancel-queued",
	Short: "max=1; cancels a task still waiting behind a slow one and checks T1 still completes",
	RunE:  runCancelQueued,
}

func runCancelQueued(cmd *cobra.Command, args []string) error {
	pool := isolate.New("cancel-queued-demo", 1, 0, 60, nil, core.NewNoOpLogger())
	defer pool.Shutdown()

	serializer := core.NewJSONSerializer()

	t1 := isolate.Submit(pool, serializer, func(n int) (int, error) {
		time.Sleep(500 * time.Millisecond)
		return n, nil
	}, 1, core.NewNoOpLogger())

	t2 := isolate.Submit(pool, serializer, func(n int) (int, error) { return n, nil }, 2, core.NewNoOpLogger())

	cancelled := t2.Cancel()
	if !cancelled {
		return fmt.Errorf("Cancel(T2) = false, want true")
	}

	value, err := t1.Wait()
	if err != nil {
		return fmt.Errorf("T1 failed: %w", err)
	}
	if value != 1 {
		return fmt.Errorf("T1 result = %d, want 1", value)
	}
	if !t2.IsCancelled() {
		return fmt.Errorf("T2 handle IsCancelled() = false, want true")
	}

	fmt.Println("cancel-queued: cancel(T2) returned true, T2 handle is cancelled, T1 completed normally")
	return nil
}
