package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/finch-labs/isopool/core"
	"github.com/finch-labs/isopool/isolate"
)

var coreRetentionCmd = &cobra.Command{
	Use:   "core-retention",
	Short: "max=4, core=2, keepActiveSeconds=1; checks activeWorkers settles at core=2",
	RunE:  runCoreRetention,
}

func runCoreRetention(cmd *cobra.Command, args []string) error {
	pool := isolate.New("core-retention-demo", 4, 2, 1, nil, core.NewNoOpLogger())
	defer pool.Shutdown()

	serializer := core.NewJSONSerializer()
	joinable := make([]core.Joinable, 10)
	for i := 0; i < 10; i++ {
		joinable[i] = isolate.Submit(pool, serializer, func(n int) (int, error) { return n, nil }, i, core.NewNoOpLogger())
	}
	core.Join(joinable)

	time.Sleep(3 * time.Second)

	stats := pool.Stats()
	if stats.ActiveWorkers != 2 {
		return fmt.Errorf("activeWorkers = %d, want 2", stats.ActiveWorkers)
	}
	fmt.Printf("core-retention: activeWorkers=2 (core=2) after 3s idle, reapedTotal=%d\n", stats.ReapedTotal)
	return nil
}
