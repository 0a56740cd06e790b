package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/finch-labs/isopool/core"
	"github.com/finch-labs/isopool/isolate"
)

var reapCmd = &cobra.Command{
	Use:   "reap",
	Short: "max=2, core=0, keepActiveSeconds=1; checks activeWorkers reaches 0 after idling",
	RunE:  runReap,
}

func runReap(cmd *cobra.Command, args []string) error {
	pool := isolate.New("reap-demo", 2, 0, 1, nil, core.NewNoOpLogger())
	defer pool.Shutdown()

	serializer := core.NewJSONSerializer()
	joinable := make([]core.Joinable, 10)
	for i := 0; i < 10; i++ {
		joinable[i] = isolate.Submit(pool, serializer, func(n int) (int, error) { return n, nil }, i, core.NewNoOpLogger())
	}
	core.Join(joinable)

	time.Sleep(3 * time.Second)

	stats := pool.Stats()
	if stats.ActiveWorkers != 0 {
		return fmt.Errorf("activeWorkers = %d, want 0", stats.ActiveWorkers)
	}
	fmt.Printf("reap: activeWorkers=0 after 3s idle, reapedTotal=%d\n", stats.ReapedTotal)
	return nil
}
