package cmd

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/finch-labs/isopool/core"
	"github.com/finch-labs/isopool/isolate"
)

var errorTransportCmd = &cobra.Command{
	Use:   "error-transport",
	Short: "submits a failing task and checks onError fires exactly once and onComplete fires exactly once",
	RunE:  runErrorTransport,
}

func runErrorTransport(cmd *cobra.Command, args []string) error {
	pool := isolate.New("error-transport-demo", 1, 0, 60, nil, core.NewNoOpLogger())
	defer pool.Shutdown()

	wantErr := errors.New("deliberate failure")
	handle := isolate.Submit(pool, core.NewJSONSerializer(), func(int) (int, error) {
		return 0, wantErr
	}, 0, core.NewNoOpLogger())

	var onErrorCount, onCompleteCount int32
	handle.Then(nil, func(err error, stack []byte) {
		atomic.AddInt32(&onErrorCount, 1)
		if !strings.Contains(err.Error(), wantErr.Error()) {
			fmt.Printf("warning: onError message %q does not contain %q\n", err.Error(), wantErr.Error())
		}
	})
	handle.WhenComplete(func() { atomic.AddInt32(&onCompleteCount, 1) })

	if _, err := handle.Wait(); err == nil {
		return fmt.Errorf("Wait() error = nil, want failure")
	}

	if !handle.IsError() || !handle.IsComplete() {
		return fmt.Errorf("IsError()=%v IsComplete()=%v, want true/true", handle.IsError(), handle.IsComplete())
	}
	if got := atomic.LoadInt32(&onErrorCount); got != 1 {
		return fmt.Errorf("onError fired %d times, want 1", got)
	}
	if got := atomic.LoadInt32(&onCompleteCount); got != 1 {
		return fmt.Errorf("onComplete fired %d times, want 1", got)
	}

	fmt.Println("error-transport: error crossed the isolation boundary, onError fired once, onComplete fired once")
	return nil
}
