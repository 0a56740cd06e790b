package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var scaleDown bool

var rootCmd = &cobra.Command{
	Use:   "isopool-demo",
	Short: "Runs isopool's end-to-end scenarios against a live pool or executor",
	Long: `isopool-demo stands up a Pool or InProcessExecutor with the same
parameters as one of isopool's documented end-to-end scenarios, drives it,
and reports whether the scenario's invariant held.

Examples:
  isopool-demo throughput --scale-down
  isopool-demo reap
  isopool-demo cancel-queued`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&scaleDown, "scale-down", false, "shrink scenario durations for a quick local run")

	rootCmd.AddCommand(throughputCmd)
	rootCmd.AddCommand(reapCmd)
	rootCmd.AddCommand(coreRetentionCmd)
	rootCmd.AddCommand(cancelQueuedCmd)
	rootCmd.AddCommand(errorTransportCmd)
	rootCmd.AddCommand(inProcessBoundCmd)
	rootCmd.AddCommand(metricsCmd)
}
