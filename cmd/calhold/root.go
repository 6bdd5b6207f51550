package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "calhold",
	Short: "Calendar slot reservation service",
	Long: `calhold manages provisional holds on calendar slots across connected
calendar accounts. A hold claims a time interval until it is confirmed as a
real calendar event, released, or expires.

It can run as:
  - An HTTP API with a background expiry sweeper (serve)
  - A one-shot expiry sweep for cron-style scheduling (sweep)
  - A migration runner (migrate)`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSweepCmd())
	rootCmd.AddCommand(newMigrateCmd())
}
