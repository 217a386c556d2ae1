package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tailfin",
	Short: "Autonomous CRM assistant",
	Long: `Tailfin runs a team of autonomous agents over your inbox, calendar,
and CRM pipeline. Each agent executes a configurable workflow on a
schedule: fetch data, analyze it with Claude, and surface what needs
your attention as notifications and insights.

Start the background daemon with 'tailfin run', or trigger a single
scan with 'tailfin scan'. Talk to any agent with 'tailfin chat'.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
