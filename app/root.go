// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gradquest",
	Short: "GradQuest is the backend for the student application tracker",
	Long: `GradQuest is the backend for the student application tracker.
It signs users in via GitHub, Google or Discord and exposes the
session and account APIs consumed by the web and mobile clients.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
