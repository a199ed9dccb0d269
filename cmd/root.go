// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "git-workspace",
	Short: "Manage collections of git repositories from a JSON configuration.",
	Long: `git-workspace reconciles a directory against the repository set declared
in a workspace-config.json file: missing repositories are cloned, existing
ones are fetched, and destinations occupied by something else are skipped
and left untouched. Individual failures never abort the rest of the run.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). An interrupt cancels
// the run; in-flight git operations finish or are killed, and already
// completed outcomes still appear in the summary.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
}
