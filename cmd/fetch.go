package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch updates for the repositories of an existing workspace",
	Long: `Reads the workspace configuration and fetches updates for every
declared repository. Entries missing from the target directory are cloned,
so fetch also completes a partially initialized workspace.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := workspaceOptionsFromFlags(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(opts)

		if _, err := os.Stat(opts.targetDir); err != nil {
			return fmt.Errorf("target directory %s does not exist", opts.targetDir)
		}

		jobs, err := discoverJobs(opts, logger)
		if err != nil {
			return err
		}
		return reconcileJobs(cmd, opts, jobs, logger)
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	addWorkspaceFlags(fetchCmd)
}
