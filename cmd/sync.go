package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mkajiha/git-workspace/internal/config"
	"github.com/mkajiha/git-workspace/internal/domain"
	"github.com/mkajiha/git-workspace/internal/gateway"
)

// configRepoDir is where sync keeps its clone of the configuration
// repository, inside the target directory.
const configRepoDir = ".workspace-config-repo"

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile a workspace from a configuration kept in a git repository",
	Long: `Clones (or updates) the given configuration repository into the target
directory, reads the workspace configuration from inside it, and then
reconciles the target directory against that configuration. Any problem with
the configuration repository is fatal and aborts before any repository
operation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := workspaceOptionsFromFlags(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(opts)

		configRepo, _ := cmd.Flags().GetString("config-repo")
		configPath, _ := cmd.Flags().GetString("config-path")

		if err := os.MkdirAll(opts.targetDir, 0o755); err != nil {
			return fmt.Errorf("create target directory: %w", err)
		}

		git := gateway.NewCLIGit(opts.timeout, logger)
		ctx := cmd.Context()
		cloneDir := filepath.Join(opts.targetDir, configRepoDir)

		switch {
		case gateway.IsRepo(cloneDir):
			if err := git.Fetch(ctx, cloneDir); err != nil {
				return fmt.Errorf("update configuration repository: %w", err)
			}
			if err := git.Pull(ctx, cloneDir); err != nil {
				return fmt.Errorf("update configuration repository: %w", err)
			}
		case dirExists(cloneDir):
			return fmt.Errorf("%s exists but is not a git repository; remove it and retry", cloneDir)
		default:
			if err := git.Clone(ctx, configRepo, cloneDir); err != nil {
				return fmt.Errorf("clone configuration repository: %w", err)
			}
		}

		cfg, err := config.Load(filepath.Join(cloneDir, configPath))
		if err != nil {
			return err
		}

		jobs := []domain.WorkspaceJob{{Root: opts.targetDir, Config: cfg}}
		return reconcileJobs(cmd, opts, jobs, logger)
	},
}

func dirExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func init() {
	rootCmd.AddCommand(syncCmd)
	addCommonFlags(syncCmd)
	syncCmd.Flags().String("config-repo", "", "URL of the git repository holding the workspace configuration (required)")
	syncCmd.Flags().String("config-path", config.DefaultFileName, "Path of the configuration file within the configuration repository")
	syncCmd.MarkFlagRequired("config-repo")
}
