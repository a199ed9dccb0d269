package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// gitignoreContent keeps a workspace directory committable without
// dragging the cloned repositories along.
const gitignoreContent = `# Ignore all cloned repositories
*/

# Keep configuration and documentation files
!workspace-config.json
!.gitignore
!README.md
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a workspace by cloning its declared repositories",
	Long: `Reads the workspace configuration, creates the target directory if
needed, and clones every declared repository that is not present yet.
Repositories that already exist are fetched instead, so re-running init is
safe and never duplicates anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := workspaceOptionsFromFlags(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(opts)

		if !opts.recursive {
			if err := os.MkdirAll(opts.targetDir, 0o755); err != nil {
				return fmt.Errorf("create target directory: %w", err)
			}
			writeGitignore(opts.targetDir, logger)
		}

		jobs, err := discoverJobs(opts, logger)
		if err != nil {
			return err
		}
		return reconcileJobs(cmd, opts, jobs, logger)
	},
}

// writeGitignore creates the workspace .gitignore when absent. Failure
// is not fatal; reconciliation proceeds regardless.
func writeGitignore(dir string, logger *log.Logger) {
	path := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(path); err == nil {
		return
	}
	if err := os.WriteFile(path, []byte(gitignoreContent), 0o644); err != nil {
		logger.Printf("Init: could not create %s: %v", path, err)
		return
	}
	logger.Printf("Init: created %s", path)
}

func init() {
	rootCmd.AddCommand(initCmd)
	addWorkspaceFlags(initCmd)
}
