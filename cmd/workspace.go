package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkajiha/git-workspace/internal/config"
	"github.com/mkajiha/git-workspace/internal/domain"
	"github.com/mkajiha/git-workspace/internal/gateway"
	"github.com/mkajiha/git-workspace/internal/usecase"
)

type workspaceOptions struct {
	config    string
	targetDir string
	recursive bool
	jobs      int
	timeout   time.Duration
	jsonOut   bool
	verbose   bool
}

// addWorkspaceFlags registers the flags shared by init and fetch.
func addWorkspaceFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", config.DefaultFileName, "Path to the JSON configuration file containing repository URLs")
	cmd.Flags().BoolP("recursive", "r", false, "Recursively find and process all workspace configuration files in subdirectories")
	addCommonFlags(cmd)
}

// addCommonFlags registers the flags shared by all reconciling commands.
func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("target-dir", "t", ".", "Target directory to reconcile repositories into")
	cmd.Flags().IntP("jobs", "j", 4, "Maximum number of concurrent git operations")
	cmd.Flags().Duration("timeout", 5*time.Minute, "Per-operation timeout for git invocations")
	cmd.Flags().Bool("json", false, "Print a machine-readable outcome report to stdout")
}

func workspaceOptionsFromFlags(cmd *cobra.Command) (workspaceOptions, error) {
	var opts workspaceOptions
	opts.config, _ = cmd.Flags().GetString("config")
	opts.recursive, _ = cmd.Flags().GetBool("recursive")
	opts.jobs, _ = cmd.Flags().GetInt("jobs")
	opts.timeout, _ = cmd.Flags().GetDuration("timeout")
	opts.jsonOut, _ = cmd.Flags().GetBool("json")
	opts.verbose, _ = cmd.InheritedFlags().GetBool("verbose")

	targetDir, _ := cmd.Flags().GetString("target-dir")
	abs, err := filepath.Abs(targetDir)
	if err != nil {
		return opts, fmt.Errorf("resolve target directory: %w", err)
	}
	opts.targetDir = abs
	return opts, nil
}

// newLogger builds the debug logger: discard by default, stderr when
// verbose.
func newLogger(opts workspaceOptions) *log.Logger {
	logger := log.New(io.Discard, "", log.LstdFlags)
	if opts.verbose {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

// reconcileJobs runs the engine over the discovered jobs and reports
// the result. The returned error is non-nil iff any repository
// operation or workspace failed, which maps to a non-zero exit code.
func reconcileJobs(cmd *cobra.Command, opts workspaceOptions, jobs []domain.WorkspaceJob, logger *log.Logger) error {
	git := gateway.NewCLIGit(opts.timeout, logger)
	reconciler := usecase.NewReconciler(git, opts.jobs, logger)
	aggregator := usecase.NewAggregator()

	reconciler.ReconcileAll(cmd.Context(), jobs, aggregator)
	summary := aggregator.Finalize()

	printSummary(cmd.ErrOrStderr(), summary, opts.verbose)
	if opts.jsonOut {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal summary: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	}

	if !summary.OK() {
		return fmt.Errorf("%d repository operations and %d workspaces failed",
			summary.Failed, summary.FailedWorkspaces)
	}
	return nil
}

func printSummary(w io.Writer, sum domain.Summary, verbose bool) {
	fmt.Fprintf(w, "Workspaces: %d processed, %d failed\n", sum.Workspaces, sum.FailedWorkspaces)
	fmt.Fprintf(w, "Repositories: %d cloned, %d fetched, %d skipped, %d failed\n",
		sum.Cloned, sum.Fetched, sum.Skipped, sum.Failed)

	for _, rep := range sum.Reports {
		if rep.Error != "" {
			fmt.Fprintf(w, "  workspace %s: %s\n", rep.Root, rep.Error)
			continue
		}
		for _, out := range rep.Outcomes {
			if out.Action != domain.ActionSkipped && out.Action != domain.ActionFailed {
				continue
			}
			fmt.Fprintf(w, "  - %s: %s (%s)\n", out.Entry.Directory, out.Action, out.Detail)
		}
	}

	if attempted := sum.Cloned + sum.Fetched + sum.Failed; attempted > 0 {
		rate := float64(sum.Cloned+sum.Fetched) / float64(attempted) * 100
		fmt.Fprintf(w, "Success rate: %.1f%% (%d/%d)\n", rate, sum.Cloned+sum.Fetched, attempted)
	}
	if verbose {
		if mean, median, p95, ok := usecase.OperationStats(sum); ok {
			fmt.Fprintf(w, "Operation time: mean %.2fs, median %.2fs, p95 %.2fs\n", mean, median, p95)
		}
	}
}

// discoverJobs resolves the workspace set for init and fetch.
func discoverJobs(opts workspaceOptions, logger *log.Logger) ([]domain.WorkspaceJob, error) {
	discovery := usecase.NewDiscovery(opts.config, logger)
	if opts.recursive {
		return discovery.Walk(opts.targetDir)
	}
	job, err := discovery.Single(opts.targetDir)
	if err != nil {
		return nil, err
	}
	return []domain.WorkspaceJob{job}, nil
}
