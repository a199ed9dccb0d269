// Package usecase contains the business logic of the application: the
// reconciliation engine, workspace discovery and result aggregation.
package usecase

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mkajiha/git-workspace/internal/domain"
	"github.com/mkajiha/git-workspace/internal/gateway"
)

// Reconciler brings a workspace directory in line with its declared
// repository set: missing repositories are cloned, existing ones are
// fetched, and occupied non-repository destinations are left untouched.
type Reconciler struct {
	git    gateway.Git
	limit  int
	logger *log.Logger
}

// NewReconciler creates a Reconciler running at most limit git
// operations concurrently.
func NewReconciler(git gateway.Git, limit int, logger *log.Logger) *Reconciler {
	if limit < 1 {
		limit = 1
	}
	return &Reconciler{git: git, limit: limit, logger: logger}
}

// Reconcile processes every entry of the job's repository set. Failures
// are isolated per entry and never abort the batch. Outcomes are
// returned in declared config order regardless of completion order;
// each goroutine writes into its own indexed slot.
func (r *Reconciler) Reconcile(ctx context.Context, job domain.WorkspaceJob) []domain.Outcome {
	outcomes := make([]domain.Outcome, len(job.Config.Repositories))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.limit)
	for i, entry := range job.Config.Repositories {
		i, entry := i, entry
		eg.Go(func() error {
			outcomes[i] = r.reconcileOne(egCtx, job.Root, entry)
			return nil
		})
	}
	// Goroutines never return an error; per-entry failures live in the
	// outcome slots.
	_ = eg.Wait()

	return outcomes
}

// ReconcileAll processes independent workspaces concurrently, recording
// every result on agg. Jobs carrying a discovery error are recorded as
// failed workspaces without touching the filesystem.
func (r *Reconciler) ReconcileAll(ctx context.Context, jobs []domain.WorkspaceJob, agg *Aggregator) {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.limit)
	for _, job := range jobs {
		if job.Err != nil {
			r.logger.Printf("Reconcile: workspace %s failed: %v", job.Root, job.Err)
			agg.RecordWorkspaceError(job.Root, job.Err)
			continue
		}
		job := job
		eg.Go(func() error {
			agg.Record(job.Root, r.Reconcile(egCtx, job))
			return nil
		})
	}
	_ = eg.Wait()
}

func (r *Reconciler) reconcileOne(ctx context.Context, root string, entry domain.RepositoryEntry) domain.Outcome {
	out := domain.Outcome{Entry: entry}

	// Once the run is cancelled, queued entries are reported failed
	// without starting new git processes. Completed outcomes keep
	// their slots.
	if err := ctx.Err(); err != nil {
		out.Action = domain.ActionFailed
		out.Detail = err.Error()
		return out
	}

	dest := filepath.Join(root, entry.Directory)
	info, statErr := os.Stat(dest)

	start := time.Now()
	switch {
	case errors.Is(statErr, fs.ErrNotExist):
		if err := r.git.Clone(ctx, entry.URL, dest); err != nil {
			out.Action = domain.ActionFailed
			out.Detail = err.Error()
		} else {
			out.Action = domain.ActionCloned
		}
	case statErr != nil:
		out.Action = domain.ActionFailed
		out.Detail = statErr.Error()
	case !info.IsDir():
		out.Action = domain.ActionSkipped
		out.Detail = "destination exists and is not a directory"
	case !gateway.IsRepo(dest):
		// Covers plain directories and the leftovers of an
		// interrupted clone. Never overwritten or deleted.
		out.Action = domain.ActionSkipped
		out.Detail = "destination exists but is not a git repository"
	default:
		if err := r.git.Fetch(ctx, dest); err != nil {
			out.Action = domain.ActionFailed
			out.Detail = err.Error()
		} else {
			out.Action = domain.ActionFetched
		}
	}
	out.Duration = time.Since(start)

	r.logger.Printf("Reconcile: %s -> %s", entry.Directory, out.Action)
	return out
}
