package usecase

import (
	"sort"
	"sync"

	"github.com/montanaflynn/stats"

	"github.com/mkajiha/git-workspace/internal/domain"
)

// Aggregator accumulates per-workspace outcomes into a run summary. It
// is safe for concurrent use; workspaces processed in parallel share a
// single instance.
type Aggregator struct {
	mu      sync.Mutex
	reports []domain.WorkspaceReport
}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Record stores the outcomes of one successfully processed workspace.
func (a *Aggregator) Record(root string, outcomes []domain.Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reports = append(a.reports, domain.WorkspaceReport{Root: root, Outcomes: outcomes})
}

// RecordWorkspaceError stores a workspace that could not be processed
// at all (missing or invalid configuration).
func (a *Aggregator) RecordWorkspaceError(root string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reports = append(a.reports, domain.WorkspaceReport{Root: root, Error: err.Error()})
}

// Finalize computes the run summary. Reports are sorted by workspace
// path so the output is deterministic regardless of completion order.
func (a *Aggregator) Finalize() domain.Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	reports := make([]domain.WorkspaceReport, len(a.reports))
	copy(reports, a.reports)
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Root < reports[j].Root
	})

	sum := domain.Summary{Workspaces: len(reports), Reports: reports}
	for _, rep := range reports {
		if rep.Error != "" {
			sum.FailedWorkspaces++
			continue
		}
		for _, out := range rep.Outcomes {
			switch out.Action {
			case domain.ActionCloned:
				sum.Cloned++
			case domain.ActionFetched:
				sum.Fetched++
			case domain.ActionSkipped:
				sum.Skipped++
			case domain.ActionFailed:
				sum.Failed++
			}
		}
	}
	return sum
}

// OperationStats summarizes the durations of the git operations that
// actually ran (clones and fetches), in seconds. ok is false when the
// run performed none.
func OperationStats(sum domain.Summary) (mean, median, p95 float64, ok bool) {
	var secs []float64
	for _, rep := range sum.Reports {
		for _, out := range rep.Outcomes {
			if out.Action == domain.ActionCloned || out.Action == domain.ActionFetched {
				secs = append(secs, out.Duration.Seconds())
			}
		}
	}
	if len(secs) == 0 {
		return 0, 0, 0, false
	}
	mean, _ = stats.Mean(secs)
	median, _ = stats.Median(secs)
	p95, err := stats.Percentile(secs, 95)
	if err != nil {
		// Percentile needs a few samples; the max is close enough.
		p95, _ = stats.Max(secs)
	}
	return mean, median, p95, true
}
