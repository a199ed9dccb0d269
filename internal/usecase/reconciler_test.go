package usecase

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mkajiha/git-workspace/internal/domain"
	"github.com/mkajiha/git-workspace/internal/gateway"
)

// mockGit is a mock implementation of the gateway.Git interface. It
// lets us drive the reconciler without a git binary or network access.
type mockGit struct {
	mock.Mock
}

func (m *mockGit) Clone(ctx context.Context, url, dest string) error {
	args := m.Called(ctx, url, dest)
	return args.Error(0)
}

func (m *mockGit) Fetch(ctx context.Context, repoPath string) error {
	args := m.Called(ctx, repoPath)
	return args.Error(0)
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func entriesFor(urls ...string) []domain.RepositoryEntry {
	entries := make([]domain.RepositoryEntry, 0, len(urls))
	for _, url := range urls {
		base := filepath.Base(url)
		entries = append(entries, domain.RepositoryEntry{
			URL:       url,
			Directory: base[:len(base)-len(".git")],
		})
	}
	return entries
}

// makeRepoDir creates a directory carrying the .git marker.
func makeRepoDir(t *testing.T, root, name string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, name, ".git"), 0o755))
}

func TestReconciler_Reconcile_ClonesMissing(t *testing.T) {
	root := t.TempDir()
	entries := entriesFor(
		"https://example.com/org/repo-a.git",
		"https://example.com/org/repo-b.git",
		"https://example.com/org/repo-c.git",
	)

	git := new(mockGit)
	for _, e := range entries {
		git.On("Clone", mock.Anything, e.URL, filepath.Join(root, e.Directory)).Return(nil)
	}

	reconciler := NewReconciler(git, 1, testLogger())
	outcomes := reconciler.Reconcile(context.Background(), domain.WorkspaceJob{
		Root:   root,
		Config: domain.WorkspaceConfig{Repositories: entries},
	})

	require.Len(t, outcomes, 3)
	for i, out := range outcomes {
		assert.Equal(t, entries[i], out.Entry, "outcomes must keep declared order")
		assert.Equal(t, domain.ActionCloned, out.Action)
	}
	git.AssertExpectations(t)
}

func TestReconciler_Reconcile_FetchesExisting(t *testing.T) {
	root := t.TempDir()
	entries := entriesFor("https://example.com/org/repo-a.git", "https://example.com/org/repo-b.git")
	for _, e := range entries {
		makeRepoDir(t, root, e.Directory)
	}

	git := new(mockGit)
	for _, e := range entries {
		git.On("Fetch", mock.Anything, filepath.Join(root, e.Directory)).Return(nil)
	}

	reconciler := NewReconciler(git, 2, testLogger())
	outcomes := reconciler.Reconcile(context.Background(), domain.WorkspaceJob{
		Root:   root,
		Config: domain.WorkspaceConfig{Repositories: entries},
	})

	require.Len(t, outcomes, 2)
	for _, out := range outcomes {
		assert.Equal(t, domain.ActionFetched, out.Action)
	}
	git.AssertExpectations(t)
}

func TestReconciler_Reconcile_SkipsConflicts(t *testing.T) {
	root := t.TempDir()
	entries := entriesFor("https://example.com/org/plain-dir.git", "https://example.com/org/plain-file.git")

	// A plain directory (e.g. the leftovers of an interrupted clone)
	// and a plain file occupy the destinations.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "plain-dir"), 0o755))
	content := []byte("do not touch")
	require.NoError(t, os.WriteFile(filepath.Join(root, "plain-dir", "data.txt"), content, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "plain-file"), content, 0o644))

	git := new(mockGit) // no expectations: nothing may be invoked

	reconciler := NewReconciler(git, 2, testLogger())
	outcomes := reconciler.Reconcile(context.Background(), domain.WorkspaceJob{
		Root:   root,
		Config: domain.WorkspaceConfig{Repositories: entries},
	})

	require.Len(t, outcomes, 2)
	assert.Equal(t, domain.ActionSkipped, outcomes[0].Action)
	assert.Contains(t, outcomes[0].Detail, "not a git repository")
	assert.Equal(t, domain.ActionSkipped, outcomes[1].Action)
	assert.Contains(t, outcomes[1].Detail, "not a directory")

	// Existing content is untouched.
	got, err := os.ReadFile(filepath.Join(root, "plain-dir", "data.txt"))
	require.NoError(t, err)
	assert.Equal(t, content, got)
	got, err = os.ReadFile(filepath.Join(root, "plain-file"))
	require.NoError(t, err)
	assert.Equal(t, content, got)

	git.AssertExpectations(t)
}

func TestReconciler_Reconcile_FailureIsolation(t *testing.T) {
	root := t.TempDir()
	entries := entriesFor(
		"https://example.com/org/repo-a.git",
		"https://unreachable.invalid/org/repo-b.git",
		"https://example.com/org/repo-c.git",
	)

	git := new(mockGit)
	git.On("Clone", mock.Anything, entries[0].URL, mock.Anything).Return(nil)
	git.On("Clone", mock.Anything, entries[1].URL, mock.Anything).Return(&gateway.ExecError{
		Args:     []string{"clone", entries[1].URL},
		ExitCode: 128,
		Stderr:   "fatal: unable to access",
	})
	git.On("Clone", mock.Anything, entries[2].URL, mock.Anything).Return(nil)

	reconciler := NewReconciler(git, 1, testLogger())
	outcomes := reconciler.Reconcile(context.Background(), domain.WorkspaceJob{
		Root:   root,
		Config: domain.WorkspaceConfig{Repositories: entries},
	})

	require.Len(t, outcomes, 3)
	assert.Equal(t, domain.ActionCloned, outcomes[0].Action)
	assert.Equal(t, domain.ActionFailed, outcomes[1].Action)
	assert.Contains(t, outcomes[1].Detail, "unable to access")
	assert.Equal(t, domain.ActionCloned, outcomes[2].Action)
	git.AssertExpectations(t)
}

func TestReconciler_Reconcile_OrderedUnderConcurrency(t *testing.T) {
	root := t.TempDir()
	entries := entriesFor(
		"https://example.com/org/slow.git",
		"https://example.com/org/mid.git",
		"https://example.com/org/fast-a.git",
		"https://example.com/org/fast-b.git",
	)

	// Earlier entries take longer, so completion order is the reverse
	// of declared order.
	delays := []time.Duration{30 * time.Millisecond, 20 * time.Millisecond, 0, 0}
	git := new(mockGit)
	for i, e := range entries {
		d := delays[i]
		git.On("Clone", mock.Anything, e.URL, mock.Anything).
			Run(func(args mock.Arguments) { time.Sleep(d) }).
			Return(nil)
	}

	reconciler := NewReconciler(git, 4, testLogger())
	outcomes := reconciler.Reconcile(context.Background(), domain.WorkspaceJob{
		Root:   root,
		Config: domain.WorkspaceConfig{Repositories: entries},
	})

	require.Len(t, outcomes, 4)
	for i, out := range outcomes {
		assert.Equal(t, entries[i], out.Entry, "reported order must match declared order")
		assert.Equal(t, domain.ActionCloned, out.Action)
	}
	git.AssertExpectations(t)
}

func TestReconciler_Reconcile_Cancelled(t *testing.T) {
	root := t.TempDir()
	entries := entriesFor("https://example.com/org/repo-a.git", "https://example.com/org/repo-b.git")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	git := new(mockGit) // nothing may be dispatched after cancellation

	reconciler := NewReconciler(git, 2, testLogger())
	outcomes := reconciler.Reconcile(ctx, domain.WorkspaceJob{
		Root:   root,
		Config: domain.WorkspaceConfig{Repositories: entries},
	})

	require.Len(t, outcomes, 2)
	for _, out := range outcomes {
		assert.Equal(t, domain.ActionFailed, out.Action)
		assert.Contains(t, out.Detail, context.Canceled.Error())
	}
	git.AssertExpectations(t)
}

func TestReconciler_ReconcileAll(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	entries := entriesFor("https://example.com/org/repo-a.git")

	git := new(mockGit)
	git.On("Clone", mock.Anything, entries[0].URL, mock.Anything).Return(nil)

	reconciler := NewReconciler(git, 2, testLogger())
	aggregator := NewAggregator()
	reconciler.ReconcileAll(context.Background(), []domain.WorkspaceJob{
		{Root: rootA, Config: domain.WorkspaceConfig{Repositories: entries}},
		{Root: rootB, Err: ErrConfigNotFound},
	}, aggregator)

	sum := aggregator.Finalize()
	assert.Equal(t, 2, sum.Workspaces)
	assert.Equal(t, 1, sum.FailedWorkspaces)
	assert.Equal(t, 1, sum.Cloned)
	assert.False(t, sum.OK())
	git.AssertExpectations(t)
}
