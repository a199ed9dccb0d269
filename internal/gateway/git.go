// Package gateway provides access to the external git executable,
// abstracted behind a capability interface so the reconciliation logic
// can be tested without real repositories or network access.
package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Git defines the repository operations the reconciler consumes. Both
// calls block until the underlying git process exits; the caller only
// sees success or failure plus captured diagnostics.
type Git interface {
	Clone(ctx context.Context, url, dest string) error
	Fetch(ctx context.Context, repoPath string) error
}

// ExecError reports a git invocation that ran but exited non-zero.
type ExecError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("git %s: exit status %d", strings.Join(e.Args, " "), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// CLIGit runs a git-compatible executable found on PATH.
type CLIGit struct {
	timeout time.Duration
	logger  *log.Logger
}

// NewCLIGit creates a CLIGit. Each operation is bounded by timeout;
// zero means no per-operation limit beyond the caller's context.
func NewCLIGit(timeout time.Duration, logger *log.Logger) *CLIGit {
	return &CLIGit{timeout: timeout, logger: logger}
}

func (g *CLIGit) Clone(ctx context.Context, url, dest string) error {
	return g.run(ctx, "", "clone", url, dest)
}

func (g *CLIGit) Fetch(ctx context.Context, repoPath string) error {
	return g.run(ctx, repoPath, "fetch", "--all", "--prune")
}

// Pull fast-forwards the work tree at repoPath. Used to refresh the
// cached configuration repository during sync; the reconciler itself
// never pulls.
func (g *CLIGit) Pull(ctx context.Context, repoPath string) error {
	return g.run(ctx, repoPath, "pull", "--ff-only")
}

func (g *CLIGit) run(ctx context.Context, dir string, args ...string) error {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	g.logger.Printf("Gateway: git %s", strings.Join(args, " "))
	err := cmd.Run()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("git %s: %w", strings.Join(args, " "), ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExecError{Args: args, ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
	}
	// Typically the git binary itself is missing.
	return fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
}

// IsRepo reports whether dir carries a git marker. Worktrees and
// submodules use a .git file rather than a directory; both count.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}
