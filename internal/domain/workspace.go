// Package domain contains the core data structures for workspace
// reconciliation.
package domain

import "time"

// RepositoryEntry is one desired repository within a workspace: a
// git-fetchable URL and the directory it is cloned into. Entries are
// created during config parsing and immutable afterwards.
type RepositoryEntry struct {
	URL       string `json:"url"`
	Directory string `json:"directory"`
}

// WorkspaceConfig is the validated, ordered repository set declared by
// one configuration file.
type WorkspaceConfig struct {
	Repositories []RepositoryEntry `json:"repositories"`
}

// WorkspaceJob is one directory needing reconciliation. Jobs produced by
// recursive discovery may carry Err instead of a config when their
// configuration file could not be loaded; such a job fails on its own
// without affecting sibling workspaces.
type WorkspaceJob struct {
	Root   string
	Config WorkspaceConfig
	Err    error
}

// Action classifies what happened to a single repository entry.
type Action string

const (
	ActionCloned  Action = "cloned"
	ActionFetched Action = "fetched"
	ActionSkipped Action = "skipped"
	ActionFailed  Action = "failed"
)

// Outcome is the recorded result of attempting one repository operation.
// It is immutable once published by the reconciler.
type Outcome struct {
	Entry    RepositoryEntry `json:"entry"`
	Action   Action          `json:"action"`
	Detail   string          `json:"detail,omitempty"`
	Duration time.Duration   `json:"duration_ns,omitempty"`
}

// WorkspaceReport groups the outcomes of one workspace, or the error
// that prevented the workspace from being processed at all.
type WorkspaceReport struct {
	Root     string    `json:"workspace"`
	Error    string    `json:"error,omitempty"`
	Outcomes []Outcome `json:"outcomes,omitempty"`
}

// Summary aggregates outcome counts across all processed workspaces.
type Summary struct {
	Workspaces       int               `json:"workspaces"`
	FailedWorkspaces int               `json:"failed_workspaces"`
	Cloned           int               `json:"cloned"`
	Fetched          int               `json:"fetched"`
	Skipped          int               `json:"skipped"`
	Failed           int               `json:"failed"`
	Reports          []WorkspaceReport `json:"reports"`
}

// OK reports whether the whole run succeeded: no failed repository
// operation and no failed workspace. This drives the process exit code.
func (s Summary) OK() bool {
	return s.Failed == 0 && s.FailedWorkspaces == 0
}

// TotalRepositories is the number of repository entries processed.
func (s Summary) TotalRepositories() int {
	return s.Cloned + s.Fetched + s.Skipped + s.Failed
}
