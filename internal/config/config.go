// Package config loads and validates workspace configuration files.
//
// A configuration is a JSON object with a "repositories" array, where
// each element is either a bare URL string or an object
// {"url": ..., "directory": ...}. Parsing is a pure transformation: it
// either returns a fully validated WorkspaceConfig or an error, never a
// partial result.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mkajiha/git-workspace/internal/domain"
)

// DefaultFileName is the conventional configuration filename looked up
// inside a workspace directory.
const DefaultFileName = "workspace-config.json"

var (
	// ErrMissingRepositories means the "repositories" key is absent,
	// null, not an array, or empty.
	ErrMissingRepositories = errors.New("configuration has no repositories list")

	// ErrInvalidEntry means an entry is neither a URL string nor an
	// object carrying a "url" field.
	ErrInvalidEntry = errors.New("invalid repository entry")

	// ErrInvalidDirectory means a resolved directory name is not a
	// usable filesystem segment.
	ErrInvalidDirectory = errors.New("invalid directory name")

	// ErrDuplicateDirectory means two entries resolve to the same
	// directory within one workspace.
	ErrDuplicateDirectory = errors.New("duplicate directory")
)

// Load reads and parses the configuration file at path.
func Load(path string) (domain.WorkspaceConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.WorkspaceConfig{}, fmt.Errorf("read configuration %s: %w", path, err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return domain.WorkspaceConfig{}, fmt.Errorf("configuration %s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates raw JSON into a WorkspaceConfig.
func Parse(raw []byte) (domain.WorkspaceConfig, error) {
	var top struct {
		Repositories json.RawMessage `json:"repositories"`
	}
	if err := json.Unmarshal(raw, &top); err != nil {
		return domain.WorkspaceConfig{}, fmt.Errorf("parse configuration: %w", err)
	}
	if len(top.Repositories) == 0 || string(top.Repositories) == "null" {
		return domain.WorkspaceConfig{}, ErrMissingRepositories
	}

	var items []json.RawMessage
	if err := json.Unmarshal(top.Repositories, &items); err != nil {
		return domain.WorkspaceConfig{}, fmt.Errorf("%w: repositories is not an array", ErrMissingRepositories)
	}
	if len(items) == 0 {
		return domain.WorkspaceConfig{}, fmt.Errorf("%w: repositories is empty", ErrMissingRepositories)
	}

	entries := make([]domain.RepositoryEntry, 0, len(items))
	seen := make(map[string]int, len(items))
	for i, item := range items {
		entry, err := parseEntry(item)
		if err != nil {
			return domain.WorkspaceConfig{}, fmt.Errorf("repositories[%d]: %w", i, err)
		}
		if err := validateDirectory(entry.Directory); err != nil {
			return domain.WorkspaceConfig{}, fmt.Errorf("repositories[%d]: %w", i, err)
		}
		if prev, dup := seen[entry.Directory]; dup {
			return domain.WorkspaceConfig{}, fmt.Errorf(
				"repositories[%d] and repositories[%d] both resolve to %q: %w",
				prev, i, entry.Directory, ErrDuplicateDirectory)
		}
		seen[entry.Directory] = i
		entries = append(entries, entry)
	}

	return domain.WorkspaceConfig{Repositories: entries}, nil
}

func parseEntry(raw json.RawMessage) (domain.RepositoryEntry, error) {
	var url string
	if err := json.Unmarshal(raw, &url); err == nil {
		if url == "" {
			return domain.RepositoryEntry{}, fmt.Errorf("%w: empty url", ErrInvalidEntry)
		}
		return domain.RepositoryEntry{URL: url, Directory: DirectoryFromURL(url)}, nil
	}

	var obj struct {
		URL       string `json:"url"`
		Directory string `json:"directory"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return domain.RepositoryEntry{}, fmt.Errorf("%w: must be a URL string or an object with a url field", ErrInvalidEntry)
	}
	if obj.URL == "" {
		return domain.RepositoryEntry{}, fmt.Errorf("%w: missing url field", ErrInvalidEntry)
	}
	dir := obj.Directory
	if dir == "" {
		dir = DirectoryFromURL(obj.URL)
	}
	return domain.RepositoryEntry{URL: obj.URL, Directory: dir}, nil
}

// DirectoryFromURL derives the default clone directory from a repository
// URL: the final path segment with a trailing .git stripped. It handles
// both URL-style (https://host/org/repo.git) and scp-style
// (git@host:org/repo.git) addresses.
func DirectoryFromURL(url string) string {
	s := strings.TrimRight(url, "/")
	s = strings.TrimSuffix(s, ".git")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	return s
}

func validateDirectory(dir string) error {
	switch {
	case dir == "", dir == ".", dir == "..":
		return fmt.Errorf("%w: %q", ErrInvalidDirectory, dir)
	case strings.ContainsAny(dir, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidDirectory, dir)
	}
	return nil
}
