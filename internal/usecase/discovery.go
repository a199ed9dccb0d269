package usecase

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/mkajiha/git-workspace/internal/config"
	"github.com/mkajiha/git-workspace/internal/domain"
)

// ErrConfigNotFound means no workspace configuration exists where one
// was expected.
var ErrConfigNotFound = errors.New("workspace configuration not found")

// Discovery locates workspace configuration files and turns them into
// reconciliation jobs.
type Discovery struct {
	configName string
	logger     *log.Logger
}

// NewDiscovery creates a Discovery looking for configName. The value
// may be an explicit file path (honored by Single) or a bare filename
// resolved per directory.
func NewDiscovery(configName string, logger *log.Logger) *Discovery {
	if configName == "" {
		configName = config.DefaultFileName
	}
	return &Discovery{configName: configName, logger: logger}
}

// Single builds the job for exactly one workspace rooted at root. The
// configured name is first tried as a path in its own right, then
// resolved relative to root. A missing file yields ErrConfigNotFound;
// an invalid config aborts with its parse error.
func (d *Discovery) Single(root string) (domain.WorkspaceJob, error) {
	cfgPath := d.configName
	if _, err := os.Stat(cfgPath); err != nil {
		cfgPath = filepath.Join(root, d.configName)
	}
	if _, err := os.Stat(cfgPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.WorkspaceJob{}, fmt.Errorf("%w: %s", ErrConfigNotFound, cfgPath)
		}
		return domain.WorkspaceJob{}, err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return domain.WorkspaceJob{}, err
	}
	d.logger.Printf("Discovery: %s with %d repositories", cfgPath, len(cfg.Repositories))
	return domain.WorkspaceJob{Root: root, Config: cfg}, nil
}

// Walk finds every workspace beneath root, in lexicographic path order.
// Directories that are clone destinations of an already discovered
// workspace are never descended into, so configuration files inside
// cloned repository contents do not become jobs of their own. A
// workspace whose config fails to load becomes a job carrying the
// error, fatal for that workspace only.
func (d *Discovery) Walk(root string) ([]domain.WorkspaceJob, error) {
	name := filepath.Base(d.configName)
	var jobs []domain.WorkspaceJob
	noDescend := make(map[string]bool)

	err := filepath.WalkDir(root, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !de.IsDir() {
			return nil
		}
		if de.Name() == ".git" || noDescend[path] {
			return filepath.SkipDir
		}

		cfgPath := filepath.Join(path, name)
		if _, statErr := os.Stat(cfgPath); statErr != nil {
			return nil
		}

		job := domain.WorkspaceJob{Root: path}
		cfg, loadErr := config.Load(cfgPath)
		if loadErr != nil {
			job.Err = loadErr
		} else {
			job.Config = cfg
			for _, entry := range cfg.Repositories {
				noDescend[filepath.Join(path, entry.Directory)] = true
			}
		}
		jobs = append(jobs, job)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("%w: no %s beneath %s", ErrConfigNotFound, name, root)
	}

	d.logger.Printf("Discovery: found %d workspaces beneath %s", len(jobs), root)
	return jobs, nil
}
