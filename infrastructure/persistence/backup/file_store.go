// Package backup keeps a best-effort JSON copy of each open project on local disk.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"storycanvas/application/ports"
	"storycanvas/domain/core/aggregates"
	pkgerrors "storycanvas/pkg/errors"
)

var _ ports.BackupStore = (*FileStore)(nil)

// FileStore writes <dir>/<projectID>.json. Writes go through a temp file and a
// rename so a crash never leaves a truncated backup.
type FileStore struct {
	dir    string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewFileStore creates the backup directory if needed
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, pkgerrors.NewValidationError("backup directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create backup directory")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// Path returns the backup file for a project
func (s *FileStore) Path(projectID string) string {
	return filepath.Join(s.dir, projectID+".json")
}

// Save writes the project
func (s *FileStore) Save(ctx context.Context, project *aggregates.Project) error {
	if project == nil {
		return pkgerrors.NewValidationError("project is required")
	}
	if err := checkID(project.ID); err != nil {
		return err
	}
	data, err := json.MarshalIndent(project, "", "  ")
	if err != nil {
		return pkgerrors.Wrap(err, "failed to encode backup")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, project.ID+".*.tmp")
	if err != nil {
		return pkgerrors.Wrap(err, "failed to create backup file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return pkgerrors.Wrap(err, "failed to write backup")
	}
	if err := tmp.Close(); err != nil {
		return pkgerrors.Wrap(err, "failed to write backup")
	}
	if err := os.Rename(tmp.Name(), s.Path(project.ID)); err != nil {
		return pkgerrors.Wrap(err, "failed to replace backup")
	}

	s.logger.Debug("Backup written",
		zap.String("project_id", project.ID),
		zap.Int("bytes", len(data)))
	return nil
}

// Load reads a backup. A missing file is a not-found error.
func (s *FileStore) Load(ctx context.Context, projectID string) (*aggregates.Project, error) {
	if err := checkID(projectID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	data, err := os.ReadFile(s.Path(projectID))
	s.mu.Unlock()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, pkgerrors.NewNotFoundError("backup", projectID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read backup")
	}

	var project aggregates.Project
	if err := json.Unmarshal(data, &project); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to decode backup")
	}
	if err := project.Validate(); err != nil {
		return nil, pkgerrors.Wrap(err, "backup is not a valid project")
	}
	return &project, nil
}

func checkID(id string) error {
	if strings.TrimSpace(id) == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return pkgerrors.NewValidationError("invalid project id for backup: " + id)
	}
	return nil
}
