package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"storycanvas/application/ports"
	"storycanvas/domain/core/aggregates"
	pkgerrors "storycanvas/pkg/errors"
)

// ProjectRepository keeps projects in process memory. Stored values are copies,
// so callers can never mutate repository state through a returned project.
type ProjectRepository struct {
	mu       sync.RWMutex
	projects map[string]*aggregates.Project
}

var _ ports.ProjectRepository = (*ProjectRepository)(nil)

// NewProjectRepository creates an empty repository
func NewProjectRepository() *ProjectRepository {
	return &ProjectRepository{projects: make(map[string]*aggregates.Project)}
}

// Create stores a new project
func (r *ProjectRepository) Create(ctx context.Context, project *aggregates.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.projects[project.ID]; exists {
		return pkgerrors.NewConflictError("project " + project.ID + " already exists")
	}
	r.projects[project.ID] = project.Clone()
	return nil
}

// GetByID retrieves a project by its ID
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*aggregates.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("project", id)
	}
	return p.Clone(), nil
}

// Save replaces a stored project after an optimistic version check
func (r *ProjectRepository) Save(ctx context.Context, project *aggregates.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.projects[project.ID]
	if !ok {
		return pkgerrors.NewNotFoundError("project", project.ID)
	}
	if stored.Version != project.Version-1 {
		return pkgerrors.NewConflictError("project " + project.ID + " was modified concurrently (stored version " +
			strconv.Itoa(stored.Version) + ")")
	}
	r.projects[project.ID] = project.Clone()
	return nil
}

// Delete removes a project
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[id]; !ok {
		return pkgerrors.NewNotFoundError("project", id)
	}
	delete(r.projects, id)
	return nil
}

// List returns every project ordered by title
func (r *ProjectRepository) List(ctx context.Context) ([]*aggregates.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*aggregates.Project, 0, len(r.projects))
	for _, p := range r.projects {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title == out[j].Title {
			return out[i].ID < out[j].ID
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}
