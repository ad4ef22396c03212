// Package handlers maps the project CRUD contract onto HTTP.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storycanvas/application/ports"
	"storycanvas/domain/core/aggregates"
	"storycanvas/pkg/validation"
)

// ProjectService is what the handlers need from the backend service
type ProjectService interface {
	ports.StoryBackend
	ListProjects(ctx context.Context) ([]*aggregates.Project, error)
	DeleteProject(ctx context.Context, projectID string) error
}

// CreateProjectRequest represents the request body for creating a project
type CreateProjectRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

// ProjectSummary is one entry of the project list
type ProjectSummary struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Status       aggregates.Status `json:"status"`
	PlotPoints   int               `json:"plotPoints"`
	LastModified string            `json:"lastModified"`
	Version      int               `json:"version"`
}

// ProjectHandler handles project-level requests
type ProjectHandler struct {
	responder
	service ProjectService
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(service ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		responder: responder{logger: logger, validator: validation.Default()},
		service:   service,
	}
}

// CreateProject handles POST /projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.service.CreateProject(r.Context(), req.Title)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, p)
}

// ListProjects handles GET /projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListProjects(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	out := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		out = append(out, ProjectSummary{
			ID:           p.ID,
			Title:        p.Title,
			Status:       p.Status,
			PlotPoints:   len(p.PlotPoints),
			LastModified: p.LastModified.UTC().Format(time.RFC3339),
			Version:      p.Version,
		})
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"projects": out})
}

// GetProject handles GET /projects/{projectID}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, p)
}

// UpdateProject handles PUT /projects/{projectID}
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var meta ports.ProjectMeta
	if !h.decode(w, r, &meta) {
		return
	}
	if err := h.service.UpdateProject(r.Context(), chi.URLParam(r, "projectID"), meta); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateView handles PATCH /projects/{projectID}/view
func (h *ProjectHandler) UpdateView(w http.ResponseWriter, r *http.Request) {
	var view ports.ProjectView
	if !h.decode(w, r, &view) {
		return
	}
	if err := h.service.UpdateProjectView(r.Context(), chi.URLParam(r, "projectID"), view); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteProject handles DELETE /projects/{projectID}
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProject(r.Context(), chi.URLParam(r, "projectID")); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
