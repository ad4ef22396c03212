package ports

import (
	"context"

	"storycanvas/domain/core/aggregates"
	"storycanvas/domain/core/entities"
	"storycanvas/domain/core/valueobjects"
	"storycanvas/domain/events"
)

// ProjectMeta is the descriptive part of a project updated by a content sync
type ProjectMeta struct {
	Title       string            `json:"title" validate:"required,max=200"`
	Description string            `json:"description" validate:"max=5000"`
	Tags        []string          `json:"tags" validate:"max=50,dive,max=64"`
	Status      aggregates.Status `json:"status" validate:"omitempty,oneof=draft writing complete archived"`
}

// ProjectView is the lightweight UI-positioning part of a project
type ProjectView struct {
	CurrentZoomLevel valueobjects.ZoomLevel `json:"currentZoomLevel" validate:"required,zoomlevel"`
	FocusedElementID string                 `json:"focusedElementId,omitempty"`
	CurrentActID     string                 `json:"currentActId" validate:"required"`
}

// MetaOf extracts the metadata of a project
func MetaOf(p *aggregates.Project) ProjectMeta {
	return ProjectMeta{Title: p.Title, Description: p.Description, Tags: p.Tags, Status: p.Status}
}

// ViewOf extracts the view fields of a project
func ViewOf(p *aggregates.Project) ProjectView {
	return ProjectView{CurrentZoomLevel: p.CurrentZoomLevel, FocusedElementID: p.FocusedElementID, CurrentActID: p.CurrentActID}
}

// StoryBackend is the persisted CRUD contract the sync pipeline talks to.
// Create calls return the entity as stored, carrying the backend-assigned id.
// Update calls for unknown ids fail with a not-found error.
type StoryBackend interface {
	CreateProject(ctx context.Context, title string) (*aggregates.Project, error)
	GetProject(ctx context.Context, projectID string) (*aggregates.Project, error)
	UpdateProject(ctx context.Context, projectID string, meta ProjectMeta) error
	UpdateProjectView(ctx context.Context, projectID string, view ProjectView) error

	CreateAct(ctx context.Context, projectID string, act entities.Act) (entities.Act, error)
	UpdateAct(ctx context.Context, projectID string, act entities.Act) error
	DeleteAct(ctx context.Context, projectID, actID string) error

	CreateCharacter(ctx context.Context, projectID string, c entities.Character) (entities.Character, error)
	UpdateCharacter(ctx context.Context, projectID string, c entities.Character) error
	DeleteCharacter(ctx context.Context, projectID, characterID string) error

	// Plot point calls never touch scenes; scenes have their own calls.
	CreatePlotPoint(ctx context.Context, projectID, actID string, pp entities.PlotPoint) (entities.PlotPoint, error)
	UpdatePlotPoint(ctx context.Context, projectID, actID string, pp entities.PlotPoint) error
	DeletePlotPoint(ctx context.Context, projectID, actID, plotPointID string) error

	CreateScene(ctx context.Context, projectID, actID, plotPointID string, s entities.Scene) (entities.Scene, error)
	UpdateScene(ctx context.Context, projectID, actID, plotPointID string, s entities.Scene) error
	DeleteScene(ctx context.Context, projectID, actID, plotPointID, sceneID string) error
}

// ProjectRepository defines the interface for project persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type ProjectRepository interface {
	// Create stores a new project; an existing id is a conflict
	Create(ctx context.Context, project *aggregates.Project) error

	// GetByID retrieves a project by its ID
	GetByID(ctx context.Context, id string) (*aggregates.Project, error)

	// Save persists an existing project. The stored version must equal
	// project.Version-1, otherwise a conflict is returned.
	Save(ctx context.Context, project *aggregates.Project) error

	// Delete removes a project
	Delete(ctx context.Context, id string) error

	// List returns every stored project
	List(ctx context.Context) ([]*aggregates.Project, error)
}

// BackupStore keeps a best-effort local copy of a project
type BackupStore interface {
	Save(ctx context.Context, project *aggregates.Project) error
	Load(ctx context.Context, projectID string) (*aggregates.Project, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(ctx context.Context, domainEvents ...events.DomainEvent) error
}
