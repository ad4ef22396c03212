package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"storycanvas/application/ports"
	"storycanvas/domain/core/aggregates"
	"storycanvas/domain/core/entities"
	"storycanvas/domain/core/valueobjects"
	"storycanvas/domain/events"
	pkgerrors "storycanvas/pkg/errors"
	"storycanvas/pkg/validation"
)

// ProjectService is the backend side of the persisted CRUD contract. It assigns
// ids on create, enforces the aggregate invariants and publishes a domain event
// for every successful mutation.
type ProjectService struct {
	repo      ports.ProjectRepository
	publisher ports.EventPublisher
	validator *validation.Validator
	logger    *zap.Logger
	now       func() time.Time
}

var _ ports.StoryBackend = (*ProjectService)(nil)

// NewProjectService creates a new project service
func NewProjectService(
	repo ports.ProjectRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{
		repo:      repo,
		publisher: publisher,
		validator: validation.Default(),
		logger:    logger,
		now:       time.Now,
	}
}

// CreateProject creates and stores a new project with its default act
func (s *ProjectService) CreateProject(ctx context.Context, title string) (*aggregates.Project, error) {
	p, err := aggregates.NewProject(title)
	if err != nil {
		return nil, err
	}
	p.Touch(s.now())
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("project created", zap.String("project_id", p.ID), zap.String("title", p.Title))
	s.publish(ctx, events.NewProjectCreated(p.ID, p.Title, p.Version, p.LastModified))
	return p, nil
}

// GetProject returns the canonical project
func (s *ProjectService) GetProject(ctx context.Context, projectID string) (*aggregates.Project, error) {
	return s.repo.GetByID(ctx, projectID)
}

// ListProjects returns every stored project
func (s *ProjectService) ListProjects(ctx context.Context) ([]*aggregates.Project, error) {
	return s.repo.List(ctx)
}

// DeleteProject removes a project with everything it owns
func (s *ProjectService) DeleteProject(ctx context.Context, projectID string) error {
	if err := s.repo.Delete(ctx, projectID); err != nil {
		return err
	}
	s.logger.Info("project deleted", zap.String("project_id", projectID))
	return nil
}

// UpdateProject replaces title, description, tags and status
func (s *ProjectService) UpdateProject(ctx context.Context, projectID string, meta ports.ProjectMeta) error {
	if err := s.validator.Struct(meta); err != nil {
		return err
	}
	return s.mutate(ctx, projectID, func(p *aggregates.Project, version int, at time.Time) (events.DomainEvent, error) {
		if err := p.UpdateMetadata(meta.Title, meta.Description, meta.Tags, meta.Status); err != nil {
			return nil, err
		}
		return events.NewProjectUpdated(p.ID, p.Title, string(p.Status), version, at), nil
	})
}

// UpdateProjectView stores zoom level, focus and current act
func (s *ProjectService) UpdateProjectView(ctx context.Context, projectID string, view ports.ProjectView) error {
	if err := s.validator.Struct(view); err != nil {
		return err
	}
	return s.mutate(ctx, projectID, func(p *aggregates.Project, version int, at time.Time) (events.DomainEvent, error) {
		if err := p.SetView(view.CurrentZoomLevel, view.FocusedElementID, view.CurrentActID); err != nil {
			return nil, err
		}
		return events.NewProjectViewChanged(p.ID, string(view.CurrentZoomLevel), view.FocusedElementID, view.CurrentActID, version, at), nil
	})
}

// Acts

func (s *ProjectService) CreateAct(ctx context.Context, projectID string, act entities.Act) (entities.Act, error) {
	act.ID = valueobjects.NewID()
	err := s.mutate(ctx, projectID, func(p *aggregates.Project, version int, at time.Time) (events.DomainEvent, error) {
		if err := p.AddAct(act); err != nil {
			return nil, err
		}
		act = p.Acts[len(p.Acts)-1]
		return entityEvent(events.TypeEntityCreated, p.ID, events.KindAct, act.ID, "", version, at), nil
	})
	return act, err
}

func (s *ProjectService) UpdateAct(ctx context.Context, projectID string, act entities.Act) error {
	return s.mutate(ctx, projectID, func(p *aggregates.Project, version int, at time.Time) (events.DomainEvent, error) {
		if err := p.UpdateAct(act); err != nil {
			return nil, err
		}
		return entityEvent(events.TypeEntityUpdated, p.ID, events.KindAct, act.ID, "", version, at), nil
	})
}

func (s *ProjectService) DeleteAct(ctx context.Context, projectID, actID string) error {
	return s.mutate(ctx, projectID, func(p *aggregates.Project, version int, at time.Time) (events.DomainEvent, error) {
		removed, err := p.RemoveAct(actID)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("act deleted", zap.String("act_id", actID), zap.Int("cascaded_plot_points", len(removed)))
		return entityEvent(events.TypeEntityDeleted, p.ID, events.KindAct, actID, "", version, at), nil
	})
}

// Characters

func (s *ProjectService) CreateCharacter(ctx context.Context, projectID string, c entities.Character) (entities.Character, error) {
	c.ID = valueobjects.NewID()
	err := s.mutate(ctx, projectID, func(p *aggregates.Project, version int, at time.Time) (events.DomainEvent, error) {
		if err := p.AddCharacter(c); err != nil {
			return nil, err
		}
		return entityEvent(events.TypeEntityCreated, p.ID, events.KindCharacter, c.ID, "", version, at), nil
	})
	return c, err
}

func (s *ProjectService) UpdateCharacter(ctx context.Context, projectID string, c entities.Character) error {
	return s.mutate(ctx, projectID, func(p *aggregates.Project, version int, at time.Time) (events.DomainEvent, error) {
		if strings.TrimSpace(c.Name) == "" {
			return nil, pkgerrors.NewValidationError("character name cannot be empty")
		}
		if err := p.UpdateCharacter(c); err != nil {
			return nil, err
		}
		return entityEvent(events.TypeEntityUpdated, p.ID, events.KindCharacter, c.ID, "", version, at), nil
	})
}

func (s *ProjectService) DeleteCharacter(ctx context.Context, projectID, characterID string) error {
	return s.mutate(ctx, projectID, func(p *aggregates.Project, version int, at time.Time) (events.DomainEvent, error) {
		if err := p.RemoveCharacter(characterID); err != nil {
			return nil, err
		}
		return entityEvent(events.TypeEntityDeleted, p.ID, events.KindCharacter, characterID, "", version, at), nil
	})
}

// Plot points

// CreatePlotPoint stores a plot point under actID with a fresh id. Scenes in the
// request are ignored.
func (s *ProjectService) CreatePlotPoint(ctx context.Context, projectID, actID string, pp entities.PlotPoint) (entities.PlotPoint, error) {
	pp.ID = valueobjects.NewID()
	pp.ActID = actID
	pp.Scenes = []entities.Scene{}
	if pp.Color == "" {
		pp.Color = entities.DefaultPlotPointColor
	}
	err := s.mutate(ctx, projectID, func(p *aggregates.Project, version int, at time.Time) (events.DomainEvent, error) {
		if err := p.AddPlotPoint(pp); err != nil {
			return nil, err
		}
		return entityEvent(events.TypeEntityCreated, p.ID, events.KindPlotPoint, pp.ID, actID, version, at), nil
	})
	return pp, err
}

// UpdatePlotPoint replaces a plot point's own fields and keeps its stored scenes.
// actID may differ from the stored one, which moves the plot point.
func (s *ProjectService) UpdatePlotPoint(ctx context.Context, projectID, actID string, pp entities.PlotPoint) error {
	return s.mutate(ctx, projectID, func(p *aggregates.Project, version int, at time.Time) (events.DomainEvent, error) {
		existing, ok := p.PlotPoint(pp.ID)
		if !ok {
			return nil, pkgerrors.NewNotFoundError("plotPoint", pp.ID)
		}
		pp.ActID = actID
		pp.Scenes = existing.Clone().Scenes
		if err := p.UpdatePlotPoint(pp); err != nil {
			return nil, err
		}
		return entityEvent(events.TypeEntityUpdated, p.ID, events.KindPlotPoint, pp.ID, actID, version, at), nil
	})
}

func (s *ProjectService) DeletePlotPoint(ctx context.Context, projectID, actID, plotPointID string) error {
	return s.mutate(ctx, projectID, func(p *aggregates.Project, version int, at time.Time) (events.DomainEvent, error) {
		if _, err := plotPointInAct(p, actID, plotPointID); err != nil {
			return nil, err
		}
		if _, err := p.RemovePlotPoint(plotPointID); err != nil {
			return nil, err
		}
		return entityEvent(events.TypeEntityDeleted, p.ID, events.KindPlotPoint, plotPointID, actID, version, at), nil
	})
}

// Scenes

func (s *ProjectService) CreateScene(ctx context.Context, projectID, actID, plotPointID string, scene entities.Scene) (entities.Scene, error) {
	scene.ID = valueobjects.NewID()
	err := s.mutate(ctx, projectID, func(p *aggregates.Project, version int, at time.Time) (events.DomainEvent, error) {
		if _, err := plotPointInAct(p, actID, plotPointID); err != nil {
			return nil, err
		}
		if strings.TrimSpace(scene.Title) == "" {
			return nil, pkgerrors.NewValidationError("scene title cannot be empty")
		}
		if err := p.AddScene(plotPointID, scene); err != nil {
			return nil, err
		}
		stored, _, _ := p.Scene(scene.ID)
		scene = stored.Clone()
		return entityEvent(events.TypeEntityCreated, p.ID, events.KindScene, scene.ID, plotPointID, version, at), nil
	})
	return scene, err
}

func (s *ProjectService) UpdateScene(ctx context.Context, projectID, actID, plotPointID string, scene entities.Scene) error {
	return s.mutate(ctx, projectID, func(p *aggregates.Project, version int, at time.Time) (events.DomainEvent, error) {
		if err := sceneInPlotPoint(p, actID, plotPointID, scene.ID); err != nil {
			return nil, err
		}
		if err := p.UpdateScene(scene); err != nil {
			return nil, err
		}
		return entityEvent(events.TypeEntityUpdated, p.ID, events.KindScene, scene.ID, plotPointID, version, at), nil
	})
}

func (s *ProjectService) DeleteScene(ctx context.Context, projectID, actID, plotPointID, sceneID string) error {
	return s.mutate(ctx, projectID, func(p *aggregates.Project, version int, at time.Time) (events.DomainEvent, error) {
		if err := sceneInPlotPoint(p, actID, plotPointID, sceneID); err != nil {
			return nil, err
		}
		if _, err := p.RemoveScene(sceneID); err != nil {
			return nil, err
		}
		return entityEvent(events.TypeEntityDeleted, p.ID, events.KindScene, sceneID, plotPointID, version, at), nil
	})
}

// mutate loads the project, applies fn, bumps the version and saves. The event
// returned by fn is published only after the save succeeded.
func (s *ProjectService) mutate(
	ctx context.Context,
	projectID string,
	fn func(p *aggregates.Project, version int, at time.Time) (events.DomainEvent, error),
) error {
	p, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return err
	}

	at := s.now().UTC()
	event, err := fn(p, p.Version+1, at)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}

	p.Version++
	p.Touch(at)
	if err := s.repo.Save(ctx, p); err != nil {
		s.logger.Error("failed to save project", zap.String("project_id", projectID), zap.Error(err))
		return err
	}

	s.publish(ctx, event)
	return nil
}

func (s *ProjectService) publish(ctx context.Context, event events.DomainEvent) {
	if s.publisher == nil || event == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		// Events are notifications; the mutation already committed.
		s.logger.Warn("failed to publish event",
			zap.String("event_type", event.GetEventType()),
			zap.String("aggregate_id", event.GetAggregateID()),
			zap.Error(err))
	}
}

func entityEvent(eventType, projectID, kind, entityID, parentID string, version int, at time.Time) events.DomainEvent {
	return events.NewEntityChanged(eventType, projectID, kind, entityID, parentID, version, at)
}

func plotPointInAct(p *aggregates.Project, actID, plotPointID string) (*entities.PlotPoint, error) {
	pp, ok := p.PlotPoint(plotPointID)
	if !ok || pp.ActID != actID {
		return nil, pkgerrors.NewNotFoundError("plotPoint", plotPointID)
	}
	return pp, nil
}

func sceneInPlotPoint(p *aggregates.Project, actID, plotPointID, sceneID string) error {
	if _, err := plotPointInAct(p, actID, plotPointID); err != nil {
		return err
	}
	_, owner, ok := p.Scene(sceneID)
	if !ok || owner.ID != plotPointID {
		return pkgerrors.NewNotFoundError("scene", sceneID)
	}
	return nil
}
