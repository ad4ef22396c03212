package canvas

import (
	"slices"

	"storycanvas/application/projection"
	"storycanvas/domain/core/aggregates"
	"storycanvas/domain/core/entities"
	"storycanvas/domain/core/valueobjects"
	pkgerrors "storycanvas/pkg/errors"
)

// Plot points

// AddPlotPoint creates a plot point in the current act. A nil position asks the
// layout engine for a free spot.
func (s *Store) AddPlotPoint(title string, at *valueobjects.Position) (entities.PlotPoint, error) {
	var created entities.PlotPoint
	err := s.mutate(mutation{animate: true}, func(p *aggregates.Project) error {
		pos := s.allocateLocked(p, at)
		pp, err := entities.NewPlotPoint(title, p.CurrentActID, pos)
		if err != nil {
			return err
		}
		pp.Order = len(p.PlotPointsInAct(p.CurrentActID)) + 1
		if err := p.AddPlotPoint(pp); err != nil {
			return err
		}
		created = pp
		return nil
	})
	if err != nil {
		return entities.PlotPoint{}, err
	}
	// The commit may have moved it off an occupied spot.
	return s.livePlotPoint(created), nil
}

// UpdatePlotPoint replaces title, color, order and act. Scenes and position are kept.
func (s *Store) UpdatePlotPoint(update entities.PlotPoint) error {
	return s.mutate(mutation{animate: true}, func(p *aggregates.Project) error {
		live, ok := p.PlotPoint(update.ID)
		if !ok {
			return pkgerrors.NewNotFoundError("plotPoint", update.ID)
		}
		next := live.Clone()
		next.Title = update.Title
		next.Color = update.Color
		next.Order = update.Order
		if update.ActID != "" {
			next.ActID = update.ActID
		}
		return p.UpdatePlotPoint(next)
	})
}

// MovePlotPoint stores a dragged position
func (s *Store) MovePlotPoint(id string, pos valueobjects.Position) error {
	return s.mutate(mutation{}, func(p *aggregates.Project) error {
		return p.MovePlotPoint(id, pos)
	})
}

// DeletePlotPoint removes a plot point and its scenes after recording an undo snapshot
func (s *Store) DeletePlotPoint(id string) error {
	return s.mutate(mutation{snapshot: true, animate: true}, func(p *aggregates.Project) error {
		_, err := p.RemovePlotPoint(id)
		return err
	})
}

// Scenes

// AddScene appends a scene to a plot point
func (s *Store) AddScene(plotPointID, title string) (entities.Scene, error) {
	var created entities.Scene
	err := s.mutate(mutation{animate: true}, func(p *aggregates.Project) error {
		scene, err := entities.NewScene(title)
		if err != nil {
			return err
		}
		if err := p.AddScene(plotPointID, scene); err != nil {
			return err
		}
		created = scene
		return nil
	})
	return created, err
}

// UpdateScene replaces a scene's fields
func (s *Store) UpdateScene(scene entities.Scene) error {
	return s.mutate(mutation{animate: true}, func(p *aggregates.Project) error {
		return p.UpdateScene(scene.Clone())
	})
}

// DeleteScene removes a scene after recording an undo snapshot
func (s *Store) DeleteScene(id string) error {
	return s.mutate(mutation{snapshot: true, animate: true}, func(p *aggregates.Project) error {
		_, err := p.RemoveScene(id)
		return err
	})
}

// Acts

// AddAct appends an act at the next rank
func (s *Store) AddAct(name string) (entities.Act, error) {
	var created entities.Act
	err := s.mutate(mutation{}, func(p *aggregates.Project) error {
		act, err := entities.NewAct(name, p.NextActOrder())
		if err != nil {
			return err
		}
		if err := p.AddAct(act); err != nil {
			return err
		}
		created = act
		return nil
	})
	return created, err
}

// UpdateAct renames or reorders an act
func (s *Store) UpdateAct(act entities.Act) error {
	return s.mutate(mutation{}, func(p *aggregates.Project) error {
		return p.UpdateAct(act)
	})
}

// DeleteAct removes an act with its plot points after recording an undo snapshot
func (s *Store) DeleteAct(id string) error {
	return s.mutate(mutation{snapshot: true, animate: true}, func(p *aggregates.Project) error {
		_, err := p.RemoveAct(id)
		return err
	})
}

// SetCurrentAct switches the act shown on the canvas
func (s *Store) SetCurrentAct(id string) error {
	return s.mutate(mutation{}, func(p *aggregates.Project) error {
		if p.CurrentActID == id {
			return nil
		}
		if err := p.SetCurrentAct(id); err != nil {
			return err
		}
		s.expandedID = ""
		return nil
	})
}

// Characters

// AddCharacter adds a member to the project cast
func (s *Store) AddCharacter(name string) (entities.Character, error) {
	var created entities.Character
	err := s.mutate(mutation{}, func(p *aggregates.Project) error {
		c, err := entities.NewCharacter(name)
		if err != nil {
			return err
		}
		if err := p.AddCharacter(c); err != nil {
			return err
		}
		created = c
		return nil
	})
	return created, err
}

// UpdateCharacter replaces a character's fields
func (s *Store) UpdateCharacter(c entities.Character) error {
	return s.mutate(mutation{}, func(p *aggregates.Project) error {
		return p.UpdateCharacter(c)
	})
}

// DeleteCharacter removes a character and every scene reference to it
func (s *Store) DeleteCharacter(id string) error {
	return s.mutate(mutation{snapshot: true, animate: true}, func(p *aggregates.Project) error {
		return p.RemoveCharacter(id)
	})
}

// UpdateMetadata replaces title, description, tags and status
func (s *Store) UpdateMetadata(title, description string, tags []string, status aggregates.Status) error {
	return s.mutate(mutation{}, func(p *aggregates.Project) error {
		return p.UpdateMetadata(title, description, tags, status)
	})
}

// Node dispatch

// DeleteNode deletes whatever a rendered node stands for. Detail nodes detach
// their character, setting or item from the scene.
func (s *Store) DeleteNode(nodeID string) error {
	node, ok := s.renderedNode(nodeID)
	if !ok {
		return pkgerrors.NewNotFoundError("node", nodeID)
	}
	if node.Temporary {
		s.DiscardTemp()
		return nil
	}

	switch node.Kind {
	case projection.KindPlotPoint:
		return s.DeletePlotPoint(node.EntityID)
	case projection.KindScene:
		return s.DeleteScene(node.EntityID)
	case projection.KindCharacter, projection.KindSetting, projection.KindItem:
		return s.mutate(mutation{snapshot: true, animate: true}, func(p *aggregates.Project) error {
			scene, _, ok := p.Scene(node.ParentID)
			if !ok {
				return pkgerrors.NewNotFoundError("scene", node.ParentID)
			}
			next := scene.Clone()
			detachDetail(&next, node)
			return p.UpdateScene(next)
		})
	default:
		return pkgerrors.NewValidationError("unknown node kind " + string(node.Kind))
	}
}

func detachDetail(scene *entities.Scene, node projection.Node) {
	switch node.Kind {
	case projection.KindCharacter:
		scene.CharacterIDs = slices.DeleteFunc(scene.CharacterIDs, func(id string) bool { return id == node.EntityID })
	case projection.KindSetting:
		scene.Setting = entities.Setting{}
	case projection.KindItem:
		scene.Items = slices.DeleteFunc(scene.Items, func(it entities.Item) bool { return it.ID == node.EntityID })
	}
}

// MoveNode stores a dragged position for a plot point, a scene or the temp entity.
// Detail nodes are always placed by the layout formula.
func (s *Store) MoveNode(nodeID string, pos valueobjects.Position) error {
	if !pos.IsValid() {
		return pkgerrors.NewValidationError("invalid coordinates: must be finite numbers")
	}
	node, ok := s.renderedNode(nodeID)
	if !ok {
		return pkgerrors.NewNotFoundError("node", nodeID)
	}
	if node.Temporary {
		return s.EditTemp(func(pp *entities.PlotPoint) { pp.Position = pos })
	}

	switch node.Kind {
	case projection.KindPlotPoint:
		return s.MovePlotPoint(node.EntityID, pos)
	case projection.KindScene:
		return s.mutate(mutation{}, func(p *aggregates.Project) error {
			scene, _, ok := p.Scene(node.EntityID)
			if !ok {
				return pkgerrors.NewNotFoundError("scene", node.EntityID)
			}
			at := pos
			scene.Position = &at
			return nil
		})
	default:
		return pkgerrors.NewValidationError(string(node.Kind) + " nodes cannot be moved")
	}
}

// Zoom

// SelectZoomLevel handles the toolbar zoom buttons
func (s *Store) SelectZoomLevel(level valueobjects.ZoomLevel) error {
	return s.transition(func(z ZoomState, _ *aggregates.Project) (ZoomState, error) {
		return z.SelectLevel(level)
	})
}

// NavigateTo focuses a plot point, scene or character found by search, switching
// acts when the element lives in another one
func (s *Store) NavigateTo(entityID string) error {
	err := s.transition(func(z ZoomState, p *aggregates.Project) (ZoomState, error) {
		if pp, ok := p.PlotPoint(entityID); ok {
			p.CurrentActID = pp.ActID
			return z.NavigateTo(projection.KindPlotPoint, entityID)
		}
		if _, owner, ok := p.Scene(entityID); ok {
			p.CurrentActID = owner.ActID
			return z.NavigateTo(projection.KindScene, entityID)
		}
		if p.CharacterIndex(entityID) >= 0 {
			return z.NavigateTo(projection.KindCharacter, entityID)
		}
		return z, pkgerrors.NewNotFoundError("element", entityID)
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if node, ok := s.rendered.Node(entityID); ok {
		s.view.CenterOn(node.Position, true)
	}
	return nil
}

// ResetZoom returns to the overview with no focus
func (s *Store) ResetZoom() error {
	return s.transition(func(z ZoomState, _ *aggregates.Project) (ZoomState, error) {
		return z.Reset(), nil
	})
}

func (s *Store) transition(fn func(ZoomState, *aggregates.Project) (ZoomState, error)) error {
	return s.mutate(mutation{}, func(p *aggregates.Project) error {
		next, err := fn(ZoomState{Level: p.CurrentZoomLevel, FocusedID: p.FocusedElementID}, p)
		if err != nil {
			return err
		}
		return p.SetView(next.Level, next.FocusedID, p.CurrentActID)
	})
}

// Undo

// TakeSnapshot records the current model and expansion state for undo
func (s *Store) TakeSnapshot() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project != nil {
		s.undo.Push(s.project, s.expandedID)
	}
}

// Undo restores the most recent snapshot. The restored graph is applied without
// animation and the reactive path stays suppressed until the settle delay passes.
// It reports false when there is nothing to restore.
func (s *Store) Undo() bool {
	s.mu.Lock()
	if s.project == nil {
		s.mu.Unlock()
		return false
	}
	snap, ok := s.undo.Pop()
	if !ok {
		s.mu.Unlock()
		return false
	}

	s.guarded = true
	s.project = snap.Project
	s.expandedID = snap.ExpandedID
	s.plotPointCount = len(s.project.PlotPoints)
	s.revision++
	s.renderLocked(false)
	s.cancelSettleLocked()
	s.settle = s.sched.AfterFunc(s.cfg.SettleDelay, s.releaseGuard)
	restored, rev, ctx := s.project.Clone(), s.revision, s.ctx
	s.mu.Unlock()

	s.metrics.IncUndo()
	s.logger.Debug("Restored undo snapshot")
	s.publish(ctx, restored, rev, false)
	return true
}

func (s *Store) releaseGuard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guarded = false
	s.settle = nil
	if s.suppressed {
		s.suppressed = false
		s.renderLocked(false)
	}
}

func (s *Store) renderedNode(id string) (projection.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rendered.Node(id)
}

// allocateLocked picks a position for a new plot point. The temp entity counts as occupied.
func (s *Store) allocateLocked(p *aggregates.Project, at *valueobjects.Position) valueobjects.Position {
	if at != nil {
		return *at
	}
	occupied := p.Positions()
	if s.temp != nil {
		occupied = append(occupied, s.temp.Position)
	}
	return s.engine.Allocate(occupied)
}

// livePlotPoint returns the stored copy of pp, following an id the backend has
// since assigned. pp itself is returned when the model no longer holds it.
func (s *Store) livePlotPoint(pp entities.PlotPoint) entities.PlotPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return pp
	}
	id := pp.ID
	if to, ok := s.syncedIDs[id]; ok {
		id = to
	}
	if live, ok := s.project.PlotPoint(id); ok {
		return live.Clone()
	}
	return pp
}
