package canvas

import (
	"strings"

	"go.uber.org/zap"

	"storycanvas/domain/core/aggregates"
	"storycanvas/domain/core/entities"
	"storycanvas/domain/core/valueobjects"
	pkgerrors "storycanvas/pkg/errors"
)

// Temp returns a copy of the unsaved plot point, if one exists
func (s *Store) Temp() (entities.PlotPoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.temp == nil {
		return entities.PlotPoint{}, false
	}
	return s.temp.Clone(), true
}

// CreateTemp places an unsaved plot point in the current act, selects it and
// opens its property surface. An existing temp entity is discarded first.
func (s *Store) CreateTemp(pos valueobjects.Position) (entities.PlotPoint, error) {
	if !pos.IsValid() {
		return entities.PlotPoint{}, pkgerrors.NewValidationError("invalid coordinates: must be finite numbers")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return entities.PlotPoint{}, errNoProject
	}

	if s.temp != nil && s.expandedID == s.temp.ID {
		s.expandedID = ""
	}
	temp := entities.NewTempPlotPoint(s.project.CurrentActID, pos)
	s.temp = &temp
	s.selectedID = temp.ID
	s.reprojectLocked(true)
	if node, ok := s.rendered.Node(temp.ID); ok {
		s.view.Highlight(node.ID)
		s.view.OpenProperties(node)
	}
	return temp.Clone(), nil
}

// EditTemp edits the unsaved plot point in place. Its id and act cannot change.
func (s *Store) EditTemp(fn func(pp *entities.PlotPoint)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.temp == nil {
		return pkgerrors.NewNotFoundError("plotPoint", "temp")
	}
	next := s.temp.Clone()
	fn(&next)
	if !next.Position.IsValid() {
		return pkgerrors.NewValidationError("invalid coordinates: must be finite numbers")
	}
	next.ID, next.ActID = s.temp.ID, s.temp.ActID
	s.temp = &next
	s.reprojectLocked(true)
	return nil
}

// SaveTemp promotes the unsaved plot point, syncs it without waiting for the
// debounce and closes its property surface
func (s *Store) SaveTemp() (entities.PlotPoint, error) {
	pp, err := s.promote(false)
	if err != nil {
		return entities.PlotPoint{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.CloseProperties()
	return pp, nil
}

// DiscardTemp drops the unsaved plot point
func (s *Store) DiscardTemp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discardTempLocked()
}

// DismissProperties closes the property surface. An unsaved plot point is discarded.
func (s *Store) DismissProperties() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discardTempLocked()
	s.selectedID = ""
	s.view.CloseProperties()
}

func (s *Store) discardTempLocked() {
	if s.temp == nil {
		return
	}
	if s.selectedID == s.temp.ID {
		s.selectedID = ""
	}
	if s.expandedID == s.temp.ID {
		s.expandedID = ""
	}
	s.temp = nil
	s.reprojectLocked(true)
}

// autoPromote runs on the promotion timer
func (s *Store) autoPromote() {
	s.mu.Lock()
	ready := s.temp != nil && strings.TrimSpace(s.temp.Title) != ""
	s.mu.Unlock()
	if !ready {
		return
	}
	if _, err := s.promote(true); err != nil {
		s.logger.Warn("Automatic promotion failed", zap.Error(err))
	}
}

// promote moves the temp entity into the project under a permanent id
func (s *Store) promote(keepSurface bool) (entities.PlotPoint, error) {
	var promoted entities.PlotPoint
	err := s.mutate(mutation{animate: true, immediate: !keepSurface}, func(p *aggregates.Project) error {
		if s.temp == nil {
			return pkgerrors.NewNotFoundError("plotPoint", "temp")
		}
		if strings.TrimSpace(s.temp.Title) == "" {
			return pkgerrors.NewValidationError("plot point title cannot be empty")
		}
		tempID := s.temp.ID
		pp := s.temp.Clone()
		pp.ID = valueobjects.PromoteID(tempID)
		pp.Title = strings.TrimSpace(pp.Title)
		pp.Order = len(p.PlotPointsInAct(pp.ActID)) + 1
		if err := p.AddPlotPoint(pp); err != nil {
			return err
		}

		s.temp = nil
		if s.selectedID == tempID {
			s.selectedID = pp.ID
		}
		if s.expandedID == tempID {
			s.expandedID = pp.ID
		}
		promoted = pp
		return nil
	})
	if err != nil {
		return entities.PlotPoint{}, err
	}

	promoted = s.livePlotPoint(promoted)
	s.metrics.IncPromotion()
	s.logger.Debug("Promoted temporary plot point", zap.String("plot_point_id", promoted.ID))
	if keepSurface {
		s.mu.Lock()
		if s.selectedID == promoted.ID {
			if node, ok := s.rendered.Node(promoted.ID); ok {
				s.view.Highlight(node.ID)
				s.view.OpenProperties(node)
			}
		}
		s.mu.Unlock()
	}
	return promoted, nil
}
