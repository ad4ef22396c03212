package canvas

import (
	"fmt"

	"storycanvas/application/projection"
	"storycanvas/domain/core/aggregates"
	"storycanvas/domain/core/valueobjects"
	pkgerrors "storycanvas/pkg/errors"
)

// PointerKind distinguishes pointer gestures
type PointerKind int

const (
	Click PointerKind = iota
	DoubleClick
	ContextClick
)

func (k PointerKind) String() string {
	switch k {
	case Click:
		return "click"
	case DoubleClick:
		return "double-click"
	case ContextClick:
		return "context-click"
	}
	return fmt.Sprintf("PointerKind(%d)", int(k))
}

// PointerEvent is a gesture on the canvas. An empty NodeID means the empty canvas;
// Canvas is the gesture location in canvas coordinates.
type PointerEvent struct {
	Kind    PointerKind
	NodeID  string
	Canvas  valueobjects.Position
	ScreenX float64
	ScreenY float64
}

// HandlePointer dispatches a pointer gesture
func (s *Store) HandlePointer(ev PointerEvent) error {
	if ev.NodeID == "" {
		return s.canvasGesture(ev)
	}
	node, ok := s.renderedNode(ev.NodeID)
	if !ok {
		return pkgerrors.NewNotFoundError("node", ev.NodeID)
	}

	switch ev.Kind {
	case Click:
		return s.selectNode(node)
	case DoubleClick:
		return s.doubleClick(node)
	case ContextClick:
		s.mu.Lock()
		defer s.mu.Unlock()
		s.view.OpenContextMenu(node, ev.ScreenX, ev.ScreenY)
		return nil
	default:
		return pkgerrors.NewValidationError("unknown pointer gesture " + ev.Kind.String())
	}
}

// selectNode highlights, centers and opens the property surface. Clicking a plot
// point also toggles its expansion.
func (s *Store) selectNode(node projection.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return errNoProject
	}
	if s.temp != nil && node.ID != s.temp.ID {
		s.discardTempLocked()
	}

	s.selectedID = node.ID
	if node.Kind == projection.KindPlotPoint {
		if s.expandedID == node.EntityID {
			s.expandedID = ""
		} else {
			s.expandedID = node.EntityID
		}
		s.reprojectLocked(true)
		if fresh, ok := s.rendered.Node(node.ID); ok {
			node = fresh
		}
	}

	s.view.Highlight(node.ID)
	s.view.CenterOn(node.Position, true)
	s.view.OpenProperties(node)
	return nil
}

func (s *Store) doubleClick(node projection.Node) error {
	if node.Temporary {
		return fmt.Errorf("%w: unsaved plot points cannot be focused", ErrInvalidTransition)
	}
	return s.transition(func(z ZoomState, _ *aggregates.Project) (ZoomState, error) {
		switch node.Kind {
		case projection.KindPlotPoint:
			return z.DoubleClickPlotPoint(node.EntityID)
		case projection.KindScene:
			return z.DoubleClickScene(node.EntityID)
		default:
			return z, fmt.Errorf("%w: double-click on %s", ErrInvalidTransition, node.Kind)
		}
	})
}

// canvasGesture handles gestures with no node under the pointer
func (s *Store) canvasGesture(ev PointerEvent) error {
	if ev.Kind != Click {
		return nil
	}
	s.mu.Lock()
	if s.project == nil {
		s.mu.Unlock()
		return errNoProject
	}
	overview := s.project.CurrentZoomLevel == valueobjects.ZoomStoryOverview
	if !overview {
		s.discardTempLocked()
		s.selectedID = ""
		s.view.CloseProperties()
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	_, err := s.CreateTemp(ev.Canvas)
	return err
}
