package canvas

import (
	"errors"
	"fmt"

	"storycanvas/application/projection"
	"storycanvas/domain/core/valueobjects"
)

// ErrInvalidTransition is returned for user actions the zoom state machine does not accept
var ErrInvalidTransition = errors.New("invalid zoom transition")

// ZoomState is the zoom level together with the focused element.
// Transitions are values: a failed transition leaves the receiver untouched.
type ZoomState struct {
	Level     valueobjects.ZoomLevel
	FocusedID string
}

// InitialZoom is the state after load and after unmount
func InitialZoom() ZoomState {
	return ZoomState{Level: valueobjects.ZoomStoryOverview}
}

// DoubleClickPlotPoint focuses a plot point from the overview
func (z ZoomState) DoubleClickPlotPoint(plotPointID string) (ZoomState, error) {
	if z.Level != valueobjects.ZoomStoryOverview {
		return z, fmt.Errorf("%w: double-click on plot point at %s", ErrInvalidTransition, z.Level)
	}
	return ZoomState{Level: valueobjects.ZoomPlotPointFocus, FocusedID: plotPointID}, nil
}

// DoubleClickScene opens scene detail from plot-point focus
func (z ZoomState) DoubleClickScene(sceneID string) (ZoomState, error) {
	if z.Level != valueobjects.ZoomPlotPointFocus {
		return z, fmt.Errorf("%w: double-click on scene at %s", ErrInvalidTransition, z.Level)
	}
	return ZoomState{Level: valueobjects.ZoomSceneDetail, FocusedID: sceneID}, nil
}

// SelectLevel handles the toolbar buttons. The overview is always reachable and clears focus.
func (z ZoomState) SelectLevel(level valueobjects.ZoomLevel) (ZoomState, error) {
	if !level.IsValid() {
		return z, fmt.Errorf("%w: unknown level %q", ErrInvalidTransition, string(level))
	}
	if level == valueobjects.ZoomStoryOverview {
		return InitialZoom(), nil
	}
	return ZoomState{Level: level, FocusedID: z.FocusedID}, nil
}

// NavigateTo handles navigation from search results
func (z ZoomState) NavigateTo(kind projection.Kind, id string) (ZoomState, error) {
	switch kind {
	case projection.KindPlotPoint:
		return ZoomState{Level: valueobjects.ZoomPlotPointFocus, FocusedID: id}, nil
	case projection.KindScene:
		return ZoomState{Level: valueobjects.ZoomSceneDetail, FocusedID: id}, nil
	case projection.KindCharacter:
		return ZoomState{Level: valueobjects.ZoomCharacterFocus, FocusedID: id}, nil
	case projection.KindSetting, projection.KindItem:
		return z, fmt.Errorf("%w: cannot navigate to a %s", ErrInvalidTransition, kind)
	default:
		return z, fmt.Errorf("%w: unknown kind %q", ErrInvalidTransition, string(kind))
	}
}

// Reset returns to the overview with no focus
func (z ZoomState) Reset() ZoomState {
	return InitialZoom()
}
