package valueobjects

import (
	"encoding/json"
	"fmt"
)

// ZoomLevel governs which descendants of a plot point are rendered.
// The wire value is the upper-snake-case name.
type ZoomLevel string

const (
	ZoomStoryOverview  ZoomLevel = "STORY_OVERVIEW"
	ZoomPlotPointFocus ZoomLevel = "PLOT_POINT_FOCUS"
	ZoomSceneDetail    ZoomLevel = "SCENE_DETAIL"
	ZoomCharacterFocus ZoomLevel = "CHARACTER_FOCUS"
)

// ZoomLevels lists the levels from least to most detailed
var ZoomLevels = []ZoomLevel{
	ZoomStoryOverview,
	ZoomPlotPointFocus,
	ZoomSceneDetail,
	ZoomCharacterFocus,
}

// ParseZoomLevel validates a wire value
func ParseZoomLevel(s string) (ZoomLevel, error) {
	for _, z := range ZoomLevels {
		if string(z) == s {
			return z, nil
		}
	}
	return "", fmt.Errorf("unknown zoom level %q", s)
}

// IsValid reports whether z is one of the four members
func (z ZoomLevel) IsValid() bool {
	_, err := ParseZoomLevel(string(z))
	return err == nil
}

// String returns the wire value
func (z ZoomLevel) String() string {
	return string(z)
}

// ShowsScenes reports whether every plot point's scenes are visible at this level
func (z ZoomLevel) ShowsScenes() bool {
	return z != ZoomStoryOverview
}

// ShowsDetails reports whether detail nodes (characters, settings, items) are visible
func (z ZoomLevel) ShowsDetails() bool {
	return z == ZoomSceneDetail
}

// UnmarshalJSON rejects unknown wire values. An empty string decodes to the overview.
func (z *ZoomLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("zoom level must be a string: %w", err)
	}
	if s == "" {
		*z = ZoomStoryOverview
		return nil
	}
	parsed, err := ParseZoomLevel(s)
	if err != nil {
		return err
	}
	*z = parsed
	return nil
}
