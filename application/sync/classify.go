package sync

import (
	"slices"

	"storycanvas/domain/core/aggregates"
	"storycanvas/domain/core/entities"
)

// ChangeKind says how a mutation must be synced
type ChangeKind string

const (
	ChangeNone        ChangeKind = "none"
	ChangeLightweight ChangeKind = "lightweight"
	ChangeContent     ChangeKind = "content"
)

// Classify diffs current against the last successfully saved snapshot.
// A nil baseline means nothing has been saved yet, which is a content change.
func Classify(baseline, current *aggregates.Project) ChangeKind {
	if current == nil {
		return ChangeNone
	}
	if baseline == nil || !contentEqual(baseline, current) {
		return ChangeContent
	}
	if !viewEqual(baseline, current) {
		return ChangeLightweight
	}
	return ChangeNone
}

func contentEqual(a, b *aggregates.Project) bool {
	return a.Title == b.Title &&
		a.Description == b.Description &&
		a.Status == b.Status &&
		slices.Equal(a.Tags, b.Tags) &&
		slices.Equal(a.Acts, b.Acts) &&
		slices.Equal(a.Characters, b.Characters) &&
		slices.EqualFunc(a.PlotPoints, b.PlotPoints, entities.PlotPoint.Equal)
}

func viewEqual(a, b *aggregates.Project) bool {
	return a.CurrentZoomLevel == b.CurrentZoomLevel &&
		a.FocusedElementID == b.FocusedElementID &&
		a.CurrentActID == b.CurrentActID
}
