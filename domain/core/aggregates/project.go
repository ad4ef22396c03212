package aggregates

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"storycanvas/domain/core/entities"
	"storycanvas/domain/core/valueobjects"
	pkgerrors "storycanvas/pkg/errors"
)

// Status is the writing status of a project
type Status string

const (
	StatusDraft    Status = "draft"
	StatusWriting  Status = "writing"
	StatusComplete Status = "complete"
	StatusArchived Status = "archived"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusWriting, StatusComplete, StatusArchived:
		return true
	}
	return false
}

// DefaultActName is the name of the act every new project starts with
const DefaultActName = "Act 1"

// Project is the root aggregate. It is shared by value: callers that keep a
// copy across mutations must Clone it.
type Project struct {
	ID               string                 `json:"id" dynamodbav:"id"`
	Title            string                 `json:"title" dynamodbav:"title"`
	Description      string                 `json:"description" dynamodbav:"description"`
	Tags             []string               `json:"tags" dynamodbav:"tags"`
	Status           Status                 `json:"status" dynamodbav:"status"`
	Acts             []entities.Act         `json:"acts" dynamodbav:"acts"`
	CurrentActID     string                 `json:"currentActId" dynamodbav:"currentActId"`
	Characters       []entities.Character   `json:"characters" dynamodbav:"characters"`
	PlotPoints       []entities.PlotPoint   `json:"plotPoints" dynamodbav:"plotPoints"`
	CurrentZoomLevel valueobjects.ZoomLevel `json:"currentZoomLevel" dynamodbav:"currentZoomLevel"`
	FocusedElementID string                 `json:"focusedElementId,omitempty" dynamodbav:"focusedElementId,omitempty"`
	LastModified     time.Time              `json:"lastModified" dynamodbav:"lastModified"`
	Version          int                    `json:"version" dynamodbav:"version"`
}

// NewProject creates a project with a single default act selected
func NewProject(title string) (*Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, pkgerrors.NewValidationError("project title cannot be empty")
	}

	act, err := entities.NewAct(DefaultActName, 1)
	if err != nil {
		return nil, err
	}

	return &Project{
		ID:               valueobjects.NewID(),
		Title:            title,
		Tags:             []string{},
		Status:           StatusDraft,
		Acts:             []entities.Act{act},
		CurrentActID:     act.ID,
		Characters:       []entities.Character{},
		PlotPoints:       []entities.PlotPoint{},
		CurrentZoomLevel: valueobjects.ZoomStoryOverview,
		LastModified:     time.Now().UTC(),
		Version:          1,
	}, nil
}

// Validate checks the aggregate invariants
func (p *Project) Validate() error {
	if len(p.Acts) == 0 {
		return pkgerrors.NewInvariantError("project must have at least one act")
	}
	if p.ActIndex(p.CurrentActID) < 0 {
		return pkgerrors.NewInvariantError("current act must reference an existing act")
	}
	if p.Status != "" && !p.Status.IsValid() {
		return pkgerrors.NewValidationError("unknown project status " + string(p.Status))
	}
	if p.CurrentZoomLevel != "" && !p.CurrentZoomLevel.IsValid() {
		return pkgerrors.NewValidationError("unknown zoom level " + string(p.CurrentZoomLevel))
	}
	for _, pp := range p.PlotPoints {
		if pp.IsTemporary() {
			return pkgerrors.NewInvariantError("plot point " + pp.ID + " has not been promoted")
		}
		if p.ActIndex(pp.ActID) < 0 {
			return pkgerrors.NewInvariantError("plot point " + pp.ID + " references unknown act " + pp.ActID)
		}
	}
	return nil
}

// Clone returns a deep copy. Snapshots taken with Clone never alias live state.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	out := *p
	out.Tags = slices.Clone(p.Tags)
	out.Acts = slices.Clone(p.Acts)
	out.Characters = slices.Clone(p.Characters)
	out.PlotPoints = make([]entities.PlotPoint, len(p.PlotPoints))
	for i, pp := range p.PlotPoints {
		out.PlotPoints[i] = pp.Clone()
	}
	return &out
}

// Touch records a modification
func (p *Project) Touch(now time.Time) {
	p.LastModified = now.UTC()
}

// UpdateMetadata replaces the descriptive fields
func (p *Project) UpdateMetadata(title, description string, tags []string, status Status) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return pkgerrors.NewValidationError("project title cannot be empty")
	}
	if status == "" {
		status = StatusDraft
	}
	if !status.IsValid() {
		return pkgerrors.NewValidationError("unknown project status " + string(status))
	}
	p.Title = title
	p.Description = description
	p.Tags = slices.Clone(tags)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	p.Status = status
	return nil
}

// SetView updates the lightweight UI-positioning fields
func (p *Project) SetView(zoom valueobjects.ZoomLevel, focusedID, currentActID string) error {
	if !zoom.IsValid() {
		return pkgerrors.NewValidationError("unknown zoom level " + string(zoom))
	}
	if currentActID != "" {
		if err := p.SetCurrentAct(currentActID); err != nil {
			return err
		}
	}
	p.CurrentZoomLevel = zoom
	p.FocusedElementID = focusedID
	return nil
}

// Acts

// ActIndex returns the index of the act, or -1
func (p *Project) ActIndex(actID string) int {
	return slices.IndexFunc(p.Acts, func(a entities.Act) bool { return a.ID == actID })
}

// SortedActs returns the acts ordered by their order field. Ties keep insertion order.
func (p *Project) SortedActs() []entities.Act {
	acts := slices.Clone(p.Acts)
	slices.SortStableFunc(acts, func(a, b entities.Act) int { return cmp.Compare(a.Order, b.Order) })
	return acts
}

// ActAtRank returns the n-th act (1-based) in display order
func (p *Project) ActAtRank(n int) (entities.Act, bool) {
	acts := p.SortedActs()
	if n < 1 || n > len(acts) {
		return entities.Act{}, false
	}
	return acts[n-1], true
}

// SetCurrentAct selects the active act
func (p *Project) SetCurrentAct(actID string) error {
	if p.ActIndex(actID) < 0 {
		return pkgerrors.NewNotFoundError("act", actID)
	}
	p.CurrentActID = actID
	return nil
}

// NextActOrder returns one past the highest act order
func (p *Project) NextActOrder() int {
	next := 1
	for _, a := range p.Acts {
		if a.Order >= next {
			next = a.Order + 1
		}
	}
	return next
}

// AddAct appends an act. A zero order is replaced with the next free rank.
func (p *Project) AddAct(act entities.Act) error {
	if strings.TrimSpace(act.ID) == "" || strings.TrimSpace(act.Name) == "" {
		return pkgerrors.NewValidationError("act requires id and name")
	}
	if p.ActIndex(act.ID) >= 0 {
		return pkgerrors.NewConflictError("act " + act.ID + " already exists")
	}
	if act.Order == 0 {
		act.Order = p.NextActOrder()
	}
	p.Acts = append(p.Acts, act)
	return nil
}

// UpdateAct replaces an existing act
func (p *Project) UpdateAct(act entities.Act) error {
	i := p.ActIndex(act.ID)
	if i < 0 {
		return pkgerrors.NewNotFoundError("act", act.ID)
	}
	if strings.TrimSpace(act.Name) == "" {
		return pkgerrors.NewValidationError("act name cannot be empty")
	}
	p.Acts[i] = act
	return nil
}

// RemoveAct deletes an act and every plot point it owns. The last act cannot be removed.
func (p *Project) RemoveAct(actID string) ([]entities.PlotPoint, error) {
	i := p.ActIndex(actID)
	if i < 0 {
		return nil, pkgerrors.NewNotFoundError("act", actID)
	}
	if len(p.Acts) == 1 {
		return nil, pkgerrors.NewInvariantError("project must have at least one act")
	}

	var removed []entities.PlotPoint
	p.PlotPoints = slices.DeleteFunc(p.PlotPoints, func(pp entities.PlotPoint) bool {
		if pp.ActID == actID {
			removed = append(removed, pp)
			return true
		}
		return false
	})
	p.Acts = slices.Delete(p.Acts, i, i+1)

	if p.CurrentActID == actID {
		p.CurrentActID = p.SortedActs()[0].ID
	}
	if p.FocusedElementID != "" && !p.containsElement(p.FocusedElementID) {
		p.FocusedElementID = ""
	}
	return removed, nil
}

// Characters

// CharacterIndex returns the index of the character, or -1
func (p *Project) CharacterIndex(characterID string) int {
	return slices.IndexFunc(p.Characters, func(c entities.Character) bool { return c.ID == characterID })
}

// AddCharacter appends a character to the cast
func (p *Project) AddCharacter(c entities.Character) error {
	if strings.TrimSpace(c.ID) == "" || strings.TrimSpace(c.Name) == "" {
		return pkgerrors.NewValidationError("character requires id and name")
	}
	if p.CharacterIndex(c.ID) >= 0 {
		return pkgerrors.NewConflictError("character " + c.ID + " already exists")
	}
	p.Characters = append(p.Characters, c)
	return nil
}

// UpdateCharacter replaces an existing character
func (p *Project) UpdateCharacter(c entities.Character) error {
	i := p.CharacterIndex(c.ID)
	if i < 0 {
		return pkgerrors.NewNotFoundError("character", c.ID)
	}
	p.Characters[i] = c
	return nil
}

// RemoveCharacter deletes a character and clears every scene reference to it
func (p *Project) RemoveCharacter(characterID string) error {
	i := p.CharacterIndex(characterID)
	if i < 0 {
		return pkgerrors.NewNotFoundError("character", characterID)
	}
	p.Characters = slices.Delete(p.Characters, i, i+1)
	for pi := range p.PlotPoints {
		for si := range p.PlotPoints[pi].Scenes {
			s := &p.PlotPoints[pi].Scenes[si]
			s.CharacterIDs = slices.DeleteFunc(s.CharacterIDs, func(id string) bool { return id == characterID })
		}
	}
	if p.FocusedElementID == characterID {
		p.FocusedElementID = ""
	}
	return nil
}

// Plot points

// PlotPointIndex returns the index of the plot point, or -1
func (p *Project) PlotPointIndex(plotPointID string) int {
	return slices.IndexFunc(p.PlotPoints, func(pp entities.PlotPoint) bool { return pp.ID == plotPointID })
}

// PlotPoint returns a pointer into the live plot point slice
func (p *Project) PlotPoint(plotPointID string) (*entities.PlotPoint, bool) {
	i := p.PlotPointIndex(plotPointID)
	if i < 0 {
		return nil, false
	}
	return &p.PlotPoints[i], true
}

// PlotPointsInAct returns the plot points owned by the act in project order
func (p *Project) PlotPointsInAct(actID string) []entities.PlotPoint {
	var out []entities.PlotPoint
	for _, pp := range p.PlotPoints {
		if pp.ActID == actID {
			out = append(out, pp)
		}
	}
	return out
}

// Positions returns every plot point position
func (p *Project) Positions() []valueobjects.Position {
	out := make([]valueobjects.Position, 0, len(p.PlotPoints))
	for _, pp := range p.PlotPoints {
		out = append(out, pp.Position)
	}
	return out
}

// AddPlotPoint appends a persisted plot point. Temporary ids are rejected.
func (p *Project) AddPlotPoint(pp entities.PlotPoint) error {
	if strings.TrimSpace(pp.ID) == "" {
		return pkgerrors.NewValidationError("plot point id cannot be empty")
	}
	if pp.IsTemporary() {
		return pkgerrors.NewInvariantError("temporary plot point " + pp.ID + " must be promoted first")
	}
	if p.ActIndex(pp.ActID) < 0 {
		return pkgerrors.NewNotFoundError("act", pp.ActID)
	}
	if !pp.Position.IsValid() {
		return pkgerrors.NewValidationError("invalid coordinates: must be finite numbers")
	}
	if p.PlotPointIndex(pp.ID) >= 0 {
		return pkgerrors.NewConflictError("plot point " + pp.ID + " already exists")
	}
	if pp.Scenes == nil {
		pp.Scenes = []entities.Scene{}
	}
	p.PlotPoints = append(p.PlotPoints, pp)
	return nil
}

// UpdatePlotPoint replaces the fields of an existing plot point, scenes included
func (p *Project) UpdatePlotPoint(pp entities.PlotPoint) error {
	i := p.PlotPointIndex(pp.ID)
	if i < 0 {
		return pkgerrors.NewNotFoundError("plotPoint", pp.ID)
	}
	if p.ActIndex(pp.ActID) < 0 {
		return pkgerrors.NewNotFoundError("act", pp.ActID)
	}
	if !pp.Position.IsValid() {
		return pkgerrors.NewValidationError("invalid coordinates: must be finite numbers")
	}
	if pp.Scenes == nil {
		pp.Scenes = []entities.Scene{}
	}
	p.PlotPoints[i] = pp
	return nil
}

// MovePlotPoint updates a plot point position
func (p *Project) MovePlotPoint(plotPointID string, pos valueobjects.Position) error {
	pp, ok := p.PlotPoint(plotPointID)
	if !ok {
		return pkgerrors.NewNotFoundError("plotPoint", plotPointID)
	}
	if !pos.IsValid() {
		return pkgerrors.NewValidationError("invalid coordinates: must be finite numbers")
	}
	pp.Position = pos
	return nil
}

// RemovePlotPoint deletes a plot point together with its scenes
func (p *Project) RemovePlotPoint(plotPointID string) (entities.PlotPoint, error) {
	i := p.PlotPointIndex(plotPointID)
	if i < 0 {
		return entities.PlotPoint{}, pkgerrors.NewNotFoundError("plotPoint", plotPointID)
	}
	removed := p.PlotPoints[i]
	p.PlotPoints = slices.Delete(p.PlotPoints, i, i+1)
	if p.FocusedElementID == plotPointID || removed.SceneIndex(p.FocusedElementID) >= 0 {
		p.FocusedElementID = ""
	}
	return removed, nil
}

// Scenes

// FindScene locates a scene across all plot points
func (p *Project) FindScene(sceneID string) (plotPointIdx, sceneIdx int, ok bool) {
	for pi, pp := range p.PlotPoints {
		if si := pp.SceneIndex(sceneID); si >= 0 {
			return pi, si, true
		}
	}
	return -1, -1, false
}

// Scene returns a pointer to the live scene and its owning plot point
func (p *Project) Scene(sceneID string) (*entities.Scene, *entities.PlotPoint, bool) {
	pi, si, ok := p.FindScene(sceneID)
	if !ok {
		return nil, nil, false
	}
	return &p.PlotPoints[pi].Scenes[si], &p.PlotPoints[pi], true
}

// AddScene appends a scene to a plot point
func (p *Project) AddScene(plotPointID string, s entities.Scene) error {
	pp, ok := p.PlotPoint(plotPointID)
	if !ok {
		return pkgerrors.NewNotFoundError("plotPoint", plotPointID)
	}
	if strings.TrimSpace(s.ID) == "" {
		return pkgerrors.NewValidationError("scene id cannot be empty")
	}
	if _, _, exists := p.FindScene(s.ID); exists {
		return pkgerrors.NewConflictError("scene " + s.ID + " already exists")
	}
	if err := p.checkCharacterRefs(s.CharacterIDs); err != nil {
		return err
	}
	if s.CharacterIDs == nil {
		s.CharacterIDs = []string{}
	}
	if s.Items == nil {
		s.Items = []entities.Item{}
	}
	pp.Scenes = append(pp.Scenes, s)
	return nil
}

// UpdateScene replaces an existing scene in place
func (p *Project) UpdateScene(s entities.Scene) error {
	live, _, ok := p.Scene(s.ID)
	if !ok {
		return pkgerrors.NewNotFoundError("scene", s.ID)
	}
	if err := p.checkCharacterRefs(s.CharacterIDs); err != nil {
		return err
	}
	if s.CharacterIDs == nil {
		s.CharacterIDs = []string{}
	}
	if s.Items == nil {
		s.Items = []entities.Item{}
	}
	*live = s
	return nil
}

// RemoveScene deletes a scene from its plot point
func (p *Project) RemoveScene(sceneID string) (entities.Scene, error) {
	pi, si, ok := p.FindScene(sceneID)
	if !ok {
		return entities.Scene{}, pkgerrors.NewNotFoundError("scene", sceneID)
	}
	removed := p.PlotPoints[pi].Scenes[si]
	p.PlotPoints[pi].Scenes = slices.Delete(p.PlotPoints[pi].Scenes, si, si+1)
	if p.FocusedElementID == sceneID {
		p.FocusedElementID = ""
	}
	return removed, nil
}

func (p *Project) checkCharacterRefs(ids []string) error {
	for _, id := range ids {
		if p.CharacterIndex(id) < 0 {
			return pkgerrors.NewNotFoundError("character", id)
		}
	}
	return nil
}

func (p *Project) containsElement(id string) bool {
	if p.PlotPointIndex(id) >= 0 || p.CharacterIndex(id) >= 0 {
		return true
	}
	_, _, ok := p.FindScene(id)
	return ok
}

// RemapIDs rewrites identifiers according to idMap (old id → new id), foreign keys included.
// Ids absent from the map are left untouched.
func (p *Project) RemapIDs(idMap map[string]string) {
	if len(idMap) == 0 {
		return
	}
	remap := func(id string) string {
		if to, ok := idMap[id]; ok {
			return to
		}
		return id
	}

	p.CurrentActID = remap(p.CurrentActID)
	p.FocusedElementID = remap(p.FocusedElementID)
	for i := range p.Acts {
		p.Acts[i].ID = remap(p.Acts[i].ID)
	}
	for i := range p.Characters {
		p.Characters[i].ID = remap(p.Characters[i].ID)
	}
	for i := range p.PlotPoints {
		RemapPlotPoint(&p.PlotPoints[i], remap)
	}
}

// RemapPlotPoint applies remap to a plot point, its act reference and its scenes
func RemapPlotPoint(pp *entities.PlotPoint, remap func(string) string) {
	pp.ID = remap(pp.ID)
	pp.ActID = remap(pp.ActID)
	for si := range pp.Scenes {
		s := &pp.Scenes[si]
		s.ID = remap(s.ID)
		for ci := range s.CharacterIDs {
			s.CharacterIDs[ci] = remap(s.CharacterIDs[ci])
		}
	}
}
