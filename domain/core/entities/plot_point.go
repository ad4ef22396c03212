package entities

import (
	"slices"
	"strings"

	"storycanvas/domain/core/valueobjects"
	pkgerrors "storycanvas/pkg/errors"
)

// DefaultPlotPointColor is used when a plot point is created without a color
const DefaultPlotPointColor = "#3b82f6"

// PlotPoint is a top-level story beat owned by exactly one act
type PlotPoint struct {
	ID       string                `json:"id" dynamodbav:"id"`
	Title    string                `json:"title" dynamodbav:"title"`
	Position valueobjects.Position `json:"position" dynamodbav:"position"`
	Color    string                `json:"color" dynamodbav:"color"`
	ActID    string                `json:"actId" dynamodbav:"actId"`
	Order    int                   `json:"order" dynamodbav:"order"`
	Scenes   []Scene               `json:"scenes" dynamodbav:"scenes"`
}

// Scene is a sub-unit of a plot point. CharacterIDs are weak references into the project cast.
type Scene struct {
	ID           string                 `json:"id" dynamodbav:"id"`
	Title        string                 `json:"title" dynamodbav:"title"`
	Synopsis     string                 `json:"synopsis" dynamodbav:"synopsis"`
	CharacterIDs []string               `json:"characterIds" dynamodbav:"characterIds"`
	Setting      Setting                `json:"setting" dynamodbav:"setting"`
	Items        []Item                 `json:"items" dynamodbav:"items"`
	Position     *valueobjects.Position `json:"position,omitempty" dynamodbav:"position,omitempty"`
}

// NewPlotPoint creates a plot point with a fresh permanent id
func NewPlotPoint(title, actID string, position valueobjects.Position) (PlotPoint, error) {
	if strings.TrimSpace(actID) == "" {
		return PlotPoint{}, pkgerrors.NewValidationError("plot point must belong to an act")
	}
	if !position.IsValid() {
		return PlotPoint{}, pkgerrors.NewValidationError("invalid coordinates: must be finite numbers")
	}
	return PlotPoint{
		ID:       valueobjects.NewID(),
		Title:    strings.TrimSpace(title),
		Position: position,
		Color:    DefaultPlotPointColor,
		ActID:    actID,
		Scenes:   []Scene{},
	}, nil
}

// NewTempPlotPoint creates an unpersisted plot point whose id carries the temporary prefix
func NewTempPlotPoint(actID string, position valueobjects.Position) PlotPoint {
	return PlotPoint{
		ID:       valueobjects.NewTempID(),
		Position: position,
		Color:    DefaultPlotPointColor,
		ActID:    actID,
		Scenes:   []Scene{},
	}
}

// NewScene creates a scene with a fresh id and no stored position
func NewScene(title string) (Scene, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Scene{}, pkgerrors.NewValidationError("scene title cannot be empty")
	}
	return Scene{
		ID:           valueobjects.NewID(),
		Title:        title,
		CharacterIDs: []string{},
		Items:        []Item{},
	}, nil
}

// IsTemporary reports whether the plot point has not been promoted yet
func (p PlotPoint) IsTemporary() bool {
	return valueobjects.IsTempID(p.ID)
}

// SceneIndex returns the index of the scene with the given id, or -1
func (p PlotPoint) SceneIndex(sceneID string) int {
	return slices.IndexFunc(p.Scenes, func(s Scene) bool { return s.ID == sceneID })
}

// Clone returns a deep copy sharing no slices or pointers with p
func (p PlotPoint) Clone() PlotPoint {
	out := p
	out.Scenes = make([]Scene, len(p.Scenes))
	for i, s := range p.Scenes {
		out.Scenes[i] = s.Clone()
	}
	return out
}

// Clone returns a deep copy of the scene
func (s Scene) Clone() Scene {
	out := s
	out.CharacterIDs = append([]string{}, s.CharacterIDs...)
	out.Items = append([]Item{}, s.Items...)
	if s.Position != nil {
		pos := *s.Position
		out.Position = &pos
	}
	return out
}

// HasCharacter reports whether the scene references the character
func (s Scene) HasCharacter(characterID string) bool {
	return slices.Contains(s.CharacterIDs, characterID)
}

// Equal compares plot points field by field, scenes included. Nil and empty slices are equal.
func (p PlotPoint) Equal(other PlotPoint) bool {
	if p.ID != other.ID || p.Title != other.Title || p.Color != other.Color ||
		p.ActID != other.ActID || p.Order != other.Order || !p.Position.Equals(other.Position) {
		return false
	}
	return slices.EqualFunc(p.Scenes, other.Scenes, Scene.Equal)
}

// Equal compares scenes field by field
func (s Scene) Equal(other Scene) bool {
	if s.ID != other.ID || s.Title != other.Title || s.Synopsis != other.Synopsis || s.Setting != other.Setting {
		return false
	}
	if !slices.Equal(s.CharacterIDs, other.CharacterIDs) || !slices.Equal(s.Items, other.Items) {
		return false
	}
	switch {
	case s.Position == nil && other.Position == nil:
		return true
	case s.Position == nil || other.Position == nil:
		return false
	default:
		return s.Position.Equals(*other.Position)
	}
}
