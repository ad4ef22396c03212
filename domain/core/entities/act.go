package entities

import (
	"strings"

	"storycanvas/domain/core/valueobjects"
	pkgerrors "storycanvas/pkg/errors"
)

// Act groups plot points. Order is a dense ranking used for tabs and act shortcuts.
type Act struct {
	ID          string `json:"id" dynamodbav:"id"`
	Name        string `json:"name" dynamodbav:"name"`
	Description string `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Order       int    `json:"order" dynamodbav:"order"`
}

// NewAct creates an act with a fresh id
func NewAct(name string, order int) (Act, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Act{}, pkgerrors.NewValidationError("act name cannot be empty")
	}
	return Act{ID: valueobjects.NewID(), Name: name, Order: order}, nil
}

// Character is a project-scoped cast member shared across scenes
type Character struct {
	ID          string `json:"id" dynamodbav:"id"`
	Name        string `json:"name" dynamodbav:"name"`
	Description string `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Color       string `json:"color,omitempty" dynamodbav:"color,omitempty"`
}

// NewCharacter creates a character with a fresh id
func NewCharacter(name string) (Character, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Character{}, pkgerrors.NewValidationError("character name cannot be empty")
	}
	return Character{ID: valueobjects.NewID(), Name: name}, nil
}

// Setting is a scene-local value object. An empty name means no setting.
type Setting struct {
	Name        string `json:"name" dynamodbav:"name"`
	Description string `json:"description,omitempty" dynamodbav:"description,omitempty"`
}

// IsZero reports whether the scene has no setting
func (s Setting) IsZero() bool {
	return strings.TrimSpace(s.Name) == ""
}

// Item is a scene-local prop
type Item struct {
	ID          string `json:"id" dynamodbav:"id"`
	Name        string `json:"name" dynamodbav:"name"`
	Description string `json:"description,omitempty" dynamodbav:"description,omitempty"`
}

// NewItem creates an item with a fresh id
func NewItem(name string) (Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Item{}, pkgerrors.NewValidationError("item name cannot be empty")
	}
	return Item{ID: valueobjects.NewID(), Name: name}, nil
}
