package valueobjects

import (
	"fmt"
	"math"

	pkgerrors "storycanvas/pkg/errors"
)

// Position is a value object representing canvas coordinates.
// Fields are exported so the value survives JSON and DynamoDB round-trips unchanged.
type Position struct {
	X float64 `json:"x" dynamodbav:"x"`
	Y float64 `json:"y" dynamodbav:"y"`
}

// Origin is the canvas origin
var Origin = Position{}

// NewPosition creates a position with validation
func NewPosition(x, y float64) (Position, error) {
	if !isValidCoordinate(x) || !isValidCoordinate(y) {
		return Position{}, pkgerrors.NewValidationError("invalid coordinates: must be finite numbers")
	}
	return Position{X: x, Y: y}, nil
}

// MustPosition is NewPosition for constants known to be finite
func MustPosition(x, y float64) Position {
	p, err := NewPosition(x, y)
	if err != nil {
		panic(err)
	}
	return p
}

// IsValid reports whether both coordinates are finite
func (p Position) IsValid() bool {
	return isValidCoordinate(p.X) && isValidCoordinate(p.Y)
}

// IsOrigin reports whether the position sits exactly on (0,0)
func (p Position) IsOrigin() bool {
	return p.X == 0 && p.Y == 0
}

// DistanceTo calculates the Euclidean distance to another position
func (p Position) DistanceTo(other Position) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Equals checks if two positions are equal within a small tolerance
func (p Position) Equals(other Position) bool {
	const epsilon = 1e-9
	return math.Abs(p.X-other.X) < epsilon && math.Abs(p.Y-other.Y) < epsilon
}

// Translate moves the position by the given offsets
func (p Position) Translate(dx, dy float64) (Position, error) {
	return NewPosition(p.X+dx, p.Y+dy)
}

// Polar returns the point at distance r and angle theta from p
func (p Position) Polar(r, theta float64) Position {
	return Position{X: p.X + r*math.Cos(theta), Y: p.Y + r*math.Sin(theta)}
}

// Key is the exact-coordinate grouping key used by overlap detection
func (p Position) Key() string {
	return fmt.Sprintf("%g,%g", p.X, p.Y)
}

// Centroid returns the mean of the given positions. ok is false for an empty input.
func Centroid(positions []Position) (c Position, ok bool) {
	if len(positions) == 0 {
		return Position{}, false
	}
	for _, p := range positions {
		c.X += p.X
		c.Y += p.Y
	}
	n := float64(len(positions))
	return Position{X: c.X / n, Y: c.Y / n}, true
}

func isValidCoordinate(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
