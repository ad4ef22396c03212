package valueobjects

import (
	"strings"

	"github.com/google/uuid"
)

// TempIDPrefix marks entities that have not been persisted yet.
const TempIDPrefix = "temp-"

// NewID creates a new permanent client-side identifier
func NewID() string {
	return uuid.New().String()
}

// NewTempID creates an identifier carrying the temporary prefix
func NewTempID() string {
	return TempIDPrefix + uuid.New().String()
}

// IsTempID reports whether id carries the temporary prefix
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// PromoteID strips the temporary prefix, yielding a permanent id.
// Ids without the prefix get a fresh permanent id.
func PromoteID(id string) string {
	if rest, ok := strings.CutPrefix(id, TempIDPrefix); ok && rest != "" {
		return rest
	}
	return NewID()
}
