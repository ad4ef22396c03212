package canvas

import (
	"storycanvas/domain/core/aggregates"
)

// Snapshot pairs a deep copy of the model with the expansion state it was shown with
type Snapshot struct {
	Project    *aggregates.Project
	ExpandedID string
}

// UndoManager is a fixed-capacity ring buffer of snapshots. Pushing onto a full
// buffer discards the oldest entry. Not safe for concurrent use; the Store guards it.
type UndoManager struct {
	buf   []Snapshot
	head  int // index of the next write
	count int
}

// NewUndoManager creates a manager holding at most capacity snapshots
func NewUndoManager(capacity int) *UndoManager {
	if capacity < 1 {
		capacity = 1
	}
	return &UndoManager{buf: make([]Snapshot, capacity)}
}

// Push records a snapshot. The project is deep-copied.
func (u *UndoManager) Push(project *aggregates.Project, expandedID string) {
	u.buf[u.head] = Snapshot{Project: project.Clone(), ExpandedID: expandedID}
	u.head = (u.head + 1) % len(u.buf)
	if u.count < len(u.buf) {
		u.count++
	}
}

// Pop removes and returns the most recent snapshot
func (u *UndoManager) Pop() (Snapshot, bool) {
	if u.count == 0 {
		return Snapshot{}, false
	}
	u.head = (u.head - 1 + len(u.buf)) % len(u.buf)
	s := u.buf[u.head]
	u.buf[u.head] = Snapshot{}
	u.count--
	return s, true
}

// Len returns the number of retrievable snapshots
func (u *UndoManager) Len() int {
	return u.count
}

// Capacity returns the buffer size
func (u *UndoManager) Capacity() int {
	return len(u.buf)
}

// Clear drops every snapshot
func (u *UndoManager) Clear() {
	for i := range u.buf {
		u.buf[i] = Snapshot{}
	}
	u.head, u.count = 0, 0
}

// Remap rewrites ids inside every stored snapshot
func (u *UndoManager) Remap(idMap map[string]string) {
	if len(idMap) == 0 {
		return
	}
	for i := 0; i < u.count; i++ {
		idx := (u.head - 1 - i + 2*len(u.buf)) % len(u.buf)
		s := &u.buf[idx]
		s.Project.RemapIDs(idMap)
		if to, ok := idMap[s.ExpandedID]; ok {
			s.ExpandedID = to
		}
	}
}
