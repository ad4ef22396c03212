package canvas

import (
	"strconv"
	"strings"
)

// KeyEvent is a key press. Ctrl and Meta both count as the shortcut modifier.
type KeyEvent struct {
	Key   string
	Ctrl  bool
	Meta  bool
	Shift bool
}

// HandleKey runs the keyboard shortcuts: modifier+Z undoes, modifier+digit switches
// to the act at that rank. It reports whether the key was consumed.
func (s *Store) HandleKey(ev KeyEvent) (bool, error) {
	if !ev.Ctrl && !ev.Meta {
		return false, nil
	}

	if strings.EqualFold(ev.Key, "z") {
		if ev.Shift {
			return false, nil
		}
		s.Undo()
		return true, nil
	}

	n, err := strconv.Atoi(ev.Key)
	if err != nil || n < 1 || n > s.cfg.MaxActShortcut {
		return false, nil
	}
	s.mu.Lock()
	if s.project == nil {
		s.mu.Unlock()
		return false, nil
	}
	act, ok := s.project.ActAtRank(n)
	s.mu.Unlock()
	if !ok {
		return true, nil
	}
	return true, s.SetCurrentAct(act.ID)
}
