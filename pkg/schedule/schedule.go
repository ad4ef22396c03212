// Package schedule runs cancellable delayed tasks. The canvas uses it for the
// sync debounce, the undo settle delay and the periodic backup and promotion timers.
package schedule

import (
	"sort"
	"sync"
	"time"
)

// Cancel stops a scheduled task. It reports whether the task was stopped before running.
type Cancel func() bool

// Scheduler runs f once after d
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Cancel
}

// Real schedules on the runtime timer heap
type Real struct{}

// AfterFunc implements Scheduler
func (Real) AfterFunc(d time.Duration, f func()) Cancel {
	t := time.AfterFunc(d, f)
	return t.Stop
}

// Every runs f on each tick of the scheduler until the returned Cancel is called
func Every(s Scheduler, d time.Duration, f func()) Cancel {
	var (
		mu      sync.Mutex
		stopped bool
		cancel  Cancel
	)
	var tick func()
	tick = func() {
		f()
		mu.Lock()
		defer mu.Unlock()
		if !stopped {
			cancel = s.AfterFunc(d, tick)
		}
	}

	mu.Lock()
	cancel = s.AfterFunc(d, tick)
	mu.Unlock()

	return func() bool {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return false
		}
		stopped = true
		return cancel()
	}
}

// Manual is a Scheduler driven by Advance. Tasks run on the caller's goroutine.
type Manual struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	at  time.Duration
	seq int
	f   func()
}

// NewManual creates a manual scheduler at time zero
func NewManual() *Manual {
	return &Manual{}
}

// AfterFunc implements Scheduler
func (m *Manual) AfterFunc(d time.Duration, f func()) Cancel {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	task := &manualTask{at: m.now + d, seq: m.seq, f: f}
	m.tasks = append(m.tasks, task)

	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, t := range m.tasks {
			if t == task {
				m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
				return true
			}
		}
		return false
	}
}

// Advance moves the clock forward, running every task that comes due in order.
// Tasks scheduled by running tasks are run too if they fall inside the window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		sort.SliceStable(m.tasks, func(i, j int) bool {
			if m.tasks[i].at == m.tasks[j].at {
				return m.tasks[i].seq < m.tasks[j].seq
			}
			return m.tasks[i].at < m.tasks[j].at
		})
		if len(m.tasks) == 0 || m.tasks[0].at > target {
			m.now = target
			m.mu.Unlock()
			return
		}
		task := m.tasks[0]
		m.tasks = m.tasks[1:]
		m.now = task.at
		m.mu.Unlock()

		task.f()
	}
}

// Pending returns the number of scheduled tasks
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}
