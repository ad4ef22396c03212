package schedule

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual_RunsDueTasksInOrder(t *testing.T) {
	m := NewManual()
	var order []string

	m.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	m.AfterFunc(time.Second, func() { order = append(order, "a") })
	m.AfterFunc(5*time.Second, func() { order = append(order, "c") })

	m.Advance(2 * time.Second)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, 1, m.Pending())

	m.Advance(3 * time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestManual_Cancel(t *testing.T) {
	m := NewManual()
	ran := false
	cancel := m.AfterFunc(time.Second, func() { ran = true })

	assert.True(t, cancel())
	assert.False(t, cancel())
	m.Advance(time.Minute)
	assert.False(t, ran)
}

func TestEvery(t *testing.T) {
	m := NewManual()
	count := 0
	stop := Every(m, time.Second, func() { count++ })

	m.Advance(3500 * time.Millisecond)
	assert.Equal(t, 3, count)

	require.True(t, stop())
	m.Advance(time.Minute)
	assert.Equal(t, 3, count)
	assert.Equal(t, 0, m.Pending())
}

func TestReal_AfterFunc(t *testing.T) {
	var fired atomic.Bool
	done := make(chan struct{})
	Real{}.AfterFunc(time.Millisecond, func() {
		fired.Store(true)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	assert.True(t, fired.Load())
}
