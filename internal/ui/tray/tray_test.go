package tray

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tomatotimer/internal/core/timekeeper"
)

func TestStatusText(t *testing.T) {
	assert.Equal(t, "idle", statusText(timekeeper.StateIdle, 0))
	assert.Equal(t, "12.50s left", statusText(timekeeper.StateRunning, 12500*time.Millisecond))
	assert.Equal(t, "1:05.00 left (paused)", statusText(timekeeper.StatePaused, 65*time.Second))
	assert.Equal(t, "done", statusText(timekeeper.StateCompleted, 0))
}

func TestMenuFollowsState(t *testing.T) {
	var started, stopped int
	manager := New(nil, Callbacks{
		OnStart: func() { started++ },
		OnStop:  func() { stopped++ },
	})

	assert.Equal(t, "Start", manager.startItem.Label)
	assert.True(t, manager.stopItem.Disabled)
	assert.True(t, manager.resetItem.Disabled)

	manager.SetState(timekeeper.StateRunning, 3*time.Second)
	assert.True(t, manager.startItem.Disabled)
	assert.False(t, manager.stopItem.Disabled)
	assert.Equal(t, "Status: 3.00s left", manager.statusItem.Label)

	manager.SetState(timekeeper.StatePaused, 2*time.Second)
	assert.Equal(t, "Resume", manager.startItem.Label)
	assert.False(t, manager.startItem.Disabled)
	assert.False(t, manager.resetItem.Disabled)

	manager.startItem.Action()
	manager.stopItem.Action()
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, stopped)

	manager.SetState(timekeeper.StateCompleted, 0)
	assert.Equal(t, "Start again", manager.startItem.Label)
}
