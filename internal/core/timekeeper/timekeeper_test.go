package timekeeper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tomatotimer/internal/core/clock"
	"tomatotimer/internal/core/model"
)

var origin = time.Date(2026, 5, 4, 8, 30, 0, 0, time.UTC)

func newKeeper() (*TimeKeeper, *clock.Fake) {
	fake := clock.NewFake(origin)
	return New(model.ClockConfig{MaxDuration: 5 * time.Minute}, fake), fake
}

func TestStartRejectsInvalidDurations(t *testing.T) {
	keeper, _ := newKeeper()

	for _, duration := range []time.Duration{0, -time.Second, 5*time.Minute + time.Millisecond} {
		err := keeper.Start(duration)
		require.ErrorIs(t, err, ErrInvalidDuration, "duration %s", duration)
		assert.Equal(t, StateIdle, keeper.State())
	}

	require.NoError(t, keeper.Start(5*time.Minute))
	assert.Equal(t, StateRunning, keeper.State())
}

func TestStartThenImmediateTick(t *testing.T) {
	keeper, fake := newKeeper()
	require.NoError(t, keeper.Start(5*time.Second))

	event := keeper.Tick()
	assert.Equal(t, EventProgress, event.Type)
	assert.Equal(t, 5*time.Second, event.Remaining)

	fake.Advance(5 * time.Second)
	event = keeper.Tick()
	assert.Equal(t, EventCompleted, event.Type)
	assert.Zero(t, event.Remaining)
	assert.Equal(t, StateCompleted, keeper.State())

	for i := 0; i < 3; i++ {
		fake.Advance(time.Second)
		event = keeper.Tick()
		assert.Equal(t, EventProgress, event.Type)
		assert.Zero(t, event.Remaining)
		assert.Equal(t, 1.0, event.Progress)
	}
}

func TestTickUsesAbsoluteTime(t *testing.T) {
	keeper, fake := newKeeper()
	require.NoError(t, keeper.Start(10*time.Second))

	// irregular frame gaps, including a long stall
	gaps := []time.Duration{16 * time.Millisecond, 17 * time.Millisecond, 3 * time.Second, time.Millisecond, 33 * time.Millisecond}
	var elapsed time.Duration
	previous := keeper.Tick().Remaining
	for _, gap := range gaps {
		fake.Advance(gap)
		elapsed += gap
		remaining := keeper.Tick().Remaining
		assert.Equal(t, 10*time.Second-elapsed, remaining)
		assert.LessOrEqual(t, remaining, previous)
		previous = remaining
	}
}

func TestTickMonotonicAcrossPause(t *testing.T) {
	keeper, fake := newKeeper()
	require.NoError(t, keeper.Start(2*time.Second))

	previous := keeper.Tick().Remaining
	for i := 0; i < 200; i++ {
		fake.Advance(13 * time.Millisecond)
		if i == 50 {
			keeper.Pause()
		}
		if i == 80 {
			keeper.Resume()
		}
		event := keeper.Tick()
		assert.LessOrEqual(t, event.Remaining, previous, "tick %d", i)
		previous = event.Remaining
	}
}

func TestPauseResumeRoundTrip(t *testing.T) {
	keeper, fake := newKeeper()
	require.NoError(t, keeper.Start(10*time.Second))

	fake.Advance(4 * time.Second)
	keeper.Pause()
	assert.Equal(t, StatePaused, keeper.State())

	fake.Advance(time.Minute)
	paused := keeper.Tick()
	assert.Equal(t, 6*time.Second, paused.Remaining)

	require.NoError(t, keeper.Start(time.Hour))
	assert.Equal(t, StateRunning, keeper.State())
	assert.Equal(t, 6*time.Second, keeper.Tick().Remaining)

	fake.Advance(time.Second)
	assert.Equal(t, 5*time.Second, keeper.Tick().Remaining)
}

func TestRedundantOperationsAreNoOps(t *testing.T) {
	keeper, fake := newKeeper()

	keeper.Pause()
	keeper.Resume()
	assert.Equal(t, StateIdle, keeper.State())

	require.NoError(t, keeper.Start(3*time.Second))
	fake.Advance(time.Second)
	require.NoError(t, keeper.Start(time.Minute))
	assert.Equal(t, 2*time.Second, keeper.Tick().Remaining)

	keeper.Pause()
	keeper.Pause()
	fake.Advance(time.Second)
	keeper.Resume()
	keeper.Resume()
	assert.Equal(t, 2*time.Second, keeper.Tick().Remaining)
}

func TestResetFromAnyState(t *testing.T) {
	keeper, fake := newKeeper()

	keeper.Reset()
	assert.Equal(t, StateIdle, keeper.State())

	require.NoError(t, keeper.Start(time.Second))
	keeper.Pause()
	keeper.Reset()
	assert.Equal(t, StateIdle, keeper.State())
	assert.Zero(t, keeper.Tick().Remaining)

	require.NoError(t, keeper.Start(time.Second))
	fake.Advance(2 * time.Second)
	require.Equal(t, EventCompleted, keeper.Tick().Type)
	keeper.Reset()
	assert.Equal(t, StateIdle, keeper.State())

	require.NoError(t, keeper.Start(time.Second))
	assert.Equal(t, time.Second, keeper.Tick().Remaining)
}

func TestCompletedRestartsFresh(t *testing.T) {
	keeper, fake := newKeeper()
	require.NoError(t, keeper.Start(time.Second))
	fake.Advance(time.Second)
	require.Equal(t, EventCompleted, keeper.Tick().Type)

	require.NoError(t, keeper.Start(3*time.Second))
	assert.Equal(t, StateRunning, keeper.State())
	assert.Equal(t, 3*time.Second, keeper.Tick().Remaining)
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	keeper, fake := newKeeper()
	events := keeper.Subscribe(16)

	require.NoError(t, keeper.Start(2*time.Second))
	keeper.Tick()
	keeper.Pause()
	keeper.Resume()
	fake.Advance(2 * time.Second)
	keeper.Tick()
	keeper.Tick()
	keeper.Close()

	var kinds []string
	for event := range events {
		kinds = append(kinds, string(event.Type)+":"+string(event.State))
	}
	assert.Equal(t, []string{
		"state_change:running",
		"progress:running",
		"state_change:paused",
		"state_change:running",
		"completed:completed",
	}, kinds)
}

func TestUpdateConfigChangesCeiling(t *testing.T) {
	keeper, _ := newKeeper()
	keeper.UpdateConfig(model.ClockConfig{MaxDuration: time.Second})

	assert.ErrorIs(t, keeper.Validate(2*time.Second), ErrInvalidDuration)
	assert.NoError(t, keeper.Validate(time.Second))

	keeper.UpdateConfig(model.ClockConfig{})
	assert.NoError(t, keeper.Validate(5*time.Minute))
}
