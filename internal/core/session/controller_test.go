package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"tomatotimer/internal/core/animation"
	"tomatotimer/internal/core/clock"
	"tomatotimer/internal/core/layout"
	"tomatotimer/internal/core/model"
	"tomatotimer/internal/core/timefmt"
	"tomatotimer/internal/core/timekeeper"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var origin = time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)

type recorder struct {
	mu          sync.Mutex
	created     []layout.Particle
	applied     []animation.Assignment
	holds       int
	removals    int
	texts       []string
	completions []bool
}

func (r *recorder) CreateParticle(particle layout.Particle) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, particle)
	return Handle(len(r.created) - 1)
}

func (r *recorder) ApplyTrajectory(_ Handle, assignment animation.Assignment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, assignment)
}

func (r *recorder) Hold() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.holds++
}

func (r *recorder) RemoveAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removals++
}

func (r *recorder) SetDisplayText(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
}

func (r *recorder) SetCompletionVisible(visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completions = append(r.completions, visible)
}

func (r *recorder) appliedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.applied)
}

func (r *recorder) lastText() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.texts) == 0 {
		return ""
	}
	return r.texts[len(r.texts)-1]
}

func (r *recorder) textCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.texts)
}

type requested struct {
	mu       sync.Mutex
	duration time.Duration
}

func (input *requested) RequestedDuration() time.Duration {
	input.mu.Lock()
	defer input.mu.Unlock()
	return input.duration
}

func (input *requested) set(duration time.Duration) {
	input.mu.Lock()
	input.duration = duration
	input.mu.Unlock()
}

func newController(t *testing.T, duration time.Duration, particles int) (*Controller, *recorder, *clock.Fake, *requested) {
	t.Helper()
	fake := clock.NewFake(origin)
	sink := &recorder{}
	input := &requested{duration: duration}
	logger := zerolog.New(io.Discard)

	config := model.DefaultSessionConfig()
	config.Choreography.ParticleCount = particles
	config.FrameInterval = 16 * time.Millisecond

	controller := New(config, Dependencies{
		Clock:   fake,
		Rand:    rand.NewSource(99),
		Input:   input,
		Display: sink,
		Sink:    sink,
		Logger:  &logger,
	})
	t.Cleanup(controller.Close)
	return controller, sink, fake, input
}

func TestStartTickAndCompleteOnce(t *testing.T) {
	controller, sink, fake, _ := newController(t, 5*time.Second, 120)

	require.NoError(t, controller.Start())
	assert.Equal(t, timekeeper.StateRunning, controller.State())
	assert.Equal(t, "5.00s", sink.lastText())
	assert.Len(t, sink.created, 120)
	assert.Len(t, controller.Particles(), 120)

	fake.Advance(2500 * time.Millisecond)
	assert.Equal(t, "2.50s", sink.lastText())

	fake.Advance(2600 * time.Millisecond)
	assert.Equal(t, timekeeper.StateCompleted, controller.State())
	assert.Equal(t, "0.00s", sink.lastText())
	assert.Equal(t, []bool{true}, sink.completions)

	texts := sink.textCount()
	fake.Advance(10 * time.Second)
	assert.Equal(t, texts, sink.textCount(), "no frame may run after completion")
	assert.Equal(t, []bool{true}, sink.completions)
	assert.Zero(t, fake.Pending())
}

func TestEveryParticleMovesExactlyOnce(t *testing.T) {
	// 750 * 5ms outruns the 1s run, so the tail is flushed at completion
	controller, sink, fake, _ := newController(t, time.Second, 750)

	require.NoError(t, controller.Start())
	fake.Advance(time.Second + 20*time.Millisecond)
	require.Equal(t, timekeeper.StateCompleted, controller.State())

	require.Equal(t, 750, sink.appliedCount())
	seen := map[int]bool{}
	for _, assignment := range sink.applied {
		assert.False(t, seen[assignment.ID], "particle %d applied twice", assignment.ID)
		seen[assignment.ID] = true
	}
}

func TestTicksAreMonotonic(t *testing.T) {
	controller, sink, fake, _ := newController(t, 3*time.Second, 10)
	require.NoError(t, controller.Start())

	for i := 0; i < 40; i++ {
		fake.Advance(97 * time.Millisecond)
		if i == 10 {
			controller.Stop()
		}
		if i == 20 {
			require.NoError(t, controller.Start())
		}
	}

	var previous time.Duration = 1 << 62
	for _, text := range sink.texts {
		remaining, err := parseDisplay(text)
		require.NoError(t, err, text)
		assert.LessOrEqual(t, remaining, previous, text)
		previous = remaining
	}
}

func parseDisplay(text string) (time.Duration, error) {
	var seconds, hundredths int
	var minutes int
	if n, _ := fmt.Sscanf(text, "%d:%02d.%02d", &minutes, &seconds, &hundredths); n == 3 {
		return time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second + time.Duration(hundredths)*10*time.Millisecond, nil
	}
	if _, err := fmt.Sscanf(text, "%d.%02ds", &seconds, &hundredths); err != nil {
		return 0, err
	}
	return time.Duration(seconds)*time.Second + time.Duration(hundredths)*10*time.Millisecond, nil
}

func TestResetCancelsPendingTriggers(t *testing.T) {
	controller, sink, fake, _ := newController(t, 10*time.Second, 750)

	require.NoError(t, controller.Start())
	fake.Advance(100 * time.Millisecond)
	before := sink.appliedCount()
	require.Greater(t, before, 0)
	require.Less(t, before, 750)

	controller.Reset()
	assert.Equal(t, timekeeper.StateIdle, controller.State())
	assert.Equal(t, "--:--", sink.lastText())
	assert.Equal(t, 1, sink.removals)
	assert.Equal(t, []bool{false}, sink.completions)
	assert.Empty(t, controller.Particles())
	assert.Zero(t, fake.Pending())

	texts := sink.textCount()
	fake.Advance(time.Minute)
	assert.Equal(t, before, sink.appliedCount(), "no trajectory may be applied after reset")
	assert.Equal(t, texts, sink.textCount())
}

func TestInvalidDurationIsAbsorbed(t *testing.T) {
	controller, sink, fake, input := newController(t, 0, 50)

	err := controller.Start()
	assert.ErrorIs(t, err, ErrInvalidDuration)
	assert.Equal(t, timekeeper.StateIdle, controller.State())
	assert.Empty(t, sink.created)
	assert.Empty(t, sink.texts)

	input.set(5*time.Minute + time.Second)
	assert.ErrorIs(t, controller.Start(), ErrInvalidDuration)
	assert.Equal(t, timekeeper.StateIdle, controller.State())

	fake.Advance(time.Second)
	assert.Zero(t, sink.appliedCount())
}

func TestPauseResumeContinuesFromRemaining(t *testing.T) {
	controller, sink, fake, input := newController(t, 10*time.Second, 750)

	require.NoError(t, controller.Start())
	fake.Advance(2 * time.Second)
	controller.Stop()
	assert.Equal(t, timekeeper.StatePaused, controller.State())
	assert.Equal(t, 1, sink.holds)
	assert.Equal(t, "8.00s", sink.lastText())

	applied := sink.appliedCount()
	texts := sink.textCount()
	fake.Advance(time.Minute)
	assert.Equal(t, applied, sink.appliedCount())
	assert.Equal(t, texts, sink.textCount())

	controller.Stop()
	assert.Equal(t, 1, sink.holds)

	input.set(time.Second)
	require.NoError(t, controller.Start())
	assert.Equal(t, timekeeper.StateRunning, controller.State())
	assert.Equal(t, "8.00s", sink.lastText())

	fake.Advance(3 * time.Second)
	assert.Equal(t, "5.00s", sink.lastText())

	fake.Advance(5100 * time.Millisecond)
	assert.Equal(t, timekeeper.StateCompleted, controller.State())
	assert.Equal(t, []bool{true}, sink.completions)

	// every resumed assignment lands on the shared finish line
	for _, assignment := range sink.applied[applied:] {
		if assignment.Duration > 0 {
			assert.Equal(t, 8*time.Second, assignment.End())
		}
	}
}

func TestStartWhileRunningIsNoOp(t *testing.T) {
	controller, sink, fake, input := newController(t, 2*time.Second, 20)

	require.NoError(t, controller.Start())
	fake.Advance(500 * time.Millisecond)
	input.set(time.Minute)
	require.NoError(t, controller.Start())

	assert.Len(t, sink.created, 20)
	assert.Equal(t, "1.50s", sink.lastText())
}

func TestRestartAfterCompletionRegenerates(t *testing.T) {
	controller, sink, fake, _ := newController(t, time.Second, 30)

	require.NoError(t, controller.Start())
	first := controller.Particles()
	fake.Advance(1100 * time.Millisecond)
	require.Equal(t, timekeeper.StateCompleted, controller.State())

	require.NoError(t, controller.Start())
	assert.Equal(t, timekeeper.StateRunning, controller.State())
	assert.Equal(t, 1, sink.removals)
	assert.Equal(t, []bool{true, false}, sink.completions)
	assert.Len(t, sink.created, 60)

	second := controller.Particles()
	require.Len(t, second, 30)
	assert.NotEqual(t, first, second)
}

func TestUpdateConfigAppliesToNextRun(t *testing.T) {
	controller, sink, fake, _ := newController(t, time.Second, 0)

	config := model.DefaultSessionConfig()
	config.Choreography.Shape = layout.ProfileCircle
	config.Choreography.Policy = "simultaneous"
	controller.UpdateConfig(config)

	require.NoError(t, controller.Start())
	assert.Len(t, sink.created, layout.PlainCircle().DefaultCount)
	for _, particle := range sink.created {
		assert.Equal(t, layout.RegionFill, particle.Region)
	}

	fake.Advance(0)
	assert.Equal(t, layout.PlainCircle().DefaultCount, sink.appliedCount())
	for _, assignment := range sink.applied {
		assert.Zero(t, assignment.Delay)
		assert.Equal(t, time.Second, assignment.Duration)
	}
}

func TestResetLogLevelFollowsPreviousState(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	sink := &recorder{}
	fake := clock.NewFake(origin)

	config := model.DefaultSessionConfig()
	config.Choreography.ParticleCount = 5
	config.FrameInterval = 16 * time.Millisecond
	controller := New(config, Dependencies{
		Clock:   fake,
		Rand:    rand.NewSource(7),
		Input:   &requested{duration: time.Second},
		Display: sink,
		Sink:    sink,
		Logger:  &logger,
	})
	t.Cleanup(controller.Close)

	resetLevels := func() []string {
		var levels []string
		for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
			var entry map[string]any
			require.NoError(t, json.Unmarshal(line, &entry))
			if entry["event"] == "session.reset" {
				levels = append(levels, entry["level"].(string))
			}
		}
		return levels
	}

	controller.Reset()
	assert.Equal(t, timefmt.FormatOptional(nil), sink.lastText())

	require.NoError(t, controller.Start())
	controller.Reset()

	assert.Equal(t, []string{"debug", "info"}, resetLevels())
}
