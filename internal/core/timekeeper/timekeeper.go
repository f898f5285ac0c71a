package timekeeper

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"tomatotimer/internal/core/clock"
	"tomatotimer/internal/core/model"
)

// ErrInvalidDuration indicates a requested run length outside (0, MaxDuration].
var ErrInvalidDuration = errors.New("invalid duration")

// TimeKeeper is a wall-clock countdown state machine. Remaining time is
// always derived from the distance between now and the effective start, so
// late or dropped ticks never accumulate drift.
type TimeKeeper struct {
	mu               sync.Mutex
	config           model.ClockConfig
	clock            clock.Clock
	state            State
	duration         time.Duration
	startedAt        time.Time
	pausedRemaining  time.Duration
	hasPaused        bool
	events           []chan Event
	lastProgressSent time.Time
}

// New creates an idle TimeKeeper. A nil clock uses the system clock.
func New(config model.ClockConfig, source clock.Clock) *TimeKeeper {
	if source == nil {
		source = clock.System
	}
	return &TimeKeeper{
		config: normalize(config),
		clock:  source,
		state:  StateIdle,
	}
}

// Subscribe registers a new observer channel.
func (keeper *TimeKeeper) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	keeper.mu.Lock()
	keeper.events = append(keeper.events, ch)
	keeper.mu.Unlock()
	return ch
}

// Close closes every observer channel.
func (keeper *TimeKeeper) Close() {
	keeper.mu.Lock()
	events := keeper.events
	keeper.events = nil
	keeper.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

// UpdateConfig replaces the clock limits. A run in progress keeps its duration.
func (keeper *TimeKeeper) UpdateConfig(config model.ClockConfig) {
	keeper.mu.Lock()
	keeper.config = normalize(config)
	keeper.mu.Unlock()
}

// Validate reports whether duration is an acceptable run length.
func (keeper *TimeKeeper) Validate(duration time.Duration) error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.validateLocked(duration)
}

// Start begins a run of the given duration. From Paused it resumes and
// ignores duration; while Running it does nothing.
func (keeper *TimeKeeper) Start(duration time.Duration) error {
	keeper.mu.Lock()
	switch keeper.state {
	case StateRunning:
		keeper.mu.Unlock()
		return nil
	case StatePaused:
		keeper.resumeLocked()
		keeper.mu.Unlock()
		return nil
	}

	if err := keeper.validateLocked(duration); err != nil {
		keeper.mu.Unlock()
		return err
	}
	now := keeper.clock.Now()
	keeper.state = StateRunning
	keeper.duration = duration
	keeper.startedAt = now
	keeper.clearPauseLocked()
	keeper.lastProgressSent = time.Time{}
	keeper.emitLocked(Event{
		Type:      EventStateChange,
		State:     StateRunning,
		Duration:  duration,
		Remaining: duration,
		At:        now,
	})
	keeper.mu.Unlock()
	return nil
}

// Pause freezes the remaining time. Only valid while Running.
func (keeper *TimeKeeper) Pause() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.state != StateRunning {
		return
	}

	now := keeper.clock.Now()
	remaining := keeper.remainingLocked(now)
	keeper.state = StatePaused
	keeper.pausedRemaining = remaining
	keeper.hasPaused = true
	keeper.emitLocked(Event{
		Type:      EventStateChange,
		State:     StatePaused,
		Duration:  keeper.duration,
		Remaining: remaining,
		Progress:  keeper.progressLocked(remaining),
		At:        now,
	})
}

// Resume continues a paused run so that elapsed time picks up where it
// stopped. Only valid while Paused.
func (keeper *TimeKeeper) Resume() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.state != StatePaused {
		return
	}
	keeper.resumeLocked()
}

// Reset discards the run and returns to Idle.
func (keeper *TimeKeeper) Reset() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	wasIdle := keeper.state == StateIdle
	keeper.state = StateIdle
	keeper.duration = 0
	keeper.startedAt = time.Time{}
	keeper.clearPauseLocked()
	keeper.lastProgressSent = time.Time{}
	if !wasIdle {
		keeper.emitLocked(Event{
			Type:  EventStateChange,
			State: StateIdle,
			At:    keeper.clock.Now(),
		})
	}
}

// Tick recomputes the remaining time from the wall clock. The tick that
// reaches zero moves the run to Completed and is the only one reporting
// EventCompleted.
func (keeper *TimeKeeper) Tick() Event {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	now := keeper.clock.Now()
	if keeper.state != StateRunning {
		return keeper.snapshotLocked(now, EventProgress)
	}

	remaining := keeper.remainingLocked(now)
	if remaining > 0 {
		event := keeper.snapshotLocked(now, EventProgress)
		keeper.maybeEmitProgressLocked(event)
		return event
	}

	keeper.state = StateCompleted
	event := keeper.snapshotLocked(now, EventCompleted)
	keeper.emitLocked(event)
	return event
}

// Snapshot returns the current state without advancing it.
func (keeper *TimeKeeper) Snapshot() Event {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.snapshotLocked(keeper.clock.Now(), EventProgress)
}

// State returns the current state.
func (keeper *TimeKeeper) State() State {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.state
}

func (keeper *TimeKeeper) validateLocked(duration time.Duration) error {
	if duration <= 0 || duration > keeper.config.MaxDuration {
		return fmt.Errorf("%w: %s not in (0, %s]", ErrInvalidDuration, duration, keeper.config.MaxDuration)
	}
	return nil
}

func (keeper *TimeKeeper) resumeLocked() {
	now := keeper.clock.Now()
	if keeper.hasPaused {
		keeper.startedAt = now.Add(-(keeper.duration - keeper.pausedRemaining))
	}
	keeper.clearPauseLocked()
	keeper.state = StateRunning
	remaining := keeper.remainingLocked(now)
	keeper.emitLocked(Event{
		Type:      EventStateChange,
		State:     StateRunning,
		Duration:  keeper.duration,
		Remaining: remaining,
		Progress:  keeper.progressLocked(remaining),
		At:        now,
	})
}

func (keeper *TimeKeeper) clearPauseLocked() {
	keeper.pausedRemaining = 0
	keeper.hasPaused = false
}

func (keeper *TimeKeeper) remainingLocked(now time.Time) time.Duration {
	remaining := keeper.duration - now.Sub(keeper.startedAt)
	if remaining < 0 {
		return 0
	}
	if remaining > keeper.duration {
		return keeper.duration
	}
	return remaining
}

func (keeper *TimeKeeper) snapshotLocked(now time.Time, eventType EventType) Event {
	var remaining time.Duration
	switch keeper.state {
	case StateRunning:
		remaining = keeper.remainingLocked(now)
	case StatePaused:
		remaining = keeper.pausedRemaining
	}
	return Event{
		Type:      eventType,
		State:     keeper.state,
		Duration:  keeper.duration,
		Remaining: remaining,
		Progress:  keeper.progressLocked(remaining),
		At:        now,
	}
}

func (keeper *TimeKeeper) progressLocked(remaining time.Duration) float64 {
	if keeper.state == StateCompleted {
		return 1
	}
	if keeper.duration <= 0 {
		return 0
	}
	progress := float64(keeper.duration-remaining) / float64(keeper.duration)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}

func (keeper *TimeKeeper) maybeEmitProgressLocked(event Event) {
	if keeper.lastProgressSent.IsZero() || event.At.Sub(keeper.lastProgressSent) >= keeper.config.ProgressInterval {
		keeper.emitLocked(event)
		keeper.lastProgressSent = event.At
	}
}

func (keeper *TimeKeeper) emitLocked(event Event) {
	for _, ch := range keeper.events {
		select {
		case ch <- event:
		default:
		}
	}
}

func normalize(config model.ClockConfig) model.ClockConfig {
	if config.MaxDuration <= 0 {
		config.MaxDuration = model.DefaultMaxDuration
	}
	if config.ProgressInterval <= 0 {
		config.ProgressInterval = time.Second
	}
	return config
}
