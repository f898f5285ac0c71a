package animation

import (
	"context"
	"sync"

	"tomatotimer/internal/core/clock"
)

// Scheduler fires particle assignments after their delays. Assignments that
// share a delay fire from a single trigger, so the simultaneous policy arms
// exactly one.
type Scheduler struct {
	mu     sync.Mutex
	config Config
	clock  clock.Clock
	active *run
}

type run struct {
	cancel    context.CancelFunc
	stopWatch func() bool
	apply     func(Assignment)
	triggers  []*trigger
	pending   int
}

type trigger struct {
	timer clock.Timer
	batch []Assignment
	fired bool
}

// New creates a scheduler. A nil clock uses the system clock.
func New(config Config, source clock.Clock) *Scheduler {
	if source == nil {
		source = clock.System
	}
	if config.Step < 0 {
		config.Step = 0
	}
	return &Scheduler{
		config: config,
		clock:  source,
	}
}

// Config returns the scheduling options.
func (scheduler *Scheduler) Config() Config {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	return scheduler.config
}

// SetConfig replaces the scheduling options used by subsequent plans.
func (scheduler *Scheduler) SetConfig(config Config) {
	if config.Step < 0 {
		config.Step = 0
	}
	scheduler.mu.Lock()
	scheduler.config = config
	scheduler.mu.Unlock()
}

// Run cancels any in-flight run and arms triggers for plan. apply is called
// with the scheduler lock held and must not call back into the scheduler.
// Cancelling ctx cancels the run.
func (scheduler *Scheduler) Run(ctx context.Context, plan []Assignment, apply func(Assignment)) {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()

	scheduler.cancelLocked()
	if len(plan) == 0 || apply == nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	current := &run{cancel: cancel, apply: apply, pending: len(plan)}
	scheduler.active = current

	for start := 0; start < len(plan); {
		end := start + 1
		for end < len(plan) && plan[end].Delay == plan[start].Delay {
			end++
		}
		next := &trigger{batch: append([]Assignment(nil), plan[start:end]...)}
		current.triggers = append(current.triggers, next)
		next.timer = scheduler.clock.AfterFunc(plan[start].Delay, func() {
			scheduler.fire(current, next)
		})
		start = end
	}

	current.stopWatch = context.AfterFunc(runCtx, func() {
		scheduler.mu.Lock()
		defer scheduler.mu.Unlock()
		if scheduler.active == current {
			scheduler.cancelLocked()
		}
	})
}

// Cancel revokes every pending trigger. Once it returns, no assignment of
// the cancelled run is applied.
func (scheduler *Scheduler) Cancel() {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	scheduler.cancelLocked()
}

// Flush applies every pending assignment immediately with zero duration, so
// late particles land on their final pose.
func (scheduler *Scheduler) Flush() {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()

	current := scheduler.active
	if current == nil {
		return
	}
	for _, pending := range current.triggers {
		if pending.fired {
			continue
		}
		pending.fired = true
		pending.timer.Stop()
		for _, assignment := range pending.batch {
			assignment.Delay = 0
			assignment.Duration = 0
			assignment.StartProgress = 1
			current.apply(assignment)
		}
	}
	current.pending = 0
	scheduler.finishLocked()
}

// Pending reports how many assignments are waiting on their trigger.
func (scheduler *Scheduler) Pending() int {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	if scheduler.active == nil {
		return 0
	}
	return scheduler.active.pending
}

func (scheduler *Scheduler) fire(current *run, fired *trigger) {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()

	if scheduler.active != current || fired.fired {
		return
	}
	fired.fired = true
	for _, assignment := range fired.batch {
		current.apply(assignment)
	}
	current.pending -= len(fired.batch)
	if current.pending <= 0 {
		scheduler.finishLocked()
	}
}

func (scheduler *Scheduler) cancelLocked() {
	current := scheduler.active
	if current == nil {
		return
	}
	for _, pending := range current.triggers {
		if !pending.fired {
			pending.fired = true
			pending.timer.Stop()
		}
	}
	current.pending = 0
	scheduler.finishLocked()
}

func (scheduler *Scheduler) finishLocked() {
	current := scheduler.active
	if current == nil {
		return
	}
	scheduler.active = nil
	if current.stopWatch != nil {
		current.stopWatch()
	}
	current.cancel()
}
