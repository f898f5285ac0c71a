package session

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tomatotimer/internal/core/animation"
	"tomatotimer/internal/core/clock"
	"tomatotimer/internal/core/layout"
	"tomatotimer/internal/core/model"
	"tomatotimer/internal/core/timefmt"
	"tomatotimer/internal/core/timekeeper"
	xlog "tomatotimer/internal/log"
)

// ErrInvalidDuration is returned by Start when the requested duration is out
// of range. The session state is left untouched.
var ErrInvalidDuration = timekeeper.ErrInvalidDuration

// Dependencies are the collaborators injected into a Controller.
type Dependencies struct {
	Clock   clock.Clock
	Rand    rand.Source
	Input   DurationSource
	Display Display
	Sink    RenderSink
	Logger  *zerolog.Logger
}

// Controller owns one countdown session: it generates the particle layout,
// schedules trajectories, drives the frame loop and finalizes the run.
type Controller struct {
	mu        sync.Mutex
	config    model.SessionConfig
	clock     clock.Clock
	keeper    *timekeeper.TimeKeeper
	generator *layout.Generator
	scheduler *animation.Scheduler
	input     DurationSource
	display   Display
	sink      RenderSink
	logger    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	runID     string
	particles []layout.Particle
	handles   []Handle
	plan      []animation.Assignment
	planTotal time.Duration

	frame    clock.Timer
	frameGen uint64
}

// New creates an idle controller.
func New(config model.SessionConfig, deps Dependencies) *Controller {
	source := deps.Clock
	if source == nil {
		source = clock.System
	}
	logger := xlog.WithComponent("session")
	if deps.Logger != nil {
		logger = *deps.Logger
	}
	display := deps.Display
	if display == nil {
		display = nopDisplay{}
	}
	sink := deps.Sink
	if sink == nil {
		sink = nopSink{}
	}

	config = normalize(config)
	ctx, cancel := context.WithCancel(context.Background())
	controller := &Controller{
		config:    config,
		clock:     source,
		keeper:    timekeeper.New(config.Clock, source),
		generator: layout.New(deps.Rand),
		input:     deps.Input,
		display:   display,
		sink:      sink,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
	controller.scheduler = animation.New(controller.schedulingConfig(config.Choreography), source)
	return controller
}

// Start begins a new run from Idle or Completed, or resumes a paused one.
// It does nothing while a run is in progress.
func (controller *Controller) Start() error {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	switch controller.keeper.State() {
	case timekeeper.StateRunning:
		controller.logger.Debug().Str(xlog.FieldEvent, "session.start_ignored").Msg("already running")
		return nil
	case timekeeper.StatePaused:
		return controller.resumeLocked()
	}

	var duration time.Duration
	if controller.input != nil {
		duration = controller.input.RequestedDuration()
	}
	if err := controller.keeper.Validate(duration); err != nil {
		controller.logger.Debug().
			Err(err).
			Str(xlog.FieldEvent, "session.start_rejected").
			Msg("requested duration rejected")
		return err
	}

	if controller.keeper.State() == timekeeper.StateCompleted {
		controller.discardRunLocked()
	}

	profile := controller.profile()
	count := controller.config.Choreography.ParticleCount
	if count <= 0 {
		count = profile.DefaultCount
	}

	particles := controller.generator.Generate(count, profile, duration)
	handles := make([]Handle, len(particles))
	for i, particle := range particles {
		handles[i] = controller.sink.CreateParticle(particle)
	}

	schedConfig := controller.scheduler.Config()
	plan := animation.Plan(particles, duration, schedConfig)

	if err := controller.keeper.Start(duration); err != nil {
		controller.sink.RemoveAll()
		return err
	}

	controller.runID = uuid.NewString()
	controller.particles = particles
	controller.handles = handles
	controller.plan = plan
	controller.planTotal = duration
	controller.scheduler.Run(controller.ctx, plan, controller.applier(handles))

	controller.logger.Info().
		Str(xlog.FieldEvent, "session.started").
		Str(xlog.FieldRunID, controller.runID).
		Dur(xlog.FieldDuration, duration).
		Str(xlog.FieldShape, profile.Name).
		Str(xlog.FieldPolicy, schedConfig.Policy.String()).
		Int(xlog.FieldParticles, len(particles)).
		Msg("countdown started")

	controller.frameGen++
	controller.tickLocked(controller.frameGen)
	return nil
}

// Stop pauses a running session. Pending particle triggers and the frame
// loop are revoked before it returns.
func (controller *Controller) Stop() {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	if controller.keeper.State() != timekeeper.StateRunning {
		controller.logger.Debug().Str(xlog.FieldEvent, "session.stop_ignored").Msg("not running")
		return
	}

	controller.keeper.Pause()
	controller.stopFrameLocked()
	controller.scheduler.Cancel()
	controller.sink.Hold()

	remaining := controller.keeper.Snapshot().Remaining
	controller.plan = animation.Resume(controller.plan, controller.planTotal-remaining)
	controller.planTotal = remaining
	controller.display.SetDisplayText(timefmt.Format(remaining))

	controller.logger.Info().
		Str(xlog.FieldEvent, "session.paused").
		Str(xlog.FieldRunID, controller.runID).
		Dur(xlog.FieldRemaining, remaining).
		Msg("countdown paused")
}

// Reset cancels everything in flight and returns to Idle.
func (controller *Controller) Reset() {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	previous := controller.keeper.State()
	controller.stopFrameLocked()
	controller.scheduler.Cancel()
	controller.keeper.Reset()
	controller.discardRunLocked()
	controller.display.SetDisplayText(timefmt.FormatOptional(nil))

	event := controller.logger.Info()
	if previous == timekeeper.StateIdle {
		event = controller.logger.Debug()
	}
	event.
		Str(xlog.FieldEvent, "session.reset").
		Str(xlog.FieldOldState, string(previous)).
		Str(xlog.FieldNewState, string(timekeeper.StateIdle)).
		Msg("session reset")
	controller.runID = ""
}

// UpdateConfig replaces the configuration used by subsequent runs.
func (controller *Controller) UpdateConfig(config model.SessionConfig) {
	config = normalize(config)
	controller.mu.Lock()
	defer controller.mu.Unlock()

	controller.config = config
	controller.keeper.UpdateConfig(config.Clock)
	controller.scheduler.SetConfig(controller.schedulingConfig(config.Choreography))
}

// State returns the session state.
func (controller *Controller) State() timekeeper.State {
	return controller.keeper.State()
}

// Snapshot returns the countdown state without advancing it.
func (controller *Controller) Snapshot() timekeeper.Event {
	return controller.keeper.Snapshot()
}

// Particles returns a copy of the current run's particles.
func (controller *Controller) Particles() []layout.Particle {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return append([]layout.Particle(nil), controller.particles...)
}

// Subscribe registers an observer for countdown events.
func (controller *Controller) Subscribe(buffer int) <-chan timekeeper.Event {
	return controller.keeper.Subscribe(buffer)
}

// Close stops all activity and closes observer channels.
func (controller *Controller) Close() {
	controller.mu.Lock()
	controller.stopFrameLocked()
	controller.scheduler.Cancel()
	controller.cancel()
	controller.mu.Unlock()

	controller.keeper.Close()
}

func (controller *Controller) resumeLocked() error {
	if err := controller.keeper.Start(0); err != nil {
		return err
	}
	controller.scheduler.Run(controller.ctx, controller.plan, controller.applier(controller.handles))

	controller.logger.Info().
		Str(xlog.FieldEvent, "session.resumed").
		Str(xlog.FieldRunID, controller.runID).
		Dur(xlog.FieldRemaining, controller.planTotal).
		Msg("countdown resumed")

	controller.frameGen++
	controller.tickLocked(controller.frameGen)
	return nil
}

func (controller *Controller) tickLocked(generation uint64) {
	if generation != controller.frameGen {
		return
	}
	controller.frame = nil

	event := controller.keeper.Tick()
	controller.display.SetDisplayText(timefmt.Format(event.Remaining))

	if event.Type == timekeeper.EventCompleted {
		controller.finalizeLocked()
		return
	}
	if event.State != timekeeper.StateRunning {
		return
	}
	controller.frame = controller.clock.AfterFunc(controller.config.FrameInterval, func() {
		controller.mu.Lock()
		defer controller.mu.Unlock()
		controller.tickLocked(generation)
	})
}

func (controller *Controller) finalizeLocked() {
	controller.scheduler.Flush()
	controller.display.SetCompletionVisible(true)

	controller.logger.Info().
		Str(xlog.FieldEvent, "session.completed").
		Str(xlog.FieldRunID, controller.runID).
		Msg("countdown completed")
}

func (controller *Controller) stopFrameLocked() {
	controller.frameGen++
	if controller.frame != nil {
		controller.frame.Stop()
		controller.frame = nil
	}
}

func (controller *Controller) discardRunLocked() {
	controller.sink.RemoveAll()
	controller.display.SetCompletionVisible(false)
	controller.particles = nil
	controller.handles = nil
	controller.plan = nil
	controller.planTotal = 0
}

func (controller *Controller) applier(handles []Handle) func(animation.Assignment) {
	sink := controller.sink
	return func(assignment animation.Assignment) {
		if assignment.ID < 0 || assignment.ID >= len(handles) {
			return
		}
		sink.ApplyTrajectory(handles[assignment.ID], assignment)
	}
}

func (controller *Controller) profile() layout.ShapeProfile {
	profile, ok := layout.ProfileByName(controller.config.Choreography.Shape)
	if !ok {
		controller.logger.Warn().
			Str(xlog.FieldShape, controller.config.Choreography.Shape).
			Msg("unknown shape, using face")
	}
	return profile
}

func (controller *Controller) schedulingConfig(choreography model.ChoreographyConfig) animation.Config {
	policy, err := animation.ParsePolicy(choreography.Policy)
	if err != nil {
		controller.logger.Warn().Err(err).Msg("falling back to staggered scheduling")
	}
	return animation.Config{Policy: policy, Step: choreography.Step}
}

func normalize(config model.SessionConfig) model.SessionConfig {
	if config.FrameInterval <= 0 {
		config.FrameInterval = time.Second / model.DefaultFrameRate
	}
	if config.Choreography.Step <= 0 {
		config.Choreography.Step = animation.DefaultStep
	}
	return config
}

type nopDisplay struct{}

func (nopDisplay) SetDisplayText(string)     {}
func (nopDisplay) SetCompletionVisible(bool) {}

type nopSink struct{}

func (nopSink) CreateParticle(layout.Particle) Handle        { return 0 }
func (nopSink) ApplyTrajectory(Handle, animation.Assignment) {}
func (nopSink) Hold()                                        {}
func (nopSink) RemoveAll()                                   {}
