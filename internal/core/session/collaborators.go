package session

import (
	"time"

	"tomatotimer/internal/core/animation"
	"tomatotimer/internal/core/layout"
)

// Handle identifies a particle inside a render sink.
type Handle int

// DurationSource supplies the requested run length. Malformed input must be
// reported as zero.
type DurationSource interface {
	RequestedDuration() time.Duration
}

// DurationFunc adapts a function to DurationSource.
type DurationFunc func() time.Duration

// RequestedDuration calls f.
func (f DurationFunc) RequestedDuration() time.Duration {
	return f()
}

// Display shows the countdown text and the completion marker.
type Display interface {
	SetDisplayText(text string)
	SetCompletionVisible(visible bool)
}

// RenderSink draws particles. Its methods are called with controller and
// scheduler locks held and must not call back into the controller.
type RenderSink interface {
	CreateParticle(particle layout.Particle) Handle
	ApplyTrajectory(handle Handle, assignment animation.Assignment)
	// Hold freezes every particle at its current pose.
	Hold()
	RemoveAll()
}
