package model

import "time"

// Duration limits for a countdown run.
const (
	DefaultMaxDuration = 5 * time.Minute
	DefaultFrameRate   = 60
)

// ClockConfig contains runtime settings for the countdown clock.
type ClockConfig struct {
	MaxDuration      time.Duration
	ProgressInterval time.Duration
}

// ChoreographyConfig selects the target shape and how particles are staggered.
type ChoreographyConfig struct {
	Shape         string
	ParticleCount int // 0 uses the shape's default count
	Policy        string
	Step          time.Duration
}

// SessionConfig contains everything a session controller needs for a run.
type SessionConfig struct {
	Clock         ClockConfig
	Choreography  ChoreographyConfig
	FrameInterval time.Duration
}

// DefaultSessionConfig returns a 5 minute ceiling, the face shape and a
// 60 fps frame loop.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Clock: ClockConfig{
			MaxDuration:      DefaultMaxDuration,
			ProgressInterval: time.Second,
		},
		Choreography: ChoreographyConfig{
			Shape:  "face",
			Policy: "staggered",
			Step:   5 * time.Millisecond,
		},
		FrameInterval: time.Second / DefaultFrameRate,
	}
}
