package preferences

import (
	"time"

	"tomatotimer/internal/core/animation"
	"tomatotimer/internal/core/layout"
	"tomatotimer/internal/core/model"
)

// Settings defines editable user preferences.
type Settings struct {
	Duration     time.Duration
	DurationUnit Unit

	Shape         string
	Policy        string
	ParticleCount int // 0 uses the shape's default
	Step          time.Duration

	MaxDuration time.Duration
	LogLevel    string
}

// DefaultSettings returns default settings for TomatoTimer.
func DefaultSettings() Settings {
	return Settings{
		Duration:     30 * time.Second,
		DurationUnit: UnitSeconds,
		Shape:        layout.ProfileFace,
		Policy:       animation.PolicyStaggered.String(),
		Step:         animation.DefaultStep,
		MaxDuration:  model.DefaultMaxDuration,
		LogLevel:     "info",
	}
}

// SessionConfig converts settings to a session configuration.
func (settings Settings) SessionConfig() model.SessionConfig {
	config := model.DefaultSessionConfig()
	if settings.MaxDuration > 0 {
		config.Clock.MaxDuration = settings.MaxDuration
	}
	if settings.Shape != "" {
		config.Choreography.Shape = settings.Shape
	}
	if settings.Policy != "" {
		config.Choreography.Policy = settings.Policy
	}
	if settings.ParticleCount > 0 {
		config.Choreography.ParticleCount = settings.ParticleCount
	}
	if settings.Step > 0 {
		config.Choreography.Step = settings.Step
	}
	return config
}
