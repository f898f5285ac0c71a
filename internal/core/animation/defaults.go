package animation

import "time"

// DefaultStep is the fixed per-particle stagger of the staggered policy.
const DefaultStep = 5 * time.Millisecond

// DefaultConfig returns the fixed 5ms stagger.
func DefaultConfig() Config {
	return Config{
		Policy: PolicyStaggered,
		Step:   DefaultStep,
	}
}
