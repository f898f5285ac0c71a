package animation

import (
	"fmt"
	"strings"
	"time"

	"tomatotimer/internal/core/layout"
)

// Policy selects how particle start times are spread over a run.
type Policy int

const (
	// PolicyStaggered starts particle i after i*Step.
	PolicyStaggered Policy = iota
	// PolicyProportional spreads starts over 1% of the run duration.
	PolicyProportional
	// PolicySimultaneous starts every particle at once with the full duration.
	PolicySimultaneous
)

func (policy Policy) String() string {
	switch policy {
	case PolicyStaggered:
		return "staggered"
	case PolicyProportional:
		return "proportional"
	case PolicySimultaneous:
		return "simultaneous"
	default:
		return fmt.Sprintf("policy(%d)", int(policy))
	}
}

// ParsePolicy resolves a configured policy name.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "staggered", "":
		return PolicyStaggered, nil
	case "proportional":
		return PolicyProportional, nil
	case "simultaneous":
		return PolicySimultaneous, nil
	default:
		return PolicyStaggered, fmt.Errorf("unknown scheduling policy %q", name)
	}
}

// Config contains scheduling options.
type Config struct {
	Policy Policy
	Step   time.Duration
}

// Assignment is one particle's scheduled motion.
type Assignment struct {
	ID       int
	Delay    time.Duration
	Duration time.Duration
	// StartProgress is the fraction of the trajectory already travelled when
	// the motion begins; non-zero only after a resume.
	StartProgress float64
	Trajectory    Trajectory
}

// End returns the offset at which the motion finishes.
func (assignment Assignment) End() time.Duration {
	return assignment.Delay + assignment.Duration
}

// Plan assigns delays and durations so every particle that starts before
// total finishes exactly at total. Particles whose delay reaches total get a
// zero duration.
func Plan(particles []layout.Particle, total time.Duration, config Config) []Assignment {
	if len(particles) == 0 {
		return nil
	}
	if total < 0 {
		total = 0
	}

	plan := make([]Assignment, len(particles))
	for i, particle := range particles {
		delay := delayFor(i, len(particles), total, config)
		duration := total - delay
		if duration < 0 {
			duration = 0
		}
		plan[i] = Assignment{
			ID:         particle.ID,
			Delay:      delay,
			Duration:   duration,
			Trajectory: TrajectoryOf(particle),
		}
	}
	return plan
}

func delayFor(index, count int, total time.Duration, config Config) time.Duration {
	switch config.Policy {
	case PolicySimultaneous:
		return 0
	case PolicyProportional:
		return time.Duration(float64(index) * float64(total) / 100 / float64(count))
	default:
		step := config.Step
		if step < 0 {
			step = 0
		}
		return time.Duration(index) * step
	}
}

// Resume re-bases a plan interrupted after elapsed. Particles not yet
// started keep their duration and lose elapsed of delay; started ones
// continue immediately from the progress they had reached. The common finish
// line moves to the original end minus elapsed.
func Resume(plan []Assignment, elapsed time.Duration) []Assignment {
	if len(plan) == 0 {
		return nil
	}
	if elapsed < 0 {
		elapsed = 0
	}

	resumed := make([]Assignment, len(plan))
	for i, assignment := range plan {
		if elapsed < assignment.Delay {
			assignment.Delay -= elapsed
			resumed[i] = assignment
			continue
		}

		travelled := elapsed - assignment.Delay
		progress := 1.0
		if assignment.Duration > 0 && travelled < assignment.Duration {
			progress = assignment.StartProgress +
				(1-assignment.StartProgress)*float64(travelled)/float64(assignment.Duration)
		}
		remaining := assignment.Duration - travelled
		if remaining < 0 {
			remaining = 0
		}

		assignment.Delay = 0
		assignment.Duration = remaining
		assignment.StartProgress = progress
		resumed[i] = assignment
	}
	return resumed
}
