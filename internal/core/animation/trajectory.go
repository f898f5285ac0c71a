package animation

import "tomatotimer/internal/core/layout"

// Trajectory is the three-point path a particle travels during a run.
type Trajectory struct {
	Start layout.Point
	Mid   layout.Point
	Final layout.Point

	StartRotation float64
	MidRotation   float64
	FinalRotation float64
}

// Pose is a particle's position and rotation at one moment.
type Pose struct {
	Position layout.Point
	Rotation float64
}

// TrajectoryOf extracts the path of a generated particle.
func TrajectoryOf(particle layout.Particle) Trajectory {
	return Trajectory{
		Start:         particle.Start,
		Mid:           particle.Mid,
		Final:         particle.Final,
		StartRotation: particle.StartRotation,
		MidRotation:   particle.MidRotation,
		FinalRotation: particle.FinalRotation,
	}
}

// At returns the pose at progress in [0, 1]: start to mid over the first
// half, mid to final over the second. Out-of-range progress is clamped.
func (trajectory Trajectory) At(progress float64) Pose {
	if progress <= 0 {
		return Pose{Position: trajectory.Start, Rotation: trajectory.StartRotation}
	}
	if progress >= 1 {
		return Pose{Position: trajectory.Final, Rotation: trajectory.FinalRotation}
	}
	if progress < 0.5 {
		local := progress * 2
		return Pose{
			Position: trajectory.Start.Lerp(trajectory.Mid, local),
			Rotation: lerp(trajectory.StartRotation, trajectory.MidRotation, local),
		}
	}
	local := (progress - 0.5) * 2
	return Pose{
		Position: trajectory.Mid.Lerp(trajectory.Final, local),
		Rotation: lerp(trajectory.MidRotation, trajectory.FinalRotation, local),
	}
}

func lerp(from, to, t float64) float64 {
	return from + (to-from)*t
}
