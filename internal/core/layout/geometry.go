package layout

import (
	"math"
	"math/rand"
)

// Point is a position in shape units. The origin is the shape centre and Y
// grows downwards, matching screen coordinates.
type Point struct {
	X float64
	Y float64
}

// Polar builds a point from a radius and an angle in radians.
func Polar(radius, angle float64) Point {
	return Point{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)}
}

// Add returns the component-wise sum.
func (point Point) Add(other Point) Point {
	return Point{X: point.X + other.X, Y: point.Y + other.Y}
}

// Radius returns the distance from the origin.
func (point Point) Radius() float64 {
	return math.Hypot(point.X, point.Y)
}

// Angle returns the polar angle in radians.
func (point Point) Angle() float64 {
	return math.Atan2(point.Y, point.X)
}

// Lerp interpolates linearly towards other.
func (point Point) Lerp(other Point, t float64) Point {
	return Point{
		X: point.X + (other.X-point.X)*t,
		Y: point.Y + (other.Y-point.Y)*t,
	}
}

// Range defines a float range with random sampling.
type Range struct {
	Min float64
	Max float64
}

// Symmetric returns the range [-extent, extent].
func Symmetric(extent float64) Range {
	return Range{Min: -extent, Max: extent}
}

// Random returns a uniform sample within the range.
func (value Range) Random(rng *rand.Rand) float64 {
	if value.Max <= value.Min {
		return value.Min
	}
	return value.Min + rng.Float64()*(value.Max-value.Min)
}

// shortestArc returns the signed angular difference to - from in (-π, π].
func shortestArc(from, to float64) float64 {
	diff := math.Mod(to-from, 2*math.Pi)
	if diff > math.Pi {
		diff -= 2 * math.Pi
	}
	if diff <= -math.Pi {
		diff += 2 * math.Pi
	}
	return diff
}
