package layout

import (
	"math"
	"math/rand"
	"sort"
	"time"
)

// Generator builds particle layouts. It keeps no state between calls besides
// its random stream and is not safe for concurrent use.
type Generator struct {
	rng *rand.Rand
}

// New creates a generator drawing from src. A nil source is seeded from the
// current time.
func New(src rand.Source) *Generator {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Generator{rng: rand.New(src)}
}

// Generate returns exactly n particles for the profile. hint is the run
// duration; it only feeds each particle's DurationHint.
func (generator *Generator) Generate(n int, profile ShapeProfile, hint time.Duration) []Particle {
	if n <= 0 {
		return nil
	}

	finals, regions := generator.finals(n, profile)
	durationHint := time.Duration(float64(hint) * profile.HintFraction)

	particles := make([]Particle, n)
	for id := range particles {
		particle := Particle{
			ID:            id,
			Region:        regions[id],
			Final:         finals[id],
			StartRotation: profile.StartRotation.Random(generator.rng),
			MidRotation:   profile.MidRotation.Random(generator.rng),
			DurationHint:  durationHint,
		}
		if profile.Fill != nil {
			particle.FinalRotation = profile.Fill.FinalRotation.Random(generator.rng)
		}
		particle.Start = Polar(profile.StartRadius.Random(generator.rng), generator.rng.Float64()*2*math.Pi)
		particle.Mid = generator.midpoint(particle.Start, particle.Final, profile)
		particles[id] = particle
	}
	return particles
}

func (generator *Generator) finals(n int, profile ShapeProfile) ([]Point, []Region) {
	finals := make([]Point, n)
	regions := make([]Region, n)

	if profile.Fill != nil {
		for id, point := range generator.fill(n, *profile.Fill) {
			finals[id] = point
			regions[id] = RegionFill
		}
		return finals, regions
	}

	spans := profile.Spans(n)
	for i, span := range spans {
		spec := profile.Regions[i]
		for id := span.Lo; id < span.Hi; id++ {
			local := id - span.Lo
			slot := Slot{
				T:     float64(local) / float64(span.Len()),
				Index: local,
				Count: span.Len(),
			}
			finals[id] = clampRadius(spec.Place(slot, generator.rng), profile.MaxRadius)
			regions[id] = span.Region
		}
	}
	return finals, regions
}

// fill picks the n grid points closest to the centre from the smallest grid
// that has enough of them, then nudges each by a uniform push on both axes.
func (generator *Generator) fill(n int, fill GridFill) []Point {
	side := int(math.Ceil(math.Sqrt(4 * float64(n) / math.Pi)))
	if side < 1 {
		side = 1
	}
	points := fill.gridPoints(side)
	for len(points) < n {
		side++
		points = fill.gridPoints(side)
	}

	order := make([]int, len(points))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return points[order[a]].Radius() < points[order[b]].Radius()
	})
	chosen := order[:n]
	sort.Ints(chosen)

	out := make([]Point, n)
	for i, index := range chosen {
		push := Symmetric(fill.Push).Random(generator.rng)
		out[i] = points[index].Add(Point{X: push, Y: push})
	}
	return out
}

// midpoint averages start and final in polar form along the shortest arc,
// then perturbs angle and radius independently.
func (generator *Generator) midpoint(start, final Point, profile ShapeProfile) Point {
	startAngle := start.Angle()
	angle := startAngle + shortestArc(startAngle, final.Angle())/2
	angle += (generator.rng.Float64() - 0.5) * profile.MidSwing * math.Pi

	radius := (start.Radius()+final.Radius())/2 +
		(generator.rng.Float64()-0.5)*profile.MidRadiusJitter
	if radius < 0 {
		radius = 0
	}
	return Polar(radius, angle)
}

func clampRadius(point Point, limit float64) Point {
	if limit <= 0 {
		return point
	}
	radius := point.Radius()
	if radius <= limit {
		return point
	}
	scale := limit / radius
	return Point{X: point.X * scale, Y: point.Y * scale}
}
