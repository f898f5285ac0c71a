package layout

import (
	"math"
	"math/rand"
	"strings"
)

// Profile names accepted by ProfileByName.
const (
	ProfileCircle   = "circle"
	ProfileFace     = "face"
	ProfileWildFace = "wild-face"
)

// Slot identifies a particle's position inside its region.
type Slot struct {
	T     float64 // Index / Count, in [0, 1)
	Index int
	Count int
}

// RegionSpec places the particles of one region.
type RegionSpec struct {
	Region   Region
	Fraction float64
	Place    func(slot Slot, rng *rand.Rand) Point
}

// GridFill describes the plain-circle variant: grid points inside a disk,
// nudged by a uniform push and given a random resting rotation.
type GridFill struct {
	KeepRadius    float64
	Push          float64
	FinalRotation Range
}

// ShapeProfile configures the target shape and motion intensity for the
// layout generator. Exactly one of Regions or Fill is used; Fill wins.
type ShapeProfile struct {
	Name    string
	Regions []RegionSpec
	Fill    *GridFill

	StartRadius     Range
	MidSwing        float64 // multiple of π
	MidRadiusJitter float64
	StartRotation   Range
	MidRotation     Range

	HintFraction float64
	DefaultCount int
	MaxRadius    float64
}

// Spans partitions n particles across the profile's regions.
func (profile ShapeProfile) Spans(n int) []Span {
	if n <= 0 {
		return nil
	}
	if profile.Fill != nil || len(profile.Regions) == 0 {
		return []Span{{Region: RegionFill, Lo: 0, Hi: n}}
	}
	regions := make([]Region, len(profile.Regions))
	fractions := make([]float64, len(profile.Regions))
	for i, spec := range profile.Regions {
		regions[i] = spec.Region
		fractions[i] = spec.Fraction
	}
	return Partition(n, regions, fractions)
}

// ProfileByName resolves a configured profile name. Unknown names fall back
// to the face profile with ok set to false.
func ProfileByName(name string) (ShapeProfile, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProfileCircle, "tomato":
		return PlainCircle(), true
	case ProfileFace, "":
		return Face(), true
	case ProfileWildFace:
		return WildFace(), true
	default:
		return Face(), false
	}
}

// ProfileNames lists the selectable profiles in display order.
func ProfileNames() []string {
	return []string{ProfileCircle, ProfileFace, ProfileWildFace}
}

const (
	faceRadius    = 10.0
	rippleAmp     = 0.4
	rippleFreq    = 12.0
	outlineJitter = 0.2

	mouthWidth  = 8.0
	mouthHeight = 2.0
	mouthOffset = 3.0
	mouthJitter = 0.15

	eyeOffsetX  = 3.0
	eyeOffsetY  = -2.0
	eyeRadius   = 1.2
	goldenAngle = 2.399963229728653

	hairAnchorY = -6.0
	hairRadius  = 3.0
	hairDecay   = 1.6
	hairTurns   = 3.0

	circleRadius = 5.0
	circlePush   = 0.3
)

// Face returns the calm face profile.
func Face() ShapeProfile {
	return ShapeProfile{
		Name:            ProfileFace,
		Regions:         faceRegions(),
		StartRadius:     Range{Min: 16, Max: 24},
		MidSwing:        0.35,
		MidRadiusJitter: 3,
		StartRotation:   Symmetric(180),
		MidRotation:     Symmetric(90),
		HintFraction:    1,
		DefaultCount:    750,
		MaxRadius:       faceRadius + rippleAmp + outlineJitter,
	}
}

// WildFace returns the face profile with wider swings and spins.
func WildFace() ShapeProfile {
	profile := Face()
	profile.Name = ProfileWildFace
	profile.StartRadius = Range{Min: 18, Max: 30}
	profile.MidSwing = 1
	profile.MidRadiusJitter = 6
	profile.StartRotation = Symmetric(720)
	profile.MidRotation = Symmetric(360)
	return profile
}

// PlainCircle returns the filled-circle profile. Its default count comes
// from the coverage of a 6x6 grid over the disk.
func PlainCircle() ShapeProfile {
	fill := &GridFill{
		KeepRadius:    circleRadius - circlePush*math.Sqrt2,
		Push:          circlePush,
		FinalRotation: Range{Min: 0, Max: 360},
	}
	return ShapeProfile{
		Name:            ProfileCircle,
		Fill:            fill,
		StartRadius:     Range{Min: 9, Max: 14},
		MidSwing:        0.25,
		MidRadiusJitter: 2,
		StartRotation:   Symmetric(180),
		MidRotation:     Symmetric(180),
		HintFraction:    0.5,
		DefaultCount:    len(fill.gridPoints(6)),
		MaxRadius:       circleRadius,
	}
}

func faceRegions() []RegionSpec {
	return []RegionSpec{
		{Region: RegionOutline, Fraction: 0.65, Place: placeOutline},
		{Region: RegionMouth, Fraction: 0.15, Place: placeMouth},
		{Region: RegionEyeLeft, Fraction: 0.05, Place: placeEye(-eyeOffsetX)},
		{Region: RegionEyeRight, Fraction: 0.05, Place: placeEye(eyeOffsetX)},
		{Region: RegionHair, Fraction: 0.10, Place: placeHair},
	}
}

func placeOutline(slot Slot, rng *rand.Rand) Point {
	angle := 2 * math.Pi * slot.T
	radius := faceRadius +
		rippleAmp*math.Sin(rippleFreq*angle) +
		Symmetric(outlineJitter).Random(rng)
	return Polar(radius, angle)
}

func placeMouth(slot Slot, rng *rand.Rand) Point {
	return Point{
		X: -mouthWidth/2 + mouthWidth*slot.T + Symmetric(mouthJitter).Random(rng),
		Y: mouthOffset + mouthHeight*math.Sin(math.Pi*slot.T) + Symmetric(mouthJitter).Random(rng),
	}
}

func placeEye(offsetX float64) func(Slot, *rand.Rand) Point {
	center := Point{X: offsetX, Y: eyeOffsetY}
	return func(slot Slot, rng *rand.Rand) Point {
		// sunflower packing keeps the cluster full for any count
		radius := eyeRadius * math.Sqrt((float64(slot.Index)+rng.Float64())/float64(slot.Count))
		return center.Add(Polar(radius, float64(slot.Index)*goldenAngle))
	}
}

func placeHair(slot Slot, rng *rand.Rand) Point {
	angle := -math.Pi/2 + hairTurns*2*math.Pi*slot.T
	radius := hairRadius * math.Exp(-hairDecay*slot.T)
	anchor := Point{X: Symmetric(0.1).Random(rng), Y: hairAnchorY}
	return anchor.Add(Polar(radius, angle))
}

// gridPoints returns the centres of a side x side grid spanning the disk's
// bounding square that lie strictly inside KeepRadius, in row-major order.
func (fill GridFill) gridPoints(side int) []Point {
	if side <= 0 {
		return nil
	}
	spacing := 2 * fill.KeepRadius / float64(side)
	points := make([]Point, 0, side*side)
	for row := 0; row < side; row++ {
		for col := 0; col < side; col++ {
			point := Point{
				X: (float64(col) + 0.5 - float64(side)/2) * spacing,
				Y: (float64(row) + 0.5 - float64(side)/2) * spacing,
			}
			if point.Radius() < fill.KeepRadius {
				points = append(points, point)
			}
		}
	}
	return points
}
