package layout

import (
	"math"
	"time"
)

// Region tags the feature of the target shape a particle belongs to.
type Region int

const (
	RegionOutline Region = iota
	RegionMouth
	RegionEyeLeft
	RegionEyeRight
	RegionHair
	RegionFill
)

func (region Region) String() string {
	switch region {
	case RegionOutline:
		return "outline"
	case RegionMouth:
		return "mouth"
	case RegionEyeLeft:
		return "eye_left"
	case RegionEyeRight:
		return "eye_right"
	case RegionHair:
		return "hair"
	case RegionFill:
		return "fill"
	default:
		return "unknown"
	}
}

// Particle is one fragment's geometry for a single run. Values are never
// mutated after generation.
type Particle struct {
	ID     int
	Region Region

	Start Point
	Mid   Point
	Final Point

	StartRotation float64
	MidRotation   float64
	FinalRotation float64

	// DurationHint is a rendering hint only; it never affects geometry.
	DurationHint time.Duration
}

// Span is a contiguous, half-open range of particle ids owned by a region.
type Span struct {
	Region Region
	Lo     int
	Hi     int
}

// Len returns the number of ids in the span.
func (span Span) Len() int {
	return span.Hi - span.Lo
}

// Partition splits [0, n) into contiguous spans sized by the given fractions
// using cumulative rounding, so the spans never overlap and the last one
// always ends at n.
func Partition(n int, regions []Region, fractions []float64) []Span {
	if n <= 0 || len(regions) == 0 || len(regions) != len(fractions) {
		return nil
	}
	total := 0.0
	for _, fraction := range fractions {
		if fraction > 0 {
			total += fraction
		}
	}

	spans := make([]Span, len(regions))
	cumulative := 0.0
	lo := 0
	for i, region := range regions {
		if fractions[i] > 0 {
			cumulative += fractions[i]
		}
		hi := n
		if i < len(regions)-1 && total > 0 {
			hi = int(math.Round(float64(n) * cumulative / total))
		}
		if hi < lo {
			hi = lo
		}
		if hi > n {
			hi = n
		}
		spans[i] = Span{Region: region, Lo: lo, Hi: hi}
		lo = hi
	}
	return spans
}
