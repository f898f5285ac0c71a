package overlay

import (
	"image/color"
	"math"

	"fyne.io/fyne/v2"

	"tomatotimer/internal/core/animation"
	"tomatotimer/internal/core/layout"
)

const (
	fieldMargin  = 1.15
	shardLength  = 0.9 // in layout units
	minShardSize = float32(2)
)

// projection maps layout coordinates (origin at the centre, y down) onto a
// canvas area.
type projection struct {
	center fyne.Position
	scale  float32
}

// fit returns the projection that shows a disc of radius extent inside size.
func fit(size fyne.Size, extent float64) projection {
	if extent <= 0 {
		extent = 1
	}
	side := size.Width
	if size.Height < side {
		side = size.Height
	}
	return projection{
		center: fyne.NewPos(size.Width/2, size.Height/2),
		scale:  side / 2 / float32(extent*fieldMargin),
	}
}

func (proj projection) point(point layout.Point) fyne.Position {
	return fyne.NewPos(
		proj.center.X+float32(point.X)*proj.scale,
		proj.center.Y+float32(point.Y)*proj.scale,
	)
}

// segment returns the end points of a shard drawn at pose.
func (proj projection) segment(pose animation.Pose) (fyne.Position, fyne.Position) {
	half := float32(shardLength/2) * proj.scale
	if half < minShardSize/2 {
		half = minShardSize / 2
	}
	angle := pose.Rotation * math.Pi / 180
	dx := float32(math.Cos(angle)) * half
	dy := float32(math.Sin(angle)) * half
	center := proj.point(pose.Position)
	return fyne.NewPos(center.X-dx, center.Y-dy), fyne.NewPos(center.X+dx, center.Y+dy)
}

// strokeWidth scales the shard thickness with the canvas.
func (proj projection) strokeWidth() float32 {
	width := proj.scale * 0.35
	if width < 1 {
		width = 1
	}
	return width
}

var regionColors = map[layout.Region]color.NRGBA{
	layout.RegionOutline:  {R: 214, G: 48, B: 39, A: 255},
	layout.RegionMouth:    {R: 92, G: 16, B: 12, A: 255},
	layout.RegionEyeLeft:  {R: 34, G: 24, B: 20, A: 255},
	layout.RegionEyeRight: {R: 34, G: 24, B: 20, A: 255},
	layout.RegionHair:     {R: 58, G: 140, B: 62, A: 255},
	layout.RegionFill:     {R: 228, G: 60, B: 46, A: 255},
}

func regionColor(region layout.Region) color.NRGBA {
	if value, ok := regionColors[region]; ok {
		return value
	}
	return regionColors[layout.RegionOutline]
}
