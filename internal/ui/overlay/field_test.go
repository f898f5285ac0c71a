package overlay

import (
	"testing"

	"fyne.io/fyne/v2"
	"github.com/stretchr/testify/assert"

	"tomatotimer/internal/core/animation"
	"tomatotimer/internal/core/layout"
)

func TestFitUsesShortSide(t *testing.T) {
	proj := fit(fyne.NewSize(400, 200), 10)

	assert.Equal(t, fyne.NewPos(200, 100), proj.center)
	assert.InDelta(t, 100/(10*fieldMargin), proj.scale, 1e-4)
}

func TestPointKeepsYDown(t *testing.T) {
	proj := projection{center: fyne.NewPos(50, 50), scale: 2}

	assert.Equal(t, fyne.NewPos(50, 50), proj.point(layout.Point{}))
	assert.Equal(t, fyne.NewPos(56, 58), proj.point(layout.Point{X: 3, Y: 4}))
}

func TestSegmentIsCentredOnPose(t *testing.T) {
	proj := projection{center: fyne.NewPos(0, 0), scale: 10}

	from, to := proj.segment(animation.Pose{Position: layout.Point{X: 1}, Rotation: 0})
	assert.InDelta(t, 10-4.5, from.X, 1e-4)
	assert.InDelta(t, 10+4.5, to.X, 1e-4)
	assert.InDelta(t, 0, from.Y, 1e-4)

	from, to = proj.segment(animation.Pose{Rotation: 90})
	assert.InDelta(t, 0, from.X, 1e-4)
	assert.InDelta(t, -4.5, from.Y, 1e-4)
	assert.InDelta(t, 4.5, to.Y, 1e-4)
}

func TestDegenerateFitStillDraws(t *testing.T) {
	proj := fit(fyne.NewSize(0, 0), 0)
	from, to := proj.segment(animation.Pose{})
	assert.InDelta(t, minShardSize, to.X-from.X, 1e-4)
	assert.Equal(t, float32(1), proj.strokeWidth())
}

func TestEveryRegionHasAColour(t *testing.T) {
	for region := layout.RegionOutline; region <= layout.RegionFill; region++ {
		assert.NotZero(t, regionColor(region).A, region.String())
	}
	assert.Equal(t, regionColors[layout.RegionOutline], regionColor(layout.Region(99)))
}
