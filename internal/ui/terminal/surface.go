package terminal

import (
	"math"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"tomatotimer/internal/core/animation"
	"tomatotimer/internal/core/clock"
	"tomatotimer/internal/core/layout"
	"tomatotimer/internal/core/session"
	"tomatotimer/internal/core/timefmt"
)

const (
	defaultExtent = 10.0
	// cellAspect compensates for terminal cells being about twice as tall
	// as they are wide.
	cellAspect = 2.0
	fieldInset = 1.1
)

// Surface is a render sink and display that keeps particle motion as data
// and draws it into a tcell screen on demand.
type Surface struct {
	clock clock.Clock

	mu        sync.Mutex
	particles []*particle
	extent    float64
	text      string
	completed bool
}

type particle struct {
	region     layout.Region
	pose       animation.Pose
	moving     bool
	assignment animation.Assignment
	startedAt  time.Time
}

var (
	_ session.RenderSink = (*Surface)(nil)
	_ session.Display    = (*Surface)(nil)
)

// NewSurface creates an empty surface. A nil clock uses the system clock.
func NewSurface(source clock.Clock) *Surface {
	if source == nil {
		source = clock.System
	}
	return &Surface{clock: source, extent: defaultExtent, text: timefmt.FormatOptional(nil)}
}

// SetDisplayText stores the countdown text.
func (surface *Surface) SetDisplayText(text string) {
	surface.mu.Lock()
	surface.text = text
	surface.mu.Unlock()
}

// SetCompletionVisible toggles the completion marker.
func (surface *Surface) SetCompletionVisible(visible bool) {
	surface.mu.Lock()
	surface.completed = visible
	surface.mu.Unlock()
}

// CreateParticle adds a particle at its start pose.
func (surface *Surface) CreateParticle(created layout.Particle) session.Handle {
	surface.mu.Lock()
	defer surface.mu.Unlock()
	surface.particles = append(surface.particles, &particle{
		region: created.Region,
		pose:   animation.Pose{Position: created.Start, Rotation: created.StartRotation},
	})
	if radius := created.Final.Radius(); radius > surface.extent {
		surface.extent = radius
	}
	return session.Handle(len(surface.particles) - 1)
}

// ApplyTrajectory starts moving a particle now.
func (surface *Surface) ApplyTrajectory(handle session.Handle, assignment animation.Assignment) {
	surface.mu.Lock()
	defer surface.mu.Unlock()
	if int(handle) < 0 || int(handle) >= len(surface.particles) {
		return
	}
	target := surface.particles[handle]
	if assignment.Duration <= 0 {
		target.moving = false
		target.pose = assignment.Trajectory.At(1)
		return
	}
	target.moving = true
	target.assignment = assignment
	target.startedAt = surface.clock.Now()
}

// Hold freezes moving particles at their current pose.
func (surface *Surface) Hold() {
	surface.mu.Lock()
	defer surface.mu.Unlock()
	now := surface.clock.Now()
	for _, item := range surface.particles {
		if item.moving {
			item.pose = item.poseAt(now)
			item.moving = false
		}
	}
}

// RemoveAll drops every particle.
func (surface *Surface) RemoveAll() {
	surface.mu.Lock()
	defer surface.mu.Unlock()
	surface.particles = nil
	surface.extent = defaultExtent
}

func (item *particle) poseAt(now time.Time) animation.Pose {
	if !item.moving {
		return item.pose
	}
	assignment := item.assignment
	fraction := float64(now.Sub(item.startedAt)) / float64(assignment.Duration)
	if fraction > 1 {
		fraction = 1
	}
	if fraction < 0 {
		fraction = 0
	}
	from := assignment.StartProgress
	return assignment.Trajectory.At(from + (1-from)*fraction)
}

// cell is one drawn glyph.
type cell struct {
	x, y  int
	glyph rune
	style tcell.Style
}

// frame computes the cells for a width x height screen. The bottom row is
// reserved for the status line.
func (surface *Surface) frame(width, height int) ([]cell, string, bool) {
	surface.mu.Lock()
	defer surface.mu.Unlock()

	fieldHeight := height - 1
	if width <= 0 || fieldHeight <= 0 {
		return nil, surface.text, surface.completed
	}

	scaleY := float64(fieldHeight) / 2 / (surface.extent * fieldInset)
	scaleX := scaleY * cellAspect
	if limit := float64(width) / 2 / (surface.extent * fieldInset); scaleX > limit {
		scaleX = limit
		scaleY = limit / cellAspect
	}
	centerX := float64(width) / 2
	centerY := float64(fieldHeight) / 2

	now := surface.clock.Now()
	cells := make([]cell, 0, len(surface.particles)+3)
	project := func(point layout.Point) (int, int) {
		return int(math.Round(centerX + point.X*scaleX)), int(math.Round(centerY + point.Y*scaleY))
	}
	for _, item := range surface.particles {
		pose := item.poseAt(now)
		x, y := project(pose.Position)
		if x < 0 || y < 0 || x >= width || y >= fieldHeight {
			continue
		}
		cells = append(cells, cell{x: x, y: y, glyph: glyphFor(pose.Rotation), style: styleFor(item.region)})
	}

	if surface.completed {
		stem := tcell.StyleDefault.Foreground(tcell.NewRGBColor(58, 140, 62)).Bold(true)
		x, y := project(layout.Point{Y: -surface.extent * 1.02})
		for i, glyph := range []rune{'\\', '|', '/'} {
			cx := x - 1 + i
			if cx >= 0 && cx < width && y >= 0 && y < fieldHeight {
				cells = append(cells, cell{x: cx, y: y, glyph: glyph, style: stem})
			}
		}
	}
	return cells, surface.text, surface.completed
}

// glyphFor picks a stroke character matching a rotation in degrees,
// measured clockwise since y grows downwards.
func glyphFor(rotation float64) rune {
	angle := math.Mod(rotation, 180)
	if angle < 0 {
		angle += 180
	}
	switch {
	case angle < 22.5 || angle >= 157.5:
		return '-'
	case angle < 67.5:
		return '\\'
	case angle < 112.5:
		return '|'
	default:
		return '/'
	}
}

var regionStyles = map[layout.Region]tcell.Style{
	layout.RegionOutline:  tcell.StyleDefault.Foreground(tcell.NewRGBColor(214, 48, 39)),
	layout.RegionMouth:    tcell.StyleDefault.Foreground(tcell.NewRGBColor(150, 30, 22)),
	layout.RegionEyeLeft:  tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true),
	layout.RegionEyeRight: tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true),
	layout.RegionHair:     tcell.StyleDefault.Foreground(tcell.NewRGBColor(58, 140, 62)),
	layout.RegionFill:     tcell.StyleDefault.Foreground(tcell.NewRGBColor(228, 60, 46)),
}

func styleFor(region layout.Region) tcell.Style {
	if style, ok := regionStyles[region]; ok {
		return style
	}
	return tcell.StyleDefault
}
