package overlay

import (
	"image/color"
	"math"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"tomatotimer/internal/core/animation"
	"tomatotimer/internal/core/layout"
	"tomatotimer/internal/core/session"
	"tomatotimer/internal/core/timefmt"
	"tomatotimer/internal/ui/preferences"
)

const defaultExtent = 10.0

// Controls are the handlers behind the window buttons.
type Controls struct {
	OnStart func()
	OnStop  func()
	OnReset func()
}

// Window is the timer window. It draws particles for a session controller
// and shows the countdown text and completion marker. Its sink and display
// methods may be called from any goroutine; drawing is queued with fyne.Do.
type Window struct {
	window      fyne.Window
	shardLayer  *fyne.Container
	stemLayer   *fyne.Container
	timerLabel  *canvas.Text
	input       *preferences.DurationInput
	startButton *widget.Button
	stopButton  *widget.Button
	resetButton *widget.Button

	mu     sync.Mutex
	shards []*shard
	extent float64
}

type shard struct {
	line   *canvas.Line
	pose   animation.Pose // main thread only
	motion *fyne.Animation
}

var (
	_ session.RenderSink = (*Window)(nil)
	_ session.Display    = (*Window)(nil)
)

// New creates the timer window with the requested duration prefilled.
func New(app fyne.App, duration time.Duration, unit preferences.Unit) *Window {
	window := app.NewWindow("TomatoTimer")
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}

	overlay := &Window{
		window: window,
		input:  preferences.NewDurationInput(duration, unit),
		extent: defaultExtent,
	}

	overlay.timerLabel = canvas.NewText(timefmt.FormatOptional(nil), color.NRGBA{R: 232, G: 190, B: 66, A: 255})
	overlay.timerLabel.Alignment = fyne.TextAlignCenter
	overlay.timerLabel.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	overlay.timerLabel.TextSize = 28

	overlay.shardLayer = container.New(&shardLayout{overlay: overlay})
	overlay.stemLayer = container.New(&stemLayout{overlay: overlay}, newStem()...)
	overlay.stemLayer.Hide()

	overlay.startButton = widget.NewButtonWithIcon("Start", theme.MediaPlayIcon(), nil)
	overlay.stopButton = widget.NewButtonWithIcon("Stop", theme.MediaPauseIcon(), nil)
	overlay.resetButton = widget.NewButtonWithIcon("Reset", theme.MediaReplayIcon(), nil)

	controls := container.NewBorder(nil, nil, nil,
		container.NewHBox(overlay.startButton, overlay.stopButton, overlay.resetButton),
		overlay.input.Object(),
	)
	background := canvas.NewRectangle(color.NRGBA{R: 24, G: 20, B: 18, A: 255})
	field := container.NewStack(background, overlay.shardLayer, overlay.stemLayer)

	window.SetContent(container.NewBorder(overlay.timerLabel, controls, nil, nil, field))
	window.Resize(fyne.NewSize(520, 600))
	return overlay
}

// Input returns the duration field read by the controller.
func (overlay *Window) Input() session.DurationSource {
	return overlay.input
}

// SetControls wires the buttons and the Enter key of the duration field.
func (overlay *Window) SetControls(controls Controls) {
	overlay.startButton.OnTapped = controls.OnStart
	overlay.stopButton.OnTapped = controls.OnStop
	overlay.resetButton.OnTapped = controls.OnReset
	overlay.input.SetOnSubmit(controls.OnStart)
}

// SetDefaultDuration refills the duration field.
func (overlay *Window) SetDefaultDuration(duration time.Duration, unit preferences.Unit) {
	fyne.Do(func() {
		overlay.input.SetValue(duration, unit)
	})
}

// Show displays the window.
func (overlay *Window) Show() {
	overlay.window.Show()
	overlay.window.RequestFocus()
}

// HideOnClose keeps the app alive in the tray when the window is closed.
func (overlay *Window) HideOnClose() {
	overlay.window.SetCloseIntercept(overlay.window.Hide)
}

// SetDisplayText updates the countdown label.
func (overlay *Window) SetDisplayText(text string) {
	fyne.Do(func() {
		overlay.timerLabel.Text = text
		overlay.timerLabel.Refresh()
	})
}

// SetCompletionVisible shows or hides the stem.
func (overlay *Window) SetCompletionVisible(visible bool) {
	fyne.Do(func() {
		if visible {
			overlay.stemLayer.Show()
		} else {
			overlay.stemLayer.Hide()
		}
		overlay.stemLayer.Refresh()
	})
}

// CreateParticle adds a shard at the particle's start pose.
func (overlay *Window) CreateParticle(particle layout.Particle) session.Handle {
	line := canvas.NewLine(regionColor(particle.Region))
	created := &shard{
		line: line,
		pose: animation.Pose{Position: particle.Start, Rotation: particle.StartRotation},
	}

	overlay.mu.Lock()
	handle := session.Handle(len(overlay.shards))
	overlay.shards = append(overlay.shards, created)
	if radius := particle.Final.Radius(); radius > overlay.extent {
		overlay.extent = radius
	}
	overlay.mu.Unlock()

	fyne.Do(func() {
		overlay.shardLayer.Add(line)
		overlay.place(created)
	})
	return handle
}

// ApplyTrajectory animates a shard from assignment.StartProgress to its
// final pose over assignment.Duration.
func (overlay *Window) ApplyTrajectory(handle session.Handle, assignment animation.Assignment) {
	overlay.mu.Lock()
	if int(handle) < 0 || int(handle) >= len(overlay.shards) {
		overlay.mu.Unlock()
		return
	}
	target := overlay.shards[handle]
	overlay.mu.Unlock()

	fyne.Do(func() {
		if target.motion != nil {
			target.motion.Stop()
			target.motion = nil
		}
		if assignment.Duration <= 0 {
			target.pose = assignment.Trajectory.At(1)
			overlay.place(target)
			return
		}

		from := assignment.StartProgress
		target.motion = fyne.NewAnimation(assignment.Duration, func(fraction float32) {
			target.pose = assignment.Trajectory.At(from + (1-from)*float64(fraction))
			overlay.place(target)
		})
		target.motion.Curve = fyne.AnimationLinear
		target.motion.Start()
	})
}

// Hold freezes every shard where it is.
func (overlay *Window) Hold() {
	overlay.mu.Lock()
	held := append([]*shard(nil), overlay.shards...)
	overlay.mu.Unlock()

	fyne.Do(func() {
		for _, item := range held {
			if item.motion != nil {
				item.motion.Stop()
				item.motion = nil
			}
		}
	})
}

// RemoveAll drops every shard.
func (overlay *Window) RemoveAll() {
	overlay.mu.Lock()
	removed := overlay.shards
	overlay.shards = nil
	overlay.extent = defaultExtent
	overlay.mu.Unlock()

	fyne.Do(func() {
		for _, item := range removed {
			if item.motion != nil {
				item.motion.Stop()
				item.motion = nil
			}
		}
		overlay.shardLayer.RemoveAll()
		overlay.stemLayer.Refresh()
	})
}

func (overlay *Window) projection(size fyne.Size) projection {
	overlay.mu.Lock()
	extent := overlay.extent
	overlay.mu.Unlock()
	return fit(size, extent)
}

// place positions one shard for the current layer size. Main thread only.
func (overlay *Window) place(item *shard) {
	proj := overlay.projection(overlay.shardLayer.Size())
	from, to := proj.segment(item.pose)
	item.line.Position1 = from
	item.line.Position2 = to
	item.line.StrokeWidth = proj.strokeWidth()
	item.line.Refresh()
}

type shardLayout struct {
	overlay *Window
}

func (arrangement *shardLayout) Layout(_ []fyne.CanvasObject, size fyne.Size) {
	overlay := arrangement.overlay
	overlay.mu.Lock()
	placed := append([]*shard(nil), overlay.shards...)
	overlay.mu.Unlock()

	proj := overlay.projection(size)
	for _, item := range placed {
		from, to := proj.segment(item.pose)
		item.line.Position1 = from
		item.line.Position2 = to
		item.line.StrokeWidth = proj.strokeWidth()
	}
}

func (arrangement *shardLayout) MinSize([]fyne.CanvasObject) fyne.Size {
	return fyne.NewSize(200, 200)
}

var stemColor = color.NRGBA{R: 58, G: 140, B: 62, A: 255}

// newStem returns the completion marker: a stalk and two leaves.
func newStem() []fyne.CanvasObject {
	stalk := canvas.NewLine(stemColor)
	leftLeaf := canvas.NewLine(stemColor)
	rightLeaf := canvas.NewLine(stemColor)
	return []fyne.CanvasObject{stalk, leftLeaf, rightLeaf}
}

// stemPoses are the marker strokes in layout units relative to the extent.
var stemPoses = []struct {
	at       layout.Point
	rotation float64
	scale    float32
}{
	{at: layout.Point{X: 0, Y: -1.02}, rotation: -80, scale: 2.2},
	{at: layout.Point{X: -0.16, Y: -0.97}, rotation: -160, scale: 2.6},
	{at: layout.Point{X: 0.16, Y: -0.97}, rotation: -20, scale: 2.6},
}

type stemLayout struct {
	overlay *Window
}

func (arrangement *stemLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	overlay := arrangement.overlay
	overlay.mu.Lock()
	extent := overlay.extent
	overlay.mu.Unlock()

	proj := fit(size, extent)
	for i, object := range objects {
		if i >= len(stemPoses) {
			return
		}
		line, ok := object.(*canvas.Line)
		if !ok {
			continue
		}
		spec := stemPoses[i]
		pose := animation.Pose{
			Position: layout.Point{X: spec.at.X * extent, Y: spec.at.Y * extent},
			Rotation: spec.rotation,
		}
		from, to := proj.segment(pose)
		center := proj.point(pose.Position)
		line.Position1 = scaleAbout(center, from, spec.scale)
		line.Position2 = scaleAbout(center, to, spec.scale)
		line.StrokeWidth = float32(math.Max(2, float64(proj.strokeWidth())*1.6))
	}
}

func (arrangement *stemLayout) MinSize([]fyne.CanvasObject) fyne.Size {
	return fyne.NewSize(0, 0)
}

func scaleAbout(center, point fyne.Position, factor float32) fyne.Position {
	return fyne.NewPos(center.X+(point.X-center.X)*factor, center.Y+(point.Y-center.Y)*factor)
}
