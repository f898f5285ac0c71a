package preferences

import (
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"tomatotimer/internal/core/animation"
	coreLayout "tomatotimer/internal/core/layout"
)

var logLevels = []string{"debug", "info", "warn", "error"}

var policies = []string{
	animation.PolicyStaggered.String(),
	animation.PolicyProportional.String(),
	animation.PolicySimultaneous.String(),
}

// Window handles the preferences UI.
type Window struct {
	window    fyne.Window
	settings  Settings
	onSave    func(Settings)
	duration  *DurationInput
	shape     *widget.Select
	policy    *widget.Select
	particles *widget.Entry
	step      *widget.Entry
	maxDur    *widget.Entry
	logLevel  *widget.Select
}

// New creates a preferences window.
func New(app fyne.App, settings Settings, onSave func(Settings)) *Window {
	window := app.NewWindow("TomatoTimer Settings")

	prefs := &Window{
		window:    window,
		settings:  settings,
		onSave:    onSave,
		duration:  NewDurationInput(settings.Duration, settings.DurationUnit),
		shape:     widget.NewSelect(coreLayout.ProfileNames(), nil),
		policy:    widget.NewSelect(policies, nil),
		particles: widget.NewEntry(),
		step:      widget.NewEntry(),
		maxDur:    widget.NewEntry(),
		logLevel:  widget.NewSelect(logLevels, nil),
	}
	prefs.particles.SetPlaceHolder("shape default")
	prefs.fill(settings)

	form := widget.NewForm(
		widget.NewFormItem("Default duration", prefs.duration.Object()),
		widget.NewFormItem("Shape", prefs.shape),
		widget.NewFormItem("Particles", prefs.particles),
		widget.NewFormItem("Stagger", prefs.policy),
		widget.NewFormItem("Step (ms)", prefs.step),
		widget.NewFormItem("Longest run (s)", prefs.maxDur),
		widget.NewFormItem("Log level", prefs.logLevel),
	)

	saveButton := widget.NewButton("Save", prefs.handleSave)
	cancelButton := widget.NewButton("Cancel", window.Hide)
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(
		widget.NewLabelWithStyle("Countdown", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		buttons, nil, nil, form,
	))
	window.SetCloseIntercept(window.Hide)
	window.Resize(fyne.NewSize(420, 380))
	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values, e.g. after the file was edited.
func (prefs *Window) UpdateSettings(settings Settings) {
	prefs.settings = settings
	prefs.fill(settings)
}

func (prefs *Window) fill(settings Settings) {
	prefs.duration.SetValue(settings.Duration, settings.DurationUnit)
	prefs.shape.SetSelected(settings.Shape)
	prefs.policy.SetSelected(settings.Policy)
	if settings.ParticleCount > 0 {
		prefs.particles.SetText(strconv.Itoa(settings.ParticleCount))
	} else {
		prefs.particles.SetText("")
	}
	prefs.step.SetText(strconv.FormatInt(settings.Step.Milliseconds(), 10))
	prefs.maxDur.SetText(strconv.Itoa(int(settings.MaxDuration / time.Second)))
	prefs.logLevel.SetSelected(settings.LogLevel)
}

func (prefs *Window) handleSave() {
	settings := prefs.settings

	if value := prefs.duration.RequestedDuration(); value > 0 {
		settings.Duration = value
	}
	settings.DurationUnit = prefs.duration.Unit()
	if prefs.shape.Selected != "" {
		settings.Shape = prefs.shape.Selected
	}
	if prefs.policy.Selected != "" {
		settings.Policy = prefs.policy.Selected
	}
	if strings.TrimSpace(prefs.particles.Text) == "" {
		settings.ParticleCount = 0
	} else if count, ok := parsePositiveInt(prefs.particles.Text); ok {
		settings.ParticleCount = count
	}
	if millis, ok := parsePositiveInt(prefs.step.Text); ok {
		settings.Step = time.Duration(millis) * time.Millisecond
	}
	if seconds, ok := parsePositiveInt(prefs.maxDur.Text); ok {
		settings.MaxDuration = time.Duration(seconds) * time.Second
	}
	if prefs.logLevel.Selected != "" {
		settings.LogLevel = prefs.logLevel.Selected
	}

	prefs.settings = settings
	if prefs.onSave != nil {
		prefs.onSave(settings)
	}
	prefs.window.Hide()
}

func parsePositiveInt(value string) (int, bool) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
