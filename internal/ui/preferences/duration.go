package preferences

import (
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Unit is the unit a bare number in the duration field is read in.
type Unit string

const (
	UnitSeconds Unit = "seconds"
	UnitMinutes Unit = "minutes"
)

// Units lists the selectable units.
func Units() []string {
	return []string{string(UnitSeconds), string(UnitMinutes)}
}

// ParseUnit maps a unit name to a Unit, defaulting to seconds.
func ParseUnit(value string) Unit {
	if Unit(strings.ToLower(strings.TrimSpace(value))) == UnitMinutes {
		return UnitMinutes
	}
	return UnitSeconds
}

func (unit Unit) scale() time.Duration {
	if unit == UnitMinutes {
		return time.Minute
	}
	return time.Second
}

// ParseDuration reads text as a number of units ("90", "1.5") or a Go
// duration ("1m30s"). Malformed or non-positive input yields 0.
func ParseDuration(text string, unit Unit) time.Duration {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	if value, err := strconv.ParseFloat(text, 64); err == nil {
		if value <= 0 || math.IsNaN(value) || math.IsInf(value, 0) {
			return 0
		}
		scaled := value * float64(unit.scale())
		if scaled > math.MaxInt64 {
			return 0
		}
		return time.Duration(scaled)
	}

	if parsed, err := time.ParseDuration(text); err == nil && parsed > 0 {
		return parsed
	}
	return 0
}

// FormatInput renders a duration the way the input field shows it.
func FormatInput(value time.Duration, unit Unit) string {
	if value <= 0 {
		return ""
	}
	return strconv.FormatFloat(float64(value)/float64(unit.scale()), 'f', -1, 64)
}

// DurationInput is an entry plus unit selector. It is safe to read from any
// goroutine.
type DurationInput struct {
	entry *widget.Entry
	unit  *widget.Select

	mu        sync.Mutex
	text      string
	unitValue Unit
	onSubmit  func()
}

// NewDurationInput creates an input prefilled with value.
func NewDurationInput(value time.Duration, unit Unit) *DurationInput {
	input := &DurationInput{
		entry:     widget.NewEntry(),
		unitValue: unit,
		text:      FormatInput(value, unit),
	}
	input.entry.SetPlaceHolder("30")
	input.entry.SetText(input.text)
	input.entry.OnChanged = func(text string) {
		input.mu.Lock()
		input.text = text
		input.mu.Unlock()
	}
	input.entry.OnSubmitted = func(string) {
		input.mu.Lock()
		handler := input.onSubmit
		input.mu.Unlock()
		if handler != nil {
			handler()
		}
	}

	input.unit = widget.NewSelect(Units(), func(selected string) {
		input.mu.Lock()
		input.unitValue = ParseUnit(selected)
		input.mu.Unlock()
	})
	input.unit.SetSelected(string(unit))
	return input
}

// RequestedDuration returns the parsed duration, 0 when malformed.
func (input *DurationInput) RequestedDuration() time.Duration {
	input.mu.Lock()
	defer input.mu.Unlock()
	return ParseDuration(input.text, input.unitValue)
}

// Unit returns the selected unit.
func (input *DurationInput) Unit() Unit {
	input.mu.Lock()
	defer input.mu.Unlock()
	return input.unitValue
}

// SetValue replaces the field contents. Must be called on the fyne thread.
func (input *DurationInput) SetValue(value time.Duration, unit Unit) {
	input.unit.SetSelected(string(unit))
	input.entry.SetText(FormatInput(value, unit))
}

// SetOnSubmit registers the Enter key handler.
func (input *DurationInput) SetOnSubmit(handler func()) {
	input.mu.Lock()
	input.onSubmit = handler
	input.mu.Unlock()
}

// Object returns the canvas object to place in a layout.
func (input *DurationInput) Object() fyne.CanvasObject {
	return container.NewBorder(nil, nil, nil, input.unit, input.entry)
}
