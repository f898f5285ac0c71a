package timefmt

import (
	"fmt"
	"time"
)

// Placeholder is shown when no duration is configured.
const Placeholder = "--:--"

// Format renders a remaining duration as "M:SS.CC", or "S.CCs" below one
// minute. Fractions are truncated to hundredths, never rounded.
func Format(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}
	centis := int64(remaining / (10 * time.Millisecond))
	minutes := centis / 6000
	seconds := (centis / 100) % 60
	hundredths := centis % 100
	if minutes > 0 {
		return fmt.Sprintf("%d:%02d.%02d", minutes, seconds, hundredths)
	}
	return fmt.Sprintf("%d.%02ds", seconds, hundredths)
}

// FormatOptional renders remaining, or Placeholder when it is nil.
func FormatOptional(remaining *time.Duration) string {
	if remaining == nil {
		return Placeholder
	}
	return Format(*remaining)
}
