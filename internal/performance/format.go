package performance

import (
	"fmt"
	"math"
)

// UnknownMarker is emitted when a pace or duration cannot be formatted.
const UnknownMarker = "—"

// FormatPace renders a pace in min/km as "m:ss". Zero or non-finite paces
// format as the unknown marker rather than "0:00".
func FormatPace(minPerKm float64) string {
	if !validPositive(minPerKm) {
		return UnknownMarker
	}
	minutes := int(minPerKm)
	seconds := int(math.Round((minPerKm - float64(minutes)) * 60))
	if seconds == 60 {
		minutes++
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// FormatSeconds renders a duration as "h:mm:ss", or "m:ss" when under an
// hour. Non-positive or non-finite input formats as the unknown marker.
func FormatSeconds(totalSeconds float64) string {
	if !validPositive(totalSeconds) {
		return UnknownMarker
	}
	total := int(math.Round(totalSeconds))
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
