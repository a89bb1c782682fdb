package timefmt

import (
	"fmt"
	"math"
)

// Format renders seconds as MM:SS, or HH:MM:SS once the hour mark is passed.
// Negative or NaN input renders as 00:00.
func Format(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		return "00:00"
	}

	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}

	return fmt.Sprintf("%02d:%02d", minutes, secs)
}
