package utils

import (
	"math"
	"time"
)

// DisplayTimeLayout renders booking times in reports and admin listings,
// e.g. "05-03-2024 02:30 PM".
const DisplayTimeLayout = "02-01-2006 03:04 PM"

func FormatDisplayTime(t time.Time) string {
	return t.UTC().Format(DisplayTimeLayout)
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
