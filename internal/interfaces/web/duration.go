package web

import (
	"fmt"
	"math"
	"time"
)

const (
	year  = 365 * 24 * time.Hour
	month = year / 12
	day   = 24 * time.Hour
)

// FormatDuration renders an elapsed time the way the timeline labels it:
// whole years past 16 months, months past 2, days past 3, hours otherwise.
func FormatDuration(d time.Duration) string {
	switch {
	case d >= 16*month:
		return fmt.Sprintf("%d years", int(math.Round(float64(d)/float64(year))))
	case d >= 2*month:
		return fmt.Sprintf("%d months", ceilDiv(d, month))
	case d >= 3*day:
		return fmt.Sprintf("%d days", ceilDiv(d, day))
	default:
		return fmt.Sprintf("%d hours", ceilDiv(d, time.Hour))
	}
}

func ceilDiv(d, unit time.Duration) int {
	return int(math.Ceil(float64(d) / float64(unit)))
}
