// Package timefmt renders build durations, creation dates and date-range
// presets for display.
package timefmt

import (
	"fmt"
	"strings"
	"time"
)

// FormatDuration renders whole seconds as "42s", "5m", "2h" or "1h 1m".
func FormatDuration(totalSeconds int64) string {
	switch {
	case totalSeconds < 60:
		return fmt.Sprintf("%ds", totalSeconds)
	case totalSeconds < 3600:
		return fmt.Sprintf("%dm", totalSeconds/60)
	}
	h := totalSeconds / 3600
	m := (totalSeconds % 3600) / 60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// BuildDuration returns the formatted elapsed time of a build or job.
// A running build is measured from startedAt to now and finishedAt is
// ignored, even if set. Otherwise both timestamps are required; with
// anything missing the result is "0s".
func BuildDuration(startedAt, finishedAt *time.Time, running bool, now time.Time) string {
	switch {
	case running && startedAt != nil:
		return FormatDuration(seconds(now.Sub(*startedAt)))
	case startedAt != nil && finishedAt != nil:
		return FormatDuration(seconds(finishedAt.Sub(*startedAt)))
	default:
		return "0s"
	}
}

// seconds floors d to whole seconds, clamping clock skew to zero.
func seconds(d time.Duration) int64 {
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

// IsRunning reports whether an upstream state string is "running", ignoring
// case.
func IsRunning(state string) bool {
	return strings.EqualFold(state, "running")
}
