package timefmt

import "time"

// Preset names accepted by RangeFromPreset.
const (
	PresetToday      = "today"
	PresetYesterday  = "yesterday"
	PresetLast7Days  = "last7Days"
	PresetLast30Days = "last30Days"
)

// Presets lists the preset names in display order.
func Presets() []string {
	return []string{PresetToday, PresetYesterday, PresetLast7Days, PresetLast30Days}
}

// DateRange is an inclusive time window. Start is never after End.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// IsZero reports whether the range is unset.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// RangeFromPreset resolves a preset against now. "today" and "yesterday"
// start at local midnight; the rolling presets subtract exact days. Unknown
// names fall back to last7Days.
func RangeFromPreset(preset string, now time.Time) DateRange {
	switch preset {
	case PresetToday:
		return DateRange{Start: midnight(now), End: now}
	case PresetYesterday:
		return DateRange{Start: midnight(now.AddDate(0, 0, -1)), End: now}
	case PresetLast30Days:
		return DateRange{Start: now.Add(-30 * 24 * time.Hour), End: now}
	default:
		return DateRange{Start: now.Add(-7 * 24 * time.Hour), End: now}
	}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
