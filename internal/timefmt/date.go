package timefmt

import (
	"fmt"
	"time"
)

const week = 7 * 24 * time.Hour

// FormatDate renders a build's creation time relative to now.
//
// In UTC mode the label is absolute: "Created Wed 15th May 2024 at 12:00 UTC".
// Otherwise t is shown in now's location as "today", "yesterday", a weekday
// when less than seven days (by elapsed time, not calendar week) have
// passed, or "Created Mon 6th May at 09:30". A non-empty triggerType appends
// " - triggered from <triggerType>".
func FormatDate(t time.Time, toUTC bool, triggerType string, now time.Time) string {
	var label string
	if toUTC {
		u := t.UTC()
		label = fmt.Sprintf("Created %s %d%s %s %d at %s UTC",
			u.Format("Mon"), u.Day(), Ordinal(u.Day()), u.Format("Jan"), u.Year(), u.Format("15:04"))
	} else {
		local := t.In(now.Location())
		clock := local.Format("15:04")
		switch {
		case sameDay(local, now):
			label = "Created today at " + clock
		case sameDay(local, now.AddDate(0, 0, -1)):
			label = "Created yesterday at " + clock
		case now.Sub(local) < week:
			label = fmt.Sprintf("Created %s at %s", local.Format("Mon"), clock)
		default:
			label = fmt.Sprintf("Created %s %d%s %s at %s",
				local.Format("Mon"), local.Day(), Ordinal(local.Day()), local.Format("Jan"), clock)
		}
	}
	if triggerType != "" {
		label += " - triggered from " + triggerType
	}
	return label
}

// Ordinal returns the English ordinal suffix for a day of month.
func Ordinal(day int) string {
	if n := day % 100; n >= 11 && n <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
