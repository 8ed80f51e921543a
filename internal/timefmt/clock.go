package timefmt

import (
	"strings"
	"time"
)

// Clock supplies the current time. Views hold one so tests can pin "now".
type Clock func() time.Time

// SystemClock reads the wall clock.
var SystemClock Clock = time.Now

// Now returns the clock's time, falling back to the wall clock for a nil
// Clock.
func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// Fixed returns a Clock that always reports t.
func Fixed(t time.Time) Clock {
	return func() time.Time { return t }
}

// ParseTimestamp parses an RFC 3339 timestamp, with or without fractional
// seconds. Empty or malformed input yields nil.
func ParseTimestamp(s string) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
