// ABOUTME: Elapsed-time measures computed from record timestamps
// ABOUTME: Missing or unparsable timestamps map to a large sentinel instead of failing
package engine

import (
	"math"
	"strings"
	"time"
)

// NeverContactedDays is returned for absent timestamps so a lead that was
// never contacted satisfies every staleness threshold.
const NeverContactedDays = 999

const day = 24 * time.Hour

// DaysSince returns whole days elapsed between ts and now, floored.
func DaysSince(ts *time.Time, now time.Time) int {
	if ts == nil || ts.IsZero() {
		return NeverContactedDays
	}
	return int(math.Floor(float64(now.Sub(*ts)) / float64(day)))
}

// DaysSinceCreated is DaysSince for a non-optional creation time.
func DaysSinceCreated(created, now time.Time) int {
	return DaysSince(&created, now)
}

// DaysUntil returns whole calendar days from today to the due date's day.
// Negative values mean the date has passed.
func DaysUntil(due, now time.Time) int {
	d := StartOfDay(due.In(now.Location()))
	return int(math.Round(float64(d.Sub(StartOfDay(now))) / float64(day)))
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the formats records are stored in. Anything it
// cannot parse is treated as absent.
func ParseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
