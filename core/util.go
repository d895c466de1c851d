package core

import (
	"strings"
	"time"
)

// DateLayout is the wire format of calendar dates (no time component).
const DateLayout = "2006-01-02"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// ParseDate parses a YYYY-MM-DD string as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, CleanString(s), time.UTC)
}

// TruncateDay returns midnight UTC of the day `t` falls on (in UTC).
func TruncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
