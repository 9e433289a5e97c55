package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// backendLayouts are the timestamp shapes the club backend emits, most specific first.
var backendLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Location loads a timezone by name. Empty or invalid names fall back to UTC.
func Location(timezone string) *time.Location {
	if timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsValidTimezone checks if a timezone string is valid
func IsValidTimezone(timezone string) bool {
	if timezone == "" {
		return false
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}

// ParseBackendTime parses a backend timestamp. Values without an offset are
// read as wall-clock time in timezone.
func ParseBackendTime(value, timezone string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	loc := Location(timezone)
	for _, layout := range backendLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// FormatEventTime renders a backend timestamp for display in timezone,
// returning the raw value when it cannot be parsed.
func FormatEventTime(value, timezone string) string {
	t, err := ParseBackendTime(value, timezone)
	if err != nil {
		return value
	}
	t = t.In(Location(timezone))
	if t.Hour() == 0 && t.Minute() == 0 && !strings.ContainsAny(value, "T:") {
		return t.Format("Mon 02 Jan 2006")
	}
	return t.Format("Mon 02 Jan 2006 15:04")
}

// IsUpcoming reports whether a backend timestamp lies after now.
func IsUpcoming(value, timezone string, now time.Time) bool {
	t, err := ParseBackendTime(value, timezone)
	return err == nil && t.After(now)
}
