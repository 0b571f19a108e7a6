package utils

import (
	"fmt"
	"strings"
	"time"
)

// timestampLayouts lists the accepted input formats, tried in order. The
// space-separated layout matches what log exporters commonly emit; RFC3339
// covers API callers.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a normalized event timestamp. Values are interpreted
// as UTC when the layout carries no zone. An empty or unrecognized value
// returns an error; callers treat that as a per-record defect, not a failure.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time value %q", value)
}

// WindowSeconds converts a pair of timestamps into whole seconds, swapping
// the bounds if they arrive reversed.
func WindowSeconds(start, end time.Time) float64 {
	if end.Before(start) {
		start, end = end, start
	}
	return end.Sub(start).Seconds()
}
