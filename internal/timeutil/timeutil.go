package timeutil

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidInstant = errors.New("invalid instant")

const isoLayout = "2006-01-02T15:04:05"

// parseLayouts are tried in order; offsets are accepted but discarded.
var parseLayouts = []string{
	time.RFC3339Nano,
	isoLayout,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Range is a closed [Start, End] span of naive instants.
type Range struct {
	Start time.Time
	End   time.Time
}

// StartString returns the start formatted as an ISO-8601 timestamp without offset.
func (r Range) StartString() string { return FormatInstant(r.Start) }

// EndString returns the end formatted as an ISO-8601 timestamp without offset.
func (r Range) EndString() string { return FormatInstant(r.End) }

// Duration returns the range length.
func (r Range) Duration() time.Duration { return r.End.Sub(r.Start) }

// EnsureLocation returns UTC when loc is nil.
func EnsureLocation(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// Naive drops the zone of t, keeping its wall clock reading. Naive instants
// always live in UTC so comparisons never cross a DST transition.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// NaiveNow returns the current wall clock in loc as a naive instant.
func NaiveNow(now time.Time, loc *time.Location) time.Time {
	return Naive(now.In(EnsureLocation(loc)))
}

// TruncateToDay normalizes the timestamp to midnight of its own calendar day.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfMonth returns midnight on the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// ParseInstant parses a date or timestamp string and strips any UTC offset.
func ParseInstant(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, ErrInvalidInstant
	}
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return Naive(t), nil
		}
	}
	return time.Time{}, ErrInvalidInstant
}

// FormatInstant renders t the way report payloads expect: seconds precision,
// microseconds only when present, never an offset.
func FormatInstant(t time.Time) string {
	if t.Nanosecond() == 0 {
		return t.Format(isoLayout)
	}
	return t.Format(isoLayout + ".000000")
}
