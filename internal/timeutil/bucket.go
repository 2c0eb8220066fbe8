package timeutil

import (
	"strings"
	"time"
)

// BucketSize names a calendar-aligned report window.
type BucketSize string

const (
	BucketDaily   BucketSize = "daily"
	BucketWeekly  BucketSize = "weekly"
	BucketMonthly BucketSize = "monthly"
	BucketYearly  BucketSize = "yearly"
)

// BucketSizes lists every supported size in ascending width.
var BucketSizes = []BucketSize{BucketDaily, BucketWeekly, BucketMonthly, BucketYearly}

// ParseBucketSize reports whether name is a supported bucket size.
func ParseBucketSize(name string) (BucketSize, bool) {
	switch size := BucketSize(strings.ToLower(strings.TrimSpace(name))); size {
	case BucketDaily, BucketWeekly, BucketMonthly, BucketYearly:
		return size, true
	default:
		return "", false
	}
}

// Strategy answers the two questions the partitioner asks of a bucket size.
type Strategy struct {
	size BucketSize
}

// StrategyFor selects a strategy by name; unknown names fall back to daily.
func StrategyFor(name string) Strategy {
	size, ok := ParseBucketSize(name)
	if !ok {
		size = BucketDaily
	}
	return Strategy{size: size}
}

// Size returns the effective bucket size.
func (s Strategy) Size() BucketSize {
	if s.size == "" {
		return BucketDaily
	}
	return s.size
}

// SameBucket reports whether a and b share a bucket key.
func (s Strategy) SameBucket(a, b time.Time) bool {
	switch s.Size() {
	case BucketWeekly:
		ay, aw := a.ISOWeek()
		by, bw := b.ISOWeek()
		return ay == by && aw == bw
	case BucketMonthly:
		return a.Year() == b.Year() && a.Month() == b.Month()
	case BucketYearly:
		return a.Year() == b.Year()
	default:
		return a.Year() == b.Year() && a.YearDay() == b.YearDay()
	}
}

// NextBucketStart returns the first instant of the bucket after t's bucket.
func (s Strategy) NextBucketStart(t time.Time) time.Time {
	switch s.Size() {
	case BucketWeekly:
		next := t.AddDate(0, 0, 1)
		next = next.AddDate(0, 0, (7-int(next.Weekday()))%7)
		return TruncateToDay(next)
	case BucketMonthly:
		return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
	case BucketYearly:
		return time.Date(t.Year()+1, time.January, 1, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
	}
}

// Partition splits [start, end] into consecutive bucket-aligned ranges. The
// first and last ranges may be partial buckets. start >= end yields nil.
func Partition(start, end time.Time, s Strategy) []Range {
	if !start.Before(end) {
		return nil
	}
	var ranges []Range
	for start.Before(end) && !s.SameBucket(start, end) {
		next := s.NextBucketStart(start)
		rangeEnd := next
		if !next.Before(end) {
			rangeEnd = end
		}
		ranges = append(ranges, Range{Start: start, End: rangeEnd})
		start = next
	}
	if start.Before(end) {
		ranges = append(ranges, Range{Start: start, End: end})
	}
	return ranges
}
