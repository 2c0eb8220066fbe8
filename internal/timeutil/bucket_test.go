package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStrategyForFallsBackToDaily(t *testing.T) {
	require.Equal(t, BucketDaily, StrategyFor("").Size())
	require.Equal(t, BucketDaily, StrategyFor("hourly").Size())
	require.Equal(t, BucketWeekly, StrategyFor(" Weekly ").Size())
	require.Equal(t, BucketDaily, Strategy{}.Size())
}

func TestMonthlyStrategy(t *testing.T) {
	s := StrategyFor("monthly")
	require.True(t, s.SameBucket(day(2024, 1, 15), day(2024, 1, 31)))
	require.False(t, s.SameBucket(day(2024, 1, 31), day(2024, 2, 1)))
	require.False(t, s.SameBucket(day(2023, 1, 15), day(2024, 1, 15)))
	require.Equal(t, day(2024, 2, 1), s.NextBucketStart(day(2024, 1, 15)))
	require.Equal(t, day(2025, 1, 1), s.NextBucketStart(time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC)))
}

func TestYearlyStrategy(t *testing.T) {
	s := StrategyFor("yearly")
	require.Equal(t, day(2025, 1, 1), s.NextBucketStart(day(2024, 6, 1)))
	require.Equal(t, day(2025, 1, 1), s.NextBucketStart(day(2024, 1, 1)))
	require.True(t, s.SameBucket(day(2024, 1, 1), day(2024, 12, 31)))
	require.False(t, s.SameBucket(day(2024, 12, 31), day(2025, 1, 1)))
}

func TestDailyStrategy(t *testing.T) {
	s := StrategyFor("daily")
	require.Equal(t, day(2024, 3, 1), s.NextBucketStart(time.Date(2024, 2, 29, 13, 0, 0, 0, time.UTC)))
	require.True(t, s.SameBucket(day(2024, 2, 29), time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)))
	require.False(t, s.SameBucket(day(2023, 2, 28), day(2024, 2, 28)))
}

func TestWeeklyNextBucketStartIsSundayMidnight(t *testing.T) {
	s := StrategyFor("weekly")
	start := time.Date(2023, 12, 20, 7, 45, 0, 0, time.UTC)
	for i := 0; i < 24*30; i++ {
		instant := start.Add(time.Duration(i) * 5 * time.Hour)
		next := s.NextBucketStart(instant)
		require.Equal(t, time.Sunday, next.Weekday(), "instant %v", instant)
		require.Equal(t, TruncateToDay(next), next, "instant %v", instant)
		require.True(t, next.After(instant), "instant %v", instant)
		require.LessOrEqual(t, next.Sub(instant), 8*24*time.Hour)
	}
}

func TestWeeklyNextBucketStartFromSundayAdvancesAWeek(t *testing.T) {
	s := StrategyFor("weekly")
	// 2024-01-07 is a Sunday.
	require.Equal(t, day(2024, 1, 14), s.NextBucketStart(day(2024, 1, 7)))
	require.Equal(t, day(2024, 1, 7), s.NextBucketStart(day(2024, 1, 6)))
}

func TestWeeklySameBucketUsesISOWeek(t *testing.T) {
	s := StrategyFor("weekly")
	// 2024-12-30 and 2025-01-02 share ISO week 2025-W01.
	require.True(t, s.SameBucket(day(2024, 12, 30), day(2025, 1, 2)))
	require.False(t, s.SameBucket(day(2024, 1, 7), day(2024, 1, 8)))
}

func TestPartitionDailyTwoBuckets(t *testing.T) {
	ranges := Partition(day(2024, 1, 1), day(2024, 1, 3), StrategyFor("daily"))
	require.Equal(t, []Range{
		{Start: day(2024, 1, 1), End: day(2024, 1, 2)},
		{Start: day(2024, 1, 2), End: day(2024, 1, 3)},
	}, ranges)
}

func TestPartitionEmptyForDegenerateRange(t *testing.T) {
	for _, size := range BucketSizes {
		s := StrategyFor(string(size))
		require.Empty(t, Partition(day(2024, 1, 1), day(2024, 1, 1), s), size)
		require.Empty(t, Partition(day(2024, 2, 1), day(2024, 1, 1), s), size)
	}
}

func TestPartitionClampsFinalBoundary(t *testing.T) {
	end := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	ranges := Partition(day(2024, 1, 15), end, StrategyFor("monthly"))
	require.Equal(t, []Range{
		{Start: day(2024, 1, 15), End: day(2024, 2, 1)},
		{Start: day(2024, 2, 1), End: day(2024, 3, 1)},
		{Start: day(2024, 3, 1), End: end},
	}, ranges)

	// An end that lands exactly on a bucket start closes the previous bucket.
	ranges = Partition(day(2024, 1, 15), day(2024, 3, 1), StrategyFor("monthly"))
	require.Len(t, ranges, 2)
	require.Equal(t, day(2024, 3, 1), ranges[1].End)
}

func TestPartitionSingleBucket(t *testing.T) {
	end := time.Date(2024, 5, 20, 6, 0, 0, 0, time.UTC)
	ranges := Partition(day(2024, 5, 2), end, StrategyFor("monthly"))
	require.Equal(t, []Range{{Start: day(2024, 5, 2), End: end}}, ranges)
}

func TestPartitionCoversRangeForEveryStrategy(t *testing.T) {
	spans := []time.Duration{
		time.Hour,
		36 * time.Hour,
		9 * 24 * time.Hour,
		45 * 24 * time.Hour,
		400 * 24 * time.Hour,
		3 * 365 * 24 * time.Hour,
	}
	base := time.Date(2023, 12, 27, 0, 0, 0, 0, time.UTC)
	for _, size := range BucketSizes {
		s := StrategyFor(string(size))
		for i := 0; i < 40; i++ {
			start := base.Add(time.Duration(i) * 17 * time.Hour)
			for _, span := range spans {
				end := start.Add(span)
				ranges := Partition(start, end, s)
				require.NotEmpty(t, ranges, "%s %v..%v", size, start, end)
				require.Equal(t, start, ranges[0].Start)
				require.Equal(t, end, ranges[len(ranges)-1].End)
				for j, r := range ranges {
					require.True(t, r.Start.Before(r.End), "%s range %d empty", size, j)
					if j > 0 {
						require.Equal(t, ranges[j-1].End, r.Start, "%s gap before range %d", size, j)
					}
				}
			}
		}
	}
}

func TestRangeStrings(t *testing.T) {
	r := Range{Start: day(2024, 1, 1), End: day(2024, 1, 2)}
	require.Equal(t, "2024-01-01T00:00:00", r.StartString())
	require.Equal(t, "2024-01-02T00:00:00", r.EndString())
	require.Equal(t, 24*time.Hour, r.Duration())
}
