package ridemetrics

import (
	"fmt"
	"sort"
	"time"
)

// Trailing bucket counts per granularity
const (
	dailyBucketCount   = 7
	weeklyBucketCount  = 12
	monthlyBucketCount = 12
)

// bucketFrame is the fixed trailing range of a trend series. bounds holds n+1 instants:
// bucket i covers [bounds[i], bounds[i+1]).
type bucketFrame struct {
	granularity Granularity
	bounds      []time.Time
}

func newBucketFrame(g Granularity, now time.Time) (bucketFrame, bool) {
	var (
		first time.Time
		count int
		step  func(t time.Time, n int) time.Time
	)

	switch g {
	case GranularityDaily:
		first = startOfDay(now).AddDate(0, 0, -(dailyBucketCount - 1))
		count = dailyBucketCount
		step = func(t time.Time, n int) time.Time { return t.AddDate(0, 0, n) }
	case GranularityWeekly:
		first = startOfWeek(now).AddDate(0, 0, -7*(weeklyBucketCount-1))
		count = weeklyBucketCount
		step = func(t time.Time, n int) time.Time { return t.AddDate(0, 0, 7*n) }
	case GranularityMonthly:
		first = startOfMonth(now).AddDate(0, -(monthlyBucketCount - 1), 0)
		count = monthlyBucketCount
		step = func(t time.Time, n int) time.Time { return t.AddDate(0, n, 0) }
	default:
		return bucketFrame{}, false
	}

	bounds := make([]time.Time, count+1)
	for i := range bounds {
		bounds[i] = step(first, i)
	}
	return bucketFrame{granularity: g, bounds: bounds}, true
}

func (f bucketFrame) size() int {
	return len(f.bounds) - 1
}

// index returns the bucket holding t, or -1 when t falls outside the frame
func (f bucketFrame) index(t time.Time) int {
	n := f.size()
	if n <= 0 || t.Before(f.bounds[0]) || !t.Before(f.bounds[n]) {
		return -1
	}
	return sort.Search(n, func(i int) bool { return f.bounds[i+1].After(t) })
}

func (f bucketFrame) label(i int) string {
	start := f.bounds[i]
	switch f.granularity {
	case GranularityDaily:
		return start.Format("Jan 02")
	case GranularityWeekly:
		_, week := start.ISOWeek()
		return fmt.Sprintf("Week %d - %s", week, start.Format("Jan"))
	default:
		return start.Format("Jan 2006")
	}
}

// BuildBuckets folds rides into a dense trailing series: 7 days, 12 ISO weeks or 12 months
// ending with the period that contains now. Every bucket exists even when no ride lands in it.
func BuildBuckets(rides []RideRecord, g Granularity, now time.Time) []PeriodBucket {
	frame, ok := newBucketFrame(g, now)
	if !ok {
		return nil
	}

	buckets := make([]PeriodBucket, frame.size())
	for i := range buckets {
		buckets[i] = PeriodBucket{
			Label: frame.label(i),
			Start: frame.bounds[i],
			End:   frame.bounds[i+1],
		}
	}

	for i := range rides {
		ride := &rides[i]
		if ride.EndedAt == nil {
			continue
		}
		idx := frame.index(ride.EndedAt.In(now.Location()))
		if idx < 0 {
			continue
		}

		b := &buckets[idx]
		b.Revenue += Measurement(ride.AmountPaid)
		b.Calories += Measurement(ride.CaloriesBurned)
		b.DistanceKm += Measurement(ride.DistanceKm)
		b.DurationMinutes += Measurement(ride.DurationSeconds) / 60
		b.CarbonSavedKg += Measurement(ride.CarbonSavedKg)
		b.RideCount++
	}

	for i := range buckets {
		b := &buckets[i]
		b.AvgRevenue = perRide(b.Revenue, b.RideCount)
		b.AvgCalories = perRide(b.Calories, b.RideCount)
		b.AvgDistanceKm = perRide(b.DistanceKm, b.RideCount)
		b.AvgDurationMinutes = perRide(b.DurationMinutes, b.RideCount)
		b.AvgCarbonSavedKg = perRide(b.CarbonSavedKg, b.RideCount)
	}

	return buckets
}

// BuildRatingTrend averages ride ratings over the same dense frame as BuildBuckets
func BuildRatingTrend(ratings []RideRating, g Granularity, now time.Time) []RatingBucket {
	frame, ok := newBucketFrame(g, now)
	if !ok {
		return nil
	}

	sums := make([]float64, frame.size())
	buckets := make([]RatingBucket, frame.size())
	for i := range buckets {
		buckets[i] = RatingBucket{
			Label: frame.label(i),
			Start: frame.bounds[i],
			End:   frame.bounds[i+1],
		}
	}

	for _, r := range ratings {
		// unusable scores are dropped rather than averaged in as zero
		if r.Timestamp.IsZero() || Measurement(r.Rating) != r.Rating {
			continue
		}
		idx := frame.index(r.Timestamp.In(now.Location()))
		if idx < 0 {
			continue
		}
		sums[idx] += r.Rating
		buckets[idx].TotalRatings++
	}

	for i := range buckets {
		buckets[i].AverageRating = perRide(sums[i], buckets[i].TotalRatings)
	}
	return buckets
}
