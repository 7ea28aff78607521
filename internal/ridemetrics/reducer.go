package ridemetrics

import (
	"fmt"
	"math"
	"time"
)

// Measurement coerces a recorded ride measurement into something safe to sum or sort by.
// Non-finite and negative values count as zero.
func Measurement(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func perRide(total float64, rides int) float64 {
	if rides == 0 {
		return 0
	}
	return total / float64(rides)
}

type accumulator struct {
	rides    int
	revenue  float64
	distance float64
	duration float64
	calories float64
	carbon   float64
}

func (a *accumulator) add(r *RideRecord) {
	a.rides++
	a.revenue += Measurement(r.AmountPaid)
	a.distance += Measurement(r.DistanceKm)
	a.duration += Measurement(r.DurationSeconds)
	a.calories += Measurement(r.CaloriesBurned)
	a.carbon += Measurement(r.CarbonSavedKg)
}

func (a *accumulator) stats(w TimeWindow) AggregateStats {
	return AggregateStats{
		Window:               w,
		RideCount:            a.rides,
		TotalRevenue:         a.revenue,
		TotalDistanceKm:      a.distance,
		TotalDurationSeconds: a.duration,
		TotalDurationMinutes: a.duration / 60,
		TotalCalories:        a.calories,
		TotalCarbonSavedKg:   a.carbon,
		AvgRevenue:           perRide(a.revenue, a.rides),
	}
}

// Reduce sums every ride inside window w as seen at now
func Reduce(rides []RideRecord, w TimeWindow, now time.Time) AggregateStats {
	var acc accumulator
	for i := range rides {
		if InWindow(rides[i].EndedAt, w, now) {
			acc.add(&rides[i])
		}
	}
	return acc.stats(w)
}

// ReduceAll computes the four window totals in a single pass so they share one now
func ReduceAll(rides []RideRecord, now time.Time) map[TimeWindow]AggregateStats {
	accs := make([]accumulator, len(Windows))
	for i := range rides {
		for j, w := range Windows {
			if InWindow(rides[i].EndedAt, w, now) {
				accs[j].add(&rides[i])
			}
		}
	}

	totals := make(map[TimeWindow]AggregateStats, len(Windows))
	for j, w := range Windows {
		totals[w] = accs[j].stats(w)
	}
	return totals
}

// HourlyRevenue splits today's revenue into 24 hourly slots in now's location
func HourlyRevenue(rides []RideRecord, now time.Time) []HourlyBucket {
	hours := make([]HourlyBucket, 24)
	for h := range hours {
		hours[h] = HourlyBucket{Hour: h, Label: fmt.Sprintf("%02d:00", h)}
	}

	for i := range rides {
		if !InWindow(rides[i].EndedAt, WindowDaily, now) {
			continue
		}
		h := rides[i].EndedAt.In(now.Location()).Hour()
		hours[h].Revenue += Measurement(rides[i].AmountPaid)
		hours[h].RideCount++
	}
	return hours
}
