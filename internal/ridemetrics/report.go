// Package ridemetrics turns ride history snapshots into the dashboard aggregates:
// windowed totals, dense trend series, station revenue attribution and hourly revenue.
//
// Every function is pure. The caller supplies now explicitly and should reuse the same
// value for every aggregate that ends up on one screen.
package ridemetrics

import (
	"time"
)

// ReportOptions configures BuildReport
type ReportOptions struct {
	Attribution AttributionOptions
}

// BuildReport computes totals for every window, trends for every granularity and station
// attribution for the selected window, all against the same now.
func BuildReport(rides []RideRecord, stations []Station, window TimeWindow, now time.Time, opts ReportOptions) *Report {
	if !window.Valid() {
		window = WindowAll
	}

	totals := ReduceAll(rides, now)

	trend := make(map[Granularity][]PeriodBucket, len(Granularities))
	for _, g := range Granularities {
		trend[g] = BuildBuckets(rides, g, now)
	}

	return &Report{
		Now:            now,
		Window:         window,
		Totals:         totals,
		Trend:          trend,
		StationRevenue: Attribute(rides, stations, window, now, opts.Attribution),
		HourlyRevenue:  HourlyRevenue(rides, now),
		Insights:       BuildInsights(totals[window]),
	}
}
