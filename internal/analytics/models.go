package analytics

import (
	"time"

	"github.com/ecoride/ride-metrics/internal/ridemetrics"
)

// Snapshot is one consistent read of the ride history and the station registry
type Snapshot struct {
	Rides    []ridemetrics.RideRecord
	Stations []ridemetrics.Station
	// Version identifies the content so cached reports can be reused across loads
	Version  string
	LoadedAt time.Time
}

// ========================================
// QUERIES
// ========================================

// ReportQuery selects the dashboard report
type ReportQuery struct {
	Window      string `form:"window" validate:"time_window"`
	Attribution string `form:"attribution" validate:"attribution"`
}

// TrendQuery selects a trend series
type TrendQuery struct {
	Granularity string `form:"granularity" validate:"granularity"`
}

// StationRevenueQuery selects and orders the station leaderboard
type StationRevenueQuery struct {
	Window         string `form:"window" validate:"time_window"`
	Attribution    string `form:"attribution" validate:"attribution"`
	Sort           string `form:"sort" validate:"omitempty,oneof=revenue rides name"`
	Dir            string `form:"dir" validate:"sort_dir"`
	IncludeDeleted *bool  `form:"include_deleted"`
}

// ========================================
// RESULTS
// ========================================

// ReportResult wraps a report with the snapshot it was computed from
type ReportResult struct {
	Report  *ridemetrics.Report `json:"report"`
	Version string              `json:"version"`
	// Stale is set when the source was unavailable and a previously cached report is served
	Stale   bool                `json:"stale"`
}

// TotalsResult holds the summary totals of every window
type TotalsResult struct {
	Now     time.Time                                             `json:"now"`
	Totals  map[ridemetrics.TimeWindow]ridemetrics.AggregateStats `json:"totals"`
	Version string                                                `json:"version"`
	Stale   bool                                                  `json:"stale"`
}

// TrendResult holds one dense trend series
type TrendResult struct {
	Now         time.Time                  `json:"now"`
	Granularity ridemetrics.Granularity    `json:"granularity"`
	Buckets     []ridemetrics.PeriodBucket `json:"buckets"`
	Stale       bool                       `json:"stale"`
}

// StationRevenueResult holds the ordered station leaderboard
type StationRevenueResult struct {
	Now                 time.Time                       `json:"now"`
	Window              ridemetrics.TimeWindow          `json:"window"`
	Attribution         ridemetrics.AttributionKey      `json:"attribution"`
	Active              []ridemetrics.StationRevenueRow `json:"active"`
	Deleted             []ridemetrics.StationRevenueRow `json:"deleted"`
	UnattributedRides   int                             `json:"unattributed_rides"`
	UnattributedRevenue float64                         `json:"unattributed_revenue"`
	Stale               bool                            `json:"stale"`
}

// HourlyResult holds today's hourly revenue
type HourlyResult struct {
	Now   time.Time                  `json:"now"`
	Hours []ridemetrics.HourlyBucket `json:"hours"`
	Stale bool                       `json:"stale"`
}

// RatingTrendResult holds the average rating per bucket
type RatingTrendResult struct {
	Now         time.Time                  `json:"now"`
	Granularity ridemetrics.Granularity    `json:"granularity"`
	Buckets     []ridemetrics.RatingBucket `json:"buckets"`
}
