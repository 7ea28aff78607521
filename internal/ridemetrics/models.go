package ridemetrics

import (
	"time"
)

// UnknownStationName labels rides whose station no longer exists and carried no name snapshot.
const UnknownStationName = "Unknown Station"

// TimeWindow is a now-relative filter used for summary totals
type TimeWindow string

const (
	WindowDaily   TimeWindow = "daily"
	WindowWeekly  TimeWindow = "weekly"
	WindowMonthly TimeWindow = "monthly"
	WindowAll     TimeWindow = "all"
)

// Windows lists every TimeWindow in display order
var Windows = []TimeWindow{WindowDaily, WindowWeekly, WindowMonthly, WindowAll}

// Valid reports whether w is a known window
func (w TimeWindow) Valid() bool {
	switch w {
	case WindowDaily, WindowWeekly, WindowMonthly, WindowAll:
		return true
	}
	return false
}

// Granularity is the bucket width of a trend series
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

// Granularities lists every Granularity in display order
var Granularities = []Granularity{GranularityDaily, GranularityWeekly, GranularityMonthly}

// Valid reports whether g is a known granularity
func (g Granularity) Valid() bool {
	switch g {
	case GranularityDaily, GranularityWeekly, GranularityMonthly:
		return true
	}
	return false
}

// RideRecord is a completed ride as stored in ride history
type RideRecord struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id,omitempty"`
	BikeID           string     `json:"bike_id,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	EndedAt          *time.Time `json:"ended_at,omitempty"`
	StartStationID   string     `json:"start_station_id,omitempty"`
	StartStationName string     `json:"start_station_name,omitempty"`
	EndStationID     string     `json:"end_station_id,omitempty"`
	EndStationName   string     `json:"end_station_name,omitempty"`

	// Measurements
	AmountPaid      float64 `json:"amount_paid"`
	DistanceKm      float64 `json:"distance_km"`
	DurationSeconds float64 `json:"duration_seconds"`
	CaloriesBurned  float64 `json:"calories_burned"`
	CarbonSavedKg   float64 `json:"carbon_saved_kg"`
}

// Station is the current reference entry for a docking station
type Station struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RideRating is a rider's score for a finished ride
type RideRating struct {
	ID        string    `json:"id"`
	RideID    string    `json:"ride_id,omitempty"`
	Rating    float64   `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}

// AggregateStats summarizes all rides inside one window
type AggregateStats struct {
	Window               TimeWindow `json:"window"`
	RideCount            int        `json:"ride_count"`
	TotalRevenue         float64    `json:"total_revenue"`
	TotalDistanceKm      float64    `json:"total_distance_km"`
	TotalDurationSeconds float64    `json:"total_duration_seconds"`
	TotalDurationMinutes float64    `json:"total_duration_minutes"`
	TotalCalories        float64    `json:"total_calories"`
	TotalCarbonSavedKg   float64    `json:"total_carbon_saved_kg"`
	AvgRevenue           float64    `json:"avg_revenue_per_ride"`
}

// PeriodBucket is one point of a trend series
type PeriodBucket struct {
	Label           string    `json:"label"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	Revenue         float64   `json:"revenue"`
	Calories        float64   `json:"calories"`
	DistanceKm      float64   `json:"distance_km"`
	DurationMinutes float64   `json:"duration_minutes"`
	CarbonSavedKg   float64   `json:"carbon_saved_kg"`
	RideCount       int       `json:"ride_count"`

	// Per-ride averages
	AvgRevenue         float64 `json:"avg_revenue"`
	AvgCalories        float64 `json:"avg_calories"`
	AvgDistanceKm      float64 `json:"avg_distance_km"`
	AvgDurationMinutes float64 `json:"avg_duration_minutes"`
	AvgCarbonSavedKg   float64 `json:"avg_carbon_saved_kg"`
}

// StationRevenueRow is one line of the station revenue leaderboard
type StationRevenueRow struct {
	StationID   string  `json:"station_id"`
	StationName string  `json:"station_name"`
	Revenue     float64 `json:"revenue"`
	RideCount   int     `json:"ride_count"`
	IsDeleted   bool    `json:"is_deleted"`
}

// StationAttribution splits windowed revenue between active and deleted stations
type StationAttribution struct {
	Window              TimeWindow          `json:"window"`
	Key                 AttributionKey      `json:"attribution"`
	Active              []StationRevenueRow `json:"active"`
	Deleted             []StationRevenueRow `json:"deleted"`
	UnattributedRides   int                 `json:"unattributed_rides"`
	UnattributedRevenue float64             `json:"unattributed_revenue"`
}

// HourlyBucket holds revenue for one hour of the current day
type HourlyBucket struct {
	Hour      int     `json:"hour"`
	Label     string  `json:"label"`
	Revenue   float64 `json:"revenue"`
	RideCount int     `json:"ride_count"`
}

// RatingBucket holds the average rating for one trend period
type RatingBucket struct {
	Label         string    `json:"label"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	AverageRating float64   `json:"average_rating"`
	TotalRatings  int       `json:"total_ratings"`
}

// Report is an immutable snapshot of every dashboard aggregate for one instant
type Report struct {
	Now            time.Time                      `json:"now"`
	Window         TimeWindow                     `json:"window"`
	Totals         map[TimeWindow]AggregateStats  `json:"totals"`
	Trend          map[Granularity][]PeriodBucket `json:"trend"`
	StationRevenue StationAttribution             `json:"station_revenue"`
	HourlyRevenue  []HourlyBucket                 `json:"hourly_revenue"`
	Insights       Insights                       `json:"insights"`
}
