package ridehistory

import (
	"time"

	"github.com/ecoride/ride-metrics/internal/ridemetrics"
)

// UnknownStation is shown for rides whose station can no longer be resolved
const UnknownStation = "Unknown Station"

// RideHistoryEntry is a ride with its station names resolved for display
type RideHistoryEntry struct {
	ID     string `json:"id"`
	UserID string `json:"user_id,omitempty"`
	BikeID string `json:"bike_id,omitempty"`

	// Route
	StartStationID   string `json:"start_station_id,omitempty"`
	StartStationName string `json:"start_station_name"`
	EndStationID     string `json:"end_station_id,omitempty"`
	EndStationName   string `json:"end_station_name"`

	// Measurements
	AmountPaid      float64 `json:"amount_paid"`
	DistanceKm      float64 `json:"distance_km"`
	DurationSeconds float64 `json:"duration_seconds"`
	DurationMinutes float64 `json:"duration_minutes"`
	CaloriesBurned  float64 `json:"calories_burned"`
	CarbonSavedKg   float64 `json:"carbon_saved_kg"`

	// Timestamps
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// StationOption is one entry of the station filter
type StationOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FrequentRoute is a commonly ridden start and end station pair
type FrequentRoute struct {
	StartStationID   string    `json:"start_station_id"`
	StartStationName string    `json:"start_station_name"`
	EndStationID     string    `json:"end_station_id"`
	EndStationName   string    `json:"end_station_name"`
	RideCount        int       `json:"ride_count"`
	AverageFare      float64   `json:"average_fare"`
	LastRideAt       time.Time `json:"last_ride_at"`
}

// ========================================
// REQUEST/RESPONSE TYPES
// ========================================

// HistoryQuery filters and orders the ride history table
type HistoryQuery struct {
	Window  string `form:"window" validate:"history_window"`
	Station string `form:"station"`
	Sort    string `form:"sort" validate:"omitempty,oneof=ended_at amount distance duration"`
	Dir     string `form:"dir" validate:"sort_dir"`
}

// StatsQuery selects the rides summarized by GetStats
type StatsQuery struct {
	Window  string `form:"window" validate:"history_window"`
	Station string `form:"station"`
}

// HistoryFilters is a resolved HistoryQuery
type HistoryFilters struct {
	Window    ridemetrics.TimeWindow
	StationID string
	Sort      SortField
	Dir       ridemetrics.SortDirection
}

// HistoryPage is one page of the filtered history plus totals over every matching ride
type HistoryPage struct {
	Now    time.Time                  `json:"now"`
	Window string                     `json:"window"`
	Rides  []RideHistoryEntry         `json:"rides"`
	Totals ridemetrics.AggregateStats `json:"totals"`
	Total  int                        `json:"-"`
}

// HistoryStats summarizes the filtered rides
type HistoryStats struct {
	Now      time.Time                  `json:"now"`
	Window   string                     `json:"window"`
	Station  string                     `json:"station,omitempty"`
	Totals   ridemetrics.AggregateStats `json:"totals"`
	Insights ridemetrics.Insights       `json:"insights"`
}
