package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRideFromDocument_FullDocument(t *testing.T) {
	ended := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)

	ride := rideFromDocument("r1", map[string]interface{}{
		"userId":         "u1",
		"bikeId":         "b7",
		"rideEndedAt":    ended,
		"startStation":   " A ",
		"endStation":     "B",
		"stationName":    "Alpha",
		"amountPaid":     int64(50),
		"distance":       4.2,
		"duration":       "1800",
		"caloriesBurned": 120.0,
		"carbonSaved":    0.9,
	})

	assert.Equal(t, "r1", ride.ID)
	assert.Equal(t, "u1", ride.UserID)
	assert.Equal(t, "b7", ride.BikeID)
	require.NotNil(t, ride.EndedAt)
	assert.True(t, ended.Equal(*ride.EndedAt))
	assert.Equal(t, "A", ride.StartStationID)
	assert.Equal(t, "Alpha", ride.StartStationName)
	assert.Equal(t, "B", ride.EndStationID)
	assert.Equal(t, 50.0, ride.AmountPaid)
	assert.Equal(t, 4.2, ride.DistanceKm)
	assert.Equal(t, 1800.0, ride.DurationSeconds)
	assert.Equal(t, 120.0, ride.CaloriesBurned)
	assert.Equal(t, 0.9, ride.CarbonSavedKg)
}

func TestRideFromDocument_LooseDocument(t *testing.T) {
	ride := rideFromDocument("r2", map[string]interface{}{
		"rideEndedAt": map[string]interface{}{"seconds": int64(1710489600)},
		"amountPaid":  "not a number",
		"currentMetrics": map[string]interface{}{
			"calories": int64(90),
			"distance": 3.5,
		},
	})

	require.NotNil(t, ride.EndedAt)
	assert.Equal(t, int64(1710489600), ride.EndedAt.Unix())
	assert.Equal(t, 0.0, ride.AmountPaid)
	assert.Equal(t, 90.0, ride.CaloriesBurned)
	assert.Equal(t, 3.5, ride.DistanceKm)
	assert.Empty(t, ride.StartStationID)
}

func TestRideFromDocument_MissingEndedAt(t *testing.T) {
	ride := rideFromDocument("r3", map[string]interface{}{"amountPaid": 10.0})
	assert.Nil(t, ride.EndedAt)
	assert.Equal(t, 10.0, ride.AmountPaid)
}

func TestToTime(t *testing.T) {
	ref := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input interface{}
		want  *time.Time
	}{
		{name: "timestamp", input: ref, want: &ref},
		{name: "seconds map", input: map[string]interface{}{"seconds": float64(ref.Unix())}, want: &ref},
		{name: "admin sdk map", input: map[string]interface{}{"_seconds": ref.Unix()}, want: &ref},
		{name: "rfc3339", input: "2024-03-15T08:00:00Z", want: &ref},
		{name: "epoch millis", input: ref.UnixMilli(), want: &ref},
		{name: "garbage string", input: "yesterday", want: nil},
		{name: "map without seconds", input: map[string]interface{}{"foo": 1}, want: nil},
		{name: "zero time", input: time.Time{}, want: nil},
		{name: "nil", input: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toTime(tt.input)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %v", got)
		})
	}
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  float64
	}{
		{name: "float", input: 2.5, want: 2.5},
		{name: "int64", input: int64(7), want: 7},
		{name: "numeric string", input: " 12.5 ", want: 12.5},
		{name: "empty string", input: "", want: 0},
		{name: "bool", input: true, want: 1},
		{name: "nan", input: math.NaN(), want: 0},
		{name: "inf", input: math.Inf(1), want: 0},
		{name: "map", input: map[string]interface{}{}, want: 0},
		{name: "nil", input: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toNumber(tt.input))
		})
	}
}

func TestStationAndRatingDocuments(t *testing.T) {
	st := stationFromDocument("A", map[string]interface{}{"stationName": "Alpha "})
	assert.Equal(t, "A", st.ID)
	assert.Equal(t, "Alpha", st.Name)

	at := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	rating, ok := ratingFromDocument("rt1", map[string]interface{}{
		"rating":    int64(5),
		"rideId":    "r1",
		"timestamp": at,
	})
	require.True(t, ok)
	assert.Equal(t, 5.0, rating.Rating)
	assert.Equal(t, "r1", rating.RideID)

	_, ok = ratingFromDocument("rt2", map[string]interface{}{"rating": 3.0})
	assert.False(t, ok)
}
