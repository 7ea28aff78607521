package ridemetrics

import "math"

// Equivalence factors used by the dashboard narrative cards
const (
	caloriesPerMeal        = 100.0
	healthSavingsPerCal    = 0.26
	carUnitsPerBikeKm      = 0.25
	parkingMinutesPerRide  = 5.0
	trafficShareOfRideTime = 0.3
	vehiclesPerRide        = 0.8
	carbonPerTreeKg        = 21.0
	carbonPerCarKm         = 0.251
	airQualityPerCarbonKg  = 0.05
)

// Insights are the derived equivalences shown next to each trend chart
type Insights struct {
	AvgRevenuePerRide       float64 `json:"avg_revenue_per_ride"`
	MealsEquivalent         float64 `json:"meals_equivalent"`
	HealthCostSavings       float64 `json:"health_cost_savings"`
	CarEquivalentTrips      float64 `json:"car_equivalent_trips"`
	RideHours               int     `json:"ride_hours"`
	RideMinutes             int     `json:"ride_minutes"`
	HoursSaved              float64 `json:"hours_saved"`
	VehiclesReduced         float64 `json:"vehicles_reduced"`
	TreesEquivalent         float64 `json:"trees_equivalent"`
	CarKmAvoided            float64 `json:"car_km_avoided"`
	AirQualityImprovementPc float64 `json:"air_quality_improvement_pct"`
}

// BuildInsights derives the narrative equivalences from one window's totals
func BuildInsights(stats AggregateStats) Insights {
	minutes := stats.TotalDurationMinutes
	rides := float64(stats.RideCount)

	return Insights{
		AvgRevenuePerRide:       stats.AvgRevenue,
		MealsEquivalent:         math.Round(stats.TotalCalories / caloriesPerMeal),
		HealthCostSavings:       stats.TotalCalories * healthSavingsPerCal,
		CarEquivalentTrips:      math.Round(stats.TotalDistanceKm * carUnitsPerBikeKm),
		RideHours:               int(minutes / 60),
		RideMinutes:             int(math.Mod(minutes, 60)),
		HoursSaved:              math.Round(rides*parkingMinutesPerRide/60 + minutes*trafficShareOfRideTime),
		VehiclesReduced:         math.Round(rides * vehiclesPerRide),
		TreesEquivalent:         stats.TotalCarbonSavedKg / carbonPerTreeKg,
		CarKmAvoided:            stats.TotalCarbonSavedKg / carbonPerCarKm,
		AirQualityImprovementPc: stats.TotalCarbonSavedKg * airQualityPerCarbonKg,
	}
}
