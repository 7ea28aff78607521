package analytics

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ecoride/ride-metrics/internal/ridemetrics"
)

// Shared column list for ride snapshot queries
const rideColumns = `
	r.id,
	COALESCE(r.user_id, ''),
	COALESCE(r.bike_id, ''),
	r.started_at, r.ended_at,
	COALESCE(r.start_station_id, ''), COALESCE(r.start_station_name, ''),
	COALESCE(r.end_station_id, ''), COALESCE(r.end_station_name, ''),
	COALESCE(r.amount_paid, 0),
	COALESCE(r.distance_km, 0),
	COALESCE(r.duration_seconds, 0),
	COALESCE(r.calories_burned, 0),
	COALESCE(r.carbon_saved_kg, 0)`

// scanRide scans a row into a RideRecord
func scanRide(scan func(dest ...interface{}) error) (ridemetrics.RideRecord, error) {
	var (
		r         ridemetrics.RideRecord
		startedAt sql.NullTime
		endedAt   sql.NullTime
	)
	err := scan(
		&r.ID, &r.UserID, &r.BikeID,
		&startedAt, &endedAt,
		&r.StartStationID, &r.StartStationName,
		&r.EndStationID, &r.EndStationName,
		&r.AmountPaid, &r.DistanceKm, &r.DurationSeconds,
		&r.CaloriesBurned, &r.CarbonSavedKg,
	)
	if err != nil {
		return r, err
	}
	if startedAt.Valid {
		t := startedAt.Time
		r.StartedAt = &t
	}
	if endedAt.Valid {
		t := endedAt.Time
		r.EndedAt = &t
	}
	return r, nil
}

// Repository reads snapshots from PostgreSQL
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new analytics repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// LoadRides returns every ride in the history table
func (r *Repository) LoadRides(ctx context.Context) ([]ridemetrics.RideRecord, error) {
	query := `SELECT ` + rideColumns + `
		FROM ride_history r
		ORDER BY r.ended_at DESC NULLS LAST, r.id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rides: %w", err)
	}
	defer rows.Close()

	rides := make([]ridemetrics.RideRecord, 0)
	for rows.Next() {
		ride, err := scanRide(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ride: %w", err)
		}
		rides = append(rides, ride)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rides: %w", err)
	}

	return rides, nil
}

// LoadStations returns the current station registry
func (r *Repository) LoadStations(ctx context.Context) ([]ridemetrics.Station, error) {
	query := `
		SELECT id, COALESCE(name, '')
		FROM stations
		WHERE deleted_at IS NULL
		ORDER BY name, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer rows.Close()

	stations := make([]ridemetrics.Station, 0)
	for rows.Next() {
		var st ridemetrics.Station
		if err := rows.Scan(&st.ID, &st.Name); err != nil {
			return nil, fmt.Errorf("failed to scan station: %w", err)
		}
		stations = append(stations, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stations: %w", err)
	}

	return stations, nil
}

// LoadRatings returns every submitted ride rating
func (r *Repository) LoadRatings(ctx context.Context) ([]ridemetrics.RideRating, error) {
	query := `
		SELECT id, COALESCE(ride_id, ''), COALESCE(rating, 0), created_at
		FROM ride_ratings
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	ratings := make([]ridemetrics.RideRating, 0)
	for rows.Next() {
		var rt ridemetrics.RideRating
		if err := rows.Scan(&rt.ID, &rt.RideID, &rt.Rating, &rt.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ratings: %w", err)
	}

	return ratings, nil
}

// Ping checks the database connection
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
