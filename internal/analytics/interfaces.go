package analytics

import (
	"context"
	"time"

	"github.com/ecoride/ride-metrics/internal/ridemetrics"
)

// SnapshotSource defines the reads required to build reports.
type SnapshotSource interface {
	LoadRides(ctx context.Context) ([]ridemetrics.RideRecord, error)
	LoadStations(ctx context.Context) ([]ridemetrics.Station, error)
	LoadRatings(ctx context.Context) ([]ridemetrics.RideRating, error)
	Ping(ctx context.Context) error
}

// ReportCache stores built reports. Get returns ErrCacheMiss when the key is absent.
type ReportCache interface {
	Get(ctx context.Context, key string) (*ridemetrics.Report, error)
	Set(ctx context.Context, key string, report *ridemetrics.Report, ttl time.Duration) error
}
