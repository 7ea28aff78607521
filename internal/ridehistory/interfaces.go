package ridehistory

import (
	"context"
	"time"

	"github.com/ecoride/ride-metrics/internal/analytics"
)

// SnapshotProvider supplies the ride data the history views are computed from
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (*analytics.Snapshot, error)
	Now() time.Time
}
