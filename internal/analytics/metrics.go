package analytics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	snapshotLoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ridemetrics",
		Name:      "snapshot_load_duration_seconds",
		Help:      "Time spent loading ride snapshots from the source",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})

	snapshotRides = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ridemetrics",
		Name:      "snapshot_rides",
		Help:      "Number of rides in the last loaded snapshot",
	})

	reportBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ridemetrics",
		Name:      "report_build_duration_seconds",
		Help:      "Time spent building a dashboard report",
		Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"window"})

	reportCacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ridemetrics",
		Name:      "report_cache_results_total",
		Help:      "Report cache lookups by result",
	}, []string{"result"})

	staleReportsServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ridemetrics",
		Name:      "stale_reports_served_total",
		Help:      "Reports served from the fallback cache while the source was unavailable",
	}, []string{"window"})
)
