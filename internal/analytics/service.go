package analytics

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/ecoride/ride-metrics/internal/ridemetrics"
	"github.com/ecoride/ride-metrics/pkg/common"
	"github.com/ecoride/ride-metrics/pkg/logger"
	"github.com/ecoride/ride-metrics/pkg/resilience"
	"github.com/ecoride/ride-metrics/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// staleReportTTL bounds how long the last good report may be served while the source is down
const staleReportTTL = 24 * time.Hour

// ServiceConfig tunes report computation
type ServiceConfig struct {
	Location      *time.Location
	Attribution   ridemetrics.AttributionKey
	NowResolution time.Duration
	CacheTTL      time.Duration
	LoadTimeout   time.Duration
	Retry         resilience.RetryConfig
}

// Service loads ride snapshots and turns them into dashboard reports
type Service struct {
	source  SnapshotSource
	cfg     ServiceConfig
	cache   ReportCache
	breaker *resilience.CircuitBreaker
	clock   func() time.Time
}

// NewService creates a new analytics service
func NewService(source SnapshotSource, cfg ServiceConfig) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if !cfg.Attribution.Valid() {
		cfg.Attribution = ridemetrics.AttributeByStart
	}
	return &Service{source: source, cfg: cfg, clock: time.Now}
}

// SetCache enables report caching and stale fallbacks
func (s *Service) SetCache(cache ReportCache) {
	s.cache = cache
}

// SetCircuitBreaker routes snapshot loads through breaker
func (s *Service) SetCircuitBreaker(breaker *resilience.CircuitBreaker) {
	s.breaker = breaker
}

// Now returns the instant every aggregate of a request is computed against
func (s *Service) Now() time.Time {
	now := s.clock().In(s.cfg.Location)
	if s.cfg.NowResolution > 0 {
		now = now.Truncate(s.cfg.NowResolution)
	}
	return now
}

// Ping checks the snapshot source
func (s *Service) Ping(ctx context.Context) error {
	return s.source.Ping(ctx)
}

// ========================================
// REPORTS
// ========================================

// Report returns the full dashboard report for a window
func (s *Service) Report(ctx context.Context, q ReportQuery) (*ReportResult, error) {
	return s.report(ctx, resolveWindow(q.Window), s.resolveAttribution(q.Attribution))
}

// Totals returns the summary totals of every window
func (s *Service) Totals(ctx context.Context) (*TotalsResult, error) {
	result, err := s.report(ctx, ridemetrics.WindowAll, s.cfg.Attribution)
	if err != nil {
		return nil, err
	}
	return &TotalsResult{
		Now:     result.Report.Now,
		Totals:  result.Report.Totals,
		Version: result.Version,
		Stale:   result.Stale,
	}, nil
}

// Trend returns one dense trend series
func (s *Service) Trend(ctx context.Context, q TrendQuery) (*TrendResult, error) {
	g := resolveGranularity(q.Granularity)

	result, err := s.report(ctx, ridemetrics.WindowAll, s.cfg.Attribution)
	if err != nil {
		return nil, err
	}
	return &TrendResult{
		Now:         result.Report.Now,
		Granularity: g,
		Buckets:     result.Report.Trend[g],
		Stale:       result.Stale,
	}, nil
}

// StationRevenue returns the station leaderboard for a window, ordered as requested
func (s *Service) StationRevenue(ctx context.Context, q StationRevenueQuery) (*StationRevenueResult, error) {
	window := resolveWindow(q.Window)
	key := s.resolveAttribution(q.Attribution)

	result, err := s.report(ctx, window, key)
	if err != nil {
		return nil, err
	}

	field, dir := resolveSort(q.Sort, q.Dir)
	attribution := result.Report.StationRevenue

	deleted := []ridemetrics.StationRevenueRow{}
	if q.IncludeDeleted == nil || *q.IncludeDeleted {
		deleted = ridemetrics.SortRows(attribution.Deleted, field, dir)
	}

	return &StationRevenueResult{
		Now:                 result.Report.Now,
		Window:              window,
		Attribution:         key,
		Active:              ridemetrics.SortRows(attribution.Active, field, dir),
		Deleted:             deleted,
		UnattributedRides:   attribution.UnattributedRides,
		UnattributedRevenue: attribution.UnattributedRevenue,
		Stale:               result.Stale,
	}, nil
}

// Hourly returns today's revenue per hour
func (s *Service) Hourly(ctx context.Context) (*HourlyResult, error) {
	result, err := s.report(ctx, ridemetrics.WindowDaily, s.cfg.Attribution)
	if err != nil {
		return nil, err
	}
	return &HourlyResult{
		Now:   result.Report.Now,
		Hours: result.Report.HourlyRevenue,
		Stale: result.Stale,
	}, nil
}

// RatingTrend returns the average ride rating per bucket
func (s *Service) RatingTrend(ctx context.Context, q TrendQuery) (*RatingTrendResult, error) {
	g := resolveGranularity(q.Granularity)
	now := s.Now()

	ctx, span := tracing.StartSpan(ctx, "analytics.load_ratings")
	defer span.End()

	ctx, cancel := s.withLoadTimeout(ctx)
	defer cancel()

	value, err := s.guarded(ctx, func(ctx context.Context) (interface{}, error) {
		return s.source.LoadRatings(ctx)
	})
	if err != nil {
		tracing.RecordError(span, err)
		logger.WithContext(ctx).Error("failed to load ratings", zap.Error(err))
		return nil, loadError(err)
	}

	return &RatingTrendResult{
		Now:         now,
		Granularity: g,
		Buckets:     ridemetrics.BuildRatingTrend(value.([]ridemetrics.RideRating), g, now),
	}, nil
}

func (s *Service) report(ctx context.Context, window ridemetrics.TimeWindow, key ridemetrics.AttributionKey) (*ReportResult, error) {
	now := s.Now()

	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return s.staleReport(ctx, window, key, err)
	}

	cacheKey := reportKey(snap.Version, window, key, now)
	if cached := s.cachedReport(ctx, cacheKey); cached != nil {
		return &ReportResult{Report: cached, Version: snap.Version}, nil
	}

	report := s.build(ctx, snap, window, key, now)
	s.storeReport(ctx, cacheKey, window, key, report)

	return &ReportResult{Report: report, Version: snap.Version}, nil
}

func (s *Service) build(ctx context.Context, snap *Snapshot, window ridemetrics.TimeWindow, key ridemetrics.AttributionKey, now time.Time) *ridemetrics.Report {
	_, span := tracing.StartSpan(ctx, "analytics.build_report",
		attribute.String("window", string(window)),
		attribute.String("attribution", string(key)),
	)
	defer span.End()

	start := time.Now()
	report := ridemetrics.BuildReport(snap.Rides, snap.Stations, window, now, ridemetrics.ReportOptions{
		Attribution: ridemetrics.AttributionOptions{Key: key},
	})
	reportBuildDuration.WithLabelValues(string(window)).Observe(time.Since(start).Seconds())

	return report
}

// ========================================
// SNAPSHOT LOADING
// ========================================

// Snapshot loads the current rides and stations through the same retry and breaker
// path as the reports
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		logger.WithContext(ctx).Error("failed to load ride snapshot", zap.Error(err))
		return nil, loadError(err)
	}
	return snap, nil
}

func (s *Service) loadSnapshot(ctx context.Context) (*Snapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "analytics.load_snapshot")
	defer span.End()

	ctx, cancel := s.withLoadTimeout(ctx)
	defer cancel()

	start := time.Now()
	value, err := s.guarded(ctx, func(ctx context.Context) (interface{}, error) {
		snap := &Snapshot{}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			rides, err := s.source.LoadRides(gctx)
			snap.Rides = rides
			return err
		})
		g.Go(func() error {
			stations, err := s.source.LoadStations(gctx)
			snap.Stations = stations
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return snap, nil
	})

	status := "success"
	if err != nil {
		status = "error"
	}
	snapshotLoadDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	snap := value.(*Snapshot)
	snap.Version = snapshotVersion(snap.Rides, snap.Stations)
	snap.LoadedAt = s.clock()
	snapshotRides.Set(float64(len(snap.Rides)))

	span.SetAttributes(
		attribute.Int("rides", len(snap.Rides)),
		attribute.Int("stations", len(snap.Stations)),
		attribute.String("version", snap.Version),
	)

	return snap, nil
}

// guarded runs op with retries, sending every attempt through the breaker when one is set
func (s *Service) guarded(ctx context.Context, op resilience.Operation) (interface{}, error) {
	if s.breaker == nil {
		return resilience.Retry(ctx, s.cfg.Retry, op)
	}
	return resilience.RetryWithBreaker(ctx, s.cfg.Retry, s.breaker, op)
}

func (s *Service) withLoadTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.LoadTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.LoadTimeout)
}

// snapshotVersion digests the snapshot content. Records are hashed one by one and summed
// so the version does not depend on the order the source returned them in.
func snapshotVersion(rides []ridemetrics.RideRecord, stations []ridemetrics.Station) string {
	var sum uint64
	d := xxhash.New()

	for i := range rides {
		r := &rides[i]
		d.Reset()
		writeField(d, "ride", r.ID, r.UserID, r.BikeID, r.StartStationID, r.StartStationName, r.EndStationID, r.EndStationName)
		writeTime(d, r.StartedAt)
		writeTime(d, r.EndedAt)
		writeFloat(d, r.AmountPaid, r.DistanceKm, r.DurationSeconds, r.CaloriesBurned, r.CarbonSavedKg)
		sum += d.Sum64()
	}
	for _, st := range stations {
		d.Reset()
		writeField(d, "station", st.ID, st.Name)
		sum += d.Sum64()
	}

	d.Reset()
	writeField(d, strconv.Itoa(len(rides)), strconv.Itoa(len(stations)), strconv.FormatUint(sum, 16))
	return strconv.FormatUint(d.Sum64(), 16)
}

func writeField(d *xxhash.Digest, values ...string) {
	for _, v := range values {
		_, _ = d.WriteString(v)
		_, _ = d.Write([]byte{0})
	}
}

func writeTime(d *xxhash.Digest, t *time.Time) {
	if t == nil {
		writeField(d, "-")
		return
	}
	writeField(d, strconv.FormatInt(t.UnixNano(), 10))
}

func writeFloat(d *xxhash.Digest, values ...float64) {
	for _, v := range values {
		writeField(d, strconv.FormatUint(math.Float64bits(v), 16))
	}
}

// ========================================
// CACHING
// ========================================

func (s *Service) cachedReport(ctx context.Context, key string) *ridemetrics.Report {
	if s.cache == nil || s.cfg.CacheTTL <= 0 {
		return nil
	}

	report, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		reportCacheResults.WithLabelValues("hit").Inc()
		return report
	case errors.Is(err, ErrCacheMiss):
		reportCacheResults.WithLabelValues("miss").Inc()
	default:
		reportCacheResults.WithLabelValues("error").Inc()
		logger.WithContext(ctx).Warn("report cache read failed", zap.String("key", key), zap.Error(err))
	}
	return nil
}

func (s *Service) storeReport(ctx context.Context, key string, window ridemetrics.TimeWindow, attribution ridemetrics.AttributionKey, report *ridemetrics.Report) {
	if s.cache == nil {
		return
	}

	if s.cfg.CacheTTL > 0 {
		if err := s.cache.Set(ctx, key, report, s.cfg.CacheTTL); err != nil {
			logger.WithContext(ctx).Warn("report cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	if err := s.cache.Set(ctx, latestKey(window, attribution), report, staleReportTTL); err != nil {
		logger.WithContext(ctx).Warn("fallback report write failed", zap.Error(err))
	}
}

// staleReport serves the last good report for the window when the source cannot be read
func (s *Service) staleReport(ctx context.Context, window ridemetrics.TimeWindow, key ridemetrics.AttributionKey, loadErr error) (*ReportResult, error) {
	log := logger.WithContext(ctx)

	if s.cache != nil {
		report, err := s.cache.Get(ctx, latestKey(window, key))
		if err == nil {
			staleReportsServed.WithLabelValues(string(window)).Inc()
			log.Warn("serving stale report, snapshot load failed",
				zap.String("window", string(window)),
				zap.Time("report_now", report.Now),
				zap.Error(loadErr),
			)
			return &ReportResult{Report: report, Stale: true}, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			log.Warn("fallback report read failed", zap.Error(err))
		}
	}

	log.Error("failed to load ride snapshot", zap.Error(loadErr))
	return nil, loadError(loadErr)
}

// loadError maps a source failure onto the HTTP error reported to clients
func loadError(err error) *common.AppError {
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return common.NewServiceUnavailableError("ride data source is unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return common.NewAppError(http.StatusServiceUnavailable, "ride data source timed out", err)
	default:
		return common.NewInternalError("failed to load ride data", err)
	}
}

// ========================================
// QUERY DEFAULTS
// ========================================

func resolveWindow(value string) ridemetrics.TimeWindow {
	w := ridemetrics.TimeWindow(value)
	if !w.Valid() {
		return ridemetrics.WindowAll
	}
	return w
}

func resolveGranularity(value string) ridemetrics.Granularity {
	g := ridemetrics.Granularity(value)
	if !g.Valid() {
		return ridemetrics.GranularityDaily
	}
	return g
}

func (s *Service) resolveAttribution(value string) ridemetrics.AttributionKey {
	k := ridemetrics.AttributionKey(value)
	if !k.Valid() {
		return s.cfg.Attribution
	}
	return k
}

// resolveSort defaults to revenue descending; names sort ascending unless asked otherwise
func resolveSort(field, dir string) (ridemetrics.SortField, ridemetrics.SortDirection) {
	f := ridemetrics.SortField(field)
	switch f {
	case ridemetrics.SortByRevenue, ridemetrics.SortByRides, ridemetrics.SortByName:
	default:
		f = ridemetrics.SortByRevenue
	}

	d := ridemetrics.SortDirection(dir)
	if d != ridemetrics.SortAsc && d != ridemetrics.SortDesc {
		d = ridemetrics.SortDesc
		if f == ridemetrics.SortByName {
			d = ridemetrics.SortAsc
		}
	}
	return f, d
}
