package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecoride/ride-metrics/internal/analytics"
	"github.com/ecoride/ride-metrics/internal/ridehistory"
	"github.com/ecoride/ride-metrics/internal/ridemetrics"
	"github.com/ecoride/ride-metrics/pkg/common"
	"github.com/ecoride/ride-metrics/pkg/config"
	"github.com/ecoride/ride-metrics/pkg/database"
	"github.com/ecoride/ride-metrics/pkg/health"
	"github.com/ecoride/ride-metrics/pkg/logger"
	"github.com/ecoride/ride-metrics/pkg/middleware"
	"github.com/ecoride/ride-metrics/pkg/redis"
	"github.com/ecoride/ride-metrics/pkg/resilience"
	"github.com/ecoride/ride-metrics/pkg/tracing"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	serviceName     = "ride-metrics"
	serviceVersion  = "1.0.0"
	shutdownTimeout = 10 * time.Second
	healthCacheTTL  = 5 * time.Second
)

// healthChecks groups readiness probes by how much a failure matters
type healthChecks struct {
	required map[string]func() error
	optional map[string]func() error
}

func main() {
	// Load configuration
	cfg, err := config.Load(serviceName)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	shutdownTracing, err := tracing.Init(ctx, serviceName, serviceVersion, cfg.Tracing)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
		shutdownTracing = func(context.Context) error { return nil }
	}

	sentryEnabled, err := middleware.InitSentry(cfg.Sentry, cfg.Server.Environment, serviceVersion)
	if err != nil {
		logger.Warn("sentry disabled", zap.Error(err))
	}
	if sentryEnabled {
		defer middleware.FlushSentry()
	}

	checks := healthChecks{
		required: make(map[string]func() error),
		optional: make(map[string]func() error),
	}

	// Snapshot source
	source, retryable, closeSource, err := openSource(ctx, cfg, checks)
	if err != nil {
		logger.Fatal("failed to open ride data source", zap.String("source", cfg.Metrics.Source), zap.Error(err))
	}
	defer closeSource()

	svc, err := newAnalyticsService(cfg, source, retryable)
	if err != nil {
		logger.Fatal("invalid metrics configuration", zap.Error(err))
	}

	// Report cache
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, serving reports without cache", zap.Error(err))
		} else {
			defer redisClient.Close()
			svc.SetCache(analytics.NewRedisCache(redisClient))
			checks.optional["redis"] = health.NewCachedChecker(health.RedisChecker(redisClient.Client), healthCacheTTL).Check
			logger.Info("report cache enabled", zap.String("addr", cfg.Redis.RedisAddr()))
		}
	}

	if cfg.Breaker.Enabled {
		settings := resilience.SettingsFromConfig("ride-snapshot", cfg.Breaker)
		settings.Dependency = cfg.Metrics.Source
		svc.SetCircuitBreaker(resilience.NewCircuitBreaker(settings, resilience.GracefulDegradation(cfg.Metrics.Source)))
	}

	router := newRouter(cfg, svc, checks)

	srv := newServer(cfg, router)

	go func() {
		logger.Info("ride metrics service starting",
			zap.String("port", cfg.Server.Port),
			zap.String("source", cfg.Metrics.Source),
			zap.String("timezone", cfg.Metrics.Timezone),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down ride metrics service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("failed to flush traces", zap.Error(err))
	}
}

// openSource connects the configured snapshot source and registers its readiness check
func openSource(ctx context.Context, cfg *config.Config, checks healthChecks) (analytics.SnapshotSource, func(error) bool, func(), error) {
	switch cfg.Metrics.Source {
	case config.SourceFirestore:
		fs, err := analytics.NewFirestoreSource(ctx, cfg.Firebase)
		if err != nil {
			return nil, nil, nil, err
		}
		checks.required["firestore"] = health.NewCachedChecker(
			health.ContextChecker(fs.Ping, health.DefaultCheckerConfig()), healthCacheTTL,
		).Check
		logger.Info("connected to firestore", zap.String("project", cfg.Firebase.ProjectID))
		return fs, nil, func() { _ = fs.Close() }, nil

	default:
		db, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		checks.required["database"] = health.NewCachedChecker(health.DatabaseChecker(db), healthCacheTTL).Check
		logger.Info("connected to postgres", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))
		return analytics.NewRepository(db), database.IsRetryable, func() { database.Close(db) }, nil
	}
}

func newAnalyticsService(cfg *config.Config, source analytics.SnapshotSource, retryable func(error) bool) (*analytics.Service, error) {
	loc, err := cfg.Metrics.Location()
	if err != nil {
		return nil, err
	}

	retry := resilience.DefaultRetryConfig()
	retry.MaxBackoff = 5 * time.Second
	retry.RetryableChecker = retryable

	return analytics.NewService(source, analytics.ServiceConfig{
		Location:      loc,
		Attribution:   ridemetrics.AttributionKey(cfg.Metrics.Attribution),
		NowResolution: cfg.Metrics.NowResolution(),
		CacheTTL:      cfg.Metrics.CacheTTL(),
		LoadTimeout:   cfg.Metrics.LoadTimeout(),
		Retry:         retry,
	}), nil
}

// newServer applies the configured deadlines. Config.Validate keeps WriteTimeout above the
// route timeout so timeout envelopes still reach the client.
func newServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}
}

// newRouter wires the middleware chain, probes and API routes
func newRouter(cfg *config.Config, svc *analytics.Service, checks healthChecks) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.Sentry())
	router.Use(middleware.CorrelationID())
	router.Use(tracing.Middleware())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics(serviceName))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	// Health check and metrics
	router.GET("/healthz", common.HealthCheck(serviceName, serviceVersion))
	router.GET("/health/ready", common.HealthCheckWithDeps(serviceName, serviceVersion, checks.required, checks.optional))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("")
	api.Use(middleware.Timeout(cfg.Server.RouteTimeout()))

	analytics.NewHandler(svc).RegisterRoutes(api)
	ridehistory.NewHandler(ridehistory.NewService(svc)).RegisterRoutes(api)

	return router
}
