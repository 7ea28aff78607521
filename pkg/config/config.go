package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Snapshot sources understood by the metrics service
const (
	SourcePostgres  = "postgres"
	SourceFirestore = "firestore"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Firebase FirebaseConfig
	Metrics  MetricsConfig
	Breaker  BreakerConfig
	Tracing  TracingConfig
	Sentry   SentryConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	Environment  string
	ServiceName  string
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int    // per-route handler budget, must sit between the load timeout and WriteTimeout
	CORSOrigins    string // Comma-separated list of allowed origins
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// FirebaseConfig holds Firebase configuration
type FirebaseConfig struct {
	ProjectID       string
	CredentialsPath string
}

// MetricsConfig tunes report computation
type MetricsConfig struct {
	Source               string // postgres or firestore
	Timezone             string // IANA name used for calendar boundaries
	Attribution          string // start or end station
	CacheTTLSeconds      int
	NowResolutionSeconds int // now is truncated to this step so equal requests share a cache key
	LoadTimeoutSeconds   int
}

// BreakerConfig holds circuit breaker tuning for snapshot loads
type BreakerConfig struct {
	Enabled          bool
	IntervalSeconds  int
	TimeoutSeconds   int
	FailureThreshold int
	SuccessThreshold int
}

// TracingConfig holds OpenTelemetry exporter settings
type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	SampleRatio float64
	Insecure    bool
}

// SentryConfig holds error reporting settings. An empty DSN disables Sentry.
type SentryConfig struct {
	DSN              string
	TracesSampleRate float64
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ServiceName:  serviceName,
			ReadTimeout:    getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout:   getEnvAsInt("WRITE_TIMEOUT", 30),
			RequestTimeout: getEnvAsInt("REQUEST_TIMEOUT", 20),
			CORSOrigins:    getEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "ecoride"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 2),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},
		Firebase: FirebaseConfig{
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		},
		Metrics: MetricsConfig{
			Source:               strings.ToLower(getEnv("METRICS_SOURCE", SourcePostgres)),
			Timezone:             getEnv("METRICS_TIMEZONE", "UTC"),
			Attribution:          strings.ToLower(getEnv("METRICS_ATTRIBUTION", "start")),
			CacheTTLSeconds:      getEnvAsInt("METRICS_CACHE_TTL_SECONDS", 60),
			NowResolutionSeconds: getEnvAsInt("METRICS_NOW_RESOLUTION_SECONDS", 60),
			LoadTimeoutSeconds:   getEnvAsInt("METRICS_LOAD_TIMEOUT_SECONDS", 15),
		},
		Breaker: BreakerConfig{
			Enabled:          getEnvAsBool("BREAKER_ENABLED", true),
			IntervalSeconds:  getEnvAsInt("BREAKER_INTERVAL_SECONDS", 60),
			TimeoutSeconds:   getEnvAsInt("BREAKER_TIMEOUT_SECONDS", 30),
			FailureThreshold: getEnvAsInt("BREAKER_FAILURE_THRESHOLD", 5),
			SuccessThreshold: getEnvAsInt("BREAKER_SUCCESS_THRESHOLD", 1),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("TRACING_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRatio: getEnvAsFloat("TRACING_SAMPLE_RATIO", 1.0),
			Insecure:    getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		},
		Sentry: SentryConfig{
			DSN:              getEnv("SENTRY_DSN", ""),
			TracesSampleRate: getEnvAsFloat("SENTRY_TRACES_SAMPLE_RATE", 0.1),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the service cannot run with
func (c *Config) Validate() error {
	switch c.Metrics.Source {
	case SourcePostgres:
	case SourceFirestore:
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required when METRICS_SOURCE=%s", SourceFirestore)
		}
	default:
		return fmt.Errorf("unsupported METRICS_SOURCE %q", c.Metrics.Source)
	}

	if c.Metrics.Attribution != "start" && c.Metrics.Attribution != "end" {
		return fmt.Errorf("unsupported METRICS_ATTRIBUTION %q", c.Metrics.Attribution)
	}

	if _, err := c.Metrics.Location(); err != nil {
		return fmt.Errorf("invalid METRICS_TIMEZONE: %w", err)
	}

	// A load that times out still has to answer before the route and the server give up
	load, route := c.Metrics.LoadTimeout(), c.Server.RouteTimeout()
	if load >= route {
		return fmt.Errorf("METRICS_LOAD_TIMEOUT_SECONDS (%s) must be shorter than REQUEST_TIMEOUT (%s)", load, route)
	}
	if write := c.Server.WriteTimeoutDuration(); write > 0 && route >= write {
		return fmt.Errorf("REQUEST_TIMEOUT (%s) must be shorter than WRITE_TIMEOUT (%s)", route, write)
	}

	return nil
}

// RouteTimeout bounds a single API handler
func (c *ServerConfig) RouteTimeout() time.Duration {
	return seconds(c.RequestTimeout, 20*time.Second)
}

// WriteTimeoutDuration returns the server write deadline. Zero disables it.
func (c *ServerConfig) WriteTimeoutDuration() time.Duration {
	return seconds(c.WriteTimeout, 0)
}

// Location resolves the configured timezone
func (c *MetricsConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// CacheTTL returns the report cache lifetime
func (c *MetricsConfig) CacheTTL() time.Duration {
	return seconds(c.CacheTTLSeconds, 0)
}

// NowResolution returns the step now is truncated to
func (c *MetricsConfig) NowResolution() time.Duration {
	return seconds(c.NowResolutionSeconds, 0)
}

// LoadTimeout bounds a single snapshot load
func (c *MetricsConfig) LoadTimeout() time.Duration {
	return seconds(c.LoadTimeoutSeconds, 15*time.Second)
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func seconds(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
