package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("ride-metrics")
	require.NoError(t, err)

	assert.Equal(t, "ride-metrics", cfg.Server.ServiceName)
	assert.Equal(t, SourcePostgres, cfg.Metrics.Source)
	assert.Equal(t, "start", cfg.Metrics.Attribution)
	assert.Equal(t, 60*time.Second, cfg.Metrics.CacheTTL())
	assert.Equal(t, 60*time.Second, cfg.Metrics.NowResolution())
	assert.True(t, cfg.Breaker.Enabled)
	assert.Equal(t, 5, cfg.Breaker.FailureThreshold)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRatio)
	assert.Empty(t, cfg.Sentry.DSN)

	assert.Less(t, cfg.Metrics.LoadTimeout(), cfg.Server.RouteTimeout())
	assert.Less(t, cfg.Server.RouteTimeout(), cfg.Server.WriteTimeoutDuration())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("METRICS_SOURCE", "FIRESTORE")
	t.Setenv("FIREBASE_PROJECT_ID", "ecoride-prod")
	t.Setenv("METRICS_ATTRIBUTION", "end")
	t.Setenv("METRICS_TIMEZONE", "Asia/Manila")
	t.Setenv("METRICS_CACHE_TTL_SECONDS", "0")
	t.Setenv("BREAKER_ENABLED", "false")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("TRACING_SAMPLE_RATIO", "0.25")

	cfg, err := Load("ride-metrics")
	require.NoError(t, err)

	assert.Equal(t, SourceFirestore, cfg.Metrics.Source)
	assert.Equal(t, "end", cfg.Metrics.Attribution)
	assert.Equal(t, time.Duration(0), cfg.Metrics.CacheTTL())
	assert.False(t, cfg.Breaker.Enabled)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, 0.25, cfg.Tracing.SampleRatio)

	loc, err := cfg.Metrics.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Manila", loc.String())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Metrics: MetricsConfig{Source: SourcePostgres, Attribution: "start", Timezone: "UTC"}}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown source", mutate: func(c *Config) { c.Metrics.Source = "mysql" }, wantErr: "METRICS_SOURCE"},
		{name: "firestore without project", mutate: func(c *Config) { c.Metrics.Source = SourceFirestore }, wantErr: "FIREBASE_PROJECT_ID"},
		{name: "bad attribution", mutate: func(c *Config) { c.Metrics.Attribution = "middle" }, wantErr: "METRICS_ATTRIBUTION"},
		{name: "bad timezone", mutate: func(c *Config) { c.Metrics.Timezone = "Mars/Olympus" }, wantErr: "METRICS_TIMEZONE"},
		{name: "nested timeouts", mutate: func(c *Config) {
			c.Metrics.LoadTimeoutSeconds = 5
			c.Server.RequestTimeout = 10
			c.Server.WriteTimeout = 15
		}},
		{name: "write timeout disabled", mutate: func(c *Config) { c.Server.WriteTimeout = 0 }},
		{name: "load outlasts route", mutate: func(c *Config) {
			c.Metrics.LoadTimeoutSeconds = 30
			c.Server.RequestTimeout = 20
		}, wantErr: "METRICS_LOAD_TIMEOUT_SECONDS"},
		{name: "route outlasts write deadline", mutate: func(c *Config) {
			c.Server.RequestTimeout = 20
			c.Server.WriteTimeout = 10
		}, wantErr: "WRITE_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.example.com",
		Port:     "5432",
		User:     "app_user",
		Password: "p@ssw0rd!#$",
		DBName:   "ecoride",
		SSLMode:  "require",
	}

	assert.Equal(t, "host=db.example.com port=5432 user=app_user password=p@ssw0rd!#$ dbname=ecoride sslmode=require", cfg.DSN())
}

func TestRedisConfig_RedisAddr(t *testing.T) {
	cfg := RedisConfig{Host: "cache", Port: "6380"}
	assert.Equal(t, "cache:6380", cfg.RedisAddr())
}

func TestLoadTimeout_Fallback(t *testing.T) {
	cfg := MetricsConfig{}
	assert.Equal(t, 15*time.Second, cfg.LoadTimeout())
}

func TestServerTimeouts(t *testing.T) {
	assert.Equal(t, 20*time.Second, (&ServerConfig{}).RouteTimeout())
	assert.Equal(t, time.Duration(0), (&ServerConfig{}).WriteTimeoutDuration())

	cfg := ServerConfig{RequestTimeout: 4, WriteTimeout: 6}
	assert.Equal(t, 4*time.Second, cfg.RouteTimeout())
	assert.Equal(t, 6*time.Second, cfg.WriteTimeoutDuration())
}

func TestLoad_RejectsWriteTimeoutBelowRouteTimeout(t *testing.T) {
	t.Setenv("WRITE_TIMEOUT", "10")

	_, err := Load("ride-metrics")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WRITE_TIMEOUT")
}
