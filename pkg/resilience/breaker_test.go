package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/ecoride/ride-metrics/pkg/config"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failing(ctx context.Context) (interface{}, error) {
	return nil, errTest
}

func succeeding(ctx context.Context) (interface{}, error) {
	return "ok", nil
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	breaker := NewCircuitBreaker(Settings{
		Name:             "opens-after-failures",
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 2,
	}, nil)

	_, err := breaker.Execute(context.Background(), failing)
	assert.Equal(t, errTest, err)
	assert.False(t, breaker.Open())

	_, err = breaker.Execute(context.Background(), failing)
	assert.Equal(t, errTest, err)
	assert.True(t, breaker.Open())

	called := false
	_, err = breaker.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		called = true
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called, "open breaker must not run the operation")
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	breaker := NewCircuitBreaker(Settings{
		Name:             "half-open-recovers",
		Interval:         time.Minute,
		Timeout:          20 * time.Millisecond,
		FailureThreshold: 1,
		SuccessThreshold: 1,
	}, NoopFallback)

	_, _ = breaker.Execute(context.Background(), failing)
	require.Equal(t, gobreaker.StateOpen, breaker.State())

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, gobreaker.StateHalfOpen, breaker.State())

	result, err := breaker.Execute(context.Background(), succeeding)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, gobreaker.StateClosed, breaker.State())
}

func TestCircuitBreaker_GracefulDegradation(t *testing.T) {
	breaker := NewCircuitBreaker(Settings{Name: "graceful", Timeout: time.Minute, FailureThreshold: 1}, GracefulDegradation("ride-source"))

	_, _ = breaker.Execute(context.Background(), failing)

	_, err := breaker.Execute(context.Background(), succeeding)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Contains(t, err.Error(), "ride-source")
}

func TestCircuitBreaker_CanceledCallsDoNotTrip(t *testing.T) {
	breaker := NewCircuitBreaker(Settings{Name: "canceled", Timeout: time.Minute, FailureThreshold: 1}, nil)

	_, err := breaker.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		return nil, context.Canceled
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, breaker.Open())
}

func TestCircuitBreaker_GeneratedName(t *testing.T) {
	breaker := NewCircuitBreaker(Settings{}, nil)
	assert.Contains(t, breaker.Name(), "breaker-")
}

func TestCircuitBreaker_MetricsCarryDependency(t *testing.T) {
	breaker := NewCircuitBreaker(Settings{
		Name:             "metrics-firestore",
		Dependency:       "firestore",
		Timeout:          time.Minute,
		FailureThreshold: 3,
	}, nil)

	assert.Equal(t, 0.0, testutil.ToFloat64(breakerState.WithLabelValues("metrics-firestore", "firestore")))

	_, _ = breaker.Execute(context.Background(), succeeding)
	_, _ = breaker.Execute(context.Background(), failing)
	_, _ = breaker.Execute(context.Background(), failing)

	assert.Equal(t, 1.0, testutil.ToFloat64(breakerCalls.WithLabelValues("metrics-firestore", "firestore", outcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(breakerCalls.WithLabelValues("metrics-firestore", "firestore", outcomeFailure)))
	assert.Equal(t, 2.0, testutil.ToFloat64(breakerConsecutiveFailures.WithLabelValues("metrics-firestore", "firestore")))

	_, _ = breaker.Execute(context.Background(), failing)
	require.True(t, breaker.Open())
	_, _ = breaker.Execute(context.Background(), succeeding)

	assert.Equal(t, 1.0, testutil.ToFloat64(breakerState.WithLabelValues("metrics-firestore", "firestore")))
	assert.Equal(t, 1.0, testutil.ToFloat64(breakerCalls.WithLabelValues("metrics-firestore", "firestore", outcomeRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(breakerTransitions.WithLabelValues("metrics-firestore", "firestore", "closed", "open")))
}

func TestCircuitBreaker_MissingDependencyLabel(t *testing.T) {
	breaker := NewCircuitBreaker(Settings{Name: "metrics-unlabelled"}, nil)

	_, _ = breaker.Execute(context.Background(), succeeding)

	assert.Equal(t, 1.0, testutil.ToFloat64(breakerCalls.WithLabelValues("metrics-unlabelled", "unknown", outcomeSuccess)))
}

func TestBuildSettings_Defaults(t *testing.T) {
	settings := BuildSettings("rides", 0, -1, 0, 0)

	assert.Equal(t, "rides", settings.Name)
	assert.Equal(t, time.Minute, settings.Interval)
	assert.Equal(t, 30*time.Second, settings.Timeout)
	assert.Equal(t, uint32(5), settings.FailureThreshold)
	assert.Equal(t, uint32(1), settings.SuccessThreshold)
}

func TestSettingsFromConfig(t *testing.T) {
	settings := SettingsFromConfig("rides", config.BreakerConfig{IntervalSeconds: 10, TimeoutSeconds: 5, FailureThreshold: 3, SuccessThreshold: 2})

	assert.Equal(t, 10*time.Second, settings.Interval)
	assert.Equal(t, 5*time.Second, settings.Timeout)
	assert.Equal(t, uint32(3), settings.FailureThreshold)
	assert.Equal(t, uint32(2), settings.SuccessThreshold)
}
