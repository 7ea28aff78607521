package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errTest         = errors.New("test error")
	errRetryable    = errors.New("retryable error")
	errNonRetryable = errors.New("non-retryable error")
)

func fastRetryConfig() RetryConfig {
	config := DefaultRetryConfig()
	config.InitialBackoff = time.Millisecond
	config.MaxBackoff = 5 * time.Millisecond
	return config
}

func TestRetry_SuccessOnFirstAttempt(t *testing.T) {
	attemptCount := 0

	result, err := Retry(context.Background(), fastRetryConfig(), func(ctx context.Context) (interface{}, error) {
		attemptCount++
		return "success", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 1, attemptCount, "should only attempt once on success")
}

func TestRetry_SuccessAfterRetries(t *testing.T) {
	attemptCount := 0

	result, err := Retry(context.Background(), fastRetryConfig(), func(ctx context.Context) (interface{}, error) {
		attemptCount++
		if attemptCount < 3 {
			return nil, errTest
		}
		return "success", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 3, attemptCount)
}

func TestRetry_FailureAfterMaxAttempts(t *testing.T) {
	config := fastRetryConfig()
	config.MaxAttempts = 3
	attemptCount := 0

	result, err := Retry(context.Background(), config, func(ctx context.Context) (interface{}, error) {
		attemptCount++
		return nil, errTest
	})

	assert.Equal(t, errTest, err)
	assert.Nil(t, result)
	assert.Equal(t, 3, attemptCount)
}

func TestRetry_ZeroMaxAttemptsRunsOnce(t *testing.T) {
	config := fastRetryConfig()
	config.MaxAttempts = 0
	attemptCount := 0

	_, err := Retry(context.Background(), config, func(ctx context.Context) (interface{}, error) {
		attemptCount++
		return "success", nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attemptCount)
}

func TestRetry_ContextTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	config := DefaultRetryConfig()
	config.InitialBackoff = 100 * time.Millisecond
	config.EnableJitter = false
	config.MaxAttempts = 5
	attemptCount := 0

	_, err := Retry(ctx, config, func(ctx context.Context) (interface{}, error) {
		attemptCount++
		return nil, errTest
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, attemptCount)
}

func TestRetry_NotRetried(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		config func(c *RetryConfig)
	}{
		{name: "circuit open", err: ErrCircuitOpen},
		{name: "context canceled", err: context.Canceled},
		{name: "outside retryable list", err: errNonRetryable, config: func(c *RetryConfig) { c.RetryableErrors = []error{errRetryable} }},
		{name: "checker rejects", err: errTest, config: func(c *RetryConfig) { c.RetryableChecker = func(error) bool { return false } }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := fastRetryConfig()
			if tt.config != nil {
				tt.config(&config)
			}
			attemptCount := 0

			_, err := Retry(context.Background(), config, func(ctx context.Context) (interface{}, error) {
				attemptCount++
				return nil, tt.err
			})

			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, 1, attemptCount)
		})
	}
}

func TestRetry_RetryableErrorList(t *testing.T) {
	config := fastRetryConfig()
	config.RetryableErrors = []error{errRetryable}
	attemptCount := 0

	_, err := Retry(context.Background(), config, func(ctx context.Context) (interface{}, error) {
		attemptCount++
		return nil, errRetryable
	})

	assert.Error(t, err)
	assert.Equal(t, config.MaxAttempts, attemptCount)
}

func TestCalculateBackoff_ExponentialGrowth(t *testing.T) {
	config := RetryConfig{
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second},
		{10, 30 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, calculateBackoff(tt.attempt, config), "attempt %d", tt.attempt)
	}
}

func TestAddJitter(t *testing.T) {
	duration := 10 * time.Second
	for i := 0; i < 10; i++ {
		jittered := addJitter(duration)
		assert.GreaterOrEqual(t, jittered, time.Duration(0))
		assert.LessOrEqual(t, jittered, duration)
	}
	assert.Equal(t, time.Duration(0), addJitter(0))
}

func TestRetryWithBreaker(t *testing.T) {
	breaker := NewCircuitBreaker(Settings{
		Name:             "retry-with-breaker",
		Interval:         time.Minute,
		Timeout:          time.Second,
		FailureThreshold: 5,
	}, NoopFallback)

	attemptCount := 0
	result, err := RetryWithBreaker(context.Background(), fastRetryConfig(), breaker, func(ctx context.Context) (interface{}, error) {
		attemptCount++
		if attemptCount < 2 {
			return nil, errTest
		}
		return "success", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 2, attemptCount)
}
