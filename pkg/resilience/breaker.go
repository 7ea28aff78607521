package resilience

import (
	"context"
	"errors"

	"github.com/ecoride/ride-metrics/pkg/logger"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned when the breaker rejects a call
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Operation is a unit of work guarded by a breaker
type Operation func(ctx context.Context) (interface{}, error)

// CircuitBreaker guards calls to a flaky dependency and reports its state to Prometheus
type CircuitBreaker struct {
	name     string
	cb       *gobreaker.CircuitBreaker
	fallback FallbackFunc
	metrics  breakerMetrics
}

// NewCircuitBreaker creates a breaker. fallback runs whenever the breaker rejects a call;
// nil behaves like NoopFallback.
func NewCircuitBreaker(settings Settings, fallback FallbackFunc) *CircuitBreaker {
	name := breakerName(settings.Name)
	metrics := newBreakerMetrics(name, settings.Dependency)
	if fallback == nil {
		fallback = NoopFallback
	}

	failureThreshold := settings.FailureThreshold
	if failureThreshold == 0 {
		failureThreshold = 5
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: settings.SuccessThreshold,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("dependency", metrics.dependency),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.transition(from, to)
		},
		// a caller giving up is not a dependency failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &CircuitBreaker{name: name, cb: cb, fallback: fallback, metrics: metrics}
}

// Name returns the breaker name used in metrics and logs
func (b *CircuitBreaker) Name() string {
	return b.name
}

// State returns the current breaker state
func (b *CircuitBreaker) State() gobreaker.State {
	return b.cb.State()
}

// Open reports whether the breaker currently rejects calls
func (b *CircuitBreaker) Open() bool {
	return b.cb.State() == gobreaker.StateOpen
}

// Execute runs op through the breaker
func (b *CircuitBreaker) Execute(ctx context.Context, op Operation) (interface{}, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return op(ctx)
	})
	if err == nil {
		b.metrics.observe(outcomeSuccess, b.cb.Counts())
		return result, nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		b.metrics.observe(outcomeRejected, b.cb.Counts())
		return b.fallback(ctx, err)
	}

	b.metrics.observe(outcomeFailure, b.cb.Counts())
	return nil, err
}
