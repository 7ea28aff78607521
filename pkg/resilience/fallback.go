package resilience

import (
	"context"
	"fmt"

	"github.com/ecoride/ride-metrics/pkg/logger"
	"go.uber.org/zap"
)

// FallbackFunc runs when the breaker rejects a call without executing it
type FallbackFunc func(ctx context.Context, err error) (interface{}, error)

// NoopFallback reports ErrCircuitOpen
func NoopFallback(ctx context.Context, err error) (interface{}, error) {
	return nil, ErrCircuitOpen
}

// GracefulDegradation reports ErrCircuitOpen wrapped with the dependency name and logs
// the rejection. Callers serve their last good result or answer 503.
func GracefulDegradation(dependency string) FallbackFunc {
	return func(ctx context.Context, err error) (interface{}, error) {
		logger.WithContext(ctx).Warn("dependency degraded, call rejected by breaker",
			zap.String("dependency", dependency),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s: %w", dependency, ErrCircuitOpen)
	}
}
