package resilience

import (
	"time"

	"github.com/ecoride/ride-metrics/pkg/config"
)

// Settings configures a CircuitBreaker
type Settings struct {
	Name string
	// Dependency labels the data source the breaker guards in metrics and logs
	Dependency string
	// Interval is the cyclic period of the closed state after which failure counts reset
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing again
	Timeout time.Duration
	// FailureThreshold consecutive failures open the breaker
	FailureThreshold uint32
	// SuccessThreshold probe calls are allowed while half-open
	SuccessThreshold uint32
}

// BuildSettings produces a Settings struct from primitive tuning knobs.
func BuildSettings(name string, intervalSeconds, timeoutSeconds, failureThreshold, successThreshold int) Settings {
	interval := time.Duration(intervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	timeout := time.Duration(timeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if failureThreshold <= 0 {
		failureThreshold = 5
	}

	if successThreshold <= 0 {
		successThreshold = 1
	}

	return Settings{
		Name:             name,
		Interval:         interval,
		Timeout:          timeout,
		FailureThreshold: uint32(failureThreshold),
		SuccessThreshold: uint32(successThreshold),
	}
}

// SettingsFromConfig builds breaker settings from the BREAKER_* environment
func SettingsFromConfig(name string, cfg config.BreakerConfig) Settings {
	return BuildSettings(name, cfg.IntervalSeconds, cfg.TimeoutSeconds, cfg.FailureThreshold, cfg.SuccessThreshold)
}
