package resilience

import (
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
)

const metricsNamespace = "ridemetrics"

// Call outcomes recorded per breaker
const (
	outcomeSuccess  = "success"
	outcomeFailure  = "failure"
	outcomeRejected = "rejected"
)

var (
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "breaker",
		Name:      "state",
		Help:      "Breaker state per guarded ride data source (0=closed, 0.5=half-open, 1=open)",
	}, []string{"breaker", "dependency"})

	breakerCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "breaker",
		Name:      "calls_total",
		Help:      "Calls made through a breaker by outcome",
	}, []string{"breaker", "dependency", "outcome"})

	breakerConsecutiveFailures = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "breaker",
		Name:      "consecutive_failures",
		Help:      "Failed loads in a row since the last success",
	}, []string{"breaker", "dependency"})

	breakerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "breaker",
		Name:      "transitions_total",
		Help:      "Breaker state transitions",
	}, []string{"breaker", "dependency", "from", "to"})

	breakerSeq uint64
)

// breakerMetrics is bound to one breaker and the data source it guards
type breakerMetrics struct {
	name       string
	dependency string
}

func newBreakerMetrics(name, dependency string) breakerMetrics {
	if dependency == "" {
		dependency = "unknown"
	}
	m := breakerMetrics{name: name, dependency: dependency}
	m.setState(gobreaker.StateClosed)
	breakerConsecutiveFailures.WithLabelValues(name, dependency).Set(0)
	return m
}

func (m breakerMetrics) setState(state gobreaker.State) {
	breakerState.WithLabelValues(m.name, m.dependency).Set(stateValue(state))
}

func (m breakerMetrics) transition(from, to gobreaker.State) {
	breakerTransitions.WithLabelValues(m.name, m.dependency, from.String(), to.String()).Inc()
	m.setState(to)
}

// observe records a finished call along with the breaker's running failure streak
func (m breakerMetrics) observe(outcome string, counts gobreaker.Counts) {
	breakerCalls.WithLabelValues(m.name, m.dependency, outcome).Inc()
	breakerConsecutiveFailures.WithLabelValues(m.name, m.dependency).Set(float64(counts.ConsecutiveFailures))
}

func breakerName(base string) string {
	if base != "" {
		return base
	}
	return "breaker-" + strconv.FormatUint(atomic.AddUint64(&breakerSeq, 1), 10)
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 0.5
	case gobreaker.StateOpen:
		return 1
	default:
		return -1
	}
}
