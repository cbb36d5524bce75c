// Package resilience wraps outbound provider calls with a circuit breaker and
// a per-request timeout. Calls are never retried: a failed fetch is reported
// to the caller as-is.
package resilience

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerConfig holds configuration for the circuit breaker.
type BreakerConfig struct {
	// Name identifies the breaker in logs and in the registry.
	Name string

	// MaxRequests is the number of probes allowed while half-open (default: 1).
	MaxRequests uint32

	// Interval is the cyclic period for clearing counts while closed.
	// Zero keeps counts until the state changes.
	Interval time.Duration

	// OpenTimeout is how long the breaker stays open before probing (default: 30s).
	OpenTimeout time.Duration

	// ReadyToTrip decides when to open. Nil means TripOnConsecutiveFailures(5).
	ReadyToTrip func(counts gobreaker.Counts) bool

	// OnStateChange is called when the breaker changes state.
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultBreakerConfig returns the breaker settings used for weather providers.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:        name,
		MaxRequests: 1,
		OpenTimeout: 30 * time.Second,
		ReadyToTrip: TripOnConsecutiveFailures(5),
	}
}

// TripOnConsecutiveFailures opens the breaker after n failures in a row.
func TripOnConsecutiveFailures(n uint32) func(gobreaker.Counts) bool {
	return func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= n
	}
}

// TripOnFailureRatio opens the breaker once at least minRequests were made and
// the failure ratio reached ratio.
func TripOnFailureRatio(minRequests uint32, ratio float64) func(gobreaker.Counts) bool {
	return func(counts gobreaker.Counts) bool {
		if counts.Requests < minRequests {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
	}
}

func newBreaker[T any](cfg BreakerConfig) *gobreaker.CircuitBreaker[T] {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.ReadyToTrip == nil {
		cfg.ReadyToTrip = TripOnConsecutiveFailures(5)
	}

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:          cfg.Name,
		MaxRequests:   cfg.MaxRequests,
		Interval:      cfg.Interval,
		Timeout:       cfg.OpenTimeout,
		ReadyToTrip:   cfg.ReadyToTrip,
		OnStateChange: cfg.OnStateChange,
	})
}
