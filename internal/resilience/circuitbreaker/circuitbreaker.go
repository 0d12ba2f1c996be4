// Package circuitbreaker wraps github.com/sony/gobreaker for the one caller
// in this system that benefits from it: the article extractor, which hits
// arbitrary origin sites that can fail in bursts.
package circuitbreaker

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Config holds the configuration for a circuit breaker.
type Config struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// ArticleExtractionConfig is tuned for fetching arbitrary article pages:
// tolerant of a slow origin, trips on a sustained failure run rather than a
// single bad page.
func ArticleExtractionConfig() Config {
	return Config{
		Name:             "article-extraction",
		MaxRequests:      3,
		Interval:         60 * time.Second,
		Timeout:          120 * time.Second,
		FailureThreshold: 0.7,
		MinRequests:      10,
	}
}

// CircuitBreaker wraps gobreaker.CircuitBreaker with a couple of
// convenience accessors.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New creates a circuit breaker with the given configuration.
func New(cfg Config) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name), slog.String("from", from.String()), slog.String("to", to.String()))
		},
	}
	return &CircuitBreaker{breaker: gobreaker.NewCircuitBreaker(settings), name: cfg.Name}
}

// Execute runs fn through the circuit breaker. If the circuit is open, it
// returns gobreaker's ErrOpenState immediately without calling fn.
func (cb *CircuitBreaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	return cb.breaker.Execute(fn)
}

// IsOpen reports whether the breaker is currently tripped.
func (cb *CircuitBreaker) IsOpen() bool { return cb.breaker.State() == gobreaker.StateOpen }
