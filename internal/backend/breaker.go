package backend

import (
	"fmt"

	"resumecraft/internal/config"
	"resumecraft/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// Breaker wraps backend calls with the circuit breaker pattern. A nil
// Breaker runs calls directly.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[*response]
}

// NewBreaker creates a circuit breaker for one backend, or nil when the
// breaker is disabled.
func NewBreaker(name string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *Breaker {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = errors.Discard()
	}

	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("Backend-%s", name),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker[*response](settings)}
}

// Execute runs fn under the breaker. Only errors returned by fn count as
// failures.
func (b *Breaker) Execute(fn func() (*response, error)) (*response, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	resp, err := b.cb.Execute(fn)
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, errors.NewNetworkError(errors.ErrCodeBackendUnavailable,
			"backend temporarily unavailable", err).WithContext("breaker", b.cb.Name())
	}
	return resp, err
}

// Stats returns circuit breaker statistics.
func (b *Breaker) Stats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is closed.
func (b *Breaker) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}
