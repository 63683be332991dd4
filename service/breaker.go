package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"agentpool/domain"
	"agentpool/helpers"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// CircuitBreaker wraps calls to one downstream dependency and fails fast
// while the dependency is unhealthy. State machine: closed counts
// consecutive failures and trips to open at the threshold; open rejects
// calls until resetTimeout has elapsed since the last failure, then lazily
// moves to half-open; the half-open trial call closes the breaker on
// success and reopens it on failure. Caller-initiated cancellation is never
// counted as a failure. All state is guarded by a single mutex.
type CircuitBreaker struct {
	name         string
	threshold    int
	resetTimeout time.Duration
	logger       log.Logger

	mu          sync.Mutex
	state       domain.CircuitState
	failures    int
	lastFailure time.Time
}

// NewCircuitBreaker creates a breaker for the named dependency. threshold
// is the consecutive-failure count that trips the breaker; resetTimeout is
// how long the breaker stays open before permitting a trial call. Panics on
// empty name, nil logger or non-positive threshold/resetTimeout.
//
// Called from cmd/main (one breaker per backend instance) and composable
// around any downstream call.
func NewCircuitBreaker(name string, threshold int, resetTimeout time.Duration, logger log.Logger) *CircuitBreaker {
	if threshold < 1 {
		panic("service.breaker.go: threshold must be >= 1")
	}
	if resetTimeout <= 0 {
		panic("service.breaker.go: resetTimeout must be positive")
	}
	return &CircuitBreaker{
		name:         helpers.StrPanic(name, "service.breaker.go: name is required"),
		threshold:    threshold,
		resetTimeout: resetTimeout,
		logger:       log.With(helpers.NilPanic(logger, "service.breaker.go: logger is required"), "component", "circuit_breaker", "breaker", name),
		state:        domain.CircuitClosed,
	}
}

// Execute runs op through the breaker.
// Returns:
// 1) nil when op succeeds (resets the failure counter, closes a half-open breaker);
// 2) ErrBreakerOpen when the breaker is open and the reset timeout has not
// elapsed; op is not invoked;
// 3) op's error otherwise (counted toward the threshold unless it is a
// context cancellation).
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	if err := cb.beforeCall(); err != nil {
		return err
	}

	err := op(ctx)
	cb.afterCall(err)
	return err
}

// beforeCall checks admission under the mutex, performing the lazy
// open → half-open transition when the reset timeout has elapsed.
func (cb *CircuitBreaker) beforeCall() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == domain.CircuitOpen {
		if time.Since(cb.lastFailure) < cb.resetTimeout {
			return ErrBreakerOpen
		}
		cb.state = domain.CircuitHalfOpen
		level.Debug(cb.logger).Log("msg", "breaker half-open, permitting trial call")
	}
	return nil
}

// afterCall records the call outcome under the mutex. Cancellation is
// distinguished from failure and leaves the breaker untouched.
func (cb *CircuitBreaker) afterCall(err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		cb.failures = 0
		if cb.state == domain.CircuitHalfOpen {
			cb.state = domain.CircuitClosed
			level.Info(cb.logger).Log("msg", "trial call succeeded, breaker closed")
		}
		return
	}

	cb.failures++
	cb.lastFailure = time.Now()
	if cb.state == domain.CircuitHalfOpen {
		cb.state = domain.CircuitOpen
		level.Warn(cb.logger).Log("msg", "trial call failed, breaker reopened", "err", err)
		return
	}
	if cb.state == domain.CircuitClosed && cb.failures >= cb.threshold {
		cb.state = domain.CircuitOpen
		level.Warn(cb.logger).Log("msg", "failure threshold reached, breaker opened", "failures", cb.failures, "err", err)
	}
}

// State returns the current breaker state for observers (admin API, tests).
func (cb *CircuitBreaker) State() domain.CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset forcibly returns the breaker to closed with a zeroed failure
// counter. Administrative override.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = domain.CircuitClosed
	cb.failures = 0
	level.Info(cb.logger).Log("msg", "breaker manually reset")
}
