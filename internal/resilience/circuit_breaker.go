package resilience

import (
	"sync"
	"time"
)

// CircuitState is the breaker's current posture.
type CircuitState string

const (
	StateClosed   CircuitState = "closed"
	StateOpen     CircuitState = "open"
	StateHalfOpen CircuitState = "half-open"
)

// CircuitBreaker is a simple job-level breaker used by the Orchestrator
// to fail fast (spec.md §5, "Backpressure") when the system is already
// in a bad state, independent of the per-provider breakers in
// pkg/modeladapter. Adapted from the teacher's hand-rolled
// orchestration.CircuitBreaker.
type CircuitBreaker struct {
	failureThreshold int
	recoveryTimeout  time.Duration
	failureCount     int
	lastFailureTime  time.Time
	state            CircuitState
	mu               sync.RWMutex
}

// NewCircuitBreaker constructs a breaker that opens after threshold
// consecutive failures and attempts recovery after timeout.
func NewCircuitBreaker(threshold int, timeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold: threshold,
		recoveryTimeout:  timeout,
		state:            StateClosed,
	}
}

// CanExecute reports whether a new job may proceed.
func (cb *CircuitBreaker) CanExecute() bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	if cb.state == StateOpen {
		return time.Since(cb.lastFailureTime) > cb.recoveryTimeout
	}
	return true
}

// RecordSuccess resets the consecutive-failure count while the breaker is
// closed, and closes the breaker if it was open and the recovery timeout
// has elapsed (half-open probe succeeded).
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && time.Since(cb.lastFailureTime) > cb.recoveryTimeout {
		cb.state = StateClosed
		cb.failureCount = 0
	} else if cb.state == StateClosed {
		cb.failureCount = 0
	}
}

// RecordFailure increments the failure count and opens the breaker once
// the threshold is reached.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailureTime = time.Now()

	if cb.failureCount >= cb.failureThreshold {
		cb.state = StateOpen
	}
}

// State returns the current breaker state, for diagnostics.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}
