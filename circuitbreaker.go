package qcreative

import (
	"sync"
	"time"

	"github.com/theapemachine/errnie"
)

/*
CircuitState is the operating mode of a CircuitBreaker.
*/
type CircuitState int

const (
	CircuitClosed   CircuitState = iota // submissions flow
	CircuitOpen                         // submissions rejected
	CircuitHalfOpen                     // probing with limited submissions
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

/*
CircuitBreaker stops submissions to a backend that keeps failing. After
maxFailures consecutive failures it opens and rejects everything until
resetTimeout has passed, then lets up to halfOpenMax probes through; that
many successes close it again, any failure reopens it.

It implements Regulator so a Guard can consult it before each submission.
It never retries anything itself.
*/
type CircuitBreaker struct {
	mu               sync.Mutex
	name             string
	maxFailures      int
	resetTimeout     time.Duration
	halfOpenMax      int
	failureCount     int
	state            CircuitState
	openTime         time.Time
	halfOpenAttempts int
	metrics          *Metrics
}

func NewCircuitBreaker(name string, maxFailures int, resetTimeout time.Duration, halfOpenMax int) *CircuitBreaker {
	return &CircuitBreaker{
		name:         name,
		maxFailures:  max(maxFailures, 1),
		resetTimeout: resetTimeout,
		halfOpenMax:  max(halfOpenMax, 1),
		state:        CircuitClosed,
	}
}

func (cb *CircuitBreaker) Observe(metrics *Metrics) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.metrics = metrics
}

func (cb *CircuitBreaker) Limit() bool {
	return !cb.Allow()
}

// Renormalize moves an open breaker to half-open once the timeout has passed.
func (cb *CircuitBreaker) Renormalize() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitOpen && time.Since(cb.openTime) > cb.resetTimeout {
		cb.state = CircuitHalfOpen
		cb.halfOpenAttempts = 0
		errnie.Info("circuit breaker %s renormalized to half-open", cb.name)
	}
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++

	switch {
	case cb.state == CircuitHalfOpen:
		cb.state = CircuitOpen
		cb.openTime = time.Now()
		errnie.Info("circuit breaker %s reopened from half-open", cb.name)
	case cb.state == CircuitClosed && cb.failureCount >= cb.maxFailures:
		cb.state = CircuitOpen
		cb.openTime = time.Now()
		errnie.Info("circuit breaker %s opened after %d failures", cb.name, cb.failureCount)
	}
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitHalfOpen:
		cb.halfOpenAttempts++
		if cb.halfOpenAttempts >= cb.halfOpenMax {
			cb.state = CircuitClosed
			cb.failureCount = 0
			cb.halfOpenAttempts = 0
			errnie.Info("circuit breaker %s closed from half-open", cb.name)
		}
	case CircuitClosed:
		cb.failureCount = 0
	}
}

// Allow reports whether a submission may proceed now.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if time.Since(cb.openTime) > cb.resetTimeout {
			cb.state = CircuitHalfOpen
			cb.halfOpenAttempts = 0
			return true
		}
		return false
	case CircuitHalfOpen:
		return cb.halfOpenAttempts < cb.halfOpenMax
	default:
		return false
	}
}

// State reports the current mode.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
