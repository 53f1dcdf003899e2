package qcreative

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/theapemachine/errnie"
)

// RetryPolicy defines retry behavior.
type RetryPolicy struct {
	MaxAttempts int
	Strategy    RetryStrategy
	Filter      func(error) bool
}

// RetryStrategy defines the delay before each retry.
type RetryStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff implements RetryStrategy.
type ExponentialBackoff struct {
	Initial time.Duration
}

func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	return eb.Initial * time.Duration(math.Pow(2, float64(attempt-1)))
}

// Transient is the default retry filter: backend errors other than an open breaker.
func Transient(err error) bool {
	return errors.Is(err, ErrBackend) && !errors.Is(err, ErrBreakerOpen)
}

/*
Retrying resubmits failed batches according to a policy. Nothing in the
package wraps a backend in it on its own; callers that want retries opt in,
usually through Config.Retry.
*/
type Retrying struct {
	backend Backend
	policy  RetryPolicy
}

func NewRetrying(backend Backend, policy RetryPolicy) *Retrying {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Strategy == nil {
		policy.Strategy = &ExponentialBackoff{Initial: time.Second}
	}
	if policy.Filter == nil {
		policy.Filter = Transient
	}
	return &Retrying{backend: backend, policy: policy}
}

func (r *Retrying) Name() string {
	return r.backend.Name()
}

func (r *Retrying) Execute(ctx context.Context, programs []*Program, shots int) ([]Counts, error) {
	var lastErr error

	for attempt := 0; attempt < r.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := r.policy.Strategy.NextDelay(attempt)
			errnie.Info("retrying %s attempt %d after %v: %v", r.backend.Name(), attempt+1, delay, lastErr)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		results, err := r.backend.Execute(ctx, programs, shots)
		if err == nil {
			return results, nil
		}

		lastErr = err
		if !r.policy.Filter(err) {
			break
		}
	}

	return nil, lastErr
}
