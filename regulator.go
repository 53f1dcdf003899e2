package qcreative

import (
	"context"

	"github.com/pkg/errors"
	"github.com/theapemachine/errnie"
)

/*
Regulator decides whether a submission may go to a backend right now.
CircuitBreaker, RateLimiter and BackPressureRegulator are the regulators a
Guard uses.
*/
type Regulator interface {
	// Observe hands the regulator the metrics of the backend it guards.
	Observe(metrics *Metrics)

	// Limit reports true when the submission must not proceed.
	Limit() bool

	// Renormalize lets the regulator recover from a limiting state.
	Renormalize()
}

type outcomeRecorder interface {
	RecordSuccess()
	RecordFailure()
}

/*
Guard consults its regulators before every submission and fails fast with
ErrBreakerOpen (breaker) or ErrBackend (any other regulator) when one limits.
Regulators that also track outcomes are told how the submission went.
Backend errors themselves pass through unchanged.
*/
type Guard struct {
	backend    Backend
	regulators []Regulator
	metrics    *Metrics
}

func NewGuard(backend Backend, metrics *Metrics, regulators ...Regulator) *Guard {
	for _, r := range regulators {
		r.Observe(metrics)
	}
	return &Guard{backend: backend, regulators: regulators, metrics: metrics}
}

func (g *Guard) Name() string {
	return g.backend.Name()
}

func (g *Guard) Execute(ctx context.Context, programs []*Program, shots int) ([]Counts, error) {
	for _, r := range g.regulators {
		r.Renormalize()
		if !r.Limit() {
			continue
		}

		if g.metrics != nil {
			g.metrics.recordLimited()
		}
		errnie.Info("submission to %s limited by %T", g.backend.Name(), r)

		switch r.(type) {
		case *CircuitBreaker:
			return nil, errors.WithMessagef(ErrBreakerOpen, "backend %s", g.backend.Name())
		case *RateLimiter:
			return nil, errors.Wrapf(ErrBackend, "backend %s: submission rate exceeded", g.backend.Name())
		default:
			return nil, errors.Wrapf(ErrBackend, "backend %s: under back pressure", g.backend.Name())
		}
	}

	results, err := g.backend.Execute(ctx, programs, shots)

	// Encoding errors and cancellations are not counted against the backend.
	if errors.Is(err, ErrEncoding) || errors.Is(err, context.Canceled) {
		return results, err
	}

	for _, r := range g.regulators {
		if rec, ok := r.(outcomeRecorder); ok {
			if err != nil {
				rec.RecordFailure()
			} else {
				rec.RecordSuccess()
			}
		}
	}

	return results, err
}
