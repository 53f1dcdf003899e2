package qcreative

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/theapemachine/errnie"
)

/*
OpenBackends builds the backends handle described by cfg. The simulator is
always available; a remote backend is added when cfg.Remote.URL is set and a
replay backend when cfg.Replay is set. Each live backend is wrapped, from the
inside out, in Metered, a Guard holding its circuit breaker, rate limiter and
back pressure regulator, and a Retrying decorator when
cfg.Retry.MaxAttempts > 1. When cfg.Record is set the default backend also
records under the meter. All backends share one Metrics.
*/
func OpenBackends(cfg *Config, reg prometheus.Registerer) (*Backends, *Metrics, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	metrics := NewMetrics(reg)
	backends := NewBackends()

	opts := []SimulatorOption{
		WithReadoutError(cfg.ReadoutError),
		WithMaxRegisters(cfg.MaxRegisters),
	}
	if cfg.Seed != 0 {
		opts = append(opts, WithSeed(cfg.Seed))
	}

	sim, err := NewSimulator(cfg.CacheSize, opts...)
	if err != nil {
		return nil, nil, err
	}

	live := []Backend{sim}

	if cfg.Remote.URL != "" {
		remote, err := NewRemote(cfg.Remote)
		if err != nil {
			return nil, nil, err
		}
		live = append(live, remote)
	}

	for _, backend := range live {
		wrapped, err := wrapLive(cfg, backend, metrics)
		if err != nil {
			return nil, nil, err
		}
		backends.Register(wrapped)
	}

	if cfg.Replay != "" {
		replay, err := NewReplay(cfg.Replay)
		if err != nil {
			return nil, nil, err
		}
		backends.Register(NewMetered(replay, metrics))
	}

	errnie.Info("backends ready: %v", backends.Names())
	return backends, metrics, nil
}

func wrapLive(cfg *Config, backend Backend, metrics *Metrics) (Backend, error) {
	if cfg.Record != "" && backend.Name() == cfg.Backend {
		recorder, err := NewRecorder(backend, cfg.Record)
		if err != nil {
			return nil, err
		}
		backend = recorder
	}

	backend = NewMetered(backend, metrics)

	regulators := []Regulator{
		NewCircuitBreaker(backend.Name(), cfg.Breaker.MaxFailures, cfg.Breaker.ResetTimeout, cfg.Breaker.HalfOpenMax),
	}
	if cfg.RateLimit.MaxTokens > 0 {
		regulators = append(regulators, NewRateLimiter(cfg.RateLimit.MaxTokens, cfg.RateLimit.RefillRate))
	}
	if cfg.Backpressure.TargetLatency > 0 {
		regulators = append(regulators, NewBackPressureRegulator(cfg.Backpressure.TargetLatency, cfg.Backpressure.Window))
	}
	backend = NewGuard(backend, metrics, regulators...)

	if cfg.Retry.MaxAttempts > 1 {
		backend = NewRetrying(backend, RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Strategy:    &ExponentialBackoff{Initial: cfg.Retry.Initial},
		})
	}

	return backend, nil
}
