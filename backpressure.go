package qcreative

import (
	"sync"
	"time"

	"github.com/theapemachine/errnie"
)

/*
BackPressureRegulator implements the Regulator interface to keep submissions
away from a backend that is struggling. It watches the failure rate and the
p95 latency of the backend it guards, similar to how pressure regulators in
plumbing systems limit flow when pressure builds up.

Pressure is recomputed whenever new submissions have been recorded. While
the regulator is limiting, no new submissions arrive, so pressure instead
decays by 0.1 for every window that passes without one.
*/
type BackPressureRegulator struct {
	mu sync.RWMutex

	targetLatency   time.Duration // p95 latency at which timing pressure is 1
	window          time.Duration // idle time per decay step
	currentPressure float64       // current pressure (0.0-1.0)
	metrics         *Metrics
	seen            int64     // submissions already accounted for
	lastCheck       time.Time // last time pressure was recomputed or decayed
}

/*
NewBackPressureRegulator creates a new back pressure regulator.

Parameters:
  - targetLatency: p95 submission latency the backend should stay under
  - window: idle time after which pressure decays by one step

Example:

	regulator := NewBackPressureRegulator(2*time.Second, 10*time.Second)
*/
func NewBackPressureRegulator(targetLatency, window time.Duration) *BackPressureRegulator {
	return &BackPressureRegulator{
		targetLatency: targetLatency,
		window:        window,
		lastCheck:     time.Now(),
	}
}

// Observe starts tracking the backend's metrics.
func (bp *BackPressureRegulator) Observe(metrics *Metrics) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	bp.metrics = metrics
	bp.updatePressure()
}

// Limit reports true at 80% pressure or above.
func (bp *BackPressureRegulator) Limit() bool {
	bp.mu.RLock()
	defer bp.mu.RUnlock()

	return bp.currentPressure >= 0.8
}

// Renormalize folds in new submissions, or decays pressure while there are none.
func (bp *BackPressureRegulator) Renormalize() {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.metrics == nil {
		return
	}

	if submissions, _, _ := bp.metrics.health(); submissions != bp.seen {
		bp.updatePressure()
		return
	}

	if bp.window <= 0 || bp.currentPressure == 0 {
		return
	}

	steps := int(time.Since(bp.lastCheck) / bp.window)
	if steps > 0 {
		bp.currentPressure = max(0.0, bp.currentPressure-0.1*float64(steps))
		bp.lastCheck = bp.lastCheck.Add(time.Duration(steps) * bp.window)
		errnie.Info("back pressure decayed to %.2f", bp.currentPressure)
	}
}

// updatePressure assumes the caller holds the lock.
func (bp *BackPressureRegulator) updatePressure() {
	if bp.metrics == nil {
		return
	}

	submissions, successRate, p95 := bp.metrics.health()
	bp.seen = submissions
	bp.lastCheck = time.Now()

	if submissions == 0 {
		bp.currentPressure = 0
		return
	}

	failurePressure := 1 - successRate

	timingPressure := 0.0
	if bp.targetLatency > 0 {
		timingPressure = float64(p95) / float64(bp.targetLatency)
	}

	bp.currentPressure = min(1.0, max(0.0, failurePressure*0.6+timingPressure*0.4))
}

// Pressure returns the current pressure level.
func (bp *BackPressureRegulator) Pressure() float64 {
	bp.mu.RLock()
	defer bp.mu.RUnlock()
	return bp.currentPressure
}
