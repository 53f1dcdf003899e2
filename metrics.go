package qcreative

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

type timeWindow struct {
	duration time.Duration
	count    int
}

/*
Metrics tracks backend submissions in-process and, when given a registerer,
mirrors them as Prometheus collectors.
*/
type Metrics struct {
	mu          sync.RWMutex
	Submissions int64
	Programs    int64
	Shots       int64
	Failures    int64

	AverageLatency time.Duration
	P95Latency     time.Duration
	P99Latency     time.Duration
	SuccessRate    float64
	Limited        int64

	latencyWindows []timeWindow
	windowSize     int

	submissions *prometheus.CounterVec
	programs    *prometheus.CounterVec
	shots       *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// NewMetrics registers the collectors with reg; a nil reg keeps metrics in-process.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		latencyWindows: make([]timeWindow, 0, 1000),
		windowSize:     1000,
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qcreative",
			Name:      "submissions_total",
			Help:      "Backend submissions by backend and result.",
		}, []string{"backend", "result"}),
		programs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qcreative",
			Name:      "programs_total",
			Help:      "Programs submitted by backend.",
		}, []string{"backend"}),
		shots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qcreative",
			Name:      "shots_total",
			Help:      "Shots requested by backend.",
		}, []string{"backend"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "qcreative",
			Name:      "submission_seconds",
			Help:      "Backend submission latency.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"backend"}),
	}

	if reg != nil {
		reg.MustRegister(m.submissions, m.programs, m.shots, m.latency)
	}

	return m
}

func (m *Metrics) recordSubmission(backend string, start time.Time, programs, shots int, err error) {
	duration := time.Since(start)
	result := "ok"
	if err != nil {
		result = "error"
	}

	m.submissions.WithLabelValues(backend, result).Inc()
	m.programs.WithLabelValues(backend).Add(float64(programs))
	m.shots.WithLabelValues(backend).Add(float64(programs * shots))
	m.latency.WithLabelValues(backend).Observe(duration.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Submissions++
	m.Programs += int64(programs)
	m.Shots += int64(programs * shots)
	if err != nil {
		m.Failures++
	}
	m.SuccessRate = float64(m.Submissions-m.Failures) / float64(m.Submissions)

	m.updateLatencyPercentiles(duration)
}

func (m *Metrics) recordLimited() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Limited++
}

func (m *Metrics) updateLatencyPercentiles(duration time.Duration) {
	m.AverageLatency = (m.AverageLatency*time.Duration(m.Submissions-1) + duration) / time.Duration(m.Submissions)

	m.latencyWindows = append(m.latencyWindows, timeWindow{
		duration: duration,
		count:    1,
	})

	if len(m.latencyWindows) > m.windowSize {
		m.latencyWindows = m.latencyWindows[1:]
	}

	sorted := make([]time.Duration, 0, len(m.latencyWindows))
	for _, w := range m.latencyWindows {
		for i := 0; i < w.count; i++ {
			sorted = append(sorted, w.duration)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	if len(sorted) > 0 {
		p95Index := min(int(float64(len(sorted))*0.95), len(sorted)-1)
		p99Index := min(int(float64(len(sorted))*0.99), len(sorted)-1)

		m.P95Latency = sorted[p95Index]
		m.P99Latency = sorted[p99Index]
	}
}

func (m *Metrics) health() (submissions int64, successRate float64, p95 time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Submissions, m.SuccessRate, m.P95Latency
}

// ExportMetrics returns a snapshot for logging or display.
func (m *Metrics) ExportMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"submissions":  m.Submissions,
		"programs":     m.Programs,
		"shots":        m.Shots,
		"failures":     m.Failures,
		"limited":      m.Limited,
		"success_rate": m.SuccessRate,
		"avg_latency":  m.AverageLatency.Milliseconds(),
		"p95_latency":  m.P95Latency.Milliseconds(),
		"p99_latency":  m.P99Latency.Milliseconds(),
	}
}

/*
Metered records every submission to the wrapped backend. Batches rejected as
ErrEncoding and cancelled submissions say nothing about the backend and are
not recorded.
*/
type Metered struct {
	backend Backend
	metrics *Metrics
}

func NewMetered(backend Backend, metrics *Metrics) *Metered {
	return &Metered{backend: backend, metrics: metrics}
}

func (m *Metered) Name() string {
	return m.backend.Name()
}

func (m *Metered) Execute(ctx context.Context, programs []*Program, shots int) ([]Counts, error) {
	start := time.Now()
	results, err := m.backend.Execute(ctx, programs, shots)
	if errors.Is(err, ErrEncoding) || errors.Is(err, context.Canceled) {
		return results, err
	}
	m.metrics.recordSubmission(m.backend.Name(), start, len(programs), shots, err)
	return results, err
}
