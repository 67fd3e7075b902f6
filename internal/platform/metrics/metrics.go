package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for registry lookups.
type Metrics struct {
	// Polling runs by operation and final outcome
	PollRuns *prometheus.CounterVec

	// Individual round trips by operation and phase (submit, poll)
	PollAttempts *prometheus.CounterVec

	// Backoffs caused by a remote challenge
	CaptchaBackoffs *prometheus.CounterVec

	// Wall time of a full polling run, including backoff waits
	RunDuration *prometheus.HistogramVec

	// Canonical-record lookups by result (found, not_found, failed)
	Lookups *prometheus.CounterVec

	// Document archive reads by backend and result (hit, miss, error)
	ArchiveReads *prometheus.CounterVec

	// API request latency by route pattern and status class
	HTTPLatency *prometheus.HistogramVec
}

// New creates and registers all metrics on the default Prometheus registerer.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the metrics on reg. Tests pass a fresh registry so
// repeated construction does not collide.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PollRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "egrul_poll_runs_total",
			Help: "Total polling runs by operation and outcome",
		}, []string{"operation", "outcome"}),

		PollAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "egrul_poll_attempts_total",
			Help: "Total remote round trips made by polling runs",
		}, []string{"operation", "phase"}),

		CaptchaBackoffs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "egrul_captcha_backoffs_total",
			Help: "Total backoff waits caused by a challenge-required response",
		}, []string{"operation"}),

		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "egrul_poll_run_duration_seconds",
			Help:    "Duration of polling runs including backoff waits",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"operation"}),

		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "egrul_lookups_total",
			Help: "Total canonical record lookups by result",
		}, []string{"result"}),

		ArchiveReads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "egrul_archive_reads_total",
			Help: "Total document archive reads by backend and result",
		}, []string{"backend", "result"}),

		HTTPLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "egrul_http_request_duration_seconds",
			Help:    "Latency of API requests",
			Buckets: []float64{0.05, 0.25, 1, 5, 15, 60, 180, 600},
		}, []string{"route", "method", "status"}),
	}
}

// ObservePollRun records the outcome and duration of a polling run.
func (m *Metrics) ObservePollRun(operation, outcome string, d time.Duration) {
	if m != nil {
		m.PollRuns.WithLabelValues(operation, outcome).Inc()
		m.RunDuration.WithLabelValues(operation).Observe(d.Seconds())
	}
}

// IncrementAttempt records a single remote round trip.
func (m *Metrics) IncrementAttempt(operation, phase string) {
	if m != nil {
		m.PollAttempts.WithLabelValues(operation, phase).Inc()
	}
}

// IncrementCaptchaBackoff records a backoff caused by a challenge.
func (m *Metrics) IncrementCaptchaBackoff(operation string) {
	if m != nil {
		m.CaptchaBackoffs.WithLabelValues(operation).Inc()
	}
}

// IncrementLookup records a canonical lookup result.
func (m *Metrics) IncrementLookup(result string) {
	if m != nil {
		m.Lookups.WithLabelValues(result).Inc()
	}
}

// IncrementArchiveRead records a document archive read.
func (m *Metrics) IncrementArchiveRead(backend, result string) {
	if m != nil {
		m.ArchiveReads.WithLabelValues(backend, result).Inc()
	}
}

// ObserveHTTPRequest records one API request.
func (m *Metrics) ObserveHTTPRequest(route, method, status string, d time.Duration) {
	if m != nil {
		m.HTTPLatency.WithLabelValues(route, method, status).Observe(d.Seconds())
	}
}
