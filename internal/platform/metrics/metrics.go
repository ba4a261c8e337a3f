package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the gateway's Prometheus collectors. Every method is nil-safe
// so services can run without metrics in tests.
type Metrics struct {
	SessionsCreated     *prometheus.CounterVec
	SessionsReaped      prometheus.Counter
	AuthFailures        prometheus.Counter
	Anonymizations      *prometheus.CounterVec
	AnonymizeLatency    prometheus.Histogram
	IntegrityViolations prometheus.Counter
	AuditDropped        *prometheus.CounterVec
	AuditQueueDepth     prometheus.Gauge
	RetentionDeleted    *prometheus.CounterVec
	SweepFailures       *prometheus.CounterVec
	TaskSkipped         *prometheus.CounterVec
	TaskDuration        *prometheus.HistogramVec
	RateLimited         *prometheus.CounterVec
}

// New registers collectors on reg. Pass prometheus.DefaultRegisterer in main
// and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SessionsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "veil_sessions_created_total",
			Help: "Sessions created by access level",
		}, []string{"access_level"}),
		SessionsReaped: f.NewCounter(prometheus.CounterOpts{
			Name: "veil_sessions_reaped_total",
			Help: "Expired sessions removed from the live store",
		}),
		AuthFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "veil_authentication_failures_total",
			Help: "Identity provider rejections and timeouts",
		}),
		Anonymizations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "veil_anonymizations_total",
			Help: "Anonymization requests by outcome",
		}, []string{"outcome"}),
		AnonymizeLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "veil_anonymize_duration_seconds",
			Help:    "Rule application, sealing and storage of one record",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		}),
		IntegrityViolations: f.NewCounter(prometheus.CounterOpts{
			Name: "veil_integrity_violations_total",
			Help: "Authentication tag or checksum mismatches",
		}),
		AuditDropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "veil_audit_write_failures_total",
			Help: "Audit entries that could not be persisted, by sink",
		}, []string{"sink"}),
		AuditQueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "veil_audit_queue_depth",
			Help: "Entries waiting for the audit writer",
		}),
		RetentionDeleted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "veil_retention_deleted_total",
			Help: "Records removed by retention, by kind",
		}, []string{"kind"}),
		SweepFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "veil_sweep_failures_total",
			Help: "Per-item failures during background sweeps",
		}, []string{"sweep"}),
		TaskSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "veil_scheduler_ticks_skipped_total",
			Help: "Ticks skipped because the previous run was still active",
		}, []string{"task"}),
		TaskDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "veil_scheduler_run_duration_seconds",
			Help:    "Duration of scheduled task runs",
			Buckets: prometheus.DefBuckets,
		}, []string{"task"}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Name: "veil_rate_limited_total",
			Help: "Requests rejected by the per-client limiter, by endpoint class",
		}, []string{"class"}),
	}
}

func (m *Metrics) IncSessionCreated(accessLevel string) {
	if m != nil {
		m.SessionsCreated.WithLabelValues(accessLevel).Inc()
	}
}

func (m *Metrics) AddSessionsReaped(n int) {
	if m != nil {
		m.SessionsReaped.Add(float64(n))
	}
}

func (m *Metrics) IncAuthFailure() {
	if m != nil {
		m.AuthFailures.Inc()
	}
}

func (m *Metrics) IncAnonymization(outcome string) {
	if m != nil {
		m.Anonymizations.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveAnonymize(d time.Duration) {
	if m != nil {
		m.AnonymizeLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncIntegrityViolation() {
	if m != nil {
		m.IntegrityViolations.Inc()
	}
}

func (m *Metrics) IncAuditDropped(sink string) {
	if m != nil {
		m.AuditDropped.WithLabelValues(sink).Inc()
	}
}

func (m *Metrics) SetAuditQueueDepth(n int) {
	if m != nil {
		m.AuditQueueDepth.Set(float64(n))
	}
}

func (m *Metrics) AddRetentionDeleted(kind string, n int) {
	if m != nil {
		m.RetentionDeleted.WithLabelValues(kind).Add(float64(n))
	}
}

func (m *Metrics) AddSweepFailures(sweep string, n int) {
	if m != nil && n > 0 {
		m.SweepFailures.WithLabelValues(sweep).Add(float64(n))
	}
}

func (m *Metrics) IncTaskSkipped(task string) {
	if m != nil {
		m.TaskSkipped.WithLabelValues(task).Inc()
	}
}

func (m *Metrics) ObserveTask(task string, d time.Duration) {
	if m != nil {
		m.TaskDuration.WithLabelValues(task).Observe(d.Seconds())
	}
}

func (m *Metrics) IncRateLimited(class string) {
	if m != nil {
		m.RateLimited.WithLabelValues(class).Inc()
	}
}
