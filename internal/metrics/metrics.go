package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for allocation, SLA sweeps and reallocation.
type Metrics struct {
	Allocations    prometheus.Counter
	PriorityScores prometheus.Histogram

	// SLA verdicts by status
	SLAVerdicts *prometheus.CounterVec

	// Audit records by action label
	AuditRecords *prometheus.CounterVec

	// Reallocation job outcomes: enqueued, duplicate, completed, failed
	ReallocationJobs *prometheus.CounterVec

	SweepDuration prometheus.Histogram
}

// New registers all metrics with reg. Pass prometheus.DefaultRegisterer in
// main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Allocations: f.NewCounter(prometheus.CounterOpts{
			Name: "dca_allocations_total",
			Help: "Total number of case allocations processed",
		}),
		PriorityScores: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dca_priority_score",
			Help:    "Distribution of computed priority scores",
			Buckets: []float64{10, 25, 50, 75, 90, 99, 100},
		}),
		SLAVerdicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dca_sla_verdicts_total",
			Help: "SLA evaluations by resulting status",
		}, []string{"status"}),
		AuditRecords: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dca_audit_records_total",
			Help: "Audit records created by action",
		}, []string{"action"}),
		ReallocationJobs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dca_reallocation_jobs_total",
			Help: "Reallocation job events by outcome",
		}, []string{"outcome"}),
		SweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dca_sla_sweep_duration_seconds",
			Help:    "Duration of full SLA sweeps",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
}

func (m *Metrics) ObserveAllocation(score float64) {
	if m != nil {
		m.Allocations.Inc()
		m.PriorityScores.Observe(score)
	}
}

func (m *Metrics) IncrementVerdict(status string) {
	if m != nil {
		m.SLAVerdicts.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncrementAudit(action string) {
	if m != nil {
		m.AuditRecords.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) IncrementJob(outcome string) {
	if m != nil {
		m.ReallocationJobs.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveSweep(seconds float64) {
	if m != nil {
		m.SweepDuration.Observe(seconds)
	}
}
