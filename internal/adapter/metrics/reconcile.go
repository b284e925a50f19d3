package metrics

import "github.com/prometheus/client_golang/prometheus"

// ReconcileMetrics holds Prometheus metrics for sentiment field reconciliation.
type ReconcileMetrics struct {
	Runs               *prometheus.CounterVec
	Duration           prometheus.Histogram
	FieldsCreated      prometheus.Counter
	FieldsDeleted      prometheus.Counter
	ProvisioningErrors *prometheus.CounterVec
	EnabledTypes       prometheus.Gauge
}

// NewReconcileMetrics creates and registers reconciliation metrics on the given registry.
func NewReconcileMetrics(reg prometheus.Registerer) *ReconcileMetrics {
	m := &ReconcileMetrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "runs_total",
			Help:      "Total number of reconciliation runs, by result.",
		}, []string{"result"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "duration_seconds",
			Help:      "Duration of reconciliation runs in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}),
		FieldsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "fields_created_total",
			Help:      "Total number of sentiment fields provisioned on content types.",
		}),
		FieldsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "fields_deleted_total",
			Help:      "Total number of sentiment fields removed from content types.",
		}),
		ProvisioningErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "provisioning_errors_total",
			Help:      "Total number of failed provisioning operations, by operation.",
		}, []string{"operation"}),
		EnabledTypes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "enabled_content_types",
			Help:      "Number of content types enabled after the last reconciliation.",
		}),
	}

	reg.MustRegister(m.Runs, m.Duration, m.FieldsCreated, m.FieldsDeleted, m.ProvisioningErrors, m.EnabledTypes)
	return m
}
