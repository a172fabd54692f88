package metrics

import (
	"anymouse-hq/anymouse/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// AuditMetrics track the audit trail.
type AuditMetrics struct {
	recordsTotal *prometheus.CounterVec
	prunedTotal  prometheus.Counter
}

// NewAuditMetrics creates and registers audit metrics.
func NewAuditMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *AuditMetrics {
	am := &AuditMetrics{
		recordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "audit",
				Name:      "records_total",
				Help:      "Total number of audit record writes by outcome",
			},
			[]string{"status"},
		),
		prunedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "audit",
				Name:      "pruned_total",
				Help:      "Total number of audit records removed by retention",
			},
		),
	}
	registry.MustRegister(am.recordsTotal, am.prunedTotal)
	return am
}
