package metrics

import (
	"anymouse-hq/anymouse/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics are reported by the anonymization engine.
type EngineMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	entitiesTotal     *prometheus.CounterVec
	fallbacksTotal    *prometheus.CounterVec
	collisionsTotal   *prometheus.CounterVec
}

// NewEngineMetrics creates and registers engine metrics.
func NewEngineMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *EngineMetrics {
	em := &EngineMetrics{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "engine",
				Name:      "operations_total",
				Help:      "Total number of anonymize and deanonymize operations",
			},
			[]string{"operation", "shape", "status"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "engine",
				Name:      "operation_duration_seconds",
				Help:      "Duration of engine operations in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"operation", "shape"},
		),
		entitiesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "engine",
				Name:      "entities_total",
				Help:      "Total number of entities replaced by placeholders",
			},
			[]string{"type"},
		),
		fallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "engine",
				Name:      "recognizer_fallbacks_total",
				Help:      "Total number of calls served by the pattern recognizer after a recognizer failure",
			},
			[]string{"reason"},
		),
		collisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "engine",
				Name:      "placeholder_collisions_total",
				Help:      "Total number of inputs that already contained placeholder-shaped text",
			},
			[]string{"shape"},
		),
	}

	registry.MustRegister(
		em.operationsTotal,
		em.operationDuration,
		em.entitiesTotal,
		em.fallbacksTotal,
		em.collisionsTotal,
	)
	return em
}
