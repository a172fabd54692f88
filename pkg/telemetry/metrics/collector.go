package metrics

import (
	"strconv"
	"sync"
	"time"

	"anymouse-hq/anymouse/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns the process metrics. It implements anonymize.Observer so
// the engine can report to it directly.
//
// Metric families:
//   - anymouse_engine_operations_total{operation,shape,status}
//   - anymouse_engine_operation_duration_seconds{operation,shape}
//   - anymouse_engine_entities_total{type}
//   - anymouse_engine_recognizer_fallbacks_total{reason}
//   - anymouse_engine_placeholder_collisions_total{shape}
//   - anymouse_http_requests_total{route,status}
//   - anymouse_http_request_duration_seconds{route}
//   - anymouse_http_rate_limited_total{reason}
//   - anymouse_audit_records_total{status}
//   - anymouse_audit_pruned_total
type Collector struct {
	cfg      config.MetricsConfig
	registry *prometheus.Registry

	engine *EngineMetrics
	http   *HTTPMetrics
	audit  *AuditMetrics

	// Entity types come from model label maps, so they are capped.
	entityTypes *CardinalityLimiter
}

// NewCollector registers every metric family on registry. A nil registry
// gets a fresh one.
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = config.DefaultDurationBuckets
	}

	return &Collector{
		cfg:         cfg,
		registry:    registry,
		engine:      NewEngineMetrics(cfg, registry),
		http:        NewHTTPMetrics(cfg, registry),
		audit:       NewAuditMetrics(cfg, registry),
		entityTypes: NewCardinalityLimiter(64),
	}
}

// ObserveOperation records one engine call.
func (c *Collector) ObserveOperation(operation, shape, status string, d time.Duration) {
	if !c.cfg.Enabled {
		return
	}
	c.engine.operationsTotal.WithLabelValues(operation, shape, status).Inc()
	c.engine.operationDuration.WithLabelValues(operation, shape).Observe(d.Seconds())
}

// ObserveEntities counts redacted entities of one type.
func (c *Collector) ObserveEntities(entityType string, n int) {
	if !c.cfg.Enabled || n <= 0 {
		return
	}
	if !c.entityTypes.Allow(entityType) {
		entityType = "other"
	}
	c.engine.entitiesTotal.WithLabelValues(entityType).Add(float64(n))
}

// ObserveFallback counts calls served by the pattern recognizer because the
// configured one failed.
func (c *Collector) ObserveFallback(reason string) {
	if !c.cfg.Enabled {
		return
	}
	c.engine.fallbacksTotal.WithLabelValues(reason).Inc()
}

// ObserveCollision counts inputs that already contained placeholder text.
func (c *Collector) ObserveCollision(shape string) {
	if !c.cfg.Enabled {
		return
	}
	c.engine.collisionsTotal.WithLabelValues(shape).Inc()
}

// RecordHTTPRequest records a completed API request.
func (c *Collector) RecordHTTPRequest(route string, status int, d time.Duration) {
	if !c.cfg.Enabled {
		return
	}
	c.http.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	c.http.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// RecordRateLimited counts a request rejected by rate limiting.
func (c *Collector) RecordRateLimited(reason string) {
	if !c.cfg.Enabled {
		return
	}
	c.http.rateLimited.WithLabelValues(reason).Inc()
}

// RecordAuditWrite counts audit writes by outcome ("success" or "error").
func (c *Collector) RecordAuditWrite(status string) {
	if !c.cfg.Enabled {
		return
	}
	c.audit.recordsTotal.WithLabelValues(status).Inc()
}

// RecordAuditPruned counts records removed by retention.
func (c *Collector) RecordAuditPruned(n int64) {
	if !c.cfg.Enabled || n <= 0 {
		return
	}
	c.audit.prunedTotal.Add(float64(n))
}

// Registry returns the registry backing the collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter caps the number of distinct label values.
type CardinalityLimiter struct {
	max     int
	mu      sync.RWMutex
	current map[string]struct{}
}

// NewCardinalityLimiter creates a limiter for max values.
func NewCardinalityLimiter(max int) *CardinalityLimiter {
	return &CardinalityLimiter{max: max, current: make(map[string]struct{})}
}

// Allow reports whether value is already tracked or fits under the cap.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	_, ok := cl.current[value]
	cl.mu.RUnlock()
	if ok {
		return true
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()
	if _, ok := cl.current[value]; ok {
		return true
	}
	if len(cl.current) >= cl.max {
		return false
	}
	cl.current[value] = struct{}{}
	return true
}

// Count returns the number of tracked values.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
