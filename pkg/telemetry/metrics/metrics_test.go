package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"anymouse-hq/anymouse/pkg/anonymize"
	"anymouse-hq/anymouse/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var _ anonymize.Observer = (*Collector)(nil)

func testConfig() config.MetricsConfig {
	return config.MetricsConfig{
		Enabled:         true,
		Namespace:       "test",
		DurationBuckets: []float64{0.001, 0.01, 0.1, 1},
	}
}

func TestCollector_EngineMetrics(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())

	c.ObserveOperation("anonymize", "text", "success", 2*time.Millisecond)
	c.ObserveOperation("anonymize", "text", "success", 3*time.Millisecond)
	c.ObserveOperation("anonymize", "structured", "error", 0)
	c.ObserveEntities("PERSON", 2)
	c.ObserveEntities("GPE", 1)
	c.ObserveEntities("DATE", 0)
	c.ObserveFallback("runtime_error")
	c.ObserveCollision("text")

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"text successes", testutil.ToFloat64(c.engine.operationsTotal.WithLabelValues("anonymize", "text", "success")), 2},
		{"structured errors", testutil.ToFloat64(c.engine.operationsTotal.WithLabelValues("anonymize", "structured", "error")), 1},
		{"person entities", testutil.ToFloat64(c.engine.entitiesTotal.WithLabelValues("PERSON")), 2},
		{"gpe entities", testutil.ToFloat64(c.engine.entitiesTotal.WithLabelValues("GPE")), 1},
		{"fallbacks", testutil.ToFloat64(c.engine.fallbacksTotal.WithLabelValues("runtime_error")), 1},
		{"collisions", testutil.ToFloat64(c.engine.collisionsTotal.WithLabelValues("text")), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if n := testutil.CollectAndCount(c.engine.entitiesTotal); n != 2 {
		t.Errorf("entity series = %d, want 2 (zero counts are skipped)", n)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	c := NewCollector(cfg, prometheus.NewRegistry())

	c.ObserveOperation("anonymize", "text", "success", time.Millisecond)
	c.RecordHTTPRequest("/v1/anonymize", 200, time.Millisecond)

	if n := testutil.CollectAndCount(c.engine.operationsTotal); n != 0 {
		t.Errorf("disabled collector recorded %d series", n)
	}
}

func TestCollector_HTTPAndAudit(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())

	c.RecordHTTPRequest("/v1/anonymize", 200, time.Millisecond)
	c.RecordHTTPRequest("/v1/anonymize", 401, time.Millisecond)
	c.RecordHTTPRequest("/v1/anonymize", 401, time.Millisecond)
	c.RecordAuditWrite("success")
	c.RecordAuditPruned(5)
	c.RecordAuditPruned(0)

	if got := testutil.ToFloat64(c.http.requestsTotal.WithLabelValues("/v1/anonymize", "401")); got != 2 {
		t.Errorf("401 count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.audit.recordsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("audit writes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.audit.prunedTotal); got != 5 {
		t.Errorf("pruned = %v, want 5", got)
	}
}

func TestCollector_EntityCardinality(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())
	c.entityTypes = NewCardinalityLimiter(1)

	c.ObserveEntities("PERSON", 1)
	c.ObserveEntities("CUSTOM", 3)

	if got := testutil.ToFloat64(c.engine.entitiesTotal.WithLabelValues("other")); got != 3 {
		t.Errorf("overflow count = %v, want 3", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())
	c.ObserveOperation("deanonymize", "text", "success", time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_engine_operations_total") {
		t.Errorf("exposition missing engine counter:\n%s", rec.Body.String())
	}
}

func TestCardinalityLimiter(t *testing.T) {
	cl := NewCardinalityLimiter(2)
	for _, v := range []string{"a", "b", "a"} {
		if !cl.Allow(v) {
			t.Errorf("Allow(%q) = false", v)
		}
	}
	if cl.Allow("c") {
		t.Error("Allow past the cap should be false")
	}
	if cl.Count() != 2 {
		t.Errorf("Count() = %d", cl.Count())
	}
}
