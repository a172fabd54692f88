// Package metrics exposes Prometheus metrics for the engine, the HTTP API,
// and the audit trail.
//
// A Collector is passed to the engine as its Observer:
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	engine, err := anonymize.New(anonymize.Config{Recognizer: rec, Observer: collector})
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// Labels never carry request content. Entity type labels are capped by a
// CardinalityLimiter; types past the cap are counted as "other".
package metrics
