// Package health implements the liveness and readiness probes.
//
// Liveness only says the process is up. Readiness runs the registered
// checks concurrently, each bounded by the check timeout, and answers 503
// while any of them fails:
//
//	checker := health.New(version, cfg.Telemetry.Health.CheckTimeout)
//	checker.Register("recognizer", func(ctx context.Context) error { ... })
//	mux.HandleFunc("GET /ready", checker.ReadinessHandler())
package health
