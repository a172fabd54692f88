// Package telemetry groups the observability packages:
//
//   - logging: slog setup with a redacting handler
//   - metrics: Prometheus collector, also the engine's Observer
//   - tracing: OpenTelemetry spans for API routes and engine calls
//   - health: liveness and readiness probes
//
// None of them ever record original values, placeholders, or token maps.
package telemetry
