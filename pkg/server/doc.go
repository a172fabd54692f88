// Package server assembles the anonymization service from configuration
// and runs its HTTP listener.
//
// New wires, in order: secret resolution, metrics, tracing, the recognizer
// and engine, the field source, the audit trail, the API routes, TLS, rate
// limiting, API key authentication and health endpoints. Start serves until the context
// is cancelled and then shuts down gracefully, closing every component it
// created.
//
// Routes:
//
//	POST /v1/anonymize, /v1/deanonymize, /v1/config/test, /v1/invoke
//	GET  /health    liveness
//	GET  /ready     readiness (recognizer, field source, audit store)
//	GET  /metrics   Prometheus, when enabled
package server
