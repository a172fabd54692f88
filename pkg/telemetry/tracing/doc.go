// Package tracing exports OpenTelemetry spans over OTLP gRPC.
//
// Each API route gets a server span from Middleware; engine calls add a
// child span with EngineAttributes. Span attributes are limited to
// operation names, shapes, and counts. Request content never becomes an
// attribute.
package tracing
