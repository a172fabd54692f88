package api

import (
	"net/http"

	"anymouse-hq/anymouse/pkg/audit"
	"anymouse-hq/anymouse/pkg/telemetry/tracing"
)

// Routes of the API.
const (
	RouteAnonymize   = "/v1/anonymize"
	RouteDeanonymize = "/v1/deanonymize"
	RouteConfigTest  = "/v1/config/test"
	RouteInvoke      = "/v1/invoke"
)

// RouteOptions wraps API routes with cross-cutting middleware.
type RouteOptions struct {
	// Auth gates every API route. Nil leaves routes open.
	Auth func(http.Handler) http.Handler

	// RateLimit throttles callers after authentication. Nil disables it.
	RateLimit func(http.Handler) http.Handler

	Metrics HTTPMetrics
	Tracer  *tracing.Tracer
}

// Register mounts the API routes on mux. Each route is wrapped, outermost
// first, in recovery, logging, request ID, tracing, metrics, auth and rate
// limiting.
func (h *Handler) Register(mux *http.ServeMux, opts RouteOptions) {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = h.tracer
	}
	routes := []struct {
		path   string
		action string
		fn     http.HandlerFunc
	}{
		{RouteAnonymize, audit.ActionAnonymize, h.Anonymize},
		{RouteDeanonymize, audit.ActionDeanonymize, h.Deanonymize},
		{RouteConfigTest, audit.ActionConfigTest, h.ConfigTest},
		{RouteInvoke, audit.ActionInvoke, h.Invoke},
	}
	for _, rt := range routes {
		mw := []func(http.Handler) http.Handler{
			Recovery,
			Logging(rt.action),
			RequestID,
			traced(tracer, rt.path),
			Metrics(rt.path, opts.Metrics),
		}
		if opts.Auth != nil {
			mw = append(mw, opts.Auth)
		}
		if opts.RateLimit != nil {
			mw = append(mw, opts.RateLimit)
		}
		mux.Handle(rt.path, Chain(rt.fn, mw...))
	}
}

func traced(t *tracing.Tracer, route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return t.Middleware(route, next)
	}
}
