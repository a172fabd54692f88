package api

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"anymouse-hq/anymouse/pkg/api/types"
	"anymouse-hq/anymouse/pkg/security/auth"
	"anymouse-hq/anymouse/pkg/telemetry/logging"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLen bounds client-supplied request IDs.
const maxRequestIDLen = 128

// HTTPMetrics records per-route request counts and latency.
type HTTPMetrics interface {
	RecordHTTPRequest(route string, status int, d time.Duration)
}

// statusRecorder captures the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.written {
		rw.status = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Recovery turns a handler panic into a 500 envelope.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.ErrorContext(r.Context(), "panic in handler",
					"error", err,
					"request_id", w.Header().Get(RequestIDHeader),
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				types.NewErrorResponse(
					"An internal error occurred. Please try again later.",
					types.ErrorTypeServerError, "", types.CodeInternalError,
				).Write(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// RequestID propagates the caller's X-Request-ID or generates a UUID, and
// stores it in the context for logging and audit.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := logging.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type actionKey struct{}

// requestAction is filled in by handlers that only learn the action after
// decoding the body.
type requestAction struct {
	name string
}

func setAction(ctx context.Context, action string) {
	if a, ok := ctx.Value(actionKey{}).(*requestAction); ok {
		a.name = action
	}
}

// Logging writes one completion line per request with the action, status,
// source IP, latency and request ID. Bodies, headers and keys are never
// logged.
func Logging(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			act := &requestAction{name: action}
			ctx := context.WithValue(r.Context(), actionKey{}, act)
			rw := newStatusRecorder(w)

			next.ServeHTTP(rw, r.WithContext(ctx))

			level := slog.LevelInfo
			if rw.status >= 500 {
				level = slog.LevelError
			} else if rw.status >= 400 {
				level = slog.LevelWarn
			}
			slog.Log(ctx, level, "request completed",
				"action", act.name,
				"status", rw.status,
				"source_ip", auth.ClientIP(r),
				"latency_ms", time.Since(start).Milliseconds(),
				"request_id", rw.Header().Get(RequestIDHeader),
			)
		})
	}
}

// Metrics records the request against route.
func Metrics(route string, m HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newStatusRecorder(w)
			next.ServeHTTP(rw, r)
			m.RecordHTTPRequest(route, rw.status, time.Since(start))
		})
	}
}

// Chain applies middleware so the first one listed is outermost.
func Chain(h http.Handler, mw ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}
