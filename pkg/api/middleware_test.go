package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"anymouse-hq/anymouse/pkg/api/types"
	"anymouse-hq/anymouse/pkg/security/auth"
	"anymouse-hq/anymouse/pkg/telemetry/logging"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

type fakeHTTPMetrics struct {
	mu    sync.Mutex
	calls []string
	codes []int
}

func (m *fakeHTTPMetrics) RecordHTTPRequest(route string, status int, _ time.Duration) {
	m.mu.Lock()
	m.calls = append(m.calls, route)
	m.codes = append(m.codes, status)
	m.mu.Unlock()
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		wantSame bool
	}{
		{"generated", "", false},
		{"propagated", "req-123", true},
		{"oversized replaced", strings.Repeat("a", maxRequestIDLen+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = logging.GetRequestID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			header := rec.Header().Get(RequestIDHeader)
			if header == "" || header != seen {
				t.Fatalf("header %q, context %q", header, seen)
			}
			if (header == tt.incoming) != tt.wantSame {
				t.Errorf("request ID = %q, incoming %q", header, tt.incoming)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	logs := captureLogs(t)
	h := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/anonymize", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if detail := decodeError(t, rec); detail.Type != types.ErrorTypeServerError {
		t.Errorf("type = %q", detail.Type)
	}
	if !strings.Contains(logs.String(), "panic in handler") {
		t.Errorf("panic not logged: %s", logs)
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") }),
		mark("a"), mark("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got := strings.Join(order, ","); got != "a,b,handler" {
		t.Errorf("order = %s", got)
	}
}

func newRegisteredMux(t *testing.T, m HTTPMetrics) *http.ServeMux {
	t.Helper()
	validator := auth.NewAPIKeyValidator([]*auth.APIKeyInfo{
		{Key: "test-api-key-123", ClientID: "tests", Enabled: true},
	})
	mw := auth.NewAPIKeyMiddleware(validator, []auth.APIKeySource{{Type: "header", Name: "X-API-Key"}})

	mux := http.NewServeMux()
	newTestHandler(t, nil, nil, nil).Register(mux, RouteOptions{Auth: mw.Handle, Metrics: m})
	return mux
}

func TestRegisteredRoutesLogWithoutPII(t *testing.T) {
	logs := captureLogs(t)
	metrics := &fakeHTTPMetrics{}
	mux := newRegisteredMux(t, metrics)

	req := httptest.NewRequest(http.MethodPost, RouteAnonymize,
		strings.NewReader(`{"payload":{"name":"Alice"},"config":{"fields":["name"]}}`))
	req.Header.Set("X-API-Key", "test-api-key-123")
	req.RemoteAddr = "192.168.1.1:4000"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("missing request ID header")
	}

	out := logs.String()
	for _, want := range []string{"action=anonymize", "status=200", "source_ip=192.168.1.1", "request_id="} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
	for _, secret := range []string{"Alice", "test-api-key-123"} {
		if strings.Contains(out, secret) {
			t.Errorf("log leaks %q:\n%s", secret, out)
		}
	}
	if len(metrics.calls) != 1 || metrics.calls[0] != RouteAnonymize || metrics.codes[0] != http.StatusOK {
		t.Errorf("metrics = %v %v", metrics.calls, metrics.codes)
	}
}

func TestRegisteredRoutesRequireKey(t *testing.T) {
	captureLogs(t)
	mux := newRegisteredMux(t, nil)

	for _, route := range []string{RouteAnonymize, RouteDeanonymize, RouteConfigTest, RouteInvoke} {
		t.Run(route, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, route, strings.NewReader(`{}`))
			req.Header.Set("X-API-Key", "wrong-key")
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d", rec.Code)
			}
			if detail := decodeError(t, rec); detail.Message != auth.UnauthorizedMessage {
				t.Errorf("message = %q", detail.Message)
			}
		})
	}
}

func TestInvokeLogsResolvedAction(t *testing.T) {
	logs := captureLogs(t)
	mux := newRegisteredMux(t, nil)

	req := httptest.NewRequest(http.MethodPost, RouteInvoke, strings.NewReader(`{"action":"config_test","config":{"fields":[]}}`))
	req.Header.Set("X-API-Key", "test-api-key-123")
	mux.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(logs.String(), "action=config_test") {
		t.Errorf("log missing resolved action:\n%s", logs)
	}
}
