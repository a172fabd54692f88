package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"anymouse-hq/anymouse/pkg/config"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNew_Disabled(t *testing.T) {
	tr, err := New(context.Background(), config.TracingConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatal(err)
	}
	if tr.Enabled() {
		t.Error("disabled tracer reports enabled")
	}
	ctx, span := tr.Start(context.Background(), "noop")
	span.End()
	if TraceID(ctx) != "" {
		t.Error("no-op span should not carry a trace ID")
	}
	if err := tr.Shutdown(context.Background()); err != nil {
		t.Error(err)
	}
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		strategy string
		ratio    float64
		wantErr  bool
	}{
		{SamplerAlways, 0, false},
		{SamplerNever, 0, false},
		{SamplerRatio, 0.5, false},
		{SamplerRatio, 1.5, true},
		{"sometimes", 0, true},
	}
	for _, tt := range tests {
		_, err := createSampler(tt.strategy, tt.ratio)
		if (err != nil) != tt.wantErr {
			t.Errorf("createSampler(%q, %v) error = %v, wantErr %v", tt.strategy, tt.ratio, err, tt.wantErr)
		}
	}
}

func TestMiddlewareAndEngineSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tr, err := NewWithExporter("anymouse-test", "test", exporter, sdktrace.AlwaysSample())
	if err != nil {
		t.Fatal(err)
	}

	handler := tr.Middleware("/v1/anonymize", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, span := tr.Start(r.Context(), "anonymize.text")
		span.SetAttributes(EngineAttributes("anonymize", "text", 2, 0)...)
		End(span, errors.New("boom"))
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/anonymize", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Trace-ID"); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("X-Trace-ID = %q, want propagated trace", got)
	}
	if err := tr.provider.ForceFlush(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer tr.Shutdown(context.Background())

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("exported %d spans, want 2", len(spans))
	}
	engine := spans[0]
	if engine.Name != "anonymize.text" || engine.Status.Code != codes.Error {
		t.Errorf("engine span = %s status %v", engine.Name, engine.Status.Code)
	}
	if spans[1].Name != "POST /v1/anonymize" {
		t.Errorf("server span = %s", spans[1].Name)
	}
	if engine.Parent.SpanID() != spans[1].SpanContext.SpanID() {
		t.Error("engine span is not a child of the server span")
	}
}
