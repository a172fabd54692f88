package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "json", cfg: Config{Level: "info", Format: "json"}},
		{name: "text", cfg: Config{Level: "debug", Format: "text"}},
		{name: "defaults", cfg: Config{}},
		{name: "bad level", cfg: Config{Level: "verbose"}, wantErr: true},
		{name: "bad format", cfg: Config{Format: "xml"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func newTestLogger(t *testing.T, extra ...string) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := New(Config{Level: "debug", Format: "json", RedactKeys: extra, Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	return logger, &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	return m
}

func TestRedactingHandler_SensitiveKeys(t *testing.T) {
	logger, buf := newTestLogger(t, "patient_id")

	logger.Info("request completed",
		"action", "anonymize",
		"status", 200,
		"text", "Alice visited Paris",
		"X-API-Key", "test-api-key-123",
		"tokens", map[string]string{"[name1]": "Alice"},
		"patient_id", "p-42",
	)

	out := buf.String()
	for _, leaked := range []string{"Alice", "Paris", "test-api-key-123", "p-42"} {
		if strings.Contains(out, leaked) {
			t.Errorf("log line leaks %q: %s", leaked, out)
		}
	}
	line := decodeLine(t, buf)
	if line["action"] != "anonymize" || line["status"] != float64(200) {
		t.Errorf("non-sensitive attrs altered: %v", line)
	}
	if line["text"] != Redacted {
		t.Errorf("text = %v, want %s", line["text"], Redacted)
	}
}

func TestRedactingHandler_ValuePatternsAndGroups(t *testing.T) {
	logger, buf := newTestLogger(t)

	logger.With("upstream", "Bearer abc.def").Warn("fetch failed",
		slog.Group("req", slog.String("authorization", "Bearer xyz"), slog.String("contact", "alice@example.com")),
	)

	out := buf.String()
	for _, leaked := range []string{"abc.def", "xyz", "alice@example.com"} {
		if strings.Contains(out, leaked) {
			t.Errorf("log line leaks %q: %s", leaked, out)
		}
	}
}

func TestRedactingHandler_ContextFields(t *testing.T) {
	logger, buf := newTestLogger(t)

	ctx := WithClientID(WithRequestID(context.Background(), "req-1"), "client-a")
	logger.InfoContext(ctx, "handled")

	line := decodeLine(t, buf)
	if line["request_id"] != "req-1" || line["client_id"] != "client-a" {
		t.Errorf("context fields missing: %v", line)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
}

func TestRedactAPIKey(t *testing.T) {
	if got := RedactAPIKey("test-api-key-123"); got != "test***" {
		t.Errorf("RedactAPIKey() = %q", got)
	}
	if got := RedactAPIKey("abc"); got != "***" {
		t.Errorf("RedactAPIKey(short) = %q", got)
	}
}
