package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "anymouse.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "0.0.0.0:9090"
  read_timeout: "60s"

engine:
  prefixes:
    EMAIL: email
  structured_prefix: field

recognizer:
  mode: pattern
  pattern:
    extra_denylist: ["Acme"]

fields:
  source: inline
  inline: ["patient_name", "appointment.doctor"]

audit:
  enabled: true
  backend: sqlite
  sqlite:
    path: "./audit-test.db"

telemetry:
  logging:
    level: debug
    format: text
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:9090", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 60*time.Second {
		t.Errorf("expected read timeout %v, got %v", 60*time.Second, cfg.Server.ReadTimeout)
	}
	if cfg.Engine.Prefixes["EMAIL"] != "email" || cfg.Engine.StructuredPrefix != "field" {
		t.Errorf("unexpected engine config: %+v", cfg.Engine)
	}
	if cfg.Recognizer.Mode != "pattern" || len(cfg.Recognizer.Pattern.ExtraDenylist) != 1 {
		t.Errorf("unexpected recognizer config: %+v", cfg.Recognizer)
	}
	if got := strings.Join(cfg.Fields.Inline, ","); got != "patient_name,appointment.doctor" {
		t.Errorf("expected inline fields, got %q", got)
	}
	if !cfg.Audit.Enabled || cfg.Audit.Backend != "sqlite" {
		t.Errorf("unexpected audit config: %+v", cfg.Audit)
	}

	// Defaults fill the rest.
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("expected default write timeout, got %v", cfg.Server.WriteTimeout)
	}
	if cfg.Audit.Retention.PruneSchedule != DefaultAuditRetentionSchedule {
		t.Errorf("expected default prune schedule, got %q", cfg.Audit.Retention.PruneSchedule)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unterminated")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
recognizer:
  mode: neural
fields:
  source: s3
  s3:
    url: "https://bucket/key"
`)
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors) != 2 {
		t.Errorf("expected 2 field errors, got %d: %v", len(verr.Errors), verr.Errors)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:8080"
`)

	t.Setenv("ANYMOUSE_SERVER_LISTEN_ADDRESS", "0.0.0.0:7000")
	t.Setenv("ANYMOUSE_SERVER_READ_TIMEOUT", "5s")
	t.Setenv("ANYMOUSE_RECOGNIZER_MODE", "pattern")
	t.Setenv("ANYMOUSE_FIELDS_INLINE", "a, b.c ,")
	t.Setenv("ANYMOUSE_AUDIT_ENABLED", "true")
	t.Setenv("ANYMOUSE_SECURITY_AUTHENTICATION_ENABLED", "true")
	t.Setenv("ANYMOUSE_SECURITY_API_KEYS", "k1,k2")
	t.Setenv("ANYMOUSE_SERVER_MAX_HEADER_BYTES", "not-a-number")
	t.Setenv("ANYMOUSE_SECURITY_RATE_LIMIT_ENABLED", "true")
	t.Setenv("ANYMOUSE_SECURITY_RATE_LIMIT_KEY_BY", "ip")
	t.Setenv("ANYMOUSE_SECURITY_RATE_LIMIT_REQUESTS_PER_SECOND", "2.5")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:7000" {
		t.Errorf("listen address = %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("read timeout = %v", cfg.Server.ReadTimeout)
	}
	if cfg.Server.MaxHeaderBytes != DefaultMaxHeaderBytes {
		t.Errorf("invalid override should be ignored, got %d", cfg.Server.MaxHeaderBytes)
	}
	if cfg.Recognizer.Mode != "pattern" {
		t.Errorf("recognizer mode = %q", cfg.Recognizer.Mode)
	}
	if strings.Join(cfg.Fields.Inline, "|") != "a|b.c" {
		t.Errorf("inline fields = %v", cfg.Fields.Inline)
	}
	if !cfg.Audit.Enabled {
		t.Error("expected audit enabled")
	}
	keys := cfg.Security.Authentication.Keys
	if len(keys) != 2 || keys[0].Key != "k1" || keys[1].ClientID != "env-2" {
		t.Errorf("api keys = %+v", keys)
	}
	rl := cfg.Security.RateLimit
	if !rl.Enabled || rl.KeyBy != "ip" || rl.RequestsPerSecond != 2.5 {
		t.Errorf("rate limit = %+v", rl)
	}
}

func TestDefaultWithEnvOverrides(t *testing.T) {
	t.Setenv("ANYMOUSE_TELEMETRY_LOGGING_LEVEL", "loud")
	if _, err := DefaultWithEnvOverrides(); err == nil {
		t.Error("expected validation error for bad level")
	}
}
