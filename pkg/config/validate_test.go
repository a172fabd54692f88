package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "empty listen address",
			mutate:    func(c *Config) { c.Server.ListenAddress = "" },
			wantField: "server.listen_address",
		},
		{
			name:      "bad prefix",
			mutate:    func(c *Config) { c.Engine.Prefixes = map[string]string{"PERSON": "na me"} },
			wantField: "engine.prefixes.PERSON",
		},
		{
			name:      "model mode without dir",
			mutate:    func(c *Config) { c.Recognizer.Mode = "model" },
			wantField: "recognizer.model.dir",
		},
		{
			name:      "unknown field source",
			mutate:    func(c *Config) { c.Fields.Source = "consul" },
			wantField: "fields.source",
		},
		{
			name:      "file source without path",
			mutate:    func(c *Config) { c.Fields.Source = "file" },
			wantField: "fields.file.path",
		},
		{
			name: "s3 url without key",
			mutate: func(c *Config) {
				c.Fields.Source = "s3"
				c.Fields.S3.URL = "s3://bucket/"
			},
			wantField: "fields.s3.url",
		},
		{
			name: "git token auth without token",
			mutate: func(c *Config) {
				c.Fields.Source = "git"
				c.Fields.Git.Repository = "https://example.com/fields.git"
				c.Fields.Git.Auth.Type = "token"
			},
			wantField: "fields.git.auth.token",
		},
		{
			name:      "unknown audit backend",
			mutate:    func(c *Config) { c.Audit.Backend = "postgres" },
			wantField: "audit.backend",
		},
		{
			name:      "bad cron",
			mutate:    func(c *Config) { c.Audit.Retention.PruneSchedule = "every day" },
			wantField: "audit.retention.prune_schedule",
		},
		{
			name:      "bad log format",
			mutate:    func(c *Config) { c.Telemetry.Logging.Format = "xml" },
			wantField: "telemetry.logging.format",
		},
		{
			name:      "unsorted buckets",
			mutate:    func(c *Config) { c.Telemetry.Metrics.DurationBuckets = []float64{1, 0.5} },
			wantField: "telemetry.metrics.duration_buckets",
		},
		{
			name: "unknown secret provider",
			mutate: func(c *Config) {
				c.Security.Secrets.Providers = []SecretProviderConfig{{Type: "vault"}}
			},
			wantField: "security.secrets.providers[0].type",
		},
		{
			name:      "auth without keys",
			mutate:    func(c *Config) { c.Security.Authentication.Enabled = true },
			wantField: "security.authentication.keys",
		},
		{
			name:      "rate limit without limits",
			mutate:    func(c *Config) { c.Security.RateLimit.Enabled = true },
			wantField: "security.rate_limit",
		},
		{
			name: "rate limit bad key",
			mutate: func(c *Config) {
				c.Security.RateLimit.Enabled = true
				c.Security.RateLimit.RequestsPerSecond = 5
				c.Security.RateLimit.KeyBy = "tenant"
			},
			wantField: "security.rate_limit.key_by",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %s, got %v", tt.wantField, verr.Errors)
			}
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if got := single.Error(); got != "configuration validation failed: a: bad" {
		t.Errorf("single error message = %q", got)
	}

	multi := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	if got := multi.Error(); !strings.Contains(got, "2 errors") || !strings.Contains(got, "  - b: worse") {
		t.Errorf("multi error message = %q", got)
	}
}
