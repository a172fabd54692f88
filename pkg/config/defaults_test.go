package config

import (
	"reflect"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"server.listen_address", cfg.Server.ListenAddress, DefaultListenAddress},
		{"server.max_body_bytes", cfg.Server.MaxBodyBytes, int64(DefaultMaxBodyBytes)},
		{"engine.structured_prefix", cfg.Engine.StructuredPrefix, DefaultStructuredPrefix},
		{"recognizer.mode", cfg.Recognizer.Mode, DefaultRecognizerMode},
		{"recognizer.model.seq_len", cfg.Recognizer.Model.SeqLen, DefaultModelSeqLen},
		{"recognizer.pattern.min_words", cfg.Recognizer.Pattern.MinWords, DefaultPatternMinWords},
		{"fields.source", cfg.Fields.Source, DefaultFieldsSource},
		{"fields.git.branch", cfg.Fields.Git.Branch, DefaultFieldsGitBranch},
		{"audit.backend", cfg.Audit.Backend, DefaultAuditBackend},
		{"audit.enabled", cfg.Audit.Enabled, false},
		{"audit.retention.days", cfg.Audit.Retention.Days, DefaultAuditRetentionDays},
		{"telemetry.logging.format", cfg.Telemetry.Logging.Format, DefaultLogFormat},
		{"telemetry.metrics.enabled", cfg.Telemetry.Metrics.Enabled, true},
		{"telemetry.metrics.duration_buckets", cfg.Telemetry.Metrics.DurationBuckets, DefaultDurationBuckets},
		{"security.secrets.cache.ttl", cfg.Security.Secrets.Cache.TTL, DefaultSecretsCacheTTL},
		{"security.rate_limit.key_by", cfg.Security.RateLimit.KeyBy, DefaultRateLimitKeyBy},
		{"security.rate_limit.burst", cfg.Security.RateLimit.Burst, 0},
		{"security.authentication.sources", cfg.Security.Authentication.Sources, []APIKeySource{{Type: "header", Name: "X-API-Key"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.got, tt.want) {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	cfg := &Config{}
	cfg.Server.ListenAddress = "0.0.0.0:1"
	ApplyDefaults(cfg)
	first := *cfg
	ApplyDefaults(cfg)
	if !reflect.DeepEqual(first, *cfg) {
		t.Error("ApplyDefaults is not idempotent")
	}
	if cfg.Server.ListenAddress != "0.0.0.0:1" {
		t.Error("ApplyDefaults overwrote an explicit value")
	}
}
