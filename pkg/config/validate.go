package config

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration. All validation errors are
// collected and returned together as a ValidationError.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateEngine(&cfg.Engine)...)
	errs = append(errs, validateRecognizer(&cfg.Recognizer)...)
	errs = append(errs, validateFields(&cfg.Fields)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateSecurity(&cfg.Security)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: "listen address is required"})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "read timeout must be positive"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "write timeout must be positive"})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.idle_timeout", Message: "idle timeout must be positive"})
	}
	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{Field: "server.max_header_bytes", Message: "max header bytes must be non-negative"})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{Field: "server.max_body_bytes", Message: "max body bytes must be non-negative"})
	}
	return errs
}

func validateEngine(cfg *EngineConfig) []FieldError {
	var errs []FieldError

	for typ, prefix := range cfg.Prefixes {
		if !validPrefix(prefix) {
			errs = append(errs, FieldError{
				Field:   "engine.prefixes." + typ,
				Message: fmt.Sprintf("prefix %q must contain only ASCII letters or underscores", prefix),
			})
		}
	}
	if cfg.StructuredPrefix != "" && !validPrefix(cfg.StructuredPrefix) {
		errs = append(errs, FieldError{
			Field:   "engine.structured_prefix",
			Message: fmt.Sprintf("prefix %q must contain only ASCII letters or underscores", cfg.StructuredPrefix),
		})
	}
	return errs
}

func validPrefix(p string) bool {
	if p == "" {
		return false
	}
	for _, r := range p {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || r == '_') {
			return false
		}
	}
	return true
}

func validateRecognizer(cfg *RecognizerConfig) []FieldError {
	var errs []FieldError

	switch cfg.Mode {
	case "auto", "pattern":
	case "model":
		if cfg.Model.Dir == "" {
			errs = append(errs, FieldError{Field: "recognizer.model.dir", Message: "model directory is required when mode is model"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "recognizer.mode",
			Message: fmt.Sprintf("invalid mode %q (must be auto, model or pattern)", cfg.Mode),
		})
	}
	if cfg.Model.SeqLen < 3 {
		errs = append(errs, FieldError{Field: "recognizer.model.seq_len", Message: "sequence length must be at least 3"})
	}
	if cfg.Model.Sessions < 1 {
		errs = append(errs, FieldError{Field: "recognizer.model.sessions", Message: "at least one session is required"})
	}
	if cfg.Pattern.MinWords < 1 {
		errs = append(errs, FieldError{Field: "recognizer.pattern.min_words", Message: "min words must be at least 1"})
	}
	return errs
}

func validateFields(cfg *FieldsConfig) []FieldError {
	var errs []FieldError

	switch cfg.Source {
	case "inline":
		for i, f := range cfg.Inline {
			if strings.TrimSpace(f) == "" {
				errs = append(errs, FieldError{Field: fmt.Sprintf("fields.inline[%d]", i), Message: "field path must not be empty"})
			}
		}
	case "file":
		if cfg.File.Path == "" {
			errs = append(errs, FieldError{Field: "fields.file.path", Message: "path is required when source is file"})
		}
	case "s3":
		u, err := url.Parse(cfg.S3.URL)
		if err != nil || u.Scheme != "s3" || u.Host == "" || strings.Trim(u.Path, "/") == "" {
			errs = append(errs, FieldError{Field: "fields.s3.url", Message: "url must have the form s3://bucket/key"})
		}
	case "git":
		if cfg.Git.Repository == "" {
			errs = append(errs, FieldError{Field: "fields.git.repository", Message: "repository is required when source is git"})
		}
		switch cfg.Git.Auth.Type {
		case "none", "":
		case "token":
			if cfg.Git.Auth.Token == "" {
				errs = append(errs, FieldError{Field: "fields.git.auth.token", Message: "token auth requires a token"})
			}
		default:
			errs = append(errs, FieldError{
				Field:   "fields.git.auth.type",
				Message: fmt.Sprintf("invalid auth type %q (must be token or none)", cfg.Git.Auth.Type),
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "fields.source",
			Message: fmt.Sprintf("invalid source %q (must be inline, file, s3 or git)", cfg.Source),
		})
	}
	if cfg.CacheTTL < 0 {
		errs = append(errs, FieldError{Field: "fields.cache_ttl", Message: "cache ttl must be non-negative"})
	}
	return errs
}

func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory", "sqlite3", "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "audit.backend",
			Message: fmt.Sprintf("invalid backend %q (must be memory, sqlite3 or sqlite)", cfg.Backend),
		})
	}
	if cfg.Backend != "memory" && cfg.SQLite.Path == "" {
		errs = append(errs, FieldError{Field: "audit.sqlite.path", Message: "path is required for sqlite backends"})
	}
	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{Field: "audit.retention.days", Message: "retention days must be non-negative"})
	}
	if fields := strings.Fields(cfg.Retention.PruneSchedule); cfg.Retention.PruneSchedule != "" &&
		len(fields) != 5 && !strings.HasPrefix(cfg.Retention.PruneSchedule, "@") {
		errs = append(errs, FieldError{Field: "audit.retention.prune_schedule", Message: "schedule must be a 5-field cron expression or descriptor"})
	}
	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be debug, info, warn or error)", cfg.Logging.Level),
		})
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be json or text)", cfg.Logging.Format),
		})
	}
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "path must start with /"})
	}
	for i := 1; i < len(cfg.Metrics.DurationBuckets); i++ {
		if cfg.Metrics.DurationBuckets[i] <= cfg.Metrics.DurationBuckets[i-1] {
			errs = append(errs, FieldError{Field: "telemetry.metrics.duration_buckets", Message: "buckets must be strictly increasing"})
			break
		}
	}
	switch cfg.Tracing.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q (must be always, never or ratio)", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "sample ratio must be between 0 and 1"})
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "endpoint is required when tracing is enabled"})
	}
	return errs
}

func validateSecurity(cfg *SecurityConfig) []FieldError {
	var errs []FieldError

	for i, p := range cfg.Secrets.Providers {
		field := fmt.Sprintf("security.secrets.providers[%d]", i)
		switch p.Type {
		case "env":
		case "file":
			if p.Path == "" {
				errs = append(errs, FieldError{Field: field + ".path", Message: "path is required for file provider"})
			}
		case "ssm":
			if p.Path != "" && !strings.HasPrefix(p.Path, "/") {
				errs = append(errs, FieldError{Field: field + ".path", Message: "ssm parameter path must start with /"})
			}
		default:
			errs = append(errs, FieldError{
				Field:   field + ".type",
				Message: fmt.Sprintf("invalid provider type %q (must be env, file or ssm)", p.Type),
			})
		}
	}
	if cfg.Secrets.Cache.TTL < 0 {
		errs = append(errs, FieldError{Field: "security.secrets.cache.ttl", Message: "ttl must be non-negative"})
	}

	auth := cfg.Authentication
	for i, src := range auth.Sources {
		field := fmt.Sprintf("security.authentication.sources[%d]", i)
		if src.Type != "header" && src.Type != "query" {
			errs = append(errs, FieldError{Field: field + ".type", Message: fmt.Sprintf("invalid source type %q (must be header or query)", src.Type)})
		}
		if src.Name == "" {
			errs = append(errs, FieldError{Field: field + ".name", Message: "name is required"})
		}
	}
	if auth.Enabled && len(auth.Keys) == 0 {
		errs = append(errs, FieldError{Field: "security.authentication.keys", Message: "at least one key is required when authentication is enabled"})
	}
	for i, k := range auth.Keys {
		if k.Key == "" {
			errs = append(errs, FieldError{Field: fmt.Sprintf("security.authentication.keys[%d].key", i), Message: "key must not be empty"})
		}
	}

	if rl := cfg.RateLimit; rl.Enabled {
		switch rl.KeyBy {
		case "client", "ip":
		default:
			errs = append(errs, FieldError{Field: "security.rate_limit.key_by", Message: fmt.Sprintf("invalid key %q (must be client or ip)", rl.KeyBy)})
		}
		if rl.RequestsPerSecond < 0 || rl.RequestsPerMinute < 0 || rl.MaxConcurrent < 0 || rl.Burst < 0 {
			errs = append(errs, FieldError{Field: "security.rate_limit", Message: "limits must be non-negative"})
		}
		if rl.RequestsPerSecond == 0 && rl.RequestsPerMinute == 0 && rl.MaxConcurrent == 0 {
			errs = append(errs, FieldError{Field: "security.rate_limit", Message: "at least one limit is required when rate limiting is enabled"})
		}
	}

	if tls := cfg.TLS; tls.Enabled {
		if tls.CertFile == "" {
			errs = append(errs, FieldError{Field: "security.tls.cert_file", Message: "cert file is required when TLS is enabled"})
		}
		if tls.KeyFile == "" {
			errs = append(errs, FieldError{Field: "security.tls.key_file", Message: "key file is required when TLS is enabled"})
		}
		switch tls.MinVersion {
		case "", "1.2", "1.3":
		default:
			errs = append(errs, FieldError{Field: "security.tls.min_version", Message: fmt.Sprintf("invalid min version %q (must be 1.2 or 1.3)", tls.MinVersion)})
		}
		switch tls.ClientAuth {
		case "", "require", "verify_if_given", "request":
		default:
			errs = append(errs, FieldError{Field: "security.tls.client_auth", Message: fmt.Sprintf("invalid client auth %q", tls.ClientAuth)})
		}
	}
	return errs
}
