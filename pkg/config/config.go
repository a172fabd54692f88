package config

import "time"

// Config is the root configuration structure for anymouse.
type Config struct {
	// Server contains HTTP server configuration.
	Server ServerConfig `yaml:"server"`

	// Engine contains placeholder formatting configuration.
	Engine EngineConfig `yaml:"engine"`

	// Recognizer selects and configures the entity recognizer.
	Recognizer RecognizerConfig `yaml:"recognizer"`

	// Fields configures where the default structured field paths come from.
	Fields FieldsConfig `yaml:"fields"`

	// Audit configures the PII-free operation audit trail.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry contains logging, metrics, and health configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Security contains secrets and API key authentication.
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes limits request body size.
	// Default: 10485760 (10MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// EngineConfig configures placeholder formatting.
type EngineConfig struct {
	// Prefixes maps entity types to placeholder prefixes. Entries extend or
	// override the built-in table (PERSON=name, ORG=org, GPE=loc, LOC=loc,
	// DATE=date).
	Prefixes map[string]string `yaml:"prefixes"`

	// StructuredPrefix is the prefix used for every redacted field.
	// Default: "name"
	StructuredPrefix string `yaml:"structured_prefix"`
}

// RecognizerConfig selects the entity recognizer.
type RecognizerConfig struct {
	// Mode is "auto", "model" or "pattern". "auto" tries the model and falls
	// back to the pattern recognizer; "model" fails startup without one.
	// Default: "auto"
	Mode string `yaml:"mode"`

	// Model configures the ONNX token-classification backend.
	Model ModelConfig `yaml:"model"`

	// Pattern configures the capitalized-sequence fallback.
	Pattern PatternConfig `yaml:"pattern"`
}

// ModelConfig configures the ONNX recognizer.
type ModelConfig struct {
	// Dir holds model.onnx, vocab.txt and labels.yaml or config.json.
	Dir string `yaml:"dir"`

	// SharedLibraryPath points at libonnxruntime. Empty means discover it.
	SharedLibraryPath string `yaml:"shared_library_path"`

	// SeqLen is the model input length in tokens.
	// Default: 256
	SeqLen int `yaml:"seq_len"`

	// Sessions is the number of pooled inference sessions.
	// Default: 2
	Sessions int `yaml:"sessions"`

	// LowerCase lowercases words before vocabulary lookup.
	LowerCase bool `yaml:"lower_case"`

	// LabelMap maps model labels (without B-/I-) to entity types.
	LabelMap map[string]string `yaml:"label_map"`
}

// PatternConfig configures the pattern recognizer.
type PatternConfig struct {
	// Type is the entity type assigned to every match.
	// Default: "PERSON"
	Type string `yaml:"type"`

	// MinWords is the minimum run length.
	// Default: 2
	MinWords int `yaml:"min_words"`

	// ExtraDenylist extends the built-in denylist.
	ExtraDenylist []string `yaml:"extra_denylist"`
}

// FieldsConfig configures the default structured field paths.
type FieldsConfig struct {
	// Source is "inline", "file", "s3" or "git".
	// Default: "inline"
	Source string `yaml:"source"`

	// Inline lists the field paths when Source is "inline".
	Inline []string `yaml:"inline"`

	// File configures the "file" source.
	File FieldsFileConfig `yaml:"file"`

	// S3 configures the "s3" source.
	S3 FieldsS3Config `yaml:"s3"`

	// Git configures the "git" source.
	Git FieldsGitConfig `yaml:"git"`

	// CacheTTL is how long a remote field list is reused before refetching.
	// Default: 5m
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// FieldsFileConfig configures a local field document.
type FieldsFileConfig struct {
	// Path is a JSON or YAML document with a "fields" list.
	Path string `yaml:"path"`

	// Watch reloads the document when it changes on disk.
	Watch bool `yaml:"watch"`
}

// FieldsS3Config configures a field document stored in S3.
type FieldsS3Config struct {
	// URL is "s3://bucket/key".
	URL string `yaml:"url"`

	// Region overrides the SDK default region.
	Region string `yaml:"region"`

	// Endpoint overrides the S3 endpoint (MinIO, LocalStack).
	Endpoint string `yaml:"endpoint"`
}

// FieldsGitConfig configures a field document tracked in a Git repository.
type FieldsGitConfig struct {
	// Repository is the clone URL.
	Repository string `yaml:"repository"`

	// Branch to read.
	// Default: "main"
	Branch string `yaml:"branch"`

	// Path of the document inside the repository.
	// Default: "fields.yaml"
	Path string `yaml:"path"`

	// Auth configures Git authentication.
	Auth GitAuthConfig `yaml:"auth"`

	// Timeout bounds a clone.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// GitAuthConfig configures Git authentication.
type GitAuthConfig struct {
	// Type: "token" or "none".
	// Default: "none"
	Type string `yaml:"type"`

	// Token for HTTPS authentication. Accepts ${secret:name} references.
	Token string `yaml:"token"`
}

// AuditConfig configures the audit trail.
type AuditConfig struct {
	// Enabled controls whether operations are recorded.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend is "memory", "sqlite3" (cgo driver) or "sqlite" (pure Go).
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLite configures both SQLite backends.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Retention configures pruning.
	Retention RetentionConfig `yaml:"retention"`

	// WriteTimeout bounds a single record write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Buffer is the size of the async write queue.
	// Default: 1000
	Buffer int `yaml:"buffer"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the database file.
	// Default: "data/audit.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig configures audit pruning.
type RetentionConfig struct {
	// Days to keep records. 0 keeps records forever.
	// Default: 30
	Days int `yaml:"days"`

	// PruneSchedule is a standard cron expression.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line in log entries.
	AddSource bool `yaml:"add_source"`

	// RedactKeys extends the attribute keys whose values are masked.
	RedactKeys []string `yaml:"redact_keys"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "anymouse"
	Namespace string `yaml:"namespace"`

	// DurationBuckets are histogram buckets in seconds.
	// Default: [0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5]
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// HealthConfig contains health endpoint configuration.
type HealthConfig struct {
	// LivenessPath is the liveness probe path.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the readiness probe path.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// CheckTimeout bounds each readiness check.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

// TracingConfig contains OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled turns on span export.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS to the collector.
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// ServiceName is the service.name resource attribute.
	// Default: "anymouse"
	ServiceName string `yaml:"service_name"`

	// Sampler is "always", "never" or "ratio".
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is used by the ratio sampler.
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`
}

// SecurityConfig contains secrets and authentication configuration.
type SecurityConfig struct {
	// Secrets contains secret provider configuration.
	Secrets SecretsConfig `yaml:"secrets"`

	// Authentication contains API key authentication configuration.
	Authentication AuthenticationConfig `yaml:"authentication"`

	// TLS configures HTTPS on the API listener.
	TLS TLSConfig `yaml:"tls"`

	// RateLimit throttles API routes per caller.
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig configures per-caller request limits. Zero limits are
// not enforced.
type RateLimitConfig struct {
	// Enabled turns on rate limiting for API routes.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// KeyBy is "client" (authenticated client ID, falling back to the
	// source IP) or "ip".
	// Default: "client"
	KeyBy string `yaml:"key_by"`

	// RequestsPerSecond is the sustained rate per caller.
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst is the largest instantaneous burst per caller.
	// Default: twice requests_per_second, at least 1
	Burst int `yaml:"burst"`

	// RequestsPerMinute caps requests per caller per minute.
	RequestsPerMinute int `yaml:"requests_per_minute"`

	// MaxConcurrent caps in-flight requests per caller.
	MaxConcurrent int `yaml:"max_concurrent"`

	// IdleTTL evicts the state of callers idle for this long.
	// Default: 10m
	IdleTTL time.Duration `yaml:"idle_ttl"`
}

// SecretsConfig contains secret management configuration.
type SecretsConfig struct {
	// Providers are tried in order until one returns a value.
	Providers []SecretProviderConfig `yaml:"providers"`

	// Cache contains secret caching configuration.
	Cache SecretsCacheConfig `yaml:"cache"`
}

// SecretProviderConfig configures one secret provider.
type SecretProviderConfig struct {
	// Type is "env", "file" or "ssm".
	Type string `yaml:"type"`

	// Prefix is the environment variable prefix (env).
	// Example: "ANYMOUSE_SECRET_"
	Prefix string `yaml:"prefix,omitempty"`

	// Path is the secrets directory (file) or parameter path prefix (ssm).
	// Example: "/var/secrets" or "/anymouse/prod/"
	Path string `yaml:"path,omitempty"`

	// Watch reloads file secrets on change (file).
	Watch bool `yaml:"watch,omitempty"`

	// Region is the AWS region (ssm).
	Region string `yaml:"region,omitempty"`

	// Endpoint overrides the SSM endpoint (ssm).
	Endpoint string `yaml:"endpoint,omitempty"`
}

// SecretsCacheConfig contains secret caching configuration.
type SecretsCacheConfig struct {
	// Enabled controls whether secrets are cached.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// TTL is the cache lifetime.
	// Default: 5m
	TTL time.Duration `yaml:"ttl"`

	// MaxSize is the maximum number of cached secrets.
	// Default: 1000
	MaxSize int `yaml:"max_size"`
}

// AuthenticationConfig contains API key authentication configuration.
type AuthenticationConfig struct {
	// Enabled controls whether API routes require a key.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sources defines where keys are read from.
	// Default: header X-API-Key
	Sources []APIKeySource `yaml:"sources"`

	// Keys lists accepted keys. Key values accept ${secret:name} references.
	Keys []APIKeyConfig `yaml:"keys"`
}

// APIKeySource defines where to extract API keys from in HTTP requests.
type APIKeySource struct {
	// Type is "header" or "query".
	Type string `yaml:"type"`

	// Name is the header or query parameter name.
	Name string `yaml:"name"`

	// Scheme is an optional header scheme such as "Bearer".
	Scheme string `yaml:"scheme,omitempty"`
}

// APIKeyConfig is one accepted API key.
type APIKeyConfig struct {
	// Key is the key value or a ${secret:name} reference.
	Key string `yaml:"key"`

	// ClientID identifies the caller in logs and audit records.
	ClientID string `yaml:"client_id"`

	// Disabled rejects the key without removing it.
	Disabled bool `yaml:"disabled,omitempty"`
}

// TLSConfig configures HTTPS for the API listener.
type TLSConfig struct {
	// Enabled turns on HTTPS.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// CertFile and KeyFile hold the PEM server certificate and key.
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`

	// MinVersion is "1.2" or "1.3".
	// Default: "1.3"
	MinVersion string `yaml:"min_version"`

	// ClientCAFile enables client certificate verification against the
	// given PEM bundle.
	ClientCAFile string `yaml:"client_ca_file"`

	// ClientAuth is "require", "verify_if_given" or "request".
	// Default: "require" when ClientCAFile is set
	ClientAuth string `yaml:"client_auth"`

	// Reload re-reads the certificate when its files change on disk.
	Reload bool `yaml:"reload"`
}
