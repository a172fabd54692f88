package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576  // 1MB
	DefaultMaxBodyBytes    = 10485760 // 10MB

	// Engine defaults
	DefaultStructuredPrefix = "name"

	// Recognizer defaults
	DefaultRecognizerMode  = "auto"
	DefaultModelSeqLen     = 256
	DefaultModelSessions   = 2
	DefaultPatternType     = "PERSON"
	DefaultPatternMinWords = 2

	// Fields defaults
	DefaultFieldsSource     = "inline"
	DefaultFieldsCacheTTL   = 5 * time.Minute
	DefaultFieldsGitBranch  = "main"
	DefaultFieldsGitPath    = "fields.yaml"
	DefaultFieldsGitTimeout = 30 * time.Second
	DefaultGitAuthType      = "none"

	// Audit defaults
	DefaultAuditBackend            = "memory"
	DefaultAuditSQLitePath         = "data/audit.db"
	DefaultAuditSQLiteMaxOpenConns = 10
	DefaultAuditSQLiteMaxIdleConns = 5
	DefaultAuditSQLiteWALMode      = true
	DefaultAuditSQLiteBusyTimeout  = 5 * time.Second
	DefaultAuditRetentionDays      = 30
	DefaultAuditRetentionSchedule  = "0 3 * * *"
	DefaultAuditWriteTimeout       = 5 * time.Second
	DefaultAuditBuffer             = 1000

	// Telemetry defaults
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "json"
	DefaultMetricsEnabled     = true
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "anymouse"
	DefaultHealthLiveness     = "/health"
	DefaultHealthReadiness    = "/ready"
	DefaultHealthCheckTimeout = 5 * time.Second
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingTimeout     = 10 * time.Second
	DefaultTracingService     = "anymouse"
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 0.1

	// Security defaults
	DefaultSecretsCacheEnabled = true
	DefaultSecretsCacheTTL     = 5 * time.Minute
	DefaultSecretsCacheMaxSize = 1000
	DefaultAPIKeyHeader        = "X-API-Key"
	DefaultRateLimitKeyBy      = "client"
	DefaultRateLimitIdleTTL    = 10 * time.Minute
)

// DefaultDurationBuckets are the operation latency buckets in seconds.
var DefaultDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// ApplyDefaults fills unset fields with default values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}

	// Engine defaults
	if cfg.Engine.StructuredPrefix == "" {
		cfg.Engine.StructuredPrefix = DefaultStructuredPrefix
	}

	// Recognizer defaults
	if cfg.Recognizer.Mode == "" {
		cfg.Recognizer.Mode = DefaultRecognizerMode
	}
	if cfg.Recognizer.Model.SeqLen == 0 {
		cfg.Recognizer.Model.SeqLen = DefaultModelSeqLen
	}
	if cfg.Recognizer.Model.Sessions == 0 {
		cfg.Recognizer.Model.Sessions = DefaultModelSessions
	}
	if cfg.Recognizer.Pattern.Type == "" {
		cfg.Recognizer.Pattern.Type = DefaultPatternType
	}
	if cfg.Recognizer.Pattern.MinWords == 0 {
		cfg.Recognizer.Pattern.MinWords = DefaultPatternMinWords
	}

	// Fields defaults
	if cfg.Fields.Source == "" {
		cfg.Fields.Source = DefaultFieldsSource
	}
	if cfg.Fields.CacheTTL == 0 {
		cfg.Fields.CacheTTL = DefaultFieldsCacheTTL
	}
	if cfg.Fields.Git.Branch == "" {
		cfg.Fields.Git.Branch = DefaultFieldsGitBranch
	}
	if cfg.Fields.Git.Path == "" {
		cfg.Fields.Git.Path = DefaultFieldsGitPath
	}
	if cfg.Fields.Git.Timeout == 0 {
		cfg.Fields.Git.Timeout = DefaultFieldsGitTimeout
	}
	if cfg.Fields.Git.Auth.Type == "" {
		cfg.Fields.Git.Auth.Type = DefaultGitAuthType
	}

	// Audit defaults
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = DefaultAuditBackend
	}
	if cfg.Audit.SQLite.Path == "" {
		cfg.Audit.SQLite.Path = DefaultAuditSQLitePath
	}
	if cfg.Audit.SQLite.MaxOpenConns == 0 {
		cfg.Audit.SQLite.MaxOpenConns = DefaultAuditSQLiteMaxOpenConns
	}
	if cfg.Audit.SQLite.MaxIdleConns == 0 {
		cfg.Audit.SQLite.MaxIdleConns = DefaultAuditSQLiteMaxIdleConns
	}
	if !cfg.Audit.SQLite.WALMode {
		cfg.Audit.SQLite.WALMode = DefaultAuditSQLiteWALMode
	}
	if cfg.Audit.SQLite.BusyTimeout == 0 {
		cfg.Audit.SQLite.BusyTimeout = DefaultAuditSQLiteBusyTimeout
	}
	if cfg.Audit.Retention.Days == 0 {
		cfg.Audit.Retention.Days = DefaultAuditRetentionDays
	}
	if cfg.Audit.Retention.PruneSchedule == "" {
		cfg.Audit.Retention.PruneSchedule = DefaultAuditRetentionSchedule
	}
	if cfg.Audit.WriteTimeout == 0 {
		cfg.Audit.WriteTimeout = DefaultAuditWriteTimeout
	}
	if cfg.Audit.Buffer == 0 {
		cfg.Audit.Buffer = DefaultAuditBuffer
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if !cfg.Telemetry.Metrics.Enabled {
		cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) == 0 {
		cfg.Telemetry.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultHealthLiveness
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultHealthReadiness
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingService
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}

	// Security defaults
	if !cfg.Security.Secrets.Cache.Enabled {
		cfg.Security.Secrets.Cache.Enabled = DefaultSecretsCacheEnabled
	}
	if cfg.Security.Secrets.Cache.TTL == 0 {
		cfg.Security.Secrets.Cache.TTL = DefaultSecretsCacheTTL
	}
	if cfg.Security.Secrets.Cache.MaxSize == 0 {
		cfg.Security.Secrets.Cache.MaxSize = DefaultSecretsCacheMaxSize
	}
	if cfg.Security.RateLimit.KeyBy == "" {
		cfg.Security.RateLimit.KeyBy = DefaultRateLimitKeyBy
	}
	if cfg.Security.RateLimit.Burst == 0 && cfg.Security.RateLimit.RequestsPerSecond > 0 {
		cfg.Security.RateLimit.Burst = max(1, int(cfg.Security.RateLimit.RequestsPerSecond*2))
	}
	if cfg.Security.RateLimit.IdleTTL == 0 {
		cfg.Security.RateLimit.IdleTTL = DefaultRateLimitIdleTTL
	}
	if len(cfg.Security.Authentication.Sources) == 0 {
		cfg.Security.Authentication.Sources = []APIKeySource{
			{Type: "header", Name: DefaultAPIKeyHeader},
		}
	}
}
