package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ANYMOUSE_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values and validates the result. Environment variables
// are not consulted; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Parse decodes a YAML document without applying defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides named ANYMOUSE_SECTION_FIELD (for example
// ANYMOUSE_SERVER_LISTEN_ADDRESS). Environment variables take precedence over
// the file.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// Default returns a configuration with every default applied. It is used
// when no configuration file is given.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// DefaultWithEnvOverrides returns the default configuration with environment
// overrides applied and validated.
func DefaultWithEnvOverrides() (*Config, error) {
	cfg := Default()
	applyEnvOverrides(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	// Server overrides
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	envInt("SERVER_MAX_HEADER_BYTES", &cfg.Server.MaxHeaderBytes)
	if val := os.Getenv(EnvPrefix + "SERVER_MAX_BODY_BYTES"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Server.MaxBodyBytes = i
		}
	}

	// Engine overrides
	envString("ENGINE_STRUCTURED_PREFIX", &cfg.Engine.StructuredPrefix)

	// Recognizer overrides
	envString("RECOGNIZER_MODE", &cfg.Recognizer.Mode)
	envString("RECOGNIZER_MODEL_DIR", &cfg.Recognizer.Model.Dir)
	envString("RECOGNIZER_MODEL_SHARED_LIBRARY_PATH", &cfg.Recognizer.Model.SharedLibraryPath)
	envInt("RECOGNIZER_MODEL_SEQ_LEN", &cfg.Recognizer.Model.SeqLen)
	envInt("RECOGNIZER_MODEL_SESSIONS", &cfg.Recognizer.Model.Sessions)

	// Fields overrides
	envString("FIELDS_SOURCE", &cfg.Fields.Source)
	if val := os.Getenv(EnvPrefix + "FIELDS_INLINE"); val != "" {
		cfg.Fields.Inline = splitList(val)
	}
	envString("FIELDS_FILE_PATH", &cfg.Fields.File.Path)
	envBool("FIELDS_FILE_WATCH", &cfg.Fields.File.Watch)
	envString("FIELDS_S3_URL", &cfg.Fields.S3.URL)
	envString("FIELDS_S3_REGION", &cfg.Fields.S3.Region)
	envString("FIELDS_S3_ENDPOINT", &cfg.Fields.S3.Endpoint)
	envString("FIELDS_GIT_REPOSITORY", &cfg.Fields.Git.Repository)
	envString("FIELDS_GIT_BRANCH", &cfg.Fields.Git.Branch)
	envString("FIELDS_GIT_PATH", &cfg.Fields.Git.Path)
	envString("FIELDS_GIT_AUTH_TOKEN", &cfg.Fields.Git.Auth.Token)
	envDuration("FIELDS_CACHE_TTL", &cfg.Fields.CacheTTL)

	// Audit overrides
	envBool("AUDIT_ENABLED", &cfg.Audit.Enabled)
	envString("AUDIT_BACKEND", &cfg.Audit.Backend)
	envString("AUDIT_SQLITE_PATH", &cfg.Audit.SQLite.Path)
	envInt("AUDIT_RETENTION_DAYS", &cfg.Audit.Retention.Days)
	envString("AUDIT_RETENTION_PRUNE_SCHEDULE", &cfg.Audit.Retention.PruneSchedule)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)

	// Security overrides
	envBool("SECURITY_AUTHENTICATION_ENABLED", &cfg.Security.Authentication.Enabled)
	envBool("SECURITY_TLS_ENABLED", &cfg.Security.TLS.Enabled)
	envString("SECURITY_TLS_CERT_FILE", &cfg.Security.TLS.CertFile)
	envString("SECURITY_TLS_KEY_FILE", &cfg.Security.TLS.KeyFile)
	envBool("SECURITY_RATE_LIMIT_ENABLED", &cfg.Security.RateLimit.Enabled)
	envString("SECURITY_RATE_LIMIT_KEY_BY", &cfg.Security.RateLimit.KeyBy)
	if val := os.Getenv(EnvPrefix + "SECURITY_RATE_LIMIT_REQUESTS_PER_SECOND"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Security.RateLimit.RequestsPerSecond = f
		}
	}
	envInt("SECURITY_RATE_LIMIT_REQUESTS_PER_MINUTE", &cfg.Security.RateLimit.RequestsPerMinute)
	envInt("SECURITY_RATE_LIMIT_MAX_CONCURRENT", &cfg.Security.RateLimit.MaxConcurrent)
	if val := os.Getenv(EnvPrefix + "SECURITY_API_KEYS"); val != "" {
		for i, key := range splitList(val) {
			cfg.Security.Authentication.Keys = append(cfg.Security.Authentication.Keys, APIKeyConfig{
				Key:      key,
				ClientID: fmt.Sprintf("env-%d", i+1),
			})
		}
	}
}

func envString(name string, dst *string) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		*dst = val
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
