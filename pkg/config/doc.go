// Package config provides configuration management for anymouse.
//
// Configuration is read from a YAML file, completed with defaults, overridden
// from the environment, and validated:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("anymouse.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention ANYMOUSE_SECTION_FIELD:
//
//   - ANYMOUSE_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - ANYMOUSE_RECOGNIZER_MODE overrides recognizer.mode
//   - ANYMOUSE_FIELDS_S3_URL overrides fields.s3.url
//   - ANYMOUSE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//   - ANYMOUSE_SECURITY_RATE_LIMIT_REQUESTS_PER_SECOND overrides security.rate_limit.requests_per_second
//
// List values (ANYMOUSE_FIELDS_INLINE, ANYMOUSE_SECURITY_API_KEYS) are
// comma-separated.
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// Validate collects every problem into a ValidationError whose Errors carry
// the dotted field path of each offending setting.
package config
