package logging

import (
	"regexp"
	"strings"
)

// Redacted replaces masked values.
const Redacted = "[REDACTED]"

// DefaultSensitiveKeys are attribute keys whose values never reach a log
// line. Payload-bearing keys are included so that request content and
// token maps cannot leak through a careless log call.
var DefaultSensitiveKeys = []string{
	"api_key", "apikey", "x-api-key", "authorization",
	"password", "secret", "token", "tokens",
	"message", "text", "payload",
}

type valuePattern struct {
	re          *regexp.Regexp
	replacement string
}

// Patterns applied to every string value that survives key masking.
var defaultValuePatterns = []valuePattern{
	{regexp.MustCompile(`Bearer\s+[A-Za-z0-9\-._~+/]+=*`), "Bearer ***"},
	{regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`), "***@***"},
	{regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "***-**-****"},
	{regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`), "****"},
}

// Redactor decides which attribute values are masked.
type Redactor struct {
	keys     map[string]struct{}
	patterns []valuePattern
}

// NewRedactor creates a Redactor for DefaultSensitiveKeys plus extra.
func NewRedactor(extra []string) *Redactor {
	r := &Redactor{keys: make(map[string]struct{}), patterns: defaultValuePatterns}
	for _, k := range DefaultSensitiveKeys {
		r.keys[k] = struct{}{}
	}
	for _, k := range extra {
		r.keys[strings.ToLower(k)] = struct{}{}
	}
	return r
}

// SensitiveKey reports whether values under key are masked entirely.
func (r *Redactor) SensitiveKey(key string) bool {
	_, ok := r.keys[strings.ToLower(key)]
	return ok
}

// RedactString masks credential and contact patterns inside s.
func (r *Redactor) RedactString(s string) string {
	for _, p := range r.patterns {
		s = p.re.ReplaceAllString(s, p.replacement)
	}
	return s
}

// RedactAPIKey keeps a short prefix for correlation.
func RedactAPIKey(key string) string {
	if len(key) <= 4 {
		return "***"
	}
	return key[:4] + "***"
}
