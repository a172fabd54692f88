package fieldconfig

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned for documents whose "fields" entry is not a
// list of strings.
var ErrInvalidConfig = errors.New("Fields must be a list of strings")

// Config is a validated field document.
type Config struct {
	Fields []string `json:"fields" yaml:"fields"`
}

// Source loads a field document.
type Source interface {
	// Load returns the current document.
	Load(ctx context.Context) (Config, error)

	// Name identifies the source in logs and health checks.
	Name() string
}

// Validate normalizes a decoded document. Unknown keys are ignored; a missing
// "fields" key yields an empty list.
func Validate(raw map[string]any) (Config, error) {
	v, ok := raw["fields"]
	if !ok {
		return Config{Fields: []string{}}, nil
	}
	list, ok := v.([]any)
	if !ok {
		return Config{}, fmt.Errorf("%w: got %s", ErrInvalidConfig, kind(v))
	}
	fields := make([]string, 0, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			return Config{}, fmt.Errorf("%w: item %d is %s", ErrInvalidConfig, i, kind(item))
		}
		fields = append(fields, s)
	}
	return Config{Fields: fields}, nil
}

// Parse decodes a JSON or YAML field document and validates it.
func Parse(data []byte) (Config, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Config{Fields: []string{}}, nil
	}

	var raw map[string]any
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return Config{}, fmt.Errorf("parse field document: %w", err)
		}
	} else if err := yaml.Unmarshal(trimmed, &raw); err != nil {
		return Config{}, fmt.Errorf("parse field document: %w", err)
	}
	if raw == nil {
		return Config{}, fmt.Errorf("parse field document: top level is not a mapping")
	}
	return Validate(raw)
}

func kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case float64, int, int64, uint64, json.Number:
		return "a number"
	case map[string]any:
		return "a mapping"
	case []any:
		return "a list"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// InlineSource serves a fixed list.
type InlineSource struct {
	fields []string
}

// NewInlineSource returns a source that always yields fields.
func NewInlineSource(fields []string) *InlineSource {
	return &InlineSource{fields: append([]string{}, fields...)}
}

// Load returns a copy of the configured list.
func (s *InlineSource) Load(context.Context) (Config, error) {
	return Config{Fields: append([]string{}, s.fields...)}, nil
}

// Name returns "inline".
func (s *InlineSource) Name() string { return "inline" }
