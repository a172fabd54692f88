package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"anymouse-hq/anymouse/pkg/config"
)

// LogFormat is the output encoding.
type LogFormat string

const (
	FormatJSON LogFormat = "json"
	FormatText LogFormat = "text"
)

// Config configures New.
type Config struct {
	// Level is "debug", "info", "warn" or "error".
	Level string

	// Format is "json" or "text".
	Format string

	// AddSource includes file and line in entries.
	AddSource bool

	// RedactKeys extends DefaultSensitiveKeys.
	RedactKeys []string

	// Writer defaults to os.Stderr.
	Writer io.Writer
}

// FromConfig converts the logging section of the process configuration.
func FromConfig(cfg config.LoggingConfig) Config {
	return Config{
		Level:      cfg.Level,
		Format:     cfg.Format,
		AddSource:  cfg.AddSource,
		RedactKeys: cfg.RedactKeys,
	}
}

// New builds a logger whose handler masks sensitive attributes and adds
// request-scoped fields from the context.
func New(cfg Config) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	format, err := parseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}
	var inner slog.Handler
	switch format {
	case FormatText:
		inner = slog.NewTextHandler(w, opts)
	default:
		inner = slog.NewJSONHandler(w, opts)
	}
	return slog.New(NewRedactingHandler(inner, NewRedactor(cfg.RedactKeys))), nil
}

// Setup builds a logger with New and installs it as the slog default.
func Setup(cfg Config) (*slog.Logger, error) {
	logger, err := New(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

// ParseLevel parses a level name.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

func parseFormat(s string) (LogFormat, error) {
	switch strings.ToLower(s) {
	case "json", "":
		return FormatJSON, nil
	case "text", "console":
		return FormatText, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format: %s", s)
	}
}
