package anonymize

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"anymouse-hq/anymouse/pkg/recognizer"
)

// Payload shapes reported to observers.
const (
	ShapeText       = "text"
	ShapeStructured = "structured"
)

// DefaultStructuredPrefix is the prefix used for every redacted field.
const DefaultStructuredPrefix = "name"

// catchAllPrefix is used for entity types missing from the prefix table.
const catchAllPrefix = "entity"

// DefaultPrefixes maps entity types to placeholder prefixes.
var DefaultPrefixes = map[string]string{
	recognizer.TypePerson:       "name",
	recognizer.TypeOrganization: "org",
	recognizer.TypeLocation:     "loc",
	"LOC":                       "loc",
	recognizer.TypeDate:         "date",
}

// Result is the output of an anonymize call.
type Result struct {
	// Message is the redacted text, or the redacted record as compact JSON.
	Message string `json:"message"`

	// Tokens maps each placeholder in Message to its original value.
	Tokens TokenMap `json:"tokens"`

	// Fields lists the entity types the recognizer advertises (text) or the
	// requested field paths (structured).
	Fields []string `json:"fields"`
}

// Observer receives engine events. It never sees original values.
type Observer interface {
	ObserveOperation(operation, shape, status string, d time.Duration)
	ObserveEntities(entityType string, n int)
	ObserveFallback(reason string)
	ObserveCollision(shape string)
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, string, string, time.Duration) {}
func (nopObserver) ObserveEntities(string, int)                            {}
func (nopObserver) ObserveFallback(string)                                 {}
func (nopObserver) ObserveCollision(string)                                {}

// Config configures an Engine.
type Config struct {
	// Recognizer detects entities in text. Required.
	Recognizer recognizer.Recognizer

	// Fallback serves a call when Recognizer fails at runtime. Defaults to
	// a PERSON pattern recognizer.
	Fallback *recognizer.Pattern

	// Prefixes overrides or extends DefaultPrefixes.
	Prefixes map[string]string

	// StructuredPrefix defaults to DefaultStructuredPrefix.
	StructuredPrefix string

	Observer Observer
	Logger   *slog.Logger
}

// Engine anonymizes and restores text and structured records.
type Engine struct {
	recognizer       recognizer.Recognizer
	fallback         *recognizer.Pattern
	prefixes         map[string]string
	structuredPrefix string
	placeholders     *regexp.Regexp
	observer         Observer
	logger           *slog.Logger
}

// New builds an Engine. Prefixes must be non-empty ASCII letters or
// underscores so placeholders stay unambiguous.
func New(cfg Config) (*Engine, error) {
	if cfg.Recognizer == nil {
		return nil, ErrNoRecognizer
	}
	e := &Engine{
		recognizer:       cfg.Recognizer,
		fallback:         cfg.Fallback,
		structuredPrefix: cfg.StructuredPrefix,
		observer:         cfg.Observer,
		logger:           cfg.Logger,
		prefixes:         make(map[string]string),
	}
	if e.fallback == nil {
		e.fallback = recognizer.NewPattern(recognizer.PatternConfig{})
	}
	if e.structuredPrefix == "" {
		e.structuredPrefix = DefaultStructuredPrefix
	}
	if e.observer == nil {
		e.observer = nopObserver{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("component", "anonymize")

	for typ, p := range DefaultPrefixes {
		e.prefixes[typ] = p
	}
	for typ, p := range cfg.Prefixes {
		e.prefixes[typ] = p
	}
	// Advertised types without an explicit prefix get their lowercased name.
	for _, rec := range []recognizer.Recognizer{e.recognizer, e.fallback} {
		for _, typ := range rec.EntityTypes() {
			if _, ok := e.prefixes[typ]; !ok {
				e.prefixes[typ] = derivePrefix(typ)
			}
		}
	}

	known := map[string]bool{e.structuredPrefix: true, catchAllPrefix: true}
	for typ, p := range e.prefixes {
		if !validPrefix(p) {
			return nil, fmt.Errorf("invalid placeholder prefix %q for type %s", p, typ)
		}
		known[p] = true
	}
	if !validPrefix(e.structuredPrefix) {
		return nil, fmt.Errorf("invalid structured placeholder prefix %q", e.structuredPrefix)
	}
	e.placeholders = placeholderPattern(known)
	return e, nil
}

// RecognizerName returns the name of the primary recognizer.
func (e *Engine) RecognizerName() string { return e.recognizer.Name() }

// EntityTypes returns the types advertised by the primary recognizer.
func (e *Engine) EntityTypes() []string { return advertised(e.recognizer) }

// Prefix returns the placeholder prefix used for an entity type.
func (e *Engine) Prefix(entityType string) string {
	if p, ok := e.prefixes[entityType]; ok {
		return p
	}
	return catchAllPrefix
}

// ContainsPlaceholder reports whether s already holds placeholder-shaped
// text. Such input cannot be told apart from engine output on restore.
func (e *Engine) ContainsPlaceholder(s string) bool {
	return strings.IndexByte(s, '[') >= 0 && e.placeholders.MatchString(s)
}

func advertised(rec recognizer.Recognizer) []string {
	types := rec.EntityTypes()
	out := make([]string, len(types))
	copy(out, types)
	return out
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
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

func derivePrefix(typ string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(typ) {
		if r <= unicode.MaxASCII && (unicode.IsLetter(r) || r == '_') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return catchAllPrefix
	}
	return b.String()
}

// placeholderPattern matches "[<prefix><digits>]" for every known prefix.
// Longer prefixes are tried first.
func placeholderPattern(known map[string]bool) *regexp.Regexp {
	prefixes := make([]string, 0, len(known))
	for p := range known {
		prefixes = append(prefixes, regexp.QuoteMeta(p))
	}
	sort.Slice(prefixes, func(i, j int) bool {
		if len(prefixes[i]) != len(prefixes[j]) {
			return len(prefixes[i]) > len(prefixes[j])
		}
		return prefixes[i] < prefixes[j]
	})
	return regexp.MustCompile(`\[(?:` + strings.Join(prefixes, "|") + `)[0-9]+\]`)
}
