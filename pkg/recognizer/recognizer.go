package recognizer

import (
	"errors"
	"fmt"
)

// Entity types understood by the default placeholder table.
const (
	TypePerson       = "PERSON"
	TypeOrganization = "ORG"
	TypeLocation     = "GPE"
	TypeDate         = "DATE"
)

// DefaultEntityTypes is the advertised capability set of the model backend
// when no explicit type list is configured.
var DefaultEntityTypes = []string{TypePerson, TypeOrganization, TypeLocation, TypeDate}

// ErrUnavailable is returned by a recognizer whose backend cannot serve
// requests (model not loaded, runtime closed).
var ErrUnavailable = errors.New("recognizer unavailable")

// Entity is a detected span of sensitive text.
type Entity struct {
	// Start is the byte offset of the first byte of the span.
	Start int `json:"start"`

	// End is the byte offset one past the last byte of the span.
	End int `json:"end"`

	// Text is the surface text, text[Start:End].
	Text string `json:"text"`

	// Type is the entity type (PERSON, ORG, GPE, DATE, ...).
	Type string `json:"type"`
}

// Recognizer detects entities in free text.
//
// Implementations must be safe for concurrent use. Returned spans may be in
// any order but must be in bounds and must not overlap.
type Recognizer interface {
	// Recognize returns the entities found in text. An empty result is valid.
	Recognize(text string) ([]Entity, error)

	// EntityTypes returns the ordered set of types this recognizer is
	// configured to detect.
	EntityTypes() []string

	// Name identifies the backend ("onnx", "pattern", ...).
	Name() string
}

// Validate checks that an entity respects the span contract for text.
func (e Entity) Validate(text string) error {
	if e.Start < 0 || e.End > len(text) || e.Start >= e.End {
		return fmt.Errorf("span [%d,%d) out of bounds for text of length %d", e.Start, e.End, len(text))
	}
	return nil
}
