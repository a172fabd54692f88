package recognizer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var wordRe = regexp.MustCompile(`[\p{L}\p{M}'’-]+`)

// defaultDenylist holds capitalized words that are almost never part of a
// person name in running text.
var defaultDenylist = []string{
	// titles and honorifics
	"Mr", "Mrs", "Ms", "Miss", "Mx", "Dr", "Prof", "Sir", "Madam", "Rev", "Hon", "Jr", "Sr",
	// months
	"January", "February", "March", "April", "May", "June", "July", "August",
	"September", "October", "November", "December",
	"Jan", "Feb", "Mar", "Apr", "Jun", "Jul", "Aug", "Sep", "Sept", "Oct", "Nov", "Dec",
	// weekdays
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
	// sentence and function words
	"The", "A", "An", "This", "That", "These", "Those", "I", "We", "You", "He", "She",
	"It", "They", "My", "Our", "Your", "His", "Her", "Their", "In", "On", "At", "To",
	"From", "For", "Of", "And", "But", "Or", "If", "When", "Hello", "Hi", "Dear",
	"Thanks", "Regards", "Yes", "No",
	// generic nouns
	"Hospital", "Clinic", "Street", "Avenue", "Road", "University", "Company", "Inc",
	"Ltd", "Department", "Patient", "Doctor", "User", "Notes", "ID",
}

// PatternConfig configures the pattern recognizer.
type PatternConfig struct {
	// Type is the entity type assigned to every match. Default: PERSON.
	Type string

	// MinWords is the minimum number of consecutive capitalized words that
	// form an entity. Default: 2.
	MinWords int

	// ExtraDenylist extends the built-in denylist.
	ExtraDenylist []string
}

// Pattern recognizes runs of capitalized words as a single entity type.
//
// It has lower recall and precision than a model; it exists so the engine
// keeps working when no model is available.
type Pattern struct {
	typ      string
	minWords int
	deny     map[string]struct{}
}

// NewPattern creates a pattern recognizer.
func NewPattern(cfg PatternConfig) *Pattern {
	p := &Pattern{
		typ:      cfg.Type,
		minWords: cfg.MinWords,
		deny:     make(map[string]struct{}, len(defaultDenylist)+len(cfg.ExtraDenylist)),
	}
	if p.typ == "" {
		p.typ = TypePerson
	}
	if p.minWords <= 0 {
		p.minWords = 2
	}
	for _, w := range defaultDenylist {
		p.deny[w] = struct{}{}
	}
	for _, w := range cfg.ExtraDenylist {
		if w = strings.TrimSpace(w); w != "" {
			p.deny[w] = struct{}{}
		}
	}
	return p
}

// Recognize returns every maximal run of at least MinWords capitalized,
// non-denylisted words separated only by spaces or tabs.
func (p *Pattern) Recognize(text string) ([]Entity, error) {
	var (
		entities []Entity
		runStart = -1
		runEnd   = -1
		runLen   = 0
	)

	flush := func() {
		if runLen >= p.minWords {
			entities = append(entities, Entity{
				Start: runStart,
				End:   runEnd,
				Text:  text[runStart:runEnd],
				Type:  p.typ,
			})
		}
		runStart, runEnd, runLen = -1, -1, 0
	}

	for _, loc := range wordRe.FindAllStringIndex(text, -1) {
		word := text[loc[0]:loc[1]]
		if !p.candidate(word) {
			flush()
			continue
		}
		if runLen > 0 && !inlineGap(text[runEnd:loc[0]]) {
			flush()
		}
		if runLen == 0 {
			runStart = loc[0]
		}
		runEnd = loc[1]
		runLen++
	}
	flush()

	return entities, nil
}

// EntityTypes returns the single type this recognizer emits.
func (p *Pattern) EntityTypes() []string {
	return []string{p.typ}
}

// Name returns "pattern".
func (p *Pattern) Name() string {
	return "pattern"
}

// Denied reports whether word is on the denylist.
func (p *Pattern) Denied(word string) bool {
	_, ok := p.deny[word]
	return ok
}

func (p *Pattern) candidate(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	if !unicode.IsUpper(r) {
		return false
	}
	return !p.Denied(word)
}

// inlineGap reports whether the text between two words keeps them in the
// same run: non-empty and made only of spaces or tabs.
func inlineGap(gap string) bool {
	if gap == "" {
		return false
	}
	for _, r := range gap {
		if r != ' ' && r != '\t' {
			return false
		}
	}
	return true
}
