package recognizer

import (
	"testing"
)

func TestPattern_Recognize(t *testing.T) {
	p := NewPattern(PatternConfig{})

	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "no capitalized runs",
			text:     "hello world, nothing to see here.",
			expected: nil,
		},
		{
			name:     "single capitalized word is not enough",
			text:     "Alice went home.",
			expected: nil,
		},
		{
			name:     "two word name",
			text:     "I met Jane Doe yesterday.",
			expected: []string{"Jane Doe"},
		},
		{
			name:     "title is excluded from the span",
			text:     "The patient saw Dr John Smith today.",
			expected: []string{"John Smith"},
		},
		{
			name:     "month names are never matched",
			text:     "See you in March April or May June.",
			expected: nil,
		},
		{
			name:     "newline breaks a run",
			text:     "Jane\nDoe",
			expected: nil,
		},
		{
			name:     "multiple runs",
			text:     "Jane Doe and Fiona McCulloch met on Monday.",
			expected: []string{"Jane Doe", "Fiona McCulloch"},
		},
		{
			name:     "denylisted word splits a run",
			text:     "Mary Ann The Hospital Board Member",
			expected: []string{"Mary Ann", "Board Member"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entities, err := p.Recognize(tt.text)
			if err != nil {
				t.Fatalf("Recognize() error = %v", err)
			}
			if len(entities) != len(tt.expected) {
				t.Fatalf("got %d entities %+v, want %d", len(entities), entities, len(tt.expected))
			}
			for i, e := range entities {
				if e.Text != tt.expected[i] {
					t.Errorf("entity %d text = %q, want %q", i, e.Text, tt.expected[i])
				}
				if tt.text[e.Start:e.End] != e.Text {
					t.Errorf("entity %d offsets [%d,%d) do not address %q", i, e.Start, e.End, e.Text)
				}
				if e.Type != TypePerson {
					t.Errorf("entity %d type = %q, want %q", i, e.Type, TypePerson)
				}
				if err := e.Validate(tt.text); err != nil {
					t.Errorf("entity %d invalid: %v", i, err)
				}
			}
		})
	}
}

func TestPattern_DenylistedWordNeverReplaced(t *testing.T) {
	p := NewPattern(PatternConfig{MinWords: 1})

	entities, err := p.Recognize("December Alice")
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if len(entities) != 1 || entities[0].Text != "Alice" {
		t.Fatalf("expected only Alice, got %+v", entities)
	}
}

func TestPattern_Config(t *testing.T) {
	p := NewPattern(PatternConfig{Type: "NAME", ExtraDenylist: []string{"Acme"}})

	if got := p.EntityTypes(); len(got) != 1 || got[0] != "NAME" {
		t.Errorf("EntityTypes() = %v, want [NAME]", got)
	}
	if p.Name() != "pattern" {
		t.Errorf("Name() = %q, want pattern", p.Name())
	}
	if !p.Denied("Acme") {
		t.Error("expected Acme to be denied")
	}

	entities, _ := p.Recognize("Acme Corp Widget")
	if len(entities) != 1 || entities[0].Text != "Corp Widget" {
		t.Errorf("expected [Corp Widget], got %+v", entities)
	}
}

func TestPattern_UnicodeOffsets(t *testing.T) {
	p := NewPattern(PatternConfig{})
	text := "Grüße an Jürgen Müller."

	entities, err := p.Recognize(text)
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if len(entities) != 1 {
		t.Fatalf("expected 1 entity, got %+v", entities)
	}
	if got := text[entities[0].Start:entities[0].End]; got != "Jürgen Müller" {
		t.Errorf("span = %q, want %q", got, "Jürgen Müller")
	}
}
