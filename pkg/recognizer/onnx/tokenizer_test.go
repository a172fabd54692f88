package onnx

import (
	"reflect"
	"testing"
)

func testVocab() map[string]int64 {
	return map[string]int64{
		"[PAD]": 0, "[UNK]": 1, "[CLS]": 2, "[SEP]": 3,
		"jane": 4, "doe": 5, "works": 6, "at": 7, "acme": 8,
		"ac": 9, "##me": 10, ".": 11, "hello": 12,
	}
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []wordSpan
	}{
		{name: "empty", text: "", want: nil},
		{
			name: "spaces and punctuation",
			text: "Jane, hi.",
			want: []wordSpan{
				{Text: "Jane", Start: 0, End: 4},
				{Text: ",", Start: 4, End: 5},
				{Text: "hi", Start: 6, End: 8},
				{Text: ".", Start: 8, End: 9},
			},
		},
		{
			name: "multibyte",
			text: "Jürgen Müller",
			want: []wordSpan{
				{Text: "Jürgen", Start: 0, End: 7},
				{Text: "Müller", Start: 8, End: 15},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitWords(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitWords(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestWordPieceOffsets(t *testing.T) {
	tok := NewWordPieceTokenizer(testVocab(), true)

	got := tok.wordPieceOffsets("acme")
	if len(got) != 1 || got[0].id != 8 {
		t.Fatalf("whole-word match = %+v", got)
	}

	delete(tok.vocab, "acme")
	got = tok.wordPieceOffsets("acme")
	want := []wordPieceOffset{{id: 9, start: 0, end: 2}, {id: 10, start: 2, end: 4}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("subword split = %+v, want %+v", got, want)
	}

	got = tok.wordPieceOffsets("zzz")
	if len(got) != 1 || got[0].id != 1 || got[0].end != 3 {
		t.Errorf("unknown word = %+v, want single [UNK] covering word", got)
	}
}

func TestWindows(t *testing.T) {
	tok := NewWordPieceTokenizer(testVocab(), true)

	t.Run("single window padded", func(t *testing.T) {
		ws := tok.Windows("Jane Doe", 6)
		if len(ws) != 1 {
			t.Fatalf("got %d windows, want 1", len(ws))
		}
		w := ws[0]
		if want := []int64{2, 4, 5, 3, 0, 0}; !reflect.DeepEqual(w.ids, want) {
			t.Errorf("ids = %v, want %v", w.ids, want)
		}
		if want := []int64{1, 1, 1, 1, 0, 0}; !reflect.DeepEqual(w.mask, want) {
			t.Errorf("mask = %v, want %v", w.mask, want)
		}
		if w.offsets[1] != (tokenOffset{0, 4}) || w.offsets[2] != (tokenOffset{5, 8}) {
			t.Errorf("offsets = %v", w.offsets)
		}
		if w.offsets[0].Start != -1 || w.offsets[5].Start != -1 {
			t.Errorf("special tokens must have negative offsets: %v", w.offsets)
		}
	})

	t.Run("splits across windows", func(t *testing.T) {
		ws := tok.Windows("Jane Doe works at Acme .", 4)
		if len(ws) != 3 {
			t.Fatalf("got %d windows, want 3", len(ws))
		}
		for i, w := range ws {
			if len(w.ids) != 4 || len(w.mask) != 4 || len(w.offsets) != 4 {
				t.Errorf("window %d has wrong length", i)
			}
			if w.ids[0] != 2 {
				t.Errorf("window %d does not start with [CLS]", i)
			}
		}
	})

	t.Run("too short", func(t *testing.T) {
		if ws := tok.Windows("Jane", 2); ws != nil {
			t.Errorf("expected nil for seqLen < 3, got %d windows", len(ws))
		}
	})

	t.Run("blank text", func(t *testing.T) {
		if ws := tok.Windows("   ", 8); ws != nil {
			t.Errorf("expected nil for blank text, got %d windows", len(ws))
		}
	})
}
