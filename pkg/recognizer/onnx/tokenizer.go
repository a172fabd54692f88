package onnx

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// WordPieceTokenizer is a minimal BERT-compatible tokenizer that keeps byte
// offsets for every produced token.
type WordPieceTokenizer struct {
	vocab        map[string]int64
	lowerCase    bool
	clsID        int64
	sepID        int64
	padID        int64
	unkID        int64
	continuation string
}

// LoadWordPieceTokenizer builds the tokenizer from vocab.txt.
func LoadWordPieceTokenizer(path string, lowerCase bool) (*WordPieceTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	sc := bufio.NewScanner(f)
	var idx int64
	for sc.Scan() {
		token := strings.TrimSpace(sc.Text())
		if token == "" {
			continue
		}
		vocab[token] = idx
		idx++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan vocab: %w", err)
	}
	return NewWordPieceTokenizer(vocab, lowerCase), nil
}

// NewWordPieceTokenizer builds a tokenizer from an in-memory vocabulary.
func NewWordPieceTokenizer(vocab map[string]int64, lowerCase bool) *WordPieceTokenizer {
	return &WordPieceTokenizer{
		vocab:        vocab,
		lowerCase:    lowerCase,
		continuation: "##",
		clsID:        vocab["[CLS]"],
		sepID:        vocab["[SEP]"],
		padID:        vocab["[PAD]"],
		unkID:        vocab["[UNK]"],
	}
}

// tokenOffset is the byte range of one token in the source text. Special and
// padding tokens carry {-1, -1}.
type tokenOffset struct {
	Start int
	End   int
}

type wordSpan struct {
	Text  string
	Start int
	End   int
}

// window is one model input: token ids, attention mask, and offsets, all of
// length seqLen.
type window struct {
	ids     []int64
	mask    []int64
	offsets []tokenOffset
}

// Windows splits text into model inputs of seqLen tokens. Words are never
// split across windows unless a single word exceeds the window.
func (t *WordPieceTokenizer) Windows(text string, seqLen int) []window {
	if seqLen < 3 {
		return nil
	}
	words := splitWords(text)
	if len(words) == 0 {
		return nil
	}

	var (
		out     []window
		ids     = []int64{t.clsID}
		offsets = []tokenOffset{{Start: -1, End: -1}}
	)
	limit := seqLen - 1 // room for [SEP]

	flush := func() {
		out = append(out, t.pad(append(ids, t.sepID), append(offsets, tokenOffset{Start: -1, End: -1}), seqLen))
		ids = []int64{t.clsID}
		offsets = []tokenOffset{{Start: -1, End: -1}}
	}

	for _, w := range words {
		token := w.Text
		if t.lowerCase {
			// Case folding must not move byte offsets.
			if lower := strings.ToLower(token); len(lower) == len(token) {
				token = lower
			}
		}
		pieces := t.wordPieceOffsets(token)
		if len(ids)+len(pieces) > limit && len(ids) > 1 {
			flush()
		}
		for _, p := range pieces {
			if len(ids) >= limit {
				flush()
			}
			ids = append(ids, p.id)
			offsets = append(offsets, tokenOffset{Start: w.Start + p.start, End: w.Start + p.end})
		}
	}
	if len(ids) > 1 {
		flush()
	}
	return out
}

func (t *WordPieceTokenizer) pad(ids []int64, offsets []tokenOffset, seqLen int) window {
	mask := make([]int64, seqLen)
	for i := 0; i < len(ids) && i < seqLen; i++ {
		mask[i] = 1
	}
	for len(ids) < seqLen {
		ids = append(ids, t.padID)
		offsets = append(offsets, tokenOffset{Start: -1, End: -1})
	}
	return window{ids: ids, mask: mask, offsets: offsets}
}

type wordPieceOffset struct {
	id    int64
	start int
	end   int
}

func (t *WordPieceTokenizer) wordPieceOffsets(token string) []wordPieceOffset {
	if id, ok := t.vocab[token]; ok {
		return []wordPieceOffset{{id: id, start: 0, end: len(token)}}
	}

	var pieces []wordPieceOffset
	start := 0
	for start < len(token) {
		end := len(token)
		matched := false
		for end > start {
			sub := token[start:end]
			if start > 0 {
				sub = t.continuation + sub
			}
			if id, ok := t.vocab[sub]; ok {
				pieces = append(pieces, wordPieceOffset{id: id, start: start, end: end})
				start = end
				matched = true
				break
			}
			end--
		}
		if !matched {
			return []wordPieceOffset{{id: t.unkID, start: 0, end: len(token)}}
		}
	}
	return pieces
}

// splitWords splits on whitespace and emits every punctuation rune as its own
// word, matching BERT basic tokenization.
func splitWords(text string) []wordSpan {
	var spans []wordSpan
	start := -1
	closeWord := func(end int) {
		if start >= 0 {
			spans = append(spans, wordSpan{Text: text[start:end], Start: start, End: end})
			start = -1
		}
	}
	for idx, r := range text {
		switch {
		case unicode.IsSpace(r):
			closeWord(idx)
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			closeWord(idx)
			end := idx + len(string(r))
			spans = append(spans, wordSpan{Text: text[idx:end], Start: idx, End: end})
		default:
			if start < 0 {
				start = idx
			}
		}
	}
	closeWord(len(text))
	return spans
}
