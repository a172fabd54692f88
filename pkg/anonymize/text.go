package anonymize

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"anymouse-hq/anymouse/pkg/recognizer"
)

// AnonymizeText replaces every recognized entity in text with a placeholder.
// When the primary recognizer fails, the call is served by the pattern
// fallback and Fields reports the fallback's types.
func (e *Engine) AnonymizeText(text string) (*Result, error) {
	start := time.Now()
	res, err := e.anonymizeText(text)
	e.observer.ObserveOperation("anonymize", ShapeText, statusOf(err), time.Since(start))
	return res, err
}

func (e *Engine) anonymizeText(text string) (*Result, error) {
	if e.ContainsPlaceholder(text) {
		e.logger.Warn("input already contains placeholder-shaped text", "shape", ShapeText)
		e.observer.ObserveCollision(ShapeText)
	}

	rec := recognizer.Recognizer(e.recognizer)
	entities, err := rec.Recognize(text)
	if err != nil {
		e.logger.Warn("recognizer failed, using pattern fallback",
			"recognizer", rec.Name(),
			"error", err,
		)
		e.observer.ObserveFallback("runtime_error")
		rec = e.fallback
		if entities, err = rec.Recognize(text); err != nil {
			return nil, fmt.Errorf("fallback recognizer: %w", err)
		}
	}

	spans, err := orderSpans(text, entities)
	if err != nil {
		return nil, err
	}

	alloc := newAllocator()
	counts := make(map[string]int)
	var b strings.Builder
	b.Grow(len(text))
	cursor := 0
	for _, ent := range spans {
		b.WriteString(text[cursor:ent.Start])
		b.WriteString(alloc.allocate(e.Prefix(ent.Type), text[ent.Start:ent.End]))
		cursor = ent.End
		counts[ent.Type]++
	}
	b.WriteString(text[cursor:])

	for typ, n := range counts {
		e.observer.ObserveEntities(typ, n)
	}
	return &Result{
		Message: b.String(),
		Tokens:  alloc.tokens,
		Fields:  advertised(rec),
	}, nil
}

// orderSpans stable-sorts entities by start offset and enforces the span
// contract: every span in bounds, none overlapping.
func orderSpans(text string, entities []recognizer.Entity) ([]recognizer.Entity, error) {
	spans := make([]recognizer.Entity, len(entities))
	copy(spans, entities)
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })

	prevEnd := 0
	for i, ent := range spans {
		if err := ent.Validate(text); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSpanContract, err)
		}
		if i > 0 && ent.Start < prevEnd {
			return nil, fmt.Errorf("%w: span [%d,%d) overlaps previous span ending at %d",
				ErrSpanContract, ent.Start, ent.End, prevEnd)
		}
		prevEnd = ent.End
	}
	return spans, nil
}
