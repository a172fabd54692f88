package anonymize

import (
	"fmt"
	"time"
)

// AnonymizeJSON parses data as a JSON object and redacts the given field
// paths. See AnonymizeStructured.
func (e *Engine) AnonymizeJSON(data []byte, fieldPaths []string) (*Result, error) {
	payload, err := ParseObject(data)
	if err != nil {
		e.observer.ObserveOperation("anonymize", ShapeStructured, "error", 0)
		return nil, err
	}
	return e.AnonymizeStructured(payload, fieldPaths)
}

// AnonymizeStructured replaces the value at each matching dotted field path
// with a placeholder. Values of any type are replaced; non-string values are
// recorded in the token map as their JSON text. payload is not modified.
//
// The token map holds strings only, so the original type of a non-string
// value is not kept: DeanonymizeStructured restores {"age":42} as
// {"age":"42"}. Callers that need typed values back decode the restored
// string themselves.
func (e *Engine) AnonymizeStructured(payload *Object, fieldPaths []string) (*Result, error) {
	start := time.Now()
	res, err := e.anonymizeStructured(payload, fieldPaths)
	e.observer.ObserveOperation("anonymize", ShapeStructured, statusOf(err), time.Since(start))
	return res, err
}

func (e *Engine) anonymizeStructured(payload *Object, fieldPaths []string) (*Result, error) {
	if payload == nil {
		return nil, fmt.Errorf("%w: payload is nil", ErrInvalidPayload)
	}
	targets := make(map[string]struct{}, len(fieldPaths))
	for _, p := range fieldPaths {
		targets[p] = struct{}{}
	}

	w := &walker{engine: e, targets: targets, alloc: newAllocator()}
	redacted, err := w.object(payload, "")
	if err != nil {
		return nil, err
	}
	msg, err := encodeValue(redacted)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if n := len(w.alloc.tokens); n > 0 {
		e.observer.ObserveEntities("FIELD", n)
	}
	fields := make([]string, len(fieldPaths))
	copy(fields, fieldPaths)
	return &Result{Message: msg, Tokens: w.alloc.tokens, Fields: fields}, nil
}

type walker struct {
	engine    *Engine
	targets   map[string]struct{}
	alloc     *allocator
	collision bool
}

// object returns a redacted copy of src. Keys are visited in order, so
// placeholder numbering follows document order.
func (w *walker) object(src *Object, parent string) (*Object, error) {
	out := &Object{keys: make([]string, 0, len(src.keys)), values: make(map[string]any, len(src.keys))}
	for _, key := range src.keys {
		v := src.values[key]
		path := key
		if parent != "" {
			path = parent + "." + key
		}

		if _, ok := w.targets[path]; ok {
			original, err := leafText(v)
			if err != nil {
				return nil, fmt.Errorf("%w: field %s: %v", ErrInvalidPayload, path, err)
			}
			if !w.collision && w.engine.ContainsPlaceholder(original) {
				w.collision = true
				w.engine.logger.Warn("input already contains placeholder-shaped text", "shape", ShapeStructured)
				w.engine.observer.ObserveCollision(ShapeStructured)
			}
			out.Set(key, w.alloc.allocate(w.engine.structuredPrefix, original))
			continue
		}

		if child, ok := v.(*Object); ok && child != nil {
			redacted, err := w.object(child, path)
			if err != nil {
				return nil, err
			}
			out.Set(key, redacted)
			continue
		}
		out.Set(key, cloneValue(v))
	}
	return out, nil
}

// leafText returns the value to record in the token map: strings verbatim,
// everything else as compact JSON.
func leafText(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return encodeValue(v)
}
