package anonymize

import "time"

// DeanonymizeText substitutes every known placeholder found in tokens with
// its original value. Placeholders absent from tokens are left verbatim, and
// restored values are never rescanned.
func (e *Engine) DeanonymizeText(message string, tokens TokenMap) string {
	start := time.Now()
	out := e.restore(message, tokens)
	e.observer.ObserveOperation("deanonymize", ShapeText, "success", time.Since(start))
	return out
}

// DeanonymizeStructured parses message as a JSON object, restores
// placeholders in the string values of it and its nested objects, and
// re-encodes it. When message is empty, tokens is empty, or message is not a
// JSON object, message is returned unchanged.
//
// Restored values are always JSON strings. A field that held a number, bool,
// null, list or object before AnonymizeStructured comes back as a string
// holding that value's JSON text.
func (e *Engine) DeanonymizeStructured(message string, tokens TokenMap) string {
	start := time.Now()
	out, status := e.deanonymizeStructured(message, tokens)
	e.observer.ObserveOperation("deanonymize", ShapeStructured, status, time.Since(start))
	return out
}

func (e *Engine) deanonymizeStructured(message string, tokens TokenMap) (string, string) {
	if message == "" || len(tokens) == 0 {
		return message, "passthrough"
	}
	obj, err := ParseObject([]byte(message))
	if err != nil {
		return message, "passthrough"
	}
	e.restoreObject(obj, tokens)
	out, err := encodeValue(obj)
	if err != nil {
		return message, "passthrough"
	}
	return out, "success"
}

// restoreObject rewrites string values in place. Arrays are not visited.
func (e *Engine) restoreObject(obj *Object, tokens TokenMap) {
	for _, k := range obj.keys {
		switch v := obj.values[k].(type) {
		case string:
			obj.values[k] = e.restore(v, tokens)
		case *Object:
			if v != nil {
				e.restoreObject(v, tokens)
			}
		}
	}
}

func (e *Engine) restore(s string, tokens TokenMap) string {
	if s == "" || len(tokens) == 0 {
		return s
	}
	return e.placeholders.ReplaceAllStringFunc(s, func(ph string) string {
		if original, ok := tokens[ph]; ok {
			return original
		}
		return ph
	})
}
