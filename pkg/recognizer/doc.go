// Package recognizer defines the entity recognition capability consumed by the
// anonymization engine.
//
// A Recognizer takes free text and returns typed, positioned entity spans.
// Two interchangeable strategies are provided:
//
//   - A statistical token-classification model (package recognizer/onnx),
//     which detects every type it was trained for.
//   - Pattern, a deterministic matcher that tags runs of capitalized words as
//     PERSON and ignores a fixed denylist of common capitalized words.
//
// The strategy is chosen once at construction time with Select and injected
// into the engine; callers must not assume the two strategies agree.
//
// # Offsets
//
// Entity offsets are byte offsets into the UTF-8 input, half-open
// ([Start, End)), so text[e.Start:e.End] == e.Text.
package recognizer
