package anonymize

import "errors"

var (
	// ErrInvalidPayload is returned when structured input is not a JSON
	// object tree.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrSpanContract is returned when a recognizer yields spans that are
	// out of bounds or overlap.
	ErrSpanContract = errors.New("recognizer span contract violated")

	// ErrNoRecognizer is returned by New when no recognizer is configured.
	ErrNoRecognizer = errors.New("no recognizer configured")
)
