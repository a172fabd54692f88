package recognizer

import (
	"errors"
	"fmt"
	"log/slog"
)

// Mode names the recognition strategy that ended up serving requests.
type Mode string

const (
	// ModeModel means the statistical model backend is active.
	ModeModel Mode = "model"

	// ModePattern means only the pattern matcher is active.
	ModePattern Mode = "pattern"
)

// Loader constructs the primary (model) recognizer.
type Loader func() (Recognizer, error)

// Select picks the recognizer used by the engine.
//
// When load succeeds the model recognizer is returned. When it fails the
// pattern recognizer is returned instead, unless requireModel is set, in
// which case the load error is returned. A nil loader selects the pattern
// recognizer directly.
func Select(load Loader, requireModel bool, fallback *Pattern) (Recognizer, Mode, error) {
	if fallback == nil {
		fallback = NewPattern(PatternConfig{})
	}
	if load == nil {
		if requireModel {
			return nil, "", errors.New("model recognizer required but no model configured")
		}
		return fallback, ModePattern, nil
	}

	primary, err := load()
	if err != nil {
		if requireModel {
			return nil, "", fmt.Errorf("load model recognizer: %w", err)
		}
		slog.Warn("model recognizer unavailable, using pattern recognizer",
			"error", err,
		)
		return fallback, ModePattern, nil
	}
	return primary, ModeModel, nil
}
