package recognizer

import (
	"errors"
	"testing"
)

type stubRecognizer struct{}

func (stubRecognizer) Recognize(text string) ([]Entity, error) { return nil, nil }
func (stubRecognizer) EntityTypes() []string { return DefaultEntityTypes }
func (stubRecognizer) Name() string { return "stub" }

func TestSelect_ModelLoaded(t *testing.T) {
	r, mode, err := Select(func() (Recognizer, error) { return stubRecognizer{}, nil }, true, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mode != ModeModel || r.Name() != "stub" {
		t.Fatalf("expected model mode with stub, got mode=%s name=%s", mode, r.Name())
	}
}

func TestSelect_FallsBackToPattern(t *testing.T) {
	r, mode, err := Select(func() (Recognizer, error) { return nil, errors.New("boom") }, false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mode != ModePattern || r.Name() != "pattern" {
		t.Fatalf("expected pattern fallback, got mode=%s name=%s", mode, r.Name())
	}
}

func TestSelect_RequireModelFails(t *testing.T) {
	if _, _, err := Select(func() (Recognizer, error) { return nil, errors.New("boom") }, true, nil); err == nil {
		t.Fatal("expected error when model is required and fails to load")
	}
	if _, _, err := Select(nil, true, nil); err == nil {
		t.Fatal("expected error when model is required and none is configured")
	}
}

func TestSelect_NilLoaderUsesGivenPattern(t *testing.T) {
	p := NewPattern(PatternConfig{Type: "NAME"})
	r, mode, err := Select(nil, false, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mode != ModePattern || r != Recognizer(p) {
		t.Fatalf("expected the supplied pattern recognizer, got %v (%s)", r, mode)
	}
}
