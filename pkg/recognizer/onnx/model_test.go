package onnx

import (
	"errors"
	"reflect"
	"testing"

	"anymouse-hq/anymouse/pkg/recognizer"
)

func TestArgmaxLabels(t *testing.T) {
	labels := []string{"O", "B-PER", "I-PER"}
	logits := []float32{
		0.9, 0.05, 0.05,
		0.1, 0.8, 0.1,
		0.2, 0.3, 0.5,
	}
	got := argmaxLabels(logits, 3, labels)
	if want := []string{"O", "B-PER", "I-PER"}; !reflect.DeepEqual(got, want) {
		t.Errorf("argmaxLabels() = %v, want %v", got, want)
	}
}

func TestMappedTypes(t *testing.T) {
	labels := []string{"O", "B-LOC", "I-LOC", "B-PER", "I-PER", "B-MISC", "B-ORG"}
	got := mappedTypes(labels, DefaultLabelMap)
	want := []string{recognizer.TypePerson, recognizer.TypeOrganization, recognizer.TypeLocation}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("mappedTypes() = %v, want %v", got, want)
	}

	custom := map[string]string{"per": "NAME", "ORG": recognizer.TypeOrganization}
	got = mappedTypes(labels, custom)
	want = []string{recognizer.TypeOrganization, "NAME"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("mappedTypes(custom) = %v, want %v", got, want)
	}
}

func TestLoadMissingModel(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "empty dir", cfg: Config{}},
		{name: "no model file", cfg: Config{ModelDir: t.TempDir()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.cfg)
			if !errors.Is(err, recognizer.ErrUnavailable) {
				t.Errorf("Load() error = %v, want ErrUnavailable", err)
			}
		})
	}
}
