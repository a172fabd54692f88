package fieldconfig

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]any
		want    []string
		wantErr bool
	}{
		{name: "valid", raw: map[string]any{"fields": []any{"patient_name", "appointment.doctor"}}, want: []string{"patient_name", "appointment.doctor"}},
		{name: "missing fields", raw: map[string]any{}, want: []string{}},
		{name: "unknown keys ignored", raw: map[string]any{"fields": []any{}, "other": 1}, want: []string{}},
		{name: "not a list", raw: map[string]any{"fields": "not-a-list"}, wantErr: true},
		{name: "non-string item", raw: map[string]any{"fields": []any{"patient_name", 123.0}}, wantErr: true},
		{name: "null", raw: map[string]any{"fields": nil}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Fatalf("Validate() error = %v, want ErrInvalidConfig", err)
				}
				if !strings.Contains(err.Error(), "Fields must be a list of strings") {
					t.Errorf("error message = %q", err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if !reflect.DeepEqual(got.Fields, tt.want) {
				t.Errorf("Fields = %#v, want %#v", got.Fields, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    []string
		wantErr bool
	}{
		{name: "json", data: `{"fields": ["a", "b.c"]}`, want: []string{"a", "b.c"}},
		{name: "yaml", data: "fields:\n  - a\n  - b.c\n", want: []string{"a", "b.c"}},
		{name: "empty document", data: "  \n", want: []string{}},
		{name: "yaml without fields", data: "version: 1\n", want: []string{}},
		{name: "yaml number item", data: "fields: [a, 3]\n", wantErr: true},
		{name: "malformed json", data: `{"fields": [`, wantErr: true},
		{name: "top-level list", data: "- a\n- b\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got.Fields, tt.want) {
				t.Errorf("Fields = %#v, want %#v", got.Fields, tt.want)
			}
		})
	}
}

func TestInlineSource(t *testing.T) {
	fields := []string{"a", "b"}
	src := NewInlineSource(fields)
	fields[0] = "mutated"

	got, err := src.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Fields, []string{"a", "b"}) {
		t.Errorf("Load() = %v", got.Fields)
	}
	got.Fields[1] = "changed"
	again, _ := src.Load(context.Background())
	if again.Fields[1] != "b" {
		t.Error("Load() must return a copy")
	}
	if src.Name() != "inline" {
		t.Errorf("Name() = %q", src.Name())
	}
}
