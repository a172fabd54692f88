package anonymize

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParseObjectKeepsOrderAndNumbers(t *testing.T) {
	input := `{"b":1.0,"a":{"z":true,"y":null},"c":[1e3,"x"],"big":12345678901234567890}`
	obj, err := ParseObject([]byte(input))
	if err != nil {
		t.Fatalf("ParseObject() error = %v", err)
	}
	if want := []string{"b", "a", "c", "big"}; !reflect.DeepEqual(obj.Keys(), want) {
		t.Errorf("Keys() = %v, want %v", obj.Keys(), want)
	}
	out, err := obj.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(out) != input {
		t.Errorf("MarshalJSON() = %s, want %s", out, input)
	}
}

func TestMarshalJSONCompactsAndDoesNotEscapeHTML(t *testing.T) {
	obj, err := ParseObject([]byte("{ \"k\" : \"<a href='x'>&</a>\",\n \"e\": \"\\u00e9\" }"))
	if err != nil {
		t.Fatal(err)
	}
	out, _ := obj.MarshalJSON()
	if want := `{"k":"<a href='x'>&</a>","e":"é"}`; string(out) != want {
		t.Errorf("MarshalJSON() = %s, want %s", out, want)
	}
}

func TestObjectSetKeepsFirstPosition(t *testing.T) {
	obj := NewObject()
	obj.Set("x", "1")
	obj.Set("y", "2")
	obj.Set("x", "3")
	if want := []string{"x", "y"}; !reflect.DeepEqual(obj.Keys(), want) {
		t.Errorf("Keys() = %v, want %v", obj.Keys(), want)
	}
	if v, _ := obj.Get("x"); v != "3" {
		t.Errorf("Get(x) = %v, want 3", v)
	}
}

func TestObjectCloneIsDeep(t *testing.T) {
	obj, _ := ParseObject([]byte(`{"a":{"b":"c"},"l":[{"m":"n"}]}`))
	clone := obj.Clone()

	inner, _ := clone.Get("a")
	inner.(*Object).Set("b", "changed")
	list, _ := clone.Get("l")
	list.([]any)[0].(*Object).Set("m", "changed")

	out, _ := obj.MarshalJSON()
	if want := `{"a":{"b":"c"},"l":[{"m":"n"}]}`; string(out) != want {
		t.Errorf("original changed through clone: %s", out)
	}
}

func TestObjectFromMap(t *testing.T) {
	obj := ObjectFromMap(map[string]any{
		"b": "two",
		"a": map[string]any{"y": 1, "x": []any{map[string]any{"k": "v"}}},
	})
	out, err := obj.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"a":{"x":[{"k":"v"}],"y":1},"b":"two"}`; string(out) != want {
		t.Errorf("MarshalJSON() = %s, want %s", out, want)
	}
}

func TestObjectJSONInterfaces(t *testing.T) {
	var holder struct {
		Payload *Object `json:"payload"`
	}
	if err := json.Unmarshal([]byte(`{"payload":{"q":"1","p":"2"}}`), &holder); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if want := []string{"q", "p"}; !reflect.DeepEqual(holder.Payload.Keys(), want) {
		t.Errorf("Keys() = %v, want %v", holder.Payload.Keys(), want)
	}
	out, err := json.Marshal(holder)
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"payload":{"q":"1","p":"2"}}`; string(out) != want {
		t.Errorf("json.Marshal() = %s, want %s", out, want)
	}
}

func TestIsCanonicalObject(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    bool
	}{
		{name: "compact", message: `{"a":"[name1]","b":{"c":1.50}}`, want: true},
		{name: "empty object", message: `{}`, want: true},
		{name: "spaced", message: `{"note": "[name1]"}`, want: false},
		{name: "trailing newline", message: "{\"a\":\"x\"}\n", want: false},
		{name: "escaped unicode", message: `{"a":"\u00e9"}`, want: false},
		{name: "literal unicode", message: `{"a":"é"}`, want: true},
		{name: "array", message: `["a"]`, want: false},
		{name: "text", message: `hello [name1]`, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCanonicalObject(tt.message); got != tt.want {
				t.Errorf("IsCanonicalObject(%q) = %v, want %v", tt.message, got, tt.want)
			}
		})
	}
}
