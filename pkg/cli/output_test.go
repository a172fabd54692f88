package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

type testTable struct{}

func (testTable) Headers() []string { return []string{"action", "count"} }
func (testTable) Rows() [][]string {
	return [][]string{{"anonymize", "3"}, {"deanonymize", "1"}}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"json", FormatJSON, false},
		{"csv", FormatCSV, false},
		{"junit", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOutputFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTextFormatter(t *testing.T) {
	out, err := (&TextFormatter{}).Format("test message")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if string(out) != "test message\n" {
		t.Errorf("Format() = %q", out)
	}

	buf := &bytes.Buffer{}
	if err := (&TextFormatter{}).FormatTo(buf, testTable{}); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[1], "anonymize ") || !strings.HasSuffix(lines[1], "3") {
		t.Errorf("row = %q", lines[1])
	}
}

func TestJSONFormatter(t *testing.T) {
	data := map[string]string{"status": "success"}
	for _, indent := range []bool{false, true} {
		buf := &bytes.Buffer{}
		if err := (&JSONFormatter{Indent: indent}).FormatTo(buf, data); err != nil {
			t.Fatalf("FormatTo() error = %v", err)
		}
		var got map[string]string
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got["status"] != "success" {
			t.Errorf("got %v", got)
		}
	}
}

func TestCSVFormatter(t *testing.T) {
	out, err := (&CSVFormatter{}).Format(testTable{})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	want := "action,count\nanonymize,3\ndeanonymize,1\n"
	if string(out) != want {
		t.Errorf("Format() = %q, want %q", out, want)
	}

	if _, err := (&CSVFormatter{}).Format("not a table"); err == nil {
		t.Error("Format() of non-table error = nil")
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format OutputFormat
		want   string
	}{
		{FormatText, "*cli.TextFormatter"},
		{FormatJSON, "*cli.JSONFormatter"},
		{FormatCSV, "*cli.CSVFormatter"},
		{"unknown", "*cli.TextFormatter"},
	}
	for _, tt := range tests {
		if got := fmt.Sprintf("%T", NewFormatter(tt.format)); got != tt.want {
			t.Errorf("NewFormatter(%q) = %s, want %s", tt.format, got, tt.want)
		}
	}
}
