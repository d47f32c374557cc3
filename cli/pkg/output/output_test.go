package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/leadbridge/marketplace/cli/pkg/config"
)

func captureOutput(t *testing.T, format string) *bytes.Buffer {
	t.Helper()
	color.NoColor = true
	config.Set("output.format", format)

	var buf bytes.Buffer
	prev := Out
	Out = &buf
	t.Cleanup(func() {
		Out = prev
		config.Set("output.format", "text")
	})
	return &buf
}

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		format  string
		isValid bool
	}{
		{"json", true},
		{"text", true},
		{"table", true},
		{"invalid", false},
	}

	for _, tt := range tests {
		if got := ValidateOutputFormat(tt.format); got != tt.isValid {
			t.Errorf("ValidateOutputFormat(%s): got %v, want %v", tt.format, got, tt.isValid)
		}
	}
}

func TestPrintRecord_TextSortsKeys(t *testing.T) {
	buf := captureOutput(t, "text")

	if err := PrintRecord("Lead", map[string]interface{}{"views": 3, "id": "lead-1"}); err != nil {
		t.Fatalf("PrintRecord failed: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "Lead:\n") {
		t.Errorf("Missing title: %q", out)
	}
	if strings.Index(out, "id: lead-1") > strings.Index(out, "views: 3") {
		t.Errorf("Keys should be sorted: %q", out)
	}
}

func TestPrintRecord_JSON(t *testing.T) {
	buf := captureOutput(t, "json")

	if err := PrintRecord("ignored", map[string]interface{}{"reported": 2}); err != nil {
		t.Fatalf("PrintRecord failed: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "{\n  \"reported\": 2\n}" {
		t.Errorf("Unexpected JSON output: %q", got)
	}
}

func TestPrintTable(t *testing.T) {
	buf := captureOutput(t, "table")

	if err := PrintTable([]string{"ID", "Views"}, [][]string{{"lead-1", "4"}, {"lead-2", "10"}}); err != nil {
		t.Fatalf("PrintTable failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header and two rows, got %d lines: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[1], "lead-1") || !strings.Contains(lines[1], "4") {
		t.Errorf("Unexpected row: %q", lines[1])
	}
}

func TestPrintTable_JSONMode(t *testing.T) {
	buf := captureOutput(t, "json")

	if err := PrintTable([]string{"ID"}, [][]string{{"lead-1"}}); err != nil {
		t.Fatalf("PrintTable failed: %v", err)
	}
	if !strings.Contains(buf.String(), "\"ID\": \"lead-1\"") {
		t.Errorf("Expected JSON records: %q", buf.String())
	}
}

func TestFormatAsJSON(t *testing.T) {
	got, err := FormatAsJSON(map[string]int{"a": 1})
	if err != nil {
		t.Fatalf("FormatAsJSON failed: %v", err)
	}
	if got != `{"a":1}` {
		t.Errorf("Unexpected JSON: %s", got)
	}
}
