package ui

import (
	"strings"
	"testing"

	"github.com/altinukshini/bk-tui/internal/logs"
	"github.com/altinukshini/bk-tui/internal/status"
)

func TestStatusIconContainsGlyph(t *testing.T) {
	tests := []struct {
		status status.Status
		glyph  string
	}{
		{status.Passed, "✓"},
		{status.Failed, "✗"},
		{status.Canceled, "⊘"},
		{status.Running, "●"},
		{status.Undetermined, "?"},
	}
	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			if got := StatusIcon(tc.status); !strings.Contains(got, tc.glyph) {
				t.Errorf("StatusIcon(%s) = %q, want %q", tc.status, got, tc.glyph)
			}
		})
	}
}

func TestStatusChipShowsLabel(t *testing.T) {
	if got := StatusChip(status.TimingOut); !strings.Contains(got, "Timing Out") {
		t.Errorf("StatusChip = %q", got)
	}
}

func TestLogStyleKeepsText(t *testing.T) {
	for _, typ := range []logs.Type{logs.TypeCommand, logs.TypeOutput, logs.TypeError, logs.TypeWarning, logs.TypeSuccess, logs.TypeInfo} {
		if got := LogStyle(typ).Render("hello"); !strings.Contains(got, "hello") {
			t.Errorf("LogStyle(%s) dropped text: %q", typ, got)
		}
	}
}
