package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestStatusBarFitsWidth(t *testing.T) {
	status := strings.Repeat("Loading builds for a-very-long-pipeline ", 4)
	out := RenderStatusBar(status, "q:quit", false, 40)
	if w := lipgloss.Width(out); w != 40 {
		t.Errorf("width = %d, want 40", w)
	}
	if !strings.Contains(out, "q:quit") {
		t.Errorf("hints dropped: %q", out)
	}
	if !strings.Contains(out, "…") {
		t.Errorf("long status should be truncated: %q", out)
	}
}

func TestStatusBarWatchingBadge(t *testing.T) {
	idle := RenderStatusBar("ok", "", false, 30)
	live := RenderStatusBar("ok", "", true, 30)
	if strings.Contains(idle, "●") {
		t.Error("idle bar should not show the badge")
	}
	if !strings.Contains(live, "●") {
		t.Error("watching bar should show the badge")
	}
}
