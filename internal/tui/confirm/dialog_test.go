package confirm

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestConfirmKeys(t *testing.T) {
	ref := BuildRef{Pipeline: "web", Number: 3}
	tests := []struct {
		name string
		keys []tea.KeyMsg
		want bool
	}{
		{"y confirms", []tea.KeyMsg{{Type: tea.KeyRunes, Runes: []rune{'y'}}}, true},
		{"n declines", []tea.KeyMsg{{Type: tea.KeyRunes, Runes: []rune{'n'}}}, false},
		{"esc declines", []tea.KeyMsg{{Type: tea.KeyEscape}}, false},
		{"enter defaults to no", []tea.KeyMsg{{Type: tea.KeyEnter}}, false},
		{"tab then enter confirms", []tea.KeyMsg{{Type: tea.KeyTab}, {Type: tea.KeyEnter}}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := New("Cancel Build", "Cancel build #3?", "cancel-build", ref)
			var cmd tea.Cmd
			for _, k := range tc.keys {
				m, cmd = m.Update(k)
			}
			if m.IsActive() {
				t.Fatal("dialog should close")
			}
			res, ok := cmd().(ResultMsg)
			if !ok {
				t.Fatalf("got %T", cmd())
			}
			if res.Confirmed != tc.want || res.Action != "cancel-build" || res.Data != ref {
				t.Errorf("result = %+v", res)
			}
		})
	}
}

func TestBuildRefString(t *testing.T) {
	ref := JobRef{BuildRef: BuildRef{Pipeline: "web", Number: 42}, JobID: "j1"}
	if got := ref.String(); got != "web #42" {
		t.Errorf("String() = %q", got)
	}
}
