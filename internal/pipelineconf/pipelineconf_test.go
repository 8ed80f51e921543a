package pipelineconf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Valid(t *testing.T) {
	t.Parallel()

	text := `env:
  GO_VERSION: "1.25"
steps:
  - label: ":go: test"
    command: go test ./...
  - wait
  - block: ":rocket: Release"
  - trigger: deploy
  - command: make lint
`
	p, err := Parse(text)
	require.NoError(t, err)

	assert.Equal(t, "1.25", p.Env["GO_VERSION"])
	require.Len(t, p.Steps, 5)
	assert.Equal(t, Step{Kind: KindCommand, Label: ":go: test", Line: 4}, p.Steps[0])
	assert.Equal(t, KindWait, p.Steps[1].Kind)
	assert.Equal(t, KindBlock, p.Steps[2].Kind)
	assert.Equal(t, ":rocket: Release", p.Steps[2].Label)
	assert.Equal(t, KindTrigger, p.Steps[3].Kind)
	assert.Equal(t, "make lint", p.Steps[4].Label)
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
	}{
		{"malformed yaml", "steps: [\n"},
		{"empty document", ""},
		{"scalar root", "just a string"},
		{"no steps key", "env:\n  A: b\n"},
		{"steps not a list", "steps: nope\n"},
		{"empty steps", "steps: []\n"},
		{"bad scalar step", "steps:\n  - deploy\n"},
		{"nested list step", "steps:\n  - [a, b]\n"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Error(t, Validate(tc.text))
		})
	}
}

func TestValidate_NoStepsSentinel(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.Is(Validate("steps: []\n"), ErrNoSteps))
	assert.True(t, errors.Is(Validate(""), ErrNoSteps))
}

func TestValidate_StepErrorPointsAtLine(t *testing.T) {
	t.Parallel()

	err := Validate("steps:\n  - command: make\n  - deploy\n")

	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 1, se.Index)
	assert.Equal(t, 3, se.Line)
	assert.Contains(t, se.Error(), "step 2 (line 3)")
}
