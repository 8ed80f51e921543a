// Package pipelineconf parses and checks pipeline YAML before it is sent
// back to Buildkite.
package pipelineconf

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Step kinds recognized in a pipeline.
const (
	KindCommand = "command"
	KindWait    = "wait"
	KindBlock   = "block"
	KindInput   = "input"
	KindTrigger = "trigger"
	KindGroup   = "group"
	KindUnknown = "unknown"
)

// ErrNoSteps is returned when the document has no steps to run.
var ErrNoSteps = errors.New("pipeline has no steps")

// Step summarizes one top-level step.
type Step struct {
	Kind  string
	Label string
	Line  int
}

type Pipeline struct {
	Env   map[string]string
	Steps []Step
}

// StepError points at the step that failed to validate.
type StepError struct {
	Index int
	Line  int
	Msg   string
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (line %d): %s", e.Index+1, e.Line, e.Msg)
}

// Parse checks that text is a mapping with a non-empty "steps" sequence in
// which every entry is a mapping or one of the "wait"/"block" shorthands.
func Parse(text string) (*Pipeline, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("parse pipeline: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, ErrNoSteps
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: pipeline must be a mapping", root.Line)
	}

	p := &Pipeline{}
	var steps *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "steps":
			steps = val
		case "env":
			if err := val.Decode(&p.Env); err != nil {
				return nil, fmt.Errorf("line %d: env: %w", val.Line, err)
			}
		}
	}
	if steps == nil {
		return nil, ErrNoSteps
	}
	if steps.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: steps must be a list", steps.Line)
	}
	if len(steps.Content) == 0 {
		return nil, ErrNoSteps
	}

	for i, n := range steps.Content {
		step, err := parseStep(n)
		if err != nil {
			return nil, &StepError{Index: i, Line: n.Line, Msg: err.Error()}
		}
		p.Steps = append(p.Steps, step)
	}
	return p, nil
}

// Validate reports whether text is an acceptable pipeline configuration.
func Validate(text string) error {
	_, err := Parse(text)
	return err
}

func parseStep(n *yaml.Node) (Step, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		switch strings.ToLower(n.Value) {
		case KindWait, "waiter":
			return Step{Kind: KindWait, Line: n.Line}, nil
		case KindBlock:
			return Step{Kind: KindBlock, Label: "block", Line: n.Line}, nil
		}
		return Step{}, fmt.Errorf("%q is not a step; use a mapping, \"wait\" or \"block\"", n.Value)
	case yaml.MappingNode:
		var fields map[string]any
		if err := n.Decode(&fields); err != nil {
			return Step{}, err
		}
		return Step{Kind: kindOf(fields), Label: labelOf(fields), Line: n.Line}, nil
	}
	return Step{}, errors.New("step must be a mapping or a string")
}

func kindOf(fields map[string]any) string {
	for _, k := range []string{KindBlock, KindInput, KindTrigger, KindGroup, KindWait} {
		if _, ok := fields[k]; ok {
			return k
		}
	}
	for _, k := range []string{"command", "commands", "plugins"} {
		if _, ok := fields[k]; ok {
			return KindCommand
		}
	}
	if t, ok := fields["type"].(string); ok && t != "" {
		return t
	}
	return KindUnknown
}

func labelOf(fields map[string]any) string {
	for _, k := range []string{"label", "name", KindBlock, KindInput, KindTrigger, KindGroup, "key"} {
		if s, ok := fields[k].(string); ok && s != "" {
			return s
		}
	}
	if s, ok := fields["command"].(string); ok {
		return s
	}
	return ""
}
