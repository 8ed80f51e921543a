// Package logs cleans raw Buildkite job output and classifies each line for
// presentation.
package logs

import (
	"regexp"
	"strings"
	"unicode"
)

// Type is the presentation category of a processed line.
type Type string

const (
	TypeCommand Type = "command"
	TypeOutput  Type = "output"
	TypeInfo    Type = "info"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
	TypeSuccess Type = "success"
)

func (t Type) String() string { return string(t) }

// Line is one cleaned, classified log line. Content is never blank.
type Line struct {
	Content   string `json:"content"`
	Type      Type   `json:"type"`
	Timestamp string `json:"timestamp,omitempty"`
}

// timestampMarker matches the agent's inline marker, with or without the
// APC framing (ESC _ ... BEL) it is usually wrapped in.
var timestampMarker = regexp.MustCompile(`\x1b?_bk;t=\d+\x07?`)

// ansiPattern is one entry of the escape stripping table.
type ansiPattern struct {
	name string
	re   *regexp.Regexp
}

// ansiPatterns covers the control sequences seen in Buildkite output. It is
// not the full ANSI grammar; append entries here when new output shows up.
// Order matters: specific forms run before the general CSI catch-all.
var ansiPatterns = []ansiPattern{
	{"cursor", regexp.MustCompile(`\x1b\[\d*(?:;\d*)?[ABCDEFGHJKST]`)},
	{"sgr", regexp.MustCompile(`\x1b\[[0-9;]*m`)},
	{"visibility", regexp.MustCompile(`\x1b\[\?25[hl]`)},
	{"osc", regexp.MustCompile(`\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)`)},
	{"csi", regexp.MustCompile(`\x1b\[[0-?]*[ -/]*[@-~]`)},
}

// absoluteTimestamp matches an embedded "YYYY-MM-DD HH:MM:SS", optionally
// bracketed.
var absoluteTimestamp = regexp.MustCompile(`\[?(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\]?`)

const (
	promptMarker  = "$ "
	sectionMarker = "~~~ "
)

var (
	warningGlyphs = []string{"⚠️", "⚠"}
	successGlyphs = []string{"✓", "✔", "✅"}
)

// StripANSI removes the control sequences in ansiPatterns and trims the
// result. It is a no-op on text that is already clean and trimmed.
func StripANSI(s string) string {
	for _, p := range ansiPatterns {
		s = p.re.ReplaceAllString(s, "")
	}
	return strings.TrimSpace(s)
}

// Process cleans and classifies raw lines in order. Lines that are blank
// after cleaning produce no output.
func Process(raw []string) []Line {
	out := make([]Line, 0, len(raw))
	for _, r := range raw {
		if l, ok := processLine(r); ok {
			out = append(out, l)
		}
	}
	return out
}

// ProcessContent splits a job log payload into lines and processes them.
func ProcessContent(content string) []Line {
	return Process(SplitLines(content))
}

// SplitLines splits log content on LF, CRLF or bare CR. A trailing newline
// does not produce an extra empty line.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.TrimSuffix(content, "\n")
	return strings.Split(content, "\n")
}

func processLine(raw string) (Line, bool) {
	s := strings.TrimSpace(timestampMarker.ReplaceAllString(raw, ""))
	s = StripANSI(s)
	if s == "" {
		return Line{}, false
	}

	var ts string
	if m := absoluteTimestamp.FindStringSubmatchIndex(s); m != nil {
		ts = s[m[2]:m[3]]
		s = strings.TrimSpace(s[:m[0]] + s[m[1]:])
	}

	s = strings.TrimPrefix(s, promptMarker)
	s = strings.TrimPrefix(s, sectionMarker)
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	if strings.TrimSpace(s) == "" {
		return Line{}, false
	}

	typ, content := classify(raw, s)
	content = strings.TrimSpace(content)
	if content == "" {
		return Line{}, false
	}
	return Line{Content: content, Type: typ, Timestamp: ts}, true
}

// rule is one step of the classification precedence. apply may rewrite the
// content it emits.
type rule struct {
	typ   Type
	match func(raw, content string) bool
	apply func(content string) string
}

// rules are checked top to bottom; the first match wins.
var rules = []rule{
	{
		typ:   TypeCommand,
		match: func(raw, _ string) bool { return strings.Contains(raw, "$") },
	},
	{
		typ: TypeWarning,
		match: func(_, c string) bool {
			return strings.Contains(c, "Warning:") || containsAny(c, warningGlyphs)
		},
		apply: func(c string) string {
			for _, g := range warningGlyphs {
				c = strings.ReplaceAll(c, g, "")
			}
			return c
		},
	},
	{
		typ:   TypeError,
		match: func(_, c string) bool { return strings.Contains(strings.ToLower(c), "error") },
	},
	{
		typ: TypeSuccess,
		match: func(_, c string) bool {
			return containsAny(c, successGlyphs) ||
				strings.Contains(c, "Successfully") ||
				strings.Contains(c, "Removed")
		},
	},
	{
		typ: TypeInfo,
		match: func(raw, c string) bool {
			return strings.Contains(raw, "~~~") ||
				strings.HasPrefix(c, "Running") ||
				strings.Contains(c, "Cleaning up")
		},
	},
}

// Classify returns the type for a cleaned line given the raw line it came
// from.
func Classify(raw, content string) Type {
	t, _ := classify(raw, content)
	return t
}

func classify(raw, content string) (Type, string) {
	for _, r := range rules {
		if !r.match(raw, content) {
			continue
		}
		if r.apply != nil {
			content = r.apply(content)
		}
		return r.typ, content
	}
	return TypeOutput, content
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
