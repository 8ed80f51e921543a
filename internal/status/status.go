// Package status normalizes Buildkite build and job states into a closed set
// of canonical values and classifies them for display.
package status

import (
	"strings"

	"github.com/phuslu/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Status is a canonical build or job state.
type Status string

const (
	Passed        Status = "PASSED"
	Failed        Status = "FAILED"
	Failing       Status = "FAILING"
	Canceled      Status = "CANCELED"
	Canceling     Status = "CANCELING"
	Running       Status = "RUNNING"
	Scheduled     Status = "SCHEDULED"
	Creating      Status = "CREATING"
	Skipped       Status = "SKIPPED"
	NotRun        Status = "NOT_RUN"
	Wait          Status = "WAIT"
	Waiter        Status = "WAITER"
	Waiting       Status = "WAITING"
	WaitingFailed Status = "WAITING_FAILED"
	Blocked       Status = "BLOCKED"
	Unblocked     Status = "UNBLOCKED"
	Paused        Status = "PAUSED"
	Continue      Status = "CONTINUE"
	Accepted      Status = "ACCEPTED"
	Assigned      Status = "ASSIGNED"
	Limited       Status = "LIMITED"
	Limiting      Status = "LIMITING"
	TimingOut     Status = "TIMING_OUT"
	Undetermined  Status = "Undetermined"
)

// All lists every canonical status, Undetermined last.
var All = []Status{
	Passed, Failed, Failing, Canceled, Canceling, Running, Scheduled,
	Creating, Skipped, NotRun, Wait, Waiter, Waiting, WaitingFailed,
	Blocked, Unblocked, Paused, Continue, Accepted, Assigned, Limited,
	Limiting, TimingOut, Undetermined,
}

// upstream maps lower-case Buildkite tokens to canonical values.
var upstream = map[string]Status{
	"passed":           Passed,
	"failed":           Failed,
	"broken":           Failed,
	"blocked_failed":   Failed,
	"unblocked_failed": Failed,
	"failing":          Failing,
	"canceled":         Canceled,
	"cancelled":        Canceled,
	"canceling":        Canceling,
	"cancelling":       Canceling,
	"running":          Running,
	"scheduled":        Scheduled,
	"creating":         Creating,
	"skipped":          Skipped,
	"not_run":          NotRun,
	"wait":             Wait,
	"waiter":           Waiter,
	"waiting":          Waiting,
	"waiting_failed":   WaitingFailed,
	"blocked":          Blocked,
	"unblocked":        Unblocked,
	"paused":           Paused,
	"continue":         Continue,
	"accepted":         Accepted,
	"assigned":         Assigned,
	"limited":          Limited,
	"limiting":         Limiting,
	"timing_out":       TimingOut,
	"timed_out":        TimingOut,
}

// Map returns the canonical status for an upstream state string. Matching is
// case-insensitive. Unknown and empty input yield Undetermined.
func Map(raw string) Status {
	if s, ok := upstream[strings.ToLower(raw)]; ok {
		return s
	}
	log.Warn().Str("status", raw).Msg("unrecognized buildkite status")
	return Undetermined
}

var (
	successSet    = set(Passed)
	failureSet    = set(Failed, Failing, Canceled, Canceling, TimingOut)
	inProgressSet = set(Running, Creating, Scheduled, Waiting, Assigned)
	clickableSet  = set(Passed, Failed, Canceled)
)

func set(ss ...Status) map[Status]struct{} {
	m := make(map[Status]struct{}, len(ss))
	for _, s := range ss {
		m[s] = struct{}{}
	}
	return m
}

func in(m map[Status]struct{}, s Status) bool {
	_, ok := m[s]
	return ok
}

// IsSuccess reports whether s finished successfully.
func IsSuccess(s Status) bool { return in(successSet, s) }

// IsFailure reports whether s failed or was canceled.
func IsFailure(s Status) bool { return in(failureSet, s) }

// IsInProgress reports whether s is still executing or about to.
func IsInProgress(s Status) bool { return in(inProgressSet, s) }

// IsClickable reports whether logs can be fetched for a job in state s.
func IsClickable(s Status) bool { return in(clickableSet, s) }

// Colors is a main/subtle hex color pair used for status chips.
type Colors struct {
	Main   string
	Subtle string
}

var (
	successColors    = Colors{Main: "#2E7D32", Subtle: "#E8F5E9"}
	failureColors    = Colors{Main: "#D32F2F", Subtle: "#FFEBEE"}
	inProgressColors = Colors{Main: "#FF8F00", Subtle: "#FFF8E1"}
	defaultColors    = Colors{Main: "#757575", Subtle: "#FFFFFF"}
)

// ColorsFor returns the color pair for s. Rules are checked in order:
// success, failure, in-progress, then the neutral default.
func ColorsFor(s Status) Colors {
	switch {
	case IsSuccess(s):
		return successColors
	case IsFailure(s):
		return failureColors
	case IsInProgress(s):
		return inProgressColors
	default:
		return defaultColors
	}
}

var titler = cases.Title(language.English)

// Label returns a human-readable form, e.g. "Timing Out".
func (s Status) Label() string {
	if s == "" {
		return string(Undetermined)
	}
	return titler.String(strings.ReplaceAll(string(s), "_", " "))
}

// Icon returns a single-glyph chip for s.
func (s Status) Icon() string {
	switch {
	case IsSuccess(s):
		return "✓"
	case s == Canceled || s == Canceling:
		return "⊘"
	case IsFailure(s):
		return "✗"
	case s == Running:
		return "●"
	case IsInProgress(s):
		return "○"
	case s == Blocked || s == Paused:
		return "⏸"
	case s == Skipped || s == NotRun:
		return "-"
	default:
		return "?"
	}
}
