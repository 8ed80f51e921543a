package status

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap_KnownTokens(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want Status
	}{
		{"passed", Passed},
		{"failed", Failed},
		{"broken", Failed},
		{"blocked_failed", Failed},
		{"unblocked_failed", Failed},
		{"running", Running},
		{"canceling", Canceling},
		{"canceled", Canceled},
		{"waiting_failed", WaitingFailed},
		{"timing_out", TimingOut},
		{"not_run", NotRun},
		{"PASSED", Passed},
		{"Running", Running},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.raw, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Map(tc.raw))
		})
	}
}

func TestMap_UnknownIsUndetermined(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "  ", "exploded", "pass", "runningx"} {
		assert.Equal(t, Undetermined, Map(raw), "raw=%q", raw)
	}
}

func TestMap_CaseInsensitive(t *testing.T) {
	t.Parallel()

	for token := range upstream {
		assert.Equal(t, Map(token), Map(strings.ToUpper(token)), "token=%q", token)
	}
}

func TestGroups_DoNotOverlap(t *testing.T) {
	t.Parallel()

	for _, s := range All {
		n := 0
		for _, member := range []bool{IsSuccess(s), IsFailure(s), IsInProgress(s)} {
			if member {
				n++
			}
		}
		assert.LessOrEqual(t, n, 1, "status %s belongs to %d groups", s, n)
	}
}

func TestGroups_Members(t *testing.T) {
	t.Parallel()

	assert.True(t, IsSuccess(Passed))
	for _, s := range []Status{Failed, Failing, Canceled, Canceling, TimingOut} {
		assert.True(t, IsFailure(s), s)
		assert.False(t, IsSuccess(s), s)
		assert.False(t, IsInProgress(s), s)
	}
	for _, s := range []Status{Running, Creating, Scheduled, Waiting, Assigned} {
		assert.True(t, IsInProgress(s), s)
		assert.False(t, IsFailure(s), s)
	}
	for _, s := range []Status{Passed, Failed, Canceled} {
		assert.True(t, IsClickable(s), s)
	}
	assert.False(t, IsClickable(Running))
	assert.False(t, IsClickable(Canceling))
}

func TestGroups_ZeroValueIsFalse(t *testing.T) {
	t.Parallel()

	var zero Status
	assert.False(t, IsSuccess(zero))
	assert.False(t, IsFailure(zero))
	assert.False(t, IsInProgress(zero))
	assert.False(t, IsClickable(zero))
}

func TestColorsFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, successColors, ColorsFor(Passed))
	assert.Equal(t, failureColors, ColorsFor(TimingOut))
	assert.Equal(t, inProgressColors, ColorsFor(Scheduled))
	assert.Equal(t, defaultColors, ColorsFor(Blocked))
	assert.Equal(t, defaultColors, ColorsFor(""))
}

func TestLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Timing Out", TimingOut.Label())
	assert.Equal(t, "Passed", Passed.Label())
	assert.Equal(t, "Undetermined", Status("").Label())
}
