package logs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess_CommandWithMarker(t *testing.T) {
	t.Parallel()

	got := Process([]string{"_bk;t=123 $ echo hi"})

	require.Len(t, got, 1)
	assert.Equal(t, TypeCommand, got[0].Type)
	assert.Equal(t, "echo hi", got[0].Content)
	assert.Empty(t, got[0].Timestamp)
}

func TestProcess_DropsBlankLines(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Process([]string{"   ", ""}))
	assert.Empty(t, Process([]string{"\x1b[0m", "_bk;t=1700000000000", "\x1b_bk;t=1\x07  \x1b[?25l"}))
	assert.Empty(t, Process(nil))
}

func TestProcess_PreservesOrder(t *testing.T) {
	t.Parallel()

	got := Process([]string{"first", "", "second", "  ", "third"})

	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Content)
	assert.Equal(t, "second", got[1].Content)
	assert.Equal(t, "third", got[2].Content)
}

func TestProcess_StripsAPCFramedMarkerAndColors(t *testing.T) {
	t.Parallel()

	got := Process([]string{"\x1b_bk;t=1715774400000\x07\x1b[32mall good\x1b[0m"})

	require.Len(t, got, 1)
	assert.Equal(t, "all good", got[0].Content)
	assert.Equal(t, TypeOutput, got[0].Type)
}

func TestProcess_ExtractsTimestamp(t *testing.T) {
	t.Parallel()

	got := Process([]string{"2024-05-15 12:00:00 compiling package"})

	require.Len(t, got, 1)
	assert.Equal(t, "2024-05-15 12:00:00", got[0].Timestamp)
	assert.Equal(t, "compiling package", got[0].Content)
}

func TestProcess_TimestampOnlyLineIsDropped(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Process([]string{"[2024-05-15 12:00:00]"}))
}

func TestProcess_Classification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		raw         string
		wantType    Type
		wantContent string
	}{
		{"command wins over error", "$ make errors", TypeCommand, "make errors"},
		{"dollar anywhere is a command", "echo $HOME", TypeCommand, "echo $HOME"},
		{"warning prefix", "Warning: deprecated flag", TypeWarning, "Warning: deprecated flag"},
		{"warning glyph is stripped", "⚠️ disk almost full", TypeWarning, "disk almost full"},
		{"warning wins over error", "Warning: error budget low", TypeWarning, "Warning: error budget low"},
		{"error case-insensitive", "fatal ERROR in module", TypeError, "fatal ERROR in module"},
		{"error wins over success", "Successfully reported error", TypeError, "Successfully reported error"},
		{"success glyph", "✓ tests passed", TypeSuccess, "✓ tests passed"},
		{"successfully", "Successfully built image", TypeSuccess, "Successfully built image"},
		{"removed", "Removed container abc", TypeSuccess, "Removed container abc"},
		{"section header", "~~~ Preparing working directory", TypeInfo, "Preparing working directory"},
		{"running prefix", "Running plugin docker", TypeInfo, "Running plugin docker"},
		{"cleaning up", "Step done. Cleaning up", TypeInfo, "Step done. Cleaning up"},
		{"plain output", "go: downloading module", TypeOutput, "go: downloading module"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := Process([]string{tc.raw})
			require.Len(t, got, 1)
			assert.Equal(t, tc.wantType, got[0].Type)
			assert.Equal(t, tc.wantContent, got[0].Content)
		})
	}
}

func TestProcess_GlyphOnlyWarningIsDropped(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Process([]string{"⚠️"}))
}

func TestStripANSI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"sgr", "\x1b[1;31mred\x1b[0m", "red"},
		{"cursor", "\x1b[2Kprogress\x1b[1A", "progress"},
		{"visibility", "\x1b[?25lhidden\x1b[?25h", "hidden"},
		{"osc hyperlink", "\x1b]8;;https://buildkite.com\x07link\x1b]8;;\x07", "link"},
		{"generic csi", "\x1b[3~x", "x"},
		{"clean text", "nothing to strip", "nothing to strip"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, StripANSI(tc.in))
		})
	}
}

func TestStripANSI_IdempotentOnProcessedContent(t *testing.T) {
	t.Parallel()

	raw := []string{
		"\x1b_bk;t=1\x07~~~ \x1b[90mRunning commands\x1b[0m",
		"$ ./build.sh --verbose   ",
		"\x1b[33m⚠ Warning: cache miss\x1b[0m",
		"2024-05-15 12:00:00 \x1b[31mError: boom\x1b[0m",
		"✔ Removed 3 files",
	}

	processed := Process(raw)
	require.Len(t, processed, len(raw))
	for _, l := range processed {
		assert.Equal(t, l.Content, StripANSI(l.Content))
	}
}

func TestProcess_ReprocessingKeepsType(t *testing.T) {
	t.Parallel()

	raw := []string{
		"\x1b[33m⚠ Warning: cache miss\x1b[0m",
		"2024-05-15 12:00:00 \x1b[31mError: boom\x1b[0m",
		"✔ Removed 3 files",
		"Running commands",
		"plain output",
	}

	for _, l := range Process(raw) {
		again := Process([]string{l.Content})
		require.Len(t, again, 1)
		assert.Equal(t, l.Type, again[0].Type, "content=%q", l.Content)
		assert.Equal(t, l.Content, again[0].Content)
	}
}

func TestSplitLines(t *testing.T) {
	t.Parallel()

	assert.Nil(t, SplitLines(""))
	assert.Equal(t, []string{"a", "b", "c"}, SplitLines("a\r\nb\nc\n"))
	assert.Equal(t, []string{"a", "b"}, SplitLines("a\rb"))
}

func TestProcessContent(t *testing.T) {
	t.Parallel()

	got := ProcessContent("~~~ Running tests\n\n$ go test ./...\nok  \tpkg\t0.1s\n")

	require.Len(t, got, 3)
	assert.Equal(t, TypeInfo, got[0].Type)
	assert.Equal(t, TypeCommand, got[1].Type)
	assert.Equal(t, "go test ./...", got[1].Content)
	assert.Equal(t, TypeOutput, got[2].Type)
}
