package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPrintLogsPlain(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "job.log")
	raw := "\x1b[32m$ make test\x1b[0m\nError: boom\n\n"
	if err := os.WriteFile(in, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := os.Create(filepath.Join(dir, "out.txt"))
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()

	if err := printLogs(in, out, false); err != nil {
		t.Fatalf("printLogs: %v", err)
	}

	got, err := os.ReadFile(out.Name())
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(string(got), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), got)
	}
	if !strings.HasPrefix(lines[0], "command") || !strings.Contains(lines[0], "make test") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "error") || strings.Contains(lines[1], "\x1b[") {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestPrintLogsMissingFile(t *testing.T) {
	if err := printLogs(filepath.Join(t.TempDir(), "nope.log"), os.Stdout, false); err == nil {
		t.Error("expected an error for a missing file")
	}
}
