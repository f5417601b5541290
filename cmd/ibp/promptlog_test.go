package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizePhaseReplacesUnsafeRunes(t *testing.T) {
	got := sanitizePhase("verify:abc-123")
	want := "verify_abc-123"
	if got != want {
		t.Fatalf("sanitizePhase() = %q, want %q", got, want)
	}
}

func TestPromptLoggerAppendsBeforeAndAfter(t *testing.T) {
	dir := t.TempDir()
	logger := &promptLogger{dir: dir}
	ctx := context.Background()

	logger.Before(ctx, "verify:c1", "is this a heading?", map[string]string{"candidate_id": "c1"})
	logger.After(ctx, "verify:c1", json.RawMessage(`{"verdict":true}`), nil)

	path := filepath.Join(dir, "verify_c1.txt")
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	content := string(raw)
	if !strings.Contains(content, "is this a heading?") {
		t.Fatalf("log missing prompt text: %s", content)
	}
	if !strings.Contains(content, `"verdict":true`) {
		t.Fatalf("log missing response: %s", content)
	}
}

func TestPromptLoggerAfterLogsError(t *testing.T) {
	dir := t.TempDir()
	logger := &promptLogger{dir: dir}
	logger.Before(context.Background(), "", "prompt", nil)
	logger.After(context.Background(), "", nil, errTimeout{})

	raw, err := os.ReadFile(filepath.Join(dir, "unknown.txt"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(raw), "ERROR: timed out") {
		t.Fatalf("log missing error: %s", raw)
	}
}

type errTimeout struct{}

func (errTimeout) Error() string { return "timed out" }
