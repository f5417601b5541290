package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
	"github.com/stretchr/testify/require"
)

func TestLoadMetaRejectsUnknownScience(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meta.json")
	if err := os.WriteFile(path, []byte(`{"science":"astrology","title":"x","author":"y"}`), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := loadMeta(path); err == nil {
		t.Fatalf("expected an error for an unrecognized science")
	}
}

func TestLoadMetaAcceptsKnownScience(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meta.json")
	if err := os.WriteFile(path, []byte(`{"science":"`+string(ibptypes.ScienceFiqh)+`","title":"x","author":"y"}`), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	m, err := loadMeta(path)
	if err != nil {
		t.Fatalf("loadMeta() error = %v", err)
	}
	if m.Title != "x" || m.Author != "y" {
		t.Fatalf("loadMeta() = %+v, title/author mismatch", m)
	}
}

func TestLoadMustNotHeadingMissingPathIsEmpty(t *testing.T) {
	list, err := loadMustNotHeading("")
	if err != nil || list != nil {
		t.Fatalf("loadMustNotHeading(\"\") = %v, %v, want nil, nil", list, err)
	}
	list, err = loadMustNotHeading(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil || list != nil {
		t.Fatalf("loadMustNotHeading(missing) = %v, %v, want nil, nil", list, err)
	}
}

func TestLoadMustNotHeadingReadsFixture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "must_not.json")
	if err := os.WriteFile(path, []byte(`["فهرس","مقدمة"]`), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	list, err := loadMustNotHeading(path)
	if err != nil {
		t.Fatalf("loadMustNotHeading() error = %v", err)
	}
	if len(list) != 2 || list[0] != "فهرس" {
		t.Fatalf("loadMustNotHeading() = %v", list)
	}
}

func TestSaveAndLoadRunRoundTrips(t *testing.T) {
	runsRoot := t.TempDir()
	run := ibptypes.Run{
		RunID:       "r1",
		BookID:      "b1",
		HeadingGate: ibptypes.GateAwaitingApproval,
		PlanGate:    ibptypes.GateProposed,
		InputDir:    "/books/b1",
		Timestamp:   "2026-01-01T00:00:00Z",
	}
	runDir := filepath.Join(runsRoot, run.RunID)
	require.NoError(t, saveRun(runDir, run))

	got, gotDir, err := loadRun(runsRoot, run.RunID)
	require.NoError(t, err)
	require.Equal(t, runDir, gotDir)
	require.Equal(t, run.BookID, got.BookID)
	require.Equal(t, run.HeadingGate, got.HeadingGate)
	require.Equal(t, run.InputDir, got.InputDir)
}

func TestLoadRunMissingIsError(t *testing.T) {
	if _, _, err := loadRun(t.TempDir(), "does-not-exist"); err == nil {
		t.Fatalf("expected an error loading a run that was never saved")
	}
}

func TestWriteProposalArtifactsWritesSortedHeadingDecisions(t *testing.T) {
	runDir := t.TempDir()
	p := ibptypes.Proposal{RunID: "r1", BookID: "b1", CountsByKind: map[string]int{}, CountsByScoreBand: map[string]int{}}
	decisions := []ibptypes.HeadingDecision{
		{FileIndex: 0, Score: ibptypes.Score{CandidateID: "b", Value: 0.2}},
		{FileIndex: 0, Score: ibptypes.Score{CandidateID: "a", Value: 0.9}},
	}
	require.NoError(t, writeProposalArtifacts(runDir, p, nil, decisions))

	raw, err := os.ReadFile(filepath.Join(runDir, "heading_decisions.jsonl"))
	require.NoError(t, err)
	lines := splitLines(string(raw))
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], `"candidate_id":"a"`)
	require.Contains(t, lines[1], `"candidate_id":"b"`)
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
