package main

import (
	"testing"

	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
)

func TestAllCandidatesOrdersByFileIndex(t *testing.T) {
	byFile := map[int][]ibptypes.Candidate{
		2: {{CandidateID: "c2a"}, {CandidateID: "c2b"}},
		0: {{CandidateID: "c0a"}},
		1: {{CandidateID: "c1a"}},
	}
	got := allCandidates(byFile)
	want := []string{"c0a", "c1a", "c2a", "c2b"}
	if len(got) != len(want) {
		t.Fatalf("allCandidates() returned %d candidates, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].CandidateID != id {
			t.Fatalf("allCandidates()[%d] = %q, want %q", i, got[i].CandidateID, id)
		}
	}
}

func TestAllCandidatesEmpty(t *testing.T) {
	if got := allCandidates(map[int][]ibptypes.Candidate{}); got != nil {
		t.Fatalf("allCandidates(empty) = %v, want nil", got)
	}
}
