package main

import (
	"strings"
	"testing"

	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
)

func TestCandidateHintsSkipsInjectedAndCaps(t *testing.T) {
	var cands []ibptypes.Candidate
	for i := 0; i < 8; i++ {
		cands = append(cands, ibptypes.Candidate{
			CandidateID: string(rune('a' + i)),
			Text:        string(rune('a' + i)),
		})
	}
	injections := []ibptypes.ProposedInjection{{CandidateID: "a"}, {CandidateID: "c"}}

	hints := candidateHints(cands, injections)
	if len(hints) != 5 {
		t.Fatalf("candidateHints() returned %d hints, want 5 (capped)", len(hints))
	}
	for _, h := range hints {
		if h == "a" || h == "c" {
			t.Fatalf("candidateHints() included injected candidate %q", h)
		}
	}
}

func TestChunkPlanReportIncludesAnchorMisses(t *testing.T) {
	plan := ibptypes.ChunkPlan{
		BookID: "b1",
		Chunks: []ibptypes.Chunk{{ChunkID: "0123456789abcdef", Title: "t1", Level: 2}},
		Placements: []ibptypes.PlacementProposal{
			{ChunkID: "0123456789abcdef", PlacementConfidence: 0.5},
		},
		AnchorMisses: []ibptypes.AnchorMiss{{File: "f1.html", Body: "preamble"}},
	}
	report := chunkPlanReport(plan)
	if !strings.Contains(report, "b1") {
		t.Fatalf("chunkPlanReport() missing book id: %s", report)
	}
	if !strings.Contains(report, "Anchor misses") {
		t.Fatalf("chunkPlanReport() missing anchor misses section: %s", report)
	}
	if !strings.Contains(report, "f1.html") {
		t.Fatalf("chunkPlanReport() missing anchor miss file: %s", report)
	}
}

func TestChunkPlanReportNoAnchorMissesOmitsSection(t *testing.T) {
	plan := ibptypes.ChunkPlan{BookID: "b1"}
	report := chunkPlanReport(plan)
	if strings.Contains(report, "Anchor misses") {
		t.Fatalf("chunkPlanReport() should omit anchor misses section when there are none: %s", report)
	}
}
