package planner

import (
	"testing"

	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
)

func TestBuildSeparatesInjectionsBlockedAndAmbiguous(t *testing.T) {
	decisions := []Decision{
		{
			Candidate: ibptypes.Candidate{CandidateID: "c1", FileIndex: 0, DOMPath: "/html[0]/body[0]/p[0]", Kind: ibptypes.KindTitle, Text: "باب الصلاة"},
			Score:     ibptypes.Score{Value: 0.9, Suggested: ibptypes.Suggested{IsHeading: ibptypes.True, Level: 2}},
		},
		{
			Candidate: ibptypes.Candidate{CandidateID: "c2", FileIndex: 0, DOMPath: "/html[0]/body[0]/p[1]", Text: "بسم الله الرحمن الرحيم"},
			Score:     ibptypes.Score{Value: 0, MustNotMatch: true},
		},
		{
			Candidate: ibptypes.Candidate{CandidateID: "c3", FileIndex: 0, DOMPath: "/html[0]/body[0]/p[2]", Text: "نص غامض"},
			Score:     ibptypes.Score{Value: 0.5, Suggested: ibptypes.Suggested{IsHeading: ibptypes.Unknown}},
		},
	}
	derived := map[int]string{0: "## باب الصلاة\nنص\n"}

	p := Build("run-1", "book-1", decisions, derived)

	if len(p.Injections) != 1 || p.Injections[0].CandidateID != "c1" {
		t.Fatalf("expected 1 injection for c1, got %+v", p.Injections)
	}
	if len(p.Blocked) != 1 || p.Blocked[0].CandidateID != "c2" {
		t.Fatalf("expected 1 blocked for c2, got %+v", p.Blocked)
	}
	if len(p.TopAmbiguous) != 1 || p.TopAmbiguous[0] != "c3" {
		t.Fatalf("expected c3 in top ambiguous, got %+v", p.TopAmbiguous)
	}
	if p.CountsByKind["title"] != 1 {
		t.Fatalf("expected counts_by_kind[title]=1, got %d", p.CountsByKind["title"])
	}
}

func TestBuildIsOrderStable(t *testing.T) {
	decisions := []Decision{
		{Candidate: ibptypes.Candidate{CandidateID: "b", FileIndex: 1, DOMPath: "/p[0]"}, Score: ibptypes.Score{Suggested: ibptypes.Suggested{IsHeading: ibptypes.True}}},
		{Candidate: ibptypes.Candidate{CandidateID: "a", FileIndex: 0, DOMPath: "/p[0]"}, Score: ibptypes.Score{Suggested: ibptypes.Suggested{IsHeading: ibptypes.True}}},
	}
	p := Build("run-1", "book-1", decisions, nil)
	if len(p.Injections) != 2 || p.Injections[0].CandidateID != "a" {
		t.Fatalf("expected file_index ordering to place 'a' first, got %+v", p.Injections)
	}
}

func TestReportIncludesCounts(t *testing.T) {
	p := Build("run-1", "book-1", []Decision{
		{Candidate: ibptypes.Candidate{CandidateID: "c1", Kind: ibptypes.KindTitle}, Score: ibptypes.Score{Value: 0.9, Suggested: ibptypes.Suggested{IsHeading: ibptypes.True, Level: 2}}},
	}, nil)
	report := Report(p)
	if !contains(report, "Injections: 1") {
		t.Fatalf("expected report to mention injection count: %s", report)
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (func() bool {
		for i := 0; i+len(substr) <= len(s); i++ {
			if s[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	})()
}
