package scoring

import (
	"testing"

	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
)

func candidate(sig ibptypes.Signature, kind ibptypes.CandidateKind, text string) ibptypes.Candidate {
	return ibptypes.Candidate{Text: text, Kind: kind, Signature: sig}
}

func TestScoreFlagsCenteredBoldHeadingAsHigh(t *testing.T) {
	c := candidate(ibptypes.Signature{
		Centered:      true,
		Bold:          true,
		ClassTokens:   []string{"title"},
		PrecedingKind: "hr",
	}, ibptypes.KindTitle, "باب الإدغام")

	f := Extract(c, 0, DocPosition{Offset: 5000, DocLen: 100000}, nil)
	s := Score(f)

	if s.Suggested.IsHeading != ibptypes.True {
		t.Fatalf("expected is_heading=true, got %v (score=%v)", s.Suggested.IsHeading, s.Value)
	}
	if s.Suggested.Level != 2 {
		t.Fatalf("expected default level 2, got %d", s.Suggested.Level)
	}
}

func TestScorePlainBodyTextIsLow(t *testing.T) {
	c := candidate(ibptypes.Signature{}, ibptypes.KindBody, "نص عادي طويل بلا أي تمييز هيكلي على الإطلاق في هذا السياق")
	f := Extract(c, 0, DocPosition{Offset: 50000, DocLen: 100000}, nil)
	s := Score(f)

	if s.Suggested.IsHeading != ibptypes.False {
		t.Fatalf("expected is_heading=false, got %v (score=%v)", s.Suggested.IsHeading, s.Value)
	}
}

func TestMustNotHeadingHardBlocks(t *testing.T) {
	c := candidate(ibptypes.Signature{Centered: true, Bold: true}, ibptypes.KindTitle, "بِسْمِ اللَّهِ الرَّحْمَٰنِ الرَّحِيمِ")
	f := Extract(c, 0, DocPosition{}, []string{"بسم الله الرحمن الرحيم"})
	s := Score(f)

	if !s.MustNotMatch {
		t.Fatalf("expected must_not_match=true")
	}
	if s.Suggested.IsHeading != ibptypes.False {
		t.Fatalf("expected is_heading=false on must-not-heading match")
	}
}

func TestPageheadFeatureLowersScore(t *testing.T) {
	c := candidate(ibptypes.Signature{Centered: true}, ibptypes.KindPagehead, "تفسير ابن كثير")
	f := Extract(c, 0.8, DocPosition{}, nil)
	if !f.IsPagehead {
		t.Fatalf("expected IsPagehead feature to be set at 0.8 ratio")
	}
	s := Score(f)
	if s.Suggested.IsHeading == ibptypes.True {
		t.Fatalf("pagehead-like candidate should not score as heading")
	}
}

func TestLevelHintPromotesNestedHeadingToLevel3(t *testing.T) {
	var h LevelHint
	parent := Features{Centered: true, BoldOrStrong: true}
	if lvl := h.Next(parent); lvl != 2 {
		t.Fatalf("expected first heading at level 2, got %d", lvl)
	}
	child := Features{BeginsWithToken: true}
	if lvl := h.Next(child); lvl != 3 {
		t.Fatalf("expected nested heading at level 3, got %d", lvl)
	}
	h.ResetRegion()
	if lvl := h.Next(child); lvl != 2 {
		t.Fatalf("expected level reset to 2 after ResetRegion, got %d", lvl)
	}
}

func TestConflictingFeaturesFlaggedAsAnomalyNotFatal(t *testing.T) {
	c := candidate(ibptypes.Signature{Centered: true, Bold: true}, ibptypes.KindFootnote, "حاشية مميزة بالخطأ")
	f := Extract(c, 0, DocPosition{}, nil)
	s := Score(f)
	if s.Suggested.IsHeading == ibptypes.True {
		// Negative structural (footnote) suppresses the true branch even at high raw score.
		t.Fatalf("footnote-zone candidate should not resolve to true despite positive features")
	}
}
