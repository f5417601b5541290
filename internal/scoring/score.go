// Package scoring implements C4 (§4.4): deterministic feature extraction
// and a bounded score per candidate.
package scoring

import (
	"math"
	"strings"
	"unicode"

	"github.com/rayanino/islamic-book-processor/internal/arabicnorm"
	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
)

// Thresholds are the §4.4 operational defaults. They are tunable on the
// holdout split without changing the invariants of §8 (§9 Open Questions),
// so they live here as named constants rather than inline literals.
const (
	HighThreshold = 0.75
	LowThreshold  = 0.25
)

var headingTokens = []string{
	"باب", "فصل", "تنبيه", "قاعدة", "فائدة", "مسألة", "تمهيد", "خاتمة",
}

var exerciseTokens = []string{"أسئلة", "سؤال", "تمرين", "تطبيق", "تدريبات", "اختبار"}

// Features holds the signed feature vector of §4.4.
type Features struct {
	IsolatedBlock    bool
	Centered         bool
	BoldOrStrong     bool
	TitleSpanClass   bool
	PrecededByHR     bool
	BeginsWithToken  bool
	FollowedByNumeral bool
	PreferredLength  bool // token length in [2,8]
	NoTrailingPunct  bool
	InMetadataZone   bool
	InFootnote       bool
	IsPagehead       bool // signature repeats across >= 40% of pages
	NearDocEdge      bool // first/last 2% of document
	MustNotHeading   bool
}

// DocPosition locates a candidate's text offset within the full document
// span, used for the "first/last 2%" positional feature.
type DocPosition struct {
	Offset int
	DocLen int
}

// Extract computes the feature vector for a candidate (§4.4). c.Signature is
// the same signature used by the candidate generator; sigPageRatio is the
// fraction of pages (>= 40% counts as pagehead-like for scoring, a looser
// bar than the 60% pagehead *tagging* threshold in §4.2 — an untagged but
// frequently-repeating node still loses points here).
func Extract(c ibptypes.Candidate, sigPageRatio float64, pos DocPosition, mustNotHeading []string) Features {
	text := strings.TrimSpace(c.Text)
	tokens := arabicnorm.Tokenize(text)

	f := Features{
		IsolatedBlock:   isIsolated(c),
		Centered:        c.Signature.Centered,
		BoldOrStrong:    c.Signature.Bold,
		TitleSpanClass:  hasTitleClass(c.Signature.ClassTokens),
		PrecededByHR:    c.Signature.PrecedingKind == "hr",
		BeginsWithToken: beginsWithToken(text, headingTokens),
		FollowedByNumeral: followedByNumeral(text),
		PreferredLength: len(tokens) >= 2 && len(tokens) <= 8,
		NoTrailingPunct: !endsWithPunct(text),
		InMetadataZone:  c.Kind == ibptypes.KindMetadata,
		InFootnote:      c.Kind == ibptypes.KindFootnote,
		IsPagehead:      sigPageRatio >= 0.4,
		NearDocEdge:     pos.DocLen > 0 && (pos.Offset < pos.DocLen*2/100 || pos.Offset > pos.DocLen*98/100),
		MustNotHeading:  matchesMustNot(text, mustNotHeading),
	}
	return f
}

func isIsolated(c ibptypes.Candidate) bool {
	return c.Signature.PrecedingKind == "blank" || c.Signature.PrecedingKind == "hr" ||
		c.Signature.FollowingKind == "blank" || c.Signature.FollowingKind == "hr"
}

func hasTitleClass(classes []string) bool {
	for _, cl := range classes {
		lc := strings.ToLower(cl)
		if strings.Contains(lc, "title") || strings.Contains(lc, "partname") {
			return true
		}
	}
	return false
}

func beginsWithToken(text string, toks []string) bool {
	for _, t := range toks {
		if strings.HasPrefix(text, t) {
			return true
		}
	}
	return false
}

func followedByNumeral(text string) bool {
	fields := strings.Fields(text)
	for i := 0; i < len(fields)-1; i++ {
		for _, tok := range headingTokens {
			if fields[i] == tok {
				return hasNumeral(fields[i+1])
			}
		}
	}
	return false
}

func hasNumeral(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
		// Arabic-Indic digits are covered by unicode.IsDigit already.
	}
	return false
}

func endsWithPunct(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	r := []rune(s)
	last := r[len(r)-1]
	return unicode.IsPunct(last)
}

func matchesMustNot(text string, list []string) bool {
	for _, entry := range list {
		if arabicnorm.Equal(text, entry) {
			return true
		}
	}
	return false
}

// IsExerciseSection reports whether text begins with or contains an
// exercises/applications cue token (§4.9).
func IsExerciseSection(text string) bool {
	for _, tok := range exerciseTokens {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}

// Score combines Features into a bounded [0,1] score and a Suggested
// decision (§4.4). A must-not-heading match is a hard -inf: the score
// floors at 0 and MustNotMatch is set so downstream stages can block the
// candidate regardless of any other positive evidence (§I5).
func Score(f Features) ibptypes.Score {
	if f.MustNotHeading {
		return ibptypes.Score{
			Value:        0,
			Suggested:    ibptypes.Suggested{IsHeading: ibptypes.False},
			Reason:       ibptypes.ReasonBodyLine,
			Confidence:   1,
			MustNotMatch: true,
		}
	}

	raw := 0.0
	// Structural
	raw += boolWeight(f.IsolatedBlock, 1)
	raw += boolWeight(f.Centered, 1)
	raw += boolWeight(f.BoldOrStrong, 1)
	raw += boolWeight(f.TitleSpanClass, 1)
	raw += boolWeight(f.PrecededByHR, 1)
	// Lexical
	raw += boolWeight(f.BeginsWithToken, 1)
	raw += boolWeight(f.FollowedByNumeral, 1)
	raw += boolWeight(f.PreferredLength, 1)
	raw += boolWeight(f.NoTrailingPunct, 1)
	// Positional (penalties)
	raw += boolWeight(f.InMetadataZone, -1)
	raw += boolWeight(f.InFootnote, -1)
	raw += boolWeight(f.IsPagehead, -1)
	raw += boolWeight(f.NearDocEdge, -0.5)

	value := logistic(raw)

	hasNegativeStructural := f.InMetadataZone || f.InFootnote || f.IsPagehead

	var s ibptypes.Score
	s.Value = value
	s.Confidence = value

	switch {
	case value >= HighThreshold && !hasNegativeStructural:
		s.Suggested = ibptypes.Suggested{IsHeading: ibptypes.True, Level: level(f)}
		s.Reason = reasonFor(f)
	case value <= LowThreshold:
		s.Suggested = ibptypes.Suggested{IsHeading: ibptypes.False}
		s.Reason = reasonFor(f)
		s.Confidence = 1 - value
	default:
		s.Suggested = ibptypes.Suggested{IsHeading: ibptypes.Unknown}
		s.Reason = ibptypes.ReasonBodyLine
		s.ScoringAnomaly = conflicting(f)
	}
	return s
}

func boolWeight(b bool, w float64) float64 {
	if b {
		return w
	}
	return 0
}

// logistic squashes a signed sum into (0,1). The divisor softens the curve
// so a single strong positive feature does not saturate the score.
func logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-x/2))
}

// level applies the §4.4 level policy: default 2, with 3 reserved for a
// caller that has already established a parent heading in the region
// (tracked by the caller via LevelHint, since that requires document-order
// state this package does not hold).
func level(f Features) int {
	return 2
}

func reasonFor(f Features) ibptypes.ReasonTag {
	switch {
	case f.InMetadataZone:
		return ibptypes.ReasonMetadata
	case f.InFootnote:
		return ibptypes.ReasonFootnote
	case f.IsPagehead:
		return ibptypes.ReasonPagehead
	case f.TitleSpanClass:
		return ibptypes.ReasonTitle
	default:
		return ibptypes.ReasonBodyLine
	}
}

// conflicting flags a ScoringAnomaly (§7): positive structural signal
// co-occurring with a negative positional one (e.g. centered but inside a
// footnote zone).
func conflicting(f Features) bool {
	positive := f.Centered || f.BoldOrStrong || f.TitleSpanClass || f.PrecededByHR
	negative := f.InFootnote || f.InMetadataZone || f.IsPagehead
	return positive && negative
}

// LevelHint tracks whether a stronger ancestor heading has already been
// emitted above in document order within the same region, for the level-3
// policy of §4.4 ("a parent signature of larger typography or earlier-page
// chapter token"). Callers walk candidates in document order and feed each
// decision back in.
type LevelHint struct {
	sawParentHeading bool
}

// Next reports the level to use for a candidate already decided as a
// heading, and records it for subsequent candidates in the same region.
func (h *LevelHint) Next(f Features) int {
	if !h.sawParentHeading {
		h.sawParentHeading = f.Centered && f.BoldOrStrong
		return 2
	}
	if f.TitleSpanClass {
		return 2
	}
	return 3
}

// ResetRegion clears the parent-heading memory, e.g. at a file boundary.
func (h *LevelHint) ResetRegion() {
	h.sawParentHeading = false
}
