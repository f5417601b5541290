// Package planner implements C6 (§4.6): assembling the proposal artifact
// and its human-readable report from scored candidates.
package planner

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
)

// Decision is one scored candidate together with whatever oracle result (if
// any) was consulted for it.
type Decision struct {
	Candidate ibptypes.Candidate
	Score     ibptypes.Score
	Oracle    *ibptypes.OracleResult
}

var anchorRe = regexp.MustCompile(`(?m)^#{2,6}\s+`)

// Build assembles the Proposal artifact for a book from its decisions and
// the already-derived plain markup for each file (keyed by file_index),
// used to compute the anchor-miss-reduction estimate (§4.6).
func Build(runID, bookID string, decisions []Decision, derivedByFile map[int]string) ibptypes.Proposal {
	p := ibptypes.Proposal{
		RunID:             runID,
		BookID:            bookID,
		CountsByKind:      map[string]int{},
		CountsByScoreBand: map[string]int{},
	}

	sorted := append([]Decision(nil), decisions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Candidate.FileIndex != sorted[j].Candidate.FileIndex {
			return sorted[i].Candidate.FileIndex < sorted[j].Candidate.FileIndex
		}
		return sorted[i].Candidate.DOMPath < sorted[j].Candidate.DOMPath
	})

	var ambiguous []Decision

	for _, d := range sorted {
		p.CountsByKind[string(d.Candidate.Kind)]++
		p.CountsByScoreBand[scoreBand(d.Score.Value)]++

		if d.Score.MustNotMatch {
			p.Blocked = append(p.Blocked, ibptypes.ProposedInjection{
				CandidateID:            d.Candidate.CandidateID,
				FileIndex:              d.Candidate.FileIndex,
				InsertionOffset:        d.Candidate.StartOffset,
				TitleText:              d.Candidate.Text,
				DecisionBasis:          ibptypes.BasisRule,
				Score:                  d.Score.Value,
				Blocked:                true,
				BlockedReason:          "must_not_heading",
				MustNotHeadingOverride: false,
			})
			continue
		}

		switch d.Score.Suggested.IsHeading {
		case ibptypes.True:
			basis := ibptypes.BasisRule
			level := d.Score.Suggested.Level
			title := d.Candidate.Text
			if d.Oracle != nil {
				basis = ibptypes.BasisRuleOracle
			}
			p.Injections = append(p.Injections, ibptypes.ProposedInjection{
				CandidateID:     d.Candidate.CandidateID,
				FileIndex:       d.Candidate.FileIndex,
				InsertionOffset: d.Candidate.StartOffset,
				Level:           level,
				TitleText:       title,
				DecisionBasis:   basis,
				Score:           d.Score.Value,
				OracleResult:    d.Oracle,
				ReviewRequired:  d.Oracle != nil,
			})
		case ibptypes.Unknown:
			if d.Oracle != nil && d.Oracle.IsHeading {
				p.Injections = append(p.Injections, ibptypes.ProposedInjection{
					CandidateID:     d.Candidate.CandidateID,
					FileIndex:       d.Candidate.FileIndex,
					InsertionOffset: d.Candidate.StartOffset,
					Level:           d.Oracle.Level,
					TitleText:       firstNonEmpty(d.Oracle.NormalizedTitle, d.Candidate.Text),
					DecisionBasis:   ibptypes.BasisOracle,
					Score:           d.Score.Value,
					OracleResult:    d.Oracle,
					ReviewRequired:  true,
				})
				continue
			}
			ambiguous = append(ambiguous, d)
		}
	}

	sort.SliceStable(ambiguous, func(i, j int) bool {
		return ambiguous[i].Score.Value > ambiguous[j].Score.Value
	})
	const topN = 20
	for i, d := range ambiguous {
		if i >= topN {
			break
		}
		p.TopAmbiguous = append(p.TopAmbiguous, d.Candidate.CandidateID)
	}

	p.AnchorsBefore, p.AnchorsAfter, p.AnchorMissReduction = anchorDelta(derivedByFile, p.Injections)
	return p
}

func scoreBand(v float64) string {
	switch {
	case v >= 0.75:
		return "high"
	case v <= 0.25:
		return "low"
	default:
		return "mid"
	}
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

// anchorDelta computes anchors_before/after and the anchor-miss-reduction
// ratio of §4.6: (anchors_after - anchors_before) / anchors_before_missed,
// where anchors_before_missed is the number of files with zero anchors in
// the unmodified derived markup. When no file lacks anchors the reduction
// is reported as 0 instead of dividing by zero.
func anchorDelta(derivedByFile map[int]string, injections []ibptypes.ProposedInjection) (before, after int, reduction float64) {
	injByFile := map[int]int{}
	for _, inj := range injections {
		injByFile[inj.FileIndex]++
	}

	var missedFiles int
	for fi, text := range derivedByFile {
		n := len(anchorRe.FindAllStringIndex(text, -1))
		before += n
		after += n + injByFile[fi]
		if n == 0 {
			missedFiles++
		}
	}
	if missedFiles == 0 {
		return before, after, 0
	}
	reduction = float64(after-before) / float64(missedFiles)
	return before, after, reduction
}

// Report renders a human-readable markdown summary of a Proposal (§4.6).
func Report(p ibptypes.Proposal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Heading proposal for %s\n\n", p.BookID)
	fmt.Fprintf(&b, "Run: %s\n\n", p.RunID)
	fmt.Fprintf(&b, "- Injections: %d\n", len(p.Injections))
	fmt.Fprintf(&b, "- Blocked (must-not-heading): %d\n", len(p.Blocked))
	fmt.Fprintf(&b, "- Top ambiguous (awaiting oracle/human): %d\n", len(p.TopAmbiguous))
	fmt.Fprintf(&b, "- Anchors before/after: %d / %d\n", p.AnchorsBefore, p.AnchorsAfter)
	fmt.Fprintf(&b, "- Anchor-miss reduction: %.3f\n\n", p.AnchorMissReduction)

	fmt.Fprintf(&b, "## Counts by kind\n\n")
	for _, k := range sortedKeys(p.CountsByKind) {
		fmt.Fprintf(&b, "- %s: %d\n", k, p.CountsByKind[k])
	}

	fmt.Fprintf(&b, "\n## Counts by score band\n\n")
	for _, k := range sortedKeys(p.CountsByScoreBand) {
		fmt.Fprintf(&b, "- %s: %d\n", k, p.CountsByScoreBand[k])
	}

	if len(p.Blocked) > 0 {
		fmt.Fprintf(&b, "\n## Blocked by must-not-heading\n\n")
		for _, inj := range p.Blocked {
			fmt.Fprintf(&b, "- %s (file %d): %q\n", inj.CandidateID, inj.FileIndex, inj.TitleText)
		}
	}

	if len(p.TopAmbiguous) > 0 {
		fmt.Fprintf(&b, "\n## Top ambiguous\n\n")
		for _, id := range p.TopAmbiguous {
			fmt.Fprintf(&b, "- %s\n", id)
		}
	}

	return b.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
