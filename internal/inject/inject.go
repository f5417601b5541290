// Package inject implements C8 (§4.8): additive heading injection into
// derived plain markup, followed by strict anchor-only chunk splitting.
package inject

import (
	"log"
	"sort"

	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
)

// Inject applies approved injections to text additively: at each
// insertion_offset, a new line "## Title\n" (or "###" for level 3) is
// prepended. Existing text is never modified. Injections are applied in
// reverse file-offset order so earlier offsets remain valid as later
// insertions grow the string (§4.8). When two injections target the same
// insertion_offset, only the first in proposal order is kept; the rest are
// dropped and logged (§8 "consecutive identical anchors" tie-break).
func Inject(text string, injections []ibptypes.ProposedInjection) string {
	deduped := dedupeByOffset(injections)
	sorted := append([]ibptypes.ProposedInjection(nil), deduped...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].InsertionOffset > sorted[j].InsertionOffset
	})

	for _, inj := range sorted {
		off := inj.InsertionOffset
		if off < 0 {
			off = 0
		}
		if off > len(text) {
			off = len(text)
		}
		line := headingLine(inj.Level, inj.TitleText)
		text = text[:off] + line + text[off:]
	}
	return text
}

// dedupeByOffset keeps only the first injection (in proposal order) per
// insertion_offset, dropping and logging the rest.
func dedupeByOffset(injections []ibptypes.ProposedInjection) []ibptypes.ProposedInjection {
	seen := map[int]bool{}
	out := make([]ibptypes.ProposedInjection, 0, len(injections))
	for _, inj := range injections {
		if seen[inj.InsertionOffset] {
			log.Printf("inject: dropping duplicate injection %s at offset %d (anchor already claimed)", inj.CandidateID, inj.InsertionOffset)
			continue
		}
		seen[inj.InsertionOffset] = true
		out = append(out, inj)
	}
	return out
}

func headingLine(level int, title string) string {
	n := level
	if n < 2 || n > 6 {
		n = 2
	}
	prefix := ""
	for i := 0; i < n; i++ {
		prefix += "#"
	}
	return prefix + " " + title + "\n"
}

// AdjustOffset maps an offset in the pre-injection text to its
// corresponding offset in the post-injection text, given the same
// injections passed to Inject. Every injection whose insertion point is at
// or before the original offset shifts it forward by the inserted line's
// length.
func AdjustOffset(injections []ibptypes.ProposedInjection, offset int) int {
	adjusted := offset
	for _, inj := range dedupeByOffset(injections) {
		if inj.InsertionOffset <= offset {
			adjusted += len(headingLine(inj.Level, inj.TitleText))
		}
	}
	return adjusted
}
