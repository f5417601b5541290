// Package arabicnorm provides the NFC-normalize-then-diacritic-strip text
// comparison used by the must-not-heading rule (§4.4, §8, §9 Open
// Questions) and by the placement planner's token similarity (§4.9).
package arabicnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Fold NFC-normalizes s, decomposes it (NFD) to separate base letters from
// combining marks, strips all combining marks (tashkeel/diacritics and
// tatweel), and recomposes. Two strings that differ only in diacritics
// fold to the same value.
func Fold(s string) string {
	s = norm.NFC.String(s)
	decomposed := norm.NFD.String(s)

	var b strings.Builder
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue // combining mark (diacritic)
		}
		if r == 'ـ' {
			continue // Arabic tatweel/kashida, not a letter
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}

// Equal reports whether a and b are equal once both are Fold-ed.
func Equal(a, b string) bool {
	return Fold(strings.TrimSpace(a)) == Fold(strings.TrimSpace(b))
}

// Tokenize splits folded text into word tokens on whitespace and
// punctuation, dropping empty tokens.
func Tokenize(s string) []string {
	folded := Fold(s)
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return out
}
