// Package candidate implements C3 (§4.3): Layer A candidate generation
// from DOM signatures.
package candidate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/rayanino/islamic-book-processor/internal/domnorm"
	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
)

// referenceClasses are the reference-desktop-app span classes that always
// warrant a candidate (§4.3).
var referenceClasses = []string{"title", "PartName", "PageHead", "PageText", "PageNumber", "footnote"}

// headingLexicalTokens mirrors domnorm's heading cue words (§4.3).
var headingLexicalTokens = []string{
	"باب", "فصل", "تنبيه", "قاعدة", "فائدة", "مسألة", "تمهيد", "خاتمة",
}

// Generate walks tree in document order and emits one Candidate per node
// that matches any §4.3 rule. Candidates are emitted in the order required
// by §5 (file_index, then dom_path depth-first).
func Generate(bookID string, fileIndex int, file string, tree *domnorm.Tree, derived *domnorm.Derived) []ibptypes.Candidate {
	var out []ibptypes.Candidate

	domnorm.Walk(tree.Root, func(n *domnorm.Node) {
		text := strings.TrimSpace(n.Text)
		if text == "" {
			return
		}
		if !matchesAnyRule(n, text) {
			return
		}

		span, ok := derived.Offsets[n.DOMPath]
		if !ok {
			return
		}

		normalized := norm.NFC.String(text)
		id := candidateID(bookID, fileIndex, n.DOMPath, normalized)

		var pageIdx *int
		if n.PageIndex != nil {
			v := *n.PageIndex
			pageIdx = &v
		}

		out = append(out, ibptypes.Candidate{
			CandidateID:   id,
			Text:          text,
			Kind:          kindOf(n),
			Signature:     signatureOf(n),
			ContextBefore: contextBefore(derived, span),
			ContextAfter:  contextAfter(derived, span),
			HTMLExcerpt:   excerptOf(n),
			DOMPath:       n.DOMPath,
			PageIndex:     pageIdx,
			FileIndex:     fileIndex,
			StartOffset:   span.Start,
			EndOffset:     span.End,
		})
	})

	return out
}

func candidateID(bookID string, fileIndex int, domPath, normalizedText string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x1f%d\x1f%s\x1f%s", bookID, fileIndex, domPath, normalizedText)
	return hex.EncodeToString(h.Sum(nil))
}

func matchesAnyRule(n *domnorm.Node, text string) bool {
	if n.IsCentered() {
		return true
	}
	if isEmphasized(n) {
		return true
	}
	for _, c := range referenceClasses {
		if n.HasClass(c) {
			return true
		}
	}
	if hasSeparatorAdjacency(n) {
		return true
	}
	if beginsWithHeadingToken(text) {
		return true
	}
	return false
}

func isEmphasized(n *domnorm.Node) bool {
	if n.Tag == "b" || n.Tag == "strong" {
		return true
	}
	if n.Tag == "font" {
		if size, ok := n.Attrs["size"]; ok {
			if v, err := strconv.Atoi(strings.TrimSpace(size)); err == nil && v > 3 {
				return true
			}
		}
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Tag == "b" || p.Tag == "strong" {
			return true
		}
	}
	return false
}

func hasSeparatorAdjacency(n *domnorm.Node) bool {
	if n.Parent == nil {
		return false
	}
	siblings := n.Parent.Children
	pos := -1
	for i, s := range siblings {
		if s == n {
			pos = i
			break
		}
	}
	if pos < 0 {
		return false
	}
	if pos > 0 && siblings[pos-1].Tag == "hr" {
		return true
	}
	if pos+1 < len(siblings) && siblings[pos+1].Tag == "hr" {
		return true
	}
	return false
}

func beginsWithHeadingToken(text string) bool {
	for _, tok := range headingLexicalTokens {
		if strings.HasPrefix(text, tok) {
			return true
		}
	}
	return false
}

func kindOf(n *domnorm.Node) ibptypes.CandidateKind {
	switch n.Noise {
	case domnorm.NoisePagehead:
		return ibptypes.KindPagehead
	case domnorm.NoiseFootnote:
		return ibptypes.KindFootnote
	case domnorm.NoiseMetadata:
		return ibptypes.KindMetadata
	}
	if n.HasClass("title") || n.HasClass("PartName") {
		return ibptypes.KindTitle
	}
	return ibptypes.KindBody
}

func signatureOf(n *domnorm.Node) ibptypes.Signature {
	var preceding, following string
	if n.Parent != nil {
		siblings := n.Parent.Children
		for i, s := range siblings {
			if s != n {
				continue
			}
			if i > 0 {
				preceding = siblingKind(siblings[i-1])
			}
			if i+1 < len(siblings) {
				following = siblingKind(siblings[i+1])
			}
		}
	}
	return ibptypes.Signature{
		AncestorChain: n.AncestorChain(3),
		ClassTokens:   n.ClassTokens(),
		Centered:      n.IsCentered(),
		Bold:          n.Tag == "b" || n.Tag == "strong",
		FontEmphasis:  n.Tag == "font",
		PrecedingKind: preceding,
		FollowingKind: following,
	}
}

func siblingKind(n *domnorm.Node) string {
	if n.Tag == "hr" {
		return "hr"
	}
	if strings.TrimSpace(n.Text) == "" {
		return "blank"
	}
	return "text"
}

func excerptOf(n *domnorm.Node) string {
	const maxLen = 240
	text := strings.TrimSpace(n.Text)
	if len(text) > maxLen {
		text = text[:maxLen]
	}
	return "<" + n.Tag + ">" + text + "</" + n.Tag + ">"
}

func contextBefore(d *domnorm.Derived, span domnorm.Span) string {
	const window = 120
	start := span.Start - window
	if start < 0 {
		start = 0
	}
	if span.Start > len(d.Text) {
		return ""
	}
	return d.Text[start:span.Start]
}

func contextAfter(d *domnorm.Derived, span domnorm.Span) string {
	const window = 120
	end := span.End + window
	if end > len(d.Text) {
		end = len(d.Text)
	}
	if span.End > len(d.Text) {
		return ""
	}
	return d.Text[span.End:end]
}
