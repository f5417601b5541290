package domnorm

import (
	"strings"
)

// pageSignature is the structural-equivalence key used for pagehead
// repetition counting across the book (§4.2, §4.3: "Two nodes with
// identical signatures are considered structurally equivalent").
type pageSignature struct {
	tag     string
	classes string
	text    string
}

func signatureOf(n *Node) pageSignature {
	return pageSignature{
		tag:     n.Tag,
		classes: strings.Join(n.ClassTokens(), ","),
		text:    strings.TrimSpace(n.Text),
	}
}

// TagNoise annotates pagehead, page_marker, footnote, and metadata regions
// across all trees of a book in place (§4.2). It never removes or rewrites
// text; it only sets Node.Noise / Node.PageIndex.
//
// pagehead: a prose block is tagged when the blocks sharing its
// pageSignature (tag, class list and trimmed text, taken together) number
// at least 0.6 times the book's page count. The page count includes every
// page, not only pages containing prose, and no separate criterion matches
// on structure alone while ignoring the text.
func TagNoise(trees []*Tree) {
	totalPages := 0
	sigCounts := map[pageSignature]int{}
	var allBlocks []*Node

	for _, t := range trees {
		pages := pageCount(t)
		if pages == 0 {
			pages = 1
		}
		totalPages += pages

		Walk(t.Root, func(n *Node) {
			if !isProseBlock(n) {
				return
			}
			allBlocks = append(allBlocks, n)
			sigCounts[signatureOf(n)]++
		})
	}
	if totalPages == 0 {
		totalPages = 1
	}

	for _, n := range allBlocks {
		count := sigCounts[signatureOf(n)]
		ratio := float64(count) / float64(totalPages)
		if ratio >= 0.6 {
			n.Noise = NoisePagehead
		}
	}

	for _, t := range trees {
		tagPageMarkers(t)
		tagFootnotes(t)
		tagMetadata(t)
	}
}

// isProseBlock is true for leaf-ish block elements likely to carry running
// header/footer prose (as opposed to <script>/<style>/structural wrappers).
func isProseBlock(n *Node) bool {
	if strings.TrimSpace(n.Text) == "" {
		return false
	}
	switch n.Tag {
	case "p", "div", "span", "td", "h1", "h2", "h3", "h4", "h5", "h6", "center", "b", "strong", "font":
		return true
	}
	return false
}

// pageCount estimates the number of pages in a tree by counting elements
// that look like explicit page-break constructs.
func pageCount(t *Tree) int {
	count := 0
	Walk(t.Root, func(n *Node) {
		if isPageMarker(n) {
			count++
		}
	})
	if count == 0 {
		return 1
	}
	return count
}

// PageCount exposes pageCount for callers outside the package (the scorer
// needs each file's page count to turn a signature's occurrence count into
// the pagehead-like ratio feature of §4.4).
func PageCount(t *Tree) int { return pageCount(t) }

func isPageMarker(n *Node) bool {
	if n.HasClass("pagenumber") || n.HasClass("PageNumber") || n.HasClass("page-break") || n.HasClass("pagebreak") {
		return true
	}
	if n.Attrs["style"] != "" && strings.Contains(strings.ToLower(n.Attrs["style"]), "page-break-before") {
		return true
	}
	return false
}

func tagPageMarkers(t *Tree) {
	idx := 0
	Walk(t.Root, func(n *Node) {
		if isPageMarker(n) {
			n.Noise = NoisePageMarker
			i := idx
			n.PageIndex = &i
			idx++
		}
	})
}

// tagFootnotes tags class/role-identified footnote spans, and blocks
// following a horizontal rule at end-of-page with smaller typography
// (§4.2). The latter heuristic looks at siblings following an <hr> within
// the same parent.
func tagFootnotes(t *Tree) {
	Walk(t.Root, func(n *Node) {
		if n.HasClass("footnote") || n.Attrs["role"] == "footnote" || n.HasClass("fn") {
			n.Noise = NoiseFootnote
			return
		}
	})
	Walk(t.Root, func(n *Node) {
		var afterHR bool
		for _, c := range n.Children {
			if c.Tag == "hr" {
				afterHR = true
				continue
			}
			if afterHR && isSmallerTypography(c) {
				c.Noise = NoiseFootnote
			}
		}
	})
}

func isSmallerTypography(n *Node) bool {
	style := strings.ToLower(n.Attrs["style"])
	if strings.Contains(style, "font-size") {
		return true
	}
	if size, ok := n.Attrs["size"]; ok && n.Tag == "font" {
		return size == "1" || size == "2"
	}
	return false
}

// tagMetadata tags content in the first page(s) before the first strong
// heading signal, or containing title-page tokens (§4.2).
func tagMetadata(t *Tree) {
	var firstHeadingSeen bool
	Walk(t.Root, func(n *Node) {
		if isProseBlock(n) && n.Noise == "" && containsTitlePageToken(n.Text) {
			n.Noise = NoiseMetadata
		}
		if firstHeadingSeen {
			return
		}
		if looksLikeStrongHeading(n) {
			firstHeadingSeen = true
			return
		}
		if isProseBlock(n) && n.Noise == "" {
			n.Noise = NoiseMetadata
		}
	})
}

func containsTitlePageToken(text string) bool {
	for _, tok := range titlePageTokens {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}

var titlePageTokens = []string{"المؤلف", "الناشر", "الطبعة", "author", "publisher"}

func looksLikeStrongHeading(n *Node) bool {
	if n.HasClass("title") || n.HasClass("PartName") {
		return true
	}
	text := strings.TrimSpace(n.Text)
	if text == "" {
		return false
	}
	for _, tok := range headingLexicalTokens {
		if strings.HasPrefix(text, tok) {
			return true
		}
	}
	return false
}

// headingLexicalTokens are the Arabic heading cue words of §4.3.
var headingLexicalTokens = []string{
	"باب", "فصل", "تنبيه", "قاعدة", "فائدة", "مسألة", "تمهيد", "خاتمة",
}
