package domnorm

import (
	"regexp"
	"strings"
)

// Derived is the per-file plain markup derived from a Tree (§4.2). Pagehead
// and page_marker noise is dropped; footnote-tagged spans are kept inline
// but recorded in Footnotes so the splitter (C8) can relocate them into a
// trailing "## FOOTNOTES" section per chunk without losing any bytes (I3).
type Derived struct {
	File      string
	Text      string
	Footnotes []Span
	// Offsets maps a node's DOMPath to its [start,end) byte range in Text,
	// used by the candidate generator to place insertion_offset correctly.
	Offsets map[string]Span
}

// Span is a half-open [Start, End) byte range into Derived.Text.
type Span struct {
	Start int
	End   int
}

var whitespaceRe = regexp.MustCompile(`[ \t]+`)

// Derive walks t in document order and emits the plain markup for file,
// collapsing whitespace and dropping pagehead/page_marker text, per §4.2's
// "Cleaning allowed" list. Text re-ordering and summarization are never
// performed: surviving nodes are emitted in exactly their document order.
//
// Every offset recorded into d.Offsets/d.Footnotes is a byte range into the
// exact string that ends up in d.Text: blank-line collapsing happens
// incrementally as each node's text is appended (via writeCollapsingBlankRuns),
// never as a whole-string pass afterward, so no later rewrite can shift a
// byte range recorded earlier out from under it.
func Derive(file string, t *Tree) *Derived {
	d := &Derived{File: file, Offsets: map[string]Span{}}
	var b strings.Builder

	Walk(t.Root, func(n *Node) {
		if n.Noise == NoisePagehead || n.Noise == NoisePageMarker {
			return
		}
		// n.Text holds only this node's own direct text-node children
		// (see Parse), so walking every node and emitting n.Text cannot
		// double-count a descendant's text.
		text := strings.TrimSpace(n.Text)
		if text == "" {
			return
		}
		text = collapseWhitespace(text)

		start := b.Len()
		writeCollapsingBlankRuns(&b, text)
		b.WriteByte('\n')
		end := b.Len()

		d.Offsets[n.DOMPath] = Span{Start: start, End: end}
		if n.Noise == NoiseFootnote {
			d.Footnotes = append(d.Footnotes, Span{Start: start, End: end})
		}
	})

	d.Text = b.String()
	return d
}

// writeCollapsingBlankRuns appends s to b, collapsing any run of 3+
// consecutive newlines (within s, or spanning the boundary with whatever b
// already ends in) down to exactly 2, so the offsets recorded by the
// caller immediately after this call are already final (§4.2 "collapse
// whitespace").
func writeCollapsingBlankRuns(b *strings.Builder, s string) {
	run := trailingNewlines(b.String())
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			run++
			if run > 2 {
				continue
			}
		} else {
			run = 0
		}
		b.WriteByte(s[i])
	}
}

func trailingNewlines(s string) int {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\n'; i-- {
		n++
	}
	return n
}

func collapseWhitespace(s string) string {
	s = whitespaceRe.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.Join(lines, "\n")
}
