package inject

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rayanino/islamic-book-processor/internal/domnorm"
	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
)

// anchorRe is the strict splitting boundary of §4.8: "^#{2,6}\s+" and
// nothing else triggers a chunk boundary.
var anchorRe = regexp.MustCompile(`(?m)^(#{2,6})[ \t]+(.*)$`)

// Split partitions injectedText into chunks at each anchor match. The
// region before the first anchor, if non-empty, is returned separately as
// an AnchorMiss rather than as a chunk (§4.8). footnoteSpans are byte
// ranges into injectedText (already adjusted via AdjustOffset) identifying
// footnote-tagged content to relocate to a trailing "## FOOTNOTES"
// sub-section of whichever chunk they fall in.
func Split(bookID, file, injectedText string, footnoteSpans []domnorm.Span, candidateHints []string) ([]ibptypes.Chunk, *ibptypes.AnchorMiss) {
	matches := anchorRe.FindAllStringSubmatchIndex(injectedText, -1)

	var miss *ibptypes.AnchorMiss
	if len(matches) == 0 || matches[0][0] > 0 {
		end := len(injectedText)
		if len(matches) > 0 {
			end = matches[0][0]
		}
		body := injectedText[:end]
		if strings.TrimSpace(body) != "" {
			miss = &ibptypes.AnchorMiss{
				BookID:         bookID,
				File:           file,
				Body:           body,
				CandidateHints: candidateHints,
			}
		}
	}

	var chunks []ibptypes.Chunk
	for i, m := range matches {
		hashStart, hashEnd := m[2], m[3]
		titleStart, titleEnd := m[4], m[5]
		level := hashEnd - hashStart
		title := strings.TrimSpace(injectedText[titleStart:titleEnd])

		bodyStart := m[1] // end of the full anchor line match (includes its own newline boundary handled by regexp $ which excludes \n; next char is \n)
		if bodyStart < len(injectedText) && injectedText[bodyStart] == '\n' {
			bodyStart++
		}
		bodyEnd := len(injectedText)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}
		rawBody := injectedText[bodyStart:bodyEnd]

		body, footnotesSection := relocateFootnotes(rawBody, bodyStart, bodyEnd, footnoteSpans)

		anchorLine := injectedText[m[0]:m[1]]
		chunkID := chunkID(bookID, file, anchorLine, m[0], bodyEnd)

		chunks = append(chunks, ibptypes.Chunk{
			ChunkID:          chunkID,
			BookID:           bookID,
			Title:            title,
			Level:            level,
			Body:             body,
			FootnotesSection: footnotesSection,
			Provenance: ibptypes.Provenance{
				File:        file,
				DOMAnchor:   anchorLine,
				StartOffset: m[0],
				EndOffset:   bodyEnd,
			},
			Status: ibptypes.ChunkActive,
		})
	}

	return chunks, miss
}

// relocateFootnotes moves any footnote span overlapping [bodyStart,
// bodyEnd) out of the chunk's main body and appends it to a trailing
// "## FOOTNOTES" sub-section, preserving every byte (I3) but never leaving
// footnote text interleaved with prose.
func relocateFootnotes(rawBody string, bodyStart, bodyEnd int, footnoteSpans []domnorm.Span) (body, footnotesSection string) {
	type cut struct{ start, end int }
	var cuts []cut
	for _, sp := range footnoteSpans {
		s, e := sp.Start, sp.End
		if s < bodyStart {
			s = bodyStart
		}
		if e > bodyEnd {
			e = bodyEnd
		}
		if s < e {
			cuts = append(cuts, cut{start: s - bodyStart, end: e - bodyStart})
		}
	}
	if len(cuts) == 0 {
		return rawBody, ""
	}

	var b strings.Builder
	var fn strings.Builder
	fn.WriteString("## FOOTNOTES\n")

	last := 0
	for _, c := range cuts {
		if c.start > last {
			b.WriteString(rawBody[last:c.start])
		}
		fn.WriteString(rawBody[c.start:c.end])
		last = c.end
	}
	if last < len(rawBody) {
		b.WriteString(rawBody[last:])
	}
	return b.String(), fn.String()
}

func chunkID(bookID, file, domAnchor string, start, end int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x1f%s\x1f%s\x1f%s\x1f%s", bookID, file, domAnchor, strconv.Itoa(start), strconv.Itoa(end))
	return hex.EncodeToString(h.Sum(nil))
}
