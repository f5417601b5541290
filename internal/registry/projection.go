package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
)

var illegalChars = regexp.MustCompile(`[\\/:*?"<>|]`)

// FolderSegment builds the `T######__<sanitized-arabic-title>` folder
// segment of §4.10: NFC normalize, spaces to underscores, strip illegal
// filesystem characters, trim trailing dots/spaces, cap at 80 characters.
// The full title is never truncated in the registry itself, only in this
// derived folder name.
func FolderSegment(topicID, displayTitleAr string) string {
	title := norm.NFC.String(displayTitleAr)
	title = strings.ReplaceAll(title, " ", "_")
	title = illegalChars.ReplaceAllString(title, "")
	title = strings.TrimRight(title, ". ")
	runes := []rune(title)
	const maxLen = 80
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}
	return fmt.Sprintf("%s__%s", topicID, string(runes))
}

// Project materializes canonical and projected paths for a chunk placed
// under a topic (§4.10): the canonical file lives under
// chunks_by_book/<book_id>/, and a link (hardlink, falling back to copy)
// is created at the projected path under topics/<folder_segment>/.
func Project(dataRoot string, topic ibptypes.Topic, chunk ibptypes.Chunk) (ibptypes.Projection, error) {
	canonicalDir := filepath.Join(dataRoot, "chunks_by_book", chunk.BookID)
	if err := os.MkdirAll(canonicalDir, 0o755); err != nil {
		return ibptypes.Projection{}, err
	}
	canonicalPath := filepath.Join(canonicalDir, "chunk_"+chunk.ChunkID+".md")
	if _, err := os.Stat(canonicalPath); os.IsNotExist(err) {
		if err := os.WriteFile(canonicalPath, []byte(renderChunk(chunk)), 0o644); err != nil {
			return ibptypes.Projection{}, err
		}
	}

	segment := FolderSegment(topic.TopicID, topic.DisplayTitleAr)
	projectedDir := filepath.Join(dataRoot, "topics", segment)
	if err := os.MkdirAll(projectedDir, 0o755); err != nil {
		return ibptypes.Projection{}, err
	}
	projectedPath := filepath.Join(projectedDir, "chunk_"+chunk.ChunkID+".md")

	linkType := ibptypes.LinkHardlink
	_ = os.Remove(projectedPath)
	if err := os.Link(canonicalPath, projectedPath); err != nil {
		linkType = ibptypes.LinkCopy
		data, err := os.ReadFile(canonicalPath)
		if err != nil {
			return ibptypes.Projection{}, err
		}
		if err := os.WriteFile(projectedPath, data, 0o644); err != nil {
			return ibptypes.Projection{}, err
		}
	}

	return ibptypes.Projection{
		TopicID:       topic.TopicID,
		ChunkID:       chunk.ChunkID,
		CanonicalPath: canonicalPath,
		ProjectedPath: projectedPath,
		LinkType:      linkType,
	}, nil
}

func renderChunk(c ibptypes.Chunk) string {
	var b strings.Builder
	prefix := strings.Repeat("#", c.Level)
	fmt.Fprintf(&b, "%s %s\n\n%s\n", prefix, c.Title, c.Body)
	if c.FootnotesSection != "" {
		fmt.Fprintf(&b, "\n%s\n", c.FootnotesSection)
	}
	return b.String()
}
