package runctx

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
)

// DeriveRunID computes a deterministic run_id from the ingest manifest and a
// caller-supplied timestamp string (§4.1: "The manifest seeds the run_id").
// Passing the same manifest and timestamp always reproduces the same run_id,
// which is what makes a resumed run locate its own artifacts (§4.5, §8).
func DeriveRunID(bookID string, files []ibptypes.SourceFile, timestamp string) string {
	sorted := append([]ibptypes.SourceFile(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	h := sha256.New()
	fmt.Fprintf(h, "book=%s\n", bookID)
	for _, f := range sorted {
		fmt.Fprintf(h, "file=%s size=%d sha256=%s\n", f.Path, f.Size, f.SHA256)
	}
	fmt.Fprintf(h, "ts=%s\n", timestamp)
	sum := h.Sum(nil)
	return bookID + "-" + hex.EncodeToString(sum[:8])
}

// RunDir returns the artifact directory for a run, rooted at runsRoot.
func RunDir(runsRoot, runID string) string {
	return runsRoot + "/" + runID
}
