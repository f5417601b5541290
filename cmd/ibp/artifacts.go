package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
	"github.com/rayanino/islamic-book-processor/internal/runctx"
)

// bookMeta is the shape of a book's meta.json (§6.1): science, title, author.
type bookMeta struct {
	Science ibptypes.Science `json:"science"`
	Title   string           `json:"title"`
	Author  string           `json:"author"`
}

func loadMeta(path string) (bookMeta, error) {
	var m bookMeta
	raw, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return m, fmt.Errorf("meta.json: %w", err)
	}
	if !ibptypes.ValidScience(m.Science) {
		return m, fmt.Errorf("meta.json: unrecognized science %q", m.Science)
	}
	return m, nil
}

// loadMustNotHeading reads the must-not-heading fixture (§6.1): a JSON
// array of surface-form strings. A missing path is not an error — an
// ingest with no fixture simply has an empty must-not-heading set.
func loadMustNotHeading(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("must-not-heading fixture: %w", err)
	}
	return list, nil
}

func runStatePath(runDir string) string { return filepath.Join(runDir, "run.json") }

func saveRun(runDir string, run ibptypes.Run) error {
	return runctx.WriteJSONAtomic(runStatePath(runDir), run)
}

func loadRun(runsRoot, runID string) (ibptypes.Run, string, error) {
	runDir := runctx.RunDir(runsRoot, runID)
	var run ibptypes.Run
	if err := runctx.ReadJSON(runStatePath(runDir), &run); err != nil {
		return run, runDir, fmt.Errorf("run %q: %w", runID, err)
	}
	return run, runDir, nil
}

func mustOpenApproval(path string, v any) {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("reading approval artifact %s: %v", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		log.Fatalf("parsing approval artifact %s: %v", path, err)
	}
}
