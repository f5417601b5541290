// Package runctx provides run identity derivation and the atomic,
// natural-key-sorted artifact I/O helpers used by every stage (§5, §6.4).
package runctx

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
)

// WriteFileAtomic writes data to path via a temp file + rename so readers
// never observe a partially-written artifact (§4.5, §6.4).
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// WriteJSONAtomic marshals v with indentation and writes it atomically.
func WriteJSONAtomic(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	raw = append(raw, '\n')
	return WriteFileAtomic(path, raw, 0o644)
}

// WriteJSONLAtomic writes one JSON object per line, UTF-8 without BOM,
// sorted by the caller-supplied natural key (§6.4).
func WriteJSONLAtomic[T any](path string, items []T, key func(T) string) error {
	sorted := append([]T(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return key(sorted[i]) < key(sorted[j]) })

	var buf []byte
	for _, it := range sorted {
		line, err := json.Marshal(it)
		if err != nil {
			return err
		}
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}
	if buf == nil {
		buf = []byte{}
	}
	return WriteFileAtomic(path, buf, 0o644)
}

// ReadJSON reads and unmarshals a JSON artifact. It returns os.ErrNotExist
// (wrapped) when the file is absent so callers can distinguish "no prior
// run state" from a corrupt artifact.
func ReadJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
