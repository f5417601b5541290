package registry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CleanBook archives every prior output directory for bookID under
// _ARCHIVE/<book_id>/<timestamp>/... before a rerun (§4.10). It never
// deletes in place: each move is a copy-then-remove-source so a failure
// partway through leaves the archive incomplete rather than losing data
// outright, and the source directories are only removed once their
// archive copy is confirmed written.
func CleanBook(dataRoot, bookID, timestamp string) error {
	archiveRoot := filepath.Join(dataRoot, "_ARCHIVE", bookID, timestamp)

	sources := []string{
		filepath.Join(dataRoot, "chunks_by_book", bookID),
		filepath.Join(dataRoot, "_ANCHOR_MISS", bookID),
		filepath.Join(dataRoot, "_REVIEW", bookID),
	}

	for _, src := range sources {
		info, err := os.Stat(src)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		if !info.IsDir() {
			continue
		}
		dst := filepath.Join(archiveRoot, filepath.Base(src))
		if err := copyDir(src, dst); err != nil {
			return fmt.Errorf("archiving %s: %w", src, err)
		}
		if err := os.RemoveAll(src); err != nil {
			return fmt.Errorf("clearing %s after archiving: %w", src, err)
		}
	}
	return nil
}

func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}
