package registry

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCleanBookArchivesAndClearsSourceDirs(t *testing.T) {
	root := t.TempDir()
	bookDir := filepath.Join(root, "chunks_by_book", "book1")
	if err := os.MkdirAll(bookDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(bookDir, "c1.md"), []byte("## باب\nنص\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := CleanBook(root, "book1", "2026-07-31T00-00-00"); err != nil {
		t.Fatalf("CleanBook: %v", err)
	}

	if _, err := os.Stat(bookDir); !os.IsNotExist(err) {
		t.Fatalf("expected source dir removed after archiving, stat err=%v", err)
	}

	archived := filepath.Join(root, "_ARCHIVE", "book1", "2026-07-31T00-00-00", "book1", "c1.md")
	if _, err := os.Stat(archived); err != nil {
		t.Fatalf("expected archived copy at %s, got err=%v", archived, err)
	}
}

func TestCleanBookIsNoOpWhenNothingToArchive(t *testing.T) {
	root := t.TempDir()
	if err := CleanBook(root, "book-with-no-prior-output", "2026-07-31T00-00-00"); err != nil {
		t.Fatalf("expected no error archiving a book with no prior output, got %v", err)
	}
}
