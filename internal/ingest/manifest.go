// Package ingest implements C1 (§4.1): deterministic enumeration of a
// book's source files, encoding detection, content hashing, and manifest
// emission.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/rayanino/islamic-book-processor/internal/ibperr"
	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
)

// RawFile is a source file's bytes alongside its manifest entry, handed to
// the DOM normalizer. Raw bytes are preserved verbatim; Manifest applies no
// normalization to them (the NFC form is available through Fingerprint).
type RawFile struct {
	Entry ibptypes.SourceFile
	Raw   []byte
}

var metaCharsetRe = regexp.MustCompile(`(?i)<meta[^>]+charset\s*=\s*["']?([a-zA-Z0-9_\-]+)`)
var httpEquivCharsetRe = regexp.MustCompile(`(?i)<meta[^>]+http-equiv\s*=\s*["']?content-type["']?[^>]*content\s*=\s*["'][^"']*charset=([a-zA-Z0-9_\-]+)`)

// Manifest enumerates root's HTML files in stable lexicographic order of
// their relative paths, detects encoding, and computes sha256 over the raw
// bytes (§4.1). No NFC normalization is applied here.
//
// On an encoding conflict (the bytes are valid UTF-8 but a non-UTF-8
// charset is declared, whether or not the two decodings would differ) the
// file fails closed with an InputError.
func Manifest(bookID string, root string) (ibptypes.Book, []RawFile, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".html" && ext != ".htm" {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return ibptypes.Book{}, nil, ibperr.New(ibperr.KindInput, root, err)
	}
	sort.Strings(paths)

	files := make([]ibptypes.SourceFile, 0, len(paths))
	raws := make([]RawFile, 0, len(paths))
	for i, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			rel = p
		}
		rel = filepath.ToSlash(rel)

		raw, err := os.ReadFile(p)
		if err != nil {
			return ibptypes.Book{}, nil, ibperr.New(ibperr.KindInput, rel, err)
		}

		enc, err := detectEncoding(raw)
		if err != nil {
			return ibptypes.Book{}, nil, ibperr.New(ibperr.KindInput, rel, err)
		}

		sum := sha256.Sum256(raw)
		entry := ibptypes.SourceFile{
			Path:       rel,
			Size:       int64(len(raw)),
			SHA256:     hex.EncodeToString(sum[:]),
			Encoding:   enc,
			OrderIndex: i,
		}
		files = append(files, entry)
		raws = append(raws, RawFile{Entry: entry, Raw: raw})
	}

	book := ibptypes.Book{BookID: bookID, Files: files}
	return book, raws, nil
}

// detectEncoding prefers UTF-8, falls back to a declared HTML charset, then
// a declared meta-charset, and fails closed if the two disagree after both
// are present (§4.1).
func detectEncoding(raw []byte) (string, error) {
	declared := declaredCharset(raw)

	if utf8Valid(raw) {
		if declared != "" && !isUTF8Alias(declared) {
			return "", fmt.Errorf("encoding conflict: content decodes as UTF-8 but declares charset %q", declared)
		}
		return "utf-8", nil
	}
	if declared != "" {
		return strings.ToLower(declared), nil
	}
	return "", fmt.Errorf("cannot determine encoding: invalid UTF-8 and no declared charset")
}

func declaredCharset(raw []byte) string {
	head := raw
	if len(head) > 4096 {
		head = head[:4096]
	}
	if m := metaCharsetRe.FindSubmatch(head); m != nil {
		return string(m[1])
	}
	if m := httpEquivCharsetRe.FindSubmatch(head); m != nil {
		return string(m[1])
	}
	return ""
}

func isUTF8Alias(charset string) bool {
	c := strings.ToLower(strings.TrimSpace(charset))
	return c == "utf-8" || c == "utf8"
}

func utf8Valid(raw []byte) bool {
	return utf8.Valid(raw)
}

// Fingerprint returns the NFC-normalized text of raw. Manifest does not call
// it, and candidate IDs NFC-normalize node text on their own. Raw bytes
// passed to storage are never touched by this.
func Fingerprint(raw []byte) string {
	return norm.NFC.String(string(raw))
}
