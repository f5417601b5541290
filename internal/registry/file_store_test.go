package registry

import (
	"context"
	"testing"

	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
)

func TestFileStorePutGetTopicRoundTrips(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	s := NewFileStore(dir)
	if err := s.EnsureLoaded(ctx); err != nil {
		t.Fatalf("EnsureLoaded: %v", err)
	}
	topic := ibptypes.Topic{TopicID: "T000001", DisplayTitleAr: "الصلاة", Status: ibptypes.TopicActive, CreatedBy: ibptypes.CreatedByRule}
	if err := s.PutTopic(ctx, topic); err != nil {
		t.Fatalf("PutTopic: %v", err)
	}

	got, ok, err := s.GetTopic(ctx, "T000001")
	if err != nil || !ok {
		t.Fatalf("GetTopic: ok=%v err=%v", ok, err)
	}
	if got.DisplayTitleAr != "الصلاة" {
		t.Fatalf("unexpected topic: %+v", got)
	}
}

func TestFileStorePersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	s1 := NewFileStore(dir)
	_ = s1.EnsureLoaded(ctx)
	chunk := ibptypes.Chunk{ChunkID: "c1", BookID: "book1", Title: "باب", Status: ibptypes.ChunkActive}
	if err := s1.PutChunk(ctx, chunk); err != nil {
		t.Fatalf("PutChunk: %v", err)
	}

	s2 := NewFileStore(dir)
	if err := s2.EnsureLoaded(ctx); err != nil {
		t.Fatalf("EnsureLoaded (reload): %v", err)
	}
	got, ok, err := s2.GetChunk(ctx, "c1")
	if err != nil || !ok {
		t.Fatalf("GetChunk after reload: ok=%v err=%v", ok, err)
	}
	if got.BookID != "book1" {
		t.Fatalf("unexpected reloaded chunk: %+v", got)
	}
}

func TestFileStoreRejectsDuplicateActiveChunkID(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	s := NewFileStore(dir)
	_ = s.EnsureLoaded(ctx)
	chunk := ibptypes.Chunk{ChunkID: "c1", BookID: "book1", Status: ibptypes.ChunkActive}
	if err := s.PutChunk(ctx, chunk); err != nil {
		t.Fatalf("first PutChunk: %v", err)
	}
	if err := s.PutChunk(ctx, chunk); err == nil {
		t.Fatalf("expected I1 duplicate chunk_id error on second active PutChunk")
	}
}

func TestFolderSegmentSanitizesAndCaps(t *testing.T) {
	seg := FolderSegment("T000042", "باب الصلاة: أحكام*عامة")
	if seg == "" {
		t.Fatalf("expected non-empty segment")
	}
	for _, bad := range []string{"\\", "/", ":", "*", "?", "\"", "<", ">", "|"} {
		if containsRune(seg, bad) {
			t.Fatalf("expected illegal char %q stripped from %q", bad, seg)
		}
	}
}

func containsRune(s, substr string) bool {
	return len(s) >= len(substr) && (func() bool {
		for i := 0; i+len(substr) <= len(s); i++ {
			if s[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	})()
}
