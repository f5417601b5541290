package registry

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
	"github.com/rayanino/islamic-book-processor/internal/runctx"
)

// FileStore is the local, file-backed Repository used when IBP_REGISTRY_DSN
// is unset (§4.10, §6.1). Each collection is persisted as its own
// atomically-written newline-delimited JSON file under root/registry.
type FileStore struct {
	root string

	loadOnce sync.Once
	mu       sync.RWMutex
	topics   map[string]ibptypes.Topic
	chunks   map[string]ibptypes.Chunk
	projs    []ibptypes.Projection
}

func NewFileStore(root string) *FileStore {
	return &FileStore{
		root:   root,
		topics: map[string]ibptypes.Topic{},
		chunks: map[string]ibptypes.Chunk{},
	}
}

func (s *FileStore) topicsPath() string { return filepath.Join(s.root, "registry", "topics.json") }
func (s *FileStore) chunksPath() string { return filepath.Join(s.root, "registry", "chunks.json") }
func (s *FileStore) projsPath() string  { return filepath.Join(s.root, "registry", "projections.json") }

func (s *FileStore) EnsureLoaded(_ context.Context) error {
	var loadErr error
	s.loadOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		loadErr = loadInto(s.topicsPath(), &s.topics)
		if loadErr != nil {
			return
		}
		loadErr = loadInto(s.chunksPath(), &s.chunks)
		if loadErr != nil {
			return
		}
		var projs []ibptypes.Projection
		if err := loadSlice(s.projsPath(), &projs); err != nil {
			loadErr = err
			return
		}
		s.projs = projs
	})
	return loadErr
}

// readJSONL reads a newline-delimited JSON file (the format
// runctx.WriteJSONLAtomic writes) and calls add for each decoded line.
func readJSONL[T any](path string, add func(T)) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var v T
		if err := json.Unmarshal(line, &v); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		add(v)
	}
	return scanner.Err()
}

func loadInto[T any](path string, dst *map[string]T) error {
	return readJSONL(path, func(v T) {
		switch item := any(v).(type) {
		case ibptypes.Topic:
			(*dst)[item.TopicID] = any(item).(T)
		case ibptypes.Chunk:
			(*dst)[item.ChunkID] = any(item).(T)
		}
	})
}

func loadSlice(path string, dst *[]ibptypes.Projection) error {
	return readJSONL(path, func(v ibptypes.Projection) {
		*dst = append(*dst, v)
	})
}

func (s *FileStore) PutTopic(_ context.Context, t ibptypes.Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics[t.TopicID] = t
	return s.saveTopicsLocked()
}

func (s *FileStore) GetTopic(_ context.Context, topicID string) (ibptypes.Topic, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.topics[topicID]
	return t, ok, nil
}

func (s *FileStore) ListTopics(_ context.Context) ([]ibptypes.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ibptypes.Topic, 0, len(s.topics))
	for _, t := range s.topics {
		out = append(out, t)
	}
	return out, nil
}

func (s *FileStore) PutChunk(_ context.Context, c ibptypes.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.chunks[c.ChunkID]; ok && existing.Status == ibptypes.ChunkActive && c.Status == ibptypes.ChunkActive {
		return fmt.Errorf("registry: chunk_id %q already exists (I1 invariant)", c.ChunkID)
	}
	s.chunks[c.ChunkID] = c
	return s.saveChunksLocked()
}

func (s *FileStore) GetChunk(_ context.Context, chunkID string) (ibptypes.Chunk, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[chunkID]
	return c, ok, nil
}

func (s *FileStore) ListChunksByBook(_ context.Context, bookID string) ([]ibptypes.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ibptypes.Chunk
	for _, c := range s.chunks {
		if c.BookID == bookID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *FileStore) PutProjection(_ context.Context, p ibptypes.Projection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.projs {
		if existing.TopicID == p.TopicID && existing.ChunkID == p.ChunkID {
			s.projs[i] = p
			return s.saveProjectionsLocked()
		}
	}
	s.projs = append(s.projs, p)
	return s.saveProjectionsLocked()
}

func (s *FileStore) ListProjectionsByTopic(_ context.Context, topicID string) ([]ibptypes.Projection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ibptypes.Projection
	for _, p := range s.projs {
		if p.TopicID == topicID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *FileStore) saveTopicsLocked() error {
	list := make([]ibptypes.Topic, 0, len(s.topics))
	for _, t := range s.topics {
		list = append(list, t)
	}
	return runctx.WriteJSONLAtomic(s.topicsPath(), list, func(t ibptypes.Topic) string { return t.TopicID })
}

func (s *FileStore) saveChunksLocked() error {
	list := make([]ibptypes.Chunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		list = append(list, c)
	}
	return runctx.WriteJSONLAtomic(s.chunksPath(), list, func(c ibptypes.Chunk) string { return c.ChunkID })
}

func (s *FileStore) saveProjectionsLocked() error {
	return runctx.WriteJSONLAtomic(s.projsPath(), s.projs, func(p ibptypes.Projection) string { return p.TopicID + "\x1f" + p.ChunkID })
}
