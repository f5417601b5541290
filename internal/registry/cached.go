package registry

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
)

// Cached wraps a Repository with a read-through LRU cache over chunk and
// topic lookups by ID, so repeated placement/projection lookups within a
// run don't round-trip to Postgres for data that can't change mid-run.
type Cached struct {
	inner  Repository
	topics *lru.Cache[string, ibptypes.Topic]
	chunks *lru.Cache[string, ibptypes.Chunk]
}

func NewCached(inner Repository, size int) (*Cached, error) {
	if size <= 0 {
		size = 1024
	}
	topics, err := lru.New[string, ibptypes.Topic](size)
	if err != nil {
		return nil, err
	}
	chunks, err := lru.New[string, ibptypes.Chunk](size)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, topics: topics, chunks: chunks}, nil
}

func (c *Cached) EnsureLoaded(ctx context.Context) error { return c.inner.EnsureLoaded(ctx) }

func (c *Cached) PutTopic(ctx context.Context, t ibptypes.Topic) error {
	if err := c.inner.PutTopic(ctx, t); err != nil {
		return err
	}
	c.topics.Add(t.TopicID, t)
	return nil
}

func (c *Cached) GetTopic(ctx context.Context, topicID string) (ibptypes.Topic, bool, error) {
	if t, ok := c.topics.Get(topicID); ok {
		return t, true, nil
	}
	t, ok, err := c.inner.GetTopic(ctx, topicID)
	if err == nil && ok {
		c.topics.Add(topicID, t)
	}
	return t, ok, err
}

func (c *Cached) ListTopics(ctx context.Context) ([]ibptypes.Topic, error) {
	return c.inner.ListTopics(ctx)
}

func (c *Cached) PutChunk(ctx context.Context, ch ibptypes.Chunk) error {
	if err := c.inner.PutChunk(ctx, ch); err != nil {
		return err
	}
	c.chunks.Add(ch.ChunkID, ch)
	return nil
}

func (c *Cached) GetChunk(ctx context.Context, chunkID string) (ibptypes.Chunk, bool, error) {
	if ch, ok := c.chunks.Get(chunkID); ok {
		return ch, true, nil
	}
	ch, ok, err := c.inner.GetChunk(ctx, chunkID)
	if err == nil && ok {
		c.chunks.Add(chunkID, ch)
	}
	return ch, ok, err
}

func (c *Cached) ListChunksByBook(ctx context.Context, bookID string) ([]ibptypes.Chunk, error) {
	return c.inner.ListChunksByBook(ctx, bookID)
}

func (c *Cached) PutProjection(ctx context.Context, p ibptypes.Projection) error {
	return c.inner.PutProjection(ctx, p)
}

func (c *Cached) ListProjectionsByTopic(ctx context.Context, topicID string) ([]ibptypes.Projection, error) {
	return c.inner.ListProjectionsByTopic(ctx, topicID)
}
