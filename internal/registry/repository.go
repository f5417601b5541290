// Package registry implements C10 (§4.10): the registry of record (topics,
// chunks, projections) behind one swappable Repository interface, plus
// filesystem projection and --clean-book archival. Books and
// cross-references are not stored in the registry.
package registry

import (
	"context"

	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
)

// Repository is the storage-agnostic surface the rest of the pipeline
// depends on. Two backends exist: a Postgres-backed store for production
// use and a file-backed store for local/dry-run use (§4.10, §6.1).
type Repository interface {
	EnsureLoaded(ctx context.Context) error

	PutTopic(ctx context.Context, t ibptypes.Topic) error
	GetTopic(ctx context.Context, topicID string) (ibptypes.Topic, bool, error)
	ListTopics(ctx context.Context) ([]ibptypes.Topic, error)

	PutChunk(ctx context.Context, c ibptypes.Chunk) error
	GetChunk(ctx context.Context, chunkID string) (ibptypes.Chunk, bool, error)
	ListChunksByBook(ctx context.Context, bookID string) ([]ibptypes.Chunk, error)

	PutProjection(ctx context.Context, p ibptypes.Projection) error
	ListProjectionsByTopic(ctx context.Context, topicID string) ([]ibptypes.Projection, error)
}
