package main

import (
	"context"
	"fmt"

	"github.com/rayanino/islamic-book-processor/internal/ibpconfig"
	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
	"github.com/rayanino/islamic-book-processor/internal/registry"
)

// openRepository picks the Postgres-backed store when IBP_REGISTRY_DSN is
// set, wrapped in the read-through LRU cache, and falls back to the local
// file store otherwise (§4.10, §6.1).
func openRepository(ctx context.Context, cfg ibpconfig.Config) (registry.Repository, error) {
	var repo registry.Repository
	if cfg.RegistryDSN != "" {
		pg, err := registry.NewPostgresStore(ctx, cfg.RegistryDSN)
		if err != nil {
			return nil, fmt.Errorf("connecting to registry: %w", err)
		}
		cached, err := registry.NewCached(pg, 4096)
		if err != nil {
			return nil, err
		}
		repo = cached
	} else {
		repo = registry.NewFileStore(cfg.DataRoot)
	}
	if err := repo.EnsureLoaded(ctx); err != nil {
		return nil, fmt.Errorf("loading registry: %w", err)
	}
	return repo, nil
}

// nextTopicID allocates the next sequential "T######" id, one above the
// highest id already on record, so it never collides with an existing id.
// It does not assign Topic.SequenceNumber. T000000 is reserved for the
// exercises-family topic and never allocated here.
func nextTopicID(topics []ibptypes.Topic) string {
	max := 0
	for _, t := range topics {
		var n int
		if _, err := fmt.Sscanf(t.TopicID, "T%06d", &n); err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("T%06d", max+1)
}
