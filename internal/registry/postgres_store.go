package registry

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
)

// PostgresStore is the production Repository backend. It talks to Postgres
// directly via pgx/v5 rather than through a generated ORM client, so the
// schema lives in the schemaSQL constant below instead of in codegen'd Go.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) EnsureLoaded(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}

func (s *PostgresStore) PutTopic(ctx context.Context, t ibptypes.Topic) error {
	aliasesAr, _ := json.Marshal(t.AliasesAr)
	aliasesEn, _ := json.Marshal(t.AliasesEn)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO topics (topic_id, parent_topic_id, display_title_ar, display_title_en,
			aliases_ar, aliases_en, status, created_by, created_at, notes, sequence_number)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (topic_id) DO UPDATE SET
			display_title_ar = EXCLUDED.display_title_ar,
			display_title_en = EXCLUDED.display_title_en,
			aliases_ar = EXCLUDED.aliases_ar,
			aliases_en = EXCLUDED.aliases_en,
			status = EXCLUDED.status,
			notes = EXCLUDED.notes
	`, t.TopicID, nullable(t.ParentTopicID), t.DisplayTitleAr, t.DisplayTitleEn,
		aliasesAr, aliasesEn, string(t.Status), string(t.CreatedBy), t.CreatedAt, t.Notes, t.SequenceNumber)
	return err
}

func (s *PostgresStore) GetTopic(ctx context.Context, topicID string) (ibptypes.Topic, bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT topic_id, parent_topic_id, display_title_ar, display_title_en,
			aliases_ar, aliases_en, status, created_by, created_at, notes, sequence_number
		FROM topics WHERE topic_id = $1`, topicID)
	t, err := scanTopic(row)
	if err != nil {
		if isNoRows(err) {
			return ibptypes.Topic{}, false, nil
		}
		return ibptypes.Topic{}, false, err
	}
	return t, true, nil
}

func (s *PostgresStore) ListTopics(ctx context.Context) ([]ibptypes.Topic, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT topic_id, parent_topic_id, display_title_ar, display_title_en,
			aliases_ar, aliases_en, status, created_by, created_at, notes, sequence_number
		FROM topics ORDER BY sequence_number ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ibptypes.Topic
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) PutChunk(ctx context.Context, c ibptypes.Chunk) error {
	prov, _ := json.Marshal(c.Provenance)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chunks (chunk_id, book_id, title, level, body, footnotes_section,
			provenance, status, supersedes_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (chunk_id) DO NOTHING
	`, c.ChunkID, c.BookID, c.Title, c.Level, c.Body, c.FootnotesSection,
		prov, string(c.Status), nullable(c.SupersedesID))
	return err
}

func (s *PostgresStore) GetChunk(ctx context.Context, chunkID string) (ibptypes.Chunk, bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT chunk_id, book_id, title, level, body, footnotes_section, provenance, status, supersedes_id
		FROM chunks WHERE chunk_id = $1`, chunkID)
	c, err := scanChunk(row)
	if err != nil {
		if isNoRows(err) {
			return ibptypes.Chunk{}, false, nil
		}
		return ibptypes.Chunk{}, false, err
	}
	return c, true, nil
}

func (s *PostgresStore) ListChunksByBook(ctx context.Context, bookID string) ([]ibptypes.Chunk, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT chunk_id, book_id, title, level, body, footnotes_section, provenance, status, supersedes_id
		FROM chunks WHERE book_id = $1`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ibptypes.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) PutProjection(ctx context.Context, p ibptypes.Projection) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO projections (topic_id, chunk_id, canonical_path, projected_path, link_type)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (topic_id, chunk_id) DO UPDATE SET
			canonical_path = EXCLUDED.canonical_path,
			projected_path = EXCLUDED.projected_path,
			link_type = EXCLUDED.link_type
	`, p.TopicID, p.ChunkID, p.CanonicalPath, p.ProjectedPath, string(p.LinkType))
	return err
}

func (s *PostgresStore) ListProjectionsByTopic(ctx context.Context, topicID string) ([]ibptypes.Projection, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT topic_id, chunk_id, canonical_path, projected_path, link_type
		FROM projections WHERE topic_id = $1`, topicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ibptypes.Projection
	for rows.Next() {
		var p ibptypes.Projection
		var linkType string
		if err := rows.Scan(&p.TopicID, &p.ChunkID, &p.CanonicalPath, &p.ProjectedPath, &linkType); err != nil {
			return nil, err
		}
		p.LinkType = ibptypes.LinkType(linkType)
		out = append(out, p)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isNoRows(err error) bool {
	return err != nil && err.Error() == "no rows in result set"
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS topics (
	topic_id TEXT PRIMARY KEY,
	parent_topic_id TEXT,
	display_title_ar TEXT NOT NULL,
	display_title_en TEXT,
	aliases_ar JSONB,
	aliases_en JSONB,
	status TEXT NOT NULL,
	created_by TEXT NOT NULL,
	created_at TEXT NOT NULL,
	notes TEXT,
	sequence_number INT NOT NULL
);
CREATE TABLE IF NOT EXISTS chunks (
	chunk_id TEXT PRIMARY KEY,
	book_id TEXT NOT NULL,
	title TEXT NOT NULL,
	level INT NOT NULL,
	body TEXT NOT NULL,
	footnotes_section TEXT,
	provenance JSONB NOT NULL,
	status TEXT NOT NULL,
	supersedes_id TEXT
);
CREATE INDEX IF NOT EXISTS chunks_book_id_idx ON chunks (book_id);
CREATE TABLE IF NOT EXISTS projections (
	topic_id TEXT NOT NULL,
	chunk_id TEXT NOT NULL,
	canonical_path TEXT NOT NULL,
	projected_path TEXT NOT NULL,
	link_type TEXT NOT NULL,
	PRIMARY KEY (topic_id, chunk_id)
);
`
