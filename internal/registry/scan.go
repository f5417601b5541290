package registry

import (
	"encoding/json"

	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
)

// scanner abstracts pgx.Row and pgx.Rows, both of which expose Scan.
type scanner interface {
	Scan(dest ...any) error
}

func scanTopic(row scanner) (ibptypes.Topic, error) {
	var t ibptypes.Topic
	var parentID *string
	var aliasesAr, aliasesEn []byte
	var status, createdBy string

	if err := row.Scan(&t.TopicID, &parentID, &t.DisplayTitleAr, &t.DisplayTitleEn,
		&aliasesAr, &aliasesEn, &status, &createdBy, &t.CreatedAt, &t.Notes, &t.SequenceNumber); err != nil {
		return ibptypes.Topic{}, err
	}
	if parentID != nil {
		t.ParentTopicID = *parentID
	}
	_ = json.Unmarshal(aliasesAr, &t.AliasesAr)
	_ = json.Unmarshal(aliasesEn, &t.AliasesEn)
	t.Status = ibptypes.TopicStatus(status)
	t.CreatedBy = ibptypes.CreatedBy(createdBy)
	return t, nil
}

func scanChunk(row scanner) (ibptypes.Chunk, error) {
	var c ibptypes.Chunk
	var supersedes *string
	var prov []byte
	var status string

	if err := row.Scan(&c.ChunkID, &c.BookID, &c.Title, &c.Level, &c.Body, &c.FootnotesSection,
		&prov, &status, &supersedes); err != nil {
		return ibptypes.Chunk{}, err
	}
	if supersedes != nil {
		c.SupersedesID = *supersedes
	}
	_ = json.Unmarshal(prov, &c.Provenance)
	c.Status = ibptypes.ChunkStatus(status)
	return c, nil
}
