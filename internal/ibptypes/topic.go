package ibptypes

// TopicStatus tracks a Topic's lifecycle (§3).
type TopicStatus string

const (
	TopicActive     TopicStatus = "active"
	TopicMerged     TopicStatus = "merged"
	TopicDeprecated TopicStatus = "deprecated"
)

// CreatedBy records who/what introduced a Topic (§3).
type CreatedBy string

const (
	CreatedByRule   CreatedBy = "rule"
	CreatedByOracle CreatedBy = "oracle"
	CreatedByHuman  CreatedBy = "human"
)

// Topic is a node in the encyclopedic taxonomy (§3).
type Topic struct {
	TopicID        string      `json:"topic_id"` // stable immutable "T######"
	ParentTopicID  string      `json:"parent_topic_id,omitempty"`
	DisplayTitleAr string      `json:"display_title_ar"`
	DisplayTitleEn string      `json:"display_title_en,omitempty"`
	AliasesAr      []string    `json:"aliases_ar,omitempty"`
	AliasesEn      []string    `json:"aliases_en,omitempty"`
	Status         TopicStatus `json:"status"`
	CreatedBy      CreatedBy   `json:"created_by"`
	CreatedAt      string      `json:"created_at"` // RFC3339
	Notes          string      `json:"notes,omitempty"`
	SequenceNumber int         `json:"-"` // Postgres sort column for ListTopics; not persisted by the file store, and 0 unless a caller sets it
}

// LinkType records how a Projection row was materialized (§3, §4.10).
type LinkType string

const (
	LinkHardlink LinkType = "hardlink"
	LinkCopy     LinkType = "copy"
)

// Projection maps one (topic, chunk) pair to filesystem paths (§3).
type Projection struct {
	TopicID      string   `json:"topic_id"`
	ChunkID      string   `json:"chunk_id"`
	CanonicalPath string  `json:"canonical_path"`
	ProjectedPath string  `json:"projected_path"`
	LinkType     LinkType `json:"link_type"`
}

// PlacementProposal is C9's output for one chunk (§4.9).
type PlacementProposal struct {
	ChunkID                string             `json:"chunk_id"`
	CandidateTopics        []TopicSimilarity  `json:"candidate_topics"`
	BoundaryConfidence     float64            `json:"boundary_confidence"`
	TopicPurityConfidence  float64            `json:"topic_purity_confidence"`
	PlacementConfidence    float64            `json:"placement_confidence"`
	ReviewRequired         bool               `json:"review_required"`
	NewTopicSuggested      bool               `json:"new_topic_suggested,omitempty"`
	ExercisesFamily        bool               `json:"exercises_family,omitempty"`
}

// TopicSimilarity ranks a candidate topic by its similarity score.
type TopicSimilarity struct {
	TopicID    string  `json:"topic_id"`
	Similarity float64 `json:"similarity"`
}
