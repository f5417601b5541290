package ibptypes

// CandidateKind classifies the kind of text a Candidate surfaces.
type CandidateKind string

const (
	KindTitle    CandidateKind = "title"
	KindMetadata CandidateKind = "metadata"
	KindPagehead CandidateKind = "pagehead"
	KindFootnote CandidateKind = "footnote"
	KindBody     CandidateKind = "body"
)

// Signature is the structural fingerprint used to recognize two DOM nodes
// as structurally equivalent (pagehead detection, §4.3).
type Signature struct {
	AncestorChain   []string `json:"ancestor_chain"`   // up to 3 ancestor tag names, nearest first
	ClassTokens     []string `json:"class_tokens"`     // sorted, deduplicated
	Centered        bool     `json:"centered"`
	Bold            bool     `json:"bold"`
	FontEmphasis    bool     `json:"font_emphasis"`
	PrecedingKind   string   `json:"preceding_kind"`   // "hr", "blank", "text", "" (none)
	FollowingKind   string   `json:"following_kind"`
}

// Candidate is a potential heading discovered in the DOM (§3, §4.3).
// Immutable once emitted.
type Candidate struct {
	CandidateID    string        `json:"candidate_id"`
	Text           string        `json:"text"`
	Kind           CandidateKind `json:"kind"`
	Signature      Signature     `json:"signature"`
	ContextBefore  string        `json:"context_before"`
	ContextAfter   string        `json:"context_after"`
	HTMLExcerpt    string        `json:"html_excerpt"`
	DOMPath        string        `json:"dom_path"`
	PageIndex      *int          `json:"page_index,omitempty"`
	FileIndex      int           `json:"file_index"`
	StartOffset    int           `json:"start_offset"`
	EndOffset      int           `json:"end_offset"`
}
