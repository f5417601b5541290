package ibptypes

// DecisionBasis records what drove a proposed injection.
type DecisionBasis string

const (
	BasisRule       DecisionBasis = "rule"
	BasisOracle     DecisionBasis = "oracle"
	BasisRuleOracle DecisionBasis = "rule+oracle"
)

// ProposedInjection is one candidate line of the Proposal (§3, §4.6).
type ProposedInjection struct {
	CandidateID     string        `json:"candidate_id"`
	FileIndex       int           `json:"file_index"`
	InsertionOffset int           `json:"insertion_offset"`
	Level           int           `json:"level"`
	TitleText       string        `json:"title_text"`
	DecisionBasis   DecisionBasis `json:"decision_basis"`
	Score           float64       `json:"score"`
	OracleResult    *OracleResult `json:"oracle_result,omitempty"`
	ReviewRequired  bool          `json:"review_required"`

	Blocked              bool   `json:"blocked,omitempty"`
	BlockedReason        string `json:"blocked_reason,omitempty"`
	MustNotHeadingOverride bool `json:"must_not_heading_override,omitempty"`
}

// HeadingDecision is the per-candidate decision record written to
// heading_decisions.jsonl (§6.4): the deterministic Score (§3, §4.4) plus
// whatever oracle verdict (if any) was consulted for it (§4.5).
type HeadingDecision struct {
	FileIndex int           `json:"file_index"`
	Score     Score         `json:"score"`
	Oracle    *OracleResult `json:"oracle_result,omitempty"`
}

// Proposal is the full plan artifact produced by C6 (§3, §4.6).
type Proposal struct {
	RunID                 string              `json:"run_id"`
	BookID                string              `json:"book_id"`
	Injections            []ProposedInjection `json:"injections"`
	Blocked               []ProposedInjection `json:"blocked"`
	TopAmbiguous          []string            `json:"top_ambiguous_candidate_ids"`
	CountsByKind          map[string]int      `json:"counts_by_kind"`
	CountsByScoreBand     map[string]int      `json:"counts_by_score_band"`
	AnchorsBefore         int                 `json:"anchors_before"`
	AnchorsAfter          int                 `json:"anchors_after"`
	AnchorMissReduction   float64             `json:"anchor_miss_reduction"`
}

// ApprovedInjection mirrors ProposedInjection with an optional title edit
// and approval metadata (§3).
type ApprovedInjection struct {
	CandidateID string `json:"candidate_id"`
	Level       int    `json:"level"`
	EditedTitle string `json:"edited_title,omitempty"`
	Rejected    bool   `json:"rejected,omitempty"`
	Override    bool   `json:"override,omitempty"` // auditor override of a must-not-heading block (§I5)
}

// Approval is the human-edited approval artifact (§3, §4.7).
type Approval struct {
	RunID      string              `json:"run_id"`
	Injections []ApprovedInjection `json:"injections"`
	ApprovedBy string              `json:"approved_by"`
	ApprovedAt string              `json:"approved_at"` // RFC3339
}
