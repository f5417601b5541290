package ibptypes

// Tristate models is_heading ∈ {true, false, unknown} (§3).
type Tristate string

const (
	True    Tristate = "true"
	False   Tristate = "false"
	Unknown Tristate = "unknown"
)

// ReasonTag is the scorer's rationale tag (§3).
type ReasonTag string

const (
	ReasonTitle    ReasonTag = "title"
	ReasonMetadata ReasonTag = "metadata"
	ReasonFootnote ReasonTag = "footnote"
	ReasonPagehead ReasonTag = "pagehead"
	ReasonBodyLine ReasonTag = "body_line"
)

// Suggested carries the scorer's (or oracle-confirmed) heading suggestion.
type Suggested struct {
	IsHeading Tristate `json:"is_heading"`
	Level     int      `json:"level,omitempty"` // 2 or 3, meaningful only if IsHeading == True
}

// Score is the deterministic scoring result for one Candidate (§3, §4.4).
type Score struct {
	CandidateID       string    `json:"candidate_id"`
	Value             float64   `json:"score"`
	Suggested         Suggested `json:"suggested"`
	Reason            ReasonTag `json:"reason"`
	Confidence        float64   `json:"confidence"`
	MustNotMatch      bool      `json:"must_not_match,omitempty"`
	ScoringAnomaly    bool      `json:"scoring_anomaly,omitempty"`
}
