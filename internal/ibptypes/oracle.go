package ibptypes

// OracleResult is the verdict returned by the external advisory oracle
// (§3, §4.5, §6.6). All fields are mandatory in a cached record; nulls are
// forbidden there (a reply with a missing/null field is a protocol failure
// and is retried rather than cached).
type OracleResult struct {
	IsHeading      bool      `json:"is_heading"`
	Level          int       `json:"level"` // 2 or 3
	NormalizedTitle string   `json:"normalized_title"`
	Confidence     float64   `json:"confidence"`
	Reason         ReasonTag `json:"reason"`
}

// OracleCacheKey identifies one cached oracle call (§4.5).
type OracleCacheKey struct {
	CandidateID string `json:"candidate_id"`
	ModelID     string `json:"model_id"`
	PromptHash  string `json:"prompt_hash"`
}

// OracleCacheRecord is what is persisted for one cache key. OracleError is
// set (and Result left zero) when all retries were exhausted.
type OracleCacheRecord struct {
	Key         OracleCacheKey `json:"key"`
	Result      *OracleResult  `json:"result,omitempty"`
	OracleError string         `json:"oracle_error,omitempty"`
}
