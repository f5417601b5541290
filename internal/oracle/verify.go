package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rayanino/islamic-book-processor/internal/ibperr"
	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
)

const promptTemplate = `You are verifying whether a short excerpt from an Arabic Islamic book is a section heading (not body text, not a footnote marker, not a running page header). Respond with strict JSON matching: {"is_heading": bool, "level": 2 or 3, "normalized_title": string, "confidence": 0..1, "reason": one of "title","metadata","footnote","pagehead","body_line"}. Judge only from the excerpt and its context; do not invent content.`

// maxProtocolRetries bounds how many times Verify re-queries the oracle
// after a reply that parses as JSON but is missing a required field (§4.5:
// such a reply "is treated as a failure and retried", distinct from the
// transport-level retries oracle.Retry already performs on GenerateJSON).
const maxProtocolRetries = 3

// Verifier resolves unknown (ambiguous) candidates by querying an LLM
// client through Cache, so a resumed run never re-queries a candidate it
// already has a verdict for (§4.5).
type Verifier struct {
	client Client
	cache  *Cache
	model  string
}

func NewVerifier(client Client, cache *Cache, model string) *Verifier {
	return &Verifier{client: client, cache: cache, model: model}
}

// request is the input JSON sent to the model for one candidate.
type request struct {
	Text          string `json:"text"`
	ContextBefore string `json:"context_before"`
	ContextAfter  string `json:"context_after"`
	Kind          string `json:"kind"`
}

// Verify returns the cached or freshly-queried OracleResult for c. A
// non-nil error means the query failed (all retries exhausted or a
// protocol failure); that failure is itself cached as OracleError so a
// resumed run does not retry a permanently-broken candidate forever.
func (v *Verifier) Verify(ctx context.Context, c ibptypes.Candidate) (*ibptypes.OracleResult, error) {
	req := request{
		Text:          c.Text,
		ContextBefore: c.ContextBefore,
		ContextAfter:  c.ContextAfter,
		Kind:          string(c.Kind),
	}
	promptHash := PromptHash(promptTemplate)
	key := ibptypes.OracleCacheKey{CandidateID: c.CandidateID, ModelID: v.model, PromptHash: promptHash}

	if rec, ok, err := v.cache.Get(key); err != nil {
		return nil, ibperr.New(ibperr.KindOracleTransient, "oracle.cache.get", err)
	} else if ok {
		if rec.Result != nil {
			return rec.Result, nil
		}
		return nil, ibperr.New(ibperr.KindOracleProtocol, "oracle.verify", fmt.Errorf("%s", rec.OracleError))
	}

	result, err := v.query(ctx, req)
	if err != nil {
		_ = v.cache.Put(ibptypes.OracleCacheRecord{Key: key, OracleError: err.Error()})
		return nil, err
	}

	if err := v.cache.Put(ibptypes.OracleCacheRecord{Key: key, Result: result}); err != nil {
		return nil, ibperr.New(ibperr.KindOracleTransient, "oracle.cache.put", err)
	}
	return result, nil
}

// query calls the client and parses its reply, retrying (with the same
// capped, jittered backoff oracle.Retry uses) when the reply is well-formed
// JSON but missing a required field. oracle.Retry itself already retries
// transport-level failures from GenerateJSON, so a transport error here is
// returned immediately instead of retried a second time.
func (v *Verifier) query(ctx context.Context, req request) (*ibptypes.OracleResult, error) {
	var lastErr error
	for attempt := 0; attempt < maxProtocolRetries; attempt++ {
		raw, err := v.client.GenerateJSON(ctx, promptTemplate, req)
		if err != nil {
			return nil, ibperr.New(ibperr.KindOracleTransient, "oracle.verify", err)
		}
		result, perr := parseOracleResult(raw)
		if perr == nil {
			return result, nil
		}
		lastErr = perr
		select {
		case <-ctx.Done():
			return nil, ibperr.New(ibperr.KindOracleTransient, "oracle.verify", ctx.Err())
		default:
		}
		time.Sleep(backoffDelay(300*time.Millisecond, attempt))
	}
	return nil, ibperr.New(ibperr.KindOracleProtocol, "oracle.verify.unmarshal", lastErr)
}

func (v *Verifier) Close() error { return v.client.Close() }

// rawOracleResult mirrors ibptypes.OracleResult with pointer/unset-aware
// fields so a missing or null field can be told apart from its zero value
// (false, "", 0) before being accepted (§4.5/§6.6: "a reply with any
// missing/null field" is a protocol failure, not a best-effort default).
type rawOracleResult struct {
	IsHeading       *bool    `json:"is_heading"`
	Level           *int     `json:"level"`
	NormalizedTitle *string  `json:"normalized_title"`
	Confidence      *float64 `json:"confidence"`
	Reason          *string  `json:"reason"`
}

// parseOracleResult unmarshals raw and rejects any reply missing a required
// field, rather than silently zero-filling it the way a direct unmarshal
// into ibptypes.OracleResult would.
func parseOracleResult(raw json.RawMessage) (*ibptypes.OracleResult, error) {
	var r rawOracleResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	switch {
	case r.IsHeading == nil:
		return nil, fmt.Errorf("oracle reply missing is_heading")
	case r.Level == nil:
		return nil, fmt.Errorf("oracle reply missing level")
	case r.NormalizedTitle == nil || *r.NormalizedTitle == "":
		return nil, fmt.Errorf("oracle reply missing normalized_title")
	case r.Confidence == nil:
		return nil, fmt.Errorf("oracle reply missing confidence")
	case r.Reason == nil || *r.Reason == "":
		return nil, fmt.Errorf("oracle reply missing reason")
	}
	level := *r.Level
	if level != 2 && level != 3 {
		level = 2
	}
	return &ibptypes.OracleResult{
		IsHeading:       *r.IsHeading,
		Level:           level,
		NormalizedTitle: *r.NormalizedTitle,
		Confidence:      *r.Confidence,
		Reason:          ibptypes.ReasonTag(*r.Reason),
	}, nil
}
