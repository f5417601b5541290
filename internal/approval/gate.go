// Package approval implements C7 (§4.7): the heading approval gate and the
// PROPOSED -> AWAITING_APPROVAL -> APPROVED -> APPLIED state machine. The
// second (chunk/placement plan) gate is checked by cmd/ibp's approve-plan,
// not by this package.
package approval

import (
	"fmt"
	"time"

	"github.com/rayanino/islamic-book-processor/internal/ibperr"
	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
)

// Gate tracks one run's heading-approval state transition in a
// validate-then-commit shape.
type Gate struct {
	state ibptypes.GateState
}

func NewGate() *Gate { return &Gate{state: ibptypes.GateProposed} }

func (g *Gate) State() ibptypes.GateState { return g.state }

// RequestApproval transitions PROPOSED -> AWAITING_APPROVAL. It is a no-op
// if already awaiting approval, and an error from any later state.
func (g *Gate) RequestApproval() error {
	switch g.state {
	case ibptypes.GateProposed:
		g.state = ibptypes.GateAwaitingApproval
		return nil
	case ibptypes.GateAwaitingApproval:
		return nil
	default:
		return ibperr.New(ibperr.KindInvariantViolated, "approval.request",
			fmt.Errorf("cannot request approval from state %s", g.state))
	}
}

// Apply validates approval against proposal (§4.7: the approval must be a
// well-formed subset of the proposal by candidate_id, with same or lower
// level, and no rejected item re-appearing as an injection), then
// transitions AWAITING_APPROVAL -> APPROVED atomically. Apply returns only
// an error; rejected items are dropped later, by EffectiveInjections. The
// caller's Approval artifact is itself the log: transitions are an
// in-memory gate plus a persisted artifact, never partially written (the
// artifact write goes through runctx's atomic writer).
func (g *Gate) Apply(proposal ibptypes.Proposal, app ibptypes.Approval) error {
	if g.state != ibptypes.GateAwaitingApproval {
		return ibperr.New(ibperr.KindInvariantViolated, "approval.apply",
			fmt.Errorf("cannot approve from state %s", g.state))
	}
	if app.RunID != proposal.RunID {
		return ibperr.New(ibperr.KindApprovalMismatch, "approval.apply",
			fmt.Errorf("approval run_id %q does not match proposal run_id %q", app.RunID, proposal.RunID))
	}

	proposed := map[string]ibptypes.ProposedInjection{}
	for _, inj := range proposal.Injections {
		proposed[inj.CandidateID] = inj
	}

	seen := map[string]bool{}
	for _, a := range app.Injections {
		if seen[a.CandidateID] {
			return ibperr.New(ibperr.KindApprovalMismatch, "approval.apply",
				fmt.Errorf("candidate_id %q appears more than once in approval", a.CandidateID))
		}
		seen[a.CandidateID] = true

		prop, ok := proposed[a.CandidateID]
		if !ok {
			if a.Override {
				// A human auditor may override a must-not-heading block
				// (§I5); the candidate must at least have been proposed
				// (even if blocked), never an id absent from the proposal.
				if _, blocked := findBlocked(proposal, a.CandidateID); !blocked {
					return ibperr.New(ibperr.KindApprovalMismatch, "approval.apply",
						fmt.Errorf("override candidate_id %q is not present in proposal", a.CandidateID))
				}
				continue
			}
			return ibperr.New(ibperr.KindApprovalMismatch, "approval.apply",
				fmt.Errorf("candidate_id %q is not a member of the proposal", a.CandidateID))
		}
		if a.Rejected {
			continue
		}
		if a.Level > prop.Level {
			return ibperr.New(ibperr.KindApprovalMismatch, "approval.apply",
				fmt.Errorf("candidate_id %q raises level %d above proposed %d", a.CandidateID, a.Level, prop.Level))
		}
	}

	g.state = ibptypes.GateApproved
	return nil
}

func findBlocked(p ibptypes.Proposal, candidateID string) (ibptypes.ProposedInjection, bool) {
	for _, b := range p.Blocked {
		if b.CandidateID == candidateID {
			return b, true
		}
	}
	return ibptypes.ProposedInjection{}, false
}

// MarkApplied transitions APPROVED -> APPLIED. It is the final, terminal
// transition for this gate instance.
func (g *Gate) MarkApplied() error {
	if g.state != ibptypes.GateApproved {
		return ibperr.New(ibperr.KindInvariantViolated, "approval.mark_applied",
			fmt.Errorf("cannot apply from state %s", g.state))
	}
	g.state = ibptypes.GateApplied
	return nil
}

// EffectiveInjections returns the proposal's injections filtered down to
// the approved, non-rejected subset, with level/title overrides applied.
func EffectiveInjections(proposal ibptypes.Proposal, app ibptypes.Approval) []ibptypes.ProposedInjection {
	byID := map[string]ibptypes.ApprovedInjection{}
	for _, a := range app.Injections {
		byID[a.CandidateID] = a
	}

	var out []ibptypes.ProposedInjection
	for _, inj := range proposal.Injections {
		a, ok := byID[inj.CandidateID]
		if !ok || a.Rejected {
			continue
		}
		if a.Level > 0 {
			inj.Level = a.Level
		}
		if a.EditedTitle != "" {
			inj.TitleText = a.EditedTitle
		}
		out = append(out, inj)
	}
	for _, b := range proposal.Blocked {
		a, ok := byID[b.CandidateID]
		if !ok || !a.Override {
			continue
		}
		b.Blocked = false
		b.MustNotHeadingOverride = true
		if a.Level > 0 {
			b.Level = a.Level
		}
		if a.EditedTitle != "" {
			b.TitleText = a.EditedTitle
		}
		out = append(out, b)
	}
	return out
}

// Timestamp is a small helper so callers stamp Approval.ApprovedAt with a
// single RFC3339 formatter instead of each reimplementing it.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
