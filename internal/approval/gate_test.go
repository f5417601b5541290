package approval

import (
	"testing"

	"github.com/rayanino/islamic-book-processor/internal/ibperr"
	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
)

func sampleProposal() ibptypes.Proposal {
	return ibptypes.Proposal{
		RunID: "run-1",
		Injections: []ibptypes.ProposedInjection{
			{CandidateID: "c1", Level: 2, TitleText: "باب الصلاة"},
			{CandidateID: "c2", Level: 3, TitleText: "فصل"},
		},
		Blocked: []ibptypes.ProposedInjection{
			{CandidateID: "c3", Level: 2, TitleText: "بسم الله", Blocked: true, BlockedReason: "must_not_heading"},
		},
	}
}

func TestGateHappyPathTransitions(t *testing.T) {
	g := NewGate()
	if g.State() != ibptypes.GateProposed {
		t.Fatalf("expected initial state PROPOSED, got %s", g.State())
	}
	if err := g.RequestApproval(); err != nil {
		t.Fatalf("RequestApproval: %v", err)
	}
	if g.State() != ibptypes.GateAwaitingApproval {
		t.Fatalf("expected AWAITING_APPROVAL, got %s", g.State())
	}

	proposal := sampleProposal()
	app := ibptypes.Approval{
		RunID: "run-1",
		Injections: []ibptypes.ApprovedInjection{
			{CandidateID: "c1", Level: 2},
			{CandidateID: "c2", Level: 2}, // lowering level is allowed
		},
	}
	if err := g.Apply(proposal, app); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if g.State() != ibptypes.GateApproved {
		t.Fatalf("expected APPROVED, got %s", g.State())
	}
	if err := g.MarkApplied(); err != nil {
		t.Fatalf("MarkApplied: %v", err)
	}
	if g.State() != ibptypes.GateApplied {
		t.Fatalf("expected APPLIED, got %s", g.State())
	}
}

func TestApplyRejectsUnknownCandidateID(t *testing.T) {
	g := NewGate()
	_ = g.RequestApproval()
	proposal := sampleProposal()
	app := ibptypes.Approval{
		RunID: "run-1",
		Injections: []ibptypes.ApprovedInjection{
			{CandidateID: "does-not-exist", Level: 2},
		},
	}
	err := g.Apply(proposal, app)
	if err == nil {
		t.Fatalf("expected error for unknown candidate_id")
	}
	var perr *ibperr.Error
	if !asIbpErr(err, &perr) || perr.Kind != ibperr.KindApprovalMismatch {
		t.Fatalf("expected KindApprovalMismatch, got %v", err)
	}
}

func TestApplyRejectsLevelRaise(t *testing.T) {
	g := NewGate()
	_ = g.RequestApproval()
	proposal := sampleProposal()
	app := ibptypes.Approval{
		RunID: "run-1",
		Injections: []ibptypes.ApprovedInjection{
			{CandidateID: "c1", Level: 3}, // proposed was level 2
		},
	}
	if err := g.Apply(proposal, app); err == nil {
		t.Fatalf("expected error when approval raises level above proposed")
	}
}

func TestEffectiveInjectionsDropsRejectedAndAppliesOverride(t *testing.T) {
	proposal := sampleProposal()
	app := ibptypes.Approval{
		RunID: "run-1",
		Injections: []ibptypes.ApprovedInjection{
			{CandidateID: "c1", Level: 2},
			{CandidateID: "c2", Rejected: true},
			{CandidateID: "c3", Level: 2, Override: true, EditedTitle: "بسم الله (مقدمة)"},
		},
	}
	out := EffectiveInjections(proposal, app)
	if len(out) != 2 {
		t.Fatalf("expected 2 effective injections (c1 kept, c2 dropped, c3 override), got %+v", out)
	}
	var sawOverride bool
	for _, inj := range out {
		if inj.CandidateID == "c3" {
			sawOverride = true
			if inj.Blocked {
				t.Fatalf("expected override to clear Blocked flag")
			}
			if inj.TitleText != "بسم الله (مقدمة)" {
				t.Fatalf("expected edited title to apply, got %q", inj.TitleText)
			}
		}
		if inj.CandidateID == "c2" {
			t.Fatalf("rejected candidate c2 should not appear in effective injections")
		}
	}
	if !sawOverride {
		t.Fatalf("expected override candidate c3 in output")
	}
}

func asIbpErr(err error, target **ibperr.Error) bool {
	e, ok := err.(*ibperr.Error)
	if !ok {
		return false
	}
	*target = e
	return true
}
