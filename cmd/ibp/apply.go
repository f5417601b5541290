package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rayanino/islamic-book-processor/internal/approval"
	"github.com/rayanino/islamic-book-processor/internal/domnorm"
	"github.com/rayanino/islamic-book-processor/internal/ibpconfig"
	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
	"github.com/rayanino/islamic-book-processor/internal/inject"
	"github.com/rayanino/islamic-book-processor/internal/placement"
	"github.com/rayanino/islamic-book-processor/internal/registry"
	"github.com/rayanino/islamic-book-processor/internal/runctx"
)

// runApply implements C8 (injection + split) and C9 (placement proposal):
// it re-derives the run's candidates and heading decisions, applies the
// approved injections file by file, splits each file into chunks at its
// anchors, proposes a topic for every chunk against the registry's
// existing topics, and leaves the resulting chunk_plan.proposed at the
// second approval gate (§4.8, §4.9).
func runApply(ctx context.Context, cfg ibpconfig.Config, args []string) {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		fail(exitOtherError, "apply: %v", err)
	}
	if fs.NArg() < 1 {
		fail(exitOtherError, "apply: run_id is required")
	}
	runID := fs.Arg(0)

	run, runDir, err := loadRun(cfg.RunsRoot, runID)
	if err != nil {
		fail(exitOtherError, "apply: %v", err)
	}
	if run.HeadingGate != ibptypes.GateApproved && run.HeadingGate != ibptypes.GateApplied {
		fail(exitInvariantViolation, "apply: run %s heading gate is %s, not approved", runID, run.HeadingGate)
	}
	if run.PlanGate == ibptypes.GateAwaitingApproval || run.PlanGate == ibptypes.GateApproved || run.PlanGate == ibptypes.GateApplied {
		log.Printf("apply: run %s already has a chunk plan (plan gate %s)", runID, run.PlanGate)
		os.Exit(exitAwaitingApproval)
	}

	book, raws, err := loadBookAndRaws(run)
	if err != nil {
		fail(exitOtherError, "apply: %v", err)
	}
	result, err := buildProposal(ctx, cfg, runID, book, raws, run.MustNotHeading, run.DryRun,
		&promptLogger{dir: filepath.Join(runDir, "oracle_log")}, oracleCacheDir(runDir))
	if err != nil {
		fail(exitOtherError, "apply: %v", err)
	}

	var app ibptypes.Approval
	if err := runctx.ReadJSON(filepath.Join(runDir, "heading_approval.json"), &app); err != nil {
		fail(exitOtherError, "apply: reading heading approval: %v", err)
	}

	gate := approval.NewGate()
	if err := gate.RequestApproval(); err != nil {
		fail(exitInvariantViolation, "apply: %v", err)
	}
	if err := gate.Apply(result.Proposal, app); err != nil {
		fail(exitInvariantViolation, "apply: %v", err)
	}
	if err := gate.MarkApplied(); err != nil {
		fail(exitInvariantViolation, "apply: %v", err)
	}

	effective := approval.EffectiveInjections(result.Proposal, app)
	byFile := map[int][]ibptypes.ProposedInjection{}
	for _, inj := range effective {
		byFile[inj.FileIndex] = append(byFile[inj.FileIndex], inj)
	}

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		fail(exitOtherError, "apply: %v", err)
	}
	topicRefs, err := buildTopicRefs(ctx, repo)
	if err != nil {
		fail(exitOtherError, "apply: %v", err)
	}

	plan := ibptypes.ChunkPlan{RunID: runID, BookID: book.BookID}
	for i, rf := range raws {
		derived := result.DerivedByFile[i]
		injections := byFile[i]

		injectedText := inject.Inject(derived.Text, injections)
		footnotes := make([]domnorm.Span, len(derived.Footnotes))
		for j, sp := range derived.Footnotes {
			footnotes[j] = domnorm.Span{
				Start: inject.AdjustOffset(injections, sp.Start),
				End:   inject.AdjustOffset(injections, sp.End),
			}
		}

		chunks, miss := inject.Split(book.BookID, rf.Entry.Path, injectedText, footnotes,
			candidateHints(result.CandByFile[i], injections))
		plan.Chunks = append(plan.Chunks, chunks...)
		if miss != nil {
			plan.AnchorMisses = append(plan.AnchorMisses, *miss)
		}
		for _, c := range chunks {
			plan.Placements = append(plan.Placements, placement.Propose(c, topicRefs))
		}
	}

	if err := runctx.WriteJSONAtomic(filepath.Join(runDir, "chunk_plan.proposed.json"), plan); err != nil {
		fail(exitOtherError, "apply: writing chunk plan: %v", err)
	}
	if err := runctx.WriteFileAtomic(filepath.Join(runDir, "chunk_plan.proposed.md"), []byte(chunkPlanReport(plan)), 0o644); err != nil {
		fail(exitOtherError, "apply: writing chunk plan report: %v", err)
	}

	run.HeadingGate = ibptypes.GateApplied
	run.PlanGate = ibptypes.GateAwaitingApproval
	if err := saveRun(runDir, run); err != nil {
		fail(exitOtherError, "apply: saving run state: %v", err)
	}

	log.Printf("apply: run %s: %d chunks, %d anchor misses, awaiting plan approval", runID, len(plan.Chunks), len(plan.AnchorMisses))
	os.Exit(exitAwaitingApproval)
}

// candidateHints gathers a few non-injected candidate texts from a file to
// help a reviewer diagnose an AnchorMiss without reopening the source HTML.
func candidateHints(cands []ibptypes.Candidate, injections []ibptypes.ProposedInjection) []string {
	injected := map[string]bool{}
	for _, inj := range injections {
		injected[inj.CandidateID] = true
	}
	var hints []string
	for _, c := range cands {
		if injected[c.CandidateID] {
			continue
		}
		hints = append(hints, c.Text)
		if len(hints) >= 5 {
			break
		}
	}
	return hints
}

func chunkPlanReport(p ibptypes.ChunkPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Chunk plan: %s\n\n", p.BookID)
	fmt.Fprintf(&b, "- chunks: %d\n- anchor misses: %d\n\n", len(p.Chunks), len(p.AnchorMisses))

	placementByChunk := map[string]ibptypes.PlacementProposal{}
	for _, pl := range p.Placements {
		placementByChunk[pl.ChunkID] = pl
	}

	b.WriteString("| chunk_id | level | title | top topic | placement confidence | review |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, c := range p.Chunks {
		pl := placementByChunk[c.ChunkID]
		topTopic := "-"
		if len(pl.CandidateTopics) > 0 {
			topTopic = pl.CandidateTopics[0].TopicID
		}
		fmt.Fprintf(&b, "| %s | %d | %s | %s | %s | %t |\n",
			c.ChunkID[:12], c.Level, c.Title, topTopic, strconv.FormatFloat(pl.PlacementConfidence, 'f', 2, 64), pl.ReviewRequired)
	}

	if len(p.AnchorMisses) > 0 {
		b.WriteString("\n## Anchor misses\n\n")
		for _, m := range p.AnchorMisses {
			fmt.Fprintf(&b, "- %s: %d bytes before the first heading\n", m.File, len(m.Body))
		}
	}
	return b.String()
}

// buildTopicRefs samples a handful of representative chunk bodies per
// active topic so Propose (§4.9) has real content, not just a title, to
// compare a new chunk's tokens against.
func buildTopicRefs(ctx context.Context, repo registry.Repository) ([]placement.TopicRef, error) {
	topics, err := repo.ListTopics(ctx)
	if err != nil {
		return nil, err
	}

	var refs []placement.TopicRef
	for _, t := range topics {
		if t.Status != ibptypes.TopicActive {
			continue
		}
		projs, err := repo.ListProjectionsByTopic(ctx, t.TopicID)
		if err != nil {
			return nil, err
		}
		var bodies []string
		for _, p := range projs {
			if len(bodies) >= 3 {
				break
			}
			c, ok, err := repo.GetChunk(ctx, p.ChunkID)
			if err != nil {
				return nil, err
			}
			if ok {
				bodies = append(bodies, c.Body)
			}
		}
		refs = append(refs, placement.TopicRef{TopicID: t.TopicID, TitleAr: t.DisplayTitleAr, Bodies: bodies})
	}
	return refs, nil
}
