// Command ibp drives the Islamic Book Processor's heading-recovery and
// plan-engine pipeline: ingest a book's HTML export, review and approve a
// heading proposal, apply it into a chunk/placement plan, review and
// approve that plan, then commit chunks and topic projections into the
// registry (§6.2).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/rayanino/islamic-book-processor/internal/approval"
	"github.com/rayanino/islamic-book-processor/internal/ibpconfig"
	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
	"github.com/rayanino/islamic-book-processor/internal/ingest"
	"github.com/rayanino/islamic-book-processor/internal/planner"
	"github.com/rayanino/islamic-book-processor/internal/registry"
	"github.com/rayanino/islamic-book-processor/internal/runctx"
)

// Exit codes, exactly per §6.2.
const (
	exitOK                 = 0
	exitOtherError         = 1
	exitAwaitingApproval   = 2
	exitBlockedMustNot     = 3
	exitInvariantViolation = 4
)

func fail(code int, format string, args ...any) {
	log.Printf(format, args...)
	os.Exit(code)
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: ibp <ingest|approve-headings|apply|approve-plan|commit|--clean-book> ...")
	}

	cfg := ibpconfig.Load()
	ctx := context.Background()

	switch os.Args[1] {
	case "ingest":
		runIngest(ctx, cfg, os.Args[2:])
	case "approve-headings":
		runApproveHeadings(ctx, cfg, os.Args[2:])
	case "apply":
		runApply(ctx, cfg, os.Args[2:])
	case "approve-plan":
		runApprovePlan(ctx, cfg, os.Args[2:])
	case "commit":
		runCommit(ctx, cfg, os.Args[2:])
	case "--clean-book":
		runCleanBook(cfg, os.Args[2:])
	default:
		log.Fatalf("unknown subcommand %q", os.Args[1])
	}
}

func runIngest(ctx context.Context, cfg ibpconfig.Config, args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	input := fs.String("input", "", "directory of the book's HTML export (required)")
	metaPath := fs.String("meta", "", "path to the book's meta.json (required)")
	mustNotPath := fs.String("must-not-heading", "", "path to a JSON array must-not-heading fixture")
	dryRun := fs.Bool("dry-run", cfg.DryRun, "disable the oracle entirely (§6.2)")
	timestamp := fs.String("timestamp", "", "override the timestamp seeding run_id (defaults to now, RFC3339)")
	if err := fs.Parse(args); err != nil {
		fail(exitOtherError, "ingest: %v", err)
	}
	if fs.NArg() < 1 {
		fail(exitOtherError, "ingest: book_id is required")
	}
	bookID := fs.Arg(0)
	if *input == "" || *metaPath == "" {
		fail(exitOtherError, "ingest: --input and --meta are required")
	}

	meta, err := loadMeta(*metaPath)
	if err != nil {
		fail(exitOtherError, "ingest: %v", err)
	}
	mustNotHeading, err := loadMustNotHeading(*mustNotPath)
	if err != nil {
		fail(exitOtherError, "ingest: %v", err)
	}

	book, raws, err := ingest.Manifest(bookID, *input)
	if err != nil {
		fail(exitOtherError, "ingest: %v", err)
	}
	book.Science = meta.Science

	ts := *timestamp
	if ts == "" {
		ts = time.Now().UTC().Format(time.RFC3339)
	}
	runID := runctx.DeriveRunID(bookID, book.Files, ts)
	runDir := runctx.RunDir(cfg.RunsRoot, runID)

	if err := runctx.WriteJSONAtomic(filepath.Join(runDir, "ingest_manifest.json"), book); err != nil {
		fail(exitOtherError, "ingest: writing manifest: %v", err)
	}
	if err := runctx.WriteJSONAtomic(filepath.Join(runDir, "book_profile.json"),
		ibptypes.BookProfile{Book: book, Title: meta.Title, Author: meta.Author}); err != nil {
		fail(exitOtherError, "ingest: writing book profile: %v", err)
	}

	hook := &promptLogger{dir: filepath.Join(runDir, "oracle_log")}
	result, err := buildProposal(ctx, cfg, runID, book, raws, mustNotHeading, *dryRun, hook, oracleCacheDir(runDir))
	if err != nil {
		fail(exitOtherError, "ingest: %v", err)
	}

	if err := writeProposalArtifacts(runDir, result.Proposal, allCandidates(result.CandByFile), result.Decisions); err != nil {
		fail(exitOtherError, "ingest: writing proposal artifacts: %v", err)
	}

	run := ibptypes.Run{
		RunID:          runID,
		BookID:         bookID,
		HeadingGate:    ibptypes.GateAwaitingApproval,
		PlanGate:       ibptypes.GateProposed,
		DryRun:         *dryRun,
		InputDir:       *input,
		Timestamp:      ts,
		MustNotHeading: mustNotHeading,
	}
	if err := saveRun(runDir, run); err != nil {
		fail(exitOtherError, "ingest: saving run state: %v", err)
	}

	log.Printf("C1-C6: run %s: %d candidates, %d injections proposed, %d blocked, awaiting approval",
		runID, len(allCandidates(result.CandByFile)), len(result.Proposal.Injections), len(result.Proposal.Blocked))
	fmt.Println(runID)
	os.Exit(exitAwaitingApproval)
}

func runApproveHeadings(ctx context.Context, cfg ibpconfig.Config, args []string) {
	fs := flag.NewFlagSet("approve-headings", flag.ExitOnError)
	approvalPath := fs.String("approval", "", "path to the Approval JSON artifact (required)")
	if err := fs.Parse(args); err != nil {
		fail(exitOtherError, "approve-headings: %v", err)
	}
	if fs.NArg() < 1 || *approvalPath == "" {
		fail(exitOtherError, "approve-headings: run_id and --approval are required")
	}
	runID := fs.Arg(0)

	run, runDir, err := loadRun(cfg.RunsRoot, runID)
	if err != nil {
		fail(exitOtherError, "approve-headings: %v", err)
	}
	if run.HeadingGate == ibptypes.GateApproved || run.HeadingGate == ibptypes.GateApplied {
		log.Printf("approve-headings: run %s already approved", runID)
		os.Exit(exitOK)
	}

	book, raws, err := loadBookAndRaws(run)
	if err != nil {
		fail(exitOtherError, "approve-headings: %v", err)
	}
	result, err := buildProposal(ctx, cfg, runID, book, raws, run.MustNotHeading, run.DryRun,
		&promptLogger{dir: filepath.Join(runDir, "oracle_log")}, oracleCacheDir(runDir))
	if err != nil {
		fail(exitOtherError, "approve-headings: %v", err)
	}

	var app ibptypes.Approval
	mustOpenApproval(*approvalPath, &app)

	// §I5 / exit code 3: an approval must never force a must-not-heading
	// block into an injection without an explicit, logged override.
	for _, a := range app.Injections {
		if a.Rejected || a.Override {
			continue
		}
		for _, b := range result.Proposal.Blocked {
			if b.CandidateID == a.CandidateID {
				fail(exitBlockedMustNot, "approve-headings: candidate %s is blocked by must-not-heading; set override to accept it", a.CandidateID)
			}
		}
	}

	gate := approval.NewGate()
	if err := gate.RequestApproval(); err != nil {
		fail(exitOtherError, "approve-headings: %v", err)
	}
	if err := gate.Apply(result.Proposal, app); err != nil {
		fail(exitInvariantViolation, "approve-headings: %v", err)
	}

	if err := runctx.WriteJSONLAtomic(filepath.Join(runDir, "heading_injections.approved.jsonl"),
		app.Injections, func(a ibptypes.ApprovedInjection) string { return a.CandidateID }); err != nil {
		fail(exitOtherError, "approve-headings: writing approval artifact: %v", err)
	}
	if err := runctx.WriteJSONAtomic(filepath.Join(runDir, "heading_approval.json"), app); err != nil {
		fail(exitOtherError, "approve-headings: writing approval artifact: %v", err)
	}

	run.HeadingGate = ibptypes.GateApproved
	if err := saveRun(runDir, run); err != nil {
		fail(exitOtherError, "approve-headings: saving run state: %v", err)
	}
	log.Printf("approve-headings: run %s approved by %s", runID, app.ApprovedBy)
	os.Exit(exitOK)
}

func runApprovePlan(ctx context.Context, cfg ibpconfig.Config, args []string) {
	_ = ctx
	fs := flag.NewFlagSet("approve-plan", flag.ExitOnError)
	approvalPath := fs.String("approval", "", "path to the ChunkPlanApproval JSON artifact (required)")
	if err := fs.Parse(args); err != nil {
		fail(exitOtherError, "approve-plan: %v", err)
	}
	if fs.NArg() < 1 || *approvalPath == "" {
		fail(exitOtherError, "approve-plan: run_id and --approval are required")
	}
	runID := fs.Arg(0)

	run, runDir, err := loadRun(cfg.RunsRoot, runID)
	if err != nil {
		fail(exitOtherError, "approve-plan: %v", err)
	}
	if run.PlanGate == ibptypes.GateApproved || run.PlanGate == ibptypes.GateApplied {
		log.Printf("approve-plan: run %s plan already approved", runID)
		os.Exit(exitOK)
	}
	if run.PlanGate != ibptypes.GateAwaitingApproval {
		fail(exitInvariantViolation, "approve-plan: run %s plan gate is %s, not awaiting approval", runID, run.PlanGate)
	}

	var plan ibptypes.ChunkPlan
	if err := runctx.ReadJSON(filepath.Join(runDir, "chunk_plan.proposed.json"), &plan); err != nil {
		fail(exitOtherError, "approve-plan: reading proposed plan: %v", err)
	}
	var app ibptypes.ChunkPlanApproval
	mustOpenApproval(*approvalPath, &app)
	if app.RunID != runID {
		fail(exitInvariantViolation, "approve-plan: approval run_id %q does not match %q", app.RunID, runID)
	}

	byID := map[string]ibptypes.Chunk{}
	for _, c := range plan.Chunks {
		byID[c.ChunkID] = c
	}
	approvedSet := map[string]bool{}
	for _, id := range app.ApprovedChunkIDs {
		if _, ok := byID[id]; !ok {
			fail(exitInvariantViolation, "approve-plan: approved chunk_id %q is not in the proposed plan", id)
		}
		approvedSet[id] = true
	}

	approvedPlan := ibptypes.ChunkPlan{RunID: runID, BookID: plan.BookID, AnchorMisses: plan.AnchorMisses}
	for _, c := range plan.Chunks {
		if approvedSet[c.ChunkID] {
			approvedPlan.Chunks = append(approvedPlan.Chunks, c)
		}
	}
	for _, p := range plan.Placements {
		if approvedSet[p.ChunkID] {
			approvedPlan.Placements = append(approvedPlan.Placements, p)
		}
	}

	if err := runctx.WriteJSONAtomic(filepath.Join(runDir, "chunk_plan.approved.json"), approvedPlan); err != nil {
		fail(exitOtherError, "approve-plan: writing approved plan: %v", err)
	}

	run.PlanGate = ibptypes.GateApproved
	if err := saveRun(runDir, run); err != nil {
		fail(exitOtherError, "approve-plan: saving run state: %v", err)
	}
	log.Printf("approve-plan: run %s plan approved by %s (%d/%d chunks)", runID, app.ApprovedBy, len(approvedPlan.Chunks), len(plan.Chunks))
	os.Exit(exitOK)
}

func runCleanBook(cfg ibpconfig.Config, args []string) {
	fs := flag.NewFlagSet("--clean-book", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		fail(exitOtherError, "--clean-book: %v", err)
	}
	if fs.NArg() < 1 {
		fail(exitOtherError, "--clean-book: book_id is required")
	}
	bookID := fs.Arg(0)
	timestamp := time.Now().UTC().Format("20060102T150405Z")
	if err := registry.CleanBook(cfg.DataRoot, bookID, timestamp); err != nil {
		fail(exitOtherError, "--clean-book: %v", err)
	}
	log.Printf("--clean-book: archived prior outputs for %s under _ARCHIVE/%s/%s", bookID, bookID, timestamp)
	os.Exit(exitOK)
}

func allCandidates(byFile map[int][]ibptypes.Candidate) []ibptypes.Candidate {
	keys := make([]int, 0, len(byFile))
	for k := range byFile {
		keys = append(keys, k)
	}
	// file_index order matches the emission order required by §5.
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}
	var out []ibptypes.Candidate
	for _, k := range keys {
		out = append(out, byFile[k]...)
	}
	return out
}

func writeProposalArtifacts(runDir string, p ibptypes.Proposal, cands []ibptypes.Candidate, decisions []ibptypes.HeadingDecision) error {
	if err := runctx.WriteJSONLAtomic(filepath.Join(runDir, "heading_candidates.jsonl"), cands,
		func(c ibptypes.Candidate) string { return c.CandidateID }); err != nil {
		return err
	}
	if err := runctx.WriteJSONLAtomic(filepath.Join(runDir, "heading_decisions.jsonl"), decisions,
		func(d ibptypes.HeadingDecision) string { return d.Score.CandidateID }); err != nil {
		return err
	}
	if err := runctx.WriteJSONLAtomic(filepath.Join(runDir, "heading_injections.proposed.jsonl"), p.Injections,
		func(inj ibptypes.ProposedInjection) string { return inj.CandidateID }); err != nil {
		return err
	}
	if err := runctx.WriteJSONLAtomic(filepath.Join(runDir, "heading_injections.blocked.jsonl"), p.Blocked,
		func(inj ibptypes.ProposedInjection) string { return inj.CandidateID }); err != nil {
		return err
	}
	if err := runctx.WriteJSONAtomic(filepath.Join(runDir, "run_report.json"), p); err != nil {
		return err
	}
	return runctx.WriteFileAtomic(filepath.Join(runDir, "run_report.md"), []byte(planner.Report(p)), 0o644)
}

