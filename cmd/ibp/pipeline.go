package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/rayanino/islamic-book-processor/internal/candidate"
	"github.com/rayanino/islamic-book-processor/internal/domnorm"
	"github.com/rayanino/islamic-book-processor/internal/ibpconfig"
	"github.com/rayanino/islamic-book-processor/internal/ibperr"
	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
	"github.com/rayanino/islamic-book-processor/internal/ingest"
	"github.com/rayanino/islamic-book-processor/internal/oracle"
	"github.com/rayanino/islamic-book-processor/internal/planner"
	"github.com/rayanino/islamic-book-processor/internal/scoring"
)

// pipelineResult bundles everything downstream commands (apply, the chunk
// plan) need from a re-derived C1-C6 run, keyed by file_index so it lines
// up with ibptypes.Candidate.FileIndex and ibptypes.ProposedInjection.FileIndex.
type pipelineResult struct {
	Book          ibptypes.Book
	Proposal      ibptypes.Proposal
	DerivedByFile map[int]*domnorm.Derived
	CandByFile    map[int][]ibptypes.Candidate
	Decisions     []ibptypes.HeadingDecision
}

// loadBookAndRaws re-manifests a run's input directory. Because C1 is a
// pure function of file bytes, this reproduces the exact same Book (and
// hence the exact same candidate_ids and chunk_ids) that ingest originally
// saw, which is what lets approve-headings/apply resume a run from
// nothing but run.json (§4.5 "a run may be re-entered").
func loadBookAndRaws(run ibptypes.Run) (ibptypes.Book, []ingest.RawFile, error) {
	return ingest.Manifest(run.BookID, run.InputDir)
}

// buildProposal runs C2 (DOM normalize) through C6 (plan build) over an
// already-manifested book, consulting the oracle for ambiguous candidates
// unless dryRun is set. It is shared by ingest (fresh) and by
// approve-headings/apply (deterministic recompute from run.json).
func buildProposal(ctx context.Context, cfg ibpconfig.Config, runID string, book ibptypes.Book, raws []ingest.RawFile, mustNotHeading []string, dryRun bool, hook oracle.PromptHook, cacheDir string) (pipelineResult, error) {
	var result pipelineResult
	result.Book = book
	result.DerivedByFile = map[int]*domnorm.Derived{}
	result.CandByFile = map[int][]ibptypes.Candidate{}

	trees := make([]*domnorm.Tree, len(raws))
	for i, rf := range raws {
		tree, err := domnorm.Parse(rf.Entry.Path, rf.Raw)
		if err != nil {
			return result, ibperr.New(ibperr.KindParse, rf.Entry.Path, err)
		}
		trees[i] = tree
	}
	domnorm.TagNoise(trees)

	sigCounts := map[string]int{}
	totalPages := 0
	var allCandidates []ibptypes.Candidate
	candFileIndex := map[string]int{}

	for i, rf := range raws {
		derived := domnorm.Derive(rf.Entry.Path, trees[i])
		result.DerivedByFile[i] = derived
		totalPages += domnorm.PageCount(trees[i])

		cands := candidate.Generate(book.BookID, i, rf.Entry.Path, trees[i], derived)
		result.CandByFile[i] = cands
		for _, c := range cands {
			sigCounts[sigKey(c.Signature)]++
			candFileIndex[c.CandidateID] = i
		}
		allCandidates = append(allCandidates, cands...)
	}
	if totalPages == 0 {
		totalPages = 1
	}

	var verifier *oracle.Verifier
	if !dryRun && cfg.OracleAPIKey != "" {
		base, err := oracle.NewGeminiClient(ctx, cfg.OracleAPIKey, cfg.OracleModel)
		if err != nil {
			return result, ibperr.New(ibperr.KindOracleTransient, "oracle.client", err)
		}
		var client oracle.Client = base
		client = oracle.Throttle(cfg.OracleQPS, cfg.OracleBurst)(client)
		client = oracle.Retry(5, 0)(client)
		if hook != nil {
			client = oracle.WithHook(client, hook)
		}
		cache, err := oracle.OpenCache(cacheDir)
		if err != nil {
			return result, ibperr.New(ibperr.KindOracleTransient, "oracle.cache", err)
		}
		verifier = oracle.NewVerifier(client, cache, cfg.OracleModel)
		defer verifier.Close()
	}

	var decisions []planner.Decision
	levelHints := map[int]*scoring.LevelHint{}
	for i := range raws {
		levelHints[i] = &scoring.LevelHint{}
	}

	for _, c := range allCandidates {
		fi := candFileIndex[c.CandidateID]
		derived := result.DerivedByFile[fi]
		pos := scoring.DocPosition{Offset: c.StartOffset, DocLen: len(derived.Text)}
		features := scoring.Extract(c, float64(sigCounts[sigKey(c.Signature)])/float64(totalPages), pos, mustNotHeading)
		score := scoring.Score(features)
		score.CandidateID = c.CandidateID

		if score.Suggested.IsHeading == ibptypes.True {
			score.Suggested.Level = levelHints[fi].Next(features)
		}

		d := planner.Decision{Candidate: c, Score: score}

		if score.Suggested.IsHeading == ibptypes.Unknown && !score.MustNotMatch && verifier != nil {
			phaseCtx := oracle.WithPhase(ctx, fmt.Sprintf("verify:%s", c.CandidateID))
			verdict, err := verifier.Verify(phaseCtx, c)
			if err != nil {
				log.Printf("oracle: candidate %s: %v", c.CandidateID, err)
			} else {
				d.Oracle = verdict
			}
		}
		decisions = append(decisions, d)
		result.Decisions = append(result.Decisions, ibptypes.HeadingDecision{
			FileIndex: c.FileIndex,
			Score:     d.Score,
			Oracle:    d.Oracle,
		})
	}

	derivedText := map[int]string{}
	for i, d := range result.DerivedByFile {
		derivedText[i] = d.Text
	}
	result.Proposal = planner.Build(runID, book.BookID, decisions, derivedText)
	return result, nil
}

// sigKey turns a Signature into a comparable map key, mirroring domnorm's
// internal pageSignature shape but over the richer Layer A signature.
func sigKey(s ibptypes.Signature) string {
	var b strings.Builder
	b.WriteString(strings.Join(s.AncestorChain, ">"))
	b.WriteByte('|')
	b.WriteString(strings.Join(s.ClassTokens, ","))
	b.WriteByte('|')
	fmt.Fprintf(&b, "%t|%t|%t|%s|%s", s.Centered, s.Bold, s.FontEmphasis, s.PrecedingKind, s.FollowingKind)
	return b.String()
}

func oracleCacheDir(runDir string) string { return filepath.Join(runDir, "oracle_cache") }
