package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rayanino/islamic-book-processor/internal/ibpconfig"
	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
	"github.com/rayanino/islamic-book-processor/internal/placement"
	"github.com/rayanino/islamic-book-processor/internal/registry"
	"github.com/rayanino/islamic-book-processor/internal/runctx"
)

// runCommit implements C10 (§4.10): committing every chunk of an approved
// plan into the registry, allocating a new topic where one was suggested,
// pre-seeding the well-known exercises-family topic the first time it is
// needed, and materializing each chunk's canonical and projected paths.
func runCommit(ctx context.Context, cfg ibpconfig.Config, args []string) {
	fs := flag.NewFlagSet("commit", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		fail(exitOtherError, "commit: %v", err)
	}
	if fs.NArg() < 1 {
		fail(exitOtherError, "commit: run_id is required")
	}
	runID := fs.Arg(0)

	run, runDir, err := loadRun(cfg.RunsRoot, runID)
	if err != nil {
		fail(exitOtherError, "commit: %v", err)
	}
	if run.PlanGate == ibptypes.GateApplied {
		log.Printf("commit: run %s already committed", runID)
		os.Exit(exitOK)
	}
	if run.PlanGate != ibptypes.GateApproved {
		fail(exitInvariantViolation, "commit: run %s plan gate is %s, not approved", runID, run.PlanGate)
	}

	var plan ibptypes.ChunkPlan
	if err := runctx.ReadJSON(filepath.Join(runDir, "chunk_plan.approved.json"), &plan); err != nil {
		fail(exitOtherError, "commit: reading approved plan: %v", err)
	}

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		fail(exitOtherError, "commit: %v", err)
	}

	placementByChunk := map[string]ibptypes.PlacementProposal{}
	for _, p := range plan.Placements {
		placementByChunk[p.ChunkID] = p
	}

	existingTopics, err := repo.ListTopics(ctx)
	if err != nil {
		fail(exitOtherError, "commit: %v", err)
	}
	nextID := nextTopicID(existingTopics)
	now := time.Now().UTC().Format(time.RFC3339)

	committed, skipped := 0, 0
	for _, chunk := range plan.Chunks {
		p := placementByChunk[chunk.ChunkID]

		topic, err := resolveTopic(ctx, repo, p, chunk, &nextID, now)
		if err != nil {
			fail(exitOtherError, "commit: resolving topic for chunk %s: %v", chunk.ChunkID, err)
		}

		if err := repo.PutChunk(ctx, chunk); err != nil {
			if strings.Contains(err.Error(), "already exists") {
				skipped++
				continue
			}
			fail(exitInvariantViolation, "commit: %v", err)
		}

		proj, err := registry.Project(cfg.DataRoot, topic, chunk)
		if err != nil {
			fail(exitOtherError, "commit: projecting chunk %s: %v", chunk.ChunkID, err)
		}
		if err := repo.PutProjection(ctx, proj); err != nil {
			fail(exitOtherError, "commit: %v", err)
		}
		committed++
	}

	run.PlanGate = ibptypes.GateApplied
	if err := saveRun(runDir, run); err != nil {
		fail(exitOtherError, "commit: saving run state: %v", err)
	}
	log.Printf("commit: run %s: %d chunks committed, %d already present", runID, committed, skipped)
	os.Exit(exitOK)
}

// resolveTopic decides which topic a chunk belongs to: the pre-seeded
// exercises-family topic for exercise/application sections, the top
// candidate topic when placement was confident enough, or a freshly
// allocated topic when Propose flagged none as a good fit (§4.9, §4.10).
func resolveTopic(ctx context.Context, repo registry.Repository, p ibptypes.PlacementProposal, chunk ibptypes.Chunk, nextID *string, now string) (ibptypes.Topic, error) {
	if p.ExercisesFamily {
		return ensureTopic(ctx, repo, placement.ExercisesFamilyTopicID, "تمارين وتطبيقات", now)
	}

	if !p.NewTopicSuggested && len(p.CandidateTopics) > 0 {
		if t, ok, err := repo.GetTopic(ctx, p.CandidateTopics[0].TopicID); err != nil {
			return ibptypes.Topic{}, err
		} else if ok {
			return t, nil
		}
	}

	id := *nextID
	*nextID = bumpTopicID(id)
	topic := ibptypes.Topic{
		TopicID:        id,
		DisplayTitleAr: chunk.Title,
		Status:         ibptypes.TopicActive,
		CreatedBy:      ibptypes.CreatedByRule,
		CreatedAt:      now,
	}
	if err := repo.PutTopic(ctx, topic); err != nil {
		return ibptypes.Topic{}, err
	}
	return topic, nil
}

func ensureTopic(ctx context.Context, repo registry.Repository, topicID, titleAr, now string) (ibptypes.Topic, error) {
	if t, ok, err := repo.GetTopic(ctx, topicID); err != nil {
		return ibptypes.Topic{}, err
	} else if ok {
		return t, nil
	}
	topic := ibptypes.Topic{
		TopicID:        topicID,
		DisplayTitleAr: titleAr,
		Status:         ibptypes.TopicActive,
		CreatedBy:      ibptypes.CreatedByRule,
		CreatedAt:      now,
	}
	return topic, repo.PutTopic(ctx, topic)
}

func bumpTopicID(id string) string {
	var n int
	if _, err := fmt.Sscanf(id, "T%06d", &n); err == nil {
		return fmt.Sprintf("T%06d", n+1)
	}
	return id
}
