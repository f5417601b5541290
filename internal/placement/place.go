// Package placement implements C9 (§4.9): proposing topic placement for a
// chunk by comparing its normalized Arabic tokens against existing topic
// representative chunks.
package placement

import (
	"sort"
	"strings"

	"github.com/rayanino/islamic-book-processor/internal/arabicnorm"
	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
)

// ExercisesFamilyTopicID is the well-known topic for exercise/application
// sections (§4.9). The registry (C10) pre-seeds a Topic under this id
// before committing any chunk routed here.
const ExercisesFamilyTopicID = "T000000" // Txxxxxx__تمارين_وتطبيقات

const exercisesFamilyTopicID = ExercisesFamilyTopicID

var exerciseTokens = []string{"أسئلة", "سؤال", "تمرين", "تطبيق", "تدريبات", "اختبار"}

// TopicRef is a topic with one or more representative chunk bodies used
// for similarity comparison. Folder-name similarity is never used as a
// signal (§4.9): only TitleAr/Bodies content participates.
type TopicRef struct {
	TopicID string
	TitleAr string
	Bodies  []string
}

const reviewThreshold = 0.85

// Propose compares chunk against every candidate topic and returns a
// ranked PlacementProposal (§4.9).
func Propose(chunk ibptypes.Chunk, topics []TopicRef) ibptypes.PlacementProposal {
	chunkTokens := tokenSet(chunk.Title + "\n" + chunk.Body)

	var sims []ibptypes.TopicSimilarity
	for _, topic := range topics {
		sim := bestSimilarity(chunkTokens, topic)
		sims = append(sims, ibptypes.TopicSimilarity{TopicID: topic.TopicID, Similarity: sim})
	}
	sort.SliceStable(sims, func(i, j int) bool { return sims[i].Similarity > sims[j].Similarity })

	p := ibptypes.PlacementProposal{
		ChunkID:         chunk.ChunkID,
		CandidateTopics: sims,
	}

	p.TopicPurityConfidence = purity(chunkTokens)
	p.BoundaryConfidence = boundaryConfidence(chunk)

	switch len(sims) {
	case 0:
		p.PlacementConfidence = 0
		p.NewTopicSuggested = true
	case 1:
		p.PlacementConfidence = sims[0].Similarity
	default:
		p.PlacementConfidence = sims[0].Similarity - sims[1].Similarity
	}

	if isExerciseSection(chunk.Title) || isExerciseSection(chunk.Body) {
		p.ExercisesFamily = true
		hasExercisesTopic := false
		for _, s := range sims {
			if s.TopicID == exercisesFamilyTopicID {
				hasExercisesTopic = true
			}
		}
		if !hasExercisesTopic {
			p.CandidateTopics = append([]ibptypes.TopicSimilarity{{TopicID: exercisesFamilyTopicID, Similarity: 1}}, p.CandidateTopics...)
		}
	}

	if len(sims) == 0 || sims[0].Similarity < reviewThreshold {
		p.NewTopicSuggested = len(sims) == 0 || sims[0].Similarity < 0.5
	}

	p.ReviewRequired = p.BoundaryConfidence < reviewThreshold ||
		p.TopicPurityConfidence < reviewThreshold ||
		p.PlacementConfidence < reviewThreshold ||
		p.NewTopicSuggested

	return p
}

func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, tok := range arabicnorm.Tokenize(s) {
		set[tok] = true
	}
	return set
}

// bestSimilarity returns the Jaccard similarity between chunkTokens and
// whichever of the topic's representative chunk bodies scores highest.
func bestSimilarity(chunkTokens map[string]bool, topic TopicRef) float64 {
	best := jaccard(chunkTokens, tokenSet(topic.TitleAr))
	for _, body := range topic.Bodies {
		if s := jaccard(chunkTokens, tokenSet(body)); s > best {
			best = s
		}
	}
	return best
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var inter int
	for tok := range a {
		if b[tok] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// purity estimates single-topic homogeneity of the chunk body from the size
// of its distinct-token vocabulary: a short, lexically-repetitive body (a
// single coherent idea) scores high.
func purity(tokens map[string]bool) float64 {
	if len(tokens) == 0 {
		return 0
	}
	// A larger vocabulary relative to a fixed reference size suggests the
	// chunk spans more than one topic; clamp into [0,1].
	const referenceVocab = 40.0
	ratio := 1 - (float64(len(tokens))-referenceVocab)/(referenceVocab*4)
	if ratio > 1 {
		ratio = 1
	}
	if ratio < 0 {
		ratio = 0
	}
	return ratio
}

// boundaryConfidence approximates scorer+oracle agreement from the chunk's
// level: a level-2 heading with a clean title is the common, well-agreed
// case; level-3 or empty titles are lower-confidence boundaries.
func boundaryConfidence(chunk ibptypes.Chunk) float64 {
	if strings.TrimSpace(chunk.Title) == "" {
		return 0.5
	}
	if chunk.Level == 2 {
		return 0.95
	}
	return 0.8
}

func isExerciseSection(text string) bool {
	for _, tok := range exerciseTokens {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}
