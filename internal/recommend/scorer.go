// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package recommend

import (
	"fmt"
	"time"

	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/taste"
)

// Cold-start blending: context match dominates, popularity breaks ties.
const (
	coldStartPopularityWeight = 0.3
	coldStartBaseConfidence   = 0.3
	coldStartContextGain      = 0.3
)

// Reason thresholds.
const (
	reasonTaste         = 0.75
	reasonEmotional     = 0.6
	reasonContext       = 0.75
	reasonCollaborative = 0.7
	reasonNovelty       = 0.6
	maxReasons          = 3
)

// Scorer computes sub-scores and fused results for one candidate.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	confidenceCap    float64
	algorithmVersion string
}

// NewScorer creates a scorer from the engine configuration.
func NewScorer(cfg *Config) *Scorer {
	return &Scorer{
		confidenceCap:    cfg.ColdStartConfidenceCap,
		algorithmVersion: cfg.AlgorithmVersion,
	}
}

// ScoreInput bundles everything needed to score a candidate for a user
// with a profile.
type ScoreInput struct {
	Snapshot       *Snapshot
	Profile        *models.PalateProfile
	Candidate      *Candidate
	Context        models.Context
	Neighborhood   Neighborhood
	IncludeNovelty bool
	Now            time.Time
}

// Score returns the personalized result for one candidate.
//
//nolint:gocritic // hugeParam: in passed by value for immutability
func (s *Scorer) Score(in ScoreInput) models.RecommendationResult {
	nb := in.Neighborhood
	if nb == nil {
		nb = neutralNeighborhood{}
	}

	scores := models.SubScores{
		Taste:         TasteScore(in.Profile.Vector, in.Candidate.Taste),
		Emotional:     EmotionalScore(&in.Profile.Matrix, in.Candidate.Taste),
		Context:       ContextScore(in.Candidate.Context, in.Context),
		Collaborative: clamp01(nb.ItemScore(in.Candidate)),
		Novelty:       0.5,
	}
	if in.IncludeNovelty {
		scores.Novelty = taste.Novelty(in.Profile.Vector, in.Candidate.Taste)
	}

	res := s.result(in.Profile.UserID, in.Candidate, scores, in.Now)
	res.Total = in.Snapshot.Predict(scores)
	res.Confidence = Confidence(scores, in.Profile.Confidence)
	res.Reasons = Reasons(scores, in.IncludeNovelty)
	return res
}

// ColdStart scores a candidate for a user with no profile. Taste,
// emotional and collaborative stay neutral; context match and item
// popularity decide the order, and confidence never exceeds the
// configured cap.
func (s *Scorer) ColdStart(snap *Snapshot, userID string, c *Candidate, reqCtx models.Context, now time.Time) models.RecommendationResult {
	scores := models.NeutralScores()
	scores.Context = ContextScore(c.Context, reqCtx)

	res := s.result(userID, c, scores, now)
	res.Total = clamp01((1-coldStartPopularityWeight)*snap.Predict(scores) + coldStartPopularityWeight*c.Popularity())

	conf := coldStartBaseConfidence + coldStartContextGain*scores.Context
	if conf > s.confidenceCap {
		conf = s.confidenceCap
	}
	res.Confidence = conf

	res.Reasons = []string{"Popular with other diners"}
	if scores.Context >= reasonContext {
		res.Reasons = append(res.Reasons, "Fits the moment")
	}
	return res
}

func (s *Scorer) result(userID string, c *Candidate, scores models.SubScores, now time.Time) models.RecommendationResult {
	return models.RecommendationResult{
		UserID:           userID,
		ItemID:           c.ItemID,
		RestaurantID:     c.RestaurantID,
		Name:             c.Name,
		Cuisine:          c.Cuisine,
		Price:            c.Price,
		Taste:            c.Taste,
		Scores:           scores,
		AlgorithmVersion: s.algorithmVersion,
		GeneratedAt:      now,
	}
}

// TasteScore is the weighted cosine similarity of the profile and item.
func TasteScore(profile, item taste.Vector) float64 {
	return taste.Similarity(profile, item)
}

// EmotionalScore predicts satisfaction from the emotional matrix. For each
// emotional axis it takes the mean over dimensions of matrix[d][axis] times
// the item's value on d divided by MaxValue, then sums the axis means by
// their importance weights. Taking the mean keeps the score in [0, 1]
// without saturating: a neutral matrix on a neutral item scores 0.25.
func EmotionalScore(matrix *models.EmotionalMatrix, item taste.Vector) float64 {
	var total float64
	for a := 0; a < taste.NumEmotions; a++ {
		var axis float64
		for d := 0; d < taste.NumDimensions; d++ {
			axis += matrix[d][a] * item[d] / taste.MaxValue
		}
		total += taste.EmotionWeights[a] * axis / taste.NumDimensions
	}
	return clamp01(total)
}

// ContextScore is the fraction of context fields present on both sides
// that match. It is 0.5 when no field is present on both.
func ContextScore(item, request models.Context) float64 {
	iv, rv := item.Values(), request.Values()
	var compared, matched int
	for _, f := range models.ContextFields {
		if iv[f] == "" || rv[f] == "" {
			continue
		}
		compared++
		if iv[f] == rv[f] {
			matched++
		}
	}
	if compared == 0 {
		return 0.5
	}
	return float64(matched) / float64(compared)
}

// Confidence is the mean of the four primary sub-scores scaled by the
// profile's confidence (0-100) into [0.5,1] of itself.
func Confidence(scores models.SubScores, profileConfidence float64) float64 {
	mean := (scores.Taste + scores.Emotional + scores.Context + scores.Collaborative) / 4
	pc := profileConfidence / 100
	if pc < 0 {
		pc = 0
	}
	if pc > 1 {
		pc = 1
	}
	return clamp01(mean * (0.5 + 0.5*pc))
}

// Reasons explains the strongest signals behind a result, strongest
// signal kind first, at most three.
func Reasons(scores models.SubScores, includeNovelty bool) []string {
	reasons := make([]string, 0, maxReasons)
	add := func(ok bool, msg string) {
		if ok && len(reasons) < maxReasons {
			reasons = append(reasons, msg)
		}
	}
	add(scores.Taste >= reasonTaste, fmt.Sprintf("Matches your taste profile (%.0f%%)", scores.Taste*100))
	add(scores.Collaborative >= reasonCollaborative, "Diners with a similar palate enjoyed this")
	add(scores.Emotional >= reasonEmotional, "Likely to be satisfying for you")
	add(scores.Context >= reasonContext, "Fits the moment")
	add(includeNovelty && scores.Novelty >= reasonNovelty, "Something new for your palate")
	if len(reasons) == 0 {
		reasons = append(reasons, "A reasonable match overall")
	}
	return reasons
}
