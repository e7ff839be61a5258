// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package learning

import (
	"context"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/tomtom215/palate/internal/recommend"
)

// evaluation holds the held-out metrics of one parameter set.
type evaluation struct {
	accuracy  float64
	mae       float64
	rmse      float64
	precision float64
	recall    float64
	f1        float64

	similarityAccuracy float64
	similarityPairs    int
}

// evaluate scores p on the test split.
//
//nolint:gocritic // hugeParam: cfg passed by value for immutability
func evaluate(cfg EvaluationConfig, p *params, test []sample) evaluation {
	var ev evaluation
	if len(test) == 0 {
		return ev
	}

	absErr := make(stats.Float64Data, len(test))
	sqErr := make(stats.Float64Data, len(test))
	var tp, predictedPos, actualPos int
	for i := range test {
		pred := p.predict(&test[i].scores)
		actual := test[i].target
		diff := pred - actual
		absErr[i] = math.Abs(diff)
		sqErr[i] = diff * diff

		highPred := pred > cfg.HighRatingThreshold
		highActual := actual > cfg.HighRatingThreshold
		if highPred {
			predictedPos++
		}
		if highActual {
			actualPos++
		}
		if highPred && highActual {
			tp++
		}
	}

	ev.accuracy = p.accuracy(test, cfg.Tolerance)
	ev.mae, _ = stats.Mean(absErr)
	mse, _ := stats.Mean(sqErr)
	ev.rmse = math.Sqrt(mse)
	if predictedPos > 0 {
		ev.precision = float64(tp) / float64(predictedPos)
	}
	if actualPos > 0 {
		ev.recall = float64(tp) / float64(actualPos)
	}
	if ev.precision+ev.recall > 0 {
		ev.f1 = 2 * ev.precision * ev.recall / (ev.precision + ev.recall)
	}
	return ev
}

// ratingSimilarity is the observed agreement of two users over the items
// both rated, mapped onto [0,1]. With at least three common items it is
// the Pearson correlation shifted to (r+1)/2; otherwise, or when either
// side has constant ratings, it is one minus the mean absolute difference.
func ratingSimilarity(a, b map[string]float64) (float64, bool) {
	var xs, ys stats.Float64Data
	for item, ra := range a {
		if rb, ok := b[item]; ok {
			xs = append(xs, ra)
			ys = append(ys, rb)
		}
	}
	if len(xs) == 0 {
		return 0, false
	}
	if len(xs) >= 3 && varies(xs) && varies(ys) {
		if r, err := stats.Pearson(xs, ys); err == nil && !math.IsNaN(r) {
			return (r + 1) / 2, true
		}
	}
	var diff float64
	for i := range xs {
		diff += math.Abs(xs[i] - ys[i])
	}
	return 1 - diff/float64(len(xs)), true
}

func varies(xs stats.Float64Data) bool {
	sd, err := stats.StandardDeviationPopulation(xs)
	return err == nil && sd > 0
}

// similarityAccuracy samples user pairs from the test split and checks the
// cached predicted similarity against observed rating agreement. Pairs
// with no cached similarity are not counted.
//
//nolint:gocritic // hugeParam: cfg passed by value for immutability
func similarityAccuracy(ctx context.Context, cfg EvaluationConfig, sims recommend.SimilarityCache, test []sample) (float64, int) {
	if sims == nil || cfg.SimilaritySamplePairs == 0 {
		return 0, 0
	}

	byUser := make(map[string]map[string]float64)
	for i := range test {
		s := &test[i]
		if byUser[s.userID] == nil {
			byUser[s.userID] = make(map[string]float64)
		}
		// Repeat ratings of one item keep the latest seen.
		byUser[s.userID][s.itemID] = s.target
	}
	users := make([]string, 0, len(byUser))
	for u := range byUser {
		users = append(users, u)
	}
	sort.Strings(users)

	compared, agreed := 0, 0
	for i := 0; i < len(users) && compared < cfg.SimilaritySamplePairs; i++ {
		for j := i + 1; j < len(users) && compared < cfg.SimilaritySamplePairs; j++ {
			if ctx.Err() != nil {
				break
			}
			actual, ok := ratingSimilarity(byUser[users[i]], byUser[users[j]])
			if !ok {
				continue
			}
			predicted, err := sims.GetSimilarity(ctx, users[i], users[j])
			if err != nil {
				continue
			}
			compared++
			if math.Abs(actual-predicted.Overall) <= cfg.SimilarityTolerance {
				agreed++
			}
		}
	}
	if compared == 0 {
		return 0, 0
	}
	return float64(agreed) / float64(compared), compared
}
