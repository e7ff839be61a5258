// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package learning

import (
	"math"
	"math/rand/v2"

	"github.com/tomtom215/palate/internal/models"
)

// sample is one preprocessed training example.
type sample struct {
	userID string
	itemID string
	scores [models.NumSignals]float64
	target float64
}

// dataset is the three-way split.
type dataset struct {
	train, validation, test []sample
}

func (d *dataset) size() int {
	return len(d.train) + len(d.validation) + len(d.test)
}

// preprocess drops unusable records and converts the rest to samples.
func preprocess(records []*models.InteractionRecord) []sample {
	out := make([]sample, 0, len(records))
	for _, r := range records {
		if r == nil || !r.Usable() {
			continue
		}
		out = append(out, sample{
			userID: r.UserID,
			itemID: r.ItemID,
			scores: r.Scores.Values(),
			target: r.NormalizedRating(),
		})
	}
	return out
}

// split shuffles samples with rng and partitions them. The test and
// validation shares are rounded; training keeps the remainder.
func split(samples []sample, validationFraction, testFraction float64, rng *rand.Rand) dataset {
	shuffled := append([]sample(nil), samples...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	n := len(shuffled)
	nTest := int(math.Round(float64(n) * testFraction))
	nVal := int(math.Round(float64(n) * validationFraction))
	if nTest+nVal > n {
		nVal = n - nTest
	}

	return dataset{
		test:       shuffled[:nTest],
		validation: shuffled[nTest : nTest+nVal],
		train:      shuffled[nTest+nVal:],
	}
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
