// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package learning

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/recommend"
)

// Calibration bounds keep every trained parameter set servable.
const (
	minScale = 0.05
	maxScale = 10
	maxBias  = 1
)

// params is the trainable parameter set: fusion weights plus a linear
// calibration of the fused sum.
type params struct {
	weights [models.NumSignals]float64
	scale   float64
	bias    float64
}

func paramsFrom(snap *recommend.Snapshot) params {
	return params{weights: snap.Weights.Values(), scale: snap.Scale, bias: snap.Bias}
}

func (p *params) fuse(s *[models.NumSignals]float64) float64 {
	var sum float64
	for i := range s {
		sum += p.weights[i] * s[i]
	}
	return sum
}

// predict is the served prediction, clamped to [0,1].
func (p *params) predict(s *[models.NumSignals]float64) float64 {
	x := p.scale*p.fuse(s) + p.bias
	return math.Max(0, math.Min(1, x))
}

// project restores the invariants after a gradient step: non-negative
// weights summing to 1 and a bounded calibration.
func (p *params) project() {
	var sum float64
	for i, w := range p.weights {
		if math.IsNaN(w) || w < 0 {
			w = 0
		}
		p.weights[i] = w
		sum += w
	}
	for i := range p.weights {
		if sum == 0 {
			p.weights[i] = 1 / float64(models.NumSignals)
		} else {
			p.weights[i] /= sum
		}
	}
	if math.IsNaN(p.scale) {
		p.scale = 1
	}
	p.scale = math.Max(minScale, math.Min(maxScale, p.scale))
	if math.IsNaN(p.bias) {
		p.bias = 0
	}
	p.bias = math.Max(-maxBias, math.Min(maxBias, p.bias))
}

// accuracy is the fraction of samples predicted within tolerance.
func (p *params) accuracy(samples []sample, tolerance float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	hits := 0
	for i := range samples {
		if math.Abs(p.predict(&samples[i].scores)-samples[i].target) <= tolerance {
			hits++
		}
	}
	return float64(hits) / float64(len(samples))
}

// step applies one mini-batch gradient step on squared error.
func (p *params) step(batch []sample, lr float64) {
	var gw [models.NumSignals]float64
	var gScale, gBias float64
	for i := range batch {
		s := &batch[i].scores
		f := p.fuse(s)
		err := p.scale*f + p.bias - batch[i].target
		for j := range gw {
			gw[j] += err * p.scale * s[j]
		}
		gScale += err * f
		gBias += err
	}
	n := float64(len(batch))
	for j := range p.weights {
		p.weights[j] -= lr * gw[j] / n
	}
	p.scale -= lr * gScale / n
	p.bias -= lr * gBias / n
	p.project()
}

// trainResult is what the Training step hands to evaluation.
type trainResult struct {
	best               params
	epochs             int
	validationAccuracy float64
}

// train runs mini-batch gradient descent from start with early stopping
// on validation accuracy. The best parameters seen are returned.
//
//nolint:gocritic // hugeParam: cfg passed by value for immutability
func train(ctx context.Context, cfg TrainingConfig, start params, data *dataset, rng *rand.Rand) (trainResult, error) {
	cur := start
	cur.project()
	best := cur
	bestAcc := cur.accuracy(data.validation, cfg.Tolerance)
	lr := cfg.LearningRate
	stale := 0

	order := make([]int, len(data.train))
	for i := range order {
		order[i] = i
	}
	batch := make([]sample, 0, cfg.BatchSize)

	epoch := 0
	for epoch < cfg.MaxEpochs {
		if err := ctx.Err(); err != nil {
			return trainResult{}, err
		}
		if epoch > 0 && epoch%cfg.DecayEvery == 0 {
			lr *= cfg.DecayFactor
		}

		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		for lo := 0; lo < len(order); lo += cfg.BatchSize {
			batch = batch[:0]
			for _, idx := range order[lo:min(lo+cfg.BatchSize, len(order))] {
				batch = append(batch, data.train[idx])
			}
			cur.step(batch, lr)
		}
		epoch++

		acc := cur.accuracy(data.validation, cfg.Tolerance)
		if acc > bestAcc {
			best, bestAcc, stale = cur, acc, 0
			continue
		}
		stale++
		if stale >= cfg.Patience {
			break
		}
	}
	return trainResult{best: best, epochs: epoch, validationAccuracy: bestAcc}, nil
}
