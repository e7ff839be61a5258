// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package learning

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/palate/internal/metrics"
	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/recommend"
)

// SnapshotPublisher holds the active scoring snapshot. *recommend.Engine
// implements it.
type SnapshotPublisher interface {
	Snapshot() *recommend.Snapshot
	Publish(snap *recommend.Snapshot) error
}

// Stores groups what the pipeline reads and writes. Similarities may be nil,
// in which case similarity accuracy is not measured.
type Stores struct {
	Feedback     recommend.FeedbackStore
	Performance  recommend.PerformanceStore
	Snapshots    recommend.SnapshotStore
	Similarities recommend.SimilarityCache
}

// Pipeline runs training cycles. At most one cycle runs at a time across
// the process; a cycle requested while another runs is a no-op.
type Pipeline struct {
	config    Config
	stores    Stores
	publisher SnapshotPublisher
	logger    zerolog.Logger
	now       func() time.Time

	busy    atomic.Bool
	trigger chan struct{}

	mu     sync.RWMutex
	status Status
}

// NewPipeline creates a pipeline.
//
//nolint:gocritic // hugeParam: cfg passed by value for immutability
func NewPipeline(cfg Config, stores Stores, publisher SnapshotPublisher, logger zerolog.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if stores.Feedback == nil || stores.Performance == nil || stores.Snapshots == nil {
		return nil, fmt.Errorf("feedback, performance and snapshot stores are required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("snapshot publisher is required")
	}
	return &Pipeline{
		config:    cfg,
		stores:    stores,
		publisher: publisher,
		logger:    logger.With().Str("component", "learning").Logger(),
		now:       time.Now,
		trigger:   make(chan struct{}, 1),
		status:    Status{State: StateIdle},
	}, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.config
}

// Trigger requests an out-of-schedule cycle. It never blocks; requests
// made while one is already pending are merged.
func (p *Pipeline) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Triggered delivers pending Trigger requests to the scheduler.
func (p *Pipeline) Triggered() <-chan struct{} {
	return p.trigger
}

// Running reports whether a cycle holds the busy flag.
func (p *Pipeline) Running() bool {
	return p.busy.Load()
}

// Status returns a snapshot of the pipeline state.
func (p *Pipeline) Status() Status {
	p.mu.RLock()
	s := p.status
	p.mu.RUnlock()
	s.Running = p.busy.Load()
	if snap := p.publisher.Snapshot(); snap != nil {
		s.ActiveSnapshotVersion = snap.Version
	}
	return s
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.status.State = s
	p.mu.Unlock()
}

// RunCycle runs one cycle. Unless force is set, the cycle stops after
// AssessingNeed when retraining is not needed. Skips, insufficient data
// and a concurrent cycle are outcomes, not errors; the returned error is
// set only for store or promotion failures.
func (p *Pipeline) RunCycle(ctx context.Context, force bool) (*Result, error) {
	if !p.busy.CompareAndSwap(false, true) {
		metrics.RecordTrainingCycle(string(OutcomeAlreadyRunning), 0, false)
		return &Result{Outcome: OutcomeAlreadyRunning, StartedAt: p.now(), Error: ErrTrainingInProgress.Error()}, nil
	}
	defer p.busy.Store(false)

	ctx, cancel := context.WithTimeout(ctx, p.config.CycleTimeout)
	defer cancel()

	res := &Result{StartedAt: p.now()}
	trained, err := p.cycle(ctx, force, res)
	res.Duration = p.now().Sub(res.StartedAt)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Error = err.Error()
	}
	if snap := p.publisher.Snapshot(); snap != nil {
		res.SnapshotVersion = snap.Version
	}

	p.mu.Lock()
	p.status.State = StateIdle
	p.status.LastOutcome = res.Outcome
	p.status.LastRunAt = res.StartedAt
	p.status.LastError = res.Error
	p.status.Cycles++
	p.mu.Unlock()

	metrics.RecordTrainingCycle(string(res.Outcome), res.Duration, trained)
	event := p.logger.Info()
	if err != nil {
		event = p.logger.Error().Err(err)
	}
	event.
		Str("outcome", string(res.Outcome)).
		Strs("reasons", res.Reasons).
		Int64("snapshot_version", res.SnapshotVersion).
		Dur("duration", res.Duration).
		Msg("learning cycle finished")
	return res, err
}

// cycle walks the state machine. It reports whether training ran.
func (p *Pipeline) cycle(ctx context.Context, force bool, res *Result) (bool, error) {
	p.setState(StateAssessingNeed)
	assessment, err := p.Assess(ctx)
	if err != nil {
		return false, err
	}
	res.Reasons = assessment.Reasons
	if !assessment.Needed && !force {
		res.Outcome = OutcomeSkipped
		return false, nil
	}

	p.setState(StateCollecting)
	since := p.now().Add(-p.config.Dataset.Window)
	records, err := p.stores.Feedback.QueryFeedback(ctx, since, p.config.Dataset.MaxRecords)
	if err != nil {
		return false, fmt.Errorf("collect feedback: %w", err)
	}

	p.setState(StatePreprocessing)
	samples := preprocess(records)
	if len(samples) < p.config.Dataset.MinRecords {
		p.logger.Info().
			Int("usable", len(samples)).
			Int("required", p.config.Dataset.MinRecords).
			Msg("skipping cycle: not enough labeled interactions")
		res.Outcome = OutcomeInsufficientData
		res.Error = fmt.Sprintf("%v: %d usable records, need %d", ErrInsufficientData, len(samples), p.config.Dataset.MinRecords)
		return false, nil
	}

	p.setState(StateSplitting)
	rng := newRand(p.config.Dataset.Seed)
	data := split(samples, p.config.Dataset.ValidationFraction, p.config.Dataset.TestFraction, rng)

	p.setState(StateTraining)
	active := p.publisher.Snapshot()
	tr, err := train(ctx, p.config.Training, paramsFrom(active), &data, rng)
	if err != nil {
		return true, fmt.Errorf("train: %w", err)
	}

	p.setState(StateEvaluating)
	ev := evaluate(p.config.Evaluation, &tr.best, data.test)
	ev.similarityAccuracy, ev.similarityPairs = similarityAccuracy(ctx, p.config.Evaluation, p.stores.Similarities, data.test)
	metrics.RecordEvaluation(ev.accuracy, ev.mae, ev.rmse, ev.f1, ev.similarityAccuracy)

	promote := ev.accuracy > p.config.Assessment.TargetAccuracy
	perf := &models.ModelPerformance{
		ID:                 uuid.NewString(),
		SnapshotVersion:    active.Version,
		Accuracy:           ev.accuracy,
		MAE:                ev.mae,
		RMSE:               ev.rmse,
		Precision:          ev.precision,
		Recall:             ev.recall,
		F1:                 ev.f1,
		SimilarityAccuracy: ev.similarityAccuracy,
		SimilarityPairs:    ev.similarityPairs,
		DatasetSize:        data.size(),
		TrainSize:          len(data.train),
		ValidationSize:     len(data.validation),
		TestSize:           len(data.test),
		Epochs:             tr.epochs,
		Promoted:           promote,
		EvaluatedAt:        p.now(),
	}
	if promote {
		perf.SnapshotVersion = active.Version + 1
	}
	res.Performance = perf

	p.setState(StateRecording)
	if err := p.stores.Performance.AppendPerformance(ctx, perf); err != nil {
		return true, fmt.Errorf("record performance: %w", err)
	}

	p.setState(StatePromoting)
	if !promote {
		res.Outcome = OutcomeNotPromoted
		return true, nil
	}
	snap := &recommend.Snapshot{
		Version:       active.Version + 1,
		Weights:       recommend.FusionWeightsFrom(tr.best.weights),
		Scale:         tr.best.scale,
		Bias:          tr.best.bias,
		TrainedAt:     perf.EvaluatedAt,
		PerformanceID: perf.ID,
	}
	if err := p.stores.Snapshots.SaveSnapshot(ctx, snap); err != nil {
		return true, fmt.Errorf("save snapshot: %w", err)
	}
	if err := p.publisher.Publish(snap); err != nil {
		return true, fmt.Errorf("publish snapshot: %w", err)
	}
	res.Outcome = OutcomePromoted
	return true, nil
}

// Assess runs the AssessingNeed step against the stores.
func (p *Pipeline) Assess(ctx context.Context) (Assessment, error) {
	latest, err := p.stores.Performance.LatestPerformance(ctx)
	switch {
	case errors.Is(err, models.ErrNotFound):
		latest = nil
	case err != nil:
		return Assessment{}, fmt.Errorf("latest performance: %w", err)
	}

	var since time.Time
	if latest != nil {
		since = latest.EvaluatedAt
	}
	fresh, err := p.stores.Feedback.CountFeedbackSince(ctx, since)
	if err != nil {
		return Assessment{}, fmt.Errorf("count feedback: %w", err)
	}
	return AssessNeed(p.config.Assessment, latest, fresh, p.now()), nil
}

// Performance returns up to limit recorded evaluations, newest first.
func (p *Pipeline) Performance(ctx context.Context, limit int) ([]*models.ModelPerformance, error) {
	return p.stores.Performance.ListPerformance(ctx, limit)
}
