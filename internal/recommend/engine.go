// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/palate/internal/cache"
	"github.com/tomtom215/palate/internal/metrics"
	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/palate"
)

// Serving paths reported in metrics.
const (
	pathCache        = "cache"
	pathPersonalized = "personalized"
	pathColdStart    = "cold_start"
	pathEmpty        = "empty"
)

// Engine is the entry point for recommendations, experiences and feedback.
// It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger

	stores    Stores
	manager   *palate.Manager
	scorer    *Scorer
	collab    Collaborative
	publisher Publisher

	rerankers map[string]Reranker
	rrMu      sync.RWMutex

	snapshot atomic.Pointer[Snapshot]
	served   *cache.Cache[served]

	now func() time.Time
}

// NewEngine creates an engine. The active snapshot starts at version 0
// with the configured weights.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, stores Stores, manager *palate.Manager, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if stores.Profiles == nil || stores.Experiences == nil || stores.Feedback == nil {
		return nil, fmt.Errorf("profile, experience and feedback stores are required")
	}
	if manager == nil {
		return nil, fmt.Errorf("profile manager is required")
	}

	servedTTL := cfg.Cache.ServedTTL
	if servedTTL <= 0 {
		servedTTL = DefaultConfig().Cache.ServedTTL
	}

	e := &Engine{
		config:    cfg,
		logger:    logger.With().Str("component", "recommend").Logger(),
		stores:    stores,
		manager:   manager,
		scorer:    NewScorer(cfg),
		rerankers: make(map[string]Reranker),
		served:    cache.New[served](servedTTL),
		now:       time.Now,
	}
	e.snapshot.Store(DefaultSnapshot(cfg.Weights))
	metrics.ActiveSnapshotVersion.Set(0)
	return e, nil
}

// SetCollaborative sets the collaborative signal source. Without one the
// collaborative score is neutral.
func (e *Engine) SetCollaborative(c Collaborative) {
	e.collab = c
}

// SetPublisher sets where recorded experiences and feedback are announced.
func (e *Engine) SetPublisher(p Publisher) {
	e.publisher = p
}

// RegisterReranker makes a reranker selectable by its name.
func (e *Engine) RegisterReranker(rr Reranker) {
	e.rrMu.Lock()
	defer e.rrMu.Unlock()

	e.rerankers[rr.Name()] = rr
	e.logger.Info().
		Str("reranker", rr.Name()).
		Msg("registered reranker")
}

// Config returns the engine configuration. Callers must not modify it.
func (e *Engine) Config() *Config {
	return e.config
}

// Snapshot returns the active scoring snapshot.
func (e *Engine) Snapshot() *Snapshot {
	return e.snapshot.Load()
}

// Publish atomically makes snap the active snapshot. Versions must
// strictly increase; an older or equal version is rejected.
func (e *Engine) Publish(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", ErrInvalidArgument)
	}
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	for {
		cur := e.snapshot.Load()
		if snap.Version <= cur.Version {
			return fmt.Errorf("%w: snapshot version %d is not newer than %d", ErrInvalidArgument, snap.Version, cur.Version)
		}
		if e.snapshot.CompareAndSwap(cur, snap) {
			break
		}
	}
	metrics.ActiveSnapshotVersion.Set(float64(snap.Version))
	e.logger.Info().
		Int64("version", snap.Version).
		Float64("scale", snap.Scale).
		Float64("bias", snap.Bias).
		Msg("scoring snapshot published")
	return nil
}

// Close releases background resources.
func (e *Engine) Close() {
	e.served.Close()
}

// Recommend returns a ranked list for the request. Store failures degrade
// to neutral defaults; only malformed requests return an error.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := e.now()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req = e.prepareRequest(req)

	if e.config.Limits.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Limits.RequestTimeout)
		defer cancel()
	}

	k := req.Preferences.K
	diversity := e.config.Diversity.Factor
	if req.Preferences.Diversity != nil {
		diversity = *req.Preferences.Diversity
	}

	snap := e.Snapshot()
	hash := ContextHash(req.Context, k, diversity, &req.Preferences)
	logger := e.logger.With().
		Str("request_id", req.RequestID).
		Str("user_id", req.UserID).
		Str("context_hash", hash).
		Logger()

	resp := &Response{Metadata: ResponseMetadata{
		RequestID:       req.RequestID,
		UserID:          req.UserID,
		ContextHash:     hash,
		SnapshotVersion: snap.Version,
		Timestamp:       start,
	}}

	if results, ok := e.cachedResults(ctx, req.UserID, hash, logger); ok {
		e.rememberServed(results, snap.Version)
		resp.Results = results
		resp.Metadata.CacheHit = true
		return e.finish(resp, pathCache, start), nil
	}

	profile, cold := e.loadProfile(ctx, req.UserID, logger)
	resp.Metadata.ColdStart = cold

	catalog, err := e.loadCatalog(ctx, &req.Preferences)
	if err != nil {
		logger.Warn().Err(err).Msg("candidate query failed, returning empty list")
		metrics.RecommendDegraded.WithLabelValues("candidates").Inc()
		resp.Results = []models.RecommendationResult{}
		return e.finish(resp, pathEmpty, start), nil
	}

	candidates := catalog
	if req.Preferences.ExcludeTried {
		candidates = untried(catalog, req.UserID)
	}
	resp.Metadata.Candidates = len(candidates)

	var results []models.RecommendationResult
	path := pathPersonalized
	if cold {
		path = pathColdStart
		results = e.scoreColdStart(snap, req, candidates)
	} else {
		nb := e.neighborhood(ctx, profile, catalog, logger)
		results = e.scorePersonalized(snap, profile, req, candidates, nb)
	}

	sortResults(results)
	results, rerankerName := e.applyReranker(ctx, results, k, diversity)
	if len(results) > k {
		results = results[:k]
	}
	resp.Metadata.Reranker = rerankerName
	resp.Results = results

	if len(results) == 0 {
		path = pathEmpty
	} else {
		e.rememberServed(results, snap.Version)
		e.cacheResults(ctx, req.UserID, hash, results, logger)
	}

	logger.Debug().
		Bool("cold_start", cold).
		Int("candidates", len(candidates)).
		Int("returned", len(results)).
		Msg("recommendation complete")

	return e.finish(resp, path, start), nil
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.Preferences.K == 0 {
		req.Preferences.K = e.config.Limits.DefaultK
	}
	if req.Preferences.K > e.config.Limits.MaxK {
		req.Preferences.K = e.config.Limits.MaxK
	}
	return req
}

func (e *Engine) finish(resp *Response, path string, start time.Time) *Response {
	elapsed := e.now().Sub(start)
	resp.Metadata.LatencyMS = elapsed.Milliseconds()
	metrics.RecordRecommendation(path, resp.Metadata.Candidates, elapsed)
	return resp
}

func (e *Engine) cacheEnabled() bool {
	return e.config.Cache.Enabled && e.stores.Recommendations != nil
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) cachedResults(ctx context.Context, userID, hash string, logger zerolog.Logger) ([]models.RecommendationResult, bool) {
	if !e.cacheEnabled() {
		return nil, false
	}
	results, err := e.stores.Recommendations.GetRecommendations(ctx, userID, hash)
	switch {
	case err == nil:
		metrics.RecordCache("recommendations", true)
		return results, true
	case errors.Is(err, models.ErrNotFound):
	default:
		logger.Warn().Err(err).Msg("recommendation cache read failed")
	}
	metrics.RecordCache("recommendations", false)
	return nil, false
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) cacheResults(ctx context.Context, userID, hash string, results []models.RecommendationResult, logger zerolog.Logger) {
	if !e.cacheEnabled() {
		return
	}
	if err := e.stores.Recommendations.PutRecommendations(ctx, userID, hash, results, e.config.Cache.TTL); err != nil {
		logger.Warn().Err(err).Msg("recommendation cache write failed")
	}
}

// loadProfile returns the profile and whether the cold-start path applies.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) loadProfile(ctx context.Context, userID string, logger zerolog.Logger) (*models.PalateProfile, bool) {
	profile, err := e.stores.Profiles.GetProfile(ctx, userID)
	switch {
	case err == nil && profile != nil:
		return profile, false
	case err == nil, errors.Is(err, models.ErrNotFound):
		logger.Debug().Msg("no profile, using cold start")
	default:
		logger.Warn().Err(err).Msg("profile read failed, using cold start")
		metrics.RecommendDegraded.WithLabelValues("profile").Inc()
	}
	return nil, true
}

func (e *Engine) loadCatalog(ctx context.Context, prefs *models.Preferences) ([]*Candidate, error) {
	pool, err := e.stores.Experiences.QueryCandidates(ctx, models.CandidateFilter{
		Cuisines: prefs.Cuisines,
		MaxPrice: prefs.MaxPrice,
		Limit:    e.config.Limits.MaxCandidates,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingData, err)
	}
	return BuildCatalog(pool), nil
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) neighborhood(ctx context.Context, profile *models.PalateProfile, catalog []*Candidate, logger zerolog.Logger) Neighborhood {
	if e.collab == nil {
		return neutralNeighborhood{}
	}
	nb, err := e.collab.Neighborhood(ctx, profile, catalog)
	if err != nil || nb == nil {
		logger.Warn().Err(err).Msg("collaborative neighborhood unavailable, using neutral score")
		metrics.RecommendDegraded.WithLabelValues("collaborative").Inc()
		return neutralNeighborhood{}
	}
	metrics.SimilarUsersFound.Observe(float64(len(nb.Similar())))
	return nb
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) scoreColdStart(snap *Snapshot, req Request, candidates []*Candidate) []models.RecommendationResult {
	now := e.now()
	results := make([]models.RecommendationResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, e.scorer.ColdStart(snap, req.UserID, c, req.Context, now))
	}
	return results
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) scorePersonalized(snap *Snapshot, profile *models.PalateProfile, req Request, candidates []*Candidate, nb Neighborhood) []models.RecommendationResult {
	now := e.now()
	threshold := e.config.Thresholds.For(profile.Maturity)
	results := make([]models.RecommendationResult, 0, len(candidates))
	for _, c := range candidates {
		res := e.scorer.Score(ScoreInput{
			Snapshot:       snap,
			Profile:        profile,
			Candidate:      c,
			Context:        req.Context,
			Neighborhood:   nb,
			IncludeNovelty: req.Preferences.IncludeNovelty,
			Now:            now,
		})
		if res.Total <= threshold {
			continue
		}
		results = append(results, res)
	}
	return results
}

// applyReranker runs the configured diversity strategy. An unknown
// strategy or zero diversity keeps relevance order.
func (e *Engine) applyReranker(ctx context.Context, results []models.RecommendationResult, k int, diversity float64) ([]models.RecommendationResult, string) {
	if diversity <= 0 || len(results) <= 1 {
		return results, ""
	}
	e.rrMu.RLock()
	rr, ok := e.rerankers[e.config.Diversity.Strategy]
	e.rrMu.RUnlock()
	if !ok {
		return results, ""
	}
	return rr.Rerank(ctx, results, k, diversity), rr.Name()
}

func (e *Engine) rememberServed(results []models.RecommendationResult, version int64) {
	for i := range results {
		r := &results[i]
		e.served.Set(servedKey(r.UserID, r.ItemID), served{
			Total:   r.Total,
			Scores:  r.Scores,
			Version: version,
		})
	}
}

// sortResults orders by total, then confidence, then item id.
func sortResults(results []models.RecommendationResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := &results[i], &results[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.ItemID < b.ItemID
	})
}

func untried(catalog []*Candidate, userID string) []*Candidate {
	out := make([]*Candidate, 0, len(catalog))
	for _, c := range catalog {
		if !c.RatedBy(userID) {
			out = append(out, c)
		}
	}
	return out
}

// RecordExperience updates the user's profile with exp, stores exp as a
// candidate, and announces it. Once the profile update succeeds, later
// failures are logged and do not fail the call, so a retry never applies
// the same experience twice.
func (e *Engine) RecordExperience(ctx context.Context, exp *models.FoodExperience) (*models.PalateProfile, error) {
	if exp == nil {
		return nil, fmt.Errorf("%w: nil experience", ErrInvalidArgument)
	}
	rec := *exp
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = e.now()
	}

	profile, err := e.manager.RecordExperience(ctx, &rec)
	if err != nil {
		return nil, err
	}

	logger := e.logger.With().Str("user_id", rec.UserID).Str("experience_id", rec.ID).Logger()
	if n := len(profile.History); n > 0 {
		metrics.ProfileEvolution.WithLabelValues(string(profile.History[n-1].Type)).Inc()
	}

	if err := e.stores.Experiences.AppendExperience(ctx, &rec); err != nil {
		logger.Warn().Err(err).Msg("experience stored in profile but not in candidate store")
	}
	if e.publisher != nil {
		if err := e.publisher.PublishExperience(ctx, &rec, profile); err != nil {
			logger.Warn().Err(err).Msg("publish experience failed")
		}
	}
	return profile, nil
}

// RecordFeedback stores the user's rating for an item as a labeled
// interaction. The prediction is the one last served to this user for the
// item, or neutral when nothing was served recently.
//
//nolint:gocritic // hugeParam: fb passed by value for immutability
func (e *Engine) RecordFeedback(ctx context.Context, fb Feedback) (*models.InteractionRecord, error) {
	if fb.UserID == "" || fb.ItemID == "" {
		return nil, fmt.Errorf("%w: user_id and item_id are required", ErrInvalidArgument)
	}
	if math.IsNaN(fb.Rating) || fb.Rating < 0 || fb.Rating > 10 {
		return nil, fmt.Errorf("%w: rating must be in [0,10], got %f", ErrInvalidArgument, fb.Rating)
	}

	rec := &models.InteractionRecord{
		ID:              uuid.NewString(),
		UserID:          fb.UserID,
		ItemID:          fb.ItemID,
		Predicted:       0.5,
		Scores:          models.NeutralScores(),
		Rating:          fb.Rating,
		SnapshotVersion: e.Snapshot().Version,
		Timestamp:       e.now(),
	}
	s, ok := e.served.Get(servedKey(fb.UserID, fb.ItemID))
	metrics.RecordCache("served", ok)
	if ok {
		rec.Predicted = s.Total
		rec.Scores = s.Scores
		rec.SnapshotVersion = s.Version
	}

	if err := e.stores.Feedback.AppendFeedback(ctx, rec); err != nil {
		return nil, fmt.Errorf("append feedback: %w", err)
	}
	metrics.FeedbackRecorded.Inc()

	if e.publisher != nil {
		if err := e.publisher.PublishFeedback(ctx, rec); err != nil {
			e.logger.Warn().Err(err).Str("user_id", rec.UserID).Msg("publish feedback failed")
		}
	}
	return rec, nil
}

// Profile returns the stored profile for userID.
func (e *Engine) Profile(ctx context.Context, userID string) (*models.PalateProfile, error) {
	profile, err := e.stores.Profiles.GetProfile(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrMissingProfile, userID)
	}
	return profile, err
}
