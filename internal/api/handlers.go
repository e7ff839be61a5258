// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tomtom215/palate/internal/learning"
	"github.com/tomtom215/palate/internal/logging"
	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/recommend"
	"github.com/tomtom215/palate/internal/taste"
	"github.com/tomtom215/palate/internal/validation"
)

// Recommender is the engine surface the API serves. *recommend.Engine
// implements it.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
	RecordExperience(ctx context.Context, exp *models.FoodExperience) (*models.PalateProfile, error)
	RecordFeedback(ctx context.Context, fb recommend.Feedback) (*models.InteractionRecord, error)
	Profile(ctx context.Context, userID string) (*models.PalateProfile, error)
}

// Learner is the pipeline surface the API serves. *learning.Pipeline
// implements it.
type Learner interface {
	Status() learning.Status
	Assess(ctx context.Context) (learning.Assessment, error)
	RunCycle(ctx context.Context, force bool) (*learning.Result, error)
	Performance(ctx context.Context, limit int) ([]*models.ModelPerformance, error)
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Handler serves the HTTP endpoints.
type Handler struct {
	engine   Recommender
	learner  Learner
	profiles recommend.ProfileStore
	checks   map[string]ReadinessCheck
	logger   zerolog.Logger

	maxBodyBytes     int64
	populationSample int
	startTime        time.Time
}

var (
	_ Recommender = (*recommend.Engine)(nil)
	_ Learner     = (*learning.Pipeline)(nil)
)

// defaultPopulationSample is how many profiles the outlier insight compares against.
const defaultPopulationSample = 200

// NewHandler creates a Handler. profiles supplies the population for the
// outlier insight and may be nil to omit it. checks run on /health/ready.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(engine Recommender, learner Learner, profiles recommend.ProfileStore, checks map[string]ReadinessCheck, logger zerolog.Logger) *Handler {
	return &Handler{
		engine:           engine,
		learner:          learner,
		profiles:         profiles,
		checks:           checks,
		logger:           logger.With().Str("component", "api").Logger(),
		maxBodyBytes:     DefaultRouterConfig().MaxBodyBytes,
		populationSample: defaultPopulationSample,
		startTime:        time.Now(),
	}
}

// HealthLive answers as long as the process serves HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondData(w, http.StatusOK, map[string]any{
		"status":         "alive",
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	}, time.Now(), false)
}

// HealthReady runs every readiness check and answers 503 if any fails.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	ready := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			ready = false
			continue
		}
		results[name] = "ok"
	}

	if !ready {
		respondError(w, http.StatusServiceUnavailable, CodeUnavailable, "Not ready", map[string]any{"checks": results})
		return
	}
	respondData(w, http.StatusOK, map[string]any{"status": "ready", "checks": results}, start, false)
}

// Recommend handles POST /api/v1/recommendations.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req recommend.Request
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.RequestID == "" {
		req.RequestID = logging.RequestIDFromContext(r.Context())
	}
	r = r.WithContext(logging.ContextWithUserID(r.Context(), req.UserID))

	resp, err := h.engine.Recommend(r.Context(), req)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondData(w, http.StatusOK, resp, start, resp.Metadata.CacheHit)
}

// RecordExperience handles POST /api/v1/experiences and returns the
// updated profile.
func (h *Handler) RecordExperience(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var exp models.FoodExperience
	if !h.decodeJSON(w, r, &exp) {
		return
	}
	r = r.WithContext(logging.ContextWithUserID(r.Context(), exp.UserID))

	profile, err := h.engine.RecordExperience(r.Context(), &exp)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, profile, start, false)
}

// RecordFeedback handles POST /api/v1/feedback.
func (h *Handler) RecordFeedback(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var fb recommend.Feedback
	if !h.decodeJSON(w, r, &fb) {
		return
	}
	r = r.WithContext(logging.ContextWithUserID(r.Context(), fb.UserID))

	record, err := h.engine.RecordFeedback(r.Context(), fb)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, record, start, false)
}

// ProfileInsight is a profile plus derived insight.
type ProfileInsight struct {
	Profile   *models.PalateProfile `json:"profile"`
	Diversity float64               `json:"diversity"`

	// Outliers is empty when too few other profiles exist to compare.
	Outliers   []taste.Outlier `json:"outliers"`
	Population int             `json:"population"`
}

// Profile handles GET /api/v1/users/{userID}/profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID := chi.URLParam(r, "userID")
	if userID == "" || len(userID) > 128 {
		respondError(w, http.StatusBadRequest, validation.CodeValidationError, "userID must be 1-128 characters", nil)
		return
	}

	profile, err := h.engine.Profile(r.Context(), userID)
	if err != nil {
		respondFailure(w, r, err)
		return
	}

	insight := ProfileInsight{
		Profile:   profile,
		Diversity: taste.DiversityScore(profile.Vector),
		Outliers:  []taste.Outlier{},
	}
	population := h.population(r.Context(), userID)
	insight.Population = len(population)
	if outliers := taste.OutlierDetection(profile.Vector, population); outliers != nil {
		insight.Outliers = outliers
	}
	respondData(w, http.StatusOK, insight, start, false)
}

// population samples other users' taste vectors. Store failures degrade to
// an empty population.
func (h *Handler) population(ctx context.Context, exclude string) []taste.Vector {
	if h.profiles == nil {
		return nil
	}
	profiles, err := h.profiles.ListProfiles(ctx, h.populationSample+1)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Profile population unavailable")
		return nil
	}
	vectors := make([]taste.Vector, 0, len(profiles))
	for _, p := range profiles {
		if p.UserID == exclude || len(vectors) == h.populationSample {
			continue
		}
		vectors = append(vectors, p.Vector)
	}
	return vectors
}

// LearningStatusResponse is the pipeline status plus the current
// retraining assessment.
type LearningStatusResponse struct {
	learning.Status
	Assessment *learning.Assessment `json:"assessment,omitempty"`
}

// LearningStatus handles GET /api/v1/learning/status.
func (h *Handler) LearningStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	resp := LearningStatusResponse{Status: h.learner.Status()}
	if assessment, err := h.learner.Assess(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("Retraining assessment unavailable")
	} else {
		resp.Assessment = &assessment
	}
	respondData(w, http.StatusOK, resp, start, false)
}

// LearningRun handles POST /api/v1/learning/run. The cycle is forced and
// runs to completion even if the client disconnects; a cycle already in
// progress makes this a no-op reported as already_running.
func (h *Handler) LearningRun(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := context.WithoutCancel(r.Context())

	result, err := h.learner.RunCycle(ctx, true)
	if err != nil && result == nil {
		respondFailure(w, r, err)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("outcome", string(result.Outcome)).Msg("Forced learning cycle failed")
	}
	respondData(w, http.StatusAccepted, result, start, false)
}

// LearningPerformance handles GET /api/v1/learning/performance?limit=N.
func (h *Handler) LearningPerformance(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	limit, err := intQuery(r, "limit", 20, 1, 500)
	if err != nil {
		respondError(w, http.StatusBadRequest, validation.CodeValidationError, err.Error(), nil)
		return
	}

	history, err := h.learner.Performance(r.Context(), limit)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		respondFailure(w, r, err)
		return
	}
	if history == nil {
		history = []*models.ModelPerformance{}
	}
	respondData(w, http.StatusOK, history, start, false)
}
