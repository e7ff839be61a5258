// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/palate/internal/breaker"
	"github.com/tomtom215/palate/internal/learning"
	"github.com/tomtom215/palate/internal/middleware"
	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/recommend"
	"github.com/tomtom215/palate/internal/taste"
)

type fakeEngine struct {
	mu       sync.Mutex
	lastReq  recommend.Request
	lastExp  *models.FoodExperience
	lastFB   recommend.Feedback
	err      error
	profiles map[string]*models.PalateProfile
}

func (f *fakeEngine) Recommend(_ context.Context, req recommend.Request) (*recommend.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &recommend.Response{
		Results:  []models.RecommendationResult{{UserID: req.UserID, ItemID: "pho-7", Cuisine: models.Vietnamese, Total: 0.82}},
		Metadata: recommend.ResponseMetadata{RequestID: req.RequestID, UserID: req.UserID, CacheHit: true},
	}, nil
}

func (f *fakeEngine) RecordExperience(_ context.Context, exp *models.FoodExperience) (*models.PalateProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastExp = exp
	if f.err != nil {
		return nil, f.err
	}
	return &models.PalateProfile{UserID: exp.UserID, Vector: exp.Taste, ExperienceCount: 1}, nil
}

func (f *fakeEngine) RecordFeedback(_ context.Context, fb recommend.Feedback) (*models.InteractionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFB = fb
	if f.err != nil {
		return nil, f.err
	}
	return &models.InteractionRecord{ID: "rec-1", UserID: fb.UserID, ItemID: fb.ItemID, Rating: fb.Rating}, nil
}

func (f *fakeEngine) Profile(_ context.Context, userID string) (*models.PalateProfile, error) {
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("user %s: %w", userID, recommend.ErrMissingProfile)
}

type fakeLearner struct {
	mu       sync.Mutex
	forced   []bool
	result   *learning.Result
	runErr   error
	perf     []*models.ModelPerformance
	perfErr  error
	limit    int
	assessOK bool
}

func (f *fakeLearner) Status() learning.Status {
	return learning.Status{State: learning.StateIdle, ActiveSnapshotVersion: 3, Cycles: 7}
}

func (f *fakeLearner) Assess(context.Context) (learning.Assessment, error) {
	if !f.assessOK {
		return learning.Assessment{}, errors.New("store down")
	}
	return learning.Assessment{Needed: true, Reasons: []string{"no prior evaluation"}}, nil
}

func (f *fakeLearner) RunCycle(ctx context.Context, force bool) (*learning.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	f.forced = append(f.forced, force)
	return f.result, f.runErr
}

func (f *fakeLearner) Performance(_ context.Context, limit int) ([]*models.ModelPerformance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limit = limit
	return f.perf, f.perfErr
}

type fakeProfiles struct {
	list []*models.PalateProfile
	err  error
}

func (f *fakeProfiles) GetProfile(context.Context, string) (*models.PalateProfile, error) {
	return nil, models.ErrNotFound
}

func (f *fakeProfiles) UpsertProfile(context.Context, *models.PalateProfile) error { return nil }

func (f *fakeProfiles) ListProfiles(_ context.Context, limit int) ([]*models.PalateProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.list) > limit {
		return f.list[:limit], nil
	}
	return f.list, nil
}

type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

type fixture struct {
	engine   *fakeEngine
	learner  *fakeLearner
	profiles *fakeProfiles
	router   http.Handler
}

func newFixture(t *testing.T, cfg RouterConfig, checks map[string]ReadinessCheck) *fixture {
	t.Helper()
	f := &fixture{
		engine:   &fakeEngine{profiles: map[string]*models.PalateProfile{}},
		learner:  &fakeLearner{assessOK: true, result: &learning.Result{Outcome: learning.OutcomeSkipped}},
		profiles: &fakeProfiles{},
	}
	h := NewHandler(f.engine, f.learner, f.profiles, checks, zerolog.Nop())
	f.router = NewRouter(cfg, h, zerolog.Nop())
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("response is not an envelope: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultRouterConfig(), map[string]ReadinessCheck{
		"badger":   func(context.Context) error { return nil },
		"snapshot": func(context.Context) error { return errors.New("no active snapshot") },
	})

	rec, env := f.do(t, http.MethodGet, "/health/live", "")
	if rec.Code != http.StatusOK || env.Status != "success" {
		t.Errorf("live = %d %s", rec.Code, env.Status)
	}

	rec, env = f.do(t, http.MethodGet, "/health/ready", "")
	if rec.Code != http.StatusServiceUnavailable || env.Error == nil || env.Error.Code != CodeUnavailable {
		t.Fatalf("ready = %d %+v", rec.Code, env.Error)
	}
	checks, _ := env.Error.Details["checks"].(map[string]any)
	if checks["badger"] != "ok" || checks["snapshot"] != "no active snapshot" {
		t.Errorf("checks = %v", checks)
	}

	ok := newFixture(t, DefaultRouterConfig(), nil)
	if rec, _ := ok.do(t, http.MethodGet, "/health/ready", ""); rec.Code != http.StatusOK {
		t.Errorf("ready without checks = %d", rec.Code)
	}
}

func TestRecommend(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultRouterConfig(), nil)
	body := `{"user_id":"u1","context":{"time_of_day":"dinner","mood":"adventurous"},"preferences":{"k":5,"cuisines":["thai","vietnamese"]}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendations", strings.NewReader(body))
	req.Header.Set(middleware.RequestIDHeader, "trace-abc")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if !env.Metadata.Cached {
		t.Error("metadata.cached should reflect the engine cache hit")
	}
	var resp recommend.Response
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ItemID != "pho-7" {
		t.Errorf("results = %+v", resp.Results)
	}

	got := f.engine.lastReq
	if got.RequestID != "trace-abc" {
		t.Errorf("RequestID = %q, want the X-Request-ID", got.RequestID)
	}
	if got.Context.TimeOfDay.String() != "dinner" || got.Preferences.K != 5 || len(got.Preferences.Cuisines) != 2 {
		t.Errorf("decoded request = %+v", got)
	}
}

func TestRequestRejection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		body     string
		wantCode string
	}{
		{"empty body", "/api/v1/recommendations", "", CodeInvalidJSON},
		{"malformed", "/api/v1/recommendations", `{"user_id":`, CodeInvalidJSON},
		{"unknown field", "/api/v1/recommendations", `{"user_id":"u","limit":3}`, CodeInvalidJSON},
		{"unknown enum", "/api/v1/recommendations", `{"user_id":"u","context":{"mood":"hangry"}}`, CodeInvalidJSON},
		{"missing user", "/api/v1/recommendations", `{"preferences":{"k":3}}`, "VALIDATION_ERROR"},
		{"k too large", "/api/v1/recommendations", `{"user_id":"u","preferences":{"k":500}}`, "VALIDATION_ERROR"},
		{"rating too high", "/api/v1/feedback", `{"user_id":"u","item_id":"i","rating":11}`, "VALIDATION_ERROR"},
		{"experience without item", "/api/v1/experiences", `{"user_id":"u","confidence":0.5}`, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, DefaultRouterConfig(), nil)
			rec, env := f.do(t, http.MethodPost, tt.path, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
			if env.Status != "error" || env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", env.Error, tt.wantCode)
			}
		})
	}
}

func TestEngineErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid argument", fmt.Errorf("%w: context mood", recommend.ErrInvalidArgument), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"breaker open", fmt.Errorf("profiles get: %w", breaker.ErrOpen), http.StatusServiceUnavailable, CodeUnavailable},
		{"not found", models.ErrNotFound, http.StatusNotFound, CodeNotFound},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, DefaultRouterConfig(), nil)
			f.engine.err = tt.err
			rec, env := f.do(t, http.MethodPost, "/api/v1/feedback", `{"user_id":"u","item_id":"i","rating":7}`)
			if rec.Code != tt.wantStatus || env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("got %d %+v, want %d %s", rec.Code, env.Error, tt.wantStatus, tt.wantCode)
			}
			if tt.wantStatus == http.StatusInternalServerError && strings.Contains(rec.Body.String(), "disk on fire") {
				t.Error("internal error detail leaked to the client")
			}
		})
	}
}

func TestRecordExperienceAndFeedback(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultRouterConfig(), nil)
	rec, env := f.do(t, http.MethodPost, "/api/v1/experiences",
		`{"user_id":"u1","item_id":"tom-yum","cuisine":"thai","taste":{"sour":8,"spicy":9},"confidence":0.9}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("experience status = %d: %s", rec.Code, rec.Body.String())
	}
	var profile models.PalateProfile
	if err := json.Unmarshal(env.Data, &profile); err != nil {
		t.Fatal(err)
	}
	if profile.UserID != "u1" || profile.Vector[taste.Spicy] != 9 {
		t.Errorf("profile = %+v", profile)
	}
	if f.engine.lastExp.Cuisine != models.Thai {
		t.Errorf("cuisine = %v", f.engine.lastExp.Cuisine)
	}

	rec, _ = f.do(t, http.MethodPost, "/api/v1/feedback", `{"user_id":"u1","item_id":"tom-yum","rating":8.5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("feedback status = %d", rec.Code)
	}
	if f.engine.lastFB.Rating != 8.5 {
		t.Errorf("rating = %v", f.engine.lastFB.Rating)
	}
}

func TestProfile(t *testing.T) {
	t.Parallel()

	neutral := taste.Neutral()
	spicy := neutral
	spicy[taste.Spicy] = 10

	t.Run("missing profile", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, DefaultRouterConfig(), nil)
		rec, env := f.do(t, http.MethodGet, "/api/v1/users/ghost/profile", "")
		if rec.Code != http.StatusNotFound || env.Error.Code != CodeNotFound {
			t.Errorf("got %d %+v", rec.Code, env.Error)
		}
	})

	t.Run("with population", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, DefaultRouterConfig(), nil)
		me := &models.PalateProfile{UserID: "me", Vector: spicy}
		f.engine.profiles["me"] = me
		f.profiles.list = []*models.PalateProfile{
			{UserID: "a", Vector: neutral}, me, {UserID: "b", Vector: neutral}, {UserID: "c", Vector: neutral},
		}
		f.profiles.list[3].Vector[taste.Spicy] = 6

		rec, env := f.do(t, http.MethodGet, "/api/v1/users/me/profile", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var insight struct {
			Diversity  float64         `json:"diversity"`
			Outliers   []taste.Outlier `json:"outliers"`
			Population int             `json:"population"`
		}
		if err := json.Unmarshal(env.Data, &insight); err != nil {
			t.Fatal(err)
		}
		if insight.Population != 3 {
			t.Errorf("population = %d, want 3 (self excluded)", insight.Population)
		}
		if len(insight.Outliers) != taste.NumDimensions {
			t.Fatalf("outliers = %d, want %d", len(insight.Outliers), taste.NumDimensions)
		}
		if !insight.Outliers[taste.Spicy].IsOutlier {
			t.Errorf("spicy z = %f, want outlier", insight.Outliers[taste.Spicy].ZScore)
		}
		if insight.Diversity <= 0 {
			t.Errorf("diversity = %f", insight.Diversity)
		}
	})

	t.Run("population unavailable", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, DefaultRouterConfig(), nil)
		f.engine.profiles["me"] = &models.PalateProfile{UserID: "me", Vector: neutral}
		f.profiles.err = breaker.ErrOpen

		rec, env := f.do(t, http.MethodGet, "/api/v1/users/me/profile", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(string(env.Data), `"outliers":[]`) {
			t.Errorf("data = %s", env.Data)
		}
	})
}

func TestLearningEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("status", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, DefaultRouterConfig(), nil)
		rec, env := f.do(t, http.MethodGet, "/api/v1/learning/status", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var got LearningStatusResponse
		if err := json.Unmarshal(env.Data, &got); err != nil {
			t.Fatal(err)
		}
		if got.ActiveSnapshotVersion != 3 || got.Cycles != 7 || got.Assessment == nil || !got.Assessment.Needed {
			t.Errorf("status = %+v", got)
		}

		f.learner.assessOK = false
		_, env = f.do(t, http.MethodGet, "/api/v1/learning/status", "")
		if strings.Contains(string(env.Data), "assessment") {
			t.Errorf("assessment should be omitted when unavailable: %s", env.Data)
		}
	})

	t.Run("run is forced", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, DefaultRouterConfig(), nil)
		f.learner.result = &learning.Result{Outcome: learning.OutcomeAlreadyRunning}
		rec, env := f.do(t, http.MethodPost, "/api/v1/learning/run", "")
		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(string(env.Data), `"outcome":"already_running"`) {
			t.Errorf("data = %s", env.Data)
		}
		if len(f.learner.forced) != 1 || !f.learner.forced[0] {
			t.Errorf("forced = %v", f.learner.forced)
		}
	})

	t.Run("failed cycle still reports", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, DefaultRouterConfig(), nil)
		f.learner.result = &learning.Result{Outcome: learning.OutcomeFailed, Error: "publish: stale"}
		f.learner.runErr = errors.New("publish: stale")
		rec, _ := f.do(t, http.MethodPost, "/api/v1/learning/run", "")
		if rec.Code != http.StatusAccepted {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("performance", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, DefaultRouterConfig(), nil)
		f.learner.perf = []*models.ModelPerformance{{ID: "p2", Accuracy: 0.8, EvaluatedAt: time.Now()}}

		rec, env := f.do(t, http.MethodGet, "/api/v1/learning/performance?limit=5", "")
		if rec.Code != http.StatusOK || f.learner.limit != 5 {
			t.Fatalf("status = %d limit = %d", rec.Code, f.learner.limit)
		}
		var history []*models.ModelPerformance
		if err := json.Unmarshal(env.Data, &history); err != nil || len(history) != 1 {
			t.Errorf("history = %v, %v", history, err)
		}

		f.do(t, http.MethodGet, "/api/v1/learning/performance", "")
		if f.learner.limit != 20 {
			t.Errorf("default limit = %d, want 20", f.learner.limit)
		}

		for _, q := range []string{"0", "501", "ten"} {
			rec, _ := f.do(t, http.MethodGet, "/api/v1/learning/performance?limit="+q, "")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("limit=%s -> %d, want 400", q, rec.Code)
			}
		}

		f.learner.perf = nil
		_, env = f.do(t, http.MethodGet, "/api/v1/learning/performance", "")
		if string(env.Data) != "[]" {
			t.Errorf("empty history = %s, want []", env.Data)
		}
	})
}
