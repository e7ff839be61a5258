// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

// Package metrics registers the Prometheus instrumentation for Palate.
//
// Collectors are package-level and registered on the default registry via
// promauto, so any package can record without plumbing a registry through.
// The /metrics endpoint is served by internal/api.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "palate_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Recommendation Metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_recommend_requests_total",
			Help: "Recommendation requests by serving path",
		},
		[]string{"path"}, // "cache", "personalized", "cold_start", "empty"
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "palate_recommend_duration_seconds",
			Help:    "Time spent producing a recommendation list",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	RecommendCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "palate_recommend_candidates",
			Help:    "Number of deduplicated candidates scored per request",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	RecommendDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_recommend_degraded_total",
			Help: "Store failures answered with neutral defaults",
		},
		[]string{"source"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_cache_hits_total",
			Help: "Cache hits by cache name",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_cache_misses_total",
			Help: "Cache misses by cache name",
		},
		[]string{"cache"},
	)

	SimilarUsersFound = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "palate_similar_users",
			Help:    "Similar users retained per personalized request",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	// Profile and feedback metrics
	ExperiencesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_experiences_recorded_total",
			Help: "Food experiences recorded by cuisine",
		},
		[]string{"cuisine"},
	)

	FeedbackRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "palate_feedback_recorded_total",
			Help: "Labeled feedback records appended",
		},
	)

	ProfileEvolution = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_profile_evolution_total",
			Help: "Profile updates by evolution type",
		},
		[]string{"type"},
	)

	// Learning pipeline metrics
	TrainingCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_training_cycles_total",
			Help: "Learning pipeline cycles by outcome",
		},
		[]string{"outcome"},
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "palate_training_duration_seconds",
			Help:    "Duration of learning cycles that trained",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		},
	)

	ModelAccuracy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "palate_model_metric",
			Help: "Most recent evaluation metrics of the scoring parameters",
		},
		[]string{"metric"},
	)

	ActiveSnapshotVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "palate_active_snapshot_version",
			Help: "Version of the scoring snapshot currently in use",
		},
	)

	// Event bus metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_events_published_total",
			Help: "Events published by topic",
		},
		[]string{"topic"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "palate_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_circuit_breaker_requests_total",
			Help: "Requests through a circuit breaker by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordAPIRequest records one HTTP request.
func RecordAPIRequest(method, endpoint, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRecommendation records one served recommendation list.
func RecordRecommendation(path string, candidates int, duration time.Duration) {
	RecommendRequests.WithLabelValues(path).Inc()
	RecommendDuration.Observe(duration.Seconds())
	if path != "cache" {
		RecommendCandidates.Observe(float64(candidates))
	}
}

// RecordCache records a cache lookup.
func RecordCache(cache string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cache).Inc()
		return
	}
	CacheMisses.WithLabelValues(cache).Inc()
}

// RecordTrainingCycle records a finished learning cycle.
func RecordTrainingCycle(outcome string, duration time.Duration, trained bool) {
	TrainingCycles.WithLabelValues(outcome).Inc()
	if trained {
		TrainingDuration.Observe(duration.Seconds())
	}
}

// RecordEvaluation publishes the metrics of the latest evaluation.
func RecordEvaluation(accuracy, mae, rmse, f1, similarityAccuracy float64) {
	ModelAccuracy.WithLabelValues("accuracy").Set(accuracy)
	ModelAccuracy.WithLabelValues("mae").Set(mae)
	ModelAccuracy.WithLabelValues("rmse").Set(rmse)
	ModelAccuracy.WithLabelValues("f1").Set(f1)
	ModelAccuracy.WithLabelValues("similarity_accuracy").Set(similarityAccuracy)
}
