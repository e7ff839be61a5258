// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRecommendation(t *testing.T) {
	before := testutil.ToFloat64(RecommendRequests.WithLabelValues("cold_start"))
	RecordRecommendation("cold_start", 12, 3*time.Millisecond)
	after := testutil.ToFloat64(RecommendRequests.WithLabelValues("cold_start"))
	if after != before+1 {
		t.Errorf("cold_start counter = %f, want %f", after, before+1)
	}
}

func TestRecordCache(t *testing.T) {
	hits := testutil.ToFloat64(CacheHits.WithLabelValues("recommendations"))
	misses := testutil.ToFloat64(CacheMisses.WithLabelValues("recommendations"))

	RecordCache("recommendations", true)
	RecordCache("recommendations", false)
	RecordCache("recommendations", false)

	if got := testutil.ToFloat64(CacheHits.WithLabelValues("recommendations")); got != hits+1 {
		t.Errorf("hits = %f, want %f", got, hits+1)
	}
	if got := testutil.ToFloat64(CacheMisses.WithLabelValues("recommendations")); got != misses+2 {
		t.Errorf("misses = %f, want %f", got, misses+2)
	}
}

func TestRecordEvaluation(t *testing.T) {
	RecordEvaluation(0.82, 0.07, 0.09, 0.75, 0.6)
	if got := testutil.ToFloat64(ModelAccuracy.WithLabelValues("accuracy")); got != 0.82 {
		t.Errorf("accuracy gauge = %f, want 0.82", got)
	}
	if got := testutil.ToFloat64(ModelAccuracy.WithLabelValues("similarity_accuracy")); got != 0.6 {
		t.Errorf("similarity gauge = %f, want 0.6", got)
	}
}
