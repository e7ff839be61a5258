// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package events

import (
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/palate/internal/metrics"
)

// Triggerer accepts out-of-schedule learning requests without blocking.
// *learning.Pipeline implements it.
type Triggerer interface {
	Trigger()
}

// LearningTrigger counts feedback events and requests a learning cycle
// each time the count reaches the threshold. Requests are spaced at least
// minInterval apart; a request denied by the limiter keeps the count so
// the next event retries.
type LearningTrigger struct {
	target    Triggerer
	threshold int
	limiter   *rate.Limiter
	logger    zerolog.Logger

	mu    sync.Mutex
	count int
}

// NewLearningTrigger creates the learning-trigger consumer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewLearningTrigger(target Triggerer, threshold int, minInterval time.Duration, logger zerolog.Logger) *LearningTrigger {
	if threshold < 1 {
		threshold = 1
	}
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &LearningTrigger{
		target:    target,
		threshold: threshold,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger.With().Str("component", "learning_trigger").Logger(),
	}
}

// Consumer returns the router registration.
func (t *LearningTrigger) Consumer() Consumer {
	return Consumer{Name: "learning-trigger", Topic: TopicFeedbackRecorded, Handle: t.Handle}
}

// Handle processes one feedback.recorded message. Undecodable messages are
// dropped, never retried.
func (t *LearningTrigger) Handle(msg *message.Message) error {
	ev, err := decode[FeedbackRecorded](msg)
	if err != nil {
		t.logger.Warn().Err(err).Msg("dropping malformed feedback event")
		return nil
	}

	t.mu.Lock()
	t.count++
	if t.count < t.threshold || !t.limiter.Allow() {
		t.mu.Unlock()
		return nil
	}
	count := t.count
	t.count = 0
	t.mu.Unlock()

	t.logger.Info().
		Int("feedback_events", count).
		Str("last_user_id", ev.UserID).
		Msg("requesting learning cycle")
	t.target.Trigger()
	return nil
}

// Pending returns the events counted since the last request.
func (t *LearningTrigger) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// ExperienceMetrics counts recorded experiences by cuisine.
type ExperienceMetrics struct {
	logger zerolog.Logger
}

// NewExperienceMetrics creates the experience-metrics consumer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewExperienceMetrics(logger zerolog.Logger) *ExperienceMetrics {
	return &ExperienceMetrics{logger: logger.With().Str("component", "experience_metrics").Logger()}
}

// Consumer returns the router registration.
func (m *ExperienceMetrics) Consumer() Consumer {
	return Consumer{Name: "experience-metrics", Topic: TopicExperienceRecorded, Handle: m.Handle}
}

// Handle processes one experience.recorded message.
func (m *ExperienceMetrics) Handle(msg *message.Message) error {
	ev, err := decode[ExperienceRecorded](msg)
	if err != nil {
		m.logger.Warn().Err(err).Msg("dropping malformed experience event")
		return nil
	}
	cuisine := ev.Cuisine
	if cuisine == "" {
		cuisine = "unknown"
	}
	metrics.ExperiencesRecorded.WithLabelValues(cuisine).Inc()
	return nil
}
