// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/palate/internal/logging"
	"github.com/tomtom215/palate/internal/metrics"
	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/recommend"
)

// Topics.
const (
	TopicExperienceRecorded = "experience.recorded"
	TopicFeedbackRecorded   = "feedback.recorded"
)

// Metadata keys set on every message.
const (
	MetadataRequestID = "request_id"
	MetadataEventType = "event_type"
)

// ErrBusClosed is returned when publishing after Close.
var ErrBusClosed = errors.New("event bus closed")

// ExperienceRecorded is the payload of experience.recorded.
type ExperienceRecorded struct {
	ExperienceID    string    `json:"experience_id"`
	UserID          string    `json:"user_id"`
	ItemID          string    `json:"item_id"`
	Cuisine         string    `json:"cuisine"`
	Confidence      float64   `json:"confidence"`
	ExperienceCount int       `json:"experience_count"`
	Maturity        string    `json:"maturity"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// FeedbackRecorded is the payload of feedback.recorded.
type FeedbackRecorded struct {
	RecordID        string    `json:"record_id"`
	UserID          string    `json:"user_id"`
	ItemID          string    `json:"item_id"`
	Rating          float64   `json:"rating"`
	Predicted       float64   `json:"predicted"`
	SnapshotVersion int64     `json:"snapshot_version"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// BusConfig configures the in-process pub/sub.
type BusConfig struct {
	// OutputBuffer is the per-subscriber channel buffer.
	OutputBuffer int64 `koanf:"output_buffer"`
}

// DefaultBusConfig returns production defaults.
func DefaultBusConfig() BusConfig {
	return BusConfig{OutputBuffer: 1024}
}

// Bus publishes engine events. It implements recommend.Publisher.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger zerolog.Logger
	closed atomic.Bool
}

var _ recommend.Publisher = (*Bus)(nil)

// NewBus creates a bus.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBus(cfg BusConfig, logger zerolog.Logger) *Bus {
	logger = logger.With().Str("component", "events").Logger()
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: cfg.OutputBuffer,
		}, watermillLogger(logger)),
		logger: logger,
	}
}

// watermillLogger bridges Watermill's logger onto zerolog.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func watermillLogger(logger zerolog.Logger) watermill.LoggerAdapter {
	return watermill.NewSlogLogger(slog.New(logging.NewSlogHandler(logger)))
}

// Subscriber returns the subscribing side of the bus for routers.
func (b *Bus) Subscriber() message.Subscriber {
	return b.pubsub
}

// PublishExperience announces an accepted experience.
func (b *Bus) PublishExperience(ctx context.Context, exp *models.FoodExperience, profile *models.PalateProfile) error {
	ev := ExperienceRecorded{
		ExperienceID: exp.ID,
		UserID:       exp.UserID,
		ItemID:       exp.ItemID,
		Cuisine:      exp.Cuisine.String(),
		OccurredAt:   exp.Timestamp,
	}
	if profile != nil {
		ev.Confidence = profile.Confidence
		ev.ExperienceCount = profile.ExperienceCount
		ev.Maturity = profile.Maturity.String()
	}
	return b.publish(ctx, TopicExperienceRecorded, ev)
}

// PublishFeedback announces a labeled interaction record.
func (b *Bus) PublishFeedback(ctx context.Context, record *models.InteractionRecord) error {
	return b.publish(ctx, TopicFeedbackRecorded, FeedbackRecorded{
		RecordID:        record.ID,
		UserID:          record.UserID,
		ItemID:          record.ItemID,
		Rating:          record.Rating,
		Predicted:       record.Predicted,
		SnapshotVersion: record.SnapshotVersion,
		OccurredAt:      record.Timestamp,
	})
}

func (b *Bus) publish(ctx context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}
	msg := message.NewMessage(uuid.NewString(), data)
	msg.Metadata.Set(MetadataEventType, topic)
	if id := logging.RequestIDFromContext(ctx); id != "" {
		msg.Metadata.Set(MetadataRequestID, id)
	}

	if b.closed.Load() {
		return ErrBusClosed
	}
	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	metrics.EventsPublished.WithLabelValues(topic).Inc()
	b.logger.Debug().Str("topic", topic).Str("message_id", msg.UUID).Msg("event published")
	return nil
}

// Close stops delivery to all subscribers.
func (b *Bus) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.pubsub.Close()
}

func decode[T any](msg *message.Message) (T, error) {
	var v T
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		return v, fmt.Errorf("decode message %s: %w", msg.UUID, err)
	}
	return v, nil
}
