// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tomtom215/palate/internal/taste"
)

// Context is the categorical situation a meal happened in, or the
// situation a recommendation is requested for. Zero fields are absent.
type Context struct {
	TimeOfDay TimeOfDay     `json:"time_of_day,omitempty"`
	Social    SocialSetting `json:"social,omitempty"`
	Mood      Mood          `json:"mood,omitempty"`
	Weather   Weather       `json:"weather,omitempty"`
	Location  LocationType  `json:"location,omitempty"`
}

// ContextField names one categorical context field.
type ContextField string

const (
	FieldTimeOfDay ContextField = "time_of_day"
	FieldSocial    ContextField = "social"
	FieldMood      ContextField = "mood"
	FieldWeather   ContextField = "weather"
	FieldLocation  ContextField = "location"
)

// ContextFields lists every context field in canonical order.
var ContextFields = []ContextField{FieldTimeOfDay, FieldSocial, FieldMood, FieldWeather, FieldLocation}

// Values returns the recorded value of each field, "" when absent.
func (c Context) Values() map[ContextField]string {
	return map[ContextField]string{
		FieldTimeOfDay: c.TimeOfDay.String(),
		FieldSocial:    c.Social.String(),
		FieldMood:      c.Mood.String(),
		FieldWeather:   c.Weather.String(),
		FieldLocation:  c.Location.String(),
	}
}

// Keys returns "field:value" keys for every present field.
func (c Context) Keys() []string {
	values := c.Values()
	keys := make([]string, 0, len(ContextFields))
	for _, f := range ContextFields {
		if v := values[f]; v != "" {
			keys = append(keys, string(f)+":"+v)
		}
	}
	return keys
}

// Canonical returns a stable textual form used for cache keys.
func (c Context) Canonical() string {
	values := c.Values()
	parts := make([]string, len(ContextFields))
	for i, f := range ContextFields {
		parts[i] = string(f) + "=" + values[f]
	}
	return strings.Join(parts, "|")
}

// Validate rejects values outside the closed sets.
func (c Context) Validate() error {
	if !c.TimeOfDay.Valid() || !c.Social.Valid() || !c.Mood.Valid() || !c.Weather.Valid() || !c.Location.Valid() {
		return fmt.Errorf("%w: context %+v", taste.ErrInvalidArgument, c)
	}
	return nil
}

// EmotionalResponse records how an experience felt.
type EmotionalResponse struct {
	Scores        taste.EmotionVector `json:"scores"`
	OverallRating float64             `json:"overall_rating"`
	Intensity     float64             `json:"intensity"`
}

// Validate checks every scalar is in [0,10].
func (e EmotionalResponse) Validate() error {
	if err := e.Scores.Validate(); err != nil {
		return err
	}
	if !inRange(e.OverallRating, 0, 10) {
		return fmt.Errorf("%w: overall_rating must be in [0,10], got %f", taste.ErrInvalidArgument, e.OverallRating)
	}
	if !inRange(e.Intensity, 0, 10) {
		return fmt.Errorf("%w: intensity must be in [0,10], got %f", taste.ErrInvalidArgument, e.Intensity)
	}
	return nil
}

// FoodExperience is an observed interaction with a food item. The same
// record type serves as a recommendation candidate. It is immutable once
// stored.
type FoodExperience struct {
	ID           string            `json:"id" validate:"max=128"`
	UserID       string            `json:"user_id" validate:"required,max=128"`
	ItemID       string            `json:"item_id" validate:"required,max=128"`
	RestaurantID string            `json:"restaurant_id,omitempty" validate:"max=128"`
	Name         string            `json:"name,omitempty" validate:"max=256"`
	Cuisine      Cuisine           `json:"cuisine" validate:"known"`
	Price        PriceBucket       `json:"price,omitempty" validate:"known"`
	Taste        taste.Vector      `json:"taste"`
	Emotion      EmotionalResponse `json:"emotion"`
	Context      Context           `json:"context"`
	Timestamp    time.Time         `json:"timestamp"`
	Confidence   float64           `json:"confidence" validate:"min=0,max=1"`
}

// Validate rejects malformed experiences.
func (e *FoodExperience) Validate() error {
	if e.UserID == "" {
		return fmt.Errorf("%w: user_id is required", taste.ErrInvalidArgument)
	}
	if e.ItemID == "" {
		return fmt.Errorf("%w: item_id is required", taste.ErrInvalidArgument)
	}
	if err := e.Taste.Validate(); err != nil {
		return err
	}
	if err := e.Emotion.Validate(); err != nil {
		return err
	}
	if err := e.Context.Validate(); err != nil {
		return err
	}
	if !e.Cuisine.Valid() || !e.Price.Valid() {
		return fmt.Errorf("%w: unknown cuisine or price bucket", taste.ErrInvalidArgument)
	}
	if !inRange(e.Confidence, 0, 1) {
		return fmt.Errorf("%w: confidence must be in [0,1], got %f", taste.ErrInvalidArgument, e.Confidence)
	}
	return nil
}

// CandidateFilter narrows a candidate/experience query. Zero fields do not
// filter.
type CandidateFilter struct {
	UserIDs       []string
	ExcludeUserID string
	ItemID        string
	Cuisines      []Cuisine
	MaxPrice      PriceBucket
	Since         time.Time
	Limit         int
}

// Matches reports whether e passes the filter.
func (f *CandidateFilter) Matches(e *FoodExperience) bool {
	if f.ExcludeUserID != "" && e.UserID == f.ExcludeUserID {
		return false
	}
	if f.ItemID != "" && e.ItemID != f.ItemID {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if f.MaxPrice != PriceUnknown && e.Price > f.MaxPrice {
		return false
	}
	if len(f.UserIDs) > 0 && !contains(f.UserIDs, e.UserID) {
		return false
	}
	if len(f.Cuisines) > 0 && !contains(f.Cuisines, e.Cuisine) {
		return false
	}
	return true
}

// InteractionRecord is a labeled outcome: what the ranker predicted for an
// item and what the user later reported.
type InteractionRecord struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	ItemID          string    `json:"item_id"`
	Predicted       float64   `json:"predicted"`
	Scores          SubScores `json:"scores"`
	Rating          float64   `json:"rating"`
	SnapshotVersion int64     `json:"snapshot_version"`
	Timestamp       time.Time `json:"timestamp"`
}

// NormalizedRating maps the 0-10 rating onto [0,1].
func (r *InteractionRecord) NormalizedRating() float64 {
	return r.Rating / 10
}

// Usable reports whether the record is in range and finite, so it can be
// used for training.
func (r *InteractionRecord) Usable() bool {
	if r.UserID == "" || r.ItemID == "" || !inRange(r.Rating, 0, 10) || !inRange(r.Predicted, 0, 1) {
		return false
	}
	for _, s := range r.Scores.Values() {
		if !inRange(s, 0, 1) {
			return false
		}
	}
	return true
}

func inRange(x, lo, hi float64) bool {
	return !math.IsNaN(x) && x >= lo && x <= hi
}

func contains[T comparable](haystack []T, needle T) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}
