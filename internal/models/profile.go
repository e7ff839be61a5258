// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package models

import (
	"time"

	"github.com/tomtom215/palate/internal/taste"
)

// Maturity is the stage of a profile, driven only by experience count.
type Maturity int

const (
	Novice Maturity = iota
	Developing
	Established
	Expert
)

// Experience counts at which a profile enters each stage.
const (
	DevelopingThreshold  = 25
	EstablishedThreshold = 100
	ExpertThreshold      = 500
)

// String returns the stage name.
func (m Maturity) String() string {
	switch m {
	case Novice:
		return "novice"
	case Developing:
		return "developing"
	case Established:
		return "established"
	case Expert:
		return "expert"
	default:
		return "unknown"
	}
}

// MarshalText encodes the stage name.
func (m Maturity) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText decodes a stage name.
func (m *Maturity) UnmarshalText(b []byte) error {
	for s := Novice; s <= Expert; s++ {
		if s.String() == string(b) {
			*m = s
			return nil
		}
	}
	return ErrUnknownEnum
}

// MaturityFor returns the stage for an experience count.
func MaturityFor(count int) Maturity {
	switch {
	case count >= ExpertThreshold:
		return Expert
	case count >= EstablishedThreshold:
		return Established
	case count >= DevelopingThreshold:
		return Developing
	default:
		return Novice
	}
}

// Factor maps the stage onto (0,1] for confidence blending.
func (m Maturity) Factor() float64 {
	return float64(m+1) / float64(Expert+1)
}

// EmotionalMatrix links each taste dimension to each emotional axis.
// Cells stay in [0,1].
type EmotionalMatrix [taste.NumDimensions][taste.NumEmotions]float64

// NewEmotionalMatrix returns a matrix with every cell set to value.
func NewEmotionalMatrix(value float64) EmotionalMatrix {
	var m EmotionalMatrix
	for d := range m {
		for a := range m[d] {
			m[d][a] = value
		}
	}
	return m
}

// EvolutionType classifies the size of a single profile change.
type EvolutionType string

const (
	EvolutionSudden     EvolutionType = "sudden"
	EvolutionGradual    EvolutionType = "gradual"
	EvolutionContextual EvolutionType = "contextual"
)

// EvolutionEntry is one step in a profile's change history.
type EvolutionEntry struct {
	Timestamp  time.Time                    `json:"timestamp"`
	Delta      [taste.NumDimensions]float64 `json:"delta"`
	Magnitude  float64                      `json:"magnitude"`
	Type       EvolutionType                `json:"type"`
	Confidence float64                      `json:"confidence"`
}

// PalateProfile is one user's learned taste state.
type PalateProfile struct {
	UserID          string             `json:"user_id"`
	Vector          taste.Vector       `json:"vector"`
	Matrix          EmotionalMatrix    `json:"emotional_matrix"`
	ContextWeights  map[string]float64 `json:"context_weights"`
	Confidence      float64            `json:"confidence"`
	Maturity        Maturity           `json:"maturity"`
	ExperienceCount int                `json:"experience_count"`
	History         []EvolutionEntry   `json:"history"`
	Version         int64              `json:"version"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// Clone returns a deep copy.
func (p *PalateProfile) Clone() *PalateProfile {
	if p == nil {
		return nil
	}
	c := *p
	c.ContextWeights = make(map[string]float64, len(p.ContextWeights))
	for k, v := range p.ContextWeights {
		c.ContextWeights[k] = v
	}
	c.History = append([]EvolutionEntry(nil), p.History...)
	return &c
}

// RecentHistory returns up to n of the newest history entries, newest first.
func (p *PalateProfile) RecentHistory(n int) []EvolutionEntry {
	if n > len(p.History) {
		n = len(p.History)
	}
	out := make([]EvolutionEntry, n)
	for i := 0; i < n; i++ {
		out[i] = p.History[len(p.History)-1-i]
	}
	return out
}
