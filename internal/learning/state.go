// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package learning

import (
	"errors"
	"time"

	"github.com/tomtom215/palate/internal/models"
)

var (
	// ErrInsufficientData means too few usable records to train. The cycle
	// is skipped.
	ErrInsufficientData = errors.New("insufficient training data")

	// ErrTrainingInProgress means another cycle holds the busy flag.
	ErrTrainingInProgress = errors.New("training already in progress")
)

// State is a step of the training cycle.
type State string

const (
	StateIdle          State = "idle"
	StateAssessingNeed State = "assessing_need"
	StateCollecting    State = "collecting"
	StatePreprocessing State = "preprocessing"
	StateSplitting     State = "splitting"
	StateTraining      State = "training"
	StateEvaluating    State = "evaluating"
	StateRecording     State = "recording"
	StatePromoting     State = "conditionally_promoting"
)

// Outcome is how a cycle ended.
type Outcome string

const (
	OutcomeSkipped          Outcome = "skipped"
	OutcomeInsufficientData Outcome = "insufficient_data"
	OutcomePromoted         Outcome = "promoted"
	OutcomeNotPromoted      Outcome = "not_promoted"
	OutcomeAlreadyRunning   Outcome = "already_running"
	OutcomeFailed           Outcome = "failed"
)

// Result describes one cycle.
type Result struct {
	Outcome         Outcome                  `json:"outcome"`
	Reasons         []string                 `json:"reasons,omitempty"`
	Performance     *models.ModelPerformance `json:"performance,omitempty"`
	SnapshotVersion int64                    `json:"snapshot_version"`
	StartedAt       time.Time                `json:"started_at"`
	Duration        time.Duration            `json:"duration"`
	Error           string                   `json:"error,omitempty"`
}

// Status is a point-in-time view of the pipeline.
type Status struct {
	State                 State     `json:"state"`
	Running               bool      `json:"running"`
	LastOutcome           Outcome   `json:"last_outcome,omitempty"`
	LastRunAt             time.Time `json:"last_run_at,omitempty"`
	LastError             string    `json:"last_error,omitempty"`
	ActiveSnapshotVersion int64     `json:"active_snapshot_version"`
	Cycles                int64     `json:"cycles"`
}
