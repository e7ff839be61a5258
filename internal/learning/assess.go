// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package learning

import (
	"fmt"
	"time"

	"github.com/tomtom215/palate/internal/models"
)

// Assessment is the verdict of the AssessingNeed step.
type Assessment struct {
	Needed  bool     `json:"needed"`
	Reasons []string `json:"reasons,omitempty"`
}

// AssessNeed decides whether to retrain from the latest evaluation (nil
// when there is none) and the number of labeled interactions recorded
// since it. Any single condition is sufficient.
//
//nolint:gocritic // hugeParam: cfg passed by value for immutability
func AssessNeed(cfg AssessmentConfig, latest *models.ModelPerformance, newInteractions int, now time.Time) Assessment {
	if latest == nil {
		return Assessment{Needed: true, Reasons: []string{"no prior evaluation"}}
	}

	var reasons []string
	if floor := cfg.TargetAccuracy - cfg.AccuracyDropThreshold; latest.Accuracy < floor {
		reasons = append(reasons, fmt.Sprintf("accuracy %.3f below %.3f", latest.Accuracy, floor))
	}
	if age := now.Sub(latest.EvaluatedAt); age > cfg.FreshnessWindow {
		reasons = append(reasons, fmt.Sprintf("last evaluation %s old", age.Round(time.Hour)))
	}
	if newInteractions > cfg.NewInteractionThreshold {
		reasons = append(reasons, fmt.Sprintf("%d new interactions", newInteractions))
	}
	return Assessment{Needed: len(reasons) > 0, Reasons: reasons}
}
