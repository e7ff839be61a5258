// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

/*
Package learning implements the continuous learning pipeline that retunes
the recommendation scoring parameters from labeled feedback.

# Cycle

Each cycle walks a fixed sequence of states:

	idle -> assessing_need -> collecting -> preprocessing -> splitting ->
	training -> evaluating -> recording -> conditionally_promoting -> idle

A cycle ends early after assessing_need when retraining is not needed, and
after preprocessing when fewer than Dataset.MinRecords usable records remain.

Retraining is needed when any of these holds:
  - there is no prior evaluation
  - the latest accuracy is more than AccuracyDropThreshold below TargetAccuracy
  - the latest evaluation is older than FreshnessWindow
  - more than NewInteractionThreshold labeled interactions arrived since it

# Training

The trainable parameters are the five fusion weights (non-negative, summing
to one) and a linear calibration (scale, bias) of the fused sum. Training
starts from the active snapshot and runs seeded mini-batch gradient descent
on squared error, with learning-rate decay and early stopping on validation
accuracy.

# Promotion

A candidate is promoted only when its test accuracy exceeds TargetAccuracy.
Promotion saves a new snapshot with the next version and publishes it
atomically; scoring requests never see a partially updated parameter set.
Every evaluation is appended to the performance history whether or not it
was promoted.

At most one cycle runs at a time. A request made while a cycle runs returns
the already_running outcome immediately.
*/
package learning
