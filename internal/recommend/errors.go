// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package recommend

import (
	"errors"

	"github.com/tomtom215/palate/internal/taste"
)

var (
	// ErrInvalidArgument marks malformed input. It is the same value as
	// taste.ErrInvalidArgument so one errors.Is check covers both.
	ErrInvalidArgument = taste.ErrInvalidArgument

	// ErrMissingProfile means the user has no stored profile.
	ErrMissingProfile = errors.New("missing profile")

	// ErrMissingData means a store could not supply what scoring needed.
	ErrMissingData = errors.New("missing data")
)
