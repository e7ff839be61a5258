// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package models

import "errors"

// ErrNotFound is returned by stores when a requested record does not exist
// or has expired.
var ErrNotFound = errors.New("not found")
