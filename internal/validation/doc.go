// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

// Package validation checks decoded request bodies with go-playground/validator.
//
// A single validator is shared process-wide so struct metadata is parsed
// once. Errors name fields by their JSON path, which is what API clients
// sent:
//
//	type Feedback struct {
//	    UserID string  `json:"user_id" validate:"required,max=128"`
//	    Rating float64 `json:"rating" validate:"min=0,max=10"`
//	}
//
//	if verr := validation.ValidateStruct(&fb); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
//
// # Custom Rules
//
// "known" accepts values of the closed enum types in models (cuisine,
// price bucket and the context fields) whose Valid method reports true.
// Combine it with dive for slices:
//
//	Cuisines []models.Cuisine `json:"cuisines" validate:"max=20,dive,known"`
//
// Validation here covers request shape. Domain checks that need more than
// one field (taste vector ranges, context combinations) stay in the
// Validate methods of the domain types.
package validation
