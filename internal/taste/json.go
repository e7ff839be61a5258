// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package taste

import (
	"github.com/goccy/go-json"
)

// MarshalJSON encodes the vector as an object keyed by dimension name.
func (v Vector) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Map())
}

// UnmarshalJSON decodes an object keyed by dimension name. Missing
// dimensions default to neutral.
func (v *Vector) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	parsed, err := FromMap(m)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalJSON encodes the emotion vector as an object keyed by axis name.
func (e EmotionVector) MarshalJSON() ([]byte, error) {
	m := make(map[string]float64, NumEmotions)
	for i, x := range e {
		m[emotionNames[i]] = x
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes an object keyed by axis name. Missing axes default
// to neutral.
func (e *EmotionVector) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	out := NeutralEmotion()
	for name, x := range m {
		a, err := ParseEmotion(name)
		if err != nil {
			return err
		}
		out[a] = x
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*e = out
	return nil
}
