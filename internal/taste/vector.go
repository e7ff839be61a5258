// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

// Package taste implements the fixed-dimension taste vector and the numeric
// operations used by profile learning, collaborative filtering, and ranking.
//
// Every dimension is a bounded scalar in [MinValue, MaxValue]. Each dimension
// carries a fixed weight (see Weights) and every operation in this package
// applies those weights the same way. The functions are pure: no I/O, no
// shared state, safe for concurrent use.
package taste

import (
	"errors"
	"fmt"
	"math"
)

// Dimension identifies one named axis of a taste vector. The set and order
// are fixed.
type Dimension int

const (
	Sweet Dimension = iota
	Salty
	Sour
	Bitter
	Umami
	Spicy
	Crunchy
	Creamy
	Chewy
	HotPreference
	ColdPreference

	// NumDimensions is the number of taste dimensions.
	NumDimensions = 11
)

const (
	// MinValue is the lower bound of every dimension.
	MinValue = 0.0
	// MaxValue is the upper bound of every dimension.
	MaxValue = 10.0
	// NeutralValue is the midpoint used for neutral vectors.
	NeutralValue = 5.0
)

var dimensionNames = [NumDimensions]string{
	"sweet", "salty", "sour", "bitter", "umami", "spicy",
	"crunchy", "creamy", "chewy", "hot_preference", "cold_preference",
}

// String returns the dimension's wire name.
func (d Dimension) String() string {
	if d < 0 || int(d) >= NumDimensions {
		return "unknown"
	}
	return dimensionNames[d]
}

// ParseDimension maps a wire name back to a Dimension.
func ParseDimension(name string) (Dimension, error) {
	for i, n := range dimensionNames {
		if n == name {
			return Dimension(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown taste dimension %q", ErrInvalidArgument, name)
}

// Dimensions returns all dimensions in canonical order.
func Dimensions() []Dimension {
	out := make([]Dimension, NumDimensions)
	for i := range out {
		out[i] = Dimension(i)
	}
	return out
}

// Weights holds the per-dimension weight applied by every operation.
// Basic tastes are 1.0, umami is slightly higher, textures and
// temperature preferences count less.
var Weights = [NumDimensions]float64{
	Sweet:          1.0,
	Salty:          1.0,
	Sour:           1.0,
	Bitter:         1.0,
	Umami:          1.2,
	Spicy:          1.0,
	Crunchy:        0.8,
	Creamy:         0.8,
	Chewy:          0.8,
	HotPreference:  0.7,
	ColdPreference: 0.7,
}

// ErrInvalidArgument reports malformed input: out-of-range or NaN vector
// values, mismatched slice lengths, negative weights.
var ErrInvalidArgument = errors.New("invalid argument")

// Vector is a point in taste space.
type Vector [NumDimensions]float64

// Neutral returns the all-midpoint vector.
func Neutral() Vector {
	var v Vector
	for i := range v {
		v[i] = NeutralValue
	}
	return v
}

// Get returns the value of dimension d.
func (v Vector) Get(d Dimension) float64 { return v[d] }

// With returns a copy of v with dimension d set to value, clamped.
func (v Vector) With(d Dimension, value float64) Vector {
	v[d] = clamp(value)
	return v
}

// Validate reports whether every dimension is a finite value in bounds.
func (v Vector) Validate() error {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: %s is not a finite number", ErrInvalidArgument, Dimension(i))
		}
		if x < MinValue || x > MaxValue {
			return fmt.Errorf("%w: %s must be in [%.0f,%.0f], got %f", ErrInvalidArgument, Dimension(i), MinValue, MaxValue, x)
		}
	}
	return nil
}

// Clamp returns v with every dimension forced into bounds.
func (v Vector) Clamp() Vector {
	for i := range v {
		v[i] = clamp(v[i])
	}
	return v
}

// Sub returns the per-dimension difference v - o.
func (v Vector) Sub(o Vector) [NumDimensions]float64 {
	var d [NumDimensions]float64
	for i := range v {
		d[i] = v[i] - o[i]
	}
	return d
}

// Map returns the vector keyed by dimension name.
func (v Vector) Map() map[string]float64 {
	m := make(map[string]float64, NumDimensions)
	for i, x := range v {
		m[dimensionNames[i]] = x
	}
	return m
}

// FromMap builds a vector from named dimensions. Missing dimensions take the
// neutral value. Unknown names and out-of-range values are rejected.
func FromMap(m map[string]float64) (Vector, error) {
	v := Neutral()
	for name, x := range m {
		d, err := ParseDimension(name)
		if err != nil {
			return Vector{}, err
		}
		v[d] = x
	}
	if err := v.Validate(); err != nil {
		return Vector{}, err
	}
	return v, nil
}

func clamp(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return NeutralValue
	case x < MinValue:
		return MinValue
	case x > MaxValue:
		return MaxValue
	default:
		return x
	}
}

func clamp01(x float64) float64 {
	switch {
	case math.IsNaN(x) || x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
