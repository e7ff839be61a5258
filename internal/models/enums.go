// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package models

import (
	"errors"
	"fmt"
)

// ErrUnknownEnum is returned when text does not name a member of a closed set.
var ErrUnknownEnum = errors.New("unknown enum value")

// Every context enum reserves its zero value for "not recorded".

// TimeOfDay buckets when a meal happens.
type TimeOfDay uint8

const (
	TimeUnknown TimeOfDay = iota
	Breakfast
	Brunch
	Lunch
	Afternoon
	Dinner
	LateNight
)

var timeOfDayNames = []string{"", "breakfast", "brunch", "lunch", "afternoon", "dinner", "late_night"}

// SocialSetting is who the meal is shared with.
type SocialSetting uint8

const (
	SocialUnknown SocialSetting = iota
	Alone
	Partner
	Friends
	Family
	Business
	Celebration
)

var socialNames = []string{"", "alone", "partner", "friends", "family", "business", "celebration"}

// Mood is the diner's mood before eating.
type Mood uint8

const (
	MoodUnknown Mood = iota
	Happy
	Stressed
	Tired
	Adventurous
	Nostalgic
	Sad
	Relaxed
)

var moodNames = []string{"", "happy", "stressed", "tired", "adventurous", "nostalgic", "sad", "relaxed"}

// Weather is the weather category at meal time.
type Weather uint8

const (
	WeatherUnknown Weather = iota
	Sunny
	Cloudy
	Rainy
	Snowy
	Hot
	Cold
)

var weatherNames = []string{"", "sunny", "cloudy", "rainy", "snowy", "hot", "cold"}

// LocationType is the kind of place the meal happens.
type LocationType uint8

const (
	LocationUnknown LocationType = iota
	Home
	Restaurant
	Work
	Outdoors
	Travel
	Delivery
)

var locationNames = []string{"", "home", "restaurant", "work", "outdoors", "travel", "delivery"}

// Cuisine is the item category used for item-item neighbors and diversity.
type Cuisine uint8

const (
	CuisineUnknown Cuisine = iota
	American
	Chinese
	French
	Indian
	Italian
	Japanese
	Korean
	Mediterranean
	Mexican
	MiddleEastern
	Thai
	Vietnamese
	Dessert
	Other
)

var cuisineNames = []string{
	"", "american", "chinese", "french", "indian", "italian", "japanese", "korean",
	"mediterranean", "mexican", "middle_eastern", "thai", "vietnamese", "dessert", "other",
}

// PriceBucket is a coarse price tier.
type PriceBucket uint8

const (
	PriceUnknown PriceBucket = iota
	Budget
	Moderate
	Upscale
	Luxury
)

var priceNames = []string{"", "budget", "moderate", "upscale", "luxury"}

func enumString(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return "invalid"
	}
	return names[i]
}

func enumParse(kind string, names []string, text string) (int, error) {
	for i, n := range names {
		if n == text {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s %q", ErrUnknownEnum, kind, text)
}

func (t TimeOfDay) String() string                { return enumString(timeOfDayNames, int(t)) }
func (t TimeOfDay) MarshalText() ([]byte, error)  { return []byte(t.String()), nil }
func (t TimeOfDay) Valid() bool                   { return int(t) < len(timeOfDayNames) }
func (t *TimeOfDay) UnmarshalText(b []byte) error { return unmarshalEnum(t, "time_of_day", timeOfDayNames, b) }

func (s SocialSetting) String() string                { return enumString(socialNames, int(s)) }
func (s SocialSetting) MarshalText() ([]byte, error)  { return []byte(s.String()), nil }
func (s SocialSetting) Valid() bool                   { return int(s) < len(socialNames) }
func (s *SocialSetting) UnmarshalText(b []byte) error { return unmarshalEnum(s, "social", socialNames, b) }

func (m Mood) String() string                { return enumString(moodNames, int(m)) }
func (m Mood) MarshalText() ([]byte, error)  { return []byte(m.String()), nil }
func (m Mood) Valid() bool                   { return int(m) < len(moodNames) }
func (m *Mood) UnmarshalText(b []byte) error { return unmarshalEnum(m, "mood", moodNames, b) }

func (w Weather) String() string                { return enumString(weatherNames, int(w)) }
func (w Weather) MarshalText() ([]byte, error)  { return []byte(w.String()), nil }
func (w Weather) Valid() bool                   { return int(w) < len(weatherNames) }
func (w *Weather) UnmarshalText(b []byte) error { return unmarshalEnum(w, "weather", weatherNames, b) }

func (l LocationType) String() string                { return enumString(locationNames, int(l)) }
func (l LocationType) MarshalText() ([]byte, error)  { return []byte(l.String()), nil }
func (l LocationType) Valid() bool                   { return int(l) < len(locationNames) }
func (l *LocationType) UnmarshalText(b []byte) error { return unmarshalEnum(l, "location", locationNames, b) }

func (c Cuisine) String() string                { return enumString(cuisineNames, int(c)) }
func (c Cuisine) MarshalText() ([]byte, error)  { return []byte(c.String()), nil }
func (c Cuisine) Valid() bool                   { return int(c) < len(cuisineNames) }
func (c *Cuisine) UnmarshalText(b []byte) error { return unmarshalEnum(c, "cuisine", cuisineNames, b) }

func (p PriceBucket) String() string                { return enumString(priceNames, int(p)) }
func (p PriceBucket) MarshalText() ([]byte, error)  { return []byte(p.String()), nil }
func (p PriceBucket) Valid() bool                   { return int(p) < len(priceNames) }
func (p *PriceBucket) UnmarshalText(b []byte) error { return unmarshalEnum(p, "price", priceNames, b) }

func unmarshalEnum[T ~uint8](dst *T, kind string, names []string, b []byte) error {
	i, err := enumParse(kind, names, string(b))
	if err != nil {
		return err
	}
	*dst = T(i)
	return nil
}

// ParseCuisine maps a wire name to a Cuisine.
func ParseCuisine(name string) (Cuisine, error) {
	i, err := enumParse("cuisine", cuisineNames, name)
	return Cuisine(i), err
}
