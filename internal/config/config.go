// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/tomtom215/palate/internal/api"
	"github.com/tomtom215/palate/internal/breaker"
	"github.com/tomtom215/palate/internal/events"
	"github.com/tomtom215/palate/internal/learning"
	"github.com/tomtom215/palate/internal/logging"
	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/palate"
	"github.com/tomtom215/palate/internal/recommend"
	"github.com/tomtom215/palate/internal/recommend/algorithms"
	"github.com/tomtom215/palate/internal/recommend/storage"
	"github.com/tomtom215/palate/internal/supervisor"
)

// Recommendation cache backends.
const (
	CacheMemory = "memory"
	CacheBadger = "badger"
	CacheRedis  = "redis"
)

// Config is the complete service configuration.
type Config struct {
	Server        ServerConfig          `koanf:"server"`
	API           api.RouterConfig      `koanf:"api"`
	Logging       LoggingConfig         `koanf:"logging"`
	Storage       StorageConfig         `koanf:"storage"`
	Redis         storage.RedisOptions  `koanf:"redis"`
	Recommend     recommend.Config      `koanf:"recommend"`
	Collaborative algorithms.Config     `koanf:"collaborative"`
	Palate        PalateConfig          `koanf:"palate"`
	Learning      learning.Config       `koanf:"learning"`
	Events        EventsConfig          `koanf:"events"`
	Supervisor    supervisor.TreeConfig `koanf:"supervisor"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ToLogging converts to the logging package configuration, writing to stderr.
func (l LoggingConfig) ToLogging() logging.Config {
	return logging.Config{
		Level:     l.Level,
		Format:    l.Format,
		Caller:    l.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	}
}

// StorageConfig selects and tunes the stores.
type StorageConfig struct {
	Badger storage.Options `koanf:"badger"`

	// RecommendationCache is memory, badger or redis. The similarity cache
	// follows it onto Redis when redis is chosen and stays in Badger
	// otherwise.
	RecommendationCache string `koanf:"recommendation_cache"`

	// Breaker guards every store call.
	Breaker breaker.Config `koanf:"breaker"`
}

// PalateConfig mirrors palate.Config with keys that survive YAML and env.
type PalateConfig struct {
	BaseRates          MaturityRates     `koanf:"base_rates"`
	ContextImportance  ContextImportance `koanf:"context_importance"`
	MatrixDecay        float64           `koanf:"matrix_decay"`
	ContextWeightRate  float64           `koanf:"context_weight_rate"`
	HistoryLimit       int               `koanf:"history_limit"`
	InitialMatrixValue float64           `koanf:"initial_matrix_value"`
}

// MaturityRates is the base learning rate per maturity stage.
type MaturityRates struct {
	Novice      float64 `koanf:"novice"`
	Developing  float64 `koanf:"developing"`
	Established float64 `koanf:"established"`
	Expert      float64 `koanf:"expert"`
}

// ContextImportance weights each context field.
type ContextImportance struct {
	TimeOfDay float64 `koanf:"time_of_day"`
	Social    float64 `koanf:"social"`
	Mood      float64 `koanf:"mood"`
	Weather   float64 `koanf:"weather"`
	Location  float64 `koanf:"location"`
}

// ToPalate converts to the profile manager configuration.
//
//nolint:gocritic // hugeParam: value receiver keeps the conversion side-effect free
func (p PalateConfig) ToPalate() palate.Config {
	return palate.Config{
		BaseRates: map[models.Maturity]float64{
			models.Novice:      p.BaseRates.Novice,
			models.Developing:  p.BaseRates.Developing,
			models.Established: p.BaseRates.Established,
			models.Expert:      p.BaseRates.Expert,
		},
		ContextImportance: map[models.ContextField]float64{
			models.FieldTimeOfDay: p.ContextImportance.TimeOfDay,
			models.FieldSocial:    p.ContextImportance.Social,
			models.FieldMood:      p.ContextImportance.Mood,
			models.FieldWeather:   p.ContextImportance.Weather,
			models.FieldLocation:  p.ContextImportance.Location,
		},
		MatrixDecay:        p.MatrixDecay,
		ContextWeightRate:  p.ContextWeightRate,
		HistoryLimit:       p.HistoryLimit,
		InitialMatrixValue: p.InitialMatrixValue,
	}
}

func palateFrom(c palate.Config) PalateConfig {
	return PalateConfig{
		BaseRates: MaturityRates{
			Novice:      c.BaseRates[models.Novice],
			Developing:  c.BaseRates[models.Developing],
			Established: c.BaseRates[models.Established],
			Expert:      c.BaseRates[models.Expert],
		},
		ContextImportance: ContextImportance{
			TimeOfDay: c.ContextImportance[models.FieldTimeOfDay],
			Social:    c.ContextImportance[models.FieldSocial],
			Mood:      c.ContextImportance[models.FieldMood],
			Weather:   c.ContextImportance[models.FieldWeather],
			Location:  c.ContextImportance[models.FieldLocation],
		},
		MatrixDecay:        c.MatrixDecay,
		ContextWeightRate:  c.ContextWeightRate,
		HistoryLimit:       c.HistoryLimit,
		InitialMatrixValue: c.InitialMatrixValue,
	}
}

// EventsConfig configures the in-process event bus and its consumers.
type EventsConfig struct {
	Bus    events.BusConfig    `koanf:"bus"`
	Router events.RouterConfig `koanf:"router"`

	// TriggerMinInterval spaces out learning cycles requested by the
	// feedback consumer. Zero disables the limit.
	TriggerMinInterval time.Duration `koanf:"trigger_min_interval"`
}

// LearningTriggerThreshold is the feedback count at which the consumer
// requests a cycle. Retraining needs strictly more than the assessment
// threshold, so the consumer waits for one more.
func (c *Config) LearningTriggerThreshold() int {
	return c.Learning.Assessment.NewInteractionThreshold + 1
}

// defaultConfig returns every default. Later layers override it.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     2 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		API: api.DefaultRouterConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Storage: StorageConfig{
			Badger: storage.Options{
				Path:       "/data/palate",
				GCInterval: 10 * time.Minute,
			},
			RecommendationCache: CacheBadger,
			Breaker:             breaker.DefaultConfig(),
		},
		Redis: storage.RedisOptions{
			Addr:        "",
			KeyPrefix:   "palate:",
			DialTimeout: 5 * time.Second,
		},
		Recommend:     *recommend.DefaultConfig(),
		Collaborative: algorithms.DefaultConfig(),
		Palate:        palateFrom(palate.DefaultConfig()),
		Learning:      learning.DefaultConfig(),
		Events: EventsConfig{
			Bus:                events.DefaultBusConfig(),
			Router:             events.DefaultRouterConfig(),
			TriggerMinInterval: time.Hour,
		},
		Supervisor: supervisor.DefaultTreeConfig(),
	}
}

func (c *Config) String() string {
	redisPassword := ""
	if c.Redis.Password != "" {
		redisPassword = "[REDACTED]"
	}
	return fmt.Sprintf("server=%s storage=%s cache=%s redis=%s(password=%s) learning.enabled=%v",
		c.Server.Addr(), c.Storage.Badger.Path, c.Storage.RecommendationCache, c.Redis.Addr, redisPassword, c.Learning.Enabled)
}
