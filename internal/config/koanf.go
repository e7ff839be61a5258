// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/palate/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load builds the configuration from struct defaults, then an optional
// YAML file, then environment variables, and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths arrive from env as comma-separated strings.
var sliceConfigPaths = []string{
	"api.cors_allowed_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variables (lowercased) to koanf paths.
// Unlisted variables are ignored.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	// API middleware
	"cors_origins":        "api.cors_allowed_origins",
	"rate_limit_requests": "api.rate_limit_requests",
	"rate_limit_window":   "api.rate_limit_window",
	"disable_rate_limit":  "api.rate_limit_disabled",
	"max_body_bytes":      "api.max_body_bytes",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Storage
	"badger_path":          "storage.badger.path",
	"badger_in_memory":     "storage.badger.in_memory",
	"badger_sync_writes":   "storage.badger.sync_writes",
	"badger_gc_interval":   "storage.badger.gc_interval",
	"recommendation_cache": "storage.recommendation_cache",
	"store_timeout":        "storage.breaker.timeout",
	"breaker_open_timeout": "storage.breaker.open_timeout",

	// Redis
	"redis_addr":         "redis.addr",
	"redis_password":     "redis.password",
	"redis_db":           "redis.db",
	"redis_key_prefix":   "redis.key_prefix",
	"redis_dial_timeout": "redis.dial_timeout",

	// Ranking
	"recommend_cache_enabled":      "recommend.cache.enabled",
	"recommend_cache_ttl":          "recommend.cache.ttl",
	"recommend_diversity_strategy": "recommend.diversity.strategy",
	"recommend_diversity_factor":   "recommend.diversity.factor",
	"recommend_default_k":          "recommend.limits.default_k",
	"recommend_max_candidates":     "recommend.limits.max_candidates",
	"recommend_request_timeout":    "recommend.limits.request_timeout",

	// Collaborative filtering
	"similarity_threshold":            "collaborative.similarity_threshold",
	"similarity_confidence_threshold": "collaborative.confidence_threshold",
	"similarity_ttl":                  "collaborative.similarity_ttl",
	"similarity_batch_size":           "collaborative.batch_size",
	"similarity_max_peers":            "collaborative.max_peers",
	"similarity_peer_pool":            "collaborative.peer_pool",

	// Learning
	"learning_enabled":                   "learning.enabled",
	"learning_interval":                  "learning.interval",
	"learning_train_on_startup":          "learning.train_on_startup",
	"learning_cycle_timeout":             "learning.cycle_timeout",
	"learning_target_accuracy":           "learning.assessment.target_accuracy",
	"learning_new_interaction_threshold": "learning.assessment.new_interaction_threshold",
	"learning_min_records":               "learning.dataset.min_records",
	"learning_max_records":               "learning.dataset.max_records",
	"learning_seed":                      "learning.dataset.seed",

	// Events and supervision
	"events_trigger_min_interval": "events.trigger_min_interval",
	"supervisor_shutdown_timeout": "supervisor.shutdown_timeout",
}

// envTransformFunc maps LOG_LEVEL to logging.level and so on. Unmapped
// variables return "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
