// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package config

import (
	"fmt"
	"strings"
)

// Validate returns the first violated constraint.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateLogging,
		c.validateStorage,
		c.Recommend.Validate,
		c.Collaborative.Validate,
		c.validatePalate,
		c.Learning.Validate,
		c.validateEvents,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server read and write timeouts must be positive")
	}
	if !c.API.RateLimitDisabled && (c.API.RateLimitRequests <= 0 || c.API.RateLimitWindow <= 0) {
		return fmt.Errorf("api rate limit requires positive requests and window, got %d per %s",
			c.API.RateLimitRequests, c.API.RateLimitWindow)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("logging.level %q is not a known level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateStorage() error {
	if !c.Storage.Badger.InMemory && c.Storage.Badger.Path == "" {
		return fmt.Errorf("storage.badger.path is required unless storage.badger.in_memory is set")
	}
	switch c.Storage.RecommendationCache {
	case CacheMemory, CacheBadger:
	case CacheRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required when storage.recommendation_cache=redis")
		}
	default:
		return fmt.Errorf("storage.recommendation_cache must be memory, badger or redis, got %q", c.Storage.RecommendationCache)
	}
	if r := c.Storage.Breaker.FailureRatio; r <= 0 || r > 1 {
		return fmt.Errorf("storage.breaker.failure_ratio must be in (0,1], got %f", r)
	}
	return nil
}

func (c *Config) validatePalate() error {
	cfg := c.Palate.ToPalate()
	return cfg.Validate()
}

func (c *Config) validateEvents() error {
	if c.Events.Bus.OutputBuffer < 0 {
		return fmt.Errorf("events.bus.output_buffer must be non-negative, got %d", c.Events.Bus.OutputBuffer)
	}
	if c.Events.TriggerMinInterval < 0 {
		return fmt.Errorf("events.trigger_min_interval must be non-negative, got %s", c.Events.TriggerMinInterval)
	}
	return nil
}
