// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

// Package config loads service configuration with koanf.
//
// Three layers are merged, later layers winning:
//
//  1. Struct defaults (defaultConfig)
//  2. A YAML file from CONFIG_PATH, or the first of config.yaml, config.yml,
//     /etc/palate/config.yaml that exists
//  3. Environment variables listed in envMappings
//
// Example config.yaml:
//
//	server:
//	  port: 8080
//	storage:
//	  badger:
//	    path: /var/lib/palate
//	  recommendation_cache: redis
//	redis:
//	  addr: redis:6379
//	recommend:
//	  weights: {taste: 0.35, emotional: 0.25, context: 0.20, collaborative: 0.15, novelty: 0.05}
//	  diversity: {strategy: mmr, factor: 0.3}
//	learning:
//	  interval: 24h
//	  assessment:
//	    target_accuracy: 0.75
//
// The same settings through the environment:
//
//	HTTP_PORT=8080
//	BADGER_PATH=/var/lib/palate
//	RECOMMENDATION_CACHE=redis
//	REDIS_ADDR=redis:6379
//	RECOMMEND_DIVERSITY_STRATEGY=mmr
//	LEARNING_INTERVAL=24h
//
// Component sections (recommend, collaborative, learning, events,
// supervisor) are the components' own config types, so their Validate
// methods run as part of Config.Validate.
package config
