// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"

	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/recommend"
)

// RedisOptions configures the Redis cache backend.
type RedisOptions struct {
	Addr      string `koanf:"addr"`
	Password  string `koanf:"password"`
	DB        int    `koanf:"db"`
	KeyPrefix string `koanf:"key_prefix"`

	// DialTimeout bounds connection setup and the startup ping.
	DialTimeout time.Duration `koanf:"dial_timeout"`
}

// RedisCache stores similarity pairs and ranked lists in Redis with
// per-key expiry, so multiple service instances share them.
type RedisCache struct {
	rdb    *goredis.Client
	prefix string
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	dial := opts.DialTimeout
	if dial <= 0 {
		dial = 5 * time.Second
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: dial,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dial)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisCacheFromClient(rdb, opts.KeyPrefix), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(rdb *goredis.Client, keyPrefix string) *RedisCache {
	if keyPrefix == "" {
		keyPrefix = "palate:"
	}
	return &RedisCache{rdb: rdb, prefix: keyPrefix}
}

// Ping checks the connection.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close closes the client.
func (r *RedisCache) Close() error {
	return r.rdb.Close()
}

func (r *RedisCache) get(ctx context.Context, key string, v any) error {
	raw, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (r *RedisCache) set(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.rdb.Set(ctx, r.prefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// GetSimilarity returns a cached pair.
func (r *RedisCache) GetSimilarity(ctx context.Context, userA, userB string) (*models.UserSimilarity, error) {
	var sim models.UserSimilarity
	if err := r.get(ctx, "sim:"+pairKey(userA, userB), &sim); err != nil {
		return nil, err
	}
	return &sim, nil
}

// UpsertSimilarity caches a pair for ttl.
func (r *RedisCache) UpsertSimilarity(ctx context.Context, sim *models.UserSimilarity, ttl time.Duration) error {
	return r.set(ctx, "sim:"+pairKey(sim.UserA, sim.UserB), sim, ttl)
}

// GetRecommendations returns a cached ranked list.
func (r *RedisCache) GetRecommendations(ctx context.Context, userID, contextHash string) ([]models.RecommendationResult, error) {
	var results []models.RecommendationResult
	if err := r.get(ctx, "rec:"+listKey(userID, contextHash), &results); err != nil {
		return nil, err
	}
	return results, nil
}

// PutRecommendations caches a ranked list for ttl.
func (r *RedisCache) PutRecommendations(ctx context.Context, userID, contextHash string, results []models.RecommendationResult, ttl time.Duration) error {
	return r.set(ctx, "rec:"+listKey(userID, contextHash), results, ttl)
}

// Ensure RedisCache implements the cache interfaces.
var (
	_ recommend.SimilarityCache     = (*RedisCache)(nil)
	_ recommend.RecommendationCache = (*RedisCache)(nil)
)
