// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/palate/internal/api"
	"github.com/tomtom215/palate/internal/breaker"
	"github.com/tomtom215/palate/internal/config"
	"github.com/tomtom215/palate/internal/events"
	"github.com/tomtom215/palate/internal/learning"
	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/palate"
	"github.com/tomtom215/palate/internal/recommend"
	"github.com/tomtom215/palate/internal/recommend/algorithms"
	"github.com/tomtom215/palate/internal/recommend/reranking"
	"github.com/tomtom215/palate/internal/recommend/storage"
	"github.com/tomtom215/palate/internal/supervisor"
	"github.com/tomtom215/palate/internal/supervisor/services"
)

// app holds every long-lived component. newApp wires them; Tree hands the
// runnable ones to the supervisor; Close releases the rest.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	store    *storage.Badger
	engine   *recommend.Engine
	pipeline *learning.Pipeline
	bus      *events.Bus
	handler  http.Handler

	closers   []func() error
	closeOnce sync.Once
}

// caches is the recommendation/similarity cache pair chosen by
// storage.recommendation_cache, plus what must be closed on shutdown.
type caches struct {
	recommendations storage.Cache
	similarities    storage.Cache
	ping            func(context.Context) error
	close           func() error
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	store, err := storage.OpenBadger(cfg.Storage.Badger, logger)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, store.Close)

	c, err := openCaches(ctx, cfg, store)
	if err != nil {
		a.Close()
		return nil, err
	}
	if c.close != nil {
		a.closers = append(a.closers, c.close)
	}

	storeBreaker := breaker.New("store", cfg.Storage.Breaker)
	guarded := storage.NewGuarded(store, storeBreaker)
	cacheBreaker := storeBreaker
	if cfg.Storage.RecommendationCache == config.CacheRedis {
		cacheBreaker = breaker.New("redis", cfg.Storage.Breaker)
	}
	recCache := storage.NewGuardedCache(c.recommendations, cacheBreaker)
	simCache := storage.NewGuardedCache(c.similarities, cacheBreaker)

	manager := palate.NewManager(guarded, cfg.Palate.ToPalate(), logger)

	engine, err := recommend.NewEngine(&cfg.Recommend, recommend.Stores{
		Profiles:        guarded,
		Experiences:     guarded,
		Feedback:        guarded,
		Recommendations: recCache,
	}, manager, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create engine: %w", err)
	}
	a.engine = engine
	a.closers = append(a.closers, func() error { engine.Close(); return nil })

	collab, err := algorithms.NewCollaborative(cfg.Collaborative, guarded, simCache, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create collaborative filter: %w", err)
	}
	engine.SetCollaborative(collab)
	engine.RegisterReranker(reranking.NewCategory())
	engine.RegisterReranker(reranking.NewMMR())

	if err := restoreSnapshot(ctx, guarded, engine, logger); err != nil {
		a.Close()
		return nil, err
	}

	a.bus = events.NewBus(cfg.Events.Bus, logger)
	a.closers = append(a.closers, a.bus.Close)
	engine.SetPublisher(a.bus)

	pipeline, err := learning.NewPipeline(cfg.Learning, learning.Stores{
		Feedback:     guarded,
		Performance:  guarded,
		Snapshots:    guarded,
		Similarities: simCache,
	}, engine, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create learning pipeline: %w", err)
	}
	a.pipeline = pipeline

	checks := map[string]api.ReadinessCheck{
		"badger": store.Ping,
		"snapshot": func(context.Context) error {
			if engine.Snapshot() == nil {
				return errors.New("no active snapshot")
			}
			return nil
		},
	}
	if c.ping != nil {
		checks["cache"] = c.ping
	}
	a.handler = api.NewRouter(cfg.API, api.NewHandler(engine, pipeline, guarded, checks, logger), logger)
	return a, nil
}

func openCaches(ctx context.Context, cfg *config.Config, store *storage.Badger) (caches, error) {
	switch cfg.Storage.RecommendationCache {
	case config.CacheMemory:
		mem := storage.NewMemoryCache(cfg.Recommend.Cache.TTL)
		return caches{
			recommendations: mem,
			similarities:    store,
			ping:            mem.Ping,
			close:           func() error { mem.Close(); return nil },
		}, nil
	case config.CacheRedis:
		rc, err := storage.NewRedisCache(ctx, cfg.Redis)
		if err != nil {
			return caches{}, fmt.Errorf("connect redis: %w", err)
		}
		return caches{
			recommendations: rc,
			similarities:    rc,
			ping:            rc.Ping,
			close:           rc.Close,
		}, nil
	default:
		return caches{recommendations: store, similarities: store}, nil
	}
}

// restoreSnapshot activates the last promoted snapshot, if any. A store
// without one keeps the engine's default weights.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func restoreSnapshot(ctx context.Context, snapshots recommend.SnapshotStore, engine *recommend.Engine, logger zerolog.Logger) error {
	snap, err := snapshots.LatestSnapshot(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			logger.Info().Msg("No stored snapshot, using default fusion weights")
			return nil
		}
		return fmt.Errorf("load snapshot: %w", err)
	}
	if err := engine.Publish(snap); err != nil {
		return fmt.Errorf("activate snapshot %d: %w", snap.Version, err)
	}
	logger.Info().Int64("version", snap.Version).Msg("Restored scoring snapshot")
	return nil
}

// Tree builds the supervisor tree around the app's services.
func (a *app) Tree(slogger *slog.Logger) (*supervisor.SupervisorTree, error) {
	tree, err := supervisor.NewSupervisorTree(slogger, a.cfg.Supervisor)
	if err != nil {
		return nil, err
	}

	tree.AddDataService(services.NewBadgerGCService(a.store, a.cfg.Storage.Badger.GCInterval, a.logger))

	consumers := []events.Consumer{
		events.NewLearningTrigger(a.pipeline, a.cfg.LearningTriggerThreshold(), a.cfg.Events.TriggerMinInterval, a.logger).Consumer(),
		events.NewExperienceMetrics(a.logger).Consumer(),
	}
	tree.AddLearningService(services.NewEventRouterService(a.cfg.Events.Router, a.bus, consumers, a.logger))

	if a.cfg.Learning.Enabled {
		tree.AddLearningService(services.NewLearningService(a.pipeline, services.LearningServiceConfig{
			Interval:     a.cfg.Learning.Interval,
			RunOnStartup: a.cfg.Learning.TrainOnStartup,
		}, a.logger))
	} else {
		a.logger.Info().Msg("Scheduled learning disabled; manual runs remain available")
	}

	server := &http.Server{
		Addr:         a.cfg.Server.Addr(),
		Handler:      a.handler,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, a.cfg.Server.ShutdownTimeout))
	return tree, nil
}

// Close releases components in reverse order of creation.
func (a *app) Close() {
	a.closeOnce.Do(func() {
		for i := len(a.closers) - 1; i >= 0; i-- {
			if err := a.closers[i](); err != nil {
				a.logger.Error().Err(err).Msg("Error during shutdown")
			}
		}
	})
}
