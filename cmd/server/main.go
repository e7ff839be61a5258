// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/palate/internal/config"
	"github.com/tomtom215/palate/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(cfg.Logging.ToLogging())
	logger := logging.Logger()

	logger.Info().
		Str("config", cfg.String()).
		Msg("Starting Palate with supervisor tree")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer a.Close()

	tree, err := a.Tree(logging.NewSlogLogger())
	if err != nil {
		a.Close()
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	logger.Info().Str("addr", cfg.Server.Addr()).Msg("Supervisor tree starting")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("Supervisor tree stopped with error")
	}
	logger.Info().Msg("Shutdown complete")
}
