// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

/*
Package services adapts Palate components to suture.Service.

Each wrapper turns a component lifecycle into a context-aware Serve and
names itself through fmt.Stringer for supervisor logs:

  - HTTPServerService: ListenAndServe with graceful Shutdown
  - LearningService: scheduled and triggered learning cycles
  - EventRouterService: a fresh event router per start
  - BadgerGCService: periodic Badger value-log garbage collection

Serve returns ctx.Err() on shutdown and a wrapped error on failure, which
the supervisor answers with a restart.
*/
package services
