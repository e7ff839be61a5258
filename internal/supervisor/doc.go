// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

/*
Package supervisor provides process supervision for Palate using suture v4.

Every long-running component runs as a suture.Service inside a three-layer
tree:

	palate
	├── data-layer
	│   └── BadgerGCService
	├── learning-layer
	│   ├── EventRouterService
	│   └── LearningService
	└── api-layer
	    └── HTTPServerService

Crashed services are restarted with backoff. Each layer has its own failure
count, so an event router stuck in a crash loop backs off without touching
the HTTP server.

Supervisor events are logged through sutureslog onto the slog bridge of
the zerolog logger:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), cfg.Supervisor)
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewBadgerGCService(store, 10*time.Minute, logger))
	tree.AddLearningService(services.NewLearningService(pipeline, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	return tree.Serve(ctx)

Cancelling ctx stops every service. Services that miss ShutdownTimeout are
listed by UnstoppedServiceReport.

The service wrappers live in the services subpackage.
*/
package supervisor
