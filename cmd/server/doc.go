// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

/*
Package main is the entry point for the Palate recommendation server.

Palate learns a taste profile per user from recorded food experiences and
serves ranked, contextual food recommendations. Feedback on served items
feeds a learning pipeline that periodically retrains the fusion weights.

# Application Architecture

The server runs its long-lived components under Suture v4 supervision:

	RootSupervisor ("palate")
	├── DataSupervisor ("data-layer")
	│   └── Badger value-log GC
	├── LearningSupervisor ("learning-layer")
	│   ├── Event router (learning trigger, experience metrics)
	│   └── Learning scheduler (when learning.enabled)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi router, /api/v1)

Component initialization order:

 1. Configuration: koanf with defaults, config.yaml and environment variables
 2. Logging: zerolog with JSON/console output modes
 3. Storage: BadgerDB, plus the recommendation cache (memory, badger or redis)
 4. Circuit breakers around every store call
 5. Profile manager, collaborative filter and ranking engine
 6. Active scoring snapshot restored from storage
 7. Event bus (Watermill GoChannel) and learning pipeline
 8. Supervisor tree and HTTP server

# Signal Handling

SIGINT and SIGTERM cancel the root context. Each supervised service gets
supervisor.shutdown_timeout to stop, and the HTTP server drains in-flight
requests for server.shutdown_timeout. The event bus, engine, caches and
database are closed after the tree returns.

# Example Usage

Local development with an in-memory store:

	export BADGER_IN_MEMORY=true
	export LOG_FORMAT=console
	./palate

Shared recommendation cache across instances:

	export BADGER_PATH=/var/lib/palate
	export RECOMMENDATION_CACHE=redis
	export REDIS_ADDR=redis:6379
	./palate
*/
package main
