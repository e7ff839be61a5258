// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

/*
Package events carries recorded experiences and feedback from the
recommendation engine to asynchronous consumers.

The bus is an in-process Watermill GoChannel pub/sub. The engine publishes
to two topics:

	experience.recorded   one message per accepted food experience
	feedback.recorded     one message per labeled interaction record

Payloads are JSON; every message gets a random UUID.

Consumers run inside a Watermill router with panic recovery and retry
middleware:

  - learning-trigger counts feedback.recorded messages and requests an
    out-of-schedule learning cycle once the count reaches its threshold.
    Requests are rate limited.
  - experience-metrics counts experiences by cuisine.

Publishing never blocks the request path on a consumer; messages published
while no router is subscribed are dropped.
*/
package events
