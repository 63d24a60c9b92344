// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

/*
Package api assembles the HTTP surface: the REST endpoint for recent
tweets, the websocket bridge endpoint, health and metrics, and the
static webroot.

Routes:

	GET /api/v1/tweets/recent   recent tweets, most recent first (JSON array)
	GET /api/v1/health          liveness and database readiness
	GET /eventbus               websocket bridge endpoint
	GET /metrics                Prometheus metrics
	GET /*                      static webroot (when configured)

The recent-tweets handler does not touch the database itself: it asks
the bus for events.recent and relays whatever the sole responder
answers. A responder failure or absence surfaces as a 500 with a
generic body.
*/
package api
