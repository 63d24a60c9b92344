// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

/*
Package bus provides the process-wide publish/subscribe and request/reply
event bus that decouples the pipeline stages.

The bus is built on Watermill's GoChannel Pub/Sub in synchronous-ack
mode, giving the delivery semantics the pipeline relies on:

  - Publish hands the message to every subscriber registered at publish
    time and returns once each has queued it, without waiting for any
    handler to run.
  - Deliveries to a single subscriber arrive in publish order: each
    subscription services an ordered queue from one handler goroutine.
  - A subscriber added after a publish completes never sees that publish;
    there is no buffering or replay.

On top of that, the package adds:

  - Subscription handles: Subscribe returns a handle whose Unsubscribe
    tears the registration down and waits for the handler loop to drain,
    so no delivery attempt can follow an Unsubscribe return.
  - Per-subscriber isolation: a panicking handler is recovered and logged;
    it never affects other subscribers or the publisher.
  - Request/reply: RegisterResponder makes a topic point-to-point; Request
    publishes with a correlation ID and a unique reply topic and waits for
    the single reply. Responder failures and missing responders surface to
    the caller as errors.

The bus is an explicitly owned object handed to each component at
construction. Nothing in this package is a package-level singleton, which
keeps tests free to build one bus per case.

Architecture:

	          Publish("events.new", tweet)
	               │
	        ┌──────┴──────┐
	        │   GoChannel │
	        └──┬───────┬──┘
	           │       │
	     bridge hub   persistence consumer
	                       │
	          Request("events.recent") ───► responder ───► reply topic
*/
package bus
