// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

/*
Package store persists canonical tweet events in DuckDB and answers
recency queries over them.

Two halves:

  - Store wraps the embedded DuckDB database: schema bootstrap, an
    idempotent upsert keyed by tweet id, and the descending-id recency
    query.
  - Consumer wires the store to the event bus: it subscribes to
    events.new and persists everything it sees, and it is the sole
    responder on events.recent.

Durability stance: the write path is best-effort. A failed insert is
logged and counted, never propagated, so a database hiccup cannot stall
or crash the live distribution path. Repeated write failures trip a
circuit breaker that sheds load from the database until it recovers.
The read path is the opposite: a failed recency query propagates to the
requester, which surfaces it as an HTTP 500.

Schema bootstrap runs once at startup. A "table already exists" error
is success (the schema is append-only and versionless); any other
failure aborts startup before the process begins serving.
*/
package store
