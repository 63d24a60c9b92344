// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

// Package tweet defines the canonical event model shared by every stage of
// the pipeline: the stream adapter produces it, the bus carries it, the
// bridge relays it, and the store persists it.
package tweet

import "fmt"

// Bus topics reserved by the pipeline.
const (
	// TopicNew carries canonical tweets, broadcast fire-and-forget.
	TopicNew = "events.new"
	// TopicRecent is the request/reply topic answered by the persistence
	// consumer. Exactly one responder must be registered on it.
	TopicRecent = "events.recent"
)

// DefaultRecentLimit is the window returned by a recent-tweets query when
// the request does not name a limit.
const DefaultRecentLimit = 40

// Author identifies the source account of a tweet.
type Author struct {
	Handle    string `json:"handle"`
	AvatarURL string `json:"img,omitempty"`
}

// Tweet is the canonical, normalized form of one ingested status.
// Values are immutable after creation: stages hand them to the bus and
// every subscriber receives its own decoded copy.
type Tweet struct {
	// ID is the source-assigned identifier and the natural key.
	// Persistence treats repeated IDs idempotently.
	ID     uint64 `json:"id"`
	Body   string `json:"body"`
	URL    string `json:"url"`
	Author Author `json:"user"`
}

// PermalinkURL derives the deterministic permalink for a status.
func PermalinkURL(handle string, id uint64) string {
	return fmt.Sprintf("https://twitter.com/%s/status/%d", handle, id)
}

// Validate checks required fields and returns an error if validation fails.
func (t *Tweet) Validate() error {
	if t.ID == 0 {
		return &ValidationError{Field: "id", Message: "required"}
	}
	if t.Body == "" {
		return &ValidationError{Field: "body", Message: "required"}
	}
	if t.Author.Handle == "" {
		return &ValidationError{Field: "user.handle", Message: "required"}
	}
	return nil
}

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// RecentRequest is the payload of an events.recent request.
type RecentRequest struct {
	// Limit bounds the number of tweets returned, most recent first.
	// Zero means DefaultRecentLimit.
	Limit int `json:"limit,omitempty"`
}

// Bound clamps the request onto a configured window: defaultLimit
// substitutes for an absent or non-positive limit, and maxLimit caps the
// result (zero means uncapped). A non-positive defaultLimit falls back
// to DefaultRecentLimit.
func (r RecentRequest) Bound(defaultLimit, maxLimit int) int {
	limit := r.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return limit
}
