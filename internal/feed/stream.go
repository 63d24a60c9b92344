// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

// Package feed adapts the external push-based status stream into canonical
// tweet events on the bus.
//
// The external wire protocol (OAuth handshake, filter query syntax) is not
// part of the core; it lives behind the Stream interface, which is the
// capability injected at startup. The Adapter consumes a Stream on its own
// worker, applies the content filter, and publishes surviving statuses
// fire-and-forget on tweet.TopicNew.
package feed

import (
	"context"
	"errors"
)

// Status is the raw event shape consumed from the external feed: the only
// part of the upstream protocol the pipeline knows about.
type Status struct {
	ID      uint64 `json:"id"`
	Text    string `json:"text"`
	Retweet bool   `json:"retweet"`
	Handle  string `json:"handle"`
	Avatar  string `json:"avatar,omitempty"`
}

// Credentials authenticate the long-lived stream connection. They are
// passed through to the transport opaquely.
type Credentials struct {
	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string
}

// Options parameterize a stream connection.
type Options struct {
	Endpoint    string
	Credentials Credentials

	// Keywords is the case-insensitive filter set. Must not be empty.
	Keywords []string

	// Language restricts the stream to one language (e.g. "en").
	Language string
}

// ErrStreamClosed is returned by Recv after the stream has been closed.
var ErrStreamClosed = errors.New("feed: stream closed")

// Stream is a lazy, unbounded, non-restartable sequence of raw statuses.
// Recv blocks until the next status arrives, the context is canceled, or
// the underlying connection fails. A connection failure is terminal: the
// stream does not reconnect, and the caller's supervisor owns the restart
// decision.
type Stream interface {
	Recv(ctx context.Context) (*Status, error)
	Close() error
}
