// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

package feed

import (
	"context"
	"fmt"
	"strings"

	"github.com/tweetwire/tweetwire/internal/logging"
	"github.com/tweetwire/tweetwire/internal/metrics"
	"github.com/tweetwire/tweetwire/internal/tweet"
)

// Publisher is the slice of the bus the adapter needs.
// Satisfied by *bus.Bus.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Adapter drives one Stream and publishes canonical events. It owns no
// shared state: its only side effect is bus publishes.
type Adapter struct {
	stream     Stream
	pub        Publisher
	serializer *tweet.Serializer
	name       string
}

// NewAdapter creates a stream source adapter.
func NewAdapter(stream Stream, pub Publisher) *Adapter {
	return &Adapter{
		stream:     stream,
		pub:        pub,
		serializer: tweet.NewSerializer(),
		name:       "feed-adapter",
	}
}

// Serve implements suture.Service. It blocks on the stream's Recv loop
// until the context is canceled or the stream fails. A stream failure is
// returned to the supervisor; the adapter itself never reconnects.
func (a *Adapter) Serve(ctx context.Context) error {
	logging.Info().Msg("feed adapter started")
	defer func() {
		if err := a.stream.Close(); err != nil {
			logging.Warn().Err(err).Msg("closing feed stream")
		}
	}()

	for {
		status, err := a.stream.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("feed stream: %w", err)
		}

		a.process(status)
	}
}

// process filters one raw status and publishes it if it survives.
func (a *Adapter) process(status *Status) {
	metrics.FeedStatusesReceived.Inc()

	// Content filter, not an error path: empty bodies and reshares are
	// expected upstream noise.
	if status == nil || strings.TrimSpace(status.Text) == "" {
		metrics.FeedStatusesFiltered.WithLabelValues("empty").Inc()
		return
	}
	if status.Retweet {
		metrics.FeedStatusesFiltered.WithLabelValues("retweet").Inc()
		return
	}

	data, err := a.serializer.Marshal(Normalize(status))
	if err != nil {
		metrics.FeedStatusesFiltered.WithLabelValues("invalid").Inc()
		logging.Warn().Err(err).Uint64("id", status.ID).Msg("dropping unnormalizable status")
		return
	}

	if err := a.pub.Publish(tweet.TopicNew, data); err != nil {
		logging.Error().Err(err).Uint64("id", status.ID).Msg("publish canonical event failed")
		return
	}

	metrics.FeedEventsPublished.Inc()
	logging.Debug().Uint64("id", status.ID).Msg("published tweet")
}

// Normalize maps a surviving raw status into its canonical event.
func Normalize(status *Status) *tweet.Tweet {
	return &tweet.Tweet{
		ID:   status.ID,
		Body: status.Text,
		URL:  tweet.PermalinkURL(status.Handle, status.ID),
		Author: tweet.Author{
			Handle:    status.Handle,
			AvatarURL: status.Avatar,
		},
	}
}

// String implements fmt.Stringer for supervisor logging.
func (a *Adapter) String() string {
	return a.name
}
