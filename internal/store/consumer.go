// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tweetwire/tweetwire/internal/bus"
	"github.com/tweetwire/tweetwire/internal/logging"
	"github.com/tweetwire/tweetwire/internal/tweet"
)

const writeTimeout = 5 * time.Second

// ConsumerConfig bounds the recency query the consumer answers.
type ConsumerConfig struct {
	// DefaultLimit is used when a request names no limit.
	// Default: tweet.DefaultRecentLimit
	DefaultLimit int

	// MaxLimit caps requested limits. Zero means no cap.
	MaxLimit int
}

// Consumer connects the store to the event bus. It persists every
// events.new event it sees and is the sole responder on events.recent.
type Consumer struct {
	store   *Store
	bus     *bus.Bus
	cfg     ConsumerConfig
	breaker *gobreaker.CircuitBreaker[any]
}

// NewConsumer creates a consumer over the given store and bus.
func NewConsumer(s *Store, b *bus.Bus, cfg ConsumerConfig) *Consumer {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = tweet.DefaultRecentLimit
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:     "store-writes",
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("store write circuit breaker state changed")
		},
	})

	return &Consumer{store: s, bus: b, cfg: cfg, breaker: breaker}
}

// Serve implements suture.Service: it holds the events.new subscription
// and the events.recent responder until the context is canceled.
func (c *Consumer) Serve(ctx context.Context) error {
	sub, err := c.bus.Subscribe(tweet.TopicNew, c.persist)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", tweet.TopicNew, err)
	}
	defer sub.Unsubscribe()

	responder, err := c.bus.RegisterResponder(tweet.TopicRecent, c.recent)
	if err != nil {
		return fmt.Errorf("failed to register responder on %s: %w", tweet.TopicRecent, err)
	}
	defer responder.Unsubscribe()

	logging.Info().
		Str("subscribe", tweet.TopicNew).
		Str("respond", tweet.TopicRecent).
		Msg("store consumer started")

	<-ctx.Done()
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logging.
func (c *Consumer) String() string {
	return "store-consumer"
}

// persist writes one event to the store. Failures are logged and
// counted but never propagated: a broken database must not disturb the
// live distribution path, and redelivery makes the upsert converge.
func (c *Consumer) persist(payload []byte) {
	t, err := tweet.Deserialize(payload)
	if err != nil {
		logging.Warn().Err(err).Msg("discarding undecodable event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	_, err = c.breaker.Execute(func() (any, error) {
		return nil, c.store.Upsert(ctx, t)
	})
	if err != nil {
		logging.Error().Err(err).Uint64("tweet_id", t.ID).Msg("failed to persist tweet")
		return
	}
	logging.Debug().Uint64("tweet_id", t.ID).Msg("tweet persisted")
}

// recent answers one events.recent request. Unlike the write path,
// errors here propagate to the requester.
func (c *Consumer) recent(ctx context.Context, payload []byte) ([]byte, error) {
	var req tweet.RecentRequest
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("invalid recent request: %w", err)
		}
	}

	tweets, err := c.store.Recent(ctx, req.Bound(c.cfg.DefaultLimit, c.cfg.MaxLimit))
	if err != nil {
		return nil, err
	}
	return json.Marshal(tweets)
}
