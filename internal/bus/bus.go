// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tweetwire/tweetwire/internal/logging"
)

// ErrClosed is returned by operations on a closed bus.
var ErrClosed = errors.New("bus: closed")

// Handler processes one published payload. Handlers run on the
// subscription's own goroutine; a panic is recovered and logged without
// affecting other subscribers or the publisher.
type Handler func(payload []byte)

// Config holds bus tuning knobs.
type Config struct {
	// OutputChannelBuffer is the per-subscriber delivery buffer.
	// Default: 256
	OutputChannelBuffer int64
}

// DefaultConfig returns production defaults for the bus.
func DefaultConfig() Config {
	return Config{OutputChannelBuffer: 256}
}

// Bus is the in-process event bus. It wraps a Watermill GoChannel Pub/Sub
// and tracks request/reply responders. Safe for concurrent use.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter

	mu         sync.Mutex
	responders map[string]struct{}
	closed     bool
}

// New creates a bus with the given configuration.
func New(cfg Config) *Bus {
	if cfg.OutputChannelBuffer <= 0 {
		cfg.OutputChannelBuffer = 256
	}

	logger := NewWatermillLogger()
	// BlockPublishUntilSubscriberAck makes GoChannel hand each message to
	// each subscriber synchronously instead of on a fresh goroutine per
	// message. Without it, concurrent per-message goroutines race into the
	// subscriber channel and publish order is lost. The consume loop acks
	// on dequeue, before the handler runs, so a publisher only waits for
	// the handoff, never for handler completion.
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            cfg.OutputChannelBuffer,
		BlockPublishUntilSubscriberAck: true,
	}, logger)

	return &Bus{
		pubsub:     pubsub,
		logger:     logger,
		responders: make(map[string]struct{}),
	}
}

// Publish broadcasts a payload to every handler currently subscribed to
// the topic. It does not wait for handlers to finish, and a handler
// failure is never visible to the caller.
func (b *Bus) Publish(topic string, payload []byte) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.mu.Unlock()

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers a handler for a topic and returns its subscription
// handle. The handler starts receiving publishes made after Subscribe
// returns; earlier publishes are never replayed.
func (b *Bus) Subscribe(topic string, handler Handler) (*Subscription, error) {
	return b.subscribeMessages(topic, func(msg *message.Message) {
		handler(msg.Payload)
	}, nil)
}

// subscribeMessages is the message-level subscription used by both plain
// handlers and responders. onStop runs once after the handler loop drains.
//
// Two goroutines per subscription: a consume loop that dequeues from
// GoChannel, acks immediately, and appends to an ordered queue; and a
// handler loop that services the queue one message at a time. The
// immediate ack unblocks the publisher, the single handler loop keeps
// deliveries in publish order, and a slow handler backs up only its own
// queue.
func (b *Bus) subscribeMessages(topic string, fn func(*message.Message), onStop func()) (*Subscription, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	b.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	messages, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	sub := &Subscription{
		topic:  topic,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	queue := newMsgQueue()

	go func() {
		defer queue.close()
		for msg := range messages {
			// A message already in flight when Unsubscribe was called is
			// acked and dropped, never handed to the handler.
			if ctx.Err() != nil {
				msg.Ack()
				continue
			}
			queue.push(msg)
			msg.Ack()
		}
	}()

	go func() {
		defer close(sub.done)
		if onStop != nil {
			defer onStop()
		}
		for {
			msg, ok := queue.pop()
			if !ok {
				return
			}
			if ctx.Err() != nil {
				continue
			}
			invoke(topic, fn, msg)
		}
	}()

	return sub, nil
}

// msgQueue is an unbounded FIFO buffer between the consume loop and the
// handler loop of one subscription. Unbounded so that a slow handler
// never backpressures the publisher; bounding is the consumer's job
// (the bridge drops, the store sheds through its breaker).
type msgQueue struct {
	mu       sync.Mutex
	nonEmpty *sync.Cond
	items    []*message.Message
	closed   bool
}

func newMsgQueue() *msgQueue {
	q := &msgQueue{}
	q.nonEmpty = sync.NewCond(&q.mu)
	return q
}

func (q *msgQueue) push(msg *message.Message) {
	q.mu.Lock()
	q.items = append(q.items, msg)
	q.nonEmpty.Signal()
	q.mu.Unlock()
}

// pop blocks until a message is available or the queue is closed and
// drained.
func (q *msgQueue) pop() (*message.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.nonEmpty.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	msg := q.items[0]
	q.items = q.items[1:]
	return msg, true
}

func (q *msgQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.nonEmpty.Broadcast()
	q.mu.Unlock()
}

// invoke runs fn with panic isolation.
func invoke(topic string, fn func(*message.Message), msg *message.Message) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().
				Str("topic", topic).
				Str("message_uuid", msg.UUID).
				Interface("panic", r).
				Msg("bus handler panicked")
		}
	}()
	fn(msg)
}

// Close shuts the bus down. All subscriptions end and further operations
// return ErrClosed.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	return b.pubsub.Close()
}

// Subscription is the handle for one registered handler. It is created by
// Subscribe or RegisterResponder and destroyed by Unsubscribe or bus
// shutdown; it is never persisted.
type Subscription struct {
	topic  string
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
}

// Topic returns the topic this subscription is registered on.
func (s *Subscription) Topic() string {
	return s.topic
}

// Unsubscribe removes the handler and waits for its delivery loop to
// drain. When Unsubscribe returns, no further delivery attempt can reach
// the handler.
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
	<-s.done
}
