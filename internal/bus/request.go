// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

package bus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// Metadata keys used by the request/reply protocol.
const (
	metaReplyTo       = "reply_to"
	metaCorrelationID = "correlation_id"
	metaError         = "error"
)

// DefaultRequestTimeout bounds a Request whose context carries no deadline.
const DefaultRequestTimeout = 5 * time.Second

// ErrNoResponder is returned by Request when no responder is registered
// for the topic.
var ErrNoResponder = errors.New("bus: no responder registered for topic")

// ErrResponderExists is returned by RegisterResponder when the topic
// already has a responder. Request topics are point-to-point: exactly one
// responder may be registered per topic.
var ErrResponderExists = errors.New("bus: responder already registered for topic")

// ResponderError carries a failure signaled by a responder back to the
// requesting side.
type ResponderError struct {
	Topic   string
	Message string
}

func (e *ResponderError) Error() string {
	return fmt.Sprintf("bus: responder for %s failed: %s", e.Topic, e.Message)
}

// Responder answers one request. Returning an error makes the request
// fail on the calling side; the error text crosses the bus, so it must
// not contain anything the caller may not see.
type Responder func(ctx context.Context, payload []byte) ([]byte, error)

// RegisterResponder registers the single responder for a request topic.
// Unsubscribing the returned handle frees the topic for a new responder.
func (b *Bus) RegisterResponder(topic string, responder Responder) (*Subscription, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	if _, exists := b.responders[topic]; exists {
		b.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrResponderExists, topic)
	}
	b.responders[topic] = struct{}{}
	b.mu.Unlock()

	onStop := func() {
		b.mu.Lock()
		delete(b.responders, topic)
		b.mu.Unlock()
	}

	sub, err := b.subscribeMessages(topic, func(msg *message.Message) {
		b.respond(topic, responder, msg)
	}, onStop)
	if err != nil {
		onStop()
		return nil, err
	}
	return sub, nil
}

// respond runs the responder for one request message and publishes the
// reply to the request's reply topic.
func (b *Bus) respond(topic string, responder Responder, msg *message.Message) {
	replyTo := msg.Metadata.Get(metaReplyTo)
	if replyTo == "" {
		// Broadcast traffic on a request topic; nothing to answer.
		return
	}

	result, err := responder(msg.Context(), msg.Payload)

	reply := message.NewMessage(watermill.NewUUID(), result)
	reply.Metadata.Set(metaCorrelationID, msg.Metadata.Get(metaCorrelationID))
	if err != nil {
		reply.Metadata.Set(metaError, err.Error())
	}

	if pubErr := b.pubsub.Publish(replyTo, reply); pubErr != nil {
		b.logger.Error("publish reply failed", pubErr, watermill.LogFields{
			"topic":    topic,
			"reply_to": replyTo,
		})
	}
}

// Request sends a payload to the topic's responder and waits for the
// reply. It fails fast with ErrNoResponder when the topic has no
// responder, with a ResponderError when the responder signals failure,
// and with the context's error on timeout or cancellation.
func (b *Bus) Request(ctx context.Context, topic string, payload []byte) ([]byte, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	if _, ok := b.responders[topic]; !ok {
		b.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNoResponder, topic)
	}
	b.mu.Unlock()

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultRequestTimeout)
		defer cancel()
	}

	correlationID := uuid.NewString()
	replyTopic := topic + ".reply." + correlationID

	// The reply subscription must exist before the request is published:
	// the bus never replays to late subscribers.
	replyCtx, cancelReply := context.WithCancel(ctx)
	defer cancelReply()
	replies, err := b.pubsub.Subscribe(replyCtx, replyTopic)
	if err != nil {
		return nil, fmt.Errorf("subscribe reply topic: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(metaReplyTo, replyTopic)
	msg.Metadata.Set(metaCorrelationID, correlationID)
	msg.SetContext(ctx)

	if err := b.pubsub.Publish(topic, msg); err != nil {
		return nil, fmt.Errorf("publish request %s: %w", topic, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("request %s: %w", topic, ctx.Err())
		case reply, ok := <-replies:
			if !ok {
				return nil, fmt.Errorf("request %s: %w", topic, ErrClosed)
			}
			reply.Ack()
			if reply.Metadata.Get(metaCorrelationID) != correlationID {
				continue
			}
			if errMsg := reply.Metadata.Get(metaError); errMsg != "" {
				return nil, &ResponderError{Topic: topic, Message: errMsg}
			}
			return reply.Payload, nil
		}
	}
}
