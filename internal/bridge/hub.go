// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

package bridge

import (
	"context"
	"sync"

	"github.com/tweetwire/tweetwire/internal/bus"
	"github.com/tweetwire/tweetwire/internal/logging"
	"github.com/tweetwire/tweetwire/internal/metrics"
)

// Config holds bridge configuration.
type Config struct {
	// OutboundAllowed lists the bus topics clients may subscribe to.
	OutboundAllowed []string

	// InboundAllowed lists the bus topics clients may publish or send
	// to. Empty means clients are receive-only.
	InboundAllowed []string

	// SendBuffer is the per-client outbound buffer. When it is full,
	// further messages for that client are dropped.
	// Default: 256
	SendBuffer int
}

// Hub maintains the set of connected bridge clients and owns their
// lifecycle. All client registration and teardown flows through the hub's
// run loop, so connection state has a single writer.
type Hub struct {
	bus      *bus.Bus
	outbound AllowList
	inbound  AllowList

	sendBuffer int

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client

	// done is closed when Serve exits, releasing client pumps that would
	// otherwise block on the unregister channel. A hub is not reusable
	// after its Serve has returned.
	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a bridge hub relaying between the given bus and
// websocket clients.
func NewHub(b *bus.Bus, cfg Config) *Hub {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 256
	}
	return &Hub{
		bus:        b,
		outbound:   NewAllowList(cfg.OutboundAllowed),
		inbound:    NewAllowList(cfg.InboundAllowed),
		sendBuffer: cfg.SendBuffer,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Serve implements suture.Service: it processes client lifecycle events
// until the context is canceled, then tears down every remaining client.
func (h *Hub) Serve(ctx context.Context) error {
	defer h.stopOnce.Do(func() { close(h.done) })
	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return ctx.Err()

		case client := <-h.register:
			h.clients[client] = true
			metrics.BridgeClients.Set(float64(len(h.clients)))
			logging.Info().Uint64("client_id", client.id).Int("total_clients", len(h.clients)).Msg("bridge client connected")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.teardown()
			}
			metrics.BridgeClients.Set(float64(len(h.clients)))
			logging.Info().Uint64("client_id", client.id).Int("total_clients", len(h.clients)).Msg("bridge client disconnected")
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (h *Hub) String() string {
	return "bridge-hub"
}

// closeAllClients tears down every connected client during shutdown.
func (h *Hub) closeAllClients() {
	for client := range h.clients {
		delete(h.clients, client)
		client.teardown()
	}
	metrics.BridgeClients.Set(0)
	logging.Info().Msg("closed all bridge clients during shutdown")
}

// handleInbound dispatches one client frame. Every path that touches an
// address checks the relevant allow-list first; a miss is answered with
// the generic denial and the connection stays open.
func (h *Hub) handleInbound(c *Client, env Envelope) {
	switch env.Type {
	case TypeSubscribe:
		if !h.outbound.Permits(env.Address) {
			h.deny(c, "outbound")
			return
		}
		c.subscribe(env.Address)

	case TypeUnsubscribe:
		// Unsubscribing from a non-permitted address gets the same
		// denial as subscribing to it, so the two cannot be told apart.
		if !h.outbound.Permits(env.Address) {
			h.deny(c, "outbound")
			return
		}
		c.unsubscribe(env.Address)

	case TypePublish:
		if !h.inbound.Permits(env.Address) {
			h.deny(c, "inbound")
			return
		}
		if err := h.bus.Publish(env.Address, env.Body); err != nil {
			logging.Error().Err(err).Uint64("client_id", c.id).Msg("bridge inbound publish failed")
		}

	case TypeSend:
		if !h.inbound.Permits(env.Address) {
			h.deny(c, "inbound")
			return
		}
		// Point-to-point: route through request/reply and hand the
		// reply back on the same address. Runs off the read pump so a
		// slow responder cannot stall the connection.
		go h.sendRequest(c, env)

	default:
		h.deny(c, "inbound")
	}
}

// sendRequest performs one client-initiated request/reply exchange.
func (h *Hub) sendRequest(c *Client, env Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), bus.DefaultRequestTimeout)
	defer cancel()

	reply, err := h.bus.Request(ctx, env.Address, env.Body)
	if err != nil {
		logging.Warn().Err(err).Uint64("client_id", c.id).Msg("bridge send failed")
		c.enqueue(denial())
		return
	}
	c.enqueue(messageFrame(env.Address, reply))
}

// deny answers a disallowed frame with the generic rejection.
func (h *Hub) deny(c *Client, direction string) {
	metrics.BridgeDenied.WithLabelValues(direction).Inc()
	logging.Warn().Uint64("client_id", c.id).Str("direction", direction).Msg("bridge frame denied")
	c.enqueue(denial())
}
