// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

package bridge

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tweetwire/tweetwire/internal/bus"
	"github.com/tweetwire/tweetwire/internal/logging"
	"github.com/tweetwire/tweetwire/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // 64 KB
)

// clientIDCounter hands out unique ids for log correlation.
var clientIDCounter atomic.Uint64

// Client is the middleman between one websocket connection and the hub.
// It owns that connection's bus subscriptions; they live exactly as long
// as the connection does.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan Envelope

	mu     sync.Mutex
	subs   map[string]*bus.Subscription
	closed bool
}

// newClient creates a client for an upgraded connection.
func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan Envelope, hub.sendBuffer),
		subs: make(map[string]*bus.Subscription),
	}
}

// subscribe registers this connection on an outbound-permitted topic.
// Duplicate subscribes are no-ops. The allow-list was already checked by
// the hub.
func (c *Client) subscribe(address string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if _, ok := c.subs[address]; ok {
		return
	}

	sub, err := c.hub.bus.Subscribe(address, func(payload []byte) {
		c.enqueue(messageFrame(address, payload))
	})
	if err != nil {
		logging.Error().Err(err).Uint64("client_id", c.id).Msg("bridge subscribe failed")
		return
	}
	c.subs[address] = sub
	logging.Debug().Uint64("client_id", c.id).Str("address", address).Msg("bridge client subscribed")
}

// unsubscribe removes this connection's registration on a topic.
func (c *Client) unsubscribe(address string) {
	c.mu.Lock()
	sub, ok := c.subs[address]
	if ok {
		delete(c.subs, address)
	}
	c.mu.Unlock()

	if ok {
		sub.Unsubscribe()
		logging.Debug().Uint64("client_id", c.id).Str("address", address).Msg("bridge client unsubscribed")
	}
}

// enqueue offers a frame to the client's send buffer. When the buffer is
// full the frame is dropped: a slow client never backpressures the bus.
// A frame arriving after teardown is dropped the same way; late
// request/reply completions race disconnects, so this path must stay
// safe after the send channel is gone.
func (c *Client) enqueue(env Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		metrics.BridgeMessagesDropped.Inc()
		return
	}
	select {
	case c.send <- env:
		metrics.BridgeMessagesSent.Inc()
	default:
		metrics.BridgeMessagesDropped.Inc()
		logging.Warn().Uint64("client_id", c.id).Msg("bridge client send buffer full, dropping message")
	}
}

// teardown releases every bus subscription and closes the send channel.
// Called once, from the hub's run loop. The send channel is closed under
// the same lock that guards enqueue, so no late frame can hit a closed
// channel. After teardown returns, no bus delivery can reach this
// connection again.
func (c *Client) teardown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	subs := c.subs
	c.subs = nil
	close(c.send)
	c.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// detach hands the client to the hub's unregister path. When the hub
// has already stopped it tore every client down itself, so giving up is
// correct; without the select, pumps outliving the hub would block on
// the undrained channel forever.
func (c *Client) detach() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
}

// readPump pumps frames from the websocket connection to the hub.
// It exits on any read error, handing the client to unregister.
func (c *Client) readPump() {
	defer c.detach()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Debug().Err(err).Uint64("client_id", c.id).Msg("unexpected websocket close")
			}
			return
		}
		c.hub.handleInbound(c, env)
	}
}

// writePump pumps frames from the send buffer to the websocket connection
// and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				// Hub tore the client down.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// start begins reading and writing for the client.
func (c *Client) start() {
	go c.writePump()
	go c.readPump()
}
