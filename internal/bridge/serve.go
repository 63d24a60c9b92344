// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

package bridge

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/tweetwire/tweetwire/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The bridge carries no credentials and reveals nothing that is not
	// allow-listed, so cross-origin pages may connect.
	CheckOrigin: func(*http.Request) bool { return true },
}

// ServeWS upgrades an HTTP request to a websocket connection and attaches
// it to the hub.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Str("remote_addr", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	client := newClient(hub, conn)
	select {
	case hub.register <- client:
		client.start()
	case <-hub.done:
		// Hub already stopped; refuse the connection.
		_ = conn.Close()
	}
}
