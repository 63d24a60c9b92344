// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

package bridge

import "github.com/goccy/go-json"

// Envelope frame types.
const (
	// Client to server.
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypePublish     = "publish"
	TypeSend        = "send"

	// Server to client.
	TypeMessage = "message"
	TypeErr     = "err"
)

// deniedBody is the only payload a rejected frame ever receives. It is
// deliberately identical for every kind of denial.
var deniedBody = json.RawMessage(`"access denied"`)

// Envelope is the bridge wire format in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Address string          `json:"address,omitempty"`
	Body    json.RawMessage `json:"body,omitempty"`
}

// denial builds the generic rejection frame. It carries no address and
// no reason, so the allow-list contents cannot be enumerated.
func denial() Envelope {
	return Envelope{Type: TypeErr, Body: deniedBody}
}

// messageFrame builds a server-to-client delivery frame.
func messageFrame(address string, body []byte) Envelope {
	return Envelope{Type: TypeMessage, Address: address, Body: body}
}

// AllowList is an immutable set of permitted bridge addresses.
type AllowList struct {
	set map[string]struct{}
}

// NewAllowList builds an allow-list from address names.
func NewAllowList(addresses []string) AllowList {
	set := make(map[string]struct{}, len(addresses))
	for _, a := range addresses {
		if a != "" {
			set[a] = struct{}{}
		}
	}
	return AllowList{set: set}
}

// Permits reports whether the address is listed.
func (l AllowList) Permits(address string) bool {
	_, ok := l.set[address]
	return ok
}

// Len returns the number of listed addresses.
func (l AllowList) Len() int {
	return len(l.set)
}
