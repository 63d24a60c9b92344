// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

/*
Package bridge exposes a websocket endpoint that relays traffic between
remote clients and the internal event bus, under explicit per-direction
allow-lists. It is the security boundary of the system: nothing crosses
in either direction unless its address is listed.

Architecture (hub-and-spoke, one goroutine pair per client):

	          ┌─────────┐
	 bus ───► │   Hub   │ ◄── Register/Unregister
	          └────┬────┘
	               │
	    ┌──────────┼──────────┐
	    │          │          │
	 Client1    Client2    Client3
	 (read+write pumps, per-connection subscription set)

Wire protocol: clients send JSON envelopes

	{"type": "subscribe"|"unsubscribe"|"publish"|"send", "address": "...", "body": ...}

and receive

	{"type": "message", "address": "...", "body": ...}

for each matching bus event. A frame that names a non-permitted address
is answered with a generic {"type":"err","body":"access denied"} that
reveals nothing about which addresses exist.

Delivery to clients is lossy by design: a client whose send buffer is
full has messages dropped rather than stalling the bus publisher.
Disconnecting a client tears down all of its bus subscriptions before
the unregister completes, so no delivery attempt can reach a defunct
connection.
*/
package bridge
