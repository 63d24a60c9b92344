// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

package tweet

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Serializer handles tweet encoding/decoding for bus messages.
type Serializer struct{}

// NewSerializer creates a new serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Marshal converts a tweet to JSON bytes. Invalid tweets are rejected at
// this boundary so nothing malformed ever reaches the bus.
func (s *Serializer) Marshal(t *Tweet) ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("validate tweet: %w", err)
	}

	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshal tweet: %w", err)
	}

	return data, nil
}

// Unmarshal converts JSON bytes to a tweet.
func (s *Serializer) Unmarshal(data []byte) (*Tweet, error) {
	var t Tweet
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("unmarshal tweet: %w", err)
	}

	return &t, nil
}

// Serialize is a convenience function that marshals a tweet to JSON.
func Serialize(t *Tweet) ([]byte, error) {
	return NewSerializer().Marshal(t)
}

// Deserialize is a convenience function that unmarshals JSON to a tweet.
func Deserialize(data []byte) (*Tweet, error) {
	return NewSerializer().Unmarshal(data)
}
