// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

package tweet

import (
	"errors"
	"strings"
	"testing"
)

func TestPermalinkURL(t *testing.T) {
	tests := []struct {
		handle string
		id     uint64
		want   string
	}{
		{"alice", 42, "https://twitter.com/alice/status/42"},
		{"bob_dev", 1136161234567890944, "https://twitter.com/bob_dev/status/1136161234567890944"},
	}
	for _, tt := range tests {
		if got := PermalinkURL(tt.handle, tt.id); got != tt.want {
			t.Errorf("PermalinkURL(%q, %d) = %q, want %q", tt.handle, tt.id, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := Tweet{
		ID:     42,
		Body:   "hello",
		URL:    PermalinkURL("alice", 42),
		Author: Author{Handle: "alice"},
	}

	tests := []struct {
		name      string
		mutate    func(*Tweet)
		wantField string
	}{
		{"valid", func(*Tweet) {}, ""},
		{"zero id", func(tw *Tweet) { tw.ID = 0 }, "id"},
		{"empty body", func(tw *Tweet) { tw.Body = "" }, "body"},
		{"missing handle", func(tw *Tweet) { tw.Author.Handle = "" }, "user.handle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := valid
			tt.mutate(&tw)

			err := tw.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestSerializeWireFormat(t *testing.T) {
	data, err := Serialize(&Tweet{
		ID:     42,
		Body:   "hello",
		URL:    PermalinkURL("alice", 42),
		Author: Author{Handle: "alice", AvatarURL: "a.png"},
	})
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	// Field names are the wire contract with bridge clients.
	for _, key := range []string{`"id":42`, `"body":"hello"`, `"user":`, `"handle":"alice"`, `"img":"a.png"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("payload missing %s: %s", key, data)
		}
	}
}

func TestSerializeOmitsEmptyAvatar(t *testing.T) {
	data, err := Serialize(&Tweet{
		ID:     1,
		Body:   "x",
		URL:    PermalinkURL("alice", 1),
		Author: Author{Handle: "alice"},
	})
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if strings.Contains(string(data), `"img"`) {
		t.Errorf("empty avatar serialized: %s", data)
	}
}

func TestSerializeRejectsInvalid(t *testing.T) {
	if _, err := Serialize(&Tweet{ID: 0, Body: "x", Author: Author{Handle: "a"}}); err == nil {
		t.Error("serialized tweet with zero id")
	}
}

func TestRoundTrip(t *testing.T) {
	in := &Tweet{
		ID:     1136161234567890944,
		Body:   "large ids survive the trip",
		URL:    PermalinkURL("alice", 1136161234567890944),
		Author: Author{Handle: "alice", AvatarURL: "a.png"},
	}
	data, err := Serialize(in)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	out, err := Deserialize(data)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if *out != *in {
		t.Errorf("round trip changed tweet: %+v != %+v", out, in)
	}
}

func TestDeserializeGarbage(t *testing.T) {
	if _, err := Deserialize([]byte("not json")); err == nil {
		t.Error("deserialized garbage without error")
	}
}

func TestRecentRequestBound(t *testing.T) {
	tests := []struct {
		name         string
		limit        int
		defaultLimit int
		maxLimit     int
		want         int
	}{
		{"absent uses default", 0, 10, 100, 10},
		{"negative uses default", -5, 10, 100, 10},
		{"explicit kept", 25, 10, 100, 25},
		{"capped at max", 500, 10, 100, 100},
		{"zero max means uncapped", 500, 10, 0, 500},
		{"zero default falls back", 0, 0, 0, DefaultRecentLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := (RecentRequest{Limit: tt.limit}).Bound(tt.defaultLimit, tt.maxLimit)
			if got != tt.want {
				t.Errorf("Bound(%d, %d) with limit %d = %d, want %d",
					tt.defaultLimit, tt.maxLimit, tt.limit, got, tt.want)
			}
		})
	}
}
