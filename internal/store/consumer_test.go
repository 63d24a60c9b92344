// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

package store

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tweetwire/tweetwire/internal/bus"
	"github.com/tweetwire/tweetwire/internal/tweet"
)

// startConsumer runs a consumer over the given store and bus until the
// test ends.
func startConsumer(t *testing.T, s *Store, b *bus.Bus, cfg ConsumerConfig) {
	t.Helper()

	c := NewConsumer(s, b, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Serve registers its subscription and responder before blocking;
	// poll until the responder answers so tests cannot race startup.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		reqCtx, reqCancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		_, err := b.Request(reqCtx, tweet.TopicRecent, nil)
		reqCancel()
		if err == nil {
			return
		}
	}
	t.Fatal("consumer did not become ready")
}

// waitForCount polls until the store holds want rows.
func waitForCount(t *testing.T, s *Store, want int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		n, err := s.Count(context.Background())
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if n == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("store never reached %d rows", want)
}

func TestConsumerPersistsPublishedEvents(t *testing.T) {
	s := newTestStore(t)
	b := bus.New(bus.DefaultConfig())
	defer func() { _ = b.Close() }()
	startConsumer(t, s, b, ConsumerConfig{})

	payload, err := tweet.Serialize(testTweet(42, "hello"))
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if err := b.Publish(tweet.TopicNew, payload); err != nil {
		t.Fatalf("publish: %v", err)
	}

	waitForCount(t, s, 1)

	got, err := s.Recent(context.Background(), 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if got[0].ID != 42 || got[0].Body != "hello" {
		t.Errorf("persisted tweet = %+v", got[0])
	}
}

func TestConsumerRedeliveryConverges(t *testing.T) {
	s := newTestStore(t)
	b := bus.New(bus.DefaultConfig())
	defer func() { _ = b.Close() }()
	startConsumer(t, s, b, ConsumerConfig{})

	payload, err := tweet.Serialize(testTweet(42, "hello"))
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := b.Publish(tweet.TopicNew, payload); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}

	waitForCount(t, s, 1)
	// Give the remaining deliveries time to land; the row count must
	// stay at one.
	time.Sleep(200 * time.Millisecond)
	waitForCount(t, s, 1)
}

func TestConsumerDiscardsUndecodable(t *testing.T) {
	s := newTestStore(t)
	b := bus.New(bus.DefaultConfig())
	defer func() { _ = b.Close() }()
	startConsumer(t, s, b, ConsumerConfig{})

	if err := b.Publish(tweet.TopicNew, []byte("not json")); err != nil {
		t.Fatalf("publish garbage: %v", err)
	}
	payload, err := tweet.Serialize(testTweet(1, "valid"))
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if err := b.Publish(tweet.TopicNew, payload); err != nil {
		t.Fatalf("publish valid: %v", err)
	}

	// The garbage is dropped; the valid event still lands.
	waitForCount(t, s, 1)
}

func TestConsumerAnswersRecent(t *testing.T) {
	s := newTestStore(t)
	b := bus.New(bus.DefaultConfig())
	defer func() { _ = b.Close() }()

	for _, id := range []uint64{5, 3, 9, 1} {
		mustUpsert(t, s, testTweet(id, "x"))
	}
	startConsumer(t, s, b, ConsumerConfig{})

	req, err := json.Marshal(tweet.RecentRequest{Limit: 3})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	reply, err := b.Request(context.Background(), tweet.TopicRecent, req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	var got []*tweet.Tweet
	if err := json.Unmarshal(reply, &got); err != nil {
		t.Fatalf("unmarshal reply: %v", err)
	}
	want := []uint64{9, 5, 3}
	if len(got) != len(want) {
		t.Fatalf("reply holds %d tweets, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].ID != w {
			t.Errorf("position %d: id = %d, want %d", i, got[i].ID, w)
		}
	}
}

func TestConsumerRecentLimits(t *testing.T) {
	s := newTestStore(t)
	b := bus.New(bus.DefaultConfig())
	defer func() { _ = b.Close() }()

	for id := uint64(1); id <= 20; id++ {
		mustUpsert(t, s, testTweet(id, "x"))
	}
	startConsumer(t, s, b, ConsumerConfig{DefaultLimit: 5, MaxLimit: 10})

	t.Run("empty payload uses default", func(t *testing.T) {
		reply, err := b.Request(context.Background(), tweet.TopicRecent, nil)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		var got []*tweet.Tweet
		if err := json.Unmarshal(reply, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(got) != 5 {
			t.Errorf("reply holds %d tweets, want default 5", len(got))
		}
	})

	t.Run("oversized limit is capped", func(t *testing.T) {
		reply, err := b.Request(context.Background(), tweet.TopicRecent, []byte(`{"limit":1000}`))
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		var got []*tweet.Tweet
		if err := json.Unmarshal(reply, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(got) != 10 {
			t.Errorf("reply holds %d tweets, want cap 10", len(got))
		}
	})

	t.Run("bad payload propagates error", func(t *testing.T) {
		if _, err := b.Request(context.Background(), tweet.TopicRecent, []byte("{broken")); err == nil {
			t.Error("expected error for undecodable request")
		}
	})
}

func TestConsumerEndToEnd(t *testing.T) {
	// Full path: a raw feed status normalized by the adapter rules,
	// published, persisted, and returned first by the recency query.
	s := newTestStore(t)
	b := bus.New(bus.DefaultConfig())
	defer func() { _ = b.Close() }()

	mustUpsert(t, s, testTweet(10, "older"))
	startConsumer(t, s, b, ConsumerConfig{})

	canonical := &tweet.Tweet{
		ID:     42,
		Body:   "hello",
		URL:    tweet.PermalinkURL("alice", 42),
		Author: tweet.Author{Handle: "alice", AvatarURL: "a.png"},
	}
	payload, err := tweet.Serialize(canonical)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if err := b.Publish(tweet.TopicNew, payload); err != nil {
		t.Fatalf("publish: %v", err)
	}
	waitForCount(t, s, 2)

	reply, err := b.Request(context.Background(), tweet.TopicRecent, nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var got []*tweet.Tweet
	if err := json.Unmarshal(reply, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("reply holds %d tweets, want 2", len(got))
	}
	if got[0].ID != 42 {
		t.Errorf("most recent id = %d, want 42", got[0].ID)
	}
	if got[0].URL != "https://twitter.com/alice/status/42" {
		t.Errorf("permalink = %q", got[0].URL)
	}
	if got[0].Author.Handle != "alice" || got[0].Author.AvatarURL != "a.png" {
		t.Errorf("author = %+v", got[0].Author)
	}
}

func TestConsumerSoleResponder(t *testing.T) {
	s := newTestStore(t)
	b := bus.New(bus.DefaultConfig())
	defer func() { _ = b.Close() }()
	startConsumer(t, s, b, ConsumerConfig{})

	// A second consumer cannot claim the recency topic.
	second := NewConsumer(s, b, ConsumerConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- second.Serve(ctx) }()

	select {
	case err := <-errCh:
		if err == nil {
			t.Error("second consumer started without error, want responder conflict")
		}
	case <-time.After(2 * time.Second):
		t.Error("second consumer did not fail")
	}
}
