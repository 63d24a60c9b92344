// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

package store

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/tweetwire/tweetwire/internal/logging"
	"github.com/tweetwire/tweetwire/internal/tweet"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustUpsert(t *testing.T, s *Store, tw *tweet.Tweet) {
	t.Helper()
	if err := s.Upsert(context.Background(), tw); err != nil {
		t.Fatalf("upsert %d: %v", tw.ID, err)
	}
}

func testTweet(id uint64, body string) *tweet.Tweet {
	return &tweet.Tweet{
		ID:     id,
		Body:   body,
		URL:    tweet.PermalinkURL("alice", id),
		Author: tweet.Author{Handle: "alice", AvatarURL: "https://cdn.example/alice.png"},
	}
}

func TestBootstrapIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tweets.db")

	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	mustUpsert(t, s, testTweet(1, "survives reopen"))
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Second open hits the existing table; that is success, and the
	// data persists.
	s2, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s2.Close() }()

	got, err := s2.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 || got[0].Body != "survives reopen" {
		t.Errorf("recent after reopen = %+v", got)
	}
}

func TestUpsertIdempotent(t *testing.T) {
	s := newTestStore(t)

	mustUpsert(t, s, testTweet(42, "first write"))
	mustUpsert(t, s, testTweet(42, "second write"))

	n, err := s.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("row count = %d, want 1", n)
	}

	got, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if got[0].Body != "second write" {
		t.Errorf("body = %q, want latest write to win", got[0].Body)
	}
}

func TestUpsertRejectsInvalid(t *testing.T) {
	s := newTestStore(t)

	if err := s.Upsert(context.Background(), &tweet.Tweet{ID: 0, Body: "no id"}); err == nil {
		t.Error("expected validation error for zero id")
	}
	if err := s.Upsert(context.Background(), &tweet.Tweet{ID: 1, Author: tweet.Author{Handle: "a"}}); err == nil {
		t.Error("expected validation error for empty body")
	}
}

func TestRecentOrderAndLimit(t *testing.T) {
	s := newTestStore(t)

	// Insertion order is deliberately not id order.
	for _, id := range []uint64{5, 3, 9, 1} {
		mustUpsert(t, s, testTweet(id, "x"))
	}

	got, err := s.Recent(context.Background(), 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}

	want := []uint64{9, 5, 3}
	if len(got) != len(want) {
		t.Fatalf("returned %d tweets, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].ID != w {
			t.Errorf("position %d: id = %d, want %d", i, got[i].ID, w)
		}
	}
}

func TestRecentDefaultsLimit(t *testing.T) {
	s := newTestStore(t)

	for id := uint64(1); id <= uint64(tweet.DefaultRecentLimit)+10; id++ {
		mustUpsert(t, s, testTweet(id, "x"))
	}

	got, err := s.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != tweet.DefaultRecentLimit {
		t.Errorf("returned %d tweets, want default %d", len(got), tweet.DefaultRecentLimit)
	}
}

func TestRecentEmptyStore(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if got == nil {
		t.Error("recent returned nil slice, want empty (encodes as [] not null)")
	}
	if len(got) != 0 {
		t.Errorf("returned %d tweets, want 0", len(got))
	}
}

func TestRecentNullAvatar(t *testing.T) {
	s := newTestStore(t)

	tw := testTweet(7, "no avatar")
	tw.Author.AvatarURL = ""
	mustUpsert(t, s, tw)

	got, err := s.Recent(context.Background(), 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if got[0].Author.AvatarURL != "" {
		t.Errorf("avatar = %q, want empty", got[0].Author.AvatarURL)
	}
}

func TestOpenBadPath(t *testing.T) {
	// A directory path is not a usable database file.
	if _, err := Open(context.Background(), t.TempDir()); err == nil {
		t.Error("expected error opening a directory as a database")
	}
}
