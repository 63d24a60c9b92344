// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPStreamRecv(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("track"); got != "#reactive,#golang" {
			t.Errorf("track query = %q, want %q", got, "#reactive,#golang")
		}
		if got := r.URL.Query().Get("language"); got != "en" {
			t.Errorf("language query = %q, want %q", got, "en")
		}
		if got := r.Header.Get("X-Consumer-Key"); got != "ck" {
			t.Errorf("consumer key header = %q, want %q", got, "ck")
		}

		w.Header().Set("Content-Type", "application/json")
		// Keep-alive blank line and an undecodable line are both skipped.
		_, _ = w.Write([]byte(`{"id":1,"text":"first","handle":"alice"}` + "\n"))
		_, _ = w.Write([]byte("\n"))
		_, _ = w.Write([]byte("not json\n"))
		_, _ = w.Write([]byte(`{"id":2,"text":"second","handle":"bob","retweet":true}` + "\n"))
	}))
	defer server.Close()

	stream, err := Open(context.Background(), Options{
		Endpoint:    server.URL,
		Credentials: Credentials{ConsumerKey: "ck"},
		Keywords:    []string{"#reactive", "#golang"},
		Language:    "en",
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = stream.Close() }()

	first, err := stream.Recv(context.Background())
	if err != nil {
		t.Fatalf("recv first: %v", err)
	}
	if first.ID != 1 || first.Text != "first" || first.Handle != "alice" {
		t.Errorf("first status = %+v", first)
	}

	second, err := stream.Recv(context.Background())
	if err != nil {
		t.Fatalf("recv second: %v", err)
	}
	if second.ID != 2 || !second.Retweet {
		t.Errorf("second status = %+v", second)
	}

	// Server handler returned; the stream ends.
	if _, err := stream.Recv(context.Background()); !errors.Is(err, ErrStreamClosed) {
		t.Errorf("recv after end: err = %v, want ErrStreamClosed", err)
	}
}

func TestHTTPStreamOpenErrors(t *testing.T) {
	t.Run("no keywords", func(t *testing.T) {
		if _, err := Open(context.Background(), Options{Endpoint: "http://localhost:1"}); err == nil {
			t.Fatal("expected error for empty keyword set")
		}
	})

	t.Run("rejected connection", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		_, err := Open(context.Background(), Options{
			Endpoint: server.URL,
			Keywords: []string{"#x"},
		})
		if err == nil {
			t.Fatal("expected error for non-200 response")
		}
	})
}
