// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

package feed

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tweetwire/tweetwire/internal/logging"
)

// maxLineSize bounds one NDJSON line from the feed (1 MB).
const maxLineSize = 1 << 20

// HTTPStream reads newline-delimited JSON statuses from one long-lived
// HTTP response. It implements Stream. The connection is opened exactly
// once; any failure afterwards is terminal.
type HTTPStream struct {
	resp    *http.Response
	scanner *bufio.Scanner

	mu     sync.Mutex
	closed bool
}

// Open establishes the stream connection. The keyword filter and language
// restriction travel as query parameters; credentials are forwarded as
// headers and interpreted by the endpoint, not by this client.
func Open(ctx context.Context, opts Options) (*HTTPStream, error) {
	if len(opts.Keywords) == 0 {
		return nil, fmt.Errorf("feed: at least one keyword filter is required")
	}

	endpoint, err := url.Parse(opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("feed: parse endpoint: %w", err)
	}

	query := endpoint.Query()
	query.Set("track", strings.Join(opts.Keywords, ","))
	if opts.Language != "" {
		query.Set("language", opts.Language)
	}
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("feed: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Consumer-Key", opts.Credentials.ConsumerKey)
	req.Header.Set("X-Consumer-Secret", opts.Credentials.ConsumerSecret)
	req.Header.Set("X-Access-Token", opts.Credentials.AccessToken)
	req.Header.Set("X-Access-Token-Secret", opts.Credentials.AccessTokenSecret)

	// No client timeout: the response body is an unbounded stream.
	resp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("feed: connect: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("feed: endpoint returned status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	logging.Info().
		Str("endpoint", endpoint.Host).
		Int("keywords", len(opts.Keywords)).
		Str("language", opts.Language).
		Msg("feed stream connected")

	return &HTTPStream{resp: resp, scanner: scanner}, nil
}

// Recv blocks until the next status line arrives. Blank keep-alive lines
// are skipped. Cancel the context or Close the stream to unblock a
// pending read.
func (s *HTTPStream) Recv(ctx context.Context) (*Status, error) {
	stop := context.AfterFunc(ctx, func() {
		// Closing the body is the only way to interrupt a blocked read.
		_ = s.Close()
	})
	defer stop()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !s.scanner.Scan() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := s.scanner.Err(); err != nil {
				return nil, fmt.Errorf("feed: read: %w", err)
			}
			return nil, ErrStreamClosed
		}

		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}

		var status Status
		if err := json.Unmarshal([]byte(line), &status); err != nil {
			logging.Warn().Err(err).Msg("feed: skipping undecodable line")
			continue
		}
		return &status, nil
	}
}

// Close terminates the connection. Safe to call more than once.
func (s *HTTPStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.resp.Body.Close()
}
