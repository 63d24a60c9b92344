// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tweetwire/tweetwire/internal/logging"
)

// ServerService runs the HTTP server under a supervisor.
type ServerService struct {
	srv             *http.Server
	shutdownTimeout time.Duration
}

// NewServerService wraps handler in an HTTP server listening on port.
func NewServerService(port int, handler http.Handler, shutdownTimeout time.Duration) *ServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &ServerService{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		shutdownTimeout: shutdownTimeout,
	}
}

// Serve implements suture.Service: it runs the listener until the
// context is canceled, then drains connections within the shutdown
// timeout.
func (s *ServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.srv.Addr).Msg("http server listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("http server shutdown incomplete, closing")
			_ = s.srv.Close()
		}
		return ctx.Err()

	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	}
}

// String implements fmt.Stringer for supervisor logging.
func (s *ServerService) String() string {
	return "http-server"
}
