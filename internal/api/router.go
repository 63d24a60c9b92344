// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tweetwire/tweetwire/internal/bridge"
	"github.com/tweetwire/tweetwire/internal/bus"
	"github.com/tweetwire/tweetwire/internal/metrics"
)

// Config holds HTTP surface settings.
type Config struct {
	// WebrootDir serves static assets at the root path when non-empty.
	WebrootDir string

	// RateLimit is requests per minute per client IP on /api/v1.
	// Zero disables rate limiting.
	RateLimit int

	// CORSOrigins lists allowed origins. Empty allows any origin; the
	// API serves public data and carries no credentials.
	CORSOrigins []string
}

// Pinger reports whether the backing database is reachable. Satisfied by
// *store.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router builds the HTTP handler tree.
type Router struct {
	bus    *bus.Bus
	hub    *bridge.Hub
	pinger Pinger
	cfg    Config

	recentLimit int
	maxLimit    int
}

// NewRouter creates the router over the given bus, bridge hub, and
// database pinger. pinger may be nil; health then reports process
// liveness only.
func NewRouter(b *bus.Bus, hub *bridge.Hub, pinger Pinger, cfg Config, defaultLimit, maxLimit int) *Router {
	return &Router{bus: b, hub: hub, pinger: pinger, cfg: cfg, recentLimit: defaultLimit, maxLimit: maxLimit}
}

// Handler assembles the chi route tree.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestMetrics)

	origins := rt.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		if rt.cfg.RateLimit > 0 {
			r.Use(httprate.LimitByIP(rt.cfg.RateLimit, time.Minute))
		}
		r.Get("/tweets/recent", rt.handleRecent)
		r.Get("/health", rt.handleHealth)
	})

	r.Get("/eventbus", func(w http.ResponseWriter, r *http.Request) {
		bridge.ServeWS(rt.hub, w, r)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if rt.cfg.WebrootDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(rt.cfg.WebrootDir)))
	}

	return r
}

// requestMetrics records latency and status per route.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		metrics.ObserveHTTPRequest(r.URL.Path, ww.Status(), time.Since(start))
	})
}
