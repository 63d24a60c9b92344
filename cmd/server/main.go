// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

// Package main is the entry point for the Tweetwire server.
//
// Tweetwire ingests a filtered tweet stream, distributes each tweet over
// an in-process event bus, persists it in DuckDB, and serves it to
// browsers over both a websocket bridge and a REST endpoint.
//
// # Startup order
//
//  1. Configuration: Koanf v2 layered sources (defaults, config file,
//     TWEETWIRE_* environment variables)
//  2. Logging: zerolog, JSON or console format
//  3. Store: open DuckDB and bootstrap the schema; any bootstrap failure
//     other than the table already existing aborts startup
//  4. Bus: in-process pub/sub carrying events.new and events.recent
//  5. Supervisor tree: feed adapter, bridge hub, store consumer, HTTP
//     server, each restarted independently on failure
//
// # Signal handling
//
// SIGINT and SIGTERM cancel the root context; the supervisor tree then
// shuts every service down within the configured timeout.
package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/tweetwire/tweetwire/internal/api"
	"github.com/tweetwire/tweetwire/internal/bridge"
	"github.com/tweetwire/tweetwire/internal/bus"
	"github.com/tweetwire/tweetwire/internal/config"
	"github.com/tweetwire/tweetwire/internal/feed"
	"github.com/tweetwire/tweetwire/internal/logging"
	"github.com/tweetwire/tweetwire/internal/store"
	"github.com/tweetwire/tweetwire/internal/supervisor"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Init(logging.Config{Level: "info", Format: "console"})
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logging.Info().Str("version", version).Msg("tweetwire starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && ctx.Err() == nil {
		logging.Fatal().Err(err).Msg("tweetwire failed")
	}
	logging.Info().Msg("tweetwire stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	// The store must be usable before anything begins serving; a failed
	// schema bootstrap is fatal here, not a degraded mode.
	st, err := store.Open(ctx, cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("failed to close store")
		}
	}()

	b := bus.New(bus.DefaultConfig())
	defer func() {
		if cerr := b.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("failed to close bus")
		}
	}()

	hub := bridge.NewHub(b, bridge.Config{
		OutboundAllowed: cfg.Bridge.OutboundAllowed,
		InboundAllowed:  cfg.Bridge.InboundAllowed,
		SendBuffer:      cfg.Bridge.SendBuffer,
	})

	consumer := store.NewConsumer(st, b, store.ConsumerConfig{
		DefaultLimit: cfg.Recent.DefaultLimit,
		MaxLimit:     cfg.Recent.MaxLimit,
	})

	router := api.NewRouter(b, hub, st, api.Config{
		WebrootDir:  cfg.Server.WebrootDir,
		RateLimit:   cfg.Server.RateLimit,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, cfg.Recent.DefaultLimit, cfg.Recent.MaxLimit)

	treeConfig := supervisor.DefaultTreeConfig()
	treeConfig.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeConfig)

	tree.AddMessagingService(hub)
	tree.AddMessagingService(consumer)
	tree.AddAPIService(api.NewServerService(cfg.Server.Port, router.Handler(), cfg.Server.ShutdownTimeout))

	if cfg.Feed.Enabled {
		tree.AddIngestService(newFeedService(cfg.Feed, b))
	} else {
		logging.Warn().Msg("feed ingestion disabled, serving persisted data only")
	}

	err = tree.Serve(ctx)
	if unstopped, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service did not stop within timeout")
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// feedService opens the stream lazily inside Serve, so a feed outage is
// a supervised restart with backoff rather than a startup failure.
type feedService struct {
	cfg config.FeedConfig
	bus *bus.Bus
}

func newFeedService(cfg config.FeedConfig, b *bus.Bus) *feedService {
	return &feedService{cfg: cfg, bus: b}
}

func (s *feedService) Serve(ctx context.Context) error {
	stream, err := feed.Open(ctx, feed.Options{
		Endpoint: s.cfg.Endpoint,
		Credentials: feed.Credentials{
			ConsumerKey:       s.cfg.ConsumerKey,
			ConsumerSecret:    s.cfg.ConsumerSecret,
			AccessToken:       s.cfg.AccessToken,
			AccessTokenSecret: s.cfg.AccessTokenSecret,
		},
		Keywords: s.cfg.Keywords,
		Language: s.cfg.Language,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil {
			logging.Debug().Err(cerr).Msg("failed to close stream")
		}
	}()

	return feed.NewAdapter(stream, s.bus).Serve(ctx)
}

func (s *feedService) String() string {
	return "feed-service"
}
