// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

// Package config loads Tweetwire configuration with Koanf v2, layering
// struct defaults, an optional YAML file, and environment variables
// (highest priority wins), then validates the result.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ConfigPathEnvVar names the environment variable pointing at a config file.
const ConfigPathEnvVar = "TWEETWIRE_CONFIG"

// DefaultConfigPaths are searched when ConfigPathEnvVar is not set.
var DefaultConfigPaths = []string{
	"config.yaml",
	"/etc/tweetwire/config.yaml",
}

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Log      LogConfig      `koanf:"log"`
	Database DatabaseConfig `koanf:"database"`
	Feed     FeedConfig     `koanf:"feed"`
	Bridge   BridgeConfig   `koanf:"bridge"`
	Recent   RecentConfig   `koanf:"recent"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	WebrootDir      string        `koanf:"webroot_dir"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RateLimit       int           `koanf:"rate_limit" validate:"min=0"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the database file; empty means in-memory.
	Path string `koanf:"path"`
}

// FeedConfig parameterizes the external stream connection. The wire
// protocol itself lives behind feed.Stream; this only describes how to
// reach and filter the feed.
type FeedConfig struct {
	Enabled           bool     `koanf:"enabled"`
	Endpoint          string   `koanf:"endpoint" validate:"required_with=Enabled,omitempty,url"`
	ConsumerKey       string   `koanf:"consumer_key"`
	ConsumerSecret    string   `koanf:"consumer_secret"`
	AccessToken       string   `koanf:"access_token"`
	AccessTokenSecret string   `koanf:"access_token_secret"`
	Keywords          []string `koanf:"keywords"`
	Language          string   `koanf:"language"`
}

// BridgeConfig holds the websocket bridge allow-lists. Addresses are bus
// topic names; a direction with an empty list relays nothing that way.
type BridgeConfig struct {
	OutboundAllowed []string `koanf:"outbound_allowed"`
	InboundAllowed  []string `koanf:"inbound_allowed"`
	SendBuffer      int      `koanf:"send_buffer" validate:"min=1"`
}

// RecentConfig holds recent-query settings.
type RecentConfig struct {
	DefaultLimit int `koanf:"default_limit" validate:"min=1"`
	MaxLimit     int `koanf:"max_limit" validate:"min=1"`
}

// defaultConfig returns the built-in defaults (layer 1).
func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			WebrootDir:      "webroot",
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       100,
			CORSOrigins:     []string{"*"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			Path: "tweetwire.db",
		},
		Feed: FeedConfig{
			Enabled:  true,
			Endpoint: "https://stream.twitter.com/1.1/statuses/filter.json",
			Keywords: []string{"#reactive"},
			Language: "en",
		},
		Bridge: BridgeConfig{
			OutboundAllowed: []string{"events.new"},
			InboundAllowed:  nil,
			SendBuffer:      256,
		},
		Recent: RecentConfig{
			DefaultLimit: 40,
			MaxLimit:     200,
		},
	}
}

// Validate checks the configuration for structural and semantic errors.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Feed.Enabled {
		if len(c.Feed.Keywords) == 0 {
			return fmt.Errorf("invalid configuration: feed.keywords must not be empty when the feed is enabled")
		}
		if c.Feed.Language == "" {
			return fmt.Errorf("invalid configuration: feed.language is required when the feed is enabled")
		}
	}

	if c.Recent.DefaultLimit > c.Recent.MaxLimit {
		return fmt.Errorf("invalid configuration: recent.default_limit exceeds recent.max_limit")
	}

	return nil
}
