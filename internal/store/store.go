// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // DuckDB driver
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tweetwire/tweetwire/internal/logging"
	"github.com/tweetwire/tweetwire/internal/metrics"
	"github.com/tweetwire/tweetwire/internal/tweet"
)

// createTableStmt is executed verbatim at bootstrap. Deliberately not
// CREATE TABLE IF NOT EXISTS: the "already exists" error is how an
// existing installation is recognized, and any other failure must abort
// startup.
const createTableStmt = `CREATE TABLE tweets (
	id     UBIGINT PRIMARY KEY,
	body   VARCHAR NOT NULL,
	url    VARCHAR NOT NULL,
	handle VARCHAR NOT NULL,
	img    VARCHAR
)`

const upsertStmt = `INSERT INTO tweets (id, body, url, handle, img)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	body   = excluded.body,
	url    = excluded.url,
	handle = excluded.handle,
	img    = excluded.img`

const recentStmt = `SELECT id, body, url, handle, img
FROM tweets
ORDER BY id DESC
LIMIT ?`

// ErrSchemaBootstrap wraps any schema bootstrap failure other than the
// table already existing. Callers treat it as fatal before serving.
var ErrSchemaBootstrap = errors.New("store: schema bootstrap failed")

// Store wraps the embedded DuckDB database holding persisted tweets.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the database at path and bootstraps the
// schema. An empty path opens an in-memory database. Any bootstrap
// failure other than the table already existing is returned, so the
// caller can abort before serving traffic.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = ":memory:"
	} else {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	// Disable auto-install/auto-load to prevent hangs in restricted
	// network environments.
	conn, err := sql.Open("duckdb", path+"?autoinstall_known_extensions=false&autoload_known_extensions=false")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// DuckDB is embedded; a single writer connection avoids write-write
	// conflicts between the consumer and bootstrap.
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn}
	if err := s.bootstrap(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

// bootstrap creates the tweets table. "Already exists" means a prior
// run created it and is success.
func (s *Store) bootstrap(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, createTableStmt); err != nil {
		if strings.Contains(err.Error(), "already exists") {
			logging.Debug().Msg("tweets table already exists, skipping bootstrap")
			return nil
		}
		return fmt.Errorf("%w: %v", ErrSchemaBootstrap, err)
	}
	logging.Info().Msg("tweets table created")
	return nil
}

// Upsert persists one tweet keyed by its id. Replaying the same tweet
// overwrites the row with identical values, so the write path tolerates
// redelivery.
func (s *Store) Upsert(ctx context.Context, t *tweet.Tweet) error {
	if err := t.Validate(); err != nil {
		return err
	}

	var img any
	if t.Author.AvatarURL != "" {
		img = t.Author.AvatarURL
	}

	if _, err := s.conn.ExecContext(ctx, upsertStmt, t.ID, t.Body, t.URL, t.Author.Handle, img); err != nil {
		metrics.StoreWriteErrors.Inc()
		return fmt.Errorf("failed to upsert tweet %d: %w", t.ID, err)
	}
	metrics.StoreWrites.Inc()
	return nil
}

// Recent returns up to limit persisted tweets, most recent first.
// Recency is descending id: ids from the feed are snowflake-style and
// monotonically increasing, so id order is arrival order without
// needing a timestamp column.
func (s *Store) Recent(ctx context.Context, limit int) ([]*tweet.Tweet, error) {
	if limit <= 0 {
		limit = tweet.DefaultRecentLimit
	}

	timer := prometheus.NewTimer(metrics.StoreQueryDuration)
	defer timer.ObserveDuration()

	rows, err := s.conn.QueryContext(ctx, recentStmt, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent tweets: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("failed to close rows")
		}
	}()

	tweets := make([]*tweet.Tweet, 0, limit)
	for rows.Next() {
		var (
			t   tweet.Tweet
			img sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Body, &t.URL, &t.Author.Handle, &img); err != nil {
			return nil, fmt.Errorf("failed to scan tweet row: %w", err)
		}
		if img.Valid {
			t.Author.AvatarURL = img.String
		}
		tweets = append(tweets, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tweet rows: %w", err)
	}
	return tweets, nil
}

// Count returns the number of persisted tweets.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.conn.QueryRowContext(ctx, `SELECT count(*) FROM tweets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tweets: %w", err)
	}
	return n, nil
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.conn.PingContext(ctx)
}

// Close releases the database.
func (s *Store) Close() error {
	return s.conn.Close()
}
