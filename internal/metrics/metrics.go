// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

// Package metrics provides Prometheus metrics for the pipeline: feed
// ingestion, bus traffic, bridge connections, persistence, and the HTTP
// surface. Metrics are exposed at /metrics in Prometheus text format.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Feed metrics
	FeedStatusesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tweetwire_feed_statuses_received_total",
		Help: "Raw statuses received from the external stream",
	})
	FeedStatusesFiltered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tweetwire_feed_statuses_filtered_total",
		Help: "Raw statuses discarded by the content filter",
	}, []string{"reason"})
	FeedEventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tweetwire_feed_events_published_total",
		Help: "Canonical events published on the bus",
	})

	// Bridge metrics
	BridgeClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tweetwire_bridge_clients",
		Help: "Currently connected bridge clients",
	})
	BridgeMessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tweetwire_bridge_messages_sent_total",
		Help: "Messages forwarded to bridge clients",
	})
	BridgeMessagesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tweetwire_bridge_messages_dropped_total",
		Help: "Messages dropped because a client send buffer was full",
	})
	BridgeDenied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tweetwire_bridge_denied_total",
		Help: "Client frames denied by the allow-list",
	}, []string{"direction"})

	// Store metrics
	StoreWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tweetwire_store_writes_total",
		Help: "Tweet upserts committed",
	})
	StoreWriteErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tweetwire_store_write_errors_total",
		Help: "Tweet upserts that failed",
	})
	StoreQueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tweetwire_store_query_duration_seconds",
		Help:    "Recent-tweets query latency",
		Buckets: prometheus.DefBuckets,
	})

	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tweetwire_http_request_duration_seconds",
		Help:    "HTTP request latency by path and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "status"})
)

// ObserveHTTPRequest records one HTTP request.
func ObserveHTTPRequest(path string, status int, elapsed time.Duration) {
	HTTPRequestDuration.WithLabelValues(path, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
