// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

package api

import (
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tweetwire/tweetwire/internal/logging"
	"github.com/tweetwire/tweetwire/internal/tweet"
)

// handleRecent answers GET /api/v1/tweets/recent. The optional limit
// query parameter bounds the result; invalid values fall back to the
// default rather than erroring.
func (rt *Router) handleRecent(w http.ResponseWriter, r *http.Request) {
	var req tweet.RecentRequest
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			req.Limit = n
		}
	}

	payload, err := json.Marshal(tweet.RecentRequest{Limit: req.Bound(rt.recentLimit, rt.maxLimit)})
	if err != nil {
		writeError(w, http.StatusInternalServerError)
		return
	}

	reply, err := rt.bus.Request(r.Context(), tweet.TopicRecent, payload)
	if err != nil {
		logging.Error().Err(err).Msg("recent tweets request failed")
		writeError(w, http.StatusInternalServerError)
		return
	}

	// The responder already answers with a JSON array; relay it as-is.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(reply); err != nil {
		logging.Debug().Err(err).Msg("failed to write recent tweets response")
	}
}

// healthResponse is the /api/v1/health body.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// handleHealth reports process liveness and database readiness. An
// unreachable database degrades the answer to 503 without touching the
// live distribution path.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	status := http.StatusOK

	if rt.pinger != nil {
		if err := rt.pinger.Ping(r.Context()); err != nil {
			logging.Warn().Err(err).Msg("health check database ping failed")
			resp = healthResponse{Status: "degraded", Database: "down"}
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "up"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Debug().Err(err).Msg("failed to write health response")
	}
}

// errorBody is deliberately generic: internal failure details never
// reach the client.
var errorBody = []byte(`{"error":"internal server error"}`)

func writeError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(errorBody)
}
