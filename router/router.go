// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danielhkuo/civic-ballot/ballot"
	"github.com/danielhkuo/civic-ballot/cliparse"
	"github.com/danielhkuo/civic-ballot/handlers"
	"github.com/danielhkuo/civic-ballot/metrics"
	"github.com/danielhkuo/civic-ballot/middleware"
)

// HealthCheck reports whether the ballot store is reachable
type HealthCheck func(ctx context.Context) error

const healthTimeout = 2 * time.Second

// NewRouter wires every endpoint. health and reg may be nil.
func NewRouter(engine *ballot.Engine, cfg cliparse.Config, health HealthCheck, reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	ballotHandler := handlers.NewBallotHandler(engine, cfg)
	votingHandler := handlers.NewVotingHandler(engine, cfg)
	resultsHandler := handlers.NewResultsHandler(engine, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if err := health(ctx); err != nil {
				slog.Warn("health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte("UNAVAILABLE"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if reg != nil {
		mux.Handle("GET /metrics", metrics.Handler(reg))
	}

	// Ballot management (admin operations)
	mux.HandleFunc("POST /ballots/{kind}/{scope}", middleware.WithLogging(ballotHandler.RegisterDomain))
	mux.HandleFunc("POST /ballots/{kind}/{scope}/choices/{choice}/retire", middleware.WithLogging(ballotHandler.RetireChoice))
	mux.HandleFunc("GET /ballots/{kind}/{scope}/audit", middleware.WithLogging(ballotHandler.Audit))

	// Voting operations (public)
	mux.HandleFunc("POST /ballots/{kind}/{scope}/votes", middleware.WithLogging(votingHandler.CastVote))
	mux.HandleFunc("GET /ballots/{kind}/{scope}/status", middleware.WithLogging(votingHandler.GetVoteStatus))

	// Results retrieval (public, live)
	mux.HandleFunc("GET /ballots/{kind}/{scope}/tally", middleware.WithLogging(resultsHandler.GetTally))
	mux.HandleFunc("GET /stats", middleware.WithLogging(resultsHandler.GetStats))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("civic-ballot API v1"))
	})

	return mux
}
