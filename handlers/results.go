// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/civic-ballot/ballot"
	"github.com/danielhkuo/civic-ballot/cliparse"
	"github.com/danielhkuo/civic-ballot/middleware"
	"github.com/danielhkuo/civic-ballot/models"
)

type ResultsHandler struct {
	engine *ballot.Engine
	cfg    cliparse.Config
}

func NewResultsHandler(engine *ballot.Engine, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{engine: engine, cfg: cfg}
}

// GetTally handles GET /ballots/{kind}/{scope}/tally
// Tallies are live; percentages are unrounded.
func (h *ResultsHandler) GetTally(w http.ResponseWriter, r *http.Request) {
	kind, scopeID, ok := ballotPath(w, r)
	if !ok {
		return
	}

	tally, err := h.engine.GetTally(r.Context(), kind, scopeID)
	if err != nil {
		writeBallotError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.TallyResponse{
		Tally:        tally,
		TotalDisplay: humanize.Comma(tally.Total),
	})
}

// GetStats handles GET /stats
// Totals are recomputed from the vote ledger on every call.
func (h *ResultsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.PlatformStats(r.Context())
	if err != nil {
		writeBallotError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.StatsResponse{
		PlatformStats: stats,
		TotalDisplay:  humanize.Comma(stats.TotalVotes),
	})
}
