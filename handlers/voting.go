// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strings"

	"github.com/danielhkuo/civic-ballot/ballot"
	"github.com/danielhkuo/civic-ballot/cliparse"
	"github.com/danielhkuo/civic-ballot/middleware"
	"github.com/danielhkuo/civic-ballot/models"
)

type VotingHandler struct {
	engine *ballot.Engine
	cfg    cliparse.Config
}

func NewVotingHandler(engine *ballot.Engine, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{engine: engine, cfg: cfg}
}

// CastVote handles POST /ballots/{kind}/{scope}/votes
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	kind, scopeID, ok := ballotPath(w, r)
	if !ok {
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Choice) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "choice is required")
		return
	}

	rec, err := h.engine.CastVote(r.Context(), ballot.CastRequest{
		Kind:    kind,
		ScopeID: scopeID,
		Origin:  middleware.GetClientIP(r, h.cfg.TrustedProxies),
		Choice:  req.Choice,
	})
	if err != nil {
		writeBallotError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CastVoteResponse{
		VoteID:  rec.ID,
		Choice:  rec.Choice,
		CastAt:  rec.CastAt,
		Message: "Vote recorded",
	})
}

// GetVoteStatus handles GET /ballots/{kind}/{scope}/status
// Reports whether the calling origin has voted in the ballot's exclusivity scope.
func (h *VotingHandler) GetVoteStatus(w http.ResponseWriter, r *http.Request) {
	kind, scopeID, ok := ballotPath(w, r)
	if !ok {
		return
	}

	status, err := h.engine.GetVoteStatus(r.Context(), kind, scopeID, middleware.GetClientIP(r, h.cfg.TrustedProxies))
	if err != nil {
		writeBallotError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, status)
}
