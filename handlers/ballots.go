// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/civic-ballot/auth"
	"github.com/danielhkuo/civic-ballot/ballot"
	"github.com/danielhkuo/civic-ballot/cliparse"
	"github.com/danielhkuo/civic-ballot/middleware"
	"github.com/danielhkuo/civic-ballot/models"
)

// BallotHandler serves ballot registration and admin operations
type BallotHandler struct {
	engine *ballot.Engine
	cfg    cliparse.Config
}

func NewBallotHandler(engine *ballot.Engine, cfg cliparse.Config) *BallotHandler {
	return &BallotHandler{engine: engine, cfg: cfg}
}

// RegisterDomain handles POST /ballots/{kind}/{scope}
func (h *BallotHandler) RegisterDomain(w http.ResponseWriter, r *http.Request) {
	kind, scopeID, ok := ballotPath(w, r)
	if !ok {
		return
	}

	var req models.RegisterDomainRequest
	if r.ContentLength != 0 {
		if err := middleware.ParseJSONBody(r, &req); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}

	d, err := h.engine.RegisterDomain(r.Context(), ballot.RegisterRequest{
		Kind:      kind,
		ScopeID:   scopeID,
		Choices:   req.Choices,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		writeBallotError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.RegisterDomainResponse{
		Domain:   d,
		AdminKey: auth.GenerateAdminKey(auth.DomainKey(string(d.Kind), d.ScopeID), h.cfg.AdminKeySalt),
	})
}

// RetireChoice handles POST /ballots/{kind}/{scope}/choices/{choice}/retire
func (h *BallotHandler) RetireChoice(w http.ResponseWriter, r *http.Request) {
	kind, scopeID, ok := ballotPath(w, r)
	if !ok {
		return
	}
	if !h.authorize(w, r, kind, scopeID) {
		return
	}

	choice, err := h.engine.RetireChoice(r.Context(), kind, scopeID, r.PathValue("choice"))
	if err != nil {
		writeBallotError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.RetireChoiceResponse{
		Choice:  choice,
		Retired: true,
	})
}

// Audit handles GET /ballots/{kind}/{scope}/audit
func (h *BallotHandler) Audit(w http.ResponseWriter, r *http.Request) {
	kind, scopeID, ok := ballotPath(w, r)
	if !ok {
		return
	}
	if !h.authorize(w, r, kind, scopeID) {
		return
	}

	report, err := h.engine.Audit(r.Context(), kind, scopeID)
	if err != nil {
		writeBallotError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, report)
}

func (h *BallotHandler) authorize(w http.ResponseWriter, r *http.Request, kind models.DomainKind, scopeID string) bool {
	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(auth.DomainKey(string(kind), scopeID), adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return false
	}
	return true
}
