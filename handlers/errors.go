// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"

	"github.com/danielhkuo/civic-ballot/ballot"
	"github.com/danielhkuo/civic-ballot/middleware"
	"github.com/danielhkuo/civic-ballot/models"
)

// writeBallotError maps an engine error to its HTTP response.
// The engine has already logged it.
func writeBallotError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ballot.ErrAlreadyVoted):
		middleware.OutcomeResponse(w, http.StatusConflict, ballot.OutcomeAlreadyVoted, "You have already voted in this ballot")
	case errors.Is(err, ballot.ErrPollExpired):
		middleware.OutcomeResponse(w, http.StatusGone, ballot.OutcomePollExpired, "This poll has closed")
	case errors.Is(err, ballot.ErrUnknownDomain), errors.Is(err, ballot.ErrUnknownKind):
		middleware.OutcomeResponse(w, http.StatusNotFound, ballot.OutcomeUnknownDomain, "Ballot not found")
	case errors.Is(err, ballot.ErrInvalidChoice):
		middleware.OutcomeResponse(w, http.StatusBadRequest, ballot.OutcomeInvalidChoice, "Choice is not valid for this ballot")
	case errors.Is(err, ballot.ErrDomainExists):
		middleware.ErrorResponse(w, http.StatusConflict, "Ballot already registered")
	case errors.Is(err, ballot.ErrInvalidDomain):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	default:
		w.Header().Set("Retry-After", "1")
		middleware.OutcomeResponse(w, http.StatusServiceUnavailable, ballot.OutcomeStorageFailure, "Ballot storage unavailable, try again")
	}
}

// ballotPath reads {kind} and {scope} from the request path
func ballotPath(w http.ResponseWriter, r *http.Request) (models.DomainKind, string, bool) {
	kind, err := ballot.ParseKind(r.PathValue("kind"))
	if err != nil {
		writeBallotError(w, err)
		return "", "", false
	}
	scopeID := r.PathValue("scope")
	if scopeID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "scope is required")
		return "", "", false
	}
	return kind, scopeID, true
}
