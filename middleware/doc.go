// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs one line per request with request_id, method, path, status and
duration_ms. The client address is deliberately absent. The request id is
taken from X-Request-ID or generated, and echoed in the response.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, OPTIONS with headers Content-Type, X-Admin-Key and
X-Request-ID.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.OutcomeResponse(w, http.StatusConflict, "already_voted", "message")

Parse JSON request bodies (64 KiB limit, unknown fields rejected):

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client Origin

Get the original client address. Forwarding headers are only read when the
direct peer is one of the configured trusted proxies:

	origin := middleware.GetClientIP(r, cfg.TrustedProxies)

The result is only ever passed to the anonymizer, which turns it into the
voter fingerprint.
*/
package middleware
