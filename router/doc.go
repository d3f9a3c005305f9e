// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the civic-ballot API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(engine, cfg, ledger.Ping, reg)

The health check and metrics registry are optional.

# Endpoints

Health and metrics:

	GET /health  - Store reachability
	GET /metrics - Prometheus exposition

Ballot management (admin, requires X-Admin-Key except for registration):

	POST /ballots/{kind}/{scope}                         - Register ballot
	POST /ballots/{kind}/{scope}/choices/{choice}/retire - Retire a choice
	GET  /ballots/{kind}/{scope}/audit                   - Ledger audit

Voting (public, voter identified by origin):

	POST /ballots/{kind}/{scope}/votes  - Cast vote
	GET  /ballots/{kind}/{scope}/status - Has this origin voted

Results (public):

	GET /ballots/{kind}/{scope}/tally - Live tally
	GET /stats                        - Platform totals

# Handler Initialization

The router creates handler instances with dependency injection:

	ballotHandler := handlers.NewBallotHandler(engine, cfg)
	votingHandler := handlers.NewVotingHandler(engine, cfg)
	resultsHandler := handlers.NewResultsHandler(engine, cfg)

All handlers share one ballot engine.
*/
package router
