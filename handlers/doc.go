// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the civic-ballot API.

# Handler Types

Each handler is a struct over the ballot engine and config:

  - BallotHandler: Ballot registration, choice retirement and audits
  - VotingHandler: Vote casting and per-voter status
  - ResultsHandler: Live tallies and platform statistics

Handlers are created via constructor functions that accept *ballot.Engine and Config:

	votingHandler := handlers.NewVotingHandler(engine, cfg)

# Ballots

Every ballot is addressed by kind and scope id:

	POST /ballots/{kind}/{scope}                         → RegisterDomain (returns admin_key)
	POST /ballots/{kind}/{scope}/choices/{choice}/retire → RetireChoice
	GET  /ballots/{kind}/{scope}/audit                   → Audit

Kinds are issue_support, poll, party_preference, district_election and
referendum. Admin operations require the X-Admin-Key header.

# Voting

Voters are identified by a salted fingerprint of their network origin.
No token or account is involved:

	POST /ballots/{kind}/{scope}/votes  → CastVote
	GET  /ballots/{kind}/{scope}/status → GetVoteStatus

Rejected votes carry an outcome field:

	already_voted   409
	poll_expired    410
	unknown_domain  404
	invalid_choice  400
	storage_failure 503 (with Retry-After)

# Results

	GET /ballots/{kind}/{scope}/tally → GetTally
	GET /stats                        → GetStats

Tallies are computed live and include a humanized total for display.
*/
package handlers
