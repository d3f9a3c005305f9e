// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the ballot engine.

# Request Types

Types for parsing incoming JSON:

  - RegisterDomainRequest: choices, expires_at (polls only)
  - CastVoteRequest: choice

# Response Types

Types for JSON responses:

  - RegisterDomainResponse: domain, admin_key
  - CastVoteResponse: vote_id, choice, cast_at, message
  - TallyResponse: tally plus a human-readable total
  - RetireChoiceResponse: choice, retired
  - ErrorResponse: error, message, outcome

# Domain Types

Internal data structures:

  - Domain: one registered ballot (kind + scope id) and its choices
  - Choice: a selectable option; retired choices stay tallied
  - VoteRecord: the immutable fact of an accepted vote
  - Tally / ChoiceTally: derived counts and percentages
  - VoteStatus: whether a fingerprint has voted, and how
  - AuditReport: counter projection checked against the ledger
  - PlatformStats: totals recomputed from the ledger

# Constants

Domain kinds:

	KindIssueSupport     = "issue_support"
	KindPoll             = "poll"
	KindPartyPreference  = "party_preference"
	KindDistrictElection = "district_election"
	KindReferendum       = "referendum"

The national ballots conventionally use ScopeNational ("national").

VoteRecord.Fingerprint is never serialized.
*/
package models
