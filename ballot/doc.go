// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ballot implements one-vote-per-scope casting and live tallies for
every ballot kind on the platform.

# Ballot Kinds

	issue_support       one "support" action per case ("up" is accepted as an alias)
	poll                the poll's live option list, closes at expires_at
	party_preference    the configured party catalogue, one national ballot
	district_election   the district's live candidate list
	referendum          "yes" or "no"

A ballot domain is identified by (kind, scope id) and must be registered
with RegisterDomain before votes are accepted.

# Exclusivity

Every vote is recorded under an exclusivity scope and the ledger accepts at
most one vote per (kind, exclusivity scope, fingerprint). For most kinds the
exclusivity scope is the domain's own scope id. District elections share the
single scope "national-election", so a voter who voted in one district is
rejected in every other district.

# Casting

	rec, err := engine.CastVote(ctx, ballot.CastRequest{
		Kind:    models.KindReferendum,
		ScopeID: models.ScopeNational,
		Origin:  clientIP,
		Choice:  "yes",
	})

The origin is anonymized with the process salt before anything else sees it.
Business outcomes are sentinel errors:

	ErrUnknownDomain, ErrUnknownKind   domain not registered or kind malformed
	ErrPollExpired                     poll closed; wins over ErrAlreadyVoted
	ErrInvalidChoice                   choice not in the current valid set
	ErrAlreadyVoted                    voter already has a vote in the scope

They are never retried. Infrastructure faults arrive as *StorageError and are
retried with bounded exponential backoff before being returned.

# Storage

Store is the ledger contract. TryCast inserts the vote record and increments
the chosen counter atomically, and is the single authority on acceptance; the
registry and the has-voted cache only pre-check. The store reads the clock
itself at the moment it decides, so a poll closing while a cast waits on a
lock or a retry rejects it. MemoryStore serves development and tests,
db.Ledger is the SQL implementation.

# Tallies

Tallies are read from the per-choice counters, which are written only inside
the cast unit. Audit recomputes the counts from a single snapshot of the
ledger and reports any divergence.
*/
package ballot
