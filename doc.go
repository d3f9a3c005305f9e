// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the civic-ballot API server.

civic-ballot records anonymous votes for civic ballots: issue support,
polls, party preference, district elections and referendums. Each network
origin gets one vote per ballot, and one vote across all districts of the
national election.

# Starting the Server

The server reads a local .env file when present, then environment
variables or CLI flags:

	DATABASE_URL=file:ballots.db go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..."

# Configuration

Required settings:

  - DATABASE_URL (-d): Connection string, not needed for the memory store
  - FINGERPRINT_SALT (--fingerprint-salt): Secret for voter fingerprints
  - ADMIN_KEY_SALT (--admin-salt): Secret for admin key HMAC

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): postgres, pgx, sqlite or memory (default: sqlite)
  - PARTIES (--parties): Party catalogue (default: green,blue,white,independent)
  - CAST_RETRIES (--cast-retries): Storage retries per cast (default: 3)
  - VOTED_CACHE_SIZE (--voted-cache): Has-voted cache entries, 0 disables (default: 10000)
  - TRUSTED_PROXIES (--trusted-proxies): Proxy IPs or CIDRs allowed to set X-Forwarded-For and X-Real-IP (default: none)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - ballot: Domain registry, vote engine, tallies and the in-memory store
  - db: SQL vote ledger for PostgreSQL and SQLite
  - handlers: HTTP request handlers (ballots, voting, results)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - metrics: Prometheus cast counters
  - models: Request/response types
  - auth: Voter fingerprints and admin keys
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
