// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db implements the SQL vote ledger.

# Connecting

Open selects the driver from the configured database type and verifies the
connection:

	conn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)

	postgres   github.com/lib/pq
	pgx        github.com/jackc/pgx/v5/stdlib
	sqlite     modernc.org/sqlite (single connection)

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same DDL runs on PostgreSQL and SQLite; all timestamps are stored as
unix milliseconds.

# Tables

  - ballot_domain: one row per (kind, scope_id), with the poll expiry
  - ballot_choice: valid choices per domain and their vote_count projection
  - vote_record: the ledger, UNIQUE (domain_kind, exclusivity_scope_id, fingerprint)

# Casting

Ledger.TryCast runs in one transaction:

 1. read the clock once the transaction holds a connection
 2. INSERT ... SELECT from ballot_domain, only while the poll is open,
    ON CONFLICT DO NOTHING on the exclusivity constraint
 3. if nothing was inserted, classify: unknown domain, expired, already voted
 4. increment the chosen, still active, ballot_choice row
 5. commit

A concurrent duplicate blocks on the unique index until the first
transaction finishes, then inserts nothing. There is no read-then-write
window.

Ledger.AuditSnapshot reads the counters and the vote records in one
read-only repeatable-read transaction.
*/
package db
