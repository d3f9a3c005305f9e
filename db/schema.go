// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the ledger.
// Safe to call multiple times - uses IF NOT EXISTS.
// The DDL is shared by PostgreSQL and SQLite.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// DropSchema removes all ledger tables. Used by tests.
func DropSchema(db *sql.DB) error {
	_, err := db.Exec(`
		DROP TABLE IF EXISTS vote_record;
		DROP TABLE IF EXISTS ballot_choice;
		DROP TABLE IF EXISTS ballot_domain;
	`)
	if err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	return nil
}

// Timestamps are unix milliseconds so both dialects compare them the same way.
const schema = `
-- Ballot domains
CREATE TABLE IF NOT EXISTS ballot_domain (
    kind TEXT NOT NULL,
    scope_id TEXT NOT NULL,
    expires_at_ms BIGINT,
    created_at_ms BIGINT NOT NULL,
    PRIMARY KEY (kind, scope_id)
);

-- Valid choices and the per-choice counter projection
CREATE TABLE IF NOT EXISTS ballot_choice (
    kind TEXT NOT NULL,
    scope_id TEXT NOT NULL,
    choice TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    active INTEGER NOT NULL DEFAULT 1 CHECK (active IN (0, 1)),
    vote_count BIGINT NOT NULL DEFAULT 0 CHECK (vote_count >= 0),
    PRIMARY KEY (kind, scope_id, choice),
    FOREIGN KEY (kind, scope_id) REFERENCES ballot_domain(kind, scope_id) ON DELETE CASCADE
);

-- Vote ledger: one row per accepted vote, never updated or deleted
CREATE TABLE IF NOT EXISTS vote_record (
    id TEXT PRIMARY KEY,
    domain_kind TEXT NOT NULL,
    scope_id TEXT NOT NULL,
    exclusivity_scope_id TEXT NOT NULL,
    fingerprint TEXT NOT NULL,
    choice TEXT NOT NULL,
    cast_at_ms BIGINT NOT NULL,
    UNIQUE (domain_kind, exclusivity_scope_id, fingerprint)
);

CREATE INDEX IF NOT EXISTS idx_vote_record_domain ON vote_record(domain_kind, scope_id);
`
