// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/civic-ballot/ballot"
	"github.com/danielhkuo/civic-ballot/models"
)

// Ledger is the SQL implementation of ballot.Store.
//
// Acceptance rests on one conditional insert guarded by the
// (domain_kind, exclusivity_scope_id, fingerprint) unique constraint; the
// counter update runs in the same transaction, so a vote record never exists
// without its count or the other way round.
type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

var _ ballot.Store = (*Ledger)(nil)

const insertVoteSQL = `
INSERT INTO vote_record (id, domain_kind, scope_id, exclusivity_scope_id, fingerprint, choice, cast_at_ms)
SELECT CAST($1 AS TEXT), d.kind, d.scope_id, CAST($4 AS TEXT), CAST($5 AS TEXT), CAST($6 AS TEXT), CAST($7 AS BIGINT)
FROM ballot_domain d
WHERE d.kind = $2 AND d.scope_id = $3
  AND (d.expires_at_ms IS NULL OR d.expires_at_ms > CAST($8 AS BIGINT))
ON CONFLICT (domain_kind, exclusivity_scope_id, fingerprint) DO NOTHING
`

const bumpCountSQL = `
UPDATE ballot_choice SET vote_count = vote_count + 1
WHERE kind = $1 AND scope_id = $2 AND choice = $3 AND active = 1
`

func (l *Ledger) CreateDomain(ctx context.Context, d models.Domain) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return ballot.NewStorageError("begin register", err)
	}
	defer tx.Rollback()

	var expiresAt sql.NullInt64
	if d.ExpiresAt != nil {
		expiresAt = sql.NullInt64{Int64: d.ExpiresAt.UnixMilli(), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ballot_domain (kind, scope_id, expires_at_ms, created_at_ms)
		VALUES ($1, $2, $3, $4)
	`, string(d.Kind), d.ScopeID, expiresAt, d.CreatedAt.UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return ballot.ErrDomainExists
		}
		return ballot.NewStorageError("insert domain", err)
	}

	for i, c := range d.Choices {
		active := 0
		if c.Active {
			active = 1
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ballot_choice (kind, scope_id, choice, ordinal, active, vote_count)
			VALUES ($1, $2, $3, $4, $5, 0)
		`, string(d.Kind), d.ScopeID, c.ID, i, active)
		if err != nil {
			return ballot.NewStorageError("insert choice", err)
		}
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return ballot.ErrDomainExists
		}
		return ballot.NewStorageError("commit register", err)
	}
	return nil
}

func (l *Ledger) GetDomain(ctx context.Context, kind models.DomainKind, scopeID string) (models.Domain, error) {
	var expiresAt sql.NullInt64
	var createdAt int64
	err := l.db.QueryRowContext(ctx, `
		SELECT expires_at_ms, created_at_ms FROM ballot_domain
		WHERE kind = $1 AND scope_id = $2
	`, string(kind), scopeID).Scan(&expiresAt, &createdAt)
	if err == sql.ErrNoRows {
		return models.Domain{}, ballot.ErrUnknownDomain
	}
	if err != nil {
		return models.Domain{}, ballot.NewStorageError("get domain", err)
	}

	d := models.Domain{
		Kind:      kind,
		ScopeID:   scopeID,
		CreatedAt: fromMillis(createdAt),
	}
	if expiresAt.Valid {
		t := fromMillis(expiresAt.Int64)
		d.ExpiresAt = &t
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT choice, ordinal, active FROM ballot_choice
		WHERE kind = $1 AND scope_id = $2
		ORDER BY ordinal
	`, string(kind), scopeID)
	if err != nil {
		return models.Domain{}, ballot.NewStorageError("get choices", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Choice
		var active int
		if err := rows.Scan(&c.ID, &c.Position, &active); err != nil {
			return models.Domain{}, ballot.NewStorageError("scan choice", err)
		}
		c.Active = active == 1
		d.Choices = append(d.Choices, c)
	}
	if err := rows.Err(); err != nil {
		return models.Domain{}, ballot.NewStorageError("get choices", err)
	}

	return d, nil
}

func (l *Ledger) RetireChoice(ctx context.Context, kind models.DomainKind, scopeID, choice string) error {
	res, err := l.db.ExecContext(ctx, `
		UPDATE ballot_choice SET active = 0
		WHERE kind = $1 AND scope_id = $2 AND choice = $3
	`, string(kind), scopeID, choice)
	if err != nil {
		return ballot.NewStorageError("retire choice", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return ballot.NewStorageError("retire choice", err)
	}
	if n > 0 {
		return nil
	}

	exists, err := l.domainExists(ctx, kind, scopeID)
	if err != nil {
		return err
	}
	if !exists {
		return ballot.ErrUnknownDomain
	}
	return ballot.ErrInvalidChoice
}

func (l *Ledger) TryCast(ctx context.Context, rec models.VoteRecord, clock ballot.Clock) (models.VoteRecord, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return models.VoteRecord{}, ballot.NewStorageError("begin cast", err)
	}
	defer tx.Rollback()

	// Read after the connection is ours, so pool waits count against the poll
	now := clock.Now()
	rec.CastAt = now
	if err := insertVote(ctx, tx, rec, now); err != nil {
		return models.VoteRecord{}, err
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return models.VoteRecord{}, ballot.ErrAlreadyVoted
		}
		return models.VoteRecord{}, ballot.NewStorageError("commit cast", err)
	}
	return rec, nil
}

// insertVote applies the conditional insert and the counter bump
func insertVote(ctx context.Context, tx *sql.Tx, rec models.VoteRecord, now time.Time) error {
	res, err := tx.ExecContext(ctx, insertVoteSQL,
		rec.ID, string(rec.Kind), rec.ScopeID, rec.ExclusivityScopeID,
		rec.Fingerprint, rec.Choice, rec.CastAt.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ballot.ErrAlreadyVoted
		}
		return ballot.NewStorageError("insert vote", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return ballot.NewStorageError("insert vote", err)
	}
	if inserted == 0 {
		return classifyRejection(ctx, tx, rec, now)
	}

	res, err = tx.ExecContext(ctx, bumpCountSQL, string(rec.Kind), rec.ScopeID, rec.Choice)
	if err != nil {
		return ballot.NewStorageError("update count", err)
	}
	bumped, err := res.RowsAffected()
	if err != nil {
		return ballot.NewStorageError("update count", err)
	}
	if bumped == 0 {
		return ballot.ErrInvalidChoice
	}
	return nil
}

// classifyRejection explains why the conditional insert wrote nothing.
// Unknown domain first, then expiry, then the existing vote.
func classifyRejection(ctx context.Context, tx *sql.Tx, rec models.VoteRecord, now time.Time) error {
	var expiresAt sql.NullInt64
	err := tx.QueryRowContext(ctx, `
		SELECT expires_at_ms FROM ballot_domain
		WHERE kind = $1 AND scope_id = $2
	`, string(rec.Kind), rec.ScopeID).Scan(&expiresAt)
	if err == sql.ErrNoRows {
		return ballot.ErrUnknownDomain
	}
	if err != nil {
		return ballot.NewStorageError("classify cast", err)
	}
	if expiresAt.Valid && expiresAt.Int64 <= now.UnixMilli() {
		return ballot.ErrPollExpired
	}
	return ballot.ErrAlreadyVoted
}

func (l *Ledger) LookupVote(ctx context.Context, kind models.DomainKind, exclusivityScopeID, fingerprint string) (models.VoteRecord, bool, error) {
	rec := models.VoteRecord{
		Kind:               kind,
		ExclusivityScopeID: exclusivityScopeID,
		Fingerprint:        fingerprint,
	}
	var castAt int64
	err := l.db.QueryRowContext(ctx, `
		SELECT id, scope_id, choice, cast_at_ms FROM vote_record
		WHERE domain_kind = $1 AND exclusivity_scope_id = $2 AND fingerprint = $3
	`, string(kind), exclusivityScopeID, fingerprint).Scan(&rec.ID, &rec.ScopeID, &rec.Choice, &castAt)
	if err == sql.ErrNoRows {
		return models.VoteRecord{}, false, nil
	}
	if err != nil {
		return models.VoteRecord{}, false, ballot.NewStorageError("lookup vote", err)
	}
	rec.CastAt = fromMillis(castAt)
	return rec, true, nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (l *Ledger) CountChoices(ctx context.Context, kind models.DomainKind, scopeID string) ([]models.ChoiceCount, error) {
	return countChoices(ctx, l.db, kind, scopeID)
}

// AuditSnapshot reads counters and vote records in one read-only
// repeatable-read transaction
func (l *Ledger) AuditSnapshot(ctx context.Context, kind models.DomainKind, scopeID string) (ballot.AuditSnapshot, error) {
	tx, err := l.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return ballot.AuditSnapshot{}, ballot.NewStorageError("begin audit", err)
	}
	defer tx.Rollback()

	counts, err := countChoices(ctx, tx, kind, scopeID)
	if err != nil {
		return ballot.AuditSnapshot{}, err
	}
	votes, err := scanVotes(ctx, tx, kind, scopeID)
	if err != nil {
		return ballot.AuditSnapshot{}, err
	}

	if err := tx.Commit(); err != nil {
		return ballot.AuditSnapshot{}, ballot.NewStorageError("commit audit", err)
	}
	return ballot.AuditSnapshot{Counts: counts, Votes: votes}, nil
}

func countChoices(ctx context.Context, q queryer, kind models.DomainKind, scopeID string) ([]models.ChoiceCount, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT choice, vote_count FROM ballot_choice
		WHERE kind = $1 AND scope_id = $2
		ORDER BY ordinal
	`, string(kind), scopeID)
	if err != nil {
		return nil, ballot.NewStorageError("count choices", err)
	}
	defer rows.Close()

	var counts []models.ChoiceCount
	for rows.Next() {
		var c models.ChoiceCount
		if err := rows.Scan(&c.Choice, &c.Count); err != nil {
			return nil, ballot.NewStorageError("scan count", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, ballot.NewStorageError("count choices", err)
	}

	// Every registered domain has at least one choice row
	if len(counts) == 0 {
		return nil, ballot.ErrUnknownDomain
	}
	return counts, nil
}

func scanVotes(ctx context.Context, q queryer, kind models.DomainKind, scopeID string) ([]models.VoteRecord, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, exclusivity_scope_id, fingerprint, choice, cast_at_ms FROM vote_record
		WHERE domain_kind = $1 AND scope_id = $2
		ORDER BY cast_at_ms, id
	`, string(kind), scopeID)
	if err != nil {
		return nil, ballot.NewStorageError("scan votes", err)
	}
	defer rows.Close()

	var votes []models.VoteRecord
	for rows.Next() {
		rec := models.VoteRecord{Kind: kind, ScopeID: scopeID}
		var castAt int64
		if err := rows.Scan(&rec.ID, &rec.ExclusivityScopeID, &rec.Fingerprint, &rec.Choice, &castAt); err != nil {
			return nil, ballot.NewStorageError("scan vote", err)
		}
		rec.CastAt = fromMillis(castAt)
		votes = append(votes, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, ballot.NewStorageError("scan votes", err)
	}
	return votes, nil
}

func (l *Ledger) CountVotesByKind(ctx context.Context) (map[models.DomainKind]int64, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT domain_kind, COUNT(*) FROM vote_record GROUP BY domain_kind
	`)
	if err != nil {
		return nil, ballot.NewStorageError("count votes", err)
	}
	defer rows.Close()

	byKind := make(map[models.DomainKind]int64)
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, ballot.NewStorageError("scan vote count", err)
		}
		byKind[models.DomainKind(kind)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, ballot.NewStorageError("count votes", err)
	}
	return byKind, nil
}

func (l *Ledger) domainExists(ctx context.Context, kind models.DomainKind, scopeID string) (bool, error) {
	var one int
	err := l.db.QueryRowContext(ctx, `
		SELECT 1 FROM ballot_domain WHERE kind = $1 AND scope_id = $2
	`, string(kind), scopeID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, ballot.NewStorageError("find domain", err)
	}
	return true, nil
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// Ping reports whether the database is reachable
func (l *Ledger) Ping(ctx context.Context) error {
	if err := l.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ledger unavailable: %w", err)
	}
	return nil
}
