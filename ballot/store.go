// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"time"

	"github.com/danielhkuo/civic-ballot/models"
)

// Store is the durable vote ledger together with domain metadata.
//
// TryCast is the only write on the vote path. It must insert the record and
// bump the chosen counter as one atomic unit, rejecting the insert when
// (kind, exclusivity scope, fingerprint) already exists or when the domain's
// expiry is not after the cast instant. The cast instant is read from clock
// once the store holds whatever serializes the insert (lock or transaction),
// and is returned as the record's CastAt. TryCast returns ErrUnknownDomain,
// ErrPollExpired, ErrAlreadyVoted, ErrInvalidChoice (in that precedence) or a
// *StorageError.
//
// AuditSnapshot returns the counter projection and every vote record of one
// domain as of a single point in time.
type Store interface {
	CreateDomain(ctx context.Context, d models.Domain) error
	GetDomain(ctx context.Context, kind models.DomainKind, scopeID string) (models.Domain, error)
	RetireChoice(ctx context.Context, kind models.DomainKind, scopeID, choice string) error

	TryCast(ctx context.Context, rec models.VoteRecord, clock Clock) (models.VoteRecord, error)
	LookupVote(ctx context.Context, kind models.DomainKind, exclusivityScopeID, fingerprint string) (models.VoteRecord, bool, error)

	CountChoices(ctx context.Context, kind models.DomainKind, scopeID string) ([]models.ChoiceCount, error)
	AuditSnapshot(ctx context.Context, kind models.DomainKind, scopeID string) (AuditSnapshot, error)
	CountVotesByKind(ctx context.Context) (map[models.DomainKind]int64, error)
}

// AuditSnapshot is a consistent read of one domain's counters and ledger
type AuditSnapshot struct {
	Counts []models.ChoiceCount
	Votes  []models.VoteRecord
}

type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Observer receives the outcome of every cast
type Observer interface {
	ObserveCast(kind models.DomainKind, outcome string, elapsed time.Duration)
}
