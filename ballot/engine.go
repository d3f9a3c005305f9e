// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/danielhkuo/civic-ballot/auth"
	"github.com/danielhkuo/civic-ballot/models"
)

const (
	DefaultCastRetries    = 3
	DefaultVotedCacheSize = 10000
)

// Options configures an Engine. Zero values pick the defaults.
type Options struct {
	Logger   *slog.Logger
	Clock    Clock
	Observer Observer

	// CastRetries bounds the extra attempts made after a storage failure
	CastRetries int
	// VotedCacheSize is the has-voted cache capacity; negative disables it
	VotedCacheSize int
	// Parties is the party catalogue for party preference ballots
	Parties []string
}

// CastRequest is one submitted vote. Origin is the raw network origin of the
// caller; it is anonymized before anything else touches it.
type CastRequest struct {
	Kind    models.DomainKind
	ScopeID string
	Origin  string
	Choice  string
}

// Engine exposes the ballot operations over a Store
type Engine struct {
	store    Store
	registry *Registry
	anon     *auth.Anonymizer
	clock    Clock
	logger   *slog.Logger
	observer Observer
	retries  int
	voted    *votedCache
}

func NewEngine(store Store, anon *auth.Anonymizer, opts Options) (*Engine, error) {
	if store == nil {
		return nil, errors.New("ballot: store is required")
	}
	if anon == nil {
		return nil, errors.New("ballot: anonymizer is required")
	}

	retries := opts.CastRetries
	if retries == 0 {
		retries = DefaultCastRetries
	}
	if retries < 0 {
		retries = 0
	}

	cacheSize := opts.VotedCacheSize
	if cacheSize == 0 {
		cacheSize = DefaultVotedCacheSize
	}
	voted, err := newVotedCache(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("ballot: voted cache: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		store:    store,
		registry: NewRegistry(store, opts.Parties),
		anon:     anon,
		clock:    opts.Clock,
		logger:   logger,
		observer: opts.Observer,
		retries:  retries,
		voted:    voted,
	}, nil
}

// Registry returns the domain registry backing the engine
func (e *Engine) Registry() *Registry {
	return e.registry
}

func (e *Engine) now() time.Time {
	var now time.Time
	if e.clock != nil {
		now = e.clock.Now()
	} else {
		now = time.Now()
	}
	return now.UTC().Truncate(time.Millisecond)
}

// RegisterDomain creates a ballot domain when its entity is created
func (e *Engine) RegisterDomain(ctx context.Context, req RegisterRequest) (models.Domain, error) {
	d, err := e.registry.Register(ctx, req, e.now())
	if err != nil {
		if IsStorageFailure(err) {
			e.logger.Error("ballot domain registration failed",
				"event", "ballot_domain_register_failed",
				"kind", req.Kind,
				"scope_id", req.ScopeID,
				"error", err.Error(),
			)
		}
		return models.Domain{}, err
	}

	e.logger.Info("ballot domain registered",
		"event", "ballot_domain_registered",
		"kind", d.Kind,
		"scope_id", d.ScopeID,
		"choices", len(d.Choices),
	)
	return d, nil
}

// CastVote records one vote. It returns nil error exactly when the vote was
// accepted; business rejections are ErrAlreadyVoted, ErrPollExpired,
// ErrUnknownDomain, ErrUnknownKind and ErrInvalidChoice. Anything else is a
// *StorageError and may be retried by the caller.
func (e *Engine) CastVote(ctx context.Context, req CastRequest) (models.VoteRecord, error) {
	start := time.Now()
	fp := e.anon.Fingerprint(req.Origin)

	rec, err := e.castVote(ctx, req, fp)
	outcome := OutcomeOf(err)

	if e.observer != nil {
		e.observer.ObserveCast(req.Kind, outcome, time.Since(start))
	}
	e.logCast(req, fp, outcome, err)

	if err != nil {
		return models.VoteRecord{}, err
	}
	return rec, nil
}

func (e *Engine) castVote(ctx context.Context, req CastRequest, fp string) (models.VoteRecord, error) {
	d, err := e.registry.Resolve(ctx, req.Kind, req.ScopeID)
	if err != nil {
		return models.VoteRecord{}, err
	}

	now := e.now()
	if DomainState(d, now) == StateExpired {
		return models.VoteRecord{}, ErrPollExpired
	}

	choice, err := e.registry.ValidateChoice(d, req.Choice)
	if err != nil {
		return models.VoteRecord{}, err
	}

	exclusivity := ExclusivityScope(d.Kind, d.ScopeID)
	key := votedKey(d.Kind, exclusivity, fp)
	if e.voted.has(key) {
		return models.VoteRecord{}, ErrAlreadyVoted
	}

	rec := models.VoteRecord{
		ID:                 uuid.NewString(),
		Kind:               d.Kind,
		ScopeID:            d.ScopeID,
		ExclusivityScopeID: exclusivity,
		Fingerprint:        fp,
		Choice:             choice,
	}

	rec, err = e.tryCast(ctx, rec)
	if err == nil || errors.Is(err, ErrAlreadyVoted) {
		e.voted.mark(key)
	}
	if err != nil {
		return models.VoteRecord{}, err
	}
	return rec, nil
}

// tryCast runs the atomic cast, retrying storage failures only. Every attempt
// lets the store read the clock at its own decision point, so expiry is judged
// at the cast instant and not at request entry. A retry after a commit whose
// acknowledgement was lost reports ErrAlreadyVoted.
func (e *Engine) tryCast(ctx context.Context, rec models.VoteRecord) (models.VoteRecord, error) {
	clock := ClockFunc(e.now)

	var cast models.VoteRecord
	op := func() error {
		var err error
		cast, err = e.store.TryCast(ctx, rec, clock)
		if err != nil && !IsStorageFailure(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 20 * time.Millisecond
	policy.MaxInterval = 250 * time.Millisecond
	policy.MaxElapsedTime = 2 * time.Second

	notify := func(err error, wait time.Duration) {
		e.logger.Warn("vote cast storage failure, retrying",
			"event", "ballot_cast_retry",
			"kind", rec.Kind,
			"scope_id", rec.ScopeID,
			"wait", wait,
			"error", err.Error(),
		)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(e.retries)), ctx)
	err := backoff.RetryNotify(op, b, notify)
	if err == nil {
		return cast, nil
	}
	if isBusinessOutcome(err) {
		return models.VoteRecord{}, err
	}
	return models.VoteRecord{}, NewStorageError("cast", err)
}

func isBusinessOutcome(err error) bool {
	return errors.Is(err, ErrAlreadyVoted) ||
		errors.Is(err, ErrPollExpired) ||
		errors.Is(err, ErrUnknownDomain) ||
		errors.Is(err, ErrUnknownKind) ||
		errors.Is(err, ErrInvalidChoice)
}

func (e *Engine) logCast(req CastRequest, fp, outcome string, err error) {
	attrs := []any{
		"event", "ballot_cast_" + outcome,
		"kind", req.Kind,
		"scope_id", strings.TrimSpace(req.ScopeID),
		"voter", fp[:12],
	}
	switch outcome {
	case OutcomeAccepted, OutcomeAlreadyVoted, OutcomePollExpired:
		e.logger.Info("vote cast", append(attrs, "outcome", outcome)...)
	case OutcomeStorageFailure:
		e.logger.Error("vote cast failed", append(attrs, "error", err.Error())...)
	default:
		e.logger.Warn("vote cast rejected", append(attrs, "outcome", outcome)...)
	}
}

// GetTally returns live counts and percentages for a domain
func (e *Engine) GetTally(ctx context.Context, kind models.DomainKind, scopeID string) (models.Tally, error) {
	if !ValidKind(kind) {
		return models.Tally{}, ErrUnknownKind
	}
	scopeID = strings.TrimSpace(scopeID)
	counts, err := e.store.CountChoices(ctx, kind, scopeID)
	if err != nil {
		return models.Tally{}, err
	}
	return BuildTally(kind, scopeID, counts), nil
}

// GetVoteStatus reports whether the caller has voted in the domain's
// exclusivity scope. For district elections the reported scope is the
// district the vote was actually cast in, which may differ from scopeID.
func (e *Engine) GetVoteStatus(ctx context.Context, kind models.DomainKind, scopeID, origin string) (models.VoteStatus, error) {
	if !ValidKind(kind) {
		return models.VoteStatus{}, ErrUnknownKind
	}
	scopeID = strings.TrimSpace(scopeID)

	exclusivity := ExclusivityScope(kind, scopeID)
	if kind != models.KindDistrictElection || scopeID != NationalElectionScope {
		d, err := e.registry.Resolve(ctx, kind, scopeID)
		if err != nil {
			return models.VoteStatus{}, err
		}
		exclusivity = ExclusivityScope(d.Kind, d.ScopeID)
	}

	fp := e.anon.Fingerprint(origin)
	rec, ok, err := e.store.LookupVote(ctx, kind, exclusivity, fp)
	if err != nil {
		return models.VoteStatus{}, NewStorageError("lookup vote", err)
	}
	if !ok {
		return models.VoteStatus{Voted: false}, nil
	}

	e.voted.mark(votedKey(kind, exclusivity, fp))
	castAt := rec.CastAt
	return models.VoteStatus{
		Voted:   true,
		Choice:  rec.Choice,
		ScopeID: rec.ScopeID,
		CastAt:  &castAt,
	}, nil
}

// RetireChoice removes a poll option or candidate from the valid set.
// Votes already recorded for it are kept.
func (e *Engine) RetireChoice(ctx context.Context, kind models.DomainKind, scopeID, choice string) (string, error) {
	retired, err := e.registry.Retire(ctx, kind, scopeID, choice)
	if err != nil {
		return "", err
	}
	e.logger.Info("ballot choice retired",
		"event", "ballot_choice_retired",
		"kind", kind,
		"scope_id", strings.TrimSpace(scopeID),
		"choice", retired,
	)
	return retired, nil
}

// Audit recomputes per-choice counts from the ledger and compares them with
// the counter projection. Both are read from one snapshot, so concurrent casts
// never show up as a divergence.
func (e *Engine) Audit(ctx context.Context, kind models.DomainKind, scopeID string) (models.AuditReport, error) {
	if !ValidKind(kind) {
		return models.AuditReport{}, ErrUnknownKind
	}
	scopeID = strings.TrimSpace(scopeID)

	snap, err := e.store.AuditSnapshot(ctx, kind, scopeID)
	if err != nil {
		return models.AuditReport{}, err
	}

	report := models.AuditReport{
		Kind:     kind,
		ScopeID:  scopeID,
		Counters: make(map[string]int64, len(snap.Counts)),
		Ledger:   make(map[string]int64, len(snap.Counts)),
	}
	for _, c := range snap.Counts {
		report.Counters[c.Choice] = c.Count
		report.Ledger[c.Choice] = 0
	}

	seen := make(map[string]bool, len(snap.Votes))
	for _, v := range snap.Votes {
		report.Ledger[v.Choice]++
		key := v.ExclusivityScopeID + "\x00" + v.Fingerprint
		if seen[key] {
			report.Duplicates++
		}
		seen[key] = true
	}

	report.Consistent = report.Duplicates == 0 && len(report.Ledger) == len(report.Counters)
	for choice, n := range report.Ledger {
		if report.Counters[choice] != n {
			report.Consistent = false
		}
	}

	if !report.Consistent {
		e.logger.Error("ballot audit found inconsistency",
			"event", "ballot_audit_inconsistent",
			"kind", kind,
			"scope_id", scopeID,
			"duplicates", report.Duplicates,
		)
	}
	return report, nil
}

// PlatformStats recomputes platform totals from the ledger
func (e *Engine) PlatformStats(ctx context.Context) (models.PlatformStats, error) {
	byKind, err := e.store.CountVotesByKind(ctx)
	if err != nil {
		return models.PlatformStats{}, NewStorageError("platform stats", err)
	}

	stats := models.PlatformStats{ByKind: make(map[models.DomainKind]int64, len(Kinds))}
	for _, k := range Kinds {
		stats.ByKind[k] = byKind[k]
		stats.TotalVotes += byKind[k]
	}
	return stats, nil
}
