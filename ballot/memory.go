// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"sync"

	"github.com/danielhkuo/civic-ballot/models"
)

type memKey struct {
	kind  models.DomainKind
	scope string
}

type memDomain struct {
	mu     sync.RWMutex
	domain models.Domain
	counts map[string]int64
	votes  []models.VoteRecord
}

// memScope holds the voters of one exclusivity scope. mu guards the map only
// and is never held across a cast.
type memScope struct {
	mu     sync.RWMutex
	voters map[string]models.VoteRecord
}

type voterKey struct {
	kind        models.DomainKind
	exclusivity string
	fingerprint string
}

type voterLock struct {
	mu   sync.Mutex
	refs int
}

// MemoryStore is an in-process Store for development and tests. Casts are
// serialized per (kind, exclusivity scope, fingerprint); distinct voters only
// share the short domain critical section. Locks are taken voter first, then
// domain, then scope map.
type MemoryStore struct {
	mu         sync.Mutex // guards the maps only
	domains    map[memKey]*memDomain
	scopes     map[memKey]*memScope
	voterLocks map[voterKey]*voterLock
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		domains:    make(map[memKey]*memDomain),
		scopes:     make(map[memKey]*memScope),
		voterLocks: make(map[voterKey]*voterLock),
	}
}

func (s *MemoryStore) CreateDomain(ctx context.Context, d models.Domain) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memKey{d.Kind, d.ScopeID}
	if _, ok := s.domains[key]; ok {
		return ErrDomainExists
	}

	md := &memDomain{
		domain: copyDomain(d),
		counts: make(map[string]int64, len(d.Choices)),
	}
	for _, c := range d.Choices {
		md.counts[c.ID] = 0
	}
	s.domains[key] = md
	return nil
}

func (s *MemoryStore) GetDomain(ctx context.Context, kind models.DomainKind, scopeID string) (models.Domain, error) {
	md := s.domain(kind, scopeID)
	if md == nil {
		return models.Domain{}, ErrUnknownDomain
	}
	md.mu.RLock()
	defer md.mu.RUnlock()
	return copyDomain(md.domain), nil
}

func (s *MemoryStore) RetireChoice(ctx context.Context, kind models.DomainKind, scopeID, choice string) error {
	md := s.domain(kind, scopeID)
	if md == nil {
		return ErrUnknownDomain
	}
	md.mu.Lock()
	defer md.mu.Unlock()

	for i := range md.domain.Choices {
		if md.domain.Choices[i].ID == choice {
			md.domain.Choices[i].Active = false
			return nil
		}
	}
	return ErrInvalidChoice
}

func (s *MemoryStore) TryCast(ctx context.Context, rec models.VoteRecord, clock Clock) (models.VoteRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.VoteRecord{}, NewStorageError("cast", err)
	}

	md := s.domain(rec.Kind, rec.ScopeID)
	if md == nil {
		return models.VoteRecord{}, ErrUnknownDomain
	}
	sc := s.scope(rec.Kind, rec.ExclusivityScopeID)

	unlock := s.lockVoter(voterKey{rec.Kind, rec.ExclusivityScopeID, rec.Fingerprint})
	defer unlock()
	md.mu.Lock()
	defer md.mu.Unlock()

	now := clock.Now()
	if DomainState(md.domain, now) == StateExpired {
		return models.VoteRecord{}, ErrPollExpired
	}
	sc.mu.RLock()
	_, voted := sc.voters[rec.Fingerprint]
	sc.mu.RUnlock()
	if voted {
		return models.VoteRecord{}, ErrAlreadyVoted
	}
	if !md.domain.ActiveChoice(rec.Choice) {
		return models.VoteRecord{}, ErrInvalidChoice
	}

	rec.CastAt = now
	sc.mu.Lock()
	sc.voters[rec.Fingerprint] = rec
	sc.mu.Unlock()
	md.votes = append(md.votes, rec)
	md.counts[rec.Choice]++
	return rec, nil
}

// lockVoter serializes casts of one voter in one exclusivity scope. Entries
// are dropped once no cast holds or waits on them.
func (s *MemoryStore) lockVoter(key voterKey) func() {
	s.mu.Lock()
	l, ok := s.voterLocks[key]
	if !ok {
		l = &voterLock{}
		s.voterLocks[key] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.voterLocks, key)
		}
		s.mu.Unlock()
	}
}

func (s *MemoryStore) LookupVote(ctx context.Context, kind models.DomainKind, exclusivityScopeID, fingerprint string) (models.VoteRecord, bool, error) {
	s.mu.Lock()
	sc := s.scopes[memKey{kind, exclusivityScopeID}]
	s.mu.Unlock()
	if sc == nil {
		return models.VoteRecord{}, false, nil
	}

	sc.mu.RLock()
	defer sc.mu.RUnlock()
	rec, ok := sc.voters[fingerprint]
	return rec, ok, nil
}

func (s *MemoryStore) CountChoices(ctx context.Context, kind models.DomainKind, scopeID string) ([]models.ChoiceCount, error) {
	md := s.domain(kind, scopeID)
	if md == nil {
		return nil, ErrUnknownDomain
	}
	md.mu.RLock()
	defer md.mu.RUnlock()

	counts := make([]models.ChoiceCount, len(md.domain.Choices))
	for i, c := range md.domain.Choices {
		counts[i] = models.ChoiceCount{Choice: c.ID, Count: md.counts[c.ID]}
	}
	return counts, nil
}

func (s *MemoryStore) AuditSnapshot(ctx context.Context, kind models.DomainKind, scopeID string) (AuditSnapshot, error) {
	md := s.domain(kind, scopeID)
	if md == nil {
		return AuditSnapshot{}, ErrUnknownDomain
	}
	md.mu.RLock()
	defer md.mu.RUnlock()

	snap := AuditSnapshot{
		Counts: make([]models.ChoiceCount, len(md.domain.Choices)),
		Votes:  append([]models.VoteRecord(nil), md.votes...),
	}
	for i, c := range md.domain.Choices {
		snap.Counts[i] = models.ChoiceCount{Choice: c.ID, Count: md.counts[c.ID]}
	}
	return snap, nil
}

func (s *MemoryStore) CountVotesByKind(ctx context.Context) (map[models.DomainKind]int64, error) {
	s.mu.Lock()
	domains := make([]*memDomain, 0, len(s.domains))
	for _, md := range s.domains {
		domains = append(domains, md)
	}
	s.mu.Unlock()

	byKind := make(map[models.DomainKind]int64)
	for _, md := range domains {
		md.mu.RLock()
		byKind[md.domain.Kind] += int64(len(md.votes))
		md.mu.RUnlock()
	}
	return byKind, nil
}

func (s *MemoryStore) domain(kind models.DomainKind, scopeID string) *memDomain {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.domains[memKey{kind, scopeID}]
}

func (s *MemoryStore) scope(kind models.DomainKind, exclusivityScopeID string) *memScope {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memKey{kind, exclusivityScopeID}
	sc, ok := s.scopes[key]
	if !ok {
		sc = &memScope{voters: make(map[string]models.VoteRecord)}
		s.scopes[key] = sc
	}
	return sc
}

func copyDomain(d models.Domain) models.Domain {
	d.Choices = append([]models.Choice(nil), d.Choices...)
	if d.ExpiresAt != nil {
		t := *d.ExpiresAt
		d.ExpiresAt = &t
	}
	return d
}
