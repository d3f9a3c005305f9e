// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/civic-ballot/models"
)

// RegisterRequest describes a ballot domain to create alongside its entity
type RegisterRequest struct {
	Kind      models.DomainKind
	ScopeID   string
	Choices   []string
	ExpiresAt *time.Time
}

// Registry owns ballot existence and the valid choice set of each domain
type Registry struct {
	store   Store
	parties []string
}

// NewRegistry creates a registry. parties is the fixed party catalogue; when
// empty, the choices supplied when registering a party ballot become fixed.
func NewRegistry(store Store, parties []string) *Registry {
	return &Registry{store: store, parties: parties}
}

// FixedChoices returns the choice set defined by the kind itself, or nil when
// the set comes from the registered entity.
func (r *Registry) FixedChoices(kind models.DomainKind) []string {
	switch kind {
	case models.KindIssueSupport:
		return []string{SupportChoice}
	case models.KindReferendum:
		return []string{ChoiceYes, ChoiceNo}
	case models.KindPartyPreference:
		if len(r.parties) > 0 {
			return append([]string(nil), r.parties...)
		}
	}
	return nil
}

// Resolve returns the live state of a domain
func (r *Registry) Resolve(ctx context.Context, kind models.DomainKind, scopeID string) (models.Domain, error) {
	if !ValidKind(kind) {
		return models.Domain{}, ErrUnknownKind
	}
	scopeID = strings.TrimSpace(scopeID)
	if scopeID == "" || len(scopeID) > MaxScopeIDLen {
		return models.Domain{}, ErrUnknownDomain
	}
	return r.store.GetDomain(ctx, kind, scopeID)
}

// ValidateChoice checks a submitted choice against the domain's current valid
// set and returns its canonical form.
func (r *Registry) ValidateChoice(d models.Domain, raw string) (string, error) {
	choice := NormalizeChoice(d.Kind, raw)
	if choice == "" || len(choice) > MaxChoiceLen {
		return "", ErrInvalidChoice
	}
	if !d.ActiveChoice(choice) {
		return "", ErrInvalidChoice
	}
	return choice, nil
}

// Prepare validates a registration and builds the domain to persist
func (r *Registry) Prepare(req RegisterRequest, now time.Time) (models.Domain, error) {
	if !ValidKind(req.Kind) {
		return models.Domain{}, ErrUnknownKind
	}
	scopeID := strings.TrimSpace(req.ScopeID)
	if scopeID == "" || len(scopeID) > MaxScopeIDLen {
		return models.Domain{}, fmt.Errorf("%w: scope id must be 1-%d characters", ErrInvalidDomain, MaxScopeIDLen)
	}
	if req.Kind == models.KindDistrictElection && scopeID == NationalElectionScope {
		return models.Domain{}, fmt.Errorf("%w: %q is reserved", ErrInvalidDomain, NationalElectionScope)
	}

	choices, err := r.prepareChoices(req.Kind, req.Choices)
	if err != nil {
		return models.Domain{}, err
	}

	d := models.Domain{
		Kind:      req.Kind,
		ScopeID:   scopeID,
		CreatedAt: now,
		Choices:   make([]models.Choice, len(choices)),
	}
	for i, c := range choices {
		d.Choices[i] = models.Choice{ID: c, Active: true, Position: i}
	}

	if req.Kind == models.KindPoll {
		if req.ExpiresAt == nil {
			return models.Domain{}, fmt.Errorf("%w: polls require expires_at", ErrInvalidDomain)
		}
		expiresAt := req.ExpiresAt.UTC().Truncate(time.Millisecond)
		if !expiresAt.After(now) {
			return models.Domain{}, fmt.Errorf("%w: expires_at must be in the future", ErrInvalidDomain)
		}
		d.ExpiresAt = &expiresAt
	} else if req.ExpiresAt != nil {
		return models.Domain{}, fmt.Errorf("%w: only polls expire", ErrInvalidDomain)
	}

	return d, nil
}

// Register validates and persists a new domain
func (r *Registry) Register(ctx context.Context, req RegisterRequest, now time.Time) (models.Domain, error) {
	d, err := r.Prepare(req, now)
	if err != nil {
		return models.Domain{}, err
	}
	if err := r.store.CreateDomain(ctx, d); err != nil {
		return models.Domain{}, err
	}
	return d, nil
}

// Retire removes a choice from the valid set. Recorded votes for it stay in
// the ledger and the tally.
func (r *Registry) Retire(ctx context.Context, kind models.DomainKind, scopeID, raw string) (string, error) {
	if !ValidKind(kind) {
		return "", ErrUnknownKind
	}
	if !hasLiveChoices(kind) {
		return "", fmt.Errorf("%w: %s choices are fixed", ErrInvalidDomain, kind)
	}
	choice := NormalizeChoice(kind, raw)
	if choice == "" {
		return "", ErrInvalidChoice
	}
	if err := r.store.RetireChoice(ctx, kind, strings.TrimSpace(scopeID), choice); err != nil {
		return "", err
	}
	return choice, nil
}

func (r *Registry) prepareChoices(kind models.DomainKind, supplied []string) ([]string, error) {
	cleaned := make([]string, 0, len(supplied))
	seen := make(map[string]bool, len(supplied))
	for _, raw := range supplied {
		c := NormalizeChoice(kind, raw)
		if c == "" || len(c) > MaxChoiceLen {
			return nil, fmt.Errorf("%w: choice ids must be 1-%d characters", ErrInvalidDomain, MaxChoiceLen)
		}
		if seen[c] {
			return nil, fmt.Errorf("%w: duplicate choice %q", ErrInvalidDomain, c)
		}
		seen[c] = true
		cleaned = append(cleaned, c)
	}

	if fixed := r.FixedChoices(kind); fixed != nil {
		if len(cleaned) == 0 {
			return fixed, nil
		}
		if len(cleaned) != len(fixed) {
			return nil, fmt.Errorf("%w: %s choices are fixed", ErrInvalidDomain, kind)
		}
		for _, c := range fixed {
			if !seen[c] {
				return nil, fmt.Errorf("%w: %s choices are fixed", ErrInvalidDomain, kind)
			}
		}
		return fixed, nil
	}

	min := 2
	if kind == models.KindDistrictElection {
		min = 1
	}
	if len(cleaned) < min {
		return nil, fmt.Errorf("%w: %s needs at least %d choices", ErrInvalidDomain, kind, min)
	}
	return cleaned, nil
}
