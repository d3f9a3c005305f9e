// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/civic-ballot/models"
)

func TestRegistry_Prepare(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	r := NewRegistry(NewMemoryStore(), []string{"green", "blue"})

	tests := []struct {
		name        string
		req         RegisterRequest
		wantErr     error
		wantChoices []string
	}{
		{
			name:        "issue support defaults",
			req:         RegisterRequest{Kind: models.KindIssueSupport, ScopeID: "case-1"},
			wantChoices: []string{"support"},
		},
		{
			name:        "referendum defaults",
			req:         RegisterRequest{Kind: models.KindReferendum, ScopeID: "national"},
			wantChoices: []string{"yes", "no"},
		},
		{
			name:        "referendum explicit set in any order",
			req:         RegisterRequest{Kind: models.KindReferendum, ScopeID: "national", Choices: []string{"No", "YES"}},
			wantChoices: []string{"yes", "no"},
		},
		{
			name:    "referendum extra answer",
			req:     RegisterRequest{Kind: models.KindReferendum, ScopeID: "national", Choices: []string{"yes", "no", "maybe"}},
			wantErr: ErrInvalidDomain,
		},
		{
			name:        "party catalogue",
			req:         RegisterRequest{Kind: models.KindPartyPreference, ScopeID: "national"},
			wantChoices: []string{"green", "blue"},
		},
		{
			name:        "poll",
			req:         RegisterRequest{Kind: models.KindPoll, ScopeID: "p1", Choices: []string{"A", "B"}, ExpiresAt: &future},
			wantChoices: []string{"A", "B"},
		},
		{
			name:    "poll without expiry",
			req:     RegisterRequest{Kind: models.KindPoll, ScopeID: "p1", Choices: []string{"A", "B"}},
			wantErr: ErrInvalidDomain,
		},
		{
			name:    "poll already expired",
			req:     RegisterRequest{Kind: models.KindPoll, ScopeID: "p1", Choices: []string{"A", "B"}, ExpiresAt: &past},
			wantErr: ErrInvalidDomain,
		},
		{
			name:    "poll single option",
			req:     RegisterRequest{Kind: models.KindPoll, ScopeID: "p1", Choices: []string{"A"}, ExpiresAt: &future},
			wantErr: ErrInvalidDomain,
		},
		{
			name:    "duplicate choice",
			req:     RegisterRequest{Kind: models.KindPoll, ScopeID: "p1", Choices: []string{"A", " A"}, ExpiresAt: &future},
			wantErr: ErrInvalidDomain,
		},
		{
			name:    "expiry on referendum",
			req:     RegisterRequest{Kind: models.KindReferendum, ScopeID: "national", ExpiresAt: &future},
			wantErr: ErrInvalidDomain,
		},
		{
			name:        "district single candidate",
			req:         RegisterRequest{Kind: models.KindDistrictElection, ScopeID: "D1", Choices: []string{"c1"}},
			wantChoices: []string{"c1"},
		},
		{
			name:    "district reserved scope",
			req:     RegisterRequest{Kind: models.KindDistrictElection, ScopeID: NationalElectionScope, Choices: []string{"c1"}},
			wantErr: ErrInvalidDomain,
		},
		{
			name:    "empty scope",
			req:     RegisterRequest{Kind: models.KindIssueSupport, ScopeID: "  "},
			wantErr: ErrInvalidDomain,
		},
		{
			name:    "scope too long",
			req:     RegisterRequest{Kind: models.KindIssueSupport, ScopeID: strings.Repeat("x", MaxScopeIDLen+1)},
			wantErr: ErrInvalidDomain,
		},
		{
			name:    "unknown kind",
			req:     RegisterRequest{Kind: "petition", ScopeID: "x"},
			wantErr: ErrUnknownKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := r.Prepare(tt.req, now)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Prepare failed: %v", err)
			}
			if len(d.Choices) != len(tt.wantChoices) {
				t.Fatalf("Expected %d choices, got %d", len(tt.wantChoices), len(d.Choices))
			}
			for i, c := range d.Choices {
				if c.ID != tt.wantChoices[i] || !c.Active || c.Position != i {
					t.Errorf("Choice %d = %+v, want active %q at %d", i, c, tt.wantChoices[i], i)
				}
			}
		})
	}
}

func TestRegistry_PartyChoicesWithoutCatalogue(t *testing.T) {
	r := NewRegistry(NewMemoryStore(), nil)
	now := time.Now()

	if _, err := r.Prepare(RegisterRequest{Kind: models.KindPartyPreference, ScopeID: "national"}, now); !errors.Is(err, ErrInvalidDomain) {
		t.Errorf("Expected ErrInvalidDomain without catalogue or choices, got %v", err)
	}
	d, err := r.Prepare(RegisterRequest{Kind: models.KindPartyPreference, ScopeID: "national", Choices: []string{"left", "right"}}, now)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if len(d.Choices) != 2 {
		t.Errorf("Expected supplied parties used, got %+v", d.Choices)
	}
}

func TestRegistry_ExpiryTruncatedToMillis(t *testing.T) {
	r := NewRegistry(NewMemoryStore(), nil)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	expires := now.Add(time.Hour + 1500*time.Microsecond)

	d, err := r.Prepare(RegisterRequest{Kind: models.KindPoll, ScopeID: "p1", Choices: []string{"A", "B"}, ExpiresAt: &expires}, now)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	want := now.Add(time.Hour + time.Millisecond)
	if !d.ExpiresAt.Equal(want) {
		t.Errorf("Expected expiry %v, got %v", want, d.ExpiresAt)
	}
}

func TestRegistry_ValidateChoice(t *testing.T) {
	r := NewRegistry(NewMemoryStore(), nil)
	d := models.Domain{
		Kind: models.KindPoll,
		Choices: []models.Choice{
			{ID: "A", Active: true},
			{ID: "B", Active: false, Position: 1},
		},
	}

	if got, err := r.ValidateChoice(d, " A "); err != nil || got != "A" {
		t.Errorf("ValidateChoice(A) = %q, %v", got, err)
	}
	if _, err := r.ValidateChoice(d, "B"); !errors.Is(err, ErrInvalidChoice) {
		t.Errorf("Expected retired choice rejected, got %v", err)
	}
	if _, err := r.ValidateChoice(d, "a"); !errors.Is(err, ErrInvalidChoice) {
		t.Errorf("Expected poll choices to be case-sensitive, got %v", err)
	}
}
