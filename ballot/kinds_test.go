// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/danielhkuo/civic-ballot/models"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input   string
		want    models.DomainKind
		wantErr bool
	}{
		{"poll", models.KindPoll, false},
		{" Referendum ", models.KindReferendum, false},
		{"DISTRICT_ELECTION", models.KindDistrictElection, false},
		{"issue_support", models.KindIssueSupport, false},
		{"party_preference", models.KindPartyPreference, false},
		{"petition", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExclusivityScope(t *testing.T) {
	for _, kind := range Kinds {
		got := ExclusivityScope(kind, "D1")
		want := "D1"
		if kind == models.KindDistrictElection {
			want = NationalElectionScope
		}
		if got != want {
			t.Errorf("ExclusivityScope(%s, D1) = %q, want %q", kind, got, want)
		}
	}
}

func TestNormalizeChoice(t *testing.T) {
	tests := []struct {
		kind models.DomainKind
		raw  string
		want string
	}{
		{models.KindIssueSupport, "up", "support"},
		{models.KindIssueSupport, " Support ", "support"},
		{models.KindIssueSupport, "down", "down"},
		{models.KindReferendum, "YES", "yes"},
		{models.KindPoll, " Option-A ", "Option-A"},
		{models.KindDistrictElection, "C1", "C1"},
	}

	for _, tt := range tests {
		if got := NormalizeChoice(tt.kind, tt.raw); got != tt.want {
			t.Errorf("NormalizeChoice(%s, %q) = %q, want %q", tt.kind, tt.raw, got, tt.want)
		}
	}
}

func TestPollStateAt(t *testing.T) {
	expires := time.Date(2025, 5, 1, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want PollState
	}{
		{"well before", expires.Add(-time.Hour), StateActive},
		{"1ms before", expires.Add(-time.Millisecond), StateActive},
		{"at expiry", expires, StateExpired},
		{"1ms after", expires.Add(time.Millisecond), StateExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PollStateAt(expires, tt.now); got != tt.want {
				t.Errorf("PollStateAt() = %s, want %s", got, tt.want)
			}
		})
	}

	if DomainState(models.Domain{Kind: models.KindReferendum}, expires) != StateActive {
		t.Error("Domains without expiry should always be active")
	}
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, OutcomeAccepted},
		{ErrAlreadyVoted, OutcomeAlreadyVoted},
		{fmt.Errorf("cast: %w", ErrPollExpired), OutcomePollExpired},
		{ErrUnknownDomain, OutcomeUnknownDomain},
		{ErrUnknownKind, OutcomeUnknownDomain},
		{ErrInvalidChoice, OutcomeInvalidChoice},
		{NewStorageError("cast", errors.New("db down")), OutcomeStorageFailure},
		{errors.New("anything else"), OutcomeStorageFailure},
	}

	for _, tt := range tests {
		if got := OutcomeOf(tt.err); got != tt.want {
			t.Errorf("OutcomeOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestNewStorageError(t *testing.T) {
	if NewStorageError("op", nil) != nil {
		t.Error("Expected nil for nil error")
	}

	cause := errors.New("connection refused")
	err := NewStorageError("cast", cause)
	if !IsStorageFailure(err) {
		t.Error("Expected storage failure")
	}
	if !errors.Is(err, cause) {
		t.Error("Expected cause to be unwrapped")
	}

	again := NewStorageError("retry", err)
	var se *StorageError
	if !errors.As(again, &se) || se.Op != "cast" {
		t.Errorf("Expected original storage error kept, got %v", again)
	}
}
