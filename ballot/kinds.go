// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"strings"

	"github.com/danielhkuo/civic-ballot/models"
)

// NationalElectionScope is the exclusivity scope shared by every district of
// the nationwide election.
const NationalElectionScope = "national-election"

// SupportChoice is the only action available on an issue
const SupportChoice = "support"

// Referendum answers
const (
	ChoiceYes = "yes"
	ChoiceNo  = "no"
)

// Limits on identifiers accepted from callers
const (
	MaxScopeIDLen = 128
	MaxChoiceLen  = 64
)

// Kinds lists every ballot kind in a stable order
var Kinds = []models.DomainKind{
	models.KindIssueSupport,
	models.KindPoll,
	models.KindPartyPreference,
	models.KindDistrictElection,
	models.KindReferendum,
}

// ParseKind converts the wire form of a kind
func ParseKind(s string) (models.DomainKind, error) {
	k := models.DomainKind(strings.ToLower(strings.TrimSpace(s)))
	if !ValidKind(k) {
		return "", ErrUnknownKind
	}
	return k, nil
}

// ValidKind reports whether k is one of the supported domain kinds
func ValidKind(k models.DomainKind) bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// ExclusivityScope returns the scope within which one vote per voter is
// enforced. District elections share a single scope across all districts.
func ExclusivityScope(kind models.DomainKind, scopeID string) string {
	if kind == models.KindDistrictElection {
		return NationalElectionScope
	}
	return scopeID
}

// hasLiveChoices reports whether the kind's choice set comes from the
// registered entity and may change after registration.
func hasLiveChoices(kind models.DomainKind) bool {
	return kind == models.KindPoll || kind == models.KindDistrictElection
}

// NormalizeChoice canonicalizes a submitted choice for the given kind.
// Issue support accepts the legacy "up" direction as an alias.
func NormalizeChoice(kind models.DomainKind, raw string) string {
	choice := strings.TrimSpace(raw)
	switch kind {
	case models.KindIssueSupport:
		choice = strings.ToLower(choice)
		if choice == "up" {
			return SupportChoice
		}
	case models.KindReferendum:
		choice = strings.ToLower(choice)
	}
	return choice
}
