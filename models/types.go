package models

import "time"

// DomainKind identifies a kind of vote-able thing
type DomainKind string

const (
	KindIssueSupport     DomainKind = "issue_support"
	KindPoll             DomainKind = "poll"
	KindPartyPreference  DomainKind = "party_preference"
	KindDistrictElection DomainKind = "district_election"
	KindReferendum       DomainKind = "referendum"
)

// Conventional scope id for the single national ballots
const ScopeNational = "national"

// Request types

type RegisterDomainRequest struct {
	Choices   []string   `json:"choices"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type CastVoteRequest struct {
	Choice string `json:"choice"`
}

// Response types

type RegisterDomainResponse struct {
	Domain   Domain `json:"domain"`
	AdminKey string `json:"admin_key"`
}

type CastVoteResponse struct {
	VoteID  string    `json:"vote_id"`
	Choice  string    `json:"choice"`
	CastAt  time.Time `json:"cast_at"`
	Message string    `json:"message"`
}

type TallyResponse struct {
	Tally
	TotalDisplay string `json:"total_display"`
}

type StatsResponse struct {
	PlatformStats
	TotalDisplay string `json:"total_display"`
}

type RetireChoiceResponse struct {
	Choice  string `json:"choice"`
	Retired bool   `json:"retired"`
}

// Domain types

type Choice struct {
	ID       string `json:"id"`
	Active   bool   `json:"active"`
	Position int    `json:"position"`
}

// Domain is one registered ballot. ExpiresAt is only set for polls.
type Domain struct {
	Kind      DomainKind `json:"kind"`
	ScopeID   string     `json:"scope_id"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	Choices   []Choice   `json:"choices"`
}

// ActiveChoice reports whether id is currently a valid choice
func (d Domain) ActiveChoice(id string) bool {
	for _, c := range d.Choices {
		if c.ID == id {
			return c.Active
		}
	}
	return false
}

type VoteRecord struct {
	ID                 string     `json:"id"`
	Kind               DomainKind `json:"kind"`
	ScopeID            string     `json:"scope_id"`
	ExclusivityScopeID string     `json:"exclusivity_scope_id"`
	Fingerprint        string     `json:"-"` // Never expose in JSON
	Choice             string     `json:"choice"`
	CastAt             time.Time  `json:"cast_at"`
}

type ChoiceCount struct {
	Choice string `json:"choice"`
	Count  int64  `json:"count"`
}

type ChoiceTally struct {
	Choice     string  `json:"choice"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

type Tally struct {
	Kind    DomainKind    `json:"kind"`
	ScopeID string        `json:"scope_id"`
	Choices []ChoiceTally `json:"choices"`
	Total   int64         `json:"total"`
}

// Percentage returns the share of the given choice, or 0 if it is not tallied
func (t Tally) Percentage(choice string) float64 {
	for _, c := range t.Choices {
		if c.Choice == choice {
			return c.Percentage
		}
	}
	return 0
}

// Count returns the votes recorded for the given choice
func (t Tally) Count(choice string) int64 {
	for _, c := range t.Choices {
		if c.Choice == choice {
			return c.Count
		}
	}
	return 0
}

// Leader returns the choice with the most votes. Ties go to the earlier
// choice; ok is false when nothing was cast.
func (t Tally) Leader() (choice string, ok bool) {
	var best int64
	for _, c := range t.Choices {
		if c.Count > best {
			best = c.Count
			choice = c.Choice
		}
	}
	return choice, best > 0
}

type VoteStatus struct {
	Voted   bool       `json:"voted"`
	Choice  string     `json:"choice,omitempty"`
	ScopeID string     `json:"scope_id,omitempty"` // Scope the vote was cast in
	CastAt  *time.Time `json:"cast_at,omitempty"`
}

// AuditReport compares the counter projection against the ledger
type AuditReport struct {
	Kind       DomainKind       `json:"kind"`
	ScopeID    string           `json:"scope_id"`
	Counters   map[string]int64 `json:"counters"`
	Ledger     map[string]int64 `json:"ledger"`
	Duplicates int              `json:"duplicates"`
	Consistent bool             `json:"consistent"`
}

type PlatformStats struct {
	TotalVotes int64                `json:"total_votes"`
	ByKind     map[DomainKind]int64 `json:"by_kind"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Outcome string `json:"outcome,omitempty"`
}
