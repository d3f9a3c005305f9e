// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"time"

	"github.com/danielhkuo/civic-ballot/models"
)

// PollState is the acceptance state of a poll. Expired is terminal.
type PollState int

const (
	StateActive PollState = iota
	StateExpired
)

func (s PollState) String() string {
	if s == StateExpired {
		return "expired"
	}
	return "active"
}

// PollStateAt evaluates a poll with the given expiry at instant now.
// A poll is expired from its expiry instant onwards.
func PollStateAt(expiresAt, now time.Time) PollState {
	if now.Before(expiresAt) {
		return StateActive
	}
	return StateExpired
}

// DomainState applies the poll lifecycle to a domain. Domains without an
// expiry never expire.
func DomainState(d models.Domain, now time.Time) PollState {
	if d.ExpiresAt == nil {
		return StateActive
	}
	return PollStateAt(*d.ExpiresAt, now)
}
