// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/danielhkuo/civic-ballot/models"
)

// votedCache remembers (kind, exclusivity scope, fingerprint) triples known to
// have voted. Votes are immutable so a positive entry never goes stale; only
// positives are cached. A nil cache is valid and always misses.
type votedCache struct {
	entries *lru.Cache
}

func newVotedCache(size int) (*votedCache, error) {
	if size <= 0 {
		return nil, nil
	}
	entries, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &votedCache{entries: entries}, nil
}

func votedKey(kind models.DomainKind, exclusivityScopeID, fingerprint string) string {
	return string(kind) + "\x00" + exclusivityScopeID + "\x00" + fingerprint
}

func (c *votedCache) has(key string) bool {
	if c == nil {
		return false
	}
	return c.entries.Contains(key)
}

func (c *votedCache) mark(key string) {
	if c == nil {
		return
	}
	c.entries.Add(key, struct{}{})
}
