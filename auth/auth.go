// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
)

// UnknownOrigin stands in for requests without usable origin data
const UnknownOrigin = "unknown"

// FingerprintLen is the length of every fingerprint (hex encoded SHA-256)
const FingerprintLen = 64

// Fingerprint derives the anonymized voter identity for a network origin.
// Deterministic for a given salt, and one-way: the origin cannot be recovered
// without the salt.
func Fingerprint(origin, salt string) string {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		origin = UnknownOrigin
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(origin))
	return hex.EncodeToString(h.Sum(nil))
}

// Anonymizer binds the process-wide salt so callers never handle it
type Anonymizer struct {
	salt string
}

func NewAnonymizer(salt string) *Anonymizer {
	return &Anonymizer{salt: salt}
}

func (a *Anonymizer) Fingerprint(origin string) string {
	return Fingerprint(origin, a.salt)
}

// DomainKey is the canonical string form of a ballot domain
func DomainKey(kind, scopeID string) string {
	return kind + "/" + scopeID
}

// GenerateAdminKey creates an HMAC-based admin key for a ballot domain
// This is deterministic and verifiable
func GenerateAdminKey(domainKey, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(domainKey))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateAdminKey checks if the provided admin key is valid for the domain
func ValidateAdminKey(domainKey, adminKey, salt string) error {
	expected := GenerateAdminKey(domainKey, salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}
