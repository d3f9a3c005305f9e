// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides voter anonymization and admin key utilities.

# Fingerprints

Voters are anonymous. Their identity for deduplication is a keyed one-way
hash of the request's network origin:

	fp := auth.Fingerprint(clientIP, salt)

The result is the 64-character hex encoding of HMAC-SHA256(salt, origin).
An empty origin hashes the "unknown" sentinel so callers never special-case
missing origin data. The raw origin is never stored or logged.

Anonymizer binds the process-wide salt loaded at startup:

	anon := auth.NewAnonymizer(cfg.FingerprintSalt)
	fp := anon.Fingerprint(clientIP)

# Admin Keys

Admin keys use HMAC-SHA256 to create deterministic, verifiable keys per
ballot domain:

	key := auth.GenerateAdminKey(auth.DomainKey("poll", pollID), salt)
	err := auth.ValidateAdminKey(auth.DomainKey("poll", pollID), key, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
validation needs no stored state.
*/
package auth
