// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

main loads a .env file with godotenv first, so values from it behave like
ordinary environment variables.

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: Connection string (required unless DatabaseType is memory)
  - DatabaseType: postgres, pgx, sqlite or memory (default: sqlite)
  - FingerprintSalt: Secret for voter fingerprints (required)
  - AdminKeySalt: Secret for admin key HMAC (required)
  - Parties: Party catalogue for the party preference ballot
  - CastRetries: Retries after a storage failure (default: 3)
  - VotedCacheSize: Has-voted cache entries, 0 disables (default: 10000)

# CLI Flags

	-p                  Server port
	-d                  Database URL
	-t                  Database type
	--fingerprint-salt  Voter fingerprint salt
	--admin-salt        Admin key salt
	--parties           Comma-separated party catalogue
	--cast-retries      Storage failure retries
	--voted-cache       Has-voted cache size

# Environment Variables

Flags fall back to environment variables:

	PORT             → -p
	DATABASE_URL     → -d
	DATABASE_TYPE    → -t
	FINGERPRINT_SALT → --fingerprint-salt
	ADMIN_KEY_SALT   → --admin-salt
	PARTIES          → --parties
	CAST_RETRIES     → --cast-retries
	VOTED_CACHE_SIZE → --voted-cache

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if required values are missing or malformed.
Changing FINGERPRINT_SALT makes every previous voter look new, so it must
stay fixed for the lifetime of the ledger.
*/
package cliparse
