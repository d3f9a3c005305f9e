package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
)

// DefaultParties is the party catalogue used when PARTIES is not set
var DefaultParties = []string{"green", "blue", "white", "independent"}

type Config struct {
	Port            int
	DatabaseURL     string
	DatabaseType    string
	FingerprintSalt string
	AdminKeySalt    string
	Parties         []string
	CastRetries     int
	VotedCacheSize  int

	// TrustedProxies are the peers whose X-Forwarded-For and X-Real-IP
	// headers are honored. Empty means forwarding headers are ignored.
	TrustedProxies []netip.Prefix
}

// ParseFlags validates flags and fills unset values from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var parties, proxies string

	fs := flag.NewFlagSet("civic-ballot", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (postgres, pgx, sqlite or memory)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.FingerprintSalt, "fingerprint-salt", "", "Voter fingerprint salt (prefer env)")
	fs.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")

	// Ballot tuning
	fs.StringVar(&parties, "parties", "", "Comma-separated party catalogue")
	fs.IntVar(&cfg.CastRetries, "cast-retries", -1, "Retries after a storage failure while casting")
	fs.IntVar(&cfg.VotedCacheSize, "voted-cache", -1, "Has-voted cache entries (0 disables)")

	// Reverse proxies allowed to report the client address
	fs.StringVar(&proxies, "trusted-proxies", "", "Comma-separated proxy IPs or CIDRs")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		port, err := envInt("PORT", 3318)
		if err != nil {
			return Config{}, err
		}
		cfg.Port = port
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	cfg.DatabaseType = strings.ToLower(cfg.DatabaseType)
	switch cfg.DatabaseType {
	case "postgres", "pgx", "sqlite", "memory":
	default:
		return Config{}, fmt.Errorf("unsupported DATABASE_TYPE %q", cfg.DatabaseType)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" && cfg.DatabaseType != "memory" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	// Secrets - MUST be provided
	if cfg.FingerprintSalt == "" {
		cfg.FingerprintSalt = os.Getenv("FINGERPRINT_SALT")
	}
	if cfg.FingerprintSalt == "" {
		return Config{}, errors.New("FINGERPRINT_SALT required")
	}

	if cfg.AdminKeySalt == "" {
		cfg.AdminKeySalt = os.Getenv("ADMIN_KEY_SALT")
	}
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}

	if parties == "" {
		parties = os.Getenv("PARTIES")
	}
	cfg.Parties = splitList(parties)
	if len(cfg.Parties) == 0 {
		cfg.Parties = append([]string(nil), DefaultParties...)
	}

	if proxies == "" {
		proxies = os.Getenv("TRUSTED_PROXIES")
	}
	trusted, err := parseProxies(proxies)
	if err != nil {
		return Config{}, err
	}
	cfg.TrustedProxies = trusted

	if cfg.CastRetries < 0 {
		retries, err := envInt("CAST_RETRIES", 3)
		if err != nil {
			return Config{}, err
		}
		cfg.CastRetries = retries
	}
	if cfg.VotedCacheSize < 0 {
		size, err := envInt("VOTED_CACHE_SIZE", 10000)
		if err != nil {
			return Config{}, err
		}
		cfg.VotedCacheSize = size
	}
	if cfg.CastRetries < 0 || cfg.VotedCacheSize < 0 {
		return Config{}, errors.New("CAST_RETRIES and VOTED_CACHE_SIZE must not be negative")
	}

	return cfg, nil
}

func envInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", name)
	}
	return n, nil
}

// parseProxies accepts addresses and prefixes. A bare address trusts that
// host only.
func parseProxies(s string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, entry := range splitList(s) {
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q", entry)
			}
			out = append(out, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q", entry)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
