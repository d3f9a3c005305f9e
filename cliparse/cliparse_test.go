// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	os.Clearenv()
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("FINGERPRINT_SALT", "fp-salt")
	t.Setenv("ADMIN_KEY_SALT", "admin-salt")
}

func TestParseFlags_EnvVars(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_TYPE", "PGX")
	t.Setenv("PARTIES", "left, right,,centre ")
	t.Setenv("CAST_RETRIES", "5")
	t.Setenv("VOTED_CACHE_SIZE", "0")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "pgx" {
		t.Errorf("expected database type pgx, got %q", cfg.DatabaseType)
	}
	if len(cfg.Parties) != 3 || cfg.Parties[0] != "left" || cfg.Parties[2] != "centre" {
		t.Errorf("expected [left right centre], got %v", cfg.Parties)
	}
	if cfg.CastRetries != 5 {
		t.Errorf("expected 5 retries, got %d", cfg.CastRetries)
	}
	if cfg.VotedCacheSize != 0 {
		t.Errorf("expected cache disabled, got %d", cfg.VotedCacheSize)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 3318 {
		t.Errorf("expected default port 3318, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected default sqlite, got %q", cfg.DatabaseType)
	}
	if len(cfg.Parties) != len(DefaultParties) {
		t.Errorf("expected default party catalogue, got %v", cfg.Parties)
	}
	if cfg.CastRetries != 3 || cfg.VotedCacheSize != 10000 {
		t.Errorf("expected 3 retries and 10000 cache entries, got %d and %d", cfg.CastRetries, cfg.VotedCacheSize)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("CAST_RETRIES", "5")

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:cli.db", "-fingerprint-salt", "s1", "-admin-salt", "s2", "-cast-retries", "0", "-parties", "a,b"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.DatabaseURL != "file:cli.db" || cfg.FingerprintSalt != "s1" || cfg.AdminKeySalt != "s2" {
		t.Errorf("CLI values not applied: %+v", cfg)
	}
	if cfg.CastRetries != 0 {
		t.Errorf("expected retries disabled by flag, got %d", cfg.CastRetries)
	}
	if len(cfg.Parties) != 2 {
		t.Errorf("expected 2 parties, got %v", cfg.Parties)
	}
}

func TestParseFlags_TrustedProxies(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 192.168.1.7/16,::1")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"10.0.0.1/32", "192.168.0.0/16", "::1/128"}
	if len(cfg.TrustedProxies) != len(want) {
		t.Fatalf("expected %d trusted proxies, got %v", len(want), cfg.TrustedProxies)
	}
	for i, w := range want {
		if got := cfg.TrustedProxies[i].String(); got != w {
			t.Errorf("proxy %d: expected %s, got %s", i, w, got)
		}
	}

	// The flag replaces the env list
	cfg, err = ParseFlags([]string{"-trusted-proxies", "172.16.0.0/12"})
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.TrustedProxies) != 1 || cfg.TrustedProxies[0].String() != "172.16.0.0/12" {
		t.Errorf("expected flag to override env, got %v", cfg.TrustedProxies)
	}
}

func TestParseFlags_NoTrustedProxiesByDefault(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.TrustedProxies) != 0 {
		t.Errorf("expected no trusted proxies, got %v", cfg.TrustedProxies)
	}
}

func TestParseFlags_MemoryNeedsNoURL(t *testing.T) {
	os.Clearenv()
	cfg, err := ParseFlags([]string{"-t", "memory", "-fingerprint-salt", "s1", "-admin-salt", "s2"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DatabaseType != "memory" {
		t.Errorf("expected memory, got %q", cfg.DatabaseType)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"missing fingerprint salt", map[string]string{"DATABASE_URL": "x", "ADMIN_KEY_SALT": "a"}, nil},
		{"missing admin salt", map[string]string{"DATABASE_URL": "x", "FINGERPRINT_SALT": "f"}, nil},
		{"missing database url", map[string]string{"FINGERPRINT_SALT": "f", "ADMIN_KEY_SALT": "a"}, nil},
		{"bad port", map[string]string{"PORT": "abc", "DATABASE_URL": "x", "FINGERPRINT_SALT": "f", "ADMIN_KEY_SALT": "a"}, nil},
		{"bad database type", map[string]string{"DATABASE_URL": "x", "FINGERPRINT_SALT": "f", "ADMIN_KEY_SALT": "a"}, []string{"-t", "mysql"}},
		{"bad retries", map[string]string{"CAST_RETRIES": "many", "DATABASE_URL": "x", "FINGERPRINT_SALT": "f", "ADMIN_KEY_SALT": "a"}, nil},
		{"bad trusted proxy", map[string]string{"TRUSTED_PROXIES": "10.0.0.1,proxy.local", "DATABASE_URL": "x", "FINGERPRINT_SALT": "f", "ADMIN_KEY_SALT": "a"}, nil},
		{"unknown flag", map[string]string{"DATABASE_URL": "x", "FINGERPRINT_SALT": "f", "ADMIN_KEY_SALT": "a"}, []string{"-slug-salt", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := ParseFlags(tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}
