// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/civic-ballot/auth"
	"github.com/danielhkuo/civic-ballot/ballot"
	"github.com/danielhkuo/civic-ballot/cliparse"
	"github.com/danielhkuo/civic-ballot/db"
	"github.com/danielhkuo/civic-ballot/models"
)

// TestDBURLEnv names the variable that points the tests at PostgreSQL.
// Without it every test gets its own SQLite file.
const TestDBURLEnv = "TEST_DATABASE_URL"

// SetupTestDB creates a fresh test database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	var conn *sql.DB
	var err error
	if url := os.Getenv(TestDBURLEnv); url != "" {
		conn, err = db.Open(ctx, db.TypePostgres, url)
	} else {
		conn, err = db.Open(ctx, db.TypeSQLite, "file:"+filepath.Join(t.TempDir(), "ledger.db"))
	}
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// Clean up tables before each test
	if err := db.DropSchema(conn); err != nil {
		t.Fatalf("Failed to clean database: %v", err)
	}
	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            3318,
		DatabaseType:    db.TypeSQLite,
		FingerprintSalt: "test-fingerprint-salt",
		AdminKeySalt:    "test-admin-salt",
		Parties:         []string{"green", "blue", "white"},
		CastRetries:     2,
		VotedCacheSize:  1000,
	}
}

// NewTestEngine builds an engine over the SQL ledger in conn
func NewTestEngine(t *testing.T, conn *sql.DB, cfg cliparse.Config) *ballot.Engine {
	t.Helper()

	engine, err := ballot.NewEngine(db.NewLedger(conn), auth.NewAnonymizer(cfg.FingerprintSalt), ballot.Options{
		Logger:         slog.New(slog.DiscardHandler),
		CastRetries:    cfg.CastRetries,
		VotedCacheSize: cfg.VotedCacheSize,
		Parties:        cfg.Parties,
	})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return engine
}

// RegisterTestBallot registers a ballot and returns its admin key.
// Polls get an expiry one hour out.
func RegisterTestBallot(t *testing.T, engine *ballot.Engine, cfg cliparse.Config, kind models.DomainKind, scopeID string, choices ...string) string {
	t.Helper()

	req := ballot.RegisterRequest{Kind: kind, ScopeID: scopeID, Choices: choices}
	if kind == models.KindPoll {
		expiresAt := time.Now().Add(time.Hour)
		req.ExpiresAt = &expiresAt
	}
	d, err := engine.RegisterDomain(context.Background(), req)
	if err != nil {
		t.Fatalf("Failed to register test ballot %s/%s: %v", kind, scopeID, err)
	}
	return auth.GenerateAdminKey(auth.DomainKey(string(d.Kind), d.ScopeID), cfg.AdminKeySalt)
}

// CastTestVote casts a vote directly through the engine
func CastTestVote(t *testing.T, engine *ballot.Engine, kind models.DomainKind, scopeID, origin, choice string) models.VoteRecord {
	t.Helper()

	rec, err := engine.CastVote(context.Background(), ballot.CastRequest{
		Kind: kind, ScopeID: scopeID, Origin: origin, Choice: choice,
	})
	if err != nil {
		t.Fatalf("Failed to cast test vote: %v", err)
	}
	return rec
}

// MakeRequest creates an HTTP request with optional JSON body and headers
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// FromOrigin sets the client address seen by the handlers
func FromOrigin(req *http.Request, origin string) *http.Request {
	req.RemoteAddr = origin + ":40000"
	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
