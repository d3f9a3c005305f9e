// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("UNIQUE constraint failed"), false},
		{"pq unique", &pq.Error{Code: "23505"}, true},
		{"pq foreign key", &pq.Error{Code: "23503"}, false},
		{"pgx unique", &pgconn.PgError{Code: "23505"}, true},
		{"wrapped pgx unique", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"pgx serialization", &pgconn.PgError{Code: "40001"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsUniqueViolation_SQLite(t *testing.T) {
	conn, err := Open(context.Background(), TypeSQLite, "file:"+filepath.Join(t.TempDir(), "unique.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer conn.Close()

	if err := CreateSchema(conn); err != nil {
		t.Fatalf("CreateSchema failed: %v", err)
	}

	insert := `INSERT INTO ballot_domain (kind, scope_id, created_at_ms) VALUES ($1, $2, $3)`
	if _, err := conn.Exec(insert, "poll", "p1", 1); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	_, err = conn.Exec(insert, "poll", "p1", 2)
	if !isUniqueViolation(err) {
		t.Errorf("Expected unique violation, got %v", err)
	}
}
