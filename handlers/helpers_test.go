// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"testing"

	"github.com/danielhkuo/civic-ballot/ballot"
	"github.com/danielhkuo/civic-ballot/cliparse"
	"github.com/danielhkuo/civic-ballot/testutil"
)

func setupEngine(t *testing.T) (*ballot.Engine, cliparse.Config) {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	return testutil.NewTestEngine(t, conn, cfg), cfg
}

func withBallot(req *http.Request, kind, scopeID string) *http.Request {
	req.SetPathValue("kind", kind)
	req.SetPathValue("scope", scopeID)
	return req
}
