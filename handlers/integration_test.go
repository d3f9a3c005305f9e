// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/civic-ballot/models"
	"github.com/danielhkuo/civic-ballot/testutil"
)

// TestFullElectionWorkflow tests the complete end-to-end workflow:
// 1. Register two districts
// 2. Voters cast in their districts
// 3. A voter tries a second district
// 4. Retire a candidate
// 5. Check vote status
// 6. Verify tallies, audit and platform stats
func TestFullElectionWorkflow(t *testing.T) {
	engine, cfg := setupEngine(t)
	ballotHandler := NewBallotHandler(engine, cfg)
	votingHandler := NewVotingHandler(engine, cfg)
	resultsHandler := NewResultsHandler(engine, cfg)

	// Step 1: Register districts
	adminKeys := make(map[string]string)
	for _, district := range []string{"north", "south"} {
		req := testutil.MakeRequest("POST", "/ballots/district_election/"+district,
			models.RegisterDomainRequest{Choices: []string{"alice", "bob", "carol"}}, nil)
		w := httptest.NewRecorder()
		ballotHandler.RegisterDomain(w, withBallot(req, "district_election", district))

		if w.Code != http.StatusCreated {
			t.Fatalf("Step 1 - Register %s failed: %d - %s", district, w.Code, w.Body.String())
		}
		var resp models.RegisterDomainResponse
		testutil.AssertJSON(t, w, &resp)
		adminKeys[district] = resp.AdminKey
	}
	t.Log("Step 1 - Registered districts")

	// Step 2: Voters cast
	cast := func(district, origin, choice string) int {
		req := testutil.MakeRequest("POST", "/ballots/district_election/"+district+"/votes",
			models.CastVoteRequest{Choice: choice}, nil)
		req = testutil.FromOrigin(withBallot(req, "district_election", district), origin)
		w := httptest.NewRecorder()
		votingHandler.CastVote(w, req)
		return w.Code
	}

	votes := []struct {
		district, origin, choice string
	}{
		{"north", "192.0.2.1", "alice"},
		{"north", "192.0.2.2", "alice"},
		{"north", "192.0.2.3", "bob"},
		{"south", "192.0.2.4", "carol"},
	}
	for _, v := range votes {
		if code := cast(v.district, v.origin, v.choice); code != http.StatusCreated {
			t.Fatalf("Step 2 - Vote from %s failed: %d", v.origin, code)
		}
	}
	t.Logf("Step 2 - Cast %d votes", len(votes))

	// Step 3: One national election, one vote
	if code := cast("south", "192.0.2.1", "carol"); code != http.StatusConflict {
		t.Fatalf("Step 3 - Expected 409 for second district, got %d", code)
	}
	t.Log("Step 3 - Cross-district vote rejected")

	// Step 4: Retire a candidate
	req := testutil.MakeRequest("POST", "/ballots/district_election/north/choices/bob/retire",
		nil, map[string]string{"X-Admin-Key": adminKeys["north"]})
	req = withBallot(req, "district_election", "north")
	req.SetPathValue("choice", "bob")
	w := httptest.NewRecorder()
	ballotHandler.RetireChoice(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Step 4 - Retire failed: %d - %s", w.Code, w.Body.String())
	}
	if code := cast("north", "192.0.2.5", "bob"); code != http.StatusBadRequest {
		t.Fatalf("Step 4 - Expected retired candidate rejected, got %d", code)
	}
	t.Log("Step 4 - Retired bob")

	// Step 5: Vote status follows the voter across districts
	req = testutil.FromOrigin(withBallot(testutil.MakeRequest("GET", "/ballots/district_election/south/status", nil, nil),
		"district_election", "south"), "192.0.2.1")
	w = httptest.NewRecorder()
	votingHandler.GetVoteStatus(w, req)
	var status models.VoteStatus
	testutil.AssertJSON(t, w, &status)
	if !status.Voted || status.ScopeID != "north" || status.Choice != "alice" {
		t.Fatalf("Step 5 - Unexpected status: %+v", status)
	}
	if status.CastAt == nil || status.CastAt.After(time.Now()) {
		t.Errorf("Step 5 - Unexpected cast time: %v", status.CastAt)
	}
	t.Log("Step 5 - Vote status verified")

	// Step 6: Tallies keep votes for retired candidates
	req = withBallot(testutil.MakeRequest("GET", "/ballots/district_election/north/tally", nil, nil), "district_election", "north")
	w = httptest.NewRecorder()
	resultsHandler.GetTally(w, req)
	var tally models.TallyResponse
	testutil.AssertJSON(t, w, &tally)
	if tally.Total != 3 || tally.Count("alice") != 2 || tally.Count("bob") != 1 {
		t.Fatalf("Step 6 - Unexpected north tally: %+v", tally)
	}
	if leader, ok := tally.Leader(); !ok || leader != "alice" {
		t.Errorf("Step 6 - Expected alice leading, got %q", leader)
	}

	req = testutil.MakeRequest("GET", "/ballots/district_election/north/audit", nil, map[string]string{"X-Admin-Key": adminKeys["north"]})
	w = httptest.NewRecorder()
	ballotHandler.Audit(w, withBallot(req, "district_election", "north"))
	var report models.AuditReport
	testutil.AssertJSON(t, w, &report)
	if !report.Consistent {
		t.Errorf("Step 6 - Expected consistent audit, got %+v", report)
	}

	w = httptest.NewRecorder()
	resultsHandler.GetStats(w, testutil.MakeRequest("GET", "/stats", nil, nil))
	var stats models.StatsResponse
	testutil.AssertJSON(t, w, &stats)
	if stats.TotalVotes != 4 || stats.ByKind[models.KindDistrictElection] != 4 {
		t.Errorf("Step 6 - Unexpected stats: %+v", stats)
	}
	t.Log("Step 6 - Results verified")
}
