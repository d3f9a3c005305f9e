// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package ballottest runs the ballot engine behaviour suite against any
// ballot.Store implementation.
package ballottest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/civic-ballot/auth"
	"github.com/danielhkuo/civic-ballot/ballot"
	"github.com/danielhkuo/civic-ballot/models"
)

// TestSalt is the fingerprint salt used by engines built here
const TestSalt = "test-fingerprint-salt"

// Clock is a settable clock for deterministic lifecycle tests
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// NewEngine builds an engine over store with a discarding logger. Each
// configure func may adjust the options before the engine is built.
func NewEngine(t *testing.T, store ballot.Store, clock ballot.Clock, configure ...func(*ballot.Options)) *ballot.Engine {
	t.Helper()

	opts := ballot.Options{
		Logger:  slog.New(slog.DiscardHandler),
		Clock:   clock,
		Parties: []string{"green", "blue", "white"},
	}
	for _, fn := range configure {
		fn(&opts)
	}

	engine, err := ballot.NewEngine(store, auth.NewAnonymizer(TestSalt), opts)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return engine
}

// MustRegister registers a domain or fails the test
func MustRegister(t *testing.T, e *ballot.Engine, req ballot.RegisterRequest) models.Domain {
	t.Helper()

	d, err := e.RegisterDomain(context.Background(), req)
	if err != nil {
		t.Fatalf("Failed to register %s/%s: %v", req.Kind, req.ScopeID, err)
	}
	return d
}

// AssertNoDuplicates audits a domain and fails on any ledger inconsistency
func AssertNoDuplicates(t *testing.T, e *ballot.Engine, kind models.DomainKind, scopeID string) {
	t.Helper()

	report, err := e.Audit(context.Background(), kind, scopeID)
	if err != nil {
		t.Fatalf("Audit failed: %v", err)
	}
	if report.Duplicates != 0 {
		t.Errorf("Expected no duplicate votes in %s/%s, found %d", kind, scopeID, report.Duplicates)
	}
	if !report.Consistent {
		t.Errorf("Counters %v diverge from ledger %v", report.Counters, report.Ledger)
	}
}

// Run executes the full behaviour suite. newStore must return an empty store
// for every call.
func Run(t *testing.T, newStore func(t *testing.T) ballot.Store) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	setup := func(t *testing.T) (*ballot.Engine, *Clock) {
		clock := NewClock(base)
		return NewEngine(t, newStore(t), clock), clock
	}
	setupUncached := func(t *testing.T) *ballot.Engine {
		return NewEngine(t, newStore(t), NewClock(base), func(o *ballot.Options) {
			o.VotedCacheSize = -1
		})
	}

	t.Run("PollSecondVoteRejected", func(t *testing.T) {
		e, clock := setup(t)
		ctx := context.Background()
		expires := base.Add(time.Hour)
		MustRegister(t, e, ballot.RegisterRequest{
			Kind: models.KindPoll, ScopeID: "P1", Choices: []string{"A", "B"}, ExpiresAt: &expires,
		})

		if _, err := e.CastVote(ctx, ballot.CastRequest{Kind: models.KindPoll, ScopeID: "P1", Origin: "f1", Choice: "A"}); err != nil {
			t.Fatalf("Expected first vote accepted, got %v", err)
		}
		clock.Advance(time.Second)
		_, err := e.CastVote(ctx, ballot.CastRequest{Kind: models.KindPoll, ScopeID: "P1", Origin: "f1", Choice: "B"})
		if !errors.Is(err, ballot.ErrAlreadyVoted) {
			t.Fatalf("Expected ErrAlreadyVoted, got %v", err)
		}

		tally, err := e.GetTally(ctx, models.KindPoll, "P1")
		if err != nil {
			t.Fatalf("GetTally failed: %v", err)
		}
		if tally.Count("A") != 1 || tally.Count("B") != 0 || tally.Total != 1 {
			t.Errorf("Expected A:1 B:0 total 1, got %+v", tally)
		}
		if tally.Percentage("A") != 100 || tally.Percentage("B") != 0 {
			t.Errorf("Expected A 100%% B 0%%, got A %.2f B %.2f", tally.Percentage("A"), tally.Percentage("B"))
		}
		AssertNoDuplicates(t, e, models.KindPoll, "P1")
	})

	t.Run("ConcurrentDistinctVoters", func(t *testing.T) {
		e, _ := setup(t)
		ctx := context.Background()
		MustRegister(t, e, ballot.RegisterRequest{Kind: models.KindReferendum, ScopeID: models.ScopeNational})

		const voters = 100
		var g errgroup.Group
		for i := 0; i < voters; i++ {
			origin := fmt.Sprintf("10.0.%d.%d", i/256, i%256)
			g.Go(func() error {
				_, err := e.CastVote(ctx, ballot.CastRequest{
					Kind: models.KindReferendum, ScopeID: models.ScopeNational, Origin: origin, Choice: "yes",
				})
				return err
			})
		}
		if err := g.Wait(); err != nil {
			t.Fatalf("Expected every vote accepted, got %v", err)
		}

		tally, err := e.GetTally(ctx, models.KindReferendum, models.ScopeNational)
		if err != nil {
			t.Fatalf("GetTally failed: %v", err)
		}
		if tally.Total != voters || tally.Count("yes") != voters || tally.Count("no") != 0 {
			t.Errorf("Expected yes:%d no:0 total:%d, got %+v", voters, voters, tally)
		}
		if tally.Percentage("yes") != 100 {
			t.Errorf("Expected yes 100%%, got %.2f", tally.Percentage("yes"))
		}
		AssertNoDuplicates(t, e, models.KindReferendum, models.ScopeNational)
	})

	t.Run("ConcurrentSameVoter", func(t *testing.T) {
		e, _ := setup(t)
		concurrentSameVoter(t, e, base)
	})

	t.Run("CrossDistrictExclusivity", func(t *testing.T) {
		e, _ := setup(t)
		crossDistrictExclusivity(t, e)
	})

	// Without the voted cache every duplicate reaches the store
	t.Run("NoVotedCache", func(t *testing.T) {
		t.Run("ConcurrentSameVoter", func(t *testing.T) {
			concurrentSameVoter(t, setupUncached(t), base)
		})
		t.Run("CrossDistrictExclusivity", func(t *testing.T) {
			crossDistrictExclusivity(t, setupUncached(t))
		})
	})

	t.Run("PollExpiry", func(t *testing.T) {
		e, clock := setup(t)
		ctx := context.Background()
		expires := base.Add(10 * time.Minute)
		MustRegister(t, e, ballot.RegisterRequest{
			Kind: models.KindPoll, ScopeID: "P2", Choices: []string{"A", "B"}, ExpiresAt: &expires,
		})

		if _, err := e.CastVote(ctx, ballot.CastRequest{Kind: models.KindPoll, ScopeID: "P2", Origin: "early", Choice: "A"}); err != nil {
			t.Fatalf("Expected vote before expiry accepted, got %v", err)
		}

		clock.Set(expires.Add(time.Millisecond))
		_, err := e.CastVote(ctx, ballot.CastRequest{Kind: models.KindPoll, ScopeID: "P2", Origin: "late", Choice: "A"})
		if !errors.Is(err, ballot.ErrPollExpired) {
			t.Fatalf("Expected ErrPollExpired at T+1ms, got %v", err)
		}

		// Expiry wins over a prior vote
		_, err = e.CastVote(ctx, ballot.CastRequest{Kind: models.KindPoll, ScopeID: "P2", Origin: "early", Choice: "B"})
		if !errors.Is(err, ballot.ErrPollExpired) {
			t.Errorf("Expected ErrPollExpired for prior voter, got %v", err)
		}

		clock.Set(expires)
		_, err = e.CastVote(ctx, ballot.CastRequest{Kind: models.KindPoll, ScopeID: "P2", Origin: "edge", Choice: "A"})
		if !errors.Is(err, ballot.ErrPollExpired) {
			t.Errorf("Expected ErrPollExpired at exactly T, got %v", err)
		}
	})

	t.Run("LedgerRejectsExpiredPoll", func(t *testing.T) {
		// The ledger enforces expiry itself, independent of the pre-check
		store := newStore(t)
		e := NewEngine(t, store, NewClock(base))
		expires := base.Add(time.Minute)
		MustRegister(t, e, ballot.RegisterRequest{
			Kind: models.KindPoll, ScopeID: "P3", Choices: []string{"A", "B"}, ExpiresAt: &expires,
		})

		rec := models.VoteRecord{
			ID: "late-record", Kind: models.KindPoll, ScopeID: "P3", ExclusivityScopeID: "P3",
			Fingerprint: auth.Fingerprint("late", TestSalt), Choice: "A",
		}
		_, err := store.TryCast(context.Background(), rec, NewClock(expires))
		if !errors.Is(err, ballot.ErrPollExpired) {
			t.Errorf("Expected ErrPollExpired from ledger, got %v", err)
		}
	})

	t.Run("ExpiryDuringCast", func(t *testing.T) {
		// The poll expires after the engine's pre-check but before the store
		// decides, on the first attempt or on a retry.
		for _, failures := range []int32{0, 1} {
			t.Run(fmt.Sprintf("failures=%d", failures), func(t *testing.T) {
				clock := NewClock(base)
				expires := base.Add(time.Minute)
				store := &expiringStore{Store: newStore(t), clock: clock, at: expires.Add(10 * time.Millisecond)}
				store.failures.Store(failures)
				e := NewEngine(t, store, clock)
				MustRegister(t, e, ballot.RegisterRequest{
					Kind: models.KindPoll, ScopeID: "P5", Choices: []string{"A", "B"}, ExpiresAt: &expires,
				})

				_, err := e.CastVote(context.Background(), ballot.CastRequest{Kind: models.KindPoll, ScopeID: "P5", Origin: "slow", Choice: "A"})
				if !errors.Is(err, ballot.ErrPollExpired) {
					t.Fatalf("Expected ErrPollExpired, got %v", err)
				}
				if got := store.calls.Load(); got != failures+1 {
					t.Errorf("Expected %d store attempts, got %d", failures+1, got)
				}

				tally, err := e.GetTally(context.Background(), models.KindPoll, "P5")
				if err != nil {
					t.Fatalf("GetTally failed: %v", err)
				}
				if tally.Total != 0 {
					t.Errorf("Expected no votes after expiry, got %d", tally.Total)
				}
			})
		}
	})

	t.Run("UnknownDomain", func(t *testing.T) {
		e, _ := setup(t)
		ctx := context.Background()

		_, err := e.CastVote(ctx, ballot.CastRequest{Kind: models.KindIssueSupport, ScopeID: "case-404", Origin: "f3", Choice: "support"})
		if !errors.Is(err, ballot.ErrUnknownDomain) {
			t.Errorf("Expected ErrUnknownDomain, got %v", err)
		}
		if _, err := e.GetTally(ctx, models.KindIssueSupport, "case-404"); !errors.Is(err, ballot.ErrUnknownDomain) {
			t.Errorf("Expected ErrUnknownDomain from GetTally, got %v", err)
		}
		_, err = e.CastVote(ctx, ballot.CastRequest{Kind: "petition", ScopeID: "x", Origin: "f3", Choice: "support"})
		if !errors.Is(err, ballot.ErrUnknownKind) {
			t.Errorf("Expected ErrUnknownKind, got %v", err)
		}
	})

	t.Run("InvalidChoice", func(t *testing.T) {
		e, _ := setup(t)
		ctx := context.Background()
		MustRegister(t, e, ballot.RegisterRequest{Kind: models.KindIssueSupport, ScopeID: "case-1"})
		MustRegister(t, e, ballot.RegisterRequest{Kind: models.KindPartyPreference, ScopeID: models.ScopeNational})

		tests := []struct {
			name    string
			kind    models.DomainKind
			scopeID string
			choice  string
			wantErr error
		}{
			{"support accepted", models.KindIssueSupport, "case-1", "support", nil},
			{"down rejected", models.KindIssueSupport, "case-1", "down", ballot.ErrInvalidChoice},
			{"unknown party", models.KindPartyPreference, models.ScopeNational, "purple", ballot.ErrInvalidChoice},
			{"empty choice", models.KindPartyPreference, models.ScopeNational, "  ", ballot.ErrInvalidChoice},
			{"catalogue party", models.KindPartyPreference, models.ScopeNational, "blue", nil},
		}

		for i, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := e.CastVote(ctx, ballot.CastRequest{
					Kind: tt.kind, ScopeID: tt.scopeID, Origin: fmt.Sprintf("origin-%d", i), Choice: tt.choice,
				})
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
			})
		}
	})

	t.Run("IssueSupportUpAlias", func(t *testing.T) {
		e, _ := setup(t)
		ctx := context.Background()
		MustRegister(t, e, ballot.RegisterRequest{Kind: models.KindIssueSupport, ScopeID: "case-2"})

		rec, err := e.CastVote(ctx, ballot.CastRequest{Kind: models.KindIssueSupport, ScopeID: "case-2", Origin: "f4", Choice: "UP"})
		if err != nil {
			t.Fatalf("Expected alias accepted, got %v", err)
		}
		if rec.Choice != ballot.SupportChoice {
			t.Errorf("Expected choice %q, got %q", ballot.SupportChoice, rec.Choice)
		}
	})

	t.Run("RetiredChoice", func(t *testing.T) {
		e, _ := setup(t)
		ctx := context.Background()
		expires := base.Add(time.Hour)
		MustRegister(t, e, ballot.RegisterRequest{
			Kind: models.KindPoll, ScopeID: "P4", Choices: []string{"A", "B"}, ExpiresAt: &expires,
		})

		if _, err := e.CastVote(ctx, ballot.CastRequest{Kind: models.KindPoll, ScopeID: "P4", Origin: "v1", Choice: "B"}); err != nil {
			t.Fatalf("Expected vote accepted, got %v", err)
		}
		if _, err := e.RetireChoice(ctx, models.KindPoll, "P4", "B"); err != nil {
			t.Fatalf("RetireChoice failed: %v", err)
		}

		_, err := e.CastVote(ctx, ballot.CastRequest{Kind: models.KindPoll, ScopeID: "P4", Origin: "v2", Choice: "B"})
		if !errors.Is(err, ballot.ErrInvalidChoice) {
			t.Errorf("Expected ErrInvalidChoice for retired option, got %v", err)
		}

		tally, _ := e.GetTally(ctx, models.KindPoll, "P4")
		if tally.Count("B") != 1 {
			t.Errorf("Expected recorded vote for retired option kept, got %d", tally.Count("B"))
		}

		if _, err := e.RetireChoice(ctx, models.KindReferendum, models.ScopeNational, "no"); !errors.Is(err, ballot.ErrInvalidDomain) {
			t.Errorf("Expected ErrInvalidDomain retiring a fixed choice, got %v", err)
		}
		AssertNoDuplicates(t, e, models.KindPoll, "P4")
	})

	t.Run("PercentagesSumTo100", func(t *testing.T) {
		e, _ := setup(t)
		ctx := context.Background()
		MustRegister(t, e, ballot.RegisterRequest{Kind: models.KindPartyPreference, ScopeID: models.ScopeNational})

		empty, err := e.GetTally(ctx, models.KindPartyPreference, models.ScopeNational)
		if err != nil {
			t.Fatalf("GetTally failed: %v", err)
		}
		for _, c := range empty.Choices {
			if c.Percentage != 0 {
				t.Errorf("Expected 0%% for %s with no votes, got %.2f", c.Choice, c.Percentage)
			}
		}

		parties := []string{"green", "blue", "white", "green", "green", "blue", "white"}
		for i, p := range parties {
			if _, err := e.CastVote(ctx, ballot.CastRequest{
				Kind: models.KindPartyPreference, ScopeID: models.ScopeNational, Origin: fmt.Sprintf("p-%d", i), Choice: p,
			}); err != nil {
				t.Fatalf("Vote %d failed: %v", i, err)
			}
		}

		tally, err := e.GetTally(ctx, models.KindPartyPreference, models.ScopeNational)
		if err != nil {
			t.Fatalf("GetTally failed: %v", err)
		}
		var sum float64
		for _, c := range tally.Choices {
			sum += c.Percentage
		}
		if math.Abs(sum-100) > 0.01 {
			t.Errorf("Expected percentages to sum to 100, got %.4f", sum)
		}
		if leader, ok := tally.Leader(); !ok || leader != "green" {
			t.Errorf("Expected green to lead, got %q", leader)
		}
	})

	t.Run("VoteStatus", func(t *testing.T) {
		e, _ := setup(t)
		ctx := context.Background()
		MustRegister(t, e, ballot.RegisterRequest{Kind: models.KindReferendum, ScopeID: models.ScopeNational})

		status, err := e.GetVoteStatus(ctx, models.KindReferendum, models.ScopeNational, "f5")
		if err != nil {
			t.Fatalf("GetVoteStatus failed: %v", err)
		}
		if status.Voted {
			t.Error("Expected no vote before casting")
		}

		rec, err := e.CastVote(ctx, ballot.CastRequest{Kind: models.KindReferendum, ScopeID: models.ScopeNational, Origin: "f5", Choice: "No"})
		if err != nil {
			t.Fatalf("CastVote failed: %v", err)
		}

		status, err = e.GetVoteStatus(ctx, models.KindReferendum, models.ScopeNational, "f5")
		if err != nil {
			t.Fatalf("GetVoteStatus failed: %v", err)
		}
		if !status.Voted || status.Choice != "no" {
			t.Errorf("Expected voted for no, got %+v", status)
		}
		if status.CastAt == nil || !status.CastAt.Equal(rec.CastAt) {
			t.Errorf("Expected cast time %v, got %v", rec.CastAt, status.CastAt)
		}

		if _, err := e.GetVoteStatus(ctx, models.KindPoll, "missing", "f5"); !errors.Is(err, ballot.ErrUnknownDomain) {
			t.Errorf("Expected ErrUnknownDomain, got %v", err)
		}
	})

	t.Run("RegisterDomain", func(t *testing.T) {
		e, _ := setup(t)
		ctx := context.Background()
		MustRegister(t, e, ballot.RegisterRequest{Kind: models.KindIssueSupport, ScopeID: "case-9"})

		_, err := e.RegisterDomain(ctx, ballot.RegisterRequest{Kind: models.KindIssueSupport, ScopeID: "case-9"})
		if !errors.Is(err, ballot.ErrDomainExists) {
			t.Errorf("Expected ErrDomainExists, got %v", err)
		}

		past := base.Add(-time.Minute)
		_, err = e.RegisterDomain(ctx, ballot.RegisterRequest{Kind: models.KindPoll, ScopeID: "old", Choices: []string{"A", "B"}, ExpiresAt: &past})
		if !errors.Is(err, ballot.ErrInvalidDomain) {
			t.Errorf("Expected ErrInvalidDomain for past expiry, got %v", err)
		}

		expires := base.Add(time.Hour)
		d := MustRegister(t, e, ballot.RegisterRequest{Kind: models.KindPoll, ScopeID: "new", Choices: []string{"A", "B"}, ExpiresAt: &expires})
		got, err := e.Registry().Resolve(ctx, models.KindPoll, "new")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if got.ExpiresAt == nil || !got.ExpiresAt.Equal(*d.ExpiresAt) {
			t.Errorf("Expected expiry %v, got %v", d.ExpiresAt, got.ExpiresAt)
		}
		if len(got.Choices) != 2 || got.Choices[0].ID != "A" || got.Choices[1].ID != "B" {
			t.Errorf("Expected choices [A B] in order, got %+v", got.Choices)
		}
	})

	t.Run("PlatformStats", func(t *testing.T) {
		e, _ := setup(t)
		ctx := context.Background()
		MustRegister(t, e, ballot.RegisterRequest{Kind: models.KindReferendum, ScopeID: models.ScopeNational})
		MustRegister(t, e, ballot.RegisterRequest{Kind: models.KindIssueSupport, ScopeID: "case-1"})
		MustRegister(t, e, ballot.RegisterRequest{Kind: models.KindIssueSupport, ScopeID: "case-2"})

		casts := []ballot.CastRequest{
			{Kind: models.KindReferendum, ScopeID: models.ScopeNational, Origin: "a", Choice: "yes"},
			{Kind: models.KindReferendum, ScopeID: models.ScopeNational, Origin: "b", Choice: "no"},
			{Kind: models.KindIssueSupport, ScopeID: "case-1", Origin: "a", Choice: "support"},
			{Kind: models.KindIssueSupport, ScopeID: "case-2", Origin: "a", Choice: "support"},
			{Kind: models.KindIssueSupport, ScopeID: "case-2", Origin: "a", Choice: "support"},
		}
		for _, c := range casts {
			_, _ = e.CastVote(ctx, c)
		}

		stats, err := e.PlatformStats(ctx)
		if err != nil {
			t.Fatalf("PlatformStats failed: %v", err)
		}
		if stats.TotalVotes != 4 {
			t.Errorf("Expected 4 total votes, got %d", stats.TotalVotes)
		}
		if stats.ByKind[models.KindIssueSupport] != 2 || stats.ByKind[models.KindReferendum] != 2 {
			t.Errorf("Unexpected per-kind totals: %v", stats.ByKind)
		}
	})
}

// concurrentSameVoter races one origin across a poll and expects exactly
// one accepted vote.
func concurrentSameVoter(t *testing.T, e *ballot.Engine, base time.Time) {
	ctx := context.Background()
	expires := base.Add(time.Hour)
	MustRegister(t, e, ballot.RegisterRequest{
		Kind: models.KindPoll, ScopeID: "race", Choices: []string{"A", "B", "C"}, ExpiresAt: &expires,
	})

	const attempts = 50
	choices := []string{"A", "B", "C"}
	var accepted, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := e.CastVote(ctx, ballot.CastRequest{
				Kind: models.KindPoll, ScopeID: "race", Origin: "203.0.113.7", Choice: choices[i%len(choices)],
			})
			switch {
			case err == nil:
				accepted.Add(1)
			case errors.Is(err, ballot.ErrAlreadyVoted):
				rejected.Add(1)
			default:
				t.Errorf("Unexpected cast error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if accepted.Load() != 1 {
		t.Errorf("Expected exactly 1 accepted vote, got %d", accepted.Load())
	}
	if rejected.Load() != attempts-1 {
		t.Errorf("Expected %d already-voted rejections, got %d", attempts-1, rejected.Load())
	}

	tally, err := e.GetTally(ctx, models.KindPoll, "race")
	if err != nil {
		t.Fatalf("GetTally failed: %v", err)
	}
	if tally.Total != 1 {
		t.Errorf("Expected total 1, got %d", tally.Total)
	}
	AssertNoDuplicates(t, e, models.KindPoll, "race")
}

func crossDistrictExclusivity(t *testing.T, e *ballot.Engine) {
	ctx := context.Background()
	MustRegister(t, e, ballot.RegisterRequest{Kind: models.KindDistrictElection, ScopeID: "D1", Choices: []string{"c1", "c2"}})
	MustRegister(t, e, ballot.RegisterRequest{Kind: models.KindDistrictElection, ScopeID: "D9", Choices: []string{"c5", "c6"}})

	if _, err := e.CastVote(ctx, ballot.CastRequest{Kind: models.KindDistrictElection, ScopeID: "D1", Origin: "f2", Choice: "c1"}); err != nil {
		t.Fatalf("Expected vote in D1 accepted, got %v", err)
	}
	_, err := e.CastVote(ctx, ballot.CastRequest{Kind: models.KindDistrictElection, ScopeID: "D9", Origin: "f2", Choice: "c5"})
	if !errors.Is(err, ballot.ErrAlreadyVoted) {
		t.Fatalf("Expected ErrAlreadyVoted in D9, got %v", err)
	}

	status, err := e.GetVoteStatus(ctx, models.KindDistrictElection, "D9", "f2")
	if err != nil {
		t.Fatalf("GetVoteStatus failed: %v", err)
	}
	if !status.Voted || status.ScopeID != "D1" || status.Choice != "c1" {
		t.Errorf("Expected vote recorded in D1 for c1, got %+v", status)
	}

	d9, _ := e.GetTally(ctx, models.KindDistrictElection, "D9")
	if d9.Total != 0 {
		t.Errorf("Expected no votes in D9, got %d", d9.Total)
	}
}

// expiringStore moves the clock past expiry as each cast reaches the store.
// The first failures attempts then report a storage failure.
type expiringStore struct {
	ballot.Store
	clock    *Clock
	at       time.Time
	failures atomic.Int32
	calls    atomic.Int32
}

func (s *expiringStore) TryCast(ctx context.Context, rec models.VoteRecord, clock ballot.Clock) (models.VoteRecord, error) {
	s.calls.Add(1)
	s.clock.Set(s.at)
	if s.failures.Add(-1) >= 0 {
		return models.VoteRecord{}, ballot.NewStorageError("cast", errors.New("connection reset"))
	}
	return s.Store.TryCast(ctx, rec, clock)
}
