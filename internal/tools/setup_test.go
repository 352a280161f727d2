package tools_test

import (
	"context"
	"testing"
	"time"

	"github.com/chatbet/chatbet/internal/log"
	"github.com/chatbet/chatbet/internal/namecache"
	"github.com/chatbet/chatbet/internal/session"
	"github.com/chatbet/chatbet/internal/sportsdata"
	"github.com/chatbet/chatbet/internal/testutil"
	"github.com/chatbet/chatbet/internal/tools"
)

// testNow is the fixed clock for all tool tests: a Wednesday.
var testNow = time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

// seededFake builds a provider with two tournaments and three fixtures:
// two today, one on the coming Saturday.
func seededFake() *testutil.FakeSportsProvider {
	p := testutil.NewFakeSportsProvider()
	p.TournamentList = []sportsdata.Tournament{
		{ID: "t1", Name: "Premier League"},
		{ID: "t2", Name: "La Liga"},
	}
	p.TeamsByTourney["t1"] = []sportsdata.Team{
		{ID: "ars", Name: "Arsenal"},
		{ID: "che", Name: "Chelsea"},
		{ID: "mun", Name: "Manchester United"},
		{ID: "mci", Name: "Manchester City"},
	}
	p.TeamsByTourney["t2"] = []sportsdata.Team{
		{ID: "rma", Name: "Real Madrid"},
		{ID: "bar", Name: "Barcelona"},
	}
	p.FixtureList = []sportsdata.Fixture{
		{
			ID: "fx1", TournamentID: "t1",
			HomeTeam:  sportsdata.Team{ID: "ars", Name: "Arsenal"},
			AwayTeam:  sportsdata.Team{ID: "che", Name: "Chelsea"},
			StartTime: testNow.Add(6 * time.Hour),
		},
		{
			ID: "fx2", TournamentID: "t2",
			HomeTeam:  sportsdata.Team{ID: "rma", Name: "Real Madrid"},
			AwayTeam:  sportsdata.Team{ID: "bar", Name: "Barcelona"},
			StartTime: time.Date(2026, 8, 29, 20, 0, 0, 0, time.UTC), // Saturday
		},
		{
			ID: "fx3", TournamentID: "t1",
			HomeTeam:  sportsdata.Team{ID: "mun", Name: "Manchester United"},
			AwayTeam:  sportsdata.Team{ID: "mci", Name: "Manchester City"},
			StartTime: testNow.Add(8 * time.Hour),
		},
	}
	p.OddsByFixture["fx1"] = sportsdata.Odds{FixtureID: "fx1", Home: 1.8, Draw: 3.4, Away: 4.2}
	p.OddsByFixture["fx2"] = sportsdata.Odds{FixtureID: "fx2", Home: 2.1, Draw: 3.2, Away: 3.1}
	p.OddsByFixture["fx3"] = sportsdata.Odds{FixtureID: "fx3", Home: 5.0, Draw: 4.0, Away: 1.5}
	return p
}

// newTestRegistry returns a registry with a ready name cache.
func newTestRegistry(t *testing.T, p *testutil.FakeSportsProvider) *tools.Registry {
	t.Helper()

	cache := namecache.NewManager(p, namecache.Config{
		SportID:    1,
		Threshold:  0.8,
		RetryDelay: time.Millisecond,
	}, log.NewNop())
	cache.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cache.WaitReady(ctx); err != nil {
		t.Fatalf("cache build failed: %v", err)
	}

	return tools.NewRegistry(p, cache, tools.Config{
		SportID: 1,
		Now:     func() time.Time { return testNow },
	}, log.NewNop())
}

// newColdRegistry returns a registry whose cache never becomes ready.
func newColdRegistry(t *testing.T, p *testutil.FakeSportsProvider) *tools.Registry {
	t.Helper()

	cache := namecache.NewManager(p, namecache.Config{
		SportID:    1,
		Threshold:  0.8,
		RetryDelay: time.Millisecond,
	}, log.NewNop())
	// Start never called.

	return tools.NewRegistry(p, cache, tools.Config{
		SportID: 1,
		Now:     func() time.Time { return testNow },
	}, log.NewNop())
}

// execute is a shorthand that runs a tool against a fresh state.
func execute(r *tools.Registry, state *session.State, name string, args map[string]any) tools.Result {
	return r.Execute(context.Background(), tools.Invocation{Name: name, Args: args}, state)
}
