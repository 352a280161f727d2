package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/chatbet/chatbet/internal/sportsdata"
)

// FakeSportsProvider is an in-memory sportsdata.Provider for tests.
// Failures can be injected per method; each injected failure is
// consumed by one call.
//
// Thread-safe for concurrent use.
type FakeSportsProvider struct {
	mu sync.Mutex

	TournamentList []sportsdata.Tournament
	TeamsByTourney map[string][]sportsdata.Team
	FixtureList    []sportsdata.Fixture
	OddsByFixture  map[string]sportsdata.Odds

	failures map[string]int // method name -> remaining injected failures
	calls    map[string]int // method name -> call count
}

// NewFakeSportsProvider returns an empty fake. Populate the exported
// fields before use.
func NewFakeSportsProvider() *FakeSportsProvider {
	return &FakeSportsProvider{
		TeamsByTourney: make(map[string][]sportsdata.Team),
		OddsByFixture:  make(map[string]sportsdata.Odds),
		failures:       make(map[string]int),
		calls:          make(map[string]int),
	}
}

// FailNext makes the next n calls to the named method return an error.
// Method names: "Tournaments", "Teams", "Fixtures", "FixtureOdds".
func (f *FakeSportsProvider) FailNext(method string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = n
}

// Calls returns how many times the named method was invoked.
func (f *FakeSportsProvider) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// enter records the call and consumes one injected failure if present.
func (f *FakeSportsProvider) enter(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	if f.failures[method] > 0 {
		f.failures[method]--
		return fmt.Errorf("%w: injected %s failure", sportsdata.ErrUnavailable, method)
	}
	return nil
}

func (f *FakeSportsProvider) Tournaments(ctx context.Context, sportID int) ([]sportsdata.Tournament, error) {
	if err := f.enter("Tournaments"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sportsdata.Tournament(nil), f.TournamentList...), nil
}

func (f *FakeSportsProvider) Teams(ctx context.Context, tournamentID string) ([]sportsdata.Team, error) {
	if err := f.enter("Teams"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sportsdata.Team(nil), f.TeamsByTourney[tournamentID]...), nil
}

func (f *FakeSportsProvider) Fixtures(ctx context.Context, q sportsdata.FixtureQuery) ([]sportsdata.Fixture, error) {
	if err := f.enter("Fixtures"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []sportsdata.Fixture
	for _, fx := range f.FixtureList {
		if q.TournamentID != "" && fx.TournamentID != q.TournamentID {
			continue
		}
		if q.TeamID != "" && fx.HomeTeam.ID != q.TeamID && fx.AwayTeam.ID != q.TeamID {
			continue
		}
		if !q.From.IsZero() && fx.StartTime.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && fx.StartTime.After(q.To) {
			continue
		}
		out = append(out, fx)
	}
	return out, nil
}

func (f *FakeSportsProvider) FixtureOdds(ctx context.Context, fixtureID string) (*sportsdata.Odds, error) {
	if err := f.enter("FixtureOdds"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	odds, ok := f.OddsByFixture[fixtureID]
	if !ok {
		return nil, fmt.Errorf("%w: no odds for fixture %s", sportsdata.ErrBadRequest, fixtureID)
	}
	return &odds, nil
}
