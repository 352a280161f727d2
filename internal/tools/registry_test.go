package tools_test

import (
	"testing"

	"github.com/chatbet/chatbet/internal/session"
	"github.com/chatbet/chatbet/internal/tools"
)

func TestExecuteUnknownTool(t *testing.T) {
	r := newTestRegistry(t, seededFake())
	state := session.NewState("s1", 1000)

	res := execute(r, state, "launchRocket", nil)
	if res.Err == nil || res.Err.Code != tools.CodeUnknownTool {
		t.Fatalf("expected unknown_tool, got %+v", res)
	}
}

func TestExecuteSchemaValidation(t *testing.T) {
	r := newTestRegistry(t, seededFake())
	state := session.NewState("s1", 1000)

	// findTeamFixture requires a team argument.
	res := execute(r, state, "findTeamFixture", map[string]any{})
	if res.Err == nil || res.Err.Code != tools.CodeInvalidArguments {
		t.Fatalf("expected invalid_arguments for missing team, got %+v", res)
	}

	// Wrong argument type must also fail before the handler runs.
	res = execute(r, state, "placeBet", map[string]any{"selection": "home", "stake": "a lot"})
	if res.Err == nil || res.Err.Code != tools.CodeInvalidArguments {
		t.Fatalf("expected invalid_arguments for bad stake type, got %+v", res)
	}
}

func TestExecuteCacheGate(t *testing.T) {
	r := newColdRegistry(t, seededFake())
	state := session.NewState("s1", 1000)

	for _, name := range []string{"findTeamFixture", "getTeamsByTournament", "getOddsForMatch"} {
		res := execute(r, state, name, map[string]any{
			"team": "Arsenal", "tournament": "Premier League",
		})
		if res.Err == nil || res.Err.Code != tools.CodeCacheUnready {
			t.Errorf("%s: expected cache_unready, got %+v", name, res)
		}
	}

	// Tools that need no name resolution still work while building.
	res := execute(r, state, "getBalance", nil)
	if res.Err != nil {
		t.Errorf("getBalance should not be cache gated, got %+v", res.Err)
	}
}

func TestGateBlocksProviderCalls(t *testing.T) {
	// The gate is checked before anything else runs: calls fail fast
	// while the cache builds, without touching the provider.
	p := seededFake()
	r := newColdRegistry(t, p)
	state := session.NewState("s1", 1000)

	execute(r, state, "findTeamFixture", map[string]any{"team": "Arsenal"})
	if got := p.Calls("Fixtures"); got != 0 {
		t.Errorf("provider must not be called while cache is unready, got %d calls", got)
	}
}

func TestNamesAndMutating(t *testing.T) {
	r := newTestRegistry(t, seededFake())

	names := r.Names()
	if len(names) != 11 {
		t.Fatalf("expected 11 tools, got %d: %v", len(names), names)
	}

	for _, name := range names {
		want := name == "placeBet"
		if got := r.Mutating(name); got != want {
			t.Errorf("Mutating(%s) = %v, want %v", name, got, want)
		}
	}
}

func TestFindTeamFixture(t *testing.T) {
	r := newTestRegistry(t, seededFake())
	state := session.NewState("s1", 1000)

	res := execute(r, state, "findTeamFixture", map[string]any{"team": "arsenal"})
	if res.Err != nil {
		t.Fatalf("findTeamFixture failed: %v", res.Err)
	}
	out, ok := res.Output.(tools.FindTeamFixtureOutput)
	if !ok {
		t.Fatalf("unexpected output type %T", res.Output)
	}
	if out.Fixture.FixtureID != "fx1" {
		t.Errorf("expected fx1, got %+v", out.Fixture)
	}
}

func TestGetFixturesByDate(t *testing.T) {
	r := newTestRegistry(t, seededFake())
	state := session.NewState("s1", 1000)

	res := execute(r, state, "getFixturesByDate", map[string]any{"date": "today"})
	if res.Err != nil {
		t.Fatalf("getFixturesByDate failed: %v", res.Err)
	}
	out := res.Output.(tools.GetFixturesByDateOutput)
	if len(out.Fixtures) != 2 {
		t.Errorf("expected 2 fixtures today, got %d", len(out.Fixtures))
	}

	// The weekend window catches only the Saturday clasico.
	res = execute(r, state, "getFixturesByDate", map[string]any{"date": "weekend"})
	out = res.Output.(tools.GetFixturesByDateOutput)
	if len(out.Fixtures) != 1 || out.Fixtures[0].FixtureID != "fx2" {
		t.Errorf("expected only fx2 on the weekend, got %+v", out.Fixtures)
	}

	// Tournament filter narrows to one league.
	res = execute(r, state, "getFixturesByDate", map[string]any{
		"date": "this month", "tournament": "la liga",
	})
	out = res.Output.(tools.GetFixturesByDateOutput)
	if len(out.Fixtures) != 1 || out.Fixtures[0].FixtureID != "fx2" {
		t.Errorf("expected only fx2 in La Liga, got %+v", out.Fixtures)
	}
}

func TestGetTeamsByTournament(t *testing.T) {
	r := newTestRegistry(t, seededFake())
	state := session.NewState("s1", 1000)

	res := execute(r, state, "getTeamsByTournament", map[string]any{"tournament": "premier league"})
	if res.Err != nil {
		t.Fatalf("getTeamsByTournament failed: %v", res.Err)
	}
	out := res.Output.(tools.GetTeamsByTournamentOutput)
	if out.Tournament != "Premier League" || len(out.Teams) != 4 {
		t.Errorf("unexpected output: %+v", out)
	}
}

func TestResolveFailureBecomesNotFound(t *testing.T) {
	r := newTestRegistry(t, seededFake())
	state := session.NewState("s1", 1000)

	res := execute(r, state, "findTeamFixture", map[string]any{"team": "Bayern Munich"})
	if res.Err == nil || res.Err.Code != tools.CodeNotFound {
		t.Fatalf("expected not_found for unknown team, got %+v", res)
	}
}

func TestProviderFailureBecomesProviderError(t *testing.T) {
	p := seededFake()
	r := newTestRegistry(t, p)
	state := session.NewState("s1", 1000)

	p.FailNext("Fixtures", 1)
	res := execute(r, state, "findTeamFixture", map[string]any{"team": "Arsenal"})
	if res.Err == nil || res.Err.Code != tools.CodeProviderError {
		t.Fatalf("expected provider_error, got %+v", res)
	}
}
