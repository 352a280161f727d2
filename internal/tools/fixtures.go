package tools

import (
	"context"
	"sort"
	"time"

	"github.com/chatbet/chatbet/internal/namecache"
	"github.com/chatbet/chatbet/internal/session"
	"github.com/chatbet/chatbet/internal/sportsdata"
)

// FixtureInfo is the model-facing shape of a fixture.
type FixtureInfo struct {
	FixtureID string `json:"fixtureId"`
	HomeTeam  string `json:"homeTeam"`
	AwayTeam  string `json:"awayTeam"`
	StartTime string `json:"startTime"`
}

func fixtureInfo(fx sportsdata.Fixture) FixtureInfo {
	return FixtureInfo{
		FixtureID: fx.ID,
		HomeTeam:  fx.HomeTeam.Name,
		AwayTeam:  fx.AwayTeam.Name,
		StartTime: fx.StartTime.UTC().Format(time.RFC3339),
	}
}

// GetFixturesByDateInput defines input for getFixturesByDate.
type GetFixturesByDateInput struct {
	Date       string `json:"date,omitempty" jsonschema_description:"Date expression: today, tomorrow, weekend, this month, end of month, a weekday name, or YYYY-MM-DD. Defaults to today."`
	Tournament string `json:"tournament,omitempty" jsonschema_description:"Optional tournament name to filter by"`
}

// GetFixturesByDateOutput lists the fixtures in the requested window.
type GetFixturesByDateOutput struct {
	From     string        `json:"from"`
	To       string        `json:"to"`
	Fixtures []FixtureInfo `json:"fixtures"`
}

func getFixturesByDateTool() *tool {
	return newTool("getFixturesByDate",
		"List scheduled matches for a date or period, optionally within one tournament.",
		false, false,
		func(ctx context.Context, env *Env, in GetFixturesByDateInput) (any, *session.MatchContext, error) {
			from, to, err := dateRange(env.Now(), in.Date)
			if err != nil {
				return nil, nil, err
			}

			q := sportsdata.FixtureQuery{SportID: env.SportID, From: from, To: to}
			if in.Tournament != "" {
				t, err := env.Cache.Resolve(namecache.KindTournament, in.Tournament)
				if err != nil {
					return nil, nil, err
				}
				q.TournamentID = t.ID
			}

			fixtures, err := env.Provider.Fixtures(ctx, q)
			if err != nil {
				return nil, nil, err
			}

			out := GetFixturesByDateOutput{
				From: from.Format(time.RFC3339),
				To:   to.Format(time.RFC3339),
			}
			for _, fx := range fixtures {
				out.Fixtures = append(out.Fixtures, fixtureInfo(fx))
			}
			return out, nil, nil
		})
}

// FindTeamFixtureInput defines input for findTeamFixture.
type FindTeamFixtureInput struct {
	Team string `json:"team" jsonschema_description:"The team name, may be approximate"`
}

// FindTeamFixtureOutput is the team's next scheduled match.
type FindTeamFixtureOutput struct {
	Team    string      `json:"team"`
	Fixture FixtureInfo `json:"fixture"`
}

func findTeamFixtureTool() *tool {
	return newTool("findTeamFixture",
		"Find the next scheduled match for a team.",
		false, true,
		func(ctx context.Context, env *Env, in FindTeamFixtureInput) (any, *session.MatchContext, error) {
			team, err := env.Cache.Resolve(namecache.KindTeam, in.Team)
			if err != nil {
				return nil, nil, err
			}

			fixtures, err := env.Provider.Fixtures(ctx, sportsdata.FixtureQuery{
				SportID: env.SportID,
				TeamID:  team.ID,
				From:    env.Now().UTC(),
			})
			if err != nil {
				return nil, nil, err
			}
			if len(fixtures) == 0 {
				return nil, nil, Errf(CodeNotFound, "no upcoming matches for %s", team.Name)
			}

			sort.Slice(fixtures, func(i, j int) bool {
				return fixtures[i].StartTime.Before(fixtures[j].StartTime)
			})
			return FindTeamFixtureOutput{
				Team:    team.Name,
				Fixture: fixtureInfo(fixtures[0]),
			}, nil, nil
		})
}

// GetTeamsByTournamentInput defines input for getTeamsByTournament.
type GetTeamsByTournamentInput struct {
	Tournament string `json:"tournament" jsonschema_description:"The tournament name, may be approximate"`
}

// GetTeamsByTournamentOutput lists a tournament's teams.
type GetTeamsByTournamentOutput struct {
	Tournament string   `json:"tournament"`
	Teams      []string `json:"teams"`
}

func getTeamsByTournamentTool() *tool {
	return newTool("getTeamsByTournament",
		"List the teams playing in a tournament.",
		false, true,
		func(ctx context.Context, env *Env, in GetTeamsByTournamentInput) (any, *session.MatchContext, error) {
			t, err := env.Cache.Resolve(namecache.KindTournament, in.Tournament)
			if err != nil {
				return nil, nil, err
			}

			teams, err := env.Provider.Teams(ctx, t.ID)
			if err != nil {
				return nil, nil, err
			}
			if len(teams) == 0 {
				return nil, nil, Errf(CodeNotFound, "no teams found for %s", t.Name)
			}

			out := GetTeamsByTournamentOutput{Tournament: t.Name}
			for _, tm := range teams {
				out.Teams = append(out.Teams, tm.Name)
			}
			return out, nil, nil
		})
}

// findFixtureBetween locates the next fixture involving both teams.
func findFixtureBetween(ctx context.Context, env *Env, home, away namecache.Entry) (*sportsdata.Fixture, error) {
	fixtures, err := env.Provider.Fixtures(ctx, sportsdata.FixtureQuery{
		SportID: env.SportID,
		TeamID:  home.ID,
		From:    env.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(fixtures, func(i, j int) bool {
		return fixtures[i].StartTime.Before(fixtures[j].StartTime)
	})
	for _, fx := range fixtures {
		if fx.HomeTeam.ID == away.ID || fx.AwayTeam.ID == away.ID {
			return &fx, nil
		}
	}
	return nil, Errf(CodeNotFound, "no upcoming match between %s and %s", home.Name, away.Name)
}
