package tools

import (
	"context"
	"math"

	"github.com/chatbet/chatbet/internal/namecache"
	"github.com/chatbet/chatbet/internal/session"
	"github.com/chatbet/chatbet/internal/sportsdata"
)

// OddsInfo is the model-facing shape of match-winner odds.
type OddsInfo struct {
	Fixture  FixtureInfo `json:"fixture"`
	HomeOdds float64     `json:"homeOdds"`
	DrawOdds float64     `json:"drawOdds,omitempty"`
	AwayOdds float64     `json:"awayOdds"`
}

// GetOddsForMatchInput defines input for getOddsForMatch.
type GetOddsForMatchInput struct {
	Team     string `json:"team" jsonschema_description:"One team in the match, may be approximate"`
	Opponent string `json:"opponent,omitempty" jsonschema_description:"The other team, if the user named one"`
}

func getOddsForMatchTool() *tool {
	return newTool("getOddsForMatch",
		"Get match-winner odds for a team's next match, or for a specific pairing. Remembers the match for follow-up questions and bets.",
		false, true,
		func(ctx context.Context, env *Env, in GetOddsForMatchInput) (any, *session.MatchContext, error) {
			team, err := env.Cache.Resolve(namecache.KindTeam, in.Team)
			if err != nil {
				return nil, nil, err
			}

			var fx *sportsdata.Fixture
			if in.Opponent != "" {
				opponent, err := env.Cache.Resolve(namecache.KindTeam, in.Opponent)
				if err != nil {
					return nil, nil, err
				}
				fx, err = findFixtureBetween(ctx, env, team, opponent)
				if err != nil {
					return nil, nil, err
				}
			} else {
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
				earliest := fixtures[0]
				for _, f := range fixtures[1:] {
					if f.StartTime.Before(earliest.StartTime) {
						earliest = f
					}
				}
				fx = &earliest
			}

			odds, err := env.Provider.FixtureOdds(ctx, fx.ID)
			if err != nil {
				return nil, nil, err
			}

			match := &session.MatchContext{
				FixtureID: fx.ID,
				HomeTeam:  fx.HomeTeam.Name,
				AwayTeam:  fx.AwayTeam.Name,
				StartTime: fx.StartTime.UTC(),
				HomeOdds:  odds.Home,
				DrawOdds:  odds.Draw,
				AwayOdds:  odds.Away,
			}

			return OddsInfo{
				Fixture:  fixtureInfo(*fx),
				HomeOdds: odds.Home,
				DrawOdds: odds.Draw,
				AwayOdds: odds.Away,
			}, match, nil
		})
}

// GetOddsForOutcomeInput defines input for getOddsForOutcome.
type GetOddsForOutcomeInput struct {
	Selection string `json:"selection" jsonschema_description:"Which outcome: home, draw, or away"`
}

// GetOddsForOutcomeOutput is one outcome's odds on the remembered match.
type GetOddsForOutcomeOutput struct {
	HomeTeam  string  `json:"homeTeam"`
	AwayTeam  string  `json:"awayTeam"`
	Selection string  `json:"selection"`
	Odds      float64 `json:"odds"`
}

func getOddsForOutcomeTool() *tool {
	return newTool("getOddsForOutcome",
		"Get the odds for one outcome (home, draw, away) of the match from the current conversation.",
		false, false,
		func(ctx context.Context, env *Env, in GetOddsForOutcomeInput) (any, *session.MatchContext, error) {
			match, ok := env.View.Match()
			if !ok {
				return nil, nil, Errf(CodeNoMatchContext,
					"no match in this conversation yet, ask for a match's odds first")
			}

			odds, err := selectionOdds(match, in.Selection)
			if err != nil {
				return nil, nil, err
			}

			return GetOddsForOutcomeOutput{
				HomeTeam:  match.HomeTeam,
				AwayTeam:  match.AwayTeam,
				Selection: in.Selection,
				Odds:      odds,
			}, nil, nil
		})
}

// selectionOdds picks one outcome's odds out of a match context.
func selectionOdds(match session.MatchContext, selection string) (float64, error) {
	switch selection {
	case "home":
		return match.HomeOdds, nil
	case "draw":
		if match.DrawOdds == 0 {
			return 0, Errf(CodeInvalidArguments, "this match has no draw outcome")
		}
		return match.DrawOdds, nil
	case "away":
		return match.AwayOdds, nil
	default:
		return 0, Errf(CodeInvalidArguments,
			"selection must be home, draw or away, got %q", selection)
	}
}

// analyzedFixture pairs a fixture with its fetched odds.
type analyzedFixture struct {
	Fixture  FixtureInfo `json:"fixture"`
	HomeOdds float64     `json:"homeOdds"`
	DrawOdds float64     `json:"drawOdds,omitempty"`
	AwayOdds float64     `json:"awayOdds"`
}

// GetDailyOddsAnalysisInput defines input for getDailyOddsAnalysis.
type GetDailyOddsAnalysisInput struct {
	Date string `json:"date,omitempty" jsonschema_description:"Date expression, defaults to today"`
}

// GetDailyOddsAnalysisOutput summarizes a day's betting landscape.
type GetDailyOddsAnalysisOutput struct {
	Matches []analyzedFixture `json:"matches"`

	// Safest is the match with the strongest favorite (lowest odds).
	Safest *analyzedFixture `json:"safest,omitempty"`

	// Riskiest is the match with the longest available odds.
	Riskiest *analyzedFixture `json:"riskiest,omitempty"`

	// MostCompetitive has the smallest home/away odds gap.
	MostCompetitive *analyzedFixture `json:"mostCompetitive,omitempty"`
}

// maxAnalysisFixtures bounds the per-fixture odds fetches in one call.
const maxAnalysisFixtures = 10

func getDailyOddsAnalysisTool() *tool {
	return newTool("getDailyOddsAnalysis",
		"Analyze a day's matches: the safest bet, the riskiest, and the most evenly matched game.",
		false, false,
		func(ctx context.Context, env *Env, in GetDailyOddsAnalysisInput) (any, *session.MatchContext, error) {
			out, err := analyzeDay(ctx, env, in.Date)
			if err != nil {
				return nil, nil, err
			}
			return out, nil, nil
		})
}

// analyzeDay fetches fixtures and odds for a window and classifies them.
// Shared with the recommendation tools.
func analyzeDay(ctx context.Context, env *Env, date string) (*GetDailyOddsAnalysisOutput, error) {
	from, to, err := dateRange(env.Now(), date)
	if err != nil {
		return nil, err
	}

	fixtures, err := env.Provider.Fixtures(ctx, sportsdata.FixtureQuery{
		SportID: env.SportID,
		From:    from,
		To:      to,
	})
	if err != nil {
		return nil, err
	}
	if len(fixtures) == 0 {
		return nil, Errf(CodeNotFound, "no matches scheduled in that period")
	}
	if len(fixtures) > maxAnalysisFixtures {
		fixtures = fixtures[:maxAnalysisFixtures]
	}

	out := &GetDailyOddsAnalysisOutput{
		Matches: make([]analyzedFixture, 0, len(fixtures)),
	}
	for _, fx := range fixtures {
		odds, err := env.Provider.FixtureOdds(ctx, fx.ID)
		if err != nil {
			return nil, err
		}
		out.Matches = append(out.Matches, analyzedFixture{
			Fixture:  fixtureInfo(fx),
			HomeOdds: odds.Home,
			DrawOdds: odds.Draw,
			AwayOdds: odds.Away,
		})
	}

	var (
		safestScore      = math.MaxFloat64
		riskiestScore    = -math.MaxFloat64
		competitiveScore = math.MaxFloat64
	)
	for i := range out.Matches {
		m := &out.Matches[i]

		// Lowest odds anywhere means the strongest favorite.
		if low := min(m.HomeOdds, m.AwayOdds); low < safestScore {
			safestScore = low
			out.Safest = m
		}
		if high := max(m.HomeOdds, m.AwayOdds); high > riskiestScore {
			riskiestScore = high
			out.Riskiest = m
		}
		if gap := math.Abs(m.HomeOdds - m.AwayOdds); gap < competitiveScore {
			competitiveScore = gap
			out.MostCompetitive = m
		}
	}

	return out, nil
}
