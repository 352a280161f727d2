package tools

import (
	"context"
	"math"

	"github.com/chatbet/chatbet/internal/session"
)

// GetMatchRecommendationInput defines input for getMatchRecommendation.
type GetMatchRecommendationInput struct {
	RiskProfile string `json:"riskProfile,omitempty" jsonschema_description:"Appetite for risk: safe, risky, or balanced. Defaults to safe."`
	Date        string `json:"date,omitempty" jsonschema_description:"Date expression, defaults to today"`
}

// GetMatchRecommendationOutput is a single recommended match.
type GetMatchRecommendationOutput struct {
	RiskProfile string          `json:"riskProfile"`
	Match       analyzedFixture `json:"match"`
	Reason      string          `json:"reason"`
}

func getMatchRecommendationTool() *tool {
	return newTool("getMatchRecommendation",
		"Recommend one match to bet on for a given risk appetite.",
		false, false,
		func(ctx context.Context, env *Env, in GetMatchRecommendationInput) (any, *session.MatchContext, error) {
			analysis, err := analyzeDay(ctx, env, in.Date)
			if err != nil {
				return nil, nil, err
			}

			profile := in.RiskProfile
			if profile == "" {
				profile = "safe"
			}

			var (
				pick   *analyzedFixture
				reason string
			)
			switch profile {
			case "safe":
				pick = analysis.Safest
				reason = "strongest favorite of the period, the lowest odds on the board"
			case "risky":
				pick = analysis.Riskiest
				reason = "longest odds of the period, the biggest potential payout"
			case "balanced":
				pick = analysis.MostCompetitive
				reason = "most evenly matched game, closest home and away odds"
			default:
				return nil, nil, Errf(CodeInvalidArguments,
					"riskProfile must be safe, risky or balanced, got %q", profile)
			}
			if pick == nil {
				return nil, nil, Errf(CodeNotFound, "no matches to recommend in that period")
			}

			return GetMatchRecommendationOutput{
				RiskProfile: profile,
				Match:       *pick,
				Reason:      reason,
			}, nil, nil
		})
}

// GetBettingRecommendationInput defines input for getBettingRecommendation.
type GetBettingRecommendationInput struct {
	Amount float64 `json:"amount" jsonschema_description:"Total amount the user wants to spread across bets"`
	Date   string  `json:"date,omitempty" jsonschema_description:"Date expression, defaults to today"`
}

// SuggestedBet is one leg of a betting recommendation.
type SuggestedBet struct {
	Match        analyzedFixture `json:"match"`
	Selection    string          `json:"selection"`
	Stake        float64         `json:"stake"`
	Odds         float64         `json:"odds"`
	PotentialWin float64         `json:"potentialWin"`
}

// GetBettingRecommendationOutput splits a budget across suggested bets.
type GetBettingRecommendationOutput struct {
	Total float64        `json:"total"`
	Bets  []SuggestedBet `json:"bets"`
}

func getBettingRecommendationTool() *tool {
	return newTool("getBettingRecommendation",
		"Suggest how to split an amount across today's matches: the bulk on the safest favorite, the rest on the most competitive game.",
		false, false,
		func(ctx context.Context, env *Env, in GetBettingRecommendationInput) (any, *session.MatchContext, error) {
			if in.Amount <= 0 {
				return nil, nil, Errf(CodeInvalidArguments, "amount must be positive, got %.2f", in.Amount)
			}
			if in.Amount > env.View.Balance() {
				return nil, nil, Errf(CodeInsufficientBalance,
					"amount %.2f exceeds the current balance %.2f", in.Amount, env.View.Balance())
			}

			analysis, err := analyzeDay(ctx, env, in.Date)
			if err != nil {
				return nil, nil, err
			}
			if analysis.Safest == nil {
				return nil, nil, Errf(CodeNotFound, "no matches to recommend in that period")
			}

			// 60 percent rides on the favorite, 40 on the tight game.
			out := GetBettingRecommendationOutput{Total: in.Amount}
			out.Bets = append(out.Bets, suggestFavorite(*analysis.Safest, round2(in.Amount*0.6)))

			if analysis.MostCompetitive != nil &&
				analysis.MostCompetitive.Fixture.FixtureID != analysis.Safest.Fixture.FixtureID {
				out.Bets = append(out.Bets, suggestFavorite(*analysis.MostCompetitive, round2(in.Amount*0.4)))
			} else {
				// Single viable match: put everything on it.
				out.Bets[0].Stake = in.Amount
				out.Bets[0].PotentialWin = round2(in.Amount * out.Bets[0].Odds)
			}

			return out, nil, nil
		})
}

// suggestFavorite stakes on whichever side has the shorter odds.
func suggestFavorite(m analyzedFixture, stake float64) SuggestedBet {
	selection, odds := "home", m.HomeOdds
	if m.AwayOdds < m.HomeOdds {
		selection, odds = "away", m.AwayOdds
	}
	return SuggestedBet{
		Match:        m,
		Selection:    selection,
		Stake:        stake,
		Odds:         odds,
		PotentialWin: round2(stake * odds),
	}
}

// CalculateWinningsInput defines input for calculateWinnings.
type CalculateWinningsInput struct {
	Stake     float64 `json:"stake" jsonschema_description:"The amount to stake"`
	Odds      float64 `json:"odds,omitempty" jsonschema_description:"Decimal odds; omit to use the remembered match"`
	Selection string  `json:"selection,omitempty" jsonschema_description:"Outcome on the remembered match (home, draw, away) when odds are omitted"`
}

// CalculateWinningsOutput is a payout calculation.
type CalculateWinningsOutput struct {
	Stake        float64 `json:"stake"`
	Odds         float64 `json:"odds"`
	PotentialWin float64 `json:"potentialWin"`
	Profit       float64 `json:"profit"`
}

func calculateWinningsTool() *tool {
	return newTool("calculateWinnings",
		"Calculate the payout for a stake at given odds, or for an outcome of the remembered match.",
		false, false,
		func(ctx context.Context, env *Env, in CalculateWinningsInput) (any, *session.MatchContext, error) {
			if in.Stake <= 0 {
				return nil, nil, Errf(CodeInvalidArguments, "stake must be positive, got %.2f", in.Stake)
			}

			odds := in.Odds
			if odds == 0 {
				match, ok := env.View.Match()
				if !ok {
					return nil, nil, Errf(CodeNoMatchContext,
						"no match in this conversation yet, provide odds or ask for a match's odds first")
				}
				if in.Selection == "" {
					return nil, nil, Errf(CodeInvalidArguments,
						"provide either odds or a selection on the remembered match")
				}
				var err error
				odds, err = selectionOdds(match, in.Selection)
				if err != nil {
					return nil, nil, err
				}
			}
			if odds < 1 {
				return nil, nil, Errf(CodeInvalidArguments, "decimal odds must be at least 1, got %.2f", odds)
			}

			return CalculateWinningsOutput{
				Stake:        in.Stake,
				Odds:         odds,
				PotentialWin: round2(in.Stake * odds),
				Profit:       round2(in.Stake * (odds - 1)),
			}, nil, nil
		})
}

// round2 rounds to two decimal places for money amounts.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
