package tools

import (
	"context"

	"github.com/google/uuid"

	"github.com/chatbet/chatbet/internal/session"
)

// GetBalanceInput defines input for getBalance (none needed).
type GetBalanceInput struct{}

// GetBalanceOutput is the session's simulated balance and bet history.
type GetBalanceOutput struct {
	Balance float64       `json:"balance"`
	Bets    []session.Bet `json:"bets,omitempty"`
}

func getBalanceTool() *tool {
	return newTool("getBalance",
		"Get the user's current balance and the bets placed in this conversation.",
		false, false,
		func(ctx context.Context, env *Env, _ GetBalanceInput) (any, *session.MatchContext, error) {
			return GetBalanceOutput{
				Balance: env.View.Balance(),
				Bets:    env.View.Bets(),
			}, nil, nil
		})
}

// PlaceBetInput defines input for placeBet.
type PlaceBetInput struct {
	Selection string  `json:"selection" jsonschema_description:"Outcome to back: home, draw, or away"`
	Stake     float64 `json:"stake" jsonschema_description:"Amount to stake, must not exceed the balance"`
}

// PlaceBetOutput confirms a placed bet.
type PlaceBetOutput struct {
	Bet        session.Bet `json:"bet"`
	NewBalance float64     `json:"newBalance"`
}

// placeBetTool is the only mutating tool in the catalog: it debits the
// balance and records the bet on the session state.
func placeBetTool() *tool {
	return newTool("placeBet",
		"Place a simulated bet on the match from the current conversation. Deducts the stake from the balance.",
		true, false,
		func(ctx context.Context, env *Env, in PlaceBetInput) (any, *session.MatchContext, error) {
			match, ok := env.View.Match()
			if !ok {
				return nil, nil, Errf(CodeNoMatchContext,
					"no match in this conversation yet, ask for a match's odds before betting")
			}

			if in.Stake <= 0 {
				return nil, nil, Errf(CodeInvalidArguments, "stake must be positive, got %.2f", in.Stake)
			}

			odds, err := selectionOdds(match, in.Selection)
			if err != nil {
				return nil, nil, err
			}

			// The balance can never go negative.
			if in.Stake > env.State.Balance {
				return nil, nil, Errf(CodeInsufficientBalance,
					"stake %.2f exceeds the current balance %.2f", in.Stake, env.State.Balance)
			}

			team := match.HomeTeam
			switch in.Selection {
			case "away":
				team = match.AwayTeam
			case "draw":
				team = ""
			}

			bet := session.Bet{
				ID:           uuid.NewString(),
				FixtureID:    match.FixtureID,
				Selection:    in.Selection,
				Team:         team,
				Stake:        in.Stake,
				Odds:         odds,
				PotentialWin: round2(in.Stake * odds),
				PlacedAt:     env.Now().UTC(),
			}

			env.State.Balance = round2(env.State.Balance - in.Stake)
			env.State.Bets = append(env.State.Bets, bet)

			return PlaceBetOutput{
				Bet:        bet,
				NewBalance: env.State.Balance,
			}, nil, nil
		})
}
