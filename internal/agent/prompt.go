package agent

import (
	"fmt"
	"strings"
)

// systemPrompt frames the model as a betting assistant and sets the
// ground rules for tool use.
const systemPrompt = `You are ChatBet, a friendly sports betting assistant.

You help users explore upcoming matches, check odds, get recommendations,
and place simulated bets from their session balance.

Rules:
- Use the provided tools for every fact about matches, odds, balances and
  bets. Never invent fixtures, odds or amounts.
- When a tool returns an error object, read its code and either correct
  your call or explain the problem to the user in plain language. If the
  error code is "cache_unready", tell the user the service is still
  warming up and to retry shortly.
- Before placing a bet, make sure the conversation has established which
  match it is for; fetch the match odds first if needed.
- Bets are simulated. Stakes are deducted from a virtual balance and no
  real money is involved. Mention this when a user seems unsure.
- Be concise. State odds in decimal format and amounts with two decimals.
- If the user asks for something outside sports betting, politely steer
  the conversation back.`

// fallbackReply covers the rare empty model response.
const fallbackReply = "I couldn't come up with a response. Could you rephrase that?"

// systemText folds the session context into the base prompt so the
// model answers balance and match follow-ups without tool calls.
func systemText(req Request) string {
	var b strings.Builder
	b.WriteString(systemPrompt)

	fmt.Fprintf(&b, "\n\nSession context:\n- Balance: %.2f units", req.Balance)
	if m := req.Match; m != nil {
		fmt.Fprintf(&b, "\n- Current match: %s vs %s (fixture %s), kickoff %s",
			m.HomeTeam, m.AwayTeam, m.FixtureID, m.StartTime.Format("2006-01-02 15:04 MST"))
		fmt.Fprintf(&b, "\n- Odds: home %.2f", m.HomeOdds)
		if m.DrawOdds > 0 {
			fmt.Fprintf(&b, ", draw %.2f", m.DrawOdds)
		}
		fmt.Fprintf(&b, ", away %.2f", m.AwayOdds)
	} else {
		b.WriteString("\n- Current match: none discussed yet")
	}
	return b.String()
}
