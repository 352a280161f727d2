package session

import (
	"encoding/json"
	"time"
)

// Role identifies who produced a conversation message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
	RoleTool  Role = "tool"
)

// Message is one entry in a conversation transcript. User and model
// entries carry Content; tool entries carry the tool name, whether it
// succeeded, and its JSON payload, so later turns can replay what the
// tools reported (fixture listings, odds) instead of starting blind.
type Message struct {
	Role    Role      `json:"role"`
	Content string    `json:"content,omitempty"`
	At      time.Time `json:"at"`

	// Tool-result fields, set only when Role is RoleTool. Payload is
	// stored as produced and never mutated afterwards.
	ToolName string          `json:"toolName,omitempty"`
	OK       bool            `json:"ok,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// MatchContext remembers the match the user most recently asked odds
// for, so follow-ups like "bet 100 on the home team" have a referent.
type MatchContext struct {
	FixtureID  string    `json:"fixtureId"`
	HomeTeam   string    `json:"homeTeam"`
	AwayTeam   string    `json:"awayTeam"`
	Tournament string    `json:"tournament,omitempty"`
	StartTime  time.Time `json:"startTime"`
	HomeOdds   float64   `json:"homeOdds"`
	DrawOdds   float64   `json:"drawOdds,omitempty"`
	AwayOdds   float64   `json:"awayOdds"`
}

// Bet is a simulated wager recorded against the session balance.
type Bet struct {
	ID           string    `json:"id"`
	FixtureID    string    `json:"fixtureId"`
	Selection    string    `json:"selection"` // "home", "draw" or "away"
	Team         string    `json:"team,omitempty"`
	Stake        float64   `json:"stake"`
	Odds         float64   `json:"odds"`
	PotentialWin float64   `json:"potentialWin"`
	PlacedAt     time.Time `json:"placedAt"`
}

// State is the full persisted state of one conversation.
//
// States returned by a Store are private clones; mutating one has no
// effect until it is written back with Put.
type State struct {
	ID        string        `json:"id"`
	Messages  []Message     `json:"messages"`
	Match     *MatchContext `json:"matchContext,omitempty"`
	Balance   float64       `json:"balance"`
	Bets      []Bet         `json:"bets,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// NewState creates a fresh session seeded with the starting balance.
func NewState(id string, startingBalance float64) *State {
	now := time.Now().UTC()
	return &State{
		ID:        id,
		Balance:   startingBalance,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	cp := *s
	cp.Messages = append([]Message(nil), s.Messages...)
	cp.Bets = append([]Bet(nil), s.Bets...)
	if s.Match != nil {
		m := *s.Match
		cp.Match = &m
	}
	return &cp
}

// AddMessage appends a transcript entry stamped with the current time.
func (s *State) AddMessage(role Role, content string) {
	s.Messages = append(s.Messages, Message{
		Role:    role,
		Content: content,
		At:      time.Now().UTC(),
	})
}

// AddToolResult appends a tool-result entry. The payload is encoded
// to JSON here; an unencodable payload degrades to an error note so
// the transcript never loses the fact that the tool ran.
func (s *State) AddToolResult(toolName string, ok bool, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		ok = false
		raw, _ = json.Marshal(map[string]string{"error": "unencodable tool payload"})
	}
	s.Messages = append(s.Messages, Message{
		Role:     RoleTool,
		At:       time.Now().UTC(),
		ToolName: toolName,
		OK:       ok,
		Payload:  raw,
	})
}

// View returns a read-only window over the state for components that
// must not mutate it.
func (s *State) View() View {
	return View{s: s}
}

// View is a read-only accessor over a State. Tools that only consult
// session data receive a View; only bet placement gets the State itself.
type View struct {
	s *State
}

// ID returns the session identifier.
func (v View) ID() string { return v.s.ID }

// Balance returns the current simulated balance.
func (v View) Balance() float64 { return v.s.Balance }

// Match returns the remembered match context, if any.
func (v View) Match() (MatchContext, bool) {
	if v.s.Match == nil {
		return MatchContext{}, false
	}
	return *v.s.Match, true
}

// Bets returns a copy of the placed bets.
func (v View) Bets() []Bet {
	return append([]Bet(nil), v.s.Bets...)
}
