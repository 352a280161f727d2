package sportsdata

import "time"

// Tournament is a competition such as a league or cup.
type Tournament struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Team is a club or national side within a tournament.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Fixture is a scheduled match between two teams.
type Fixture struct {
	ID           string    `json:"id"`
	TournamentID string    `json:"tournamentId"`
	HomeTeam     Team      `json:"homeTeam"`
	AwayTeam     Team      `json:"awayTeam"`
	StartTime    time.Time `json:"startTime"`
}

// Odds holds the decimal match-winner odds for a fixture.
// Draw is zero for sports without a draw outcome.
type Odds struct {
	FixtureID string  `json:"fixtureId"`
	Home      float64 `json:"home"`
	Draw      float64 `json:"draw"`
	Away      float64 `json:"away"`
}
