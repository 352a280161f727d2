// Package sportsdata talks to the upstream sports data API.
//
// Provider is the narrow read-only contract the rest of the application
// depends on: tournaments, teams, fixtures, and odds. Client is the HTTP
// implementation with token authentication, client-side rate limiting,
// and bounded retry on transient failures. Bets and balances are never
// sent upstream; they live in session state.
package sportsdata
