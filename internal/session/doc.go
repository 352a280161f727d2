// Package session holds per-conversation state and its stores.
//
// A State carries everything one conversation owns: message history,
// the match the user last asked odds for, the simulated balance, and
// placed bets. Stores hand out clones on Get and replace atomically on
// Put, so a failed turn never leaves a session half-written. Lock gives
// per-session mutual exclusion; turns in the same session serialize
// while different sessions proceed in parallel.
package session
