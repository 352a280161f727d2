// Package namecache resolves free-text team and tournament names to
// their upstream identifiers.
//
// The cache is built once in the background at startup from the sports
// data provider. Readiness is monotonic: once the cache reports ready it
// never becomes unready. A failed build is retried once after a delay;
// if the retry also fails the cache is permanently degraded and every
// Resolve call reports ErrNotReady until the process restarts.
//
// Resolution tries, in order: exact match, case-insensitive match, and
// fuzzy match with a configurable minimum similarity. Fuzzy ties are
// broken by shortest candidate name, then lexicographic order, so a
// query resolves deterministically.
package namecache
