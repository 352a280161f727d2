package namecache

import (
	"fmt"
	"strings"
)

// Resolve maps a free-text query to a cached entry.
//
// Match tiers, tried in order: exact name, case-insensitive name, fuzzy
// similarity at or above the configured threshold. Fuzzy ties go to the
// shortest candidate name, then lexicographically smallest.
//
// Returns ErrNotReady while the cache is building or degraded, and
// ErrNotFound when no tier produces a match.
func (m *Manager) Resolve(kind Kind, query string) (Entry, error) {
	d := m.data.Load()
	if d == nil {
		return Entry{}, ErrNotReady
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return Entry{}, fmt.Errorf("%w: empty query", ErrNotFound)
	}

	if e, ok := d.exact[kind][query]; ok {
		return e, nil
	}

	folded := foldName(query)
	if e, ok := d.folded[kind][folded]; ok {
		return e, nil
	}

	best, ok := d.fuzzy(kind, folded, m.cfg.Threshold)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q (%s)", ErrNotFound, query, kind)
	}
	return best, nil
}

// fuzzy scans all candidates of a kind and keeps the highest-scoring
// one at or above threshold.
func (d *dataset) fuzzy(kind Kind, folded string, threshold float64) (Entry, bool) {
	var (
		best      Entry
		bestScore float64
		found     bool
	)
	for _, e := range d.byKind[kind] {
		score := similarity(folded, foldName(e.Name))
		if score < threshold {
			continue
		}
		if !found || score > bestScore || (score == bestScore && betterTie(e, best)) {
			best, bestScore, found = e, score, true
		}
	}
	return best, found
}

// betterTie reports whether a beats b under the deterministic tie-break:
// shorter name first, then lexicographic order.
func betterTie(a, b Entry) bool {
	if len(a.Name) != len(b.Name) {
		return len(a.Name) < len(b.Name)
	}
	return a.Name < b.Name
}

// foldName normalizes a name for comparison: lowercase with collapsed
// internal whitespace.
func foldName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// similarity is a normalized Levenshtein score in [0, 1], where 1 means
// the strings are identical.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(longest)
}

// levenshtein computes edit distance with a single rolling row.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		cur := i
		diag := prev[0]
		prev[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			next := min(prev[j]+1, cur+1, diag+cost)
			diag = prev[j]
			prev[j] = next
			cur = next
		}
	}
	return prev[len(rb)]
}
