package namecache

import (
	"errors"
	"time"
)

// Kind selects which namespace a lookup resolves against.
type Kind string

const (
	KindTeam       Kind = "team"
	KindTournament Kind = "tournament"
)

// Status is a snapshot of the build lifecycle for pollers. Transitions
// are one-way: a build moves to ready or (after the single retry
// fails) degraded, and neither terminal state is ever left. LastError
// keeps the most recent build failure even after a successful retry.
type Status struct {
	Ready       bool      `json:"ready"`
	Degraded    bool      `json:"degraded,omitempty"`
	StartedAt   time.Time `json:"startedAt,omitzero"`
	CompletedAt time.Time `json:"completedAt,omitzero"`
	LastError   string    `json:"lastError,omitempty"`
}

var (
	// ErrNotReady indicates the cache has not finished building, or is
	// permanently degraded after a failed build and retry.
	ErrNotReady = errors.New("name cache not ready")

	// ErrNotFound indicates no candidate met the similarity threshold.
	ErrNotFound = errors.New("no matching name")
)

// Entry is a resolved name with its upstream identifier.
type Entry struct {
	Kind Kind
	ID   string
	Name string
}

// dataset is an immutable snapshot of all known names, swapped in
// atomically when a build completes.
type dataset struct {
	byKind map[Kind][]Entry
	exact  map[Kind]map[string]Entry // keyed by name as-is
	folded map[Kind]map[string]Entry // keyed by folded name
}

func newDataset(entries []Entry) *dataset {
	d := &dataset{
		byKind: make(map[Kind][]Entry),
		exact:  make(map[Kind]map[string]Entry),
		folded: make(map[Kind]map[string]Entry),
	}
	put := func(m map[Kind]map[string]Entry, key string, e Entry) {
		inner := m[e.Kind]
		if inner == nil {
			inner = make(map[string]Entry)
			m[e.Kind] = inner
		}
		// First entry wins on duplicate names so resolution stays stable.
		if _, ok := inner[key]; !ok {
			inner[key] = e
		}
	}
	for _, e := range entries {
		d.byKind[e.Kind] = append(d.byKind[e.Kind], e)
		put(d.exact, e.Name, e)
		put(d.folded, foldName(e.Name), e)
	}
	return d
}
