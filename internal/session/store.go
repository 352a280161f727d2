package session

import (
	"context"
	"sync"
	"time"
)

// Store persists conversation state.
//
// Get is get-or-create: unknown identifiers return a fresh state seeded
// with the starting balance. The returned state is always a private
// clone. Put replaces the stored state atomically; readers never see a
// partially written session.
//
// Lock acquires the per-session mutex and returns its release func.
// Callers hold it for the whole turn so turns in one session serialize.
type Store interface {
	Get(ctx context.Context, id string) (*State, error)
	Put(ctx context.Context, state *State) error
	Lock(id string) func()
}

// MemoryStore is the in-process Store. It is safe for concurrent use.
type MemoryStore struct {
	startingBalance float64

	mu       sync.RWMutex
	sessions map[string]*State

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewMemoryStore creates an empty in-memory store. New sessions are
// seeded with startingBalance.
func NewMemoryStore(startingBalance float64) *MemoryStore {
	return &MemoryStore{
		startingBalance: startingBalance,
		sessions:        make(map[string]*State),
		locks:           make(map[string]*sync.Mutex),
	}
}

// Get returns a clone of the stored session, creating it if absent.
func (m *MemoryStore) Get(ctx context.Context, id string) (*State, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s.Clone(), nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Re-check under the write lock; another goroutine may have won.
	if s, ok := m.sessions[id]; ok {
		return s.Clone(), nil
	}
	s = NewState(id, m.startingBalance)
	m.sessions[id] = s
	return s.Clone(), nil
}

// Put stores a clone of the state, replacing any previous version.
func (m *MemoryStore) Put(ctx context.Context, state *State) error {
	if state == nil {
		return ErrNilState
	}
	if state.ID == "" {
		return ErrEmptyID
	}

	cp := state.Clone()
	cp.UpdatedAt = time.Now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[state.ID] = cp
	return nil
}

// Lock acquires the mutex for one session and returns its release func.
// Mutexes are created on demand and never removed; session counts are
// bounded by the conversations a deployment actually serves.
func (m *MemoryStore) Lock(id string) func() {
	m.lockMu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	m.lockMu.Unlock()

	l.Lock()
	return l.Unlock
}
