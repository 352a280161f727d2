package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatbet/chatbet/internal/log"
)

// PostgresStore persists sessions in PostgreSQL. The full state is
// stored as a JSONB document keyed by session id, written in one
// statement so Put stays atomic.
//
// Per-session locks are in-process, which matches a single-instance
// deployment. Running multiple replicas against one database would need
// advisory locks instead.
type PostgresStore struct {
	pool            *pgxpool.Pool
	startingBalance float64
	logger          log.Logger

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewPostgresStore creates a store backed by the given pool. The pool
// must point at a database with the chat_sessions migration applied.
func NewPostgresStore(pool *pgxpool.Pool, startingBalance float64, logger log.Logger) *PostgresStore {
	return &PostgresStore{
		pool:            pool,
		startingBalance: startingBalance,
		logger:          logger,
		locks:           make(map[string]*sync.Mutex),
	}
}

// Get loads the session, or returns a fresh seeded state if the row
// does not exist yet. The row is only written on Put.
func (p *PostgresStore) Get(ctx context.Context, id string) (*State, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	var raw []byte
	err := p.pool.QueryRow(ctx,
		`SELECT state FROM chat_sessions WHERE id = $1`, id,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return NewState(id, p.startingBalance), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}

	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return &s, nil
}

// Put upserts the session state in a single statement.
func (p *PostgresStore) Put(ctx context.Context, state *State) error {
	if state == nil {
		return ErrNilState
	}
	if state.ID == "" {
		return ErrEmptyID
	}

	state.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", state.ID, err)
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO chat_sessions (id, state, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
		state.ID, raw, state.CreatedAt, state.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("storing session %s: %w", state.ID, err)
	}

	p.logger.Debug("session persisted",
		"session", state.ID,
		"messages", len(state.Messages),
		"bets", len(state.Bets),
	)
	return nil
}

// Lock acquires the in-process mutex for one session.
func (p *PostgresStore) Lock(id string) func() {
	p.lockMu.Lock()
	l, ok := p.locks[id]
	if !ok {
		l = &sync.Mutex{}
		p.locks[id] = l
	}
	p.lockMu.Unlock()

	l.Lock()
	return l.Unlock
}
