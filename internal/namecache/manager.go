package namecache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chatbet/chatbet/internal/log"
	"github.com/chatbet/chatbet/internal/sportsdata"
)

// Config tunes the cache build and resolution.
type Config struct {
	// SportID selects which sport's tournaments seed the cache.
	SportID int

	// Threshold is the minimum fuzzy similarity in (0, 1] for a match.
	Threshold float64

	// RetryDelay is the wait before the single rebuild retry.
	RetryDelay time.Duration
}

// Manager owns the cache lifecycle and serves lookups.
// All methods are safe for concurrent use.
type Manager struct {
	provider sportsdata.Provider
	cfg      Config
	logger   log.Logger

	startOnce sync.Once
	data      atomic.Pointer[dataset]
	status    atomic.Value // Status
	done      chan struct{}
}

// NewManager creates a cache manager. Call Start to begin the build.
func NewManager(provider sportsdata.Provider, cfg Config, logger log.Logger) *Manager {
	m := &Manager{
		provider: provider,
		cfg:      cfg,
		logger:   logger,
		done:     make(chan struct{}),
	}
	m.status.Store(Status{})
	return m
}

// Start launches the background build. Subsequent calls are no-ops.
// The build runs until ctx is canceled or a terminal state is reached.
func (m *Manager) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		go m.run(ctx)
	})
}

// Ready reports whether the cache is serving lookups. Once true it
// stays true for the life of the process.
func (m *Manager) Ready() bool {
	return m.data.Load() != nil
}

// Status returns a snapshot of the build lifecycle.
func (m *Manager) Status() Status {
	return m.status.Load().(Status)
}

// WaitReady blocks until the cache reaches a terminal state or ctx is
// canceled. It returns nil when the cache is ready and ErrNotReady when
// the build ended degraded.
func (m *Manager) WaitReady(ctx context.Context) error {
	select {
	case <-m.done:
		if m.Ready() {
			return nil
		}
		return ErrNotReady
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run builds the cache, retrying once after RetryDelay on failure.
// A second failure is terminal: the manager goes Degraded for good.
func (m *Manager) run(ctx context.Context) {
	defer close(m.done)

	start := time.Now()
	st := Status{StartedAt: start.UTC()}
	m.status.Store(st)

	entries, err := m.build(ctx)
	if err != nil {
		st.LastError = err.Error()
		m.status.Store(st)
		m.logger.Warn("name cache build failed, retrying once",
			"delay", m.cfg.RetryDelay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			st.Degraded = true
			st.CompletedAt = time.Now().UTC()
			m.status.Store(st)
			return
		case <-time.After(m.cfg.RetryDelay):
		}

		entries, err = m.build(ctx)
		if err != nil {
			st.Degraded = true
			st.LastError = err.Error()
			st.CompletedAt = time.Now().UTC()
			m.status.Store(st)
			m.logger.Error("name cache permanently degraded after retry",
				"elapsed", time.Since(start),
				"error", err,
			)
			return
		}
	}

	m.data.Store(newDataset(entries))
	st.Ready = true
	st.CompletedAt = time.Now().UTC()
	m.status.Store(st)
	m.logger.Info("name cache ready",
		"entries", len(entries),
		"elapsed", time.Since(start),
	)
}

// build fetches tournaments and their teams into a flat entry list.
func (m *Manager) build(ctx context.Context) ([]Entry, error) {
	tournaments, err := m.provider.Tournaments(ctx, m.cfg.SportID)
	if err != nil {
		return nil, fmt.Errorf("fetching tournaments: %w", err)
	}

	var entries []Entry
	for _, t := range tournaments {
		entries = append(entries, Entry{Kind: KindTournament, ID: t.ID, Name: t.Name})

		teams, err := m.provider.Teams(ctx, t.ID)
		if err != nil {
			return nil, fmt.Errorf("fetching teams for tournament %s: %w", t.ID, err)
		}
		for _, tm := range teams {
			entries = append(entries, Entry{Kind: KindTeam, ID: tm.ID, Name: tm.Name})
		}
	}
	return entries, nil
}
