// Package app assembles the application: configuration, logging,
// tracing, the sports data client, the name cache, session storage,
// the tool registry, the model engine, the orchestrator, and the HTTP
// server. Everything is constructed in Setup and torn down in Close.
package app

import (
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatbet/chatbet/internal/agent"
	"github.com/chatbet/chatbet/internal/api"
	"github.com/chatbet/chatbet/internal/config"
	"github.com/chatbet/chatbet/internal/log"
	"github.com/chatbet/chatbet/internal/namecache"
	"github.com/chatbet/chatbet/internal/session"
	"github.com/chatbet/chatbet/internal/sportsdata"
	"github.com/chatbet/chatbet/internal/tools"
)

// App is the application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit       *genkit.Genkit
	Sports       *sportsdata.Client
	Cache        *namecache.Manager
	Store        session.Store
	Registry     *tools.Registry
	Orchestrator *agent.Orchestrator
	Server       *api.Server

	// DBPool is nil on the in-memory session backend.
	DBPool *pgxpool.Pool

	otelCleanup func()
	dbCleanup   func()
}

// Close releases resources in reverse construction order.
func (a *App) Close() error {
	a.Logger.Info("shutting down application")

	if a.dbCleanup != nil {
		a.dbCleanup()
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
	}
	return nil
}
