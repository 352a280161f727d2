package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatbet/chatbet/db"
	"github.com/chatbet/chatbet/internal/agent"
	"github.com/chatbet/chatbet/internal/api"
	"github.com/chatbet/chatbet/internal/config"
	"github.com/chatbet/chatbet/internal/log"
	"github.com/chatbet/chatbet/internal/namecache"
	"github.com/chatbet/chatbet/internal/observability"
	"github.com/chatbet/chatbet/internal/session"
	"github.com/chatbet/chatbet/internal/sportsdata"
	"github.com/chatbet/chatbet/internal/tools"
)

// Setup builds the application. The name cache starts warming in the
// background; the server comes up immediately and /ready flips once
// the first snapshot lands. On error everything already initialized
// is released.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	// Tracing must precede genkit.Init so its TracerProvider carries
	// the span processor from the start.
	a.otelCleanup = provideTracing(ctx, cfg, logger)

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit")
	}
	a.Genkit = g

	a.Sports = sportsdata.NewClient(cfg.SportsAPIURL, cfg.SportsAPIKey, logger,
		sportsdata.WithRateLimit(cfg.SportsAPIRateRPS),
		sportsdata.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.SportsAPITimeout) * time.Second,
		}),
	)

	a.Cache = namecache.NewManager(a.Sports, namecache.Config{
		SportID:    cfg.DefaultSportID,
		Threshold:  cfg.FuzzyThreshold,
		RetryDelay: cfg.CacheRetryDelay(),
	}, logger)
	a.Cache.Start(ctx)

	store, pool, dbCleanup, err := provideSessionStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.DBPool = pool
	a.dbCleanup = dbCleanup

	a.Registry = tools.NewRegistry(a.Sports, a.Cache, tools.Config{
		SportID: cfg.DefaultSportID,
	}, logger)

	engine := agent.NewGeminiEngine(g, a.Registry.Define(g), agent.GeminiConfig{
		ModelName:   cfg.FullModelName(),
		Temperature: float64(cfg.Temperature),
		MaxTokens:   cfg.MaxTokens,
	}, logger)

	a.Orchestrator = agent.NewOrchestrator(a.Store, a.Registry, engine, agent.Config{
		MaxToolRounds: cfg.MaxToolRounds,
		TurnTimeout:   cfg.TurnTimeout(),
	}, logger)

	a.Server, err = api.NewServer(api.ServerConfig{
		Logger:       logger,
		Orchestrator: a.Orchestrator,
		Cache:        a.Cache,
		Pool:         pool,
		CORSOrigins:  cfg.CORSOrigins,
		TrustProxy:   cfg.TrustProxy,
	})
	if err != nil {
		return nil, fmt.Errorf("creating API server: %w", err)
	}

	logger.Info("application initialized",
		"model", cfg.FullModelName(),
		"tools", len(a.Registry.Names()),
		"session_backend", cfg.SessionBackend,
	)
	return a, nil
}

// provideTracing sets up the Datadog exporter and returns its cleanup.
func provideTracing(ctx context.Context, cfg *config.Config, logger log.Logger) func() {
	shutdown, err := observability.SetupDatadog(ctx, observability.Config{
		AgentHost:   cfg.Datadog.AgentHost,
		Environment: cfg.Datadog.Environment,
		ServiceName: cfg.Datadog.ServiceName,
	}, logger)
	if err != nil {
		logger.Warn("tracing setup failed", "error", err)
		return func() {}
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideSessionStore builds the configured session backend. The
// postgres path runs migrations and verifies connectivity before the
// server starts taking traffic.
func provideSessionStore(ctx context.Context, cfg *config.Config, logger log.Logger) (session.Store, *pgxpool.Pool, func(), error) {
	if cfg.SessionBackend != config.BackendPostgres {
		return session.NewMemoryStore(cfg.StartingBalance), nil, nil, nil
	}

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("postgres session store ready",
		"host", cfg.PostgresHost,
		"database", cfg.PostgresDBName,
	)
	return session.NewPostgresStore(pool, cfg.StartingBalance, logger), pool, pool.Close, nil
}
