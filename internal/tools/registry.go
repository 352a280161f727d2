package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/chatbet/chatbet/internal/log"
	"github.com/chatbet/chatbet/internal/namecache"
	"github.com/chatbet/chatbet/internal/session"
	"github.com/chatbet/chatbet/internal/sportsdata"
)

// Config tunes the tool catalog.
type Config struct {
	// SportID scopes provider queries.
	SportID int

	// Now supplies the clock for date parsing and bet timestamps.
	// Defaults to time.Now when nil.
	Now func() time.Time
}

// Env is what a tool handler sees during one dispatch.
type Env struct {
	Provider sportsdata.Provider
	Cache    *namecache.Manager
	SportID  int
	Now      func() time.Time

	// View is a read-only window over the session.
	View session.View

	// State is non-nil only for mutating tools.
	State *session.State
}

// tool couples metadata, a resolved input schema, and the handler.
type tool struct {
	name        string
	description string
	mutating    bool
	cacheGated  bool
	schema      *jsonschema.Schema
	resolved    *jsonschema.Resolved
	define      func(g *genkit.Genkit) ai.ToolRef
	run         func(ctx context.Context, env *Env, args json.RawMessage) (any, *session.MatchContext, error)
}

// newTool creates a tool with a typed input. The JSON schema is derived
// from In at construction time; a schema that fails to resolve is a
// programming error and panics at startup.
func newTool[In any](
	name, description string,
	mutating, cacheGated bool,
	run func(ctx context.Context, env *Env, in In) (any, *session.MatchContext, error),
) *tool {
	schema, err := jsonschema.For[In](nil)
	if err != nil {
		panic(fmt.Sprintf("BUG: deriving schema for tool %s: %v", name, err))
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("BUG: resolving schema for tool %s: %v", name, err))
	}

	return &tool{
		name:        name,
		description: description,
		mutating:    mutating,
		cacheGated:  cacheGated,
		schema:      schema,
		resolved:    resolved,
		define: func(g *genkit.Genkit) ai.ToolRef {
			// Generation runs with ReturnToolRequests, so this handler
			// never executes; dispatch happens through Registry.Execute.
			return genkit.DefineTool(g, name, description,
				func(_ *ai.ToolContext, _ In) (any, error) {
					return nil, fmt.Errorf("tool %s is dispatched by the orchestrator", name)
				})
		},
		run: func(ctx context.Context, env *Env, args json.RawMessage) (any, *session.MatchContext, error) {
			var in In
			if len(args) > 0 {
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, nil, Errf(CodeInvalidArguments, "decoding arguments: %v", err)
				}
			}
			return run(ctx, env, in)
		},
	}
}

// Registry holds the tool catalog and dispatches invocations.
// Safe for concurrent use; all mutable state lives in the session
// passed to Execute.
type Registry struct {
	provider sportsdata.Provider
	cache    *namecache.Manager
	cfg      Config
	logger   log.Logger
	tools    map[string]*tool
	order    []string
}

// NewRegistry builds the full tool catalog.
func NewRegistry(provider sportsdata.Provider, cache *namecache.Manager, cfg Config, logger log.Logger) *Registry {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	r := &Registry{
		provider: provider,
		cache:    cache,
		cfg:      cfg,
		logger:   logger,
		tools:    make(map[string]*tool),
	}

	for _, t := range []*tool{
		getFixturesByDateTool(),
		findTeamFixtureTool(),
		getTeamsByTournamentTool(),
		getOddsForMatchTool(),
		getOddsForOutcomeTool(),
		getDailyOddsAnalysisTool(),
		getMatchRecommendationTool(),
		getBettingRecommendationTool(),
		calculateWinningsTool(),
		getBalanceTool(),
		placeBetTool(),
	} {
		r.tools[t.name] = t
		r.order = append(r.order, t.name)
	}

	return r
}

// Names returns the catalog's tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Define registers every tool with Genkit so generation requests carry
// their schemas, and returns the references to pass to the model.
func (r *Registry) Define(g *genkit.Genkit) []ai.ToolRef {
	refs := make([]ai.ToolRef, 0, len(r.order))
	for _, name := range r.order {
		refs = append(refs, r.tools[name].define(g))
	}
	return refs
}

// Mutating reports whether the named tool writes session state.
func (r *Registry) Mutating(name string) bool {
	t, ok := r.tools[name]
	return ok && t.mutating
}

// Execute runs one invocation against the session and returns its
// Result. Failures surface inside the Result so the model can react;
// Execute itself never returns an error to the caller.
//
// Order of checks: tool lookup, cache gate, schema validation, handler.
func (r *Registry) Execute(ctx context.Context, inv Invocation, state *session.State) Result {
	res := Result{Name: inv.Name, Ref: inv.Ref}

	t, ok := r.tools[inv.Name]
	if !ok {
		res.Err = Errf(CodeUnknownTool, "no tool named %q", inv.Name)
		return res
	}

	if t.cacheGated && !r.cache.Ready() {
		res.Err = Errf(CodeCacheUnready,
			"team and tournament data is still loading, try again shortly")
		return res
	}

	if inv.Args == nil {
		inv.Args = map[string]any{}
	}
	args, err := json.Marshal(inv.Args)
	if err != nil {
		res.Err = Errf(CodeInvalidArguments, "encoding arguments: %v", err)
		return res
	}

	if err := t.resolved.Validate(inv.Args); err != nil {
		res.Err = Errf(CodeInvalidArguments, "%v", err)
		return res
	}

	env := &Env{
		Provider: r.provider,
		Cache:    r.cache,
		SportID:  r.cfg.SportID,
		Now:      r.cfg.Now,
		View:     state.View(),
	}
	if t.mutating {
		env.State = state
	}

	out, match, err := t.run(ctx, env, args)
	if err != nil {
		res.Err = asToolError(err)
		r.logger.Debug("tool returned error result",
			"tool", inv.Name,
			"code", res.Err.Code,
			"error", err,
		)
		return res
	}

	res.Output = out
	res.Match = match
	return res
}

// asToolError maps handler errors onto the structured codes the model
// understands.
func asToolError(err error) *ToolError {
	var te *ToolError
	if errors.As(err, &te) {
		return te
	}

	switch {
	case errors.Is(err, namecache.ErrNotReady):
		return Errf(CodeCacheUnready, "team and tournament data is still loading, try again shortly")
	case errors.Is(err, namecache.ErrNotFound):
		return Errf(CodeNotFound, "%v", err)
	case errors.Is(err, sportsdata.ErrBadRequest),
		errors.Is(err, sportsdata.ErrUnauthorized),
		errors.Is(err, sportsdata.ErrUnavailable):
		return Errf(CodeProviderError, "sports data is unavailable right now: %v", err)
	default:
		return Errf(CodeProviderError, "%v", err)
	}
}
