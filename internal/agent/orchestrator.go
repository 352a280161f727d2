package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/chatbet/chatbet/internal/log"
	"github.com/chatbet/chatbet/internal/session"
	"github.com/chatbet/chatbet/internal/tools"
)

// Config bounds a turn.
type Config struct {
	// MaxToolRounds caps the dispatch rounds in one turn.
	MaxToolRounds int

	// TurnTimeout is the wall-clock budget for the whole turn,
	// model calls and tool dispatches included.
	TurnTimeout time.Duration
}

// TurnResult is what a completed turn hands back to the caller.
type TurnResult struct {
	SessionID string
	Reply     string
	Balance   float64
}

// Orchestrator drives turns: it owns session loading, the
// reason/dispatch loop, match-context updates, and persistence. Tool
// execution happens here, never inside the model layer.
type Orchestrator struct {
	store    session.Store
	registry *tools.Registry
	engine   Engine
	cfg      Config
	logger   log.Logger
}

// NewOrchestrator wires a turn runner, filling zero config values
// with defaults.
func NewOrchestrator(store session.Store, registry *tools.Registry, engine Engine, cfg Config, logger log.Logger) *Orchestrator {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = 5
	}
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = 30 * time.Second
	}
	return &Orchestrator{
		store:    store,
		registry: registry,
		engine:   engine,
		cfg:      cfg,
		logger:   logger,
	}
}

// Turn runs one conversational turn. An empty sessionID starts a new
// conversation. Turns in the same session serialize on the store's
// per-session lock; failed turns leave the stored state untouched.
func (o *Orchestrator) Turn(ctx context.Context, sessionID, message string) (*TurnResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	unlock := o.store.Lock(sessionID)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, o.cfg.TurnTimeout)
	defer cancel()

	start := time.Now()
	state, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	// The user entry goes into the state up front so tool results land
	// after it in the transcript. Failed turns never Put, so the
	// mutation is discarded with the rest of the clone.
	state.AddMessage(session.RoleUser, message)
	msgs := historyMessages(state)

	var (
		reply     string
		converged bool
	)
	for round := 0; round <= o.cfg.MaxToolRounds; round++ {
		decision, err := o.engine.Reason(ctx, Request{
			Messages: msgs,
			Balance:  state.Balance,
			Match:    state.Match,
		})
		if err != nil {
			return nil, o.turnError(ctx, err)
		}
		if len(decision.Calls) == 0 {
			reply = decision.Text
			converged = true
			break
		}
		if round == o.cfg.MaxToolRounds {
			break
		}
		msgs = append(msgs, decision.Message)
		msgs = append(msgs, o.dispatch(ctx, decision.Calls, state))
	}
	if !converged {
		o.logger.Warn("turn hit dispatch round limit",
			"session_id", sessionID,
			"max_rounds", o.cfg.MaxToolRounds,
		)
		return nil, ErrNotConverged
	}
	if reply == "" {
		o.logger.Warn("model returned empty reply", "session_id", sessionID)
		reply = fallbackReply
	}

	state.AddMessage(session.RoleModel, reply)

	// A turn that reasoned to completion is worth keeping even if the
	// deadline expires during the write.
	if err := o.store.Put(context.WithoutCancel(ctx), state); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	o.logger.Info("turn complete",
		"session_id", sessionID,
		"elapsed", time.Since(start),
		"messages", len(state.Messages),
	)
	return &TurnResult{
		SessionID: sessionID,
		Reply:     reply,
		Balance:   state.Balance,
	}, nil
}

// dispatch executes one batch of tool calls against the session and
// returns the tool message carrying their results. Match context from
// results is applied here; tools themselves never write it. Every
// result is also appended to the transcript so later turns can lean
// on what the tools reported this turn.
func (o *Orchestrator) dispatch(ctx context.Context, calls []tools.Invocation, state *session.State) *ai.Message {
	parts := make([]*ai.Part, 0, len(calls))
	for _, call := range calls {
		res := o.registry.Execute(ctx, call, state)
		if res.Match != nil {
			state.Match = res.Match
		}
		state.AddToolResult(res.Name, res.Err == nil, res.Payload())
		if res.Err != nil {
			o.logger.Debug("tool failed",
				"session_id", state.ID,
				"tool", call.Name,
				"code", res.Err.Code,
			)
		} else if o.registry.Mutating(res.Name) {
			o.logger.Info("session mutated",
				"session_id", state.ID,
				"tool", res.Name,
				"balance", state.Balance,
			)
		}
		parts = append(parts, ai.NewToolResponsePart(&ai.ToolResponse{
			Name:   res.Name,
			Ref:    res.Ref,
			Output: res.Payload(),
		}))
	}
	return ai.NewMessage(ai.RoleTool, nil, parts...)
}

// turnError maps a reasoning failure onto the turn's sentinel errors.
func (o *Orchestrator) turnError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTurnTimeout, err)
	}
	return fmt.Errorf("reason: %w", err)
}

// historyMessages converts the persisted transcript into model
// messages. Tool entries replay as tool-response messages so the
// model sees earlier turns' fixture listings and odds, not just the
// prose around them.
func historyMessages(state *session.State) []*ai.Message {
	msgs := make([]*ai.Message, 0, len(state.Messages))
	for _, m := range state.Messages {
		switch m.Role {
		case session.RoleUser:
			msgs = append(msgs, ai.NewUserMessage(ai.NewTextPart(m.Content)))
		case session.RoleModel:
			msgs = append(msgs, ai.NewModelMessage(ai.NewTextPart(m.Content)))
		case session.RoleTool:
			var out any
			if len(m.Payload) > 0 {
				if err := json.Unmarshal(m.Payload, &out); err != nil {
					out = map[string]string{"error": "unreadable stored payload"}
				}
			}
			msgs = append(msgs, ai.NewMessage(ai.RoleTool, nil,
				ai.NewToolResponsePart(&ai.ToolResponse{
					Name:   m.ToolName,
					Output: out,
				})))
		}
	}
	return msgs
}
