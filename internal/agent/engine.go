package agent

import (
	"context"

	"github.com/firebase/genkit/go/ai"

	"github.com/chatbet/chatbet/internal/session"
	"github.com/chatbet/chatbet/internal/tools"
)

// Request is one reasoning step: the conversation so far, including
// any tool request and response messages from earlier rounds of the
// current turn, plus the session context derived at load time. The
// orchestrator refreshes Balance and Match every round so mid-turn
// mutations (a placed bet, a new match looked up) are visible to the
// next reasoning step.
type Request struct {
	Messages []*ai.Message
	Balance  float64
	Match    *session.MatchContext
}

// Decision is the model's move: either a final answer or a batch of
// tool calls to dispatch. Message is the raw model message, threaded
// back into the next round so the model sees its own tool requests.
type Decision struct {
	Text    string
	Calls   []tools.Invocation
	Message *ai.Message
}

// Engine produces one reasoning step. Implementations must be safe
// for concurrent use.
type Engine interface {
	Reason(ctx context.Context, req Request) (*Decision, error)
}
