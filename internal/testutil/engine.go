package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/firebase/genkit/go/ai"

	"github.com/chatbet/chatbet/internal/agent"
	"github.com/chatbet/chatbet/internal/tools"
)

// ScriptStep is one scripted engine response: a decision or an error.
type ScriptStep struct {
	Decision *agent.Decision
	Err      error
}

// ScriptedEngine plays back a fixed sequence of reasoning steps and
// records every request it sees. Safe for concurrent use.
type ScriptedEngine struct {
	mu       sync.Mutex
	steps    []ScriptStep
	next     int
	requests []agent.Request
}

// NewScriptedEngine builds an engine that replays steps in order.
func NewScriptedEngine(steps ...ScriptStep) *ScriptedEngine {
	return &ScriptedEngine{steps: steps}
}

// Reason pops the next scripted step. Running past the script is a
// test bug and returns an error.
func (e *ScriptedEngine) Reason(_ context.Context, req agent.Request) (*agent.Decision, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.requests = append(e.requests, req)
	if e.next >= len(e.steps) {
		return nil, errors.New("scripted engine exhausted")
	}
	step := e.steps[e.next]
	e.next++
	return step.Decision, step.Err
}

// Requests returns a copy of every request seen so far.
func (e *ScriptedEngine) Requests() []agent.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]agent.Request(nil), e.requests...)
}

// CallCount returns how many reasoning steps have run.
func (e *ScriptedEngine) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.requests)
}

// FinalStep scripts a step that answers with text and no tool calls.
func FinalStep(text string) ScriptStep {
	return ScriptStep{Decision: &agent.Decision{
		Text:    text,
		Message: ai.NewModelMessage(ai.NewTextPart(text)),
	}}
}

// CallStep scripts a step that requests the given tool calls.
func CallStep(calls ...tools.Invocation) ScriptStep {
	parts := make([]*ai.Part, 0, len(calls))
	for _, c := range calls {
		parts = append(parts, ai.NewToolRequestPart(&ai.ToolRequest{
			Name:  c.Name,
			Input: c.Args,
			Ref:   c.Ref,
		}))
	}
	return ScriptStep{Decision: &agent.Decision{
		Calls:   calls,
		Message: ai.NewMessage(ai.RoleModel, nil, parts...),
	}}
}

// ErrStep scripts a reasoning failure.
func ErrStep(err error) ScriptStep {
	return ScriptStep{Err: err}
}
