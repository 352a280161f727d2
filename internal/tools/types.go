package tools

import (
	"fmt"

	"github.com/chatbet/chatbet/internal/session"
)

// Error codes returned to the model in tool results.
const (
	CodeInvalidArguments    = "invalid_arguments"
	CodeUnknownTool         = "unknown_tool"
	CodeCacheUnready        = "cache_unready"
	CodeNotFound            = "not_found"
	CodeProviderError       = "provider_error"
	CodeNoMatchContext      = "no_match_context"
	CodeInsufficientBalance = "insufficient_balance"
)

// ToolError is a structured error the model can read and correct for.
type ToolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e == nil {
		return "<nil ToolError>"
	}
	if e.Code == "" {
		return e.Message
	}
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// Errf builds a ToolError with a formatted message.
func Errf(code, format string, args ...any) *ToolError {
	return &ToolError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Invocation is one tool call requested by the model.
type Invocation struct {
	// Name is the tool to run.
	Name string

	// Args are the raw arguments as decoded JSON.
	Args map[string]any

	// Ref correlates the request with its response in multi-call turns.
	Ref string
}

// Result is the outcome of one dispatch. Exactly one of Output or Err
// is set. Match carries a new match context for the orchestrator to
// apply to session state; tools never write it themselves.
type Result struct {
	Name   string
	Ref    string
	Output any
	Err    *ToolError
	Match  *session.MatchContext
}

// Payload returns what gets sent back to the model: the output on
// success, the structured error otherwise.
func (r Result) Payload() any {
	if r.Err != nil {
		return map[string]any{"error": r.Err}
	}
	return r.Output
}
