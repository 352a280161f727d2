package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/chatbet/chatbet/internal/agent"
	"github.com/chatbet/chatbet/internal/log"
)

// maxChatBody caps the chat request body size.
const maxChatBody = 64 << 10

// chatHandler serves POST /api/v1/chat.
type chatHandler struct {
	orc    *agent.Orchestrator
	logger log.Logger
}

// chatRequest is one user turn. Clients own their session ids and
// must send one; a missing id is a malformed request, not an implicit
// new conversation.
type chatRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	UserInput string `json:"userInput"`
}

type chatResponse struct {
	SessionID string  `json:"sessionId"`
	Reply     string  `json:"reply"`
	Balance   float64 `json:"balance"`
}

func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBody)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large", h.logger)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be JSON", h.logger)
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		writeError(w, http.StatusBadRequest, "missing_session", "sessionId is required", h.logger)
		return
	}

	res, err := h.orc.Turn(r.Context(), req.SessionID, req.UserInput)
	if err != nil {
		h.turnError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: res.SessionID,
		Reply:     res.Reply,
		Balance:   res.Balance,
	}, h.logger)
}

// turnError maps turn failures onto HTTP statuses. Anything
// unrecognized is a 500 with a generic message; details stay in logs.
func (h *chatHandler) turnError(w http.ResponseWriter, r *http.Request, err error) {
	requestID, _ := requestIDFromContext(r.Context())

	switch {
	case errors.Is(err, agent.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "empty_message", "message must not be empty", h.logger)
	case errors.Is(err, agent.ErrTurnTimeout):
		h.logger.Warn("turn timed out", "request_id", requestID)
		writeError(w, http.StatusGatewayTimeout, "turn_timeout", "the assistant took too long, try again", h.logger)
	case errors.Is(err, agent.ErrNotConverged):
		h.logger.Warn("turn did not converge", "request_id", requestID)
		writeError(w, http.StatusInternalServerError, "not_converged", "the assistant could not finish, try rephrasing", h.logger)
	case errors.Is(err, agent.ErrCircuitOpen):
		writeError(w, http.StatusServiceUnavailable, "model_unavailable", "the assistant is temporarily unavailable", h.logger)
	default:
		h.logger.Error("turn failed", "error", err, "request_id", requestID)
		writeError(w, http.StatusInternalServerError, "turn_failed", "something went wrong, try again", h.logger)
	}
}
