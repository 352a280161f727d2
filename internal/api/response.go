package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/chatbet/chatbet/internal/log"
)

// errorBody is the wire shape of every API error.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeJSON encodes into a buffer first so headers only go out after
// a successful encode and a proper 500 stays possible.
func writeJSON(w http.ResponseWriter, status int, data any, logger log.Logger) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		logger.Error("encoding response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		// Client disconnects are routine.
		logger.Debug("writing response body", "error", err)
	}
}

// writeError sends a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string, logger log.Logger) {
	writeJSON(w, status, errorBody{Error: code, Message: message}, logger)
}
