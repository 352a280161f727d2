// Package tools implements the betting assistant's tool catalog.
//
// # Architecture
//
// The Registry owns every tool the model may call. Each tool declares a
// typed input whose JSON schema is derived with jsonschema-go; Execute
// validates arguments against that schema before any handler runs, so
// handlers never see malformed input.
//
// Tools are read-only over session state except placeBet, the single
// mutating tool. Read-only tools receive a session.View; placeBet also
// gets the State. Tools that resolve free-text names are gated on the
// name cache and return a cache_unready error result while it builds.
//
// Tool failures are data, not control flow: handlers return *ToolError
// (or errors mapped onto one) and Execute folds them into the Result so
// the model can react in its next reply. Only the surrounding turn
// deadline aborts a dispatch.
package tools
