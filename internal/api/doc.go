// Package api serves the JSON HTTP surface: the chat endpoint plus
// health and readiness probes. Handlers stay thin; turn logic lives
// in the agent package.
package api
