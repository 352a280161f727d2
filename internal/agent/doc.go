// Package agent runs conversational betting turns.
//
// A turn moves through a fixed sequence: load the session, ask the
// model to reason over the conversation, dispatch any tool calls it
// requests, feed the results back for another round of reasoning, and
// finally persist the updated session. The dispatch loop is bounded
// and the whole turn runs under a wall-clock deadline.
//
// The model sits behind the Engine interface so the orchestration
// logic is testable without a live LLM.
package agent
