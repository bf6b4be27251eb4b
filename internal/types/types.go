// Package types defines shared state and event types for the agent loop
// and the terminal UI.
package types

import (
	"time"

	"github.com/valet-ai/valet/pkg/models"
)

// Outcome is the terminal state of one user turn.
type Outcome int

const (
	// OutcomeAnswered means the model returned a plain answer.
	OutcomeAnswered Outcome = iota
	// OutcomeFailed means the turn aborted (LLM failure or cancellation).
	OutcomeFailed
	// OutcomeIterationLimit means the tool-resolution ceiling was hit.
	OutcomeIterationLimit
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAnswered:
		return "answered"
	case OutcomeFailed:
		return "failed"
	case OutcomeIterationLimit:
		return "iteration limit reached"
	}
	return "unknown"
}

// TraceEntry records one executed tool call for display and logging.
type TraceEntry struct {
	Call     models.ToolCall
	Result   models.ToolResult
	Duration time.Duration
}

// TurnResult is what one user turn produced. SaveErr is set when the turn
// itself completed but persisting the session failed; the in-memory
// conversation is still intact and the next successful save includes it.
type TurnResult struct {
	Answer  string
	Outcome Outcome
	Trace   []TraceEntry
	SaveErr error
}

// AgentState represents the current state of agent processing.
type AgentState int

const (
	StateIdle AgentState = iota
	StateThinking
	StateExecutingTool
	StateResponding
	StateError
)

func (s AgentState) String() string {
	names := [...]string{
		"Idle",
		"Thinking",
		"Executing tool",
		"Responding",
		"Error",
	}
	if int(s) < len(names) {
		return names[s]
	}
	return "Unknown"
}

// AgentEvent is sent during agent processing to update the UI.
type AgentEvent struct {
	State     AgentState
	Result    *TurnResult
	SessionID string
	Err       error
}
