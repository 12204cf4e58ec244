// Package agent implements the agent loop: drive a single user turn to
// completion against a pluggable model engine, dispatching tool calls
// through the tool registry and enforcing the safety policy. Field
// layout, slog event naming, and the retry-with-backoff idiom follow a
// conventional iterative tool-calling loop rather than a managed-mode
// bootstrap/tracing/subagent pipeline — no external store, bus, or
// tracing collector is assumed.
package agent

// EventKind enumerates the agent loop's output event grammar:
//
//	thinking? (text_delta* (tool_start (tool_progress* tool_end))*)* (complete | error | aborted)
type EventKind string

const (
	EventThinking EventKind = "thinking"
	EventText     EventKind = "text"
	EventToolStart    EventKind = "tool_start"
	EventToolProgress EventKind = "tool_progress"
	EventToolEnd      EventKind = "tool_end"
	EventComplete EventKind = "complete"
	EventError    EventKind = "error"
	EventAborted  EventKind = "aborted"
)

// ErrorKind names the error taxonomy by kind, not by Go type.
type ErrorKind string

const (
	ErrValidation    ErrorKind = "Validation"
	ErrSecurity      ErrorKind = "Security"
	ErrProvider      ErrorKind = "Provider"
	ErrTool          ErrorKind = "Tool"
	ErrChannel       ErrorKind = "Channel"
	ErrTimeout       ErrorKind = "Timeout"
	ErrIterationLimit ErrorKind = "IterationLimit"
	ErrFatal         ErrorKind = "Fatal"
)

// Event is one item in the agent loop's output sequence.
type Event struct {
	Kind EventKind

	// text_delta
	Delta   string
	Partial string

	// tool_start / tool_progress / tool_end
	Tool       string
	Args       map[string]interface{}
	ToolResult interface{}

	// complete
	Answer string

	// error / aborted
	ErrorKind ErrorKind
	Err       error
	Reason    string
}
