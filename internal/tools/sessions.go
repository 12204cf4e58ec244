package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/arclight-ai/agentcore/internal/session"
)

// ============================================================
// sessions_list
// ============================================================

// SessionsListTool lists active sessions tracked by the session manager.
// Single-tenant: one process, one owner, so there is no per-agent
// scoping to enforce.
type SessionsListTool struct {
	sessions *session.Manager
}

func NewSessionsListTool(sessions *session.Manager) *SessionsListTool {
	return &SessionsListTool{sessions: sessions}
}

func (t *SessionsListTool) Name() string { return "sessions_list" }
func (t *SessionsListTool) Description() string {
	return "List active sessions with optional recency filter."
}

func (t *SessionsListTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"limit": map[string]interface{}{
				"type":        "number",
				"description": "Max sessions to return (default 20)",
			},
			"active_minutes": map[string]interface{}{
				"type":        "number",
				"description": "Only show sessions active in the last N minutes",
			},
		},
	}
}

func (t *SessionsListTool) Weight() Weight { return Lightweight }

func (t *SessionsListTool) Validate(args map[string]interface{}) ValidationResult {
	return ValidationResult{Valid: true}
}

func (t *SessionsListTool) Execute(ctx context.Context, args map[string]interface{}, tc ToolContext) *Result {
	if t.sessions == nil {
		return ErrorResult("session manager not available")
	}

	limit := 20
	if v, ok := args["limit"].(float64); ok && int(v) > 0 {
		limit = int(v)
	}

	var activeMinutes int
	if v, ok := args["active_minutes"].(float64); ok && int(v) > 0 {
		activeMinutes = int(v)
	}

	sessions := t.sessions.ListActive()

	if activeMinutes > 0 {
		cutoff := time.Now().Add(-time.Duration(activeMinutes) * time.Minute)
		filtered := sessions[:0]
		for _, s := range sessions {
			if s.Updated.After(cutoff) {
				filtered = append(filtered, s)
			}
		}
		sessions = filtered
	}

	if len(sessions) > limit {
		sessions = sessions[:limit]
	}

	type sessionEntry struct {
		ID      string `json:"id"`
		Channel string `json:"channel"`
		Model   string `json:"model"`
		Updated string `json:"updated"`
	}

	entries := make([]sessionEntry, 0, len(sessions))
	for _, s := range sessions {
		entries = append(entries, sessionEntry{
			ID:      s.ID,
			Channel: s.ChannelID,
			Model:   s.Model,
			Updated: s.Updated.Format(time.RFC3339),
		})
	}

	out, _ := json.Marshal(map[string]interface{}{
		"count":    len(entries),
		"sessions": entries,
	})
	return SilentResult(string(out))
}

// ============================================================
// session_status
// ============================================================

// SessionStatusTool reports counters and state for one session.
type SessionStatusTool struct {
	sessions *session.Manager
}

func NewSessionStatusTool(sessions *session.Manager) *SessionStatusTool {
	return &SessionStatusTool{sessions: sessions}
}

func (t *SessionStatusTool) Name() string { return "session_status" }
func (t *SessionStatusTool) Description() string {
	return "Show session status: model, channel, counters, last update."
}

func (t *SessionStatusTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"session_id": map[string]interface{}{
				"type":        "string",
				"description": "Session id to inspect (default: current session)",
			},
		},
	}
}

func (t *SessionStatusTool) Weight() Weight { return Lightweight }

func (t *SessionStatusTool) Validate(args map[string]interface{}) ValidationResult {
	return ValidationResult{Valid: true}
}

func (t *SessionStatusTool) Execute(ctx context.Context, args map[string]interface{}, tc ToolContext) *Result {
	if t.sessions == nil {
		return ErrorResult("session manager not available")
	}

	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		sessionID = tc.SessionID
	}
	if sessionID == "" {
		return ErrorResult("session_id is required (could not detect current session)")
	}

	s, ok := t.sessions.GetSession(sessionID)
	if !ok {
		return ErrorResult(fmt.Sprintf("unknown session: %s", sessionID))
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("Session: %s", s.ID))
	lines = append(lines, fmt.Sprintf("State: %s", s.State))
	if s.Model != "" {
		lines = append(lines, fmt.Sprintf("Model: %s", s.Model))
	}
	if s.ChannelID != "" {
		lines = append(lines, fmt.Sprintf("Channel: %s", s.ChannelID))
	}
	lines = append(lines, fmt.Sprintf("Messages: %d", len(s.Messages)))
	lines = append(lines, fmt.Sprintf("Loop iterations: %d", s.Counters.LoopIterations))
	lines = append(lines, fmt.Sprintf("Tool invocations: %d", s.Counters.ToolInvocations))
	lines = append(lines, fmt.Sprintf("LLM calls: %d", s.Counters.LLMCalls))
	if s.Summary != "" {
		lines = append(lines, fmt.Sprintf("Has summary: yes (%d chars)", len(s.Summary)))
	}
	lines = append(lines, fmt.Sprintf("Updated: %s", s.Updated.Format(time.RFC3339)))

	return SilentResult(strings.Join(lines, "\n"))
}
