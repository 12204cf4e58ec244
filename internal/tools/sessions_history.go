package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/arclight-ai/agentcore/internal/session"
)

// ============================================================
// sessions_history
// ============================================================

const (
	historyMaxCharsPerMessage = 4000
	historyMaxTotalBytes      = 80 * 1024
)

// SessionsHistoryTool fetches message history for one session.
type SessionsHistoryTool struct {
	sessions *session.Manager
}

func NewSessionsHistoryTool(sessions *session.Manager) *SessionsHistoryTool {
	return &SessionsHistoryTool{sessions: sessions}
}

func (t *SessionsHistoryTool) Name() string { return "sessions_history" }
func (t *SessionsHistoryTool) Description() string {
	return "Fetch message history for a session."
}

func (t *SessionsHistoryTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"session_id": map[string]interface{}{
				"type":        "string",
				"description": "Session id to fetch history from",
			},
			"limit": map[string]interface{}{
				"type":        "number",
				"description": "Max messages to return (default 20)",
			},
			"include_tools": map[string]interface{}{
				"type":        "boolean",
				"description": "Include tool call/result messages (default false)",
			},
		},
		"required": []string{"session_id"},
	}
}

func (t *SessionsHistoryTool) Weight() Weight { return Lightweight }

func (t *SessionsHistoryTool) Validate(args map[string]interface{}) ValidationResult {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return ValidationResult{Valid: false, Errors: []string{"session_id is required"}}
	}
	return ValidationResult{Valid: true}
}

func (t *SessionsHistoryTool) Execute(ctx context.Context, args map[string]interface{}, tc ToolContext) *Result {
	if t.sessions == nil {
		return ErrorResult("session manager not available")
	}

	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return ErrorResult("session_id is required")
	}

	limit := 20
	if v, ok := args["limit"].(float64); ok && int(v) > 0 {
		limit = int(v)
	}

	includeTools, _ := args["include_tools"].(bool)

	s, ok := t.sessions.GetSession(sessionID)
	if !ok {
		return SilentResult(`{"session_id":"` + sessionID + `","messages":[],"count":0}`)
	}

	type msgEntry struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	var entries []msgEntry
	for _, m := range s.Messages {
		if !includeTools && m.Role == "tool" {
			continue
		}
		if !includeTools && m.Role == "assistant" && len(m.ToolCalls) > 0 && strings.TrimSpace(m.Content) == "" {
			continue
		}

		content := m.Content
		if utf8.RuneCountInString(content) > historyMaxCharsPerMessage {
			runes := []rune(content)
			content = string(runes[:historyMaxCharsPerMessage]) + "... [truncated]"
		}

		entries = append(entries, msgEntry{Role: m.Role, Content: content})
	}

	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	out, _ := json.Marshal(map[string]interface{}{
		"session_id": sessionID,
		"messages":   entries,
		"count":      len(entries),
	})

	if len(out) > historyMaxTotalBytes {
		return SilentResult(fmt.Sprintf(
			`{"session_id":"%s","error":"history too large (%d bytes), use smaller limit","count":%d}`,
			sessionID, len(out), len(entries),
		))
	}

	return SilentResult(string(out))
}
