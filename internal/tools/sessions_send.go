package tools

import (
	"context"
	"fmt"

	"github.com/arclight-ai/agentcore/internal/session"
)

// ============================================================
// sessions_send
// ============================================================

// SessionsSendTool delivers a steering message into another active
// session within the same process: the target session picks the
// message up the next time its loop drains steering input
// (PushSteering/DrainSteering), no message bus required.
type SessionsSendTool struct {
	sessions *session.Manager
}

func NewSessionsSendTool(sessions *session.Manager) *SessionsSendTool {
	return &SessionsSendTool{sessions: sessions}
}

func (t *SessionsSendTool) Name() string { return "sessions_send" }
func (t *SessionsSendTool) Description() string {
	return "Send a steering message into another active session."
}

func (t *SessionsSendTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"session_id": map[string]interface{}{
				"type":        "string",
				"description": "Target session id",
			},
			"message": map[string]interface{}{
				"type":        "string",
				"description": "Message to send",
			},
		},
		"required": []string{"session_id", "message"},
	}
}

func (t *SessionsSendTool) Weight() Weight { return Lightweight }

func (t *SessionsSendTool) Validate(args map[string]interface{}) ValidationResult {
	sessionID, _ := args["session_id"].(string)
	message, _ := args["message"].(string)
	var errs []string
	if sessionID == "" {
		errs = append(errs, "session_id is required")
	}
	if message == "" {
		errs = append(errs, "message is required")
	}
	if len(errs) > 0 {
		return ValidationResult{Valid: false, Errors: errs}
	}
	return ValidationResult{Valid: true}
}

func (t *SessionsSendTool) Execute(ctx context.Context, args map[string]interface{}, tc ToolContext) *Result {
	if t.sessions == nil {
		return ErrorResult("session manager not available")
	}

	sessionID, _ := args["session_id"].(string)
	message, _ := args["message"].(string)
	if sessionID == "" || message == "" {
		return ErrorResult("session_id and message are required")
	}

	target, ok := t.sessions.GetSession(sessionID)
	if !ok {
		return ErrorResult(fmt.Sprintf("unknown session: %s", sessionID))
	}

	target.PushSteering(message)
	return SilentResult(fmt.Sprintf(`{"status":"accepted","session_id":"%s"}`, sessionID))
}
