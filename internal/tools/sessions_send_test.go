package tools

import (
	"context"
	"testing"

	"github.com/arclight-ai/agentcore/internal/session"
)

func TestSessionsSendToolValidateRequiresBothFields(t *testing.T) {
	tool := NewSessionsSendTool(session.NewManager(""))

	if vr := tool.Validate(map[string]interface{}{"message": "hi"}); vr.Valid {
		t.Error("expected invalid when session_id is missing")
	}
	if vr := tool.Validate(map[string]interface{}{"session_id": "s1"}); vr.Valid {
		t.Error("expected invalid when message is missing")
	}
	if vr := tool.Validate(map[string]interface{}{"session_id": "s1", "message": "hi"}); !vr.Valid {
		t.Errorf("expected valid, got errors: %v", vr.Errors)
	}
}

func TestSessionsSendToolDeliversSteeringMessage(t *testing.T) {
	mgr := session.NewManager("")
	target := mgr.CreateSession("chan", "u", "e", "", "gpt")

	tool := NewSessionsSendTool(mgr)
	res := tool.Execute(context.Background(), map[string]interface{}{
		"session_id": target.ID,
		"message":    "steer this way",
	}, ToolContext{})
	if res.IsError {
		t.Fatalf("Execute returned an error: %+v", res)
	}

	got := target.DrainSteering()
	if len(got) != 1 || got[0] != "steer this way" {
		t.Errorf("DrainSteering() = %v, want [steer this way]", got)
	}
}

func TestSessionsSendToolUnknownSessionReturnsError(t *testing.T) {
	mgr := session.NewManager("")
	tool := NewSessionsSendTool(mgr)
	res := tool.Execute(context.Background(), map[string]interface{}{
		"session_id": "missing",
		"message":    "hi",
	}, ToolContext{})
	if !res.IsError {
		t.Error("expected an error for an unknown target session")
	}
}

func TestSessionsSendToolNilManagerReturnsError(t *testing.T) {
	tool := NewSessionsSendTool(nil)
	res := tool.Execute(context.Background(), map[string]interface{}{
		"session_id": "s1",
		"message":    "hi",
	}, ToolContext{})
	if !res.IsError {
		t.Error("expected an error with a nil session manager")
	}
}
