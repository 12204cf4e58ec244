package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/arclight-ai/agentcore/internal/session"
)

func TestSessionsListToolReturnsActiveSessions(t *testing.T) {
	mgr := session.NewManager("")
	s1 := mgr.CreateSession("chan1", "u1", "e", "", "gpt")
	_ = s1.Activate()
	s2 := mgr.CreateSession("chan2", "u2", "e", "", "gpt")
	_ = s2.Activate()

	tool := NewSessionsListTool(mgr)
	res := tool.Execute(context.Background(), map[string]interface{}{}, ToolContext{})
	if res.IsError {
		t.Fatalf("Execute returned an error: %+v", res)
	}

	var parsed struct {
		Count    int `json:"count"`
		Sessions []struct {
			ID string `json:"id"`
		} `json:"sessions"`
	}
	if err := json.Unmarshal([]byte(res.ForLLM), &parsed); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if parsed.Count != 2 {
		t.Errorf("Count = %d, want 2", parsed.Count)
	}
}

func TestSessionsListToolRespectsLimit(t *testing.T) {
	mgr := session.NewManager("")
	for i := 0; i < 5; i++ {
		s := mgr.CreateSession("chan", "u", "e", "", "gpt")
		_ = s.Activate()
	}

	tool := NewSessionsListTool(mgr)
	res := tool.Execute(context.Background(), map[string]interface{}{"limit": float64(2)}, ToolContext{})

	var parsed struct {
		Count int `json:"count"`
	}
	_ = json.Unmarshal([]byte(res.ForLLM), &parsed)
	if parsed.Count != 2 {
		t.Errorf("Count = %d, want 2 (limited)", parsed.Count)
	}
}

func TestSessionsListToolNilManagerReturnsError(t *testing.T) {
	tool := NewSessionsListTool(nil)
	res := tool.Execute(context.Background(), map[string]interface{}{}, ToolContext{})
	if !res.IsError {
		t.Error("expected an error with a nil session manager")
	}
}

func TestSessionStatusToolReportsCounters(t *testing.T) {
	mgr := session.NewManager("")
	s := mgr.CreateSession("chan", "u", "e", "", "gpt-4")
	_ = s.Activate()
	s.IncrLoopIteration()
	s.IncrToolInvocation()

	tool := NewSessionStatusTool(mgr)
	res := tool.Execute(context.Background(), map[string]interface{}{"session_id": s.ID}, ToolContext{})
	if res.IsError {
		t.Fatalf("Execute returned an error: %+v", res)
	}
	if !strings.Contains(res.ForLLM, "Loop iterations: 1") {
		t.Errorf("ForLLM = %q, want it to mention loop iterations", res.ForLLM)
	}
	if !strings.Contains(res.ForLLM, "Tool invocations: 1") {
		t.Errorf("ForLLM = %q, want it to mention tool invocations", res.ForLLM)
	}
}

func TestSessionStatusToolDefaultsToCurrentSession(t *testing.T) {
	mgr := session.NewManager("")
	s := mgr.CreateSession("chan", "u", "e", "", "gpt-4")

	tool := NewSessionStatusTool(mgr)
	res := tool.Execute(context.Background(), map[string]interface{}{}, ToolContext{SessionID: s.ID})
	if res.IsError {
		t.Fatalf("Execute returned an error: %+v", res)
	}
	if !strings.Contains(res.ForLLM, s.ID) {
		t.Errorf("ForLLM = %q, want it to mention session id %q", res.ForLLM, s.ID)
	}
}

func TestSessionStatusToolUnknownSessionReturnsError(t *testing.T) {
	mgr := session.NewManager("")
	tool := NewSessionStatusTool(mgr)
	res := tool.Execute(context.Background(), map[string]interface{}{"session_id": "missing"}, ToolContext{})
	if !res.IsError {
		t.Error("expected an error for an unknown session")
	}
}

func TestSessionStatusToolNoSessionIDReturnsError(t *testing.T) {
	mgr := session.NewManager("")
	tool := NewSessionStatusTool(mgr)
	res := tool.Execute(context.Background(), map[string]interface{}{}, ToolContext{})
	if !res.IsError {
		t.Error("expected an error when no session id is available")
	}
}
