package tools

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arclight-ai/agentcore/internal/memory"
)

func newTestMemoryStore(t *testing.T) *memory.Store {
	t.Helper()
	s, err := memory.Open(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatalf("memory.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMemorySaveToolValidate(t *testing.T) {
	tool := NewMemorySaveTool(newTestMemoryStore(t))

	if vr := tool.Validate(map[string]interface{}{"content": "remember this"}); !vr.Valid {
		t.Errorf("expected valid, got errors: %v", vr.Errors)
	}
	if vr := tool.Validate(map[string]interface{}{}); vr.Valid {
		t.Error("expected invalid when content is missing")
	}
}

func TestMemorySaveAndSearchRoundTrip(t *testing.T) {
	store := newTestMemoryStore(t)
	saveTool := NewMemorySaveTool(store)
	searchTool := NewMemorySearchTool(store)
	ctx := context.Background()
	tc := ToolContext{SessionID: "sess-1"}

	res := saveTool.Execute(ctx, map[string]interface{}{"content": "the capital of France is Paris"}, tc)
	if res.ForLLM == "" {
		t.Fatal("expected a non-empty save result")
	}

	res = searchTool.Execute(ctx, map[string]interface{}{"query": "Paris"}, tc)
	if !strings.Contains(res.ForLLM, "Paris") {
		t.Errorf("expected search result to contain the saved fact, got: %q", res.ForLLM)
	}
}

func TestMemorySearchToolNoMatches(t *testing.T) {
	store := newTestMemoryStore(t)
	searchTool := NewMemorySearchTool(store)

	res := searchTool.Execute(context.Background(), map[string]interface{}{"query": "nothing_saved_yet"}, ToolContext{SessionID: "sess-1"})
	if res.ForLLM != "No matching facts found." {
		t.Errorf("ForLLM = %q, want the no-matches message", res.ForLLM)
	}
}

func TestMemorySearchToolValidate(t *testing.T) {
	tool := NewMemorySearchTool(newTestMemoryStore(t))

	if vr := tool.Validate(map[string]interface{}{"query": "x"}); !vr.Valid {
		t.Errorf("expected valid, got errors: %v", vr.Errors)
	}
	if vr := tool.Validate(map[string]interface{}{}); vr.Valid {
		t.Error("expected invalid when query is missing")
	}
}
