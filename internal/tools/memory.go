package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/arclight-ai/agentcore/internal/memory"
)

// MemorySaveTool lets the agent persist a durable fact for recall in
// future sessions, backed by internal/memory's SQLite+FTS5 store.
type MemorySaveTool struct {
	store *memory.Store
}

func NewMemorySaveTool(store *memory.Store) *MemorySaveTool {
	return &MemorySaveTool{store: store}
}

func (t *MemorySaveTool) Name() string        { return "memory_save" }
func (t *MemorySaveTool) Description() string { return "Save a fact for recall in future sessions." }
func (t *MemorySaveTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"content": map[string]interface{}{"type": "string", "description": "The fact to remember"},
		},
		"required": []string{"content"},
	}
}
func (t *MemorySaveTool) Weight() Weight { return Lightweight }
func (t *MemorySaveTool) Validate(args map[string]interface{}) ValidationResult {
	content, _ := args["content"].(string)
	if content == "" {
		return ValidationResult{Valid: false, Errors: []string{"content is required"}}
	}
	return ValidationResult{Valid: true}
}
func (t *MemorySaveTool) Execute(ctx context.Context, args map[string]interface{}, tc ToolContext) *Result {
	content, _ := args["content"].(string)
	if err := t.store.Add(ctx, tc.SessionID, content); err != nil {
		return ErrorResult(err.Error())
	}
	return SilentResult(`{"status":"saved"}`)
}

// MemorySearchTool recalls facts saved via MemorySaveTool, ranked by the
// FTS5 bm25 score.
type MemorySearchTool struct {
	store *memory.Store
}

func NewMemorySearchTool(store *memory.Store) *MemorySearchTool {
	return &MemorySearchTool{store: store}
}

func (t *MemorySearchTool) Name() string        { return "memory_search" }
func (t *MemorySearchTool) Description() string { return "Search previously saved facts." }
func (t *MemorySearchTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{"type": "string", "description": "Search terms"},
			"limit": map[string]interface{}{"type": "integer", "description": "Max results (default 6)"},
		},
		"required": []string{"query"},
	}
}
func (t *MemorySearchTool) Weight() Weight { return Lightweight }
func (t *MemorySearchTool) Validate(args map[string]interface{}) ValidationResult {
	query, _ := args["query"].(string)
	if query == "" {
		return ValidationResult{Valid: false, Errors: []string{"query is required"}}
	}
	return ValidationResult{Valid: true}
}
func (t *MemorySearchTool) Execute(ctx context.Context, args map[string]interface{}, tc ToolContext) *Result {
	query, _ := args["query"].(string)
	limit := 6
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}
	facts, err := t.store.Search(ctx, query, limit)
	if err != nil {
		return ErrorResult(err.Error())
	}
	if len(facts) == 0 {
		return NewResult("No matching facts found.")
	}
	b, _ := json.Marshal(facts)
	return NewResult(fmt.Sprintf("Found %d fact(s): %s", len(facts), string(b)))
}
