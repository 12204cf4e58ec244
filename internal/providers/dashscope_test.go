package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestDashScopeProvider(base string) *DashScopeProvider {
	p := NewDashScopeProvider("test-key", base, "qwen-test")
	p.retryConfig = RetryConfig{MaxAttempts: 0}
	return p
}

func TestDashScopeProviderNameAndDefaults(t *testing.T) {
	p := NewDashScopeProvider("key", "", "")
	if p.Name() != "dashscope" {
		t.Fatalf("expected name dashscope, got %q", p.Name())
	}
	if p.DefaultModel() != dashscopeDefaultModel {
		t.Fatalf("expected default model %q, got %q", dashscopeDefaultModel, p.DefaultModel())
	}
	if p.apiBase != dashscopeDefaultBase {
		t.Fatalf("expected default base %q, got %q", dashscopeDefaultBase, p.apiBase)
	}
}

func TestDashScopeProviderChatStreamFallsBackToChatWhenToolsPresent(t *testing.T) {
	var sawStream bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if stream, _ := body["stream"].(bool); stream {
			sawStream = true
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openAIResponse{
			Choices: []openAIChoice{{Message: openAIMessage{Content: "done"}, FinishReason: "stop"}},
		})
	}))
	defer srv.Close()

	p := newTestDashScopeProvider(srv.URL)
	var chunks []StreamChunk
	resp, err := p.ChatStream(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
		Tools: []ToolDefinition{{
			Type:     "function",
			Function: ToolFunctionSchema{Name: "search", Parameters: map[string]interface{}{"type": "object"}},
		}},
	}, func(c StreamChunk) { chunks = append(chunks, c) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sawStream {
		t.Fatal("expected non-streaming request when tools are present")
	}
	if resp.Content != "done" {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
	if len(chunks) == 0 || !chunks[len(chunks)-1].Done {
		t.Fatalf("expected a synthesized Done chunk, got %+v", chunks)
	}
}

func TestDashScopeProviderChatStreamMapsThinkingLevelToBudget(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "text/event-stream")
	}))
	defer srv.Close()

	p := newTestDashScopeProvider(srv.URL)
	_, _ = p.ChatStream(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
		Options:  map[string]interface{}{OptThinkingLevel: "high"},
	}, nil)

	if gotBody[OptEnableThinking] != true {
		t.Fatalf("expected enable_thinking true, got %+v", gotBody[OptEnableThinking])
	}
	if gotBody[OptThinkingBudget] != float64(32768) {
		t.Fatalf("expected thinking_budget 32768, got %+v", gotBody[OptThinkingBudget])
	}
}

func TestDashScopeThinkingBudgetLevels(t *testing.T) {
	cases := map[string]int{"low": 4096, "medium": 16384, "high": 32768, "unknown": 16384}
	for level, want := range cases {
		if got := dashscopeThinkingBudget(level); got != want {
			t.Errorf("dashscopeThinkingBudget(%q) = %d, want %d", level, got, want)
		}
	}
}
