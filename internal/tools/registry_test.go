package tools

import (
	"context"
	"testing"

	"github.com/arclight-ai/agentcore/internal/providers"
)

type stubTool struct {
	name    string
	weight  Weight
	invalid []string
	result  *Result
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub tool " + s.name }
func (s *stubTool) Parameters() map[string]interface{} {
	return map[string]interface{}{"type": "object"}
}
func (s *stubTool) Weight() Weight { return s.weight }
func (s *stubTool) Validate(args map[string]interface{}) ValidationResult {
	if len(s.invalid) > 0 {
		return ValidationResult{Valid: false, Errors: s.invalid}
	}
	return ValidationResult{Valid: true}
}
func (s *stubTool) Execute(ctx context.Context, args map[string]interface{}, tc ToolContext) *Result {
	if s.result != nil {
		return s.result
	}
	return NewResult("stub ok")
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	tool := &stubTool{name: "echo", weight: Lightweight}
	r.Register(tool)

	got, ok := r.Get("echo")
	if !ok || got.Name() != "echo" {
		t.Fatalf("Get(echo) = (%v, %v), want the registered tool", got, ok)
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("expected ok=false for an unregistered tool")
	}
}

func TestRegistryRegisterReplacesExisting(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "echo", weight: Lightweight})
	r.Register(&stubTool{name: "echo", weight: Heavyweight})

	got, _ := r.Get("echo")
	if got.Weight() != Heavyweight {
		t.Errorf("Weight() = %v, want heavyweight after re-registering", got.Weight())
	}
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "echo", weight: Lightweight})
	r.Unregister("echo")

	if _, ok := r.Get("echo"); ok {
		t.Error("expected tool to be gone after Unregister")
	}
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "a", weight: Lightweight})
	r.Register(&stubTool{name: "b", weight: Lightweight})

	names := r.List()
	if len(names) != 2 {
		t.Fatalf("List() = %v, want 2 names", names)
	}
}

func TestToProviderDefMapsNameDescriptionParameters(t *testing.T) {
	tool := &stubTool{name: "echo", weight: Lightweight}
	def := ToProviderDef(tool)

	if def.Type != "function" {
		t.Errorf("Type = %q, want function", def.Type)
	}
	if def.Function.Name != "echo" {
		t.Errorf("Function.Name = %q, want echo", def.Function.Name)
	}
	if def.Function.Description == "" {
		t.Error("expected a non-empty description")
	}
}

func TestRegistryProviderDefsCoversAllTools(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "a", weight: Lightweight})
	r.Register(&stubTool{name: "b", weight: Lightweight})

	var defs []providers.ToolDefinition
	defs = r.ProviderDefs()
	if len(defs) != 2 {
		t.Fatalf("ProviderDefs() returned %d defs, want 2", len(defs))
	}
}

func TestRegistryExecuteUnknownToolReturnsErrorResult(t *testing.T) {
	r := NewRegistry()
	res := r.Execute(context.Background(), "missing", nil, ToolContext{})
	if !res.IsError {
		t.Error("expected IsError for an unknown tool")
	}
}

func TestRegistryExecuteInvalidArgumentsReturnsErrorResult(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "echo", weight: Lightweight, invalid: []string{"missing field"}})

	res := r.Execute(context.Background(), "echo", nil, ToolContext{})
	if !res.IsError {
		t.Error("expected IsError when validation fails")
	}
}

func TestRegistryExecuteDelegatesToTool(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "echo", weight: Lightweight, result: NewResult("hello")})

	res := r.Execute(context.Background(), "echo", nil, ToolContext{})
	if res.IsError || res.ForLLM != "hello" {
		t.Errorf("Execute result = %+v, want ForLLM=hello, IsError=false", res)
	}
}
