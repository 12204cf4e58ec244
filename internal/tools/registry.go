package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/arclight-ai/agentcore/internal/providers"
)

// Weight classifies a tool's execution cost.
type Weight string

const (
	Lightweight Weight = "lightweight"
	Heavyweight Weight = "heavyweight"
)

// ValidationResult is the outcome of validating tool arguments against
// its schema.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// ToolContext carries per-invocation context: sessionId,
// working directory, a safety policy handle, an abort signal, a
// progress-emit callback, plus named extensions.
type ToolContext struct {
	SessionID  string
	WorkDir    string
	Safety     SafetyValidator
	Progress   func(payload interface{})
	Extensions map[string]interface{} // canvasState, searchApiKey, x402Signer, memoryBackend, …
}

// SafetyValidator is the subset of the Safety Policy the dispatcher
// consults before and after every tool call.
type SafetyValidator interface {
	ValidateInput(text string) error
	SanitizeOutput(text string) (clean string, matched []string)
}

// Tool is a callable capability exposed to the model.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]interface{}
	Weight() Weight
	Validate(args map[string]interface{}) ValidationResult
	Execute(ctx context.Context, args map[string]interface{}, tc ToolContext) *Result
}

// StateSnapshotter is an optional capability: tools that can record a
// pre/post state image for the Verifier's state-diff check.
type StateSnapshotter interface {
	GetStateSnapshot(args map[string]interface{}) (interface{}, error)
}

// Abortable is an optional capability: tools that can be asked to cancel
// their own in-flight work with a reason.
type Abortable interface {
	Abort(reason string)
}

// Registry resolves tools by name and invokes them with a ToolContext.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds or replaces a tool by name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Unregister removes a tool by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns all registered tool names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// ToProviderDef converts a Tool into the provider-facing schema.
func ToProviderDef(t Tool) providers.ToolDefinition {
	return providers.ToolDefinition{
		Type: "function",
		Function: providers.ToolFunctionSchema{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		},
	}
}

// ProviderDefs returns every registered tool as a provider-facing
// definition, with no policy filtering applied. Callers that need
// policy-filtered definitions should go through PolicyEngine.FilterTools.
func (r *Registry) ProviderDefs() []providers.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]providers.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, ToProviderDef(t))
	}
	return defs
}

// Execute resolves a tool by name, validates its arguments, and invokes
// it. Unknown tools and schema-invalid arguments synthesize a failed
// Result rather than panicking.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}, tc ToolContext) *Result {
	t, ok := r.Get(name)
	if !ok {
		return ErrorResult(fmt.Sprintf("unknown tool: %s", name))
	}

	vr := t.Validate(args)
	if !vr.Valid {
		slog.Warn("tool.validation_failed", "tool", name, "errors", vr.Errors)
		return ErrorResult(fmt.Sprintf("invalid arguments: %v", vr.Errors))
	}

	return t.Execute(ctx, args, tc)
}
