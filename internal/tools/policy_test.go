package tools

import (
	"testing"

	"github.com/arclight-ai/agentcore/internal/config"
	"github.com/arclight-ai/agentcore/internal/providers"
)

func newPolicyTestRegistry() *Registry {
	reg := NewRegistry()
	for _, name := range []string{
		"read_file", "write_file", "exec", "web_search", "web_fetch",
		"memory_search", "memory_get", "sessions_list", "sessions_history",
		"sessions_send", "session_status", "cron", "gateway", "whatsapp_login",
		"canvas", "browser",
	} {
		reg.Register(&stubTool{name: name})
	}
	return reg
}

func TestPolicyEngineFullProfileAllowsEverything(t *testing.T) {
	reg := newPolicyTestRegistry()
	pe := NewPolicyEngine(&config.ToolsConfig{})

	defs := pe.FilterTools(reg, "agent1", "openai", nil, nil, false, false)
	if len(defs) != len(reg.List()) {
		t.Errorf("len(defs) = %d, want %d (all tools)", len(defs), len(reg.List()))
	}
}

func TestPolicyEngineMinimalProfileRestrictsToSessionStatus(t *testing.T) {
	reg := newPolicyTestRegistry()
	pe := NewPolicyEngine(&config.ToolsConfig{Profile: "minimal"})

	defs := pe.FilterTools(reg, "agent1", "openai", nil, nil, false, false)
	if len(defs) != 1 || defs[0].Function.Name != "session_status" {
		t.Errorf("defs = %+v, want only session_status", defs)
	}
}

func TestPolicyEngineCodingProfileExpandsGroups(t *testing.T) {
	reg := newPolicyTestRegistry()
	pe := NewPolicyEngine(&config.ToolsConfig{Profile: "coding"})

	defs := pe.FilterTools(reg, "agent1", "openai", nil, nil, false, false)
	names := toolNameSet(defs)
	if !names["read_file"] || !names["exec"] {
		t.Errorf("coding profile should include fs and runtime groups, got %+v", names)
	}
	if names["whatsapp_login"] {
		t.Error("coding profile should not include whatsapp_login")
	}
}

func TestPolicyEngineGlobalDenyRemovesTool(t *testing.T) {
	reg := newPolicyTestRegistry()
	pe := NewPolicyEngine(&config.ToolsConfig{Deny: []string{"exec"}})

	defs := pe.FilterTools(reg, "agent1", "openai", nil, nil, false, false)
	if toolNameSet(defs)["exec"] {
		t.Error("expected exec to be denied globally")
	}
}

func TestPolicyEngineAgentAllowRestrictsFurther(t *testing.T) {
	reg := newPolicyTestRegistry()
	pe := NewPolicyEngine(&config.ToolsConfig{})
	agentPolicy := &config.ToolPolicySpec{Allow: []string{"read_file", "web_search"}}

	defs := pe.FilterTools(reg, "agent1", "openai", agentPolicy, nil, false, false)
	names := toolNameSet(defs)
	if len(names) != 2 || !names["read_file"] || !names["web_search"] {
		t.Errorf("defs = %+v, want exactly read_file and web_search", names)
	}
}

func TestPolicyEngineAgentDenyAfterAllow(t *testing.T) {
	reg := newPolicyTestRegistry()
	pe := NewPolicyEngine(&config.ToolsConfig{})
	agentPolicy := &config.ToolPolicySpec{Allow: []string{"read_file", "web_search"}, Deny: []string{"web_search"}}

	defs := pe.FilterTools(reg, "agent1", "openai", agentPolicy, nil, false, false)
	if len(defs) != 1 || defs[0].Function.Name != "read_file" {
		t.Errorf("defs = %+v, want only read_file", defs)
	}
}

func TestPolicyEngineAlsoAllowAddsBackAfterDeny(t *testing.T) {
	reg := newPolicyTestRegistry()
	pe := NewPolicyEngine(&config.ToolsConfig{Deny: []string{"group:runtime"}, AlsoAllow: []string{"exec"}})

	defs := pe.FilterTools(reg, "agent1", "openai", nil, nil, false, false)
	if !toolNameSet(defs)["exec"] {
		t.Error("expected alsoAllow to add exec back after the group deny")
	}
}

func TestPolicyEngineByProviderOverridesProfile(t *testing.T) {
	reg := newPolicyTestRegistry()
	pe := NewPolicyEngine(&config.ToolsConfig{
		Profile:    "coding",
		ByProvider: map[string]*config.ToolPolicySpec{"anthropic": {Profile: "minimal"}},
	})

	defs := pe.FilterTools(reg, "agent1", "anthropic", nil, nil, false, false)
	if len(defs) != 1 || defs[0].Function.Name != "session_status" {
		t.Errorf("defs = %+v, want the anthropic override to apply minimal profile", defs)
	}
}

func TestPolicyEngineSubagentDenyListApplied(t *testing.T) {
	reg := newPolicyTestRegistry()
	pe := NewPolicyEngine(&config.ToolsConfig{})

	defs := pe.FilterTools(reg, "agent1", "openai", nil, nil, true, false)
	names := toolNameSet(defs)
	if names["exec"] || names["cron"] || names["sessions_send"] {
		t.Errorf("subagent deny list should strip exec/cron/sessions_send, got %+v", names)
	}
}

func TestPolicyEngineLeafSubagentDenyListApplied(t *testing.T) {
	reg := newPolicyTestRegistry()
	pe := NewPolicyEngine(&config.ToolsConfig{})

	defs := pe.FilterTools(reg, "agent1", "openai", nil, nil, true, true)
	names := toolNameSet(defs)
	if names["sessions_list"] || names["sessions_history"] {
		t.Errorf("leaf subagent deny list should strip sessions_list/sessions_history, got %+v", names)
	}
}

func TestPolicyEngineGroupToolAllowIntersects(t *testing.T) {
	reg := newPolicyTestRegistry()
	pe := NewPolicyEngine(&config.ToolsConfig{})

	defs := pe.FilterTools(reg, "agent1", "openai", nil, []string{"group:web"}, false, false)
	names := toolNameSet(defs)
	if len(names) != 2 || !names["web_search"] || !names["web_fetch"] {
		t.Errorf("defs = %+v, want exactly the web group", names)
	}
}

func TestResolveAliasMapsBashToExec(t *testing.T) {
	if got := resolveAlias("bash"); got != "exec" {
		t.Errorf("resolveAlias(bash) = %q, want exec", got)
	}
	if got := resolveAlias("read_file"); got != "read_file" {
		t.Errorf("resolveAlias(read_file) = %q, want read_file unchanged", got)
	}
}

func TestRegisterAndUnregisterToolGroup(t *testing.T) {
	RegisterToolGroup("custom", []string{"read_file"})
	defer UnregisterToolGroup("custom")

	reg := newPolicyTestRegistry()
	pe := NewPolicyEngine(&config.ToolsConfig{})
	defs := pe.FilterTools(reg, "agent1", "openai", nil, []string{"group:custom"}, false, false)
	if len(defs) != 1 || defs[0].Function.Name != "read_file" {
		t.Errorf("defs = %+v, want exactly read_file from the custom group", defs)
	}
}

func toolNameSet(defs []providers.ToolDefinition) map[string]bool {
	names := make(map[string]bool, len(defs))
	for _, d := range defs {
		names[d.Function.Name] = true
	}
	return names
}
