package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arclight-ai/agentcore/internal/config"
	"github.com/arclight-ai/agentcore/internal/providers"
	"github.com/arclight-ai/agentcore/internal/session"
	"github.com/arclight-ai/agentcore/internal/tools"
)

func newTestConfig() *config.Config {
	var cfg config.Config
	cfg.Agents.Defaults.RestrictToWorkspace = true
	return &cfg
}

func TestRegisterToolsRegistersCoreTools(t *testing.T) {
	registry := tools.NewRegistry()
	providerRegistry := providers.NewRegistry()
	workspaceDir := t.TempDir()

	registerTools(registry, providerRegistry, workspaceDir, newTestConfig())

	want := []string{"read_file", "exec", "create_image", "read_image", "web_fetch", "web_search"}
	for _, name := range want {
		if _, ok := registry.Get(name); !ok {
			t.Errorf("expected tool %q to be registered, got %v", name, registry.List())
		}
	}
}

func TestRegisterToolsHonorsBraveConfig(t *testing.T) {
	registry := tools.NewRegistry()
	providerRegistry := providers.NewRegistry()
	workspaceDir := t.TempDir()

	cfg := newTestConfig()
	cfg.Tools.Web.Brave.Enabled = true
	cfg.Tools.Web.Brave.APIKey = "test-brave-key"
	cfg.Tools.Web.Brave.MaxResults = 5

	registerTools(registry, providerRegistry, workspaceDir, cfg)

	if _, ok := registry.Get("web_search"); !ok {
		t.Fatal("expected web_search tool to be registered")
	}
}

func TestRegisterSessionToolsRegistersAllFour(t *testing.T) {
	registry := tools.NewRegistry()
	sessions := session.NewManager("")

	registerSessionTools(registry, sessions)

	want := []string{"sessions_list", "session_status", "sessions_history", "sessions_send"}
	for _, name := range want {
		if _, ok := registry.Get(name); !ok {
			t.Errorf("expected tool %q to be registered, got %v", name, registry.List())
		}
	}
}

func TestRegisterMemoryToolsOpensStoreAndRegistersTools(t *testing.T) {
	registry := tools.NewRegistry()
	workspaceDir := t.TempDir()

	store := registerMemoryTools(registry, workspaceDir, newTestConfig())
	if store == nil {
		t.Fatal("expected a memory store to be returned")
	}
	defer store.Close()

	if _, err := os.Stat(filepath.Join(workspaceDir, "memory.db")); err != nil {
		t.Fatalf("expected memory.db to be created: %v", err)
	}

	want := []string{"memory_save", "memory_search"}
	for _, name := range want {
		if _, ok := registry.Get(name); !ok {
			t.Errorf("expected tool %q to be registered, got %v", name, registry.List())
		}
	}
}

func TestRegisterMemoryToolsDisabledSkipsStore(t *testing.T) {
	registry := tools.NewRegistry()
	workspaceDir := t.TempDir()

	cfg := newTestConfig()
	disabled := false
	cfg.Agents.Defaults.Memory = &config.MemoryConfig{Enabled: &disabled}

	store := registerMemoryTools(registry, workspaceDir, cfg)
	if store != nil {
		store.Close()
		t.Fatal("expected nil store when memory is disabled")
	}
	if _, ok := registry.Get("memory_save"); ok {
		t.Fatal("did not expect memory_save to be registered")
	}
}
