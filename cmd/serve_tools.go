package cmd

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/arclight-ai/agentcore/internal/config"
	"github.com/arclight-ai/agentcore/internal/memory"
	"github.com/arclight-ai/agentcore/internal/providers"
	"github.com/arclight-ai/agentcore/internal/session"
	"github.com/arclight-ai/agentcore/internal/tools"
)

// registerTools wires the built-in tool set into registry, scoped to
// workspaceDir and the global tools policy in cfg.
func registerTools(registry *tools.Registry, providerRegistry *providers.Registry, workspaceDir string, cfg *config.Config) {
	restrict := cfg.Agents.Defaults.RestrictToWorkspace

	registry.Register(tools.NewReadFileTool(workspaceDir, restrict))
	registry.Register(tools.NewExecTool(workspaceDir, restrict))

	registry.Register(tools.NewCreateImageTool(providerRegistry))
	registry.Register(tools.NewReadImageTool(providerRegistry))

	registry.Register(tools.NewWebFetchTool(tools.WebFetchConfig{}))
	registry.Register(tools.NewWebSearchTool(tools.WebSearchConfig{
		BraveAPIKey:     cfg.Tools.Web.Brave.APIKey,
		BraveEnabled:    cfg.Tools.Web.Brave.Enabled,
		BraveMaxResults: cfg.Tools.Web.Brave.MaxResults,
		DDGEnabled:      cfg.Tools.Web.DuckDuckGo.Enabled,
		DDGMaxResults:   cfg.Tools.Web.DuckDuckGo.MaxResults,
		CacheTTL:        10 * time.Minute,
	}))
}

// registerSessionTools wires the session-introspection tools, which need
// the session manager rather than the provider registry.
func registerSessionTools(registry *tools.Registry, sessions *session.Manager) {
	registry.Register(tools.NewSessionsListTool(sessions))
	registry.Register(tools.NewSessionStatusTool(sessions))
	registry.Register(tools.NewSessionsHistoryTool(sessions))
	registry.Register(tools.NewSessionsSendTool(sessions))
}

// registerMemoryTools opens the SQLite+FTS5 fact store under workspaceDir
// and wires memory_save/memory_search, unless cfg.Agents.Defaults.Memory
// explicitly disables it. Returns the opened Store (nil if disabled) so
// the caller can close it on shutdown.
func registerMemoryTools(registry *tools.Registry, workspaceDir string, cfg *config.Config) *memory.Store {
	mc := cfg.Agents.Defaults.Memory
	if mc != nil && mc.Enabled != nil && !*mc.Enabled {
		return nil
	}
	store, err := memory.Open(filepath.Join(workspaceDir, "memory.db"))
	if err != nil {
		slog.Warn("memory.open_failed", "error", err)
		return nil
	}
	registry.Register(tools.NewMemorySaveTool(store))
	registry.Register(tools.NewMemorySearchTool(store))
	return store
}
