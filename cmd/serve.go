package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arclight-ai/agentcore/internal/agent"
	"github.com/arclight-ai/agentcore/internal/bootstrap"
	"github.com/arclight-ai/agentcore/internal/canvas"
	"github.com/arclight-ai/agentcore/internal/config"
	agentcontext "github.com/arclight-ai/agentcore/internal/context"
	"github.com/arclight-ai/agentcore/internal/gateway"
	"github.com/arclight-ai/agentcore/internal/providers"
	"github.com/arclight-ai/agentcore/internal/router"
	"github.com/arclight-ai/agentcore/internal/safety"
	"github.com/arclight-ai/agentcore/internal/scheduler"
	"github.com/arclight-ai/agentcore/internal/session"
	"github.com/arclight-ai/agentcore/internal/telemetry"
	"github.com/arclight-ai/agentcore/internal/tools"
	"github.com/arclight-ai/agentcore/internal/verify"
)

const staleSweepExpression = "*/5 * * * *"

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the agent gateway (sessions, agent loop, scheduler, WebSocket bridge)",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func runServe() {
	setupLogging()

	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("config.load_failed", "path", cfgPath, "error", err)
		os.Exit(1)
	}

	registry := providers.NewRegistry()
	registerProviders(registry, cfg)
	if cfg.Agents.Defaults.Provider != "" {
		registry.SetDefault(cfg.Agents.Defaults.Provider)
	}
	engine, err := registry.Default()
	if err != nil {
		slog.Error("providers.no_default", "error", err)
		os.Exit(1)
	}

	workspaceDir := config.ExpandHome(cfg.Agents.Defaults.Workspace)
	if workspaceDir == "" {
		workspaceDir = "./workspace"
	}
	if abs, err := filepath.Abs(workspaceDir); err == nil {
		workspaceDir = abs
	}
	if err := os.MkdirAll(workspaceDir, 0o755); err != nil {
		slog.Error("workspace.mkdir_failed", "dir", workspaceDir, "error", err)
		os.Exit(1)
	}
	seeded, err := bootstrap.EnsureWorkspaceFiles(workspaceDir)
	if err != nil {
		slog.Error("workspace.bootstrap_failed", "error", err)
		os.Exit(1)
	}
	for _, f := range seeded {
		slog.Info("workspace.seeded_file", "file", f)
	}

	policy := safety.NewDefaultPolicy(workspaceDir, cfg.Agents.Defaults.RestrictToWorkspace)

	toolRegistry := tools.NewRegistry()
	registerTools(toolRegistry, registry, workspaceDir, cfg)

	sessionDir := filepath.Join(workspaceDir, ".sessions")
	sessions := session.NewManager(sessionDir)
	registerSessionTools(toolRegistry, sessions)

	memoryStore := registerMemoryTools(toolRegistry, workspaceDir, cfg)
	if memoryStore != nil {
		defer memoryStore.Close()
	}

	rt := router.New(sessions, router.Template{
		EngineID:     "default",
		Model:        cfg.Agents.Defaults.Model,
		Provider:     cfg.Agents.Defaults.Provider,
		SystemPrompt: "",
	})

	ctxCfg := agentcontext.DefaultConfig()
	if cfg.Agents.Defaults.ContextWindow > 0 {
		ctxCfg.MaxTokens = cfg.Agents.Defaults.ContextWindow
	}

	var verifier *verify.Verifier
	if judgeModel := cfg.Agents.Defaults.Model; judgeModel != "" {
		verifier = verify.New(verify.NewProviderJudge(engine, judgeModel))
	}

	tp, err := telemetry.New(context.Background(), cfg.Telemetry)
	if err != nil {
		slog.Warn("telemetry.setup_failed", "error", err)
		tp = telemetry.Noop()
	}

	policyEngine := tools.NewPolicyEngine(&cfg.Tools)
	toolDefs := policyEngine.FilterTools(toolRegistry, "default", cfg.Agents.Defaults.Provider, nil, nil, false, false)

	loopOpts := agent.Options{
		MaxIterations:        cfg.Agents.Defaults.MaxToolIterations,
		Safety:               policy,
		Verifier:             verifier,
		EnableStateSnapshots: verifier != nil,
		ToolDefs:             toolDefs,
		Tracer:               tp.Tracer(),
	}
	loop := agent.New(sessions, ctxCfg, engine, toolRegistry, loopOpts)

	watcher, err := config.WatchFile(cfgPath, func(newCfg *config.Config) {
		newEngine := tools.NewPolicyEngine(&newCfg.Tools)
		loop.SetToolDefs(newEngine.FilterTools(toolRegistry, "default", newCfg.Agents.Defaults.Provider, nil, nil, false, false))
	})
	if err != nil {
		slog.Warn("config.watch_unavailable", "path", cfgPath, "error", err)
	} else {
		defer watcher.Close()
	}

	canvasState := canvas.New()

	sched := scheduler.New(time.Minute)
	if err := sched.Register("stale-session-sweep", staleSweepExpression, func(ctx context.Context) error {
		evicted := rt.EvictStale()
		if evicted > 0 {
			slog.Info("scheduler.stale_sessions_evicted", "count", evicted)
		}
		return nil
	}, cfg.Cron.ToRetryConfig()); err != nil {
		slog.Error("scheduler.register_failed", "job", "stale-session-sweep", "error", err)
	}

	server := gateway.NewServer(cfg, rt, loop, canvasState)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched.Start(ctx)
	defer sched.Stop()

	go server.WatchCanvas(ctx)

	slog.Info("agentcore.starting", "workspace", workspaceDir, "provider", cfg.Agents.Defaults.Provider)
	if err := server.Start(ctx); err != nil {
		slog.Error("gateway.serve_failed", "error", err)
		os.Exit(1)
	}

	sessions.EndAll()
	if err := tp.Shutdown(context.Background()); err != nil {
		slog.Warn("telemetry.shutdown_failed", "error", err)
	}
	fmt.Println("agentcore: shut down cleanly")
}
