package sandbox

import "testing"

func TestDefaultConfigIsOffByDefault(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Mode != ModeOff {
		t.Fatalf("expected sandboxing off by default, got %q", cfg.Mode)
	}
	if cfg.WorkspaceAccess != AccessRW {
		t.Fatalf("expected rw workspace access by default, got %q", cfg.WorkspaceAccess)
	}
	if cfg.Scope != ScopeSession {
		t.Fatalf("expected session scope by default, got %q", cfg.Scope)
	}
	if cfg.NetworkEnabled {
		t.Fatal("expected network disabled by default")
	}
	if !cfg.ReadOnlyRoot {
		t.Fatal("expected read-only root by default")
	}
	if cfg.MemoryMB != 512 || cfg.CPUs != 1.0 || cfg.TimeoutSec != 300 {
		t.Fatalf("unexpected resource defaults: %+v", cfg)
	}
	if cfg.MaxOutputBytes != 1<<20 {
		t.Fatalf("expected 1MiB max output, got %d", cfg.MaxOutputBytes)
	}
	if cfg.IdleHours != 24 || cfg.MaxAgeDays != 7 || cfg.PruneIntervalMin != 5 {
		t.Fatalf("unexpected lifecycle defaults: %+v", cfg)
	}
}

func TestDefaultConfigReturnsIndependentCopies(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	a.Env = map[string]string{"FOO": "bar"}
	if b.Env != nil {
		t.Fatal("expected DefaultConfig to not share state across calls")
	}
}
