package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveMigrationsDirVarTakesPrecedence(t *testing.T) {
	origVar, origEnv := migrationsDir, os.Getenv("AGENTCORE_MIGRATIONS_DIR")
	defer func() {
		migrationsDir = origVar
		os.Setenv("AGENTCORE_MIGRATIONS_DIR", origEnv)
	}()

	migrationsDir = "/flag/migrations"
	os.Setenv("AGENTCORE_MIGRATIONS_DIR", "/env/migrations")

	if got := resolveMigrationsDir(); got != "/flag/migrations" {
		t.Fatalf("expected flag dir, got %q", got)
	}
}

func TestResolveMigrationsDirFallsBackToEnv(t *testing.T) {
	origVar, origEnv := migrationsDir, os.Getenv("AGENTCORE_MIGRATIONS_DIR")
	defer func() {
		migrationsDir = origVar
		os.Setenv("AGENTCORE_MIGRATIONS_DIR", origEnv)
	}()

	migrationsDir = ""
	os.Setenv("AGENTCORE_MIGRATIONS_DIR", "/env/migrations")

	if got := resolveMigrationsDir(); got != "/env/migrations" {
		t.Fatalf("expected env dir, got %q", got)
	}
}

func TestResolveMigrationsDirDefaultsToExecutableDir(t *testing.T) {
	origVar, origEnv := migrationsDir, os.Getenv("AGENTCORE_MIGRATIONS_DIR")
	defer func() {
		migrationsDir = origVar
		os.Setenv("AGENTCORE_MIGRATIONS_DIR", origEnv)
	}()

	migrationsDir = ""
	os.Unsetenv("AGENTCORE_MIGRATIONS_DIR")

	exe, err := os.Executable()
	if err != nil {
		t.Skip("os.Executable unavailable in this environment")
	}
	want := filepath.Join(filepath.Dir(exe), "migrations")
	if got := resolveMigrationsDir(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
