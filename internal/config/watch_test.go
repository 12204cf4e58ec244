package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchFileReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	if err := os.WriteFile(path, []byte(`{"agents":{"defaults":{"model":"model-a"}}}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	reloaded := make(chan *Config, 1)
	w, err := WatchFile(path, func(cfg *Config) {
		reloaded <- cfg
	})
	if err != nil {
		t.Fatalf("WatchFile: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte(`{"agents":{"defaults":{"model":"model-b"}}}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Agents.Defaults.Model != "model-b" {
			t.Errorf("Model = %q, want model-b", cfg.Agents.Defaults.Model)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload callback")
	}
}

func TestWatchFileSkipsUnparsableWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	if err := os.WriteFile(path, []byte(`{"agents":{"defaults":{"model":"model-a"}}}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	reloaded := make(chan *Config, 1)
	w, err := WatchFile(path, func(cfg *Config) {
		reloaded <- cfg
	})
	if err != nil {
		t.Fatalf("WatchFile: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte(`{not valid json`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(path, []byte(`{"agents":{"defaults":{"model":"model-c"}}}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Agents.Defaults.Model != "model-c" {
			t.Errorf("Model = %q, want model-c (the unparsable write should have been skipped)", cfg.Agents.Defaults.Model)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload callback")
	}
}

func TestWatchFileCloseStopsGoroutine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	w, err := WatchFile(path, func(cfg *Config) {})
	if err != nil {
		t.Fatalf("WatchFile: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- w.Close() }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Close: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return in time")
	}
}
