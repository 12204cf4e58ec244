package cmd

import (
	"bytes"
	"database/sql"
	"io"
	"os"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	w.Close()
	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func TestCheckProviderShowsMaskedKey(t *testing.T) {
	out := captureStdout(t, func() {
		checkProvider("Anthropic", "sk-ant-abcdefghij1234")
	})
	if !strings.Contains(out, "Anthropic:") {
		t.Fatalf("expected provider name in output, got %q", out)
	}
	if strings.Contains(out, "sk-ant-abcdefghij1234") {
		t.Fatalf("expected key to be masked, got %q", out)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "Anthropic:") {
		t.Fatalf("unexpected output format: %q", out)
	}
	if !strings.Contains(out, "sk-a") || !strings.Contains(out, "1234") {
		t.Fatalf("expected first/last 4 chars preserved, got %q", out)
	}
}

func TestCheckProviderNotConfigured(t *testing.T) {
	out := captureStdout(t, func() {
		checkProvider("OpenAI", "")
	})
	if !strings.Contains(out, "(not configured)") {
		t.Fatalf("expected not-configured message, got %q", out)
	}
}

func TestCheckChannelEnabledWithCredentials(t *testing.T) {
	out := captureStdout(t, func() {
		checkChannel("Telegram", true, true)
	})
	if !strings.Contains(out, "enabled") || strings.Contains(out, "missing") {
		t.Fatalf("expected plain enabled status, got %q", out)
	}
}

func TestCheckChannelEnabledMissingCredentials(t *testing.T) {
	out := captureStdout(t, func() {
		checkChannel("Discord", true, false)
	})
	if !strings.Contains(out, "missing credentials") {
		t.Fatalf("expected missing-credentials status, got %q", out)
	}
}

func TestCheckChannelDisabled(t *testing.T) {
	out := captureStdout(t, func() {
		checkChannel("Zalo", false, false)
	})
	if !strings.Contains(out, "disabled") {
		t.Fatalf("expected disabled status, got %q", out)
	}
}

func TestCheckBinaryFindsKnownBinary(t *testing.T) {
	out := captureStdout(t, func() {
		checkBinary("sh")
	})
	if strings.Contains(out, "NOT FOUND") {
		t.Fatalf("expected sh to be found on PATH, got %q", out)
	}
}

func TestCheckBinaryMissingBinary(t *testing.T) {
	out := captureStdout(t, func() {
		checkBinary("definitely-not-a-real-binary-xyz")
	})
	if !strings.Contains(out, "NOT FOUND") {
		t.Fatalf("expected NOT FOUND, got %q", out)
	}
}

func TestCheckDBProvidersReportsRows(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE llm_providers (
		name TEXT, display_name TEXT, enabled BOOLEAN, api_key TEXT
	)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO llm_providers (name, display_name, enabled, api_key) VALUES
		('anthropic', 'Anthropic', 1, 'sk-test'),
		('openai', NULL, 0, NULL)`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	out := captureStdout(t, func() {
		checkDBProviders(db)
	})
	if !strings.Contains(out, "Anthropic:") {
		t.Fatalf("expected display name in output, got %q", out)
	}
	if !strings.Contains(out, "openai:") {
		t.Fatalf("expected fallback to name when display_name is null, got %q", out)
	}
	if !strings.Contains(out, "no API key") {
		t.Fatalf("expected missing-key annotation, got %q", out)
	}
}

func TestCheckDBProvidersEmptyReportsNoneConfigured(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE llm_providers (
		name TEXT, display_name TEXT, enabled BOOLEAN, api_key TEXT
	)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	out := captureStdout(t, func() {
		checkDBProviders(db)
	})
	if !strings.Contains(out, "none configured") {
		t.Fatalf("expected none-configured message, got %q", out)
	}
}

func TestCheckDBChannelsReportsRows(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE channel_instances (
		name TEXT, channel_type TEXT, enabled BOOLEAN
	)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO channel_instances (name, channel_type, enabled) VALUES
		('main', 'telegram', 1)`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	out := captureStdout(t, func() {
		checkDBChannels(db)
	})
	if !strings.Contains(out, "telegram/main:") {
		t.Fatalf("expected channel row in output, got %q", out)
	}
	if !strings.Contains(out, "enabled") {
		t.Fatalf("expected enabled status, got %q", out)
	}
}
