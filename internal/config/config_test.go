package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.StoreBackend != "file" {
		t.Errorf("StoreBackend = %q, want file", cfg.StoreBackend)
	}
	if !cfg.PromoteTitle || !cfg.PromoteSubtitle {
		t.Error("promotion should default on")
	}
	if cfg.PollInterval != time.Minute {
		t.Errorf("PollInterval = %v, want 1m", cfg.PollInterval)
	}
	if cfg.DebounceInterval != 2*time.Second {
		t.Errorf("DebounceInterval = %v, want 2s", cfg.DebounceInterval)
	}
	if cfg.DashboardEnabled {
		t.Error("dashboard should default off")
	}
	if cfg.DashboardPort != 7336 {
		t.Errorf("DashboardPort = %d, want 7336", cfg.DashboardPort)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
notes_dir: /srv/notes
store_backend: sqlite
remote_base_url: https://docs.example.com
poll_interval: 5m
dashboard_enabled: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.NotesDir != "/srv/notes" {
		t.Errorf("NotesDir = %q", cfg.NotesDir)
	}
	if cfg.StoreBackend != "sqlite" {
		t.Errorf("StoreBackend = %q, want sqlite", cfg.StoreBackend)
	}
	if cfg.RemoteBaseURL != "https://docs.example.com" {
		t.Errorf("RemoteBaseURL = %q", cfg.RemoteBaseURL)
	}
	if cfg.PollInterval != 5*time.Minute {
		t.Errorf("PollInterval = %v, want 5m", cfg.PollInterval)
	}
	if !cfg.DashboardEnabled {
		t.Error("DashboardEnabled not read from file")
	}
	// Unset keys still fall back to defaults.
	if cfg.DebounceInterval != 2*time.Second {
		t.Errorf("DebounceInterval = %v, want default 2s", cfg.DebounceInterval)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("QUILL_STORE_BACKEND", "sqlite")
	t.Setenv("QUILL_REMOTE_BASE_URL", "https://env.example.com")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.StoreBackend != "sqlite" {
		t.Errorf("StoreBackend = %q, want env override", cfg.StoreBackend)
	}
	if cfg.RemoteBaseURL != "https://env.example.com" {
		t.Errorf("RemoteBaseURL = %q, want env override", cfg.RemoteBaseURL)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Errorf("missing config file should fall back to defaults, got %v", err)
	}
}

func TestToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("  secret-token\n"), 0o600); err != nil {
		t.Fatalf("failed to write token: %v", err)
	}

	cfg := &Config{TokenFile: path}
	tok, err := cfg.Token()
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if tok != "secret-token" {
		t.Errorf("token = %q, want trimmed value", tok)
	}

	cfg = &Config{TokenFile: filepath.Join(t.TempDir(), "ghost")}
	if _, err := cfg.Token(); err == nil {
		t.Error("Token succeeded on a missing file")
	}
}
