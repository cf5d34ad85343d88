package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("ENV", "does-not-exist")
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := Defaults()
	want.Env = "does-not-exist"
	if cfg != want {
		t.Fatalf("expected defaults with overridden Env, got %+v, want %+v", cfg, want)
	}
}

func TestLoadDefaultsEnvToDevelopment(t *testing.T) {
	t.Setenv("ENV", "")
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected Env to default to development, got %q", cfg.Env)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ENV", "staging")
	path := filepath.Join(dir, "config.staging.json")
	if err := os.WriteFile(path, []byte(`{"server_port":9090,"ws_server_idle":30}`), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ServerPort != 9090 {
		t.Fatalf("expected server_port 9090, got %d", cfg.ServerPort)
	}
	if cfg.WSServerIdle != 30 {
		t.Fatalf("expected ws_server_idle 30, got %d", cfg.WSServerIdle)
	}
	if cfg.Env != "staging" {
		t.Fatalf("expected env staging, got %q", cfg.Env)
	}
	if cfg.WSClientInterval != Defaults().WSClientInterval {
		t.Fatalf("expected unset ws_client_interval to keep its default, got %d", cfg.WSClientInterval)
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ENV", "broken")
	path := filepath.Join(dir, "config.broken.json")
	if err := os.WriteFile(path, []byte(`not json`), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("expected an error for malformed config JSON")
	}
}
