package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
llm:
  caps_path: caps.yaml
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != 8001 {
		t.Fatalf("expected default http_port 8001, got %d", cfg.Server.HTTPPort)
	}
	if cfg.Database.MemoriesPath != "memories.sqlite" {
		t.Fatalf("expected default memories path, got %q", cfg.Database.MemoriesPath)
	}
	if cfg.Database.ExperimentalPath != "experimental_db.sqlite" {
		t.Fatalf("expected default experimental path, got %q", cfg.Database.ExperimentalPath)
	}
	if cfg.Database.BusyTimeoutMS != 30000 {
		t.Fatalf("expected default busy timeout, got %d", cfg.Database.BusyTimeoutMS)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadRequiresCapsPath(t *testing.T) {
	path := writeConfig(t, `server:
  host: 127.0.0.1
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for missing llm.caps_path")
	}
	if !strings.Contains(err.Error(), "caps_path") {
		t.Fatalf("expected caps_path error, got %v", err)
	}
}

func TestLoadRejectsSameDatabasePaths(t *testing.T) {
	path := writeConfig(t, `
llm:
  caps_path: caps.yaml
database:
  memories_path: state.sqlite
  experimental_path: state.sqlite
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for identical database paths")
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	path := writeConfig(t, `
llm:
  caps_path: caps.yaml
server:
  http_port: 99999
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for out-of-range http_port")
	}
}

func TestApplyServeFlagsOverridesConfig(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.ApplyServeFlags(ServeFlags{
		APIKey:     "secret",
		HTTPPort:   9100,
		LogsStderr: true,
	})
	if cfg.Server.APIKey != "secret" {
		t.Fatalf("expected api key override, got %q", cfg.Server.APIKey)
	}
	if cfg.Server.HTTPPort != 9100 {
		t.Fatalf("expected http port override, got %d", cfg.Server.HTTPPort)
	}
	if !cfg.Server.LogsStderr {
		t.Fatal("expected logs_stderr to be set")
	}
}
