package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PLYWOOD_CONFIG", "REDIS_URL", "DATABASE_URL", "PLYWOOD_LISTEN_ADDR", "PLYWOOD_SEARCH_DEPTH", "PLYWOOD_SNAPSHOT_TTL"} {
		t.Setenv(key, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SearchDepth != 4 {
		t.Fatalf("search depth = %d, want 4", cfg.SearchDepth)
	}
	if cfg.SnapshotTTLSec != 86400 {
		t.Fatalf("snapshot ttl = %d, want 86400", cfg.SnapshotTTLSec)
	}
	if cfg.RedisURL != "" || cfg.DatabaseURL != "" || cfg.ListenAddr != "" {
		t.Fatalf("optional backends should default to empty")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plywood.yaml")
	content := "search_depth: 3\nredis_url: redis://file:6379/0\nhistory_limit: 25\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PLYWOOD_CONFIG", path)
	t.Setenv("PLYWOOD_SEARCH_DEPTH", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SearchDepth != 2 {
		t.Fatalf("env should win over file: depth = %d, want 2", cfg.SearchDepth)
	}
	if cfg.RedisURL != "redis://file:6379/0" {
		t.Fatalf("redis url from file lost: %q", cfg.RedisURL)
	}
	if cfg.HistoryLimit != 25 {
		t.Fatalf("history limit = %d, want 25", cfg.HistoryLimit)
	}
}

func TestLoadRejectsBadDepth(t *testing.T) {
	t.Setenv("PLYWOOD_SEARCH_DEPTH", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero search depth")
	}
}

func TestLoadIgnoresUnparsableInts(t *testing.T) {
	t.Setenv("PLYWOOD_HISTORY_LIMIT", "many")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HistoryLimit != 10 {
		t.Fatalf("history limit = %d, want default 10", cfg.HistoryLimit)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("PLYWOOD_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
