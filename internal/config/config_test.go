package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: "9090"
log:
  level: debug
redis:
  addr: localhost:6379
  db: 2
  ttl: 5m
sqlite:
  path: /tmp/kana.db
stats:
  cache_ttl: 15s
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Log.Level != "debug" || cfg.Redis.DB != 2 || cfg.SQLite.Path != "/tmp/kana.db" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if got := TTLDuration(cfg.Stats.CacheTTL, 0); got != 15*time.Second {
		t.Fatalf("expected 15s cache ttl, got %s", got)
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[server]
port = "7070"

[postgres]
url = "postgres://quiz@localhost/quiz"

[quiz]
dictionary = "dict.yaml"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "7070" || cfg.Postgres.URL == "" || cfg.Quiz.Dictionary != "dict.yaml" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for empty, got %s", got)
	}
	if got := TTLDuration("soon", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for garbage, got %s", got)
	}
}
