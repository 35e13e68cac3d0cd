package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.SessionTTL() != 24*time.Hour {
		t.Fatalf("ttl = %v, want 24h", cfg.SessionTTL())
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  addr: ":9000"
  session_ttl: "1h"
storage:
  db_path: "/tmp/app.db"
  upload_dir: "/tmp/uploads"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.SessionTTL() != time.Hour {
		t.Fatalf("ttl = %v, want 1h", cfg.SessionTTL())
	}
	if cfg.Storage.DBPath != "/tmp/app.db" {
		t.Fatalf("db_path = %q", cfg.Storage.DBPath)
	}
}

func TestBadTTLFallsBack(t *testing.T) {
	cfg := Default()
	cfg.Server.SessionTTL = "not-a-duration"
	if cfg.SessionTTL() != 24*time.Hour {
		t.Fatalf("ttl = %v, want 24h fallback", cfg.SessionTTL())
	}
}
