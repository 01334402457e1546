package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"arena-service/internal/config"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.CardGame.StartingHealth != 100 || cfg.CardGame.HandSize != 15 || cfg.CardGame.FeeBps != 300 {
		t.Fatalf("unexpected card game defaults: %+v", cfg.CardGame)
	}
	if cfg.Spectator.Buffer != 16 || cfg.Server.Port != "5005" || cfg.Redis.Enabled {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: "8080"
  mode: release
jwt:
  secret: file-secret
cardgame:
  handSize: 10
  autoBegin: true
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CARDGAME_HANDSIZE", "7")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.JWT.Secret != "file-secret" || !cfg.CardGame.AutoBegin {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.CardGame.HandSize != 7 {
		t.Fatalf("expected env override to win, got %d", cfg.CardGame.HandSize)
	}
}
