package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadGameConfigDefaults(t *testing.T) {
	cfg, err := LoadGameConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	m := cfg.Multiplayer
	if m.CountdownSeconds != 5 || m.PlaySeconds != 60 || m.SearchTimeoutSeconds != 30 {
		t.Fatalf("unexpected match timings: %+v", m)
	}
	if m.WinReward != 350 || m.LossPenalty != -100 || m.LoserMinBalance != 100 {
		t.Fatalf("unexpected rewards: %+v", m)
	}
	if cfg.Energy.RegenInterval() != 1500*time.Millisecond {
		t.Fatalf("regen interval=%v", cfg.Energy.RegenInterval())
	}
	if cfg.Energy.DefaultMax != 500 {
		t.Fatalf("default max energy=%d", cfg.Energy.DefaultMax)
	}
	if m.SweepInterval() != 30*time.Second || m.Retention() != 10*time.Minute {
		t.Fatalf("unexpected sweep settings: %+v", m)
	}
}

func TestLoadGameConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.yaml")
	body := `
multiplayer:
  countdown_seconds: 3
  play_seconds: 90
  win_reward: 500
  loser_min_balance: 250
energy:
  regen_interval_millis: 1000
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadGameConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	m := cfg.Multiplayer
	if m.CountdownSeconds != 3 || m.PlaySeconds != 90 || m.WinReward != 500 || m.LoserMinBalance != 250 {
		t.Fatalf("overrides not applied: %+v", m)
	}
	// Untouched keys keep their defaults.
	if m.LossPenalty != -100 || m.SearchTimeoutSeconds != 30 {
		t.Fatalf("defaults clobbered: %+v", m)
	}
	if cfg.Energy.RegenInterval() != time.Second {
		t.Fatalf("regen interval=%v", cfg.Energy.RegenInterval())
	}
	if cfg.Energy.DefaultMax != 500 {
		t.Fatalf("default max energy=%d", cfg.Energy.DefaultMax)
	}
}

func TestLoadGameConfigRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.yaml")
	body := `
multiplayer:
  play_seconds: -10
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadGameConfig(path); err == nil {
		t.Fatal("negative play_seconds accepted")
	}
}

func TestLoadGameConfigMissingFile(t *testing.T) {
	if _, err := LoadGameConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("missing explicit config path accepted")
	}
}
