package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// GameConfig is the tunable game balance, loaded from an optional YAML file
// (GAME_CONFIG). Missing file or empty path means defaults.
type GameConfig struct {
	Multiplayer MultiplayerConfig `yaml:"multiplayer"`
	Energy      EnergyConfig      `yaml:"energy"`
}

type MultiplayerConfig struct {
	CountdownSeconds     int   `yaml:"countdown_seconds"`
	PlaySeconds          int   `yaml:"play_seconds"`
	SearchTimeoutSeconds int   `yaml:"search_timeout_seconds"`
	WinReward            int64 `yaml:"win_reward"`
	LossPenalty          int64 `yaml:"loss_penalty"`
	LoserMinBalance      int64 `yaml:"loser_min_balance"`
	SweepIntervalSeconds int   `yaml:"sweep_interval_seconds"`
	RetentionMinutes     int   `yaml:"retention_minutes"`
}

type EnergyConfig struct {
	RegenIntervalMillis int `yaml:"regen_interval_millis"`
	DefaultMax          int `yaml:"default_max"`
}

func defaultGameConfig() GameConfig {
	return GameConfig{
		Multiplayer: MultiplayerConfig{
			CountdownSeconds:     5,
			PlaySeconds:          60,
			SearchTimeoutSeconds: 30,
			WinReward:            350,
			LossPenalty:          -100,
			LoserMinBalance:      100,
			SweepIntervalSeconds: 30,
			RetentionMinutes:     10,
		},
		Energy: EnergyConfig{
			RegenIntervalMillis: 1500,
			DefaultMax:          500,
		},
	}
}

func LoadGameConfig(path string) (GameConfig, error) {
	cfg := defaultGameConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("game config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("game config: %w", err)
	}
	return cfg, nil
}

func (c GameConfig) Validate() error {
	m := c.Multiplayer
	if m.CountdownSeconds < 0 {
		return fmt.Errorf("countdown_seconds must be >= 0")
	}
	if m.PlaySeconds <= 0 {
		return fmt.Errorf("play_seconds must be > 0")
	}
	if m.WinReward < 0 {
		return fmt.Errorf("win_reward must be >= 0")
	}
	if m.LossPenalty > 0 {
		return fmt.Errorf("loss_penalty must be <= 0")
	}
	if m.SweepIntervalSeconds <= 0 {
		return fmt.Errorf("sweep_interval_seconds must be > 0")
	}
	if m.RetentionMinutes < 0 {
		return fmt.Errorf("retention_minutes must be >= 0")
	}
	if c.Energy.RegenIntervalMillis <= 0 {
		return fmt.Errorf("regen_interval_millis must be > 0")
	}
	if c.Energy.DefaultMax <= 0 {
		return fmt.Errorf("default_max must be > 0")
	}
	return nil
}

func (m MultiplayerConfig) Countdown() time.Duration {
	return time.Duration(m.CountdownSeconds) * time.Second
}

func (m MultiplayerConfig) PlayDuration() time.Duration {
	return time.Duration(m.PlaySeconds) * time.Second
}

func (m MultiplayerConfig) SweepInterval() time.Duration {
	return time.Duration(m.SweepIntervalSeconds) * time.Second
}

func (m MultiplayerConfig) Retention() time.Duration {
	return time.Duration(m.RetentionMinutes) * time.Minute
}

func (e EnergyConfig) RegenInterval() time.Duration {
	return time.Duration(e.RegenIntervalMillis) * time.Millisecond
}
