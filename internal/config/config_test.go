package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BoardWidth != 10 || cfg.BoardHeight != 10 {
		t.Fatalf("default board = %dx%d, want 10x10", cfg.BoardWidth, cfg.BoardHeight)
	}
	if cfg.TurnDuration != 15*time.Second {
		t.Fatalf("default turn duration = %v", cfg.TurnDuration)
	}
	if cfg.DecisionDuration != 30*time.Second {
		t.Fatalf("default decision duration = %v", cfg.DecisionDuration)
	}
	if cfg.DefaultRating != 1000 {
		t.Fatalf("default rating = %d", cfg.DefaultRating)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BOARD_WIDTH", "15")
	t.Setenv("TURN_DURATION", "5s")
	t.Setenv("DECISION_DURATION", "10000")
	t.Setenv("FIXED_RULES", "speed_game, joker_summon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BoardWidth != 15 {
		t.Fatalf("BOARD_WIDTH not applied: %d", cfg.BoardWidth)
	}
	if cfg.TurnDuration != 5*time.Second {
		t.Fatalf("TURN_DURATION not applied: %v", cfg.TurnDuration)
	}
	if cfg.DecisionDuration != 10*time.Second {
		t.Fatalf("bare millisecond duration not applied: %v", cfg.DecisionDuration)
	}
	if len(cfg.FixedRules) != 2 || cfg.FixedRules[0] != "speed_game" || cfg.FixedRules[1] != "joker_summon" {
		t.Fatalf("FIXED_RULES not parsed: %v", cfg.FixedRules)
	}
}

func TestLoadRejectsTinyBoard(t *testing.T) {
	t.Setenv("BOARD_WIDTH", "4")
	if _, err := Load(); err == nil {
		t.Fatalf("boards under 5x5 must be rejected")
	}
}
