package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	BoardWidth  int
	BoardHeight int

	TurnDuration     time.Duration
	DecisionDuration time.Duration

	TickInterval  time.Duration
	MatchInterval time.Duration

	RedisURL    string
	DatabaseURL string

	MatchingConfigPath string

	// FixedRules overrides random rule selection when non-empty.
	FixedRules []string

	DefaultRating int
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		BoardWidth:       10,
		BoardHeight:      10,
		TurnDuration:     15 * time.Second,
		DecisionDuration: 30 * time.Second,
		TickInterval:     50 * time.Millisecond,
		MatchInterval:    time.Second,
		DefaultRating:    1000,
	}

	if v := strings.TrimSpace(os.Getenv("BOARD_WIDTH")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BoardWidth = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("BOARD_HEIGHT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BoardHeight = n
		}
	}
	if d, ok := envDuration("TURN_DURATION"); ok {
		cfg.TurnDuration = d
	}
	if d, ok := envDuration("DECISION_DURATION"); ok {
		cfg.DecisionDuration = d
	}
	if d, ok := envDuration("TICK_INTERVAL"); ok {
		cfg.TickInterval = d
	}
	if d, ok := envDuration("MATCH_INTERVAL"); ok {
		cfg.MatchInterval = d
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.MatchingConfigPath = strings.TrimSpace(os.Getenv("MATCHING_CONFIG"))

	if v := strings.TrimSpace(os.Getenv("FIXED_RULES")); v != "" {
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				cfg.FixedRules = append(cfg.FixedRules, s)
			}
		}
	}
	if v := strings.TrimSpace(os.Getenv("DEFAULT_RATING")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.DefaultRating = n
		}
	}

	if cfg.BoardWidth < 5 || cfg.BoardHeight < 5 {
		return nil, errors.New("board must be at least 5x5")
	}
	if cfg.TurnDuration <= 0 || cfg.DecisionDuration <= 0 {
		return nil, errors.New("turn and decision durations must be positive")
	}

	return cfg, nil
}

func envDuration(key string) (time.Duration, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d, true
	}
	// bare numbers are treated as milliseconds
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Millisecond, true
	}
	return 0, false
}
