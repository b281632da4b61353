// Package matching groups queued tickets into game-ready parties by
// rating proximity, wait time, and accumulated credit.
package matching

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config tunes the pairing window and the group scoring formula.
type Config struct {
	// BaseGap is the rating distance two fresh tickets may span.
	BaseGap float64 `yaml:"base_gap"`
	// TimeWeight widens the window with the square root of wait seconds.
	TimeWeight float64 `yaml:"time_weight"`
	// CreditWeight widens the window per failed evaluation pass survived.
	CreditWeight float64 `yaml:"credit_weight"`
	// BaseScore seeds every candidate group's score.
	BaseScore float64 `yaml:"base_score"`
	// StddevWeight penalises rating spread inside a group.
	StddevWeight float64 `yaml:"stddev_weight"`
	// DeltaPenaltyWeight penalises max-min rating gaps beyond BaseGap.
	DeltaPenaltyWeight float64 `yaml:"delta_penalty_weight"`
	// GroupCreditWeight rewards total accumulated credit.
	GroupCreditWeight float64 `yaml:"group_credit_weight"`
	// HeadcountWeight rewards larger groups.
	HeadcountWeight float64 `yaml:"headcount_weight"`
	// ScoreLimit is the minimum score a group must reach to be accepted.
	ScoreLimit float64 `yaml:"score_limit"`
}

// DefaultConfig returns the tuning used when no file overrides it.
func DefaultConfig() Config {
	return Config{
		BaseGap:            150,
		TimeWeight:         20,
		CreditWeight:       80,
		BaseScore:          10000,
		StddevWeight:       -60,
		DeltaPenaltyWeight: -1,
		GroupCreditWeight:  15,
		HeadcountWeight:    30,
		ScoreLimit:         10000,
	}
}

// LoadConfig reads a YAML tuning file over the defaults. A missing path
// returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("matching: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("matching: parse config: %w", err)
	}
	return cfg, nil
}
