package config

import (
	"github.com/Veraticus/the-names-must-flow/internal/engine"
	"github.com/spf13/viper"
)

// LoadEngineConfig assembles the cleanup engine tuning knobs from Viper,
// keeping the engine defaults for anything unset.
func LoadEngineConfig() engine.Config {
	cfg := engine.DefaultConfig()

	if v := viper.GetFloat64("cleanup.feedback_alpha"); v > 0 {
		cfg.FeedbackAlpha = v
	}
	if v := viper.GetFloat64("cleanup.demotion_floor"); v > 0 {
		cfg.DemotionFloor = v
	}
	if v := viper.GetInt64("cleanup.min_usage"); v > 0 {
		cfg.MinUsage = v
	}

	return cfg
}
