// Package config provides configuration management for the Slipsmith application.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	// Read the configuration file
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the configuration (${VAR} syntax)
	expanded := os.ExpandEnv(string(data))

	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewBuffer([]byte(expanded))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables override file values (SLIPSMITH_DATABASE_HOST etc.)
	v.SetEnvPrefix("SLIPSMITH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional fields.
// Missing config files are tolerated; defaults and environment variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	v := viper.New()

	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v.SetConfigType("yaml")
	v.SetEnvPrefix("SLIPSMITH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBuffer([]byte(expanded))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "slipsmith")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9091)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.health_port", 8081)

	v.SetDefault("selection.min_leg_probability", 0.55)
	v.SetDefault("selection.relaxed_leg_probability", 0.50)
	v.SetDefault("selection.probability_ceiling", 0.92)
	v.SetDefault("selection.min_slip_size", 2)
	v.SetDefault("selection.max_slip_size", 4)
	v.SetDefault("selection.pool_cap", 18)
	v.SetDefault("selection.max_selections", 3)
	v.SetDefault("selection.event_exposure_cap", 2)
	v.SetDefault("selection.category_repetition_cap", 2)
	v.SetDefault("selection.cross_slip_subject_cap", 2)
	v.SetDefault("selection.trusted_source", "model")
	v.SetDefault("selection.min_trusted_legs", 1)
	v.SetDefault("selection.alternate_prob_fraction", 0.8)

	v.SetDefault("gates.min_edge", map[string]interface{}{"initial": 0.03, "floor": 0.01, "ceiling": 0.10, "step": 0.005})
	v.SetDefault("gates.min_hit_rate", map[string]interface{}{"initial": 0.52, "floor": 0.45, "ceiling": 0.65, "step": 0.01})
	v.SetDefault("gates.min_score", map[string]interface{}{"initial": -2.5, "floor": -4.0, "ceiling": -1.0, "step": 0.1})
	v.SetDefault("gates.min_combined_prob", map[string]interface{}{"initial": 0.15, "floor": 0.08, "ceiling": 0.30, "step": 0.01})

	v.SetDefault("calibration.recency_window_days", 45)
	v.SetDefault("calibration.half_life_days", 10.0)
	v.SetDefault("calibration.prior_strength", 20.0)
	v.SetDefault("calibration.block_floor", 0.42)
	v.SetDefault("calibration.block_min_samples", 25)
	v.SetDefault("calibration.unblock_margin", 0.04)
	v.SetDefault("calibration.correlation_min_samples", 10)
	v.SetDefault("calibration.correlation_top_pairs", 10)
	v.SetDefault("calibration.win_rate_upper", 0.60)
	v.SetDefault("calibration.win_rate_lower", 0.45)
	v.SetDefault("calibration.trailing_window_days", 14)
	v.SetDefault("calibration.pattern_min_samples", 8)
	v.SetDefault("calibration.boost_accuracy_min", 0.60)
	v.SetDefault("calibration.penalty_accuracy_max", 0.40)

	v.SetDefault("schedule.selection_cron", "0 14 * * *")
	v.SetDefault("schedule.calibration_cron", "30 6 * * *")

	v.SetDefault("sources.fanout_timeout_seconds", 20)
	v.SetDefault("sources.cache_ttl_seconds", 120)
	v.SetDefault("sources.rate_limit", 10.0)
	v.SetDefault("sources.max_retries", 3)
}

// ReloadFromEnv reloads the configuration from the path named by
// SLIPSMITH_CONFIG_PATH, if set.
func ReloadFromEnv(cfg *Config) error {
	if envPath := os.Getenv("SLIPSMITH_CONFIG_PATH"); envPath != "" {
		newCfg, err := Load(envPath)
		if err != nil {
			return err
		}
		*cfg = *newCfg
	}
	return nil
}
