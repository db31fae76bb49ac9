// Package config provides configuration management for the Slipsmith application.
package config

import (
	"fmt"
)

// Config represents the complete application configuration
type Config struct {
	App         AppConfig         `mapstructure:"app" validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database" validate:"required"`
	Sources     SourcesConfig     `mapstructure:"sources" validate:"required"`
	Selection   SelectionConfig   `mapstructure:"selection" validate:"required"`
	Gates       GatesConfig       `mapstructure:"gates" validate:"required"`
	Calibration CalibrationConfig `mapstructure:"calibration" validate:"required"`
	Schedule    ScheduleConfig    `mapstructure:"schedule" validate:"required"`
	Metrics     MetricsConfig     `mapstructure:"metrics" validate:"required"`
	Notify      NotifyConfig      `mapstructure:"notify"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// SourcesConfig represents signal-engine fan-out configuration
type SourcesConfig struct {
	Engines              []EngineConfig `mapstructure:"engines" validate:"required,min=1,dive"`
	FanoutTimeoutSeconds int            `mapstructure:"fanout_timeout_seconds" validate:"required,gt=0"`
	CacheTTLSeconds      int            `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	RateLimit            float64        `mapstructure:"rate_limit" validate:"required,gt=0"`
	MaxRetries           int            `mapstructure:"max_retries" validate:"gte=0"`
}

// EngineConfig represents one upstream signal engine
type EngineConfig struct {
	Name           string `mapstructure:"name" validate:"required"`
	URL            string `mapstructure:"url" validate:"required,url"`
	APIKey         string `mapstructure:"api_key"`
	Enabled        bool   `mapstructure:"enabled"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"required,gt=0"`
}

// SelectionConfig represents slip generation and selection configuration
type SelectionConfig struct {
	MinLegProbability     float64 `mapstructure:"min_leg_probability" validate:"required,gt=0,lt=1"`
	RelaxedLegProbability float64 `mapstructure:"relaxed_leg_probability" validate:"required,gt=0,lt=1"`
	ProbabilityCeiling    float64 `mapstructure:"probability_ceiling" validate:"required,gt=0,lt=1"`
	MinSlipSize           int     `mapstructure:"min_slip_size" validate:"required,min=2"`
	MaxSlipSize           int     `mapstructure:"max_slip_size" validate:"required,min=2"`
	PoolCap               int     `mapstructure:"pool_cap" validate:"required,gt=0"`
	MaxSelections         int     `mapstructure:"max_selections" validate:"required,gt=0"`
	EventExposureCap      int     `mapstructure:"event_exposure_cap" validate:"required,gt=0"`
	CategoryRepetitionCap int     `mapstructure:"category_repetition_cap" validate:"required,gt=0"`
	CrossSlipSubjectCap   int     `mapstructure:"cross_slip_subject_cap" validate:"required,gt=0"`
	TrustedSource         string  `mapstructure:"trusted_source" validate:"required"`
	MinTrustedLegs        int     `mapstructure:"min_trusted_legs" validate:"gte=0"`
	AlternateProbFraction float64 `mapstructure:"alternate_prob_fraction" validate:"required,gt=0,lte=1"`
}

// GateBand represents one auto-tuned gate with its hard bounds
type GateBand struct {
	Initial float64 `mapstructure:"initial" validate:"required"`
	Floor   float64 `mapstructure:"floor"`
	Ceiling float64 `mapstructure:"ceiling" validate:"required"`
	Step    float64 `mapstructure:"step" validate:"required,gt=0"`
}

// GatesConfig represents the quality gates and their tuning bands
type GatesConfig struct {
	MinEdge         GateBand `mapstructure:"min_edge" validate:"required"`
	MinHitRate      GateBand `mapstructure:"min_hit_rate" validate:"required"`
	MinScore        GateBand `mapstructure:"min_score" validate:"required"`
	MinCombinedProb GateBand `mapstructure:"min_combined_prob" validate:"required"`
}

// CalibrationConfig represents the calibration loop configuration
type CalibrationConfig struct {
	RecencyWindowDays     int     `mapstructure:"recency_window_days" validate:"required,gt=0"`
	HalfLifeDays          float64 `mapstructure:"half_life_days" validate:"required,gt=0"`
	PriorStrength         float64 `mapstructure:"prior_strength" validate:"required,gt=0"`
	BlockFloor            float64 `mapstructure:"block_floor" validate:"required,gt=0,lt=1"`
	BlockMinSamples       int     `mapstructure:"block_min_samples" validate:"required,gt=0"`
	UnblockMargin         float64 `mapstructure:"unblock_margin" validate:"required,gt=0,lt=1"`
	CorrelationMinSamples int     `mapstructure:"correlation_min_samples" validate:"required,gt=0"`
	CorrelationTopPairs   int     `mapstructure:"correlation_top_pairs" validate:"required,gt=0"`
	WinRateUpper          float64 `mapstructure:"win_rate_upper" validate:"required,gt=0,lt=1"`
	WinRateLower          float64 `mapstructure:"win_rate_lower" validate:"required,gt=0,lt=1"`
	TrailingWindowDays    int     `mapstructure:"trailing_window_days" validate:"required,gt=0"`
	PatternMinSamples     int     `mapstructure:"pattern_min_samples" validate:"required,gt=0"`
	BoostAccuracyMin      float64 `mapstructure:"boost_accuracy_min" validate:"required,gt=0,lt=1"`
	PenaltyAccuracyMax    float64 `mapstructure:"penalty_accuracy_max" validate:"required,gt=0,lt=1"`
}

// ScheduleConfig represents cron schedules for the two loops
type ScheduleConfig struct {
	SelectionCron   string `mapstructure:"selection_cron" validate:"required"`
	CalibrationCron string `mapstructure:"calibration_cron" validate:"required"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Port       int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path       string `mapstructure:"path" validate:"required"`
	HealthPort int    `mapstructure:"health_port" validate:"required,min=1,max=65535"`
}

// NotifyConfig represents the optional notification channel
type NotifyConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	TelegramToken string `mapstructure:"telegram_token"`
	TelegramChat  string `mapstructure:"telegram_chat"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// EnabledEngines returns the configured engines that are switched on
func (c *Config) EnabledEngines() []EngineConfig {
	engines := make([]EngineConfig, 0, len(c.Sources.Engines))
	for _, e := range c.Sources.Engines {
		if e.Enabled {
			engines = append(engines, e)
		}
	}
	return engines
}
