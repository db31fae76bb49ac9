// Package config provides configuration management for the Slipsmith application.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Register custom validation functions
	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	// Additional cross-field validations
	if err := validateCrossField(cfg); err != nil {
		return err
	}

	return nil
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	env := fl.Field().String()
	switch env {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	level := fl.Field().String()
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	// Gate bands must be well-formed: floor <= initial <= ceiling
	gates := map[string]GateBand{
		"min_edge":          cfg.Gates.MinEdge,
		"min_hit_rate":      cfg.Gates.MinHitRate,
		"min_score":         cfg.Gates.MinScore,
		"min_combined_prob": cfg.Gates.MinCombinedProb,
	}
	for name, band := range gates {
		if band.Floor > band.Ceiling {
			return fmt.Errorf("gate %s: floor %.4f exceeds ceiling %.4f", name, band.Floor, band.Ceiling)
		}
		if band.Initial < band.Floor || band.Initial > band.Ceiling {
			return fmt.Errorf("gate %s: initial %.4f outside [%.4f, %.4f]", name, band.Initial, band.Floor, band.Ceiling)
		}
	}

	// Probability floors must relax downward and stay under the ceiling
	if cfg.Selection.RelaxedLegProbability > cfg.Selection.MinLegProbability {
		return fmt.Errorf("relaxed_leg_probability cannot exceed min_leg_probability")
	}
	if cfg.Selection.MinLegProbability >= cfg.Selection.ProbabilityCeiling {
		return fmt.Errorf("min_leg_probability must be below probability_ceiling")
	}
	if cfg.Selection.MinSlipSize > cfg.Selection.MaxSlipSize {
		return fmt.Errorf("min_slip_size cannot exceed max_slip_size")
	}
	if cfg.Selection.PoolCap < cfg.Selection.MaxSlipSize {
		return fmt.Errorf("pool_cap must be at least max_slip_size")
	}

	// Win-rate thresholds must leave a hold band between them
	if cfg.Calibration.WinRateLower >= cfg.Calibration.WinRateUpper {
		return fmt.Errorf("win_rate_lower must be below win_rate_upper")
	}

	// Validate production environment requirements
	if cfg.IsProduction() {
		if cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
		}
	}

	// Validate connection pool settings
	if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
		return fmt.Errorf("max_idle_connections cannot exceed max_connections")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}
