// Package signal fetches and normalizes candidate picks from upstream
// signal engines.
package signal

import (
	"context"
	"errors"
)

// Engine defines the interface for one upstream signal source
type Engine interface {
	// Name returns the engine's source tag attached to candidate legs
	Name() string

	// Fetch retrieves the engine's current raw picks
	Fetch(ctx context.Context) ([]RawPick, error)

	// IsEnabled returns whether this engine is currently enabled
	IsEnabled() bool
}

// RawPick is one engine-specific candidate record before normalization.
// Field presence varies by engine; the normalizer and estimator decide what
// each populated field means.
type RawPick struct {
	Subject      string   `json:"subject"`
	Category     string   `json:"category"`
	Side         string   `json:"side"`
	Line         *float64 `json:"line,omitempty"`
	Price        int      `json:"price"`
	EventKey     string   `json:"event_key"`
	Opponent     string   `json:"opponent,omitempty"`
	OpponentTier string   `json:"opponent_tier,omitempty"`
	Score        float64  `json:"score"`
	HitRate      *float64 `json:"hit_rate,omitempty"`
	Edge         *float64 `json:"edge,omitempty"`
}

// EngineError represents errors from signal engine operations
type EngineError struct {
	Engine  string
	Code    string
	Message string
	Err     error
}

func (e EngineError) Error() string {
	if e.Err != nil {
		return e.Engine + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Engine + ": " + e.Code + ": " + e.Message
}

func (e EngineError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
)

// Sentinel errors
var (
	ErrEngineDisabled = errors.New("engine is disabled")
)

// NewEngineError creates a new engine error
func NewEngineError(engine, code, message string, err error) EngineError {
	return EngineError{
		Engine:  engine,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
