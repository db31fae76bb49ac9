package calibration

import (
	"github.com/sirupsen/logrus"
	"github.com/yourusername/slipsmith/internal/config"
	"github.com/yourusername/slipsmith/internal/models"
)

// GateTuner nudges the quality gates against trailing win rate. Gates can
// never leave their configured [floor, ceiling] band regardless of how
// long a streak runs.
type GateTuner struct {
	cfg          config.GatesConfig
	winRateUpper float64
	winRateLower float64
	logger       *logrus.Logger
}

// NewGateTuner creates a gate tuner
func NewGateTuner(gates config.GatesConfig, calib config.CalibrationConfig, logger *logrus.Logger) *GateTuner {
	return &GateTuner{
		cfg:          gates,
		winRateUpper: calib.WinRateUpper,
		winRateLower: calib.WinRateLower,
		logger:       logger,
	}
}

// InitialGates returns the configured starting gate values
func InitialGates(cfg config.GatesConfig) models.Gates {
	return models.Gates{
		MinEdge:         cfg.MinEdge.Initial,
		MinHitRate:      cfg.MinHitRate.Initial,
		MinScore:        cfg.MinScore.Initial,
		MinCombinedProb: cfg.MinCombinedProb.Initial,
	}
}

// Tune adjusts the previous cycle's gates one step. A win rate above the
// upper threshold relaxes gates (lower requirements); below the lower
// threshold tightens them; in between, or with no settled sample, gates
// hold.
func (t *GateTuner) Tune(prev models.Gates, trailingWinRate float64, sampleCount int) models.Gates {
	if sampleCount == 0 {
		return clampGates(prev, t.cfg)
	}

	var direction float64
	switch {
	case trailingWinRate >= t.winRateUpper:
		direction = -1 // relax
	case trailingWinRate <= t.winRateLower:
		direction = 1 // tighten
	default:
		return clampGates(prev, t.cfg)
	}

	next := models.Gates{
		MinEdge:         prev.MinEdge + direction*t.cfg.MinEdge.Step,
		MinHitRate:      prev.MinHitRate + direction*t.cfg.MinHitRate.Step,
		MinScore:        prev.MinScore + direction*t.cfg.MinScore.Step,
		MinCombinedProb: prev.MinCombinedProb + direction*t.cfg.MinCombinedProb.Step,
	}
	next = clampGates(next, t.cfg)

	t.logger.WithFields(logrus.Fields{
		"trailing_win_rate": trailingWinRate,
		"samples":           sampleCount,
		"tightened":         direction > 0,
		"min_edge":          next.MinEdge,
		"min_hit_rate":      next.MinHitRate,
		"min_score":         next.MinScore,
		"min_combined_prob": next.MinCombinedProb,
	}).Info("Tuned quality gates")

	return next
}

func clampGates(g models.Gates, cfg config.GatesConfig) models.Gates {
	return models.Gates{
		MinEdge:         clamp(g.MinEdge, cfg.MinEdge.Floor, cfg.MinEdge.Ceiling),
		MinHitRate:      clamp(g.MinHitRate, cfg.MinHitRate.Floor, cfg.MinHitRate.Ceiling),
		MinScore:        clamp(g.MinScore, cfg.MinScore.Floor, cfg.MinScore.Ceiling),
		MinCombinedProb: clamp(g.MinCombinedProb, cfg.MinCombinedProb.Floor, cfg.MinCombinedProb.Ceiling),
	}
}

func clamp(v, floor, ceiling float64) float64 {
	if v < floor {
		return floor
	}
	if v > ceiling {
		return ceiling
	}
	return v
}
