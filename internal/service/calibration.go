package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/slipsmith/internal/calibration"
	"github.com/yourusername/slipsmith/internal/config"
	"github.com/yourusername/slipsmith/internal/logger"
	"github.com/yourusername/slipsmith/internal/metrics"
	"github.com/yourusername/slipsmith/internal/models"
	"github.com/yourusername/slipsmith/internal/repository"
)

// CalibrationService runs the calibration loop and records its effects for
// audit and monitoring.
type CalibrationService struct {
	loop     *calibration.Loop
	repos    *repository.Repositories
	logger   *logrus.Logger
	cycleLog *logger.CycleLogger
}

// NewCalibrationService wires the calibration loop
func NewCalibrationService(repos *repository.Repositories, cfg *config.Config, slate calibration.SlateSource, log *logrus.Logger) *CalibrationService {
	return &CalibrationService{
		loop:     calibration.NewLoop(repos, cfg, slate, log),
		repos:    repos,
		logger:   log,
		cycleLog: logger.NewCycleLogger(log),
	}
}

// Run executes one calibration cycle
func (s *CalibrationService) Run(ctx context.Context) (*models.AdaptationState, error) {
	start := time.Now()

	prevGates, hadPrev := s.previousGates(ctx)

	state, err := s.loop.Run(ctx)
	metrics.CalibrationDuration.Observe(time.Since(start).Seconds())
	if state != nil {
		for _, stage := range state.StageResults {
			if !stage.OK {
				metrics.RecordCalibrationStageFailure(stage.Stage)
			}
		}
		metrics.TrailingWinRate.Set(state.TrailingWinRate)
		metrics.UpdateGates(state.Gates.MinEdge, state.Gates.MinHitRate,
			state.Gates.MinScore, state.Gates.MinCombinedProb)

		if hadPrev {
			s.auditGateChanges(prevGates, state.Gates, state.TrailingWinRate)
		}
	}
	if err != nil {
		return state, err
	}

	s.updateBlockedGauge(ctx)
	return state, nil
}

func (s *CalibrationService) previousGates(ctx context.Context) (models.Gates, bool) {
	latest, err := s.repos.Adaptation.GetLatest(ctx)
	if err != nil || latest == nil {
		return models.Gates{}, false
	}
	return latest.Gates, true
}

func (s *CalibrationService) auditGateChanges(prev, next models.Gates, winRate float64) {
	if prev.MinEdge != next.MinEdge {
		s.cycleLog.LogGateChange("min_edge", prev.MinEdge, next.MinEdge, winRate)
	}
	if prev.MinHitRate != next.MinHitRate {
		s.cycleLog.LogGateChange("min_hit_rate", prev.MinHitRate, next.MinHitRate, winRate)
	}
	if prev.MinScore != next.MinScore {
		s.cycleLog.LogGateChange("min_score", prev.MinScore, next.MinScore, winRate)
	}
	if prev.MinCombinedProb != next.MinCombinedProb {
		s.cycleLog.LogGateChange("min_combined_prob", prev.MinCombinedProb, next.MinCombinedProb, winRate)
	}
}

func (s *CalibrationService) updateBlockedGauge(ctx context.Context) {
	blocked, err := s.repos.Weight.GetBlocked(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to count blocked categories")
		return
	}
	metrics.BlockedCategories.Set(float64(len(blocked)))
}
