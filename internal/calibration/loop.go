package calibration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/slipsmith/internal/config"
	"github.com/yourusername/slipsmith/internal/logger"
	"github.com/yourusername/slipsmith/internal/models"
	"github.com/yourusername/slipsmith/internal/repository"
)

// minTierSamples is the smallest settled count a slip size needs before it
// can be recommended.
const minTierSamples = 5

// SlateSource supplies the live slate snapshot used for regime detection.
// Optional; without one, detection falls back to trailing win rate alone.
type SlateSource interface {
	Snapshot(ctx context.Context) (models.SlateSnapshot, error)
}

// Loop is the scheduled calibration process. Each stage is independently
// fault-tolerant: a stage's failure is recorded and later stages still run.
type Loop struct {
	repos    *repository.Repositories
	cfg      *config.Config
	tuner    *GateTuner
	miner    *PatternMiner
	slate    SlateSource
	logger   *logrus.Logger
	cycleLog *logger.CycleLogger
}

// NewLoop creates a calibration loop
func NewLoop(repos *repository.Repositories, cfg *config.Config, slate SlateSource, log *logrus.Logger) *Loop {
	return &Loop{
		repos:    repos,
		cfg:      cfg,
		tuner:    NewGateTuner(cfg.Gates, cfg.Calibration, log),
		miner:    NewPatternMiner(cfg.Calibration),
		slate:    slate,
		logger:   log,
		cycleLog: logger.NewCycleLogger(log),
	}
}

// Run executes one calibration cycle and persists the resulting adaptation
// state. Only a failed state write returns an error; stage failures are
// recorded in the state itself.
func (l *Loop) Run(ctx context.Context) (*models.AdaptationState, error) {
	now := time.Now().UTC()
	state := &models.AdaptationState{ID: uuid.New(), CreatedAt: now}

	windowStart := now.AddDate(0, 0, -l.cfg.Calibration.RecencyWindowDays)
	trailingStart := now.AddDate(0, 0, -l.cfg.Calibration.TrailingWindowDays)

	var (
		outcomes     []*models.SettledOutcome
		settledSlips []*models.Slip
		samples      map[string]*RateSample
		weights      map[string]*models.CategoryWeight
	)

	l.stage(state, "load_history", func() error {
		var err error
		outcomes, err = l.repos.Outcome.GetSettledSince(ctx, windowStart)
		if err != nil {
			return fmt.Errorf("failed to load settled outcomes: %w", err)
		}
		settledSlips, err = l.repos.Slip.GetSettledSince(ctx, windowStart)
		if err != nil {
			return fmt.Errorf("failed to load settled slips: %w", err)
		}
		return nil
	})

	l.stage(state, "recency_reweighting", func() error {
		samples = AccumulateRates(outcomes, now, l.cfg.Calibration.HalfLifeDays)
		weights = make(map[string]*models.CategoryWeight, len(samples))

		for key, sample := range samples {
			category, side := splitCategorySideKey(key)
			w, err := l.repos.Weight.Get(ctx, category, side)
			if err != nil {
				if !errors.Is(err, models.ErrNotFound) {
					return fmt.Errorf("failed to load weight for %s: %w", key, err)
				}
				w = &models.CategoryWeight{Category: category, Side: side, Weight: 1.0}
			}

			// Streaks and counts are rebuilt from the window each cycle
			w.SampleCount = 0
			w.CurrentStreak = 0
			w.BestStreak = 0
			w.WorstStreak = 0
			w.RawHitRate = sample.RawRate()
			w.RecencyHitRate = sample.RecencyRate()
			weights[key] = w
		}

		// Outcomes arrive oldest first, so streaks replay chronologically
		for _, o := range outcomes {
			if !o.Counted() {
				continue
			}
			if w, ok := weights[o.CategorySideKey()]; ok {
				w.RecordResult(o.Won())
			}
		}
		return nil
	})

	l.stage(state, "regime_detection", func() error {
		winRate, _, err := l.trailingPrimaryWinRate(ctx, trailingStart)
		if err != nil {
			return err
		}
		state.TrailingWinRate = winRate

		snapshot := models.SlateSnapshot{TrailingWinRate: winRate}
		if l.slate != nil {
			snapshot, err = l.slate.Snapshot(ctx)
			if err != nil {
				return fmt.Errorf("failed to snapshot slate: %w", err)
			}
			snapshot.TrailingWinRate = winRate
		}

		regime, confidence := DetectRegime(snapshot)
		state.Regime = regime
		state.RegimeConfidence = confidence

		for _, w := range weights {
			w.RegimeMultiplier = MultiplierFor(regime, w.Category)
		}
		return nil
	})

	l.stage(state, "bayesian_smoothing", func() error {
		for key, w := range weights {
			sample := samples[key]
			prior := PriorFor(w.Category)
			w.SmoothedHitRate = SmoothedRate(prior, l.cfg.Calibration.PriorStrength,
				float64(sample.RawHits), float64(sample.RawTotal))
			w.Weight = w.SmoothedHitRate * 2

			l.applyBlocking(w)

			w.UpdatedAt = now
			if err := l.repos.Weight.Upsert(ctx, w); err != nil {
				return fmt.Errorf("failed to upsert weight %s: %w", key, err)
			}
		}
		return nil
	})

	l.stage(state, "pattern_mining", func() error {
		losses := l.miner.MineCategorySidePatterns(outcomes)
		losses = append(losses, l.miner.MineSingleEnginePatterns(settledSlips)...)
		for i := range losses {
			losses[i].ID = uuid.New()
			losses[i].UpdatedAt = now
			if err := l.repos.Pattern.UpsertLossPattern(ctx, &losses[i]); err != nil {
				return fmt.Errorf("failed to upsert loss pattern %s: %w", losses[i].Key, err)
			}
		}

		matchups := l.miner.MineMatchupPatterns(outcomes)
		for i := range matchups {
			matchups[i].ID = uuid.New()
			matchups[i].UpdatedAt = now
			if err := l.repos.Pattern.UpsertMatchupPattern(ctx, &matchups[i]); err != nil {
				return fmt.Errorf("failed to upsert matchup pattern %s: %w", matchups[i].Key(), err)
			}
		}
		return nil
	})

	l.stage(state, "correlation_mining", func() error {
		state.Correlations = MineCorrelations(settledSlips,
			l.cfg.Calibration.CorrelationMinSamples, l.cfg.Calibration.CorrelationTopPairs)
		return nil
	})

	l.stage(state, "gate_tuning", func() error {
		prev := InitialGates(l.cfg.Gates)
		latest, err := l.repos.Adaptation.GetLatest(ctx)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("failed to load previous adaptation state: %w", err)
		}
		if latest != nil {
			prev = latest.Gates
		}

		winRate, count, err := l.trailingPrimaryWinRate(ctx, trailingStart)
		if err != nil {
			return err
		}
		state.Gates = l.tuner.Tune(prev, winRate, count)
		return nil
	})

	l.stage(state, "tier_recommendation", func() error {
		state.RecommendedSize = recommendSize(settledSlips)
		return nil
	})

	if err := l.repos.Adaptation.Create(ctx, state); err != nil {
		l.logger.WithError(err).Error("Failed to persist adaptation state")
		return state, fmt.Errorf("failed to persist adaptation state: %w", err)
	}

	l.logger.WithFields(logrus.Fields{
		"regime":            state.Regime,
		"trailing_win_rate": state.TrailingWinRate,
		"recommended_size":  state.RecommendedSize,
		"stages":            len(state.StageResults),
	}).Info("Calibration cycle complete")

	return state, nil
}

// stage runs one calibration stage, recording its outcome without letting
// a failure abort the remaining stages.
func (l *Loop) stage(state *models.AdaptationState, name string, fn func() error) {
	if err := fn(); err != nil {
		l.logger.WithError(err).WithField("stage", name).Error("Calibration stage failed")
		state.StageResults = append(state.StageResults, models.StageResult{Stage: name, Error: err.Error()})
		return
	}
	state.StageResults = append(state.StageResults, models.StageResult{Stage: name, OK: true})
}

// applyBlocking enforces the block floor and the data-driven unblock. A
// category blocks when its smoothed rate sustains below the floor over
// enough samples, and unblocks only after recovering past the floor by the
// configured margin.
func (l *Loop) applyBlocking(w *models.CategoryWeight) {
	calib := l.cfg.Calibration
	if !w.Blocked {
		if w.SampleCount >= calib.BlockMinSamples && w.SmoothedHitRate < calib.BlockFloor {
			w.Blocked = true
			w.BlockReason = fmt.Sprintf("smoothed hit rate %.3f below floor %.3f over %d samples",
				w.SmoothedHitRate, calib.BlockFloor, w.SampleCount)
			l.cycleLog.LogCategoryBlocked(w.Category, w.Side, true, w.BlockReason)
		}
		return
	}
	if w.SmoothedHitRate >= calib.BlockFloor+calib.UnblockMargin {
		w.Blocked = false
		w.BlockReason = ""
		l.cycleLog.LogCategoryBlocked(w.Category, w.Side, false,
			fmt.Sprintf("smoothed hit rate recovered to %.3f", w.SmoothedHitRate))
	}
}

// trailingPrimaryWinRate computes the settled win rate of primary-tier
// slips over the trailing window.
func (l *Loop) trailingPrimaryWinRate(ctx context.Context, since time.Time) (float64, int, error) {
	slips, err := l.repos.Slip.GetSettledByTierSince(ctx, models.SlipTierPrimary, since)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load trailing primary slips: %w", err)
	}

	wins, count := 0, 0
	for _, s := range slips {
		if !s.IsSettled() {
			continue
		}
		count++
		if s.Outcome == models.SlipOutcomeWin {
			wins++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(wins) / float64(count), count, nil
}

// recommendSize picks the best-performing slip size with enough settled
// samples; zero means no recommendation.
func recommendSize(slips []*models.Slip) int {
	type counts struct{ wins, total int }
	bySize := make(map[int]*counts)
	for _, s := range slips {
		if !s.IsSettled() {
			continue
		}
		c, ok := bySize[s.Size()]
		if !ok {
			c = &counts{}
			bySize[s.Size()] = c
		}
		c.total++
		if s.Outcome == models.SlipOutcomeWin {
			c.wins++
		}
	}

	best, bestRate := 0, -1.0
	for size, c := range bySize {
		if c.total < minTierSamples {
			continue
		}
		rate := float64(c.wins) / float64(c.total)
		if rate > bestRate || (rate == bestRate && size < best) {
			best, bestRate = size, rate
		}
	}
	return best
}

func splitCategorySideKey(key string) (string, models.Side) {
	parts := strings.SplitN(key, "|", 2)
	if len(parts) != 2 {
		return key, ""
	}
	return parts[0], models.Side(parts[1])
}
