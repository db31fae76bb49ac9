// Package service orchestrates the selection and calibration cycles.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/slipsmith/internal/calibration"
	"github.com/yourusername/slipsmith/internal/config"
	"github.com/yourusername/slipsmith/internal/logger"
	"github.com/yourusername/slipsmith/internal/metrics"
	"github.com/yourusername/slipsmith/internal/models"
	"github.com/yourusername/slipsmith/internal/notify"
	"github.com/yourusername/slipsmith/internal/picks"
	"github.com/yourusername/slipsmith/internal/repository"
	"github.com/yourusername/slipsmith/internal/signal"
	"github.com/yourusername/slipsmith/internal/slips"
)

const calibrationCacheKey = "latest_calibration"

// calibrationSnapshot is the slice of the latest adaptation state the
// selection path consumes.
type calibrationSnapshot struct {
	gates           models.Gates
	recommendedSize int
}

// RunOptions controls one selection cycle invocation
type RunOptions struct {
	Force  bool // bypass the one-output-per-period guard
	Replay bool // reproduce the prior cycle's categorical pattern
}

// CycleResult bundles the structured summary with the produced slips
type CycleResult struct {
	Summary *models.CycleSummary
	Slips   []models.Slip
}

// SelectionService runs the full selection pipeline: fan-out, normalize,
// aggregate, estimate, generate, select, persist, notify.
type SelectionService struct {
	repos      *repository.Repositories
	cfg        *config.Config
	fetcher    *signal.Fetcher
	normalizer *signal.Normalizer
	aggregator *picks.Aggregator
	estimator  *picks.Estimator
	validator  *slips.Validator
	generator  *slips.Generator
	selector   *slips.Selector
	replayer   *slips.Replayer
	notifier   notify.Notifier
	stateCache *cache.Cache
	logger     *logrus.Logger
	cycleLog   *logger.CycleLogger
}

// NewSelectionService wires the selection pipeline
func NewSelectionService(
	repos *repository.Repositories,
	cfg *config.Config,
	fetcher *signal.Fetcher,
	notifier notify.Notifier,
	log *logrus.Logger,
) *SelectionService {
	validator := slips.NewValidator(cfg.Selection)
	return &SelectionService{
		repos:      repos,
		cfg:        cfg,
		fetcher:    fetcher,
		normalizer: signal.NewNormalizer(log),
		aggregator: picks.NewAggregator(log),
		estimator:  picks.NewEstimator(cfg.Selection, log),
		validator:  validator,
		generator:  slips.NewGenerator(cfg.Selection, validator, log),
		selector:   slips.NewSelector(cfg.Selection, log),
		replayer:   slips.NewReplayer(validator, log),
		notifier:   notifier,
		stateCache: cache.New(5*time.Minute, 10*time.Minute),
		logger:     log,
		cycleLog:   logger.NewCycleLogger(log),
	}
}

// RunCycle executes one selection cycle. A refusal (no output, with a
// reason) is a successful invocation; only infrastructure failures return
// an error.
func (s *SelectionService) RunCycle(ctx context.Context, opts RunOptions) (*CycleResult, error) {
	startedAt := time.Now().UTC()
	summary := &models.CycleSummary{
		CycleID:   uuid.New(),
		StartedAt: startedAt,
	}

	if !opts.Force {
		produced, err := s.alreadyProduced(ctx, startedAt)
		if err != nil {
			return nil, err
		}
		if produced {
			return s.finish(ctx, summary, nil, models.RefusalAlreadyProduced), nil
		}
	}

	// Fan out to every enabled engine; failures mean absent sources, not
	// an aborted cycle.
	fanOut := s.fetcher.FetchAll(ctx)
	summary.EnginesResponded = fanOut.Responded()
	summary.EnginesFailed = fanOut.Failed()
	for _, res := range fanOut.Results {
		if res.Err != nil {
			metrics.RecordEngineFailure(res.Engine)
		}
	}

	var legs []models.CandidateLeg
	for _, res := range fanOut.Results {
		if res.Err != nil {
			continue
		}
		batch, skipped := s.normalizer.NormalizeBatch(res.Engine, res.Picks)
		legs = append(legs, batch...)
		summary.CandidatesSkipped += skipped
	}

	merged, skipped := s.aggregator.Aggregate(legs)
	summary.CandidatesSkipped += skipped
	summary.CandidatesIn = len(merged)
	if summary.CandidatesSkipped > 0 {
		metrics.CandidatesSkippedTotal.Add(float64(summary.CandidatesSkipped))
	}
	if len(merged) == 0 {
		return s.finish(ctx, summary, nil, models.RefusalNoCandidates), nil
	}

	merged, err := s.dropBlockedCategories(ctx, merged)
	if err != nil {
		return nil, err
	}
	s.estimator.EstimateAll(merged)
	summary.CandidatesAfterFilter = len(merged)
	metrics.CandidatePoolSize.Set(float64(len(merged)))

	calib := s.currentCalibration(ctx)
	scorer := slips.NewScorer(s.loadPatternBook(ctx), s.cfg.Calibration).
		WithCategoryWeights(s.loadCategoryWeights(ctx))

	var replayed []models.Slip
	if opts.Replay {
		replayed = s.replayPriorCycle(ctx, summary.CycleID, merged, scorer)
		summary.Replayed = len(replayed) > 0
	}

	var scored []models.Slip
	if summary.Replayed {
		scored = replayed
	} else {
		genResult := s.generator.Generate(summary.CycleID, merged, scorer, calib.recommendedSize)
		summary.Enumerated = genResult.Enumerated
		metrics.CombinationsEnumerated.Observe(float64(genResult.Enumerated))
		if genResult.Refusal != models.RefusalNone {
			return s.finish(ctx, summary, nil, genResult.Refusal), nil
		}
		scored = genResult.Slips
	}

	selResult := s.selector.Select(scored, calib.gates)
	if selResult.Refusal != models.RefusalNone {
		return s.finish(ctx, summary, nil, selResult.Refusal), nil
	}

	s.persistSlips(ctx, selResult.Slips)
	summary.Selected = len(selResult.Slips)

	return s.finish(ctx, summary, selResult.Slips, models.RefusalNone), nil
}

// alreadyProduced applies the one-output-per-period guard over the UTC day
func (s *SelectionService) alreadyProduced(ctx context.Context, now time.Time) (bool, error) {
	periodStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 0, 1)
	produced, err := s.repos.Slip.ExistsForPeriod(ctx, periodStart, periodEnd)
	if err != nil {
		return false, fmt.Errorf("failed to check period guard: %w", err)
	}
	return produced, nil
}

// dropBlockedCategories removes candidates whose (category, side) is
// currently blocked by calibration.
func (s *SelectionService) dropBlockedCategories(ctx context.Context, legs []models.CandidateLeg) ([]models.CandidateLeg, error) {
	blocked, err := s.repos.Weight.GetBlocked(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load blocked categories: %w", err)
	}
	if len(blocked) == 0 {
		return legs, nil
	}

	blockedKeys := make(map[string]struct{}, len(blocked))
	for _, w := range blocked {
		blockedKeys[w.Key()] = struct{}{}
	}

	out := make([]models.CandidateLeg, 0, len(legs))
	dropped := 0
	for i := range legs {
		key := legs[i].Category + "|" + string(legs[i].Side)
		if _, isBlocked := blockedKeys[key]; isBlocked {
			dropped++
			continue
		}
		out = append(out, legs[i])
	}
	if dropped > 0 {
		s.logger.WithField("dropped", dropped).Info("Dropped candidates in blocked categories")
	}
	return out, nil
}

// currentCalibration returns the latest calibrated gates and recommended
// slip size, falling back to the configured initial gates when no
// adaptation state exists. Cached briefly so forced re-runs skip the read.
func (s *SelectionService) currentCalibration(ctx context.Context) calibrationSnapshot {
	if cached, found := s.stateCache.Get(calibrationCacheKey); found {
		if snap, ok := cached.(calibrationSnapshot); ok {
			return snap
		}
	}

	snap := calibrationSnapshot{gates: calibration.InitialGates(s.cfg.Gates)}
	state, err := s.repos.Adaptation.GetLatest(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("No adaptation state available, using initial gates")
	} else {
		snap.gates = state.Gates
		snap.recommendedSize = state.RecommendedSize
	}

	s.stateCache.SetDefault(calibrationCacheKey, snap)
	metrics.UpdateGates(snap.gates.MinEdge, snap.gates.MinHitRate, snap.gates.MinScore, snap.gates.MinCombinedProb)
	return snap
}

// loadCategoryWeights maps every calibrated (category, side) to its
// effective weight for scoring. On failure the cycle scores unweighted.
func (s *SelectionService) loadCategoryWeights(ctx context.Context) map[string]float64 {
	all, err := s.repos.Weight.GetAll(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load category weights, scoring unweighted")
		return nil
	}
	weights := make(map[string]float64, len(all))
	for _, w := range all {
		weights[w.Key()] = w.EffectiveWeight()
	}
	return weights
}

// loadPatternBook loads active learned patterns; on failure the cycle
// proceeds with an empty book rather than aborting.
func (s *SelectionService) loadPatternBook(ctx context.Context) *slips.PatternBook {
	losses, err := s.repos.Pattern.GetActiveLossPatterns(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load loss patterns, scoring unpenalized")
		return slips.EmptyPatternBook()
	}
	matchups, err := s.repos.Pattern.GetActiveMatchupPatterns(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load matchup patterns, scoring unpenalized")
		return slips.EmptyPatternBook()
	}

	lossVals := make([]models.LossPattern, len(losses))
	for i, p := range losses {
		lossVals[i] = *p
	}
	matchupVals := make([]models.MatchupPattern, len(matchups))
	for i, p := range matchups {
		matchupVals[i] = *p
	}
	return slips.NewPatternBook(lossVals, matchupVals)
}

// replayPriorCycle rebuilds the most recent cycle's slips against the
// current pool, best-effort per template.
func (s *SelectionService) replayPriorCycle(ctx context.Context, cycleID uuid.UUID, pool []models.CandidateLeg, scorer *slips.Scorer) []models.Slip {
	templates, err := s.repos.Slip.GetMostRecentCycle(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load prior cycle for replay")
		return nil
	}

	var rebuilt []models.Slip
	for _, template := range templates {
		if slip := s.replayer.Replay(cycleID, template, pool, scorer); slip != nil {
			rebuilt = append(rebuilt, *slip)
		}
	}
	return rebuilt
}

// persistSlips writes the selected slips. A failed write is logged with
// full context and does not roll back the in-memory selection.
func (s *SelectionService) persistSlips(ctx context.Context, selected []models.Slip) {
	for i := range selected {
		slip := &selected[i]
		if err := s.repos.Slip.Create(ctx, slip); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"slip_id":  slip.ID,
				"cycle_id": slip.CycleID,
				"rank":     slip.Rank,
			}).Error("Failed to persist slip")
			continue
		}
		metrics.RecordSlipProduced(string(slip.Tier))
		s.cycleLog.LogSlipSelected(slip)
	}
}

// finish completes the summary, records metrics, logs the audit entry, and
// sends the notification.
func (s *SelectionService) finish(ctx context.Context, summary *models.CycleSummary, selected []models.Slip, refusal models.RefusalReason) *CycleResult {
	summary.Reason = refusal
	summary.Success = refusal == models.RefusalNone
	summary.Duration = time.Since(summary.StartedAt)

	result := "produced"
	if !summary.Success {
		result = string(refusal)
	}
	metrics.RecordCycle(result, summary.Duration.Seconds())
	s.cycleLog.LogCycleResult(summary)

	if err := s.notifier.Send(ctx, notify.FormatCycleSummary(summary, selected)); err != nil {
		s.logger.WithError(err).Warn("Failed to send cycle notification")
	}

	return &CycleResult{Summary: summary, Slips: selected}
}
