package slips

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/slipsmith/internal/config"
	"github.com/yourusername/slipsmith/internal/models"
)

// GenerationResult summarizes one enumeration pass over the candidate pool
type GenerationResult struct {
	Slips      []models.Slip
	PoolSize   int
	Enumerated int
	Blocked    int
	Relaxed    bool
	Refusal    models.RefusalReason
}

// Generator enumerates and scores all legal fixed-size combinations from
// the top of the candidate pool.
type Generator struct {
	cfg       config.SelectionConfig
	validator *Validator
	logger    *logrus.Logger
}

// NewGenerator creates a combination generator
func NewGenerator(cfg config.SelectionConfig, validator *Validator, logger *logrus.Logger) *Generator {
	return &Generator{cfg: cfg, validator: validator, logger: logger}
}

// Generate filters the candidate pool by the per-leg probability floor
// (relaxing once if too few survive), caps the pool for tractability, then
// enumerates every legal combination of each allowed size and scores it.
// A calibrated recommendedSize within the configured range narrows
// enumeration to that size, widening back to the full range when it yields
// nothing. An empty result with a refusal reason is an intended terminal
// state.
func (g *Generator) Generate(cycleID uuid.UUID, candidates []models.CandidateLeg, scorer *Scorer, recommendedSize int) *GenerationResult {
	result := &GenerationResult{}

	pool := filterByProbability(candidates, g.cfg.MinLegProbability)
	if len(pool) < g.cfg.MinSlipSize {
		pool = filterByProbability(candidates, g.cfg.RelaxedLegProbability)
		result.Relaxed = true
		g.logger.WithFields(logrus.Fields{
			"floor":     g.cfg.RelaxedLegProbability,
			"surviving": len(pool),
		}).Info("Relaxed per-leg probability floor")
	}
	if len(pool) < g.cfg.MinSlipSize {
		result.Refusal = models.RefusalInsufficientQuality
		return result
	}

	// Keep only the strongest candidates before enumeration; sorting is
	// stable so equal probabilities keep their first-seen order.
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Probability > pool[j].Probability
	})
	if len(pool) > g.cfg.PoolCap {
		pool = pool[:g.cfg.PoolCap]
	}
	result.PoolSize = len(pool)

	now := time.Now().UTC()
	if recommendedSize >= g.cfg.MinSlipSize && recommendedSize <= g.cfg.MaxSlipSize && recommendedSize <= len(pool) {
		g.enumerateSize(cycleID, pool, recommendedSize, scorer, now, result)
		if len(result.Slips) == 0 {
			g.logger.WithField("size", recommendedSize).
				Info("No legal combination at recommended size, widening to the full range")
			for size := g.cfg.MinSlipSize; size <= g.cfg.MaxSlipSize && size <= len(pool); size++ {
				if size == recommendedSize {
					continue
				}
				g.enumerateSize(cycleID, pool, size, scorer, now, result)
			}
		}
	} else {
		for size := g.cfg.MinSlipSize; size <= g.cfg.MaxSlipSize && size <= len(pool); size++ {
			g.enumerateSize(cycleID, pool, size, scorer, now, result)
		}
	}

	if len(result.Slips) == 0 {
		result.Refusal = models.RefusalNoLegalCombination
	}

	return result
}

func (g *Generator) enumerateSize(cycleID uuid.UUID, pool []models.CandidateLeg, size int, scorer *Scorer, now time.Time, result *GenerationResult) {
	acc := NewAccumulator(size)
	g.enumerate(cycleID, pool, 0, size, acc, scorer, now, result)
}

// enumerate backtracks through the pool building combinations of the exact
// target size, validating each extension before descending.
func (g *Generator) enumerate(cycleID uuid.UUID, pool []models.CandidateLeg, start, size int, acc *Accumulator, scorer *Scorer, now time.Time, result *GenerationResult) {
	if acc.Size() == size {
		result.Enumerated++
		slip := models.Slip{
			ID:        uuid.New(),
			CycleID:   cycleID,
			Legs:      acc.Legs(),
			Outcome:   models.SlipOutcomePending,
			CreatedAt: now,
		}
		if !scorer.Score(&slip) {
			result.Blocked++
			return
		}
		result.Slips = append(result.Slips, slip)
		return
	}

	remaining := size - acc.Size()
	for i := start; i <= len(pool)-remaining; i++ {
		if !g.validator.CanAdd(&pool[i], acc) {
			continue
		}
		acc.Add(pool[i])
		g.enumerate(cycleID, pool, i+1, size, acc, scorer, now, result)
		acc.RemoveLast()
	}
}

func filterByProbability(candidates []models.CandidateLeg, floor float64) []models.CandidateLeg {
	out := make([]models.CandidateLeg, 0, len(candidates))
	for i := range candidates {
		if candidates[i].Probability >= floor {
			out = append(out, candidates[i])
		}
	}
	return out
}
