package calibration

import (
	"math"

	"github.com/yourusername/slipsmith/internal/config"
	"github.com/yourusername/slipsmith/internal/models"
)

// blockAccuracy is the hit rate below which a loss pattern escalates from
// penalizing to blocking outright.
const blockAccuracy = 0.30

// PatternMiner derives loss and matchup patterns from settled history
type PatternMiner struct {
	minSamples         int
	boostAccuracyMin   float64
	penaltyAccuracyMax float64
}

// NewPatternMiner creates a pattern miner from calibration config
func NewPatternMiner(cfg config.CalibrationConfig) *PatternMiner {
	return &PatternMiner{
		minSamples:         cfg.PatternMinSamples,
		boostAccuracyMin:   cfg.BoostAccuracyMin,
		penaltyAccuracyMax: cfg.PenaltyAccuracyMax,
	}
}

// MineCategorySidePatterns builds loss patterns for (category, side) pairs
// whose settled hit rate is weak over enough samples.
func (m *PatternMiner) MineCategorySidePatterns(outcomes []*models.SettledOutcome) []models.LossPattern {
	type counts struct{ hits, misses int }
	byKey := make(map[string]*counts)
	for _, o := range outcomes {
		if !o.Counted() {
			continue
		}
		c, ok := byKey[o.CategorySideKey()]
		if !ok {
			c = &counts{}
			byKey[o.CategorySideKey()] = c
		}
		if o.Won() {
			c.hits++
		} else {
			c.misses++
		}
	}

	patterns := make([]models.LossPattern, 0, len(byKey))
	for key, c := range byKey {
		p := models.LossPattern{
			Kind:   models.SignatureCategorySide,
			Key:    key,
			Hits:   c.hits,
			Misses: c.misses,
		}
		m.classify(&p)
		patterns = append(patterns, p)
	}
	return patterns
}

// MineSingleEnginePatterns builds loss patterns for slips backed entirely
// by one engine, keyed by that engine's tag.
func (m *PatternMiner) MineSingleEnginePatterns(slips []*models.Slip) []models.LossPattern {
	type counts struct{ hits, misses int }
	byEngine := make(map[string]*counts)
	for _, slip := range slips {
		if !slip.IsSettled() || slip.DistinctSources() != 1 {
			continue
		}
		engine := slip.Legs[0].Sources[0]
		c, ok := byEngine[engine]
		if !ok {
			c = &counts{}
			byEngine[engine] = c
		}
		if slip.Outcome == models.SlipOutcomeWin {
			c.hits++
		} else {
			c.misses++
		}
	}

	patterns := make([]models.LossPattern, 0, len(byEngine))
	for engine, c := range byEngine {
		p := models.LossPattern{
			Kind:   models.SignatureSingleEngine,
			Key:    engine,
			Hits:   c.hits,
			Misses: c.misses,
		}
		m.classify(&p)
		patterns = append(patterns, p)
	}
	return patterns
}

// classify sets activation, penalty magnitude, and mode from the pattern's
// observed accuracy. Patterns with few samples or unremarkable accuracy
// stay inactive.
func (m *PatternMiner) classify(p *models.LossPattern) {
	p.Mode = models.PatternModePenalize
	if p.SampleCount() < m.minSamples {
		return
	}
	accuracy := p.Accuracy()
	if accuracy > m.penaltyAccuracyMax {
		return
	}

	p.Active = true
	p.Penalty = math.Min((m.penaltyAccuracyMax-accuracy)*2, 1.0)
	if accuracy <= blockAccuracy {
		p.Mode = models.PatternModeBlock
	}
}

// MineMatchupPatterns builds (category, side, opponent tier) patterns from
// settled outcomes that carry a tier. A pattern boosts when its accuracy
// clears the boost threshold and penalizes when it falls below the penalty
// threshold; everything in between stays inactive.
func (m *PatternMiner) MineMatchupPatterns(outcomes []*models.SettledOutcome) []models.MatchupPattern {
	type counts struct{ hits, misses int }
	type sig struct {
		category string
		side     models.Side
		tier     models.OpponentTier
	}
	bySig := make(map[sig]*counts)
	for _, o := range outcomes {
		if !o.Counted() || o.OpponentTier == "" {
			continue
		}
		s := sig{o.Category, o.Side, o.OpponentTier}
		c, ok := bySig[s]
		if !ok {
			c = &counts{}
			bySig[s] = c
		}
		if o.Won() {
			c.hits++
		} else {
			c.misses++
		}
	}

	patterns := make([]models.MatchupPattern, 0, len(bySig))
	for s, c := range bySig {
		p := models.MatchupPattern{
			Category:     s.category,
			Side:         s.side,
			OpponentTier: s.tier,
			Hits:         c.hits,
			Misses:       c.misses,
		}
		if p.SampleCount() >= m.minSamples {
			accuracy := p.Accuracy()
			switch {
			case accuracy >= m.boostAccuracyMin:
				p.Active = true
				p.Boost = true
				p.Adjustment = math.Abs(accuracy - 0.5)
			case accuracy <= m.penaltyAccuracyMax:
				p.Active = true
				p.Adjustment = math.Abs(accuracy - 0.5)
			}
		}
		patterns = append(patterns, p)
	}
	return patterns
}
