package slips

import (
	"math"

	"github.com/yourusername/slipsmith/internal/config"
	"github.com/yourusername/slipsmith/internal/models"
)

// Score weights. The edge term rewards positive expected value, the
// variance term punishes noisy categories, and the diversity term rewards
// corroboration across engines. The category-weight term leans on the
// calibrated per-category effective weights, centered at a neutral 1.0.
const (
	edgeWeight          = 2.0
	varianceWeight      = 0.15
	diversityPerSource  = 0.10
	categoryWeightScale = 0.25
)

// PatternBook holds the active learned patterns for one scoring cycle,
// indexed for exact-key lookup per signature kind.
type PatternBook struct {
	singleEngine map[string]*models.LossPattern
	categorySide map[string]*models.LossPattern
	matchups     map[string]*models.MatchupPattern
}

// NewPatternBook indexes active patterns by their structural signature
func NewPatternBook(losses []models.LossPattern, matchups []models.MatchupPattern) *PatternBook {
	book := &PatternBook{
		singleEngine: make(map[string]*models.LossPattern),
		categorySide: make(map[string]*models.LossPattern),
		matchups:     make(map[string]*models.MatchupPattern),
	}
	for i := range losses {
		p := &losses[i]
		if !p.Active {
			continue
		}
		switch p.Kind {
		case models.SignatureSingleEngine:
			book.singleEngine[p.Key] = p
		case models.SignatureCategorySide:
			book.categorySide[p.Key] = p
		}
	}
	for i := range matchups {
		p := &matchups[i]
		if !p.Active {
			continue
		}
		book.matchups[p.Key()] = p
	}
	return book
}

// EmptyPatternBook returns a book with no patterns, used when pattern
// loading fails and the cycle proceeds unpenalized.
func EmptyPatternBook() *PatternBook {
	return NewPatternBook(nil, nil)
}

// Scorer computes the ranking score for complete legal combinations
type Scorer struct {
	book               *PatternBook
	weights            map[string]float64
	patternMinSamples  int
	boostAccuracyMin   float64
	penaltyAccuracyMax float64
}

// NewScorer creates a scorer over the given pattern book
func NewScorer(book *PatternBook, cfg config.CalibrationConfig) *Scorer {
	return &Scorer{
		book:               book,
		patternMinSamples:  cfg.PatternMinSamples,
		boostAccuracyMin:   cfg.BoostAccuracyMin,
		penaltyAccuracyMax: cfg.PenaltyAccuracyMax,
	}
}

// WithCategoryWeights attaches calibrated per-(category, side) effective
// weights so historically strong categories outrank weak ones at equal
// probability. Keys follow the CategoryWeight key format.
func (s *Scorer) WithCategoryWeights(weights map[string]float64) *Scorer {
	s.weights = weights
	return s
}

// Score fills in the slip's score components and final score. It returns
// false when a block-mode loss pattern matches, meaning the combination is
// illegal rather than merely lower-scored.
func (s *Scorer) Score(slip *models.Slip) bool {
	var logProbSum, edgeSum, varianceSum float64
	combined := 1.0
	for i := range slip.Legs {
		leg := &slip.Legs[i]
		logProbSum += math.Log(leg.Probability)
		edgeSum += leg.Edge
		varianceSum += leg.Volatility.Penalty()
		combined *= leg.Probability
	}

	slip.CombinedProbability = combined
	slip.TotalEdge = edgeSum
	slip.VariancePenalty = varianceSum
	slip.DiversityBonus = s.diversityBonus(slip)

	patternPenalty, blocked := s.patternPenalty(slip)
	if blocked {
		return false
	}
	slip.PatternPenalty = patternPenalty
	slip.MatchupAdjustment = s.matchupAdjustment(slip)
	slip.WeightAdjustment = s.weightAdjustment(slip)

	slip.Score = logProbSum +
		edgeWeight*edgeSum -
		varianceWeight*varianceSum +
		slip.DiversityBonus -
		slip.PatternPenalty +
		slip.MatchupAdjustment +
		slip.WeightAdjustment
	slip.CombinedPrice = models.ComputeCombinedPrice(slip.Legs)

	return true
}

// diversityBonus rewards slips whose legs come from more distinct engines.
// A slip backed by a single engine earns nothing.
func (s *Scorer) diversityBonus(slip *models.Slip) float64 {
	distinct := slip.DistinctSources()
	if distinct <= 1 {
		return 0
	}
	return float64(distinct-1) * diversityPerSource
}

// patternPenalty sums active loss-pattern penalties matched by the slip's
// structural signatures. A block-mode match returns blocked=true.
func (s *Scorer) patternPenalty(slip *models.Slip) (float64, bool) {
	var penalty float64

	for _, engine := range singleEngineSignature(slip) {
		if p, ok := s.book.singleEngine[engine]; ok {
			if p.Mode == models.PatternModeBlock {
				return 0, true
			}
			penalty += p.Penalty
		}
	}

	seen := make(map[string]struct{}, len(slip.Legs))
	for i := range slip.Legs {
		key := slip.Legs[i].Category + "|" + string(slip.Legs[i].Side)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if p, ok := s.book.categorySide[key]; ok {
			if p.Mode == models.PatternModeBlock {
				return 0, true
			}
			penalty += p.Penalty
		}
	}

	return penalty, false
}

// matchupAdjustment nets the per-leg matchup boosts and penalties. Patterns
// with too few samples or middling accuracy are ignored.
func (s *Scorer) matchupAdjustment(slip *models.Slip) float64 {
	var adjustment float64
	for i := range slip.Legs {
		leg := &slip.Legs[i]
		key := models.MatchupKey(leg.Category, leg.Side, leg.OpponentTier)
		p, ok := s.book.matchups[key]
		if !ok || p.SampleCount() < s.patternMinSamples {
			continue
		}
		if p.Boost && p.Accuracy() >= s.boostAccuracyMin {
			adjustment += p.Adjustment
		} else if !p.Boost && p.Accuracy() <= s.penaltyAccuracyMax {
			adjustment -= p.Adjustment
		}
	}
	return adjustment
}

// weightAdjustment sums the per-leg deviation of each category's calibrated
// effective weight from neutral. Categories without a weight contribute
// nothing.
func (s *Scorer) weightAdjustment(slip *models.Slip) float64 {
	if len(s.weights) == 0 {
		return 0
	}
	var adjustment float64
	for i := range slip.Legs {
		key := slip.Legs[i].Category + "|" + string(slip.Legs[i].Side)
		if w, ok := s.weights[key]; ok {
			adjustment += (w - 1.0) * categoryWeightScale
		}
	}
	return adjustment
}

// singleEngineSignature returns the engine tag when every leg of the slip
// traces back to exactly one engine, else nothing.
func singleEngineSignature(slip *models.Slip) []string {
	seen := make(map[string]struct{})
	for i := range slip.Legs {
		for _, src := range slip.Legs[i].Sources {
			seen[src] = struct{}{}
		}
	}
	if len(seen) != 1 {
		return nil
	}
	for engine := range seen {
		return []string{engine}
	}
	return nil
}
