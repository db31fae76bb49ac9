package picks

import (
	"github.com/sirupsen/logrus"
	"github.com/yourusername/slipsmith/internal/config"
	"github.com/yourusername/slipsmith/internal/models"
)

// corroborationBonus is added once per source beyond the first, so
// agreement across independent engines nudges the estimate up without
// letting signal stacking run away.
const corroborationBonus = 0.015

// Estimator computes a calibrated hit probability, an edge value, and a
// volatility tier for each merged candidate leg.
type Estimator struct {
	extractors []SignalExtractor
	ceiling    float64
	logger     *logrus.Logger
}

// NewEstimator creates an estimator with the default extractor registry
func NewEstimator(cfg config.SelectionConfig, logger *logrus.Logger) *Estimator {
	return &Estimator{
		extractors: DefaultExtractors(),
		ceiling:    cfg.ProbabilityCeiling,
		logger:     logger,
	}
}

// NewEstimatorWithExtractors creates an estimator with a custom registry
func NewEstimatorWithExtractors(extractors []SignalExtractor, ceiling float64, logger *logrus.Logger) *Estimator {
	return &Estimator{extractors: extractors, ceiling: ceiling, logger: logger}
}

// EstimateAll derives probability, edge, and volatility for every leg in
// place and returns the same slice.
func (e *Estimator) EstimateAll(legs []models.CandidateLeg) []models.CandidateLeg {
	for i := range legs {
		e.Estimate(&legs[i])
	}
	return legs
}

// Estimate fills in the derived fields of one candidate leg
func (e *Estimator) Estimate(leg *models.CandidateLeg) {
	leg.Probability = e.estimateProbability(leg)
	leg.Edge = e.estimateEdge(leg)
	leg.Volatility = VolatilityFor(leg.Category)
}

// estimateProbability blends every available signal via a reliability-
// weighted average, falls back to the price-implied probability when no
// signal is present, then applies a capped corroboration bonus.
func (e *Estimator) estimateProbability(leg *models.CandidateLeg) float64 {
	var weightedSum, totalWeight float64
	for i := range e.extractors {
		ext := &e.extractors[i]
		raw, ok := ext.Extract(leg)
		if !ok {
			continue
		}
		weightedSum += ext.Clamp(raw) * ext.Weight
		totalWeight += ext.Weight
	}

	var p float64
	if totalWeight == 0 {
		p = leg.ImpliedProbability()
	} else {
		p = weightedSum / totalWeight
	}

	if extra := len(leg.Sources) - 1; extra > 0 {
		p += float64(extra) * corroborationBonus
	}

	if p > e.ceiling {
		p = e.ceiling
	}
	if p <= 0 {
		p = 0.01
	}
	return p
}

// estimateEdge prefers an explicit edge from a calibrated signal and
// otherwise uses the normalized distance between the estimated and
// price-implied probabilities.
func (e *Estimator) estimateEdge(leg *models.CandidateLeg) float64 {
	if leg.ExplicitEdge != nil {
		return *leg.ExplicitEdge
	}
	implied := leg.ImpliedProbability()
	if implied <= 0 {
		return 0
	}
	return (leg.Probability - implied) / implied
}
