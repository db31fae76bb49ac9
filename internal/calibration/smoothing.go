package calibration

import (
	"github.com/yourusername/slipsmith/internal/models"
	"github.com/yourusername/slipsmith/internal/picks"
)

// Class priors by volatility tier. Noisier categories get a more
// pessimistic prior.
var classPriors = map[models.VolatilityTier]float64{
	models.VolatilityLow:    0.55,
	models.VolatilityMedium: 0.52,
	models.VolatilityHigh:   0.48,
}

// PriorFor returns the category-class prior hit rate
func PriorFor(category string) float64 {
	return classPriors[picks.VolatilityFor(category)]
}

// SmoothedRate blends an observed rate with a prior, weighted by sample
// size, so small samples cannot swing calibration. With zero samples the
// result is exactly the prior; as samples grow the result converges on the
// observed rate.
func SmoothedRate(prior, priorStrength float64, hits, total float64) float64 {
	return (prior*priorStrength + hits) / (priorStrength + total)
}
