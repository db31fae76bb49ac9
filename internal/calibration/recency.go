package calibration

import (
	"math"
	"time"

	"github.com/yourusername/slipsmith/internal/models"
)

// RecencyWeight returns the exponential-decay weight of an observation.
// Weight is 1.0 at zero elapsed time and halves every half-life.
func RecencyWeight(elapsed time.Duration, halfLifeDays float64) float64 {
	days := elapsed.Hours() / 24
	if days < 0 {
		days = 0
	}
	return math.Pow(0.5, days/halfLifeDays)
}

// RateSample accumulates raw and recency-weighted hit counts for one
// (category, side) pair.
type RateSample struct {
	RawHits       int
	RawTotal      int
	WeightedHits  float64
	WeightedTotal float64
}

// RawRate returns the unweighted hit rate
func (s *RateSample) RawRate() float64 {
	if s.RawTotal == 0 {
		return 0
	}
	return float64(s.RawHits) / float64(s.RawTotal)
}

// RecencyRate returns the decay-weighted hit rate
func (s *RateSample) RecencyRate() float64 {
	if s.WeightedTotal == 0 {
		return 0
	}
	return s.WeightedHits / s.WeightedTotal
}

// AccumulateRates folds settled outcomes into per-(category, side) rate
// samples. Voided outcomes are excluded.
func AccumulateRates(outcomes []*models.SettledOutcome, now time.Time, halfLifeDays float64) map[string]*RateSample {
	samples := make(map[string]*RateSample)
	for _, o := range outcomes {
		if !o.Counted() {
			continue
		}
		key := o.CategorySideKey()
		sample, ok := samples[key]
		if !ok {
			sample = &RateSample{}
			samples[key] = sample
		}

		weight := RecencyWeight(now.Sub(o.SettledAt), halfLifeDays)
		sample.RawTotal++
		sample.WeightedTotal += weight
		if o.Won() {
			sample.RawHits++
			sample.WeightedHits += weight
		}
	}
	return samples
}
