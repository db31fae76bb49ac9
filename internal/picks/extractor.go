package picks

import "github.com/yourusername/slipsmith/internal/models"

// SignalExtractor maps one kind of signal on a candidate leg to a
// probability-like value. Each extractor declares a reliability weight and a
// bounded value range; adding a new signal source means registering an
// extractor, not editing estimator logic.
type SignalExtractor struct {
	Name    string
	Weight  float64 // relative reliability in the weighted blend
	Min     float64 // lower bound of the emitted probability range
	Max     float64 // upper bound of the emitted probability range
	Extract func(leg *models.CandidateLeg) (float64, bool)
}

// Clamp bounds a raw extracted value into the extractor's declared range
func (e *SignalExtractor) Clamp(v float64) float64 {
	if v < e.Min {
		return e.Min
	}
	if v > e.Max {
		return e.Max
	}
	return v
}

// DefaultExtractors returns the standard extractor registry, ordered by
// reliability. Hit-rate-derived signals outweigh raw model scores, which in
// turn outweigh one-off momentum heuristics.
func DefaultExtractors() []SignalExtractor {
	return []SignalExtractor{
		{
			Name:   "hit_rate",
			Weight: 3.0,
			Min:    0.35,
			Max:    0.85,
			Extract: func(leg *models.CandidateLeg) (float64, bool) {
				if leg.HitRateSignal == nil {
					return 0, false
				}
				return *leg.HitRateSignal, true
			},
		},
		{
			Name:   "model_score",
			Weight: 2.0,
			Min:    0.40,
			Max:    0.80,
			Extract: func(leg *models.CandidateLeg) (float64, bool) {
				score, ok := leg.SourceScores["model"]
				return score, ok
			},
		},
		{
			Name:   "edge_signal",
			Weight: 1.2,
			Min:    0.45,
			Max:    0.75,
			Extract: func(leg *models.CandidateLeg) (float64, bool) {
				// The edge engine's score is an edge over the implied
				// probability, not a probability itself.
				score, ok := leg.SourceScores["edge"]
				if !ok {
					return 0, false
				}
				return leg.ImpliedProbability() + score, true
			},
		},
		{
			Name:   "steam",
			Weight: 0.8,
			Min:    0.45,
			Max:    0.70,
			Extract: func(leg *models.CandidateLeg) (float64, bool) {
				score, ok := leg.SourceScores["steam"]
				if !ok {
					return 0, false
				}
				// Steam strength nudges off the implied baseline
				return leg.ImpliedProbability() + score*0.05, true
			},
		},
	}
}
