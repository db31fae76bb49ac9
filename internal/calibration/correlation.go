package calibration

import (
	"math"
	"sort"

	"github.com/yourusername/slipsmith/internal/models"
)

// pairStats accumulates joint outcomes for one (category, side) pair of pairs
type pairStats struct {
	coOccur     int
	jointWins   int
	jointLosses int
}

// MineCorrelations counts pairwise co-occurrence of (category, side) pairs
// across settled slips and ranks them by the strength of their co-movement.
// Pairs below the minimum sample size are dropped; at most topPairs are
// returned.
func MineCorrelations(slips []*models.Slip, minSamples, topPairs int) []models.CategoryPairCorrelation {
	stats := make(map[[2]string]*pairStats)

	for _, slip := range slips {
		if !slip.IsSettled() {
			continue
		}
		keys := categorySideKeys(slip)
		won := slip.Outcome == models.SlipOutcomeWin

		for i := 0; i < len(keys); i++ {
			for j := i + 1; j < len(keys); j++ {
				pair := orderedPair(keys[i], keys[j])
				st, ok := stats[pair]
				if !ok {
					st = &pairStats{}
					stats[pair] = st
				}
				st.coOccur++
				if won {
					st.jointWins++
				} else {
					st.jointLosses++
				}
			}
		}
	}

	correlations := make([]models.CategoryPairCorrelation, 0, len(stats))
	for pair, st := range stats {
		if st.coOccur < minSamples {
			continue
		}
		correlations = append(correlations, models.CategoryPairCorrelation{
			PairA:       pair[0],
			PairB:       pair[1],
			CoOccur:     st.coOccur,
			JointWins:   st.jointWins,
			JointLosses: st.jointLosses,
			CoMovement:  float64(st.jointWins-st.jointLosses) / float64(st.coOccur),
		})
	}

	sort.SliceStable(correlations, func(i, j int) bool {
		a, b := math.Abs(correlations[i].CoMovement), math.Abs(correlations[j].CoMovement)
		if a != b {
			return a > b
		}
		return correlations[i].CoOccur > correlations[j].CoOccur
	})

	if len(correlations) > topPairs {
		correlations = correlations[:topPairs]
	}
	return correlations
}

// categorySideKeys returns the distinct (category, side) keys on a slip
func categorySideKeys(slip *models.Slip) []string {
	seen := make(map[string]struct{}, len(slip.Legs))
	keys := make([]string, 0, len(slip.Legs))
	for i := range slip.Legs {
		key := slip.Legs[i].Category + "|" + string(slip.Legs[i].Side)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}

// orderedPair returns the pair in lexicographic order so (a,b) and (b,a)
// accumulate together.
func orderedPair(a, b string) [2]string {
	if a > b {
		return [2]string{b, a}
	}
	return [2]string{a, b}
}
