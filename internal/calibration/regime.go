package calibration

import "github.com/yourusername/slipsmith/internal/models"

// Slate thresholds for regime classification
const (
	thinSlateEvents      = 4
	disruptionInjuries   = 10
	favoriteHeavyWinRate = 0.60
	upsetHeavyWinRate    = 0.40
)

// regimeMultipliers maps each regime to per-category weight adjustments.
// Categories absent from a regime's table keep a multiplier of 1.0.
var regimeMultipliers = map[models.Regime]map[string]float64{
	models.RegimeThinSlate: {
		"threes":    0.85,
		"steals":    0.80,
		"blocks":    0.80,
		"turnovers": 0.80,
		"stl_blk":   0.80,
	},
	models.RegimeHighDisruption: {
		"points":      0.85,
		"pts_reb":     0.85,
		"pts_ast":     0.85,
		"pts_reb_ast": 0.80,
		"threes":      0.90,
	},
	models.RegimeFavoriteHeavy: {
		"points":      1.10,
		"pts_reb_ast": 1.05,
		"assists":     1.05,
	},
	models.RegimeUpsetHeavy: {
		"points":   0.90,
		"rebounds": 1.05,
		"threes":   0.85,
	},
	models.RegimeNormal: {},
}

// DetectRegime classifies the current slate into a regime with a
// confidence in (0,1]. Disruption outranks slate size; slate size outranks
// the win-rate regimes.
func DetectRegime(snapshot models.SlateSnapshot) (models.Regime, float64) {
	if snapshot.InjuryReports >= disruptionInjuries || snapshot.Postseason {
		confidence := 0.7
		if snapshot.Postseason && snapshot.InjuryReports >= disruptionInjuries {
			confidence = 0.9
		}
		return models.RegimeHighDisruption, confidence
	}

	if snapshot.EventCount > 0 && snapshot.EventCount < thinSlateEvents {
		confidence := 1.0 - float64(snapshot.EventCount)/float64(thinSlateEvents)
		return models.RegimeThinSlate, 0.5 + confidence/2
	}

	if snapshot.TrailingWinRate >= favoriteHeavyWinRate {
		return models.RegimeFavoriteHeavy, 0.6
	}
	if snapshot.TrailingWinRate > 0 && snapshot.TrailingWinRate <= upsetHeavyWinRate {
		return models.RegimeUpsetHeavy, 0.6
	}

	return models.RegimeNormal, 0.5
}

// MultiplierFor returns the regime's adjustment for one category
func MultiplierFor(regime models.Regime, category string) float64 {
	if table, ok := regimeMultipliers[regime]; ok {
		if mult, ok := table[category]; ok {
			return mult
		}
	}
	return 1.0
}
