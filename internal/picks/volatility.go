package picks

import "github.com/yourusername/slipsmith/internal/models"

// categoryVolatility is a fixed lookup of how noisy each category's
// outcomes are. Unknown categories default to medium.
var categoryVolatility = map[string]models.VolatilityTier{
	"points":      models.VolatilityLow,
	"pts_reb":     models.VolatilityLow,
	"pts_ast":     models.VolatilityLow,
	"pts_reb_ast": models.VolatilityLow,
	"rebounds":    models.VolatilityMedium,
	"assists":     models.VolatilityMedium,
	"reb_ast":     models.VolatilityMedium,
	"threes":      models.VolatilityHigh,
	"steals":      models.VolatilityHigh,
	"blocks":      models.VolatilityHigh,
	"turnovers":   models.VolatilityHigh,
	"stl_blk":     models.VolatilityHigh,
}

// VolatilityFor returns the volatility tier for a canonical category
func VolatilityFor(category string) models.VolatilityTier {
	if tier, ok := categoryVolatility[category]; ok {
		return tier
	}
	return models.VolatilityMedium
}
