package picks

import (
	"github.com/sirupsen/logrus"
	"github.com/yourusername/slipsmith/internal/models"
)

// Aggregator merges normalized candidate legs across source engines,
// deduplicating by (normalized subject, category). On collision the existing
// leg is extended with the new engine's tag and score; nothing already
// accumulated is overwritten.
type Aggregator struct {
	logger *logrus.Logger
}

// NewAggregator creates a new pick aggregator
func NewAggregator(logger *logrus.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Aggregate merges legs from all engines into one deduplicated pool.
// First-seen order is preserved so downstream tie-breaks stay reproducible.
// Returns the merged pool and the count of records skipped for missing keys.
func (a *Aggregator) Aggregate(legs []models.CandidateLeg) ([]models.CandidateLeg, int) {
	merged := make([]models.CandidateLeg, 0, len(legs))
	index := make(map[string]int, len(legs))
	skipped := 0

	for i := range legs {
		leg := legs[i]
		if leg.NormalizedSubject == "" || leg.Category == "" {
			skipped++
			continue
		}

		key := leg.MergeKey()
		pos, seen := index[key]
		if !seen {
			index[key] = len(merged)
			merged = append(merged, leg)
			continue
		}

		a.merge(&merged[pos], &leg)
	}

	if skipped > 0 {
		a.logger.WithField("skipped", skipped).Warn("Skipped candidates with missing merge keys")
	}

	return merged, skipped
}

// merge folds an incoming duplicate into the existing leg. The existing
// leg keeps its line and price (first seen wins); calibrated signals are
// adopted only where the existing leg has none.
func (a *Aggregator) merge(existing, incoming *models.CandidateLeg) {
	for _, src := range incoming.Sources {
		existing.AddSource(src, incoming.SourceScores[src])
	}
	if existing.HitRateSignal == nil && incoming.HitRateSignal != nil {
		existing.HitRateSignal = incoming.HitRateSignal
	}
	if existing.ExplicitEdge == nil && incoming.ExplicitEdge != nil {
		existing.ExplicitEdge = incoming.ExplicitEdge
	}
	if existing.Opponent == "" && incoming.Opponent != "" {
		existing.Opponent = incoming.Opponent
		existing.OpponentTier = incoming.OpponentTier
	}

	a.logger.WithFields(logrus.Fields{
		"subject":  existing.Subject,
		"category": existing.Category,
		"sources":  len(existing.Sources),
	}).Debug("Merged duplicate candidate")
}
