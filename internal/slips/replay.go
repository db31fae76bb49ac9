package slips

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/slipsmith/internal/models"
)

// Replayer rebuilds a prior cycle's categorical pattern against the
// current candidate pool. Matching is best-effort per slot; an unmatched
// slot falls through to normal selection for the whole cycle.
type Replayer struct {
	validator *Validator
	logger    *logrus.Logger
}

// NewReplayer creates a replayer sharing the selector's constraint rules
func NewReplayer(validator *Validator, logger *logrus.Logger) *Replayer {
	return &Replayer{validator: validator, logger: logger}
}

// Replay attempts to fill each (category, side) slot of the template slip
// from the current pool, taking the highest-probability legal candidate per
// slot. Returns nil when any slot cannot be filled.
func (r *Replayer) Replay(cycleID uuid.UUID, template *models.Slip, pool []models.CandidateLeg, scorer *Scorer) *models.Slip {
	acc := NewAccumulator(template.Size())

	for i := range template.Legs {
		slot := &template.Legs[i]
		match := r.bestMatch(slot, pool, acc)
		if match == nil {
			r.logger.WithFields(logrus.Fields{
				"category": slot.Category,
				"side":     slot.Side,
			}).Info("Replay slot unmatched, falling back to normal selection")
			return nil
		}
		acc.Add(*match)
	}

	slip := &models.Slip{
		ID:        uuid.New(),
		CycleID:   cycleID,
		Legs:      acc.Legs(),
		Outcome:   models.SlipOutcomePending,
		CreatedAt: time.Now().UTC(),
	}
	if !scorer.Score(slip) {
		return nil
	}
	return slip
}

// bestMatch finds the strongest legal candidate for one template slot
func (r *Replayer) bestMatch(slot *models.CandidateLeg, pool []models.CandidateLeg, acc *Accumulator) *models.CandidateLeg {
	var best *models.CandidateLeg
	for i := range pool {
		leg := &pool[i]
		if leg.Category != slot.Category || leg.Side != slot.Side {
			continue
		}
		if !r.validator.CanAdd(leg, acc) {
			continue
		}
		if best == nil || leg.Probability > best.Probability {
			best = leg
		}
	}
	return best
}
