package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SlipTier separates the headline recommendation from alternates
type SlipTier string

const (
	SlipTierPrimary   SlipTier = "primary"
	SlipTierAlternate SlipTier = "alternate"
)

// SlipOutcome is the settlement annotation written by the external
// settlement collaborator once the underlying events resolve.
type SlipOutcome string

const (
	SlipOutcomePending SlipOutcome = "pending"
	SlipOutcomeWin     SlipOutcome = "win"
	SlipOutcomeLoss    SlipOutcome = "loss"
	SlipOutcomeVoid    SlipOutcome = "void"
)

// Slip is a finalized multi-leg combination. Immutable after creation;
// only the Outcome annotation changes, and never through this core.
type Slip struct {
	ID                  uuid.UUID      `db:"id" json:"id"`
	CycleID             uuid.UUID      `db:"cycle_id" json:"cycle_id"`
	Legs                []CandidateLeg `db:"-" json:"legs" validate:"required,min=2"`
	CombinedProbability float64        `db:"combined_probability" json:"combined_probability"`
	TotalEdge           float64        `db:"total_edge" json:"total_edge"`
	VariancePenalty     float64        `db:"variance_penalty" json:"variance_penalty"`
	DiversityBonus      float64        `db:"diversity_bonus" json:"diversity_bonus"`
	PatternPenalty      float64        `db:"pattern_penalty" json:"pattern_penalty"`
	MatchupAdjustment   float64        `db:"matchup_adjustment" json:"matchup_adjustment"`
	WeightAdjustment    float64        `db:"weight_adjustment" json:"weight_adjustment"`
	Score               float64        `db:"score" json:"score"`
	Rank                int            `db:"rank" json:"rank"`
	Tier                SlipTier       `db:"tier" json:"tier"`
	CombinedPrice       int            `db:"combined_price" json:"combined_price"`
	Outcome             SlipOutcome    `db:"outcome" json:"outcome"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	SettledAt           *time.Time     `db:"settled_at" json:"settled_at,omitempty"`
}

// Size returns the number of legs
func (s *Slip) Size() int {
	return len(s.Legs)
}

// Subjects returns the normalized subjects across all legs
func (s *Slip) Subjects() []string {
	subjects := make([]string, 0, len(s.Legs))
	for i := range s.Legs {
		subjects = append(subjects, s.Legs[i].NormalizedSubject)
	}
	return subjects
}

// DistinctSources returns the number of distinct engines backing the slip
func (s *Slip) DistinctSources() int {
	seen := make(map[string]struct{})
	for i := range s.Legs {
		for _, src := range s.Legs[i].Sources {
			seen[src] = struct{}{}
		}
	}
	return len(seen)
}

// SourceCount returns how many legs carry the given engine tag
func (s *Slip) SourceCount(engine string) int {
	count := 0
	for i := range s.Legs {
		if s.Legs[i].HasSource(engine) {
			count++
		}
	}
	return count
}

// IsSettled reports whether the external settlement has resolved the slip
func (s *Slip) IsSettled() bool {
	return s.Outcome == SlipOutcomeWin || s.Outcome == SlipOutcomeLoss
}

// ComputeCombinedPrice derives the parlay price from the legs' American
// prices by multiplying their decimal equivalents.
func ComputeCombinedPrice(legs []CandidateLeg) int {
	combined := decimal.NewFromInt(1)
	for i := range legs {
		combined = combined.Mul(AmericanToDecimal(legs[i].Price))
	}
	return DecimalToAmerican(combined)
}
