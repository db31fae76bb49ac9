package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Side represents the direction of a predicted outcome
type Side string

const (
	SideOver  Side = "OVER"
	SideUnder Side = "UNDER"
)

// VolatilityTier classifies how noisy a category's outcomes are
type VolatilityTier string

const (
	VolatilityLow    VolatilityTier = "low"
	VolatilityMedium VolatilityTier = "medium"
	VolatilityHigh   VolatilityTier = "high"
)

// Penalty returns the variance penalty contributed by this tier
func (v VolatilityTier) Penalty() float64 {
	switch v {
	case VolatilityHigh:
		return 1.0
	case VolatilityMedium:
		return 0.5
	case VolatilityLow:
		return 0.2
	}
	return 0.5
}

// OpponentTier classifies the strength of the opposing side for a leg
type OpponentTier string

const (
	OpponentStrong  OpponentTier = "strong"
	OpponentAverage OpponentTier = "average"
	OpponentWeak    OpponentTier = "weak"
)

// CandidateLeg is one proposed single-outcome prediction, merged across
// source engines. Legs live for a single selection cycle; only slips are
// persisted.
type CandidateLeg struct {
	Subject           string             `json:"subject" validate:"required"`
	NormalizedSubject string             `json:"normalized_subject"`
	Category          string             `json:"category" validate:"required"`
	Side              Side               `json:"side" validate:"required,oneof=OVER UNDER"`
	Line              *float64           `json:"line,omitempty"` // absent for binary outcomes
	Price             int                `json:"price"`          // American odds
	EventKey          string             `json:"event_key" validate:"required"`
	Opponent          string             `json:"opponent,omitempty"`
	OpponentTier      OpponentTier       `json:"opponent_tier,omitempty"`
	Sources           []string           `json:"sources"`
	SourceScores      map[string]float64 `json:"source_scores,omitempty"`
	HitRateSignal     *float64           `json:"hit_rate_signal,omitempty"` // observed hit rate supplied by a calibrated source
	ExplicitEdge      *float64           `json:"explicit_edge,omitempty"`   // edge figure supplied by a calibrated source
	Probability       float64            `json:"probability"`
	Edge              float64            `json:"edge"`
	Volatility        VolatilityTier     `json:"volatility"`
}

// HasSource reports whether the given engine contributed to this leg
func (l *CandidateLeg) HasSource(engine string) bool {
	for _, s := range l.Sources {
		if s == engine {
			return true
		}
	}
	return false
}

// AddSource attaches an engine tag and its score without overwriting
// previously accumulated data.
func (l *CandidateLeg) AddSource(engine string, score float64) {
	if !l.HasSource(engine) {
		l.Sources = append(l.Sources, engine)
	}
	if l.SourceScores == nil {
		l.SourceScores = make(map[string]float64)
	}
	if _, exists := l.SourceScores[engine]; !exists {
		l.SourceScores[engine] = score
	}
}

// MergeKey returns the deduplication key for aggregation
func (l *CandidateLeg) MergeKey() string {
	return l.NormalizedSubject + "|" + l.Category
}

// Label returns a human-readable description of the leg
func (l *CandidateLeg) Label() string {
	if l.Line != nil {
		return fmt.Sprintf("%s %s %s %.1f", l.Subject, l.Side, l.Category, *l.Line)
	}
	return fmt.Sprintf("%s %s %s", l.Subject, l.Side, l.Category)
}

// ImpliedProbability converts the leg's American price to the
// probability implied by the payout.
func (l *CandidateLeg) ImpliedProbability() float64 {
	return AmericanToImpliedProbability(l.Price)
}

// AmericanToImpliedProbability converts American odds to an implied
// probability in (0,1). A zero price yields 0.5 so a missing price never
// produces a degenerate probability.
func AmericanToImpliedProbability(price int) float64 {
	if price == 0 {
		return 0.5
	}
	if price < 0 {
		p := float64(-price)
		return p / (p + 100)
	}
	return 100 / (float64(price) + 100)
}

// AmericanToDecimal converts American odds to decimal odds
func AmericanToDecimal(price int) decimal.Decimal {
	if price == 0 {
		return decimal.NewFromInt(2)
	}
	if price > 0 {
		return decimal.NewFromInt(1).Add(decimal.NewFromInt(int64(price)).Div(decimal.NewFromInt(100)))
	}
	return decimal.NewFromInt(1).Add(decimal.NewFromInt(100).Div(decimal.NewFromInt(int64(-price))))
}

// DecimalToAmerican converts decimal odds back to the nearest American price
func DecimalToAmerican(dec decimal.Decimal) int {
	one := decimal.NewFromInt(1)
	if dec.LessThanOrEqual(one) {
		return 0
	}
	frac := dec.Sub(one)
	if dec.GreaterThanOrEqual(decimal.NewFromInt(2)) {
		return int(frac.Mul(decimal.NewFromInt(100)).Round(0).IntPart())
	}
	return -int(decimal.NewFromInt(100).Div(frac).Round(0).IntPart())
}
