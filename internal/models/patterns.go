package models

import (
	"time"

	"github.com/google/uuid"
)

// SignatureKind identifies the structural shape a loss pattern matches
type SignatureKind string

const (
	// SignatureSingleEngine matches slips whose legs all come from one engine
	SignatureSingleEngine SignatureKind = "single_engine"
	// SignatureCategorySide matches a known-weak (category, side) pair
	SignatureCategorySide SignatureKind = "category_side"
)

// PatternMode controls whether a matched loss pattern lowers the score or
// makes the slip illegal outright.
type PatternMode string

const (
	PatternModePenalize PatternMode = "penalize"
	PatternModeBlock    PatternMode = "block"
)

// LossPattern is a learned structural signature of losing slips. Consulted
// read-only by the scorer; updated only by the calibration loop.
type LossPattern struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	Kind      SignatureKind `db:"kind" json:"kind" validate:"required,oneof=single_engine category_side"`
	Key       string        `db:"key" json:"key" validate:"required"`
	Hits      int           `db:"hits" json:"hits"`
	Misses    int           `db:"misses" json:"misses"`
	Penalty   float64       `db:"penalty" json:"penalty"`
	Mode      PatternMode   `db:"mode" json:"mode"`
	Active    bool          `db:"active" json:"active"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// Accuracy returns the observed hit rate of legs matching the signature
func (p *LossPattern) Accuracy() float64 {
	total := p.Hits + p.Misses
	if total == 0 {
		return 0
	}
	return float64(p.Hits) / float64(total)
}

// SampleCount returns the total observations behind the pattern
func (p *LossPattern) SampleCount() int {
	return p.Hits + p.Misses
}

// MatchupPattern is a learned (category, side, opponent tier) signal. Unlike
// loss patterns it can boost as well as penalize.
type MatchupPattern struct {
	ID           uuid.UUID    `db:"id" json:"id"`
	Category     string       `db:"category" json:"category" validate:"required"`
	Side         Side         `db:"side" json:"side" validate:"required"`
	OpponentTier OpponentTier `db:"opponent_tier" json:"opponent_tier" validate:"required"`
	Hits         int          `db:"hits" json:"hits"`
	Misses       int          `db:"misses" json:"misses"`
	Adjustment   float64      `db:"adjustment" json:"adjustment"`
	Boost        bool         `db:"boost" json:"boost"`
	Active       bool         `db:"active" json:"active"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// Key returns the exact-match lookup key for the pattern
func (p *MatchupPattern) Key() string {
	return p.Category + "|" + string(p.Side) + "|" + string(p.OpponentTier)
}

// MatchupKey builds the lookup key for a leg's matchup signature
func MatchupKey(category string, side Side, tier OpponentTier) string {
	return category + "|" + string(side) + "|" + string(tier)
}

// Accuracy returns the observed hit rate of legs matching the pattern
func (p *MatchupPattern) Accuracy() float64 {
	total := p.Hits + p.Misses
	if total == 0 {
		return 0
	}
	return float64(p.Hits) / float64(total)
}

// SampleCount returns the total observations behind the pattern
func (p *MatchupPattern) SampleCount() int {
	return p.Hits + p.Misses
}
