package models

import "time"

// CategoryWeight tracks calibration state for one (category, side) pair.
// Created lazily on first observation and updated every calibration cycle.
type CategoryWeight struct {
	Category         string    `db:"category" json:"category" validate:"required"`
	Side             Side      `db:"side" json:"side" validate:"required"`
	Weight           float64   `db:"weight" json:"weight"`
	RawHitRate       float64   `db:"raw_hit_rate" json:"raw_hit_rate"`
	RecencyHitRate   float64   `db:"recency_hit_rate" json:"recency_hit_rate"`
	SmoothedHitRate  float64   `db:"smoothed_hit_rate" json:"smoothed_hit_rate"`
	SampleCount      int       `db:"sample_count" json:"sample_count"`
	CurrentStreak    int       `db:"current_streak" json:"current_streak"` // positive for wins, negative for losses
	BestStreak       int       `db:"best_streak" json:"best_streak"`
	WorstStreak      int       `db:"worst_streak" json:"worst_streak"`
	Blocked          bool      `db:"blocked" json:"blocked"`
	BlockReason      string    `db:"block_reason" json:"block_reason,omitempty"`
	RegimeMultiplier float64   `db:"regime_multiplier" json:"regime_multiplier"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Key returns the (category, side) lookup key
func (w *CategoryWeight) Key() string {
	return w.Category + "|" + string(w.Side)
}

// EffectiveWeight applies the regime multiplier on top of the base weight
func (w *CategoryWeight) EffectiveWeight() float64 {
	mult := w.RegimeMultiplier
	if mult == 0 {
		mult = 1.0
	}
	return w.Weight * mult
}

// RecordResult updates streak bookkeeping for one settled outcome
func (w *CategoryWeight) RecordResult(won bool) {
	if won {
		if w.CurrentStreak < 0 {
			w.CurrentStreak = 0
		}
		w.CurrentStreak++
		if w.CurrentStreak > w.BestStreak {
			w.BestStreak = w.CurrentStreak
		}
	} else {
		if w.CurrentStreak > 0 {
			w.CurrentStreak = 0
		}
		w.CurrentStreak--
		if w.CurrentStreak < w.WorstStreak {
			w.WorstStreak = w.CurrentStreak
		}
	}
	w.SampleCount++
}
