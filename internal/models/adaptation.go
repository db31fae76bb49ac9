package models

import (
	"time"

	"github.com/google/uuid"
)

// Regime labels the current operating conditions of the slate
type Regime string

const (
	RegimeNormal         Regime = "normal"
	RegimeThinSlate      Regime = "thin_slate"
	RegimeHighDisruption Regime = "high_disruption"
	RegimeFavoriteHeavy  Regime = "favorite_heavy"
	RegimeUpsetHeavy     Regime = "upset_heavy"
)

// Gates are the minimum-quality thresholds a slip must clear. Values are
// auto-tuned by the calibration loop but never leave the configured
// [floor, ceiling] band.
type Gates struct {
	MinEdge         float64 `db:"min_edge" json:"min_edge"`
	MinHitRate      float64 `db:"min_hit_rate" json:"min_hit_rate"`
	MinScore        float64 `db:"min_score" json:"min_score"`
	MinCombinedProb float64 `db:"min_combined_prob" json:"min_combined_prob"`
}

// CategoryPairCorrelation records how often two (category, side) pairs
// co-occur on slips and how they settle together.
type CategoryPairCorrelation struct {
	PairA       string  `db:"pair_a" json:"pair_a"`
	PairB       string  `db:"pair_b" json:"pair_b"`
	CoOccur     int     `db:"co_occur" json:"co_occur"`
	JointWins   int     `db:"joint_wins" json:"joint_wins"`
	JointLosses int     `db:"joint_losses" json:"joint_losses"`
	CoMovement  float64 `db:"co_movement" json:"co_movement"`
}

// StageResult records whether one calibration stage completed
type StageResult struct {
	Stage string `json:"stage"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// AdaptationState is the append-only per-cycle calibration record read by
// the next selector cycle.
type AdaptationState struct {
	ID               uuid.UUID                 `db:"id" json:"id"`
	Regime           Regime                    `db:"regime" json:"regime"`
	RegimeConfidence float64                   `db:"regime_confidence" json:"regime_confidence"`
	Gates            Gates                     `db:"-" json:"gates"`
	Correlations     []CategoryPairCorrelation `db:"-" json:"correlations,omitempty"`
	RecommendedSize  int                       `db:"recommended_size" json:"recommended_size"`
	TrailingWinRate  float64                   `db:"trailing_win_rate" json:"trailing_win_rate"`
	StageResults     []StageResult             `db:"-" json:"stage_results"`
	CreatedAt        time.Time                 `db:"created_at" json:"created_at"`
}

// StageFailed reports whether the named stage recorded an error
func (a *AdaptationState) StageFailed(stage string) bool {
	for _, r := range a.StageResults {
		if r.Stage == stage {
			return !r.OK
		}
	}
	return false
}

// SlateSnapshot summarizes the live slate for regime detection
type SlateSnapshot struct {
	EventCount      int     `json:"event_count"`
	SportCount      int     `json:"sport_count"`
	InjuryReports   int     `json:"injury_reports"`
	Postseason      bool    `json:"postseason"`
	TrailingWinRate float64 `json:"trailing_win_rate"`
}
