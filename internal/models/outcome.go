package models

import "time"

// OutcomeResult is the settled result of a single leg-shaped prediction
type OutcomeResult string

const (
	OutcomeWin  OutcomeResult = "win"
	OutcomeLoss OutcomeResult = "loss"
	OutcomeVoid OutcomeResult = "void"
)

// SettledOutcome is one historical settled prediction consumed by the
// calibration loop. Settlement is performed by an external collaborator.
type SettledOutcome struct {
	Subject      string        `db:"subject" json:"subject"`
	Category     string        `db:"category" json:"category"`
	Side         Side          `db:"side" json:"side"`
	Line         *float64      `db:"line" json:"line,omitempty"`
	Result       OutcomeResult `db:"result" json:"result"`
	Engine       string        `db:"engine" json:"engine,omitempty"`
	OpponentTier OpponentTier  `db:"opponent_tier" json:"opponent_tier,omitempty"`
	SettledAt    time.Time     `db:"settled_at" json:"settled_at"`
}

// Won reports whether the outcome settled as a win
func (o *SettledOutcome) Won() bool {
	return o.Result == OutcomeWin
}

// Counted reports whether the outcome participates in hit-rate math
// (voids do not).
func (o *SettledOutcome) Counted() bool {
	return o.Result != OutcomeVoid
}

// CategorySideKey returns the (category, side) accumulation key
func (o *SettledOutcome) CategorySideKey() string {
	return o.Category + "|" + string(o.Side)
}
