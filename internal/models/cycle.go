package models

import (
	"time"

	"github.com/google/uuid"
)

// RefusalReason is the machine-readable reason for an empty cycle
type RefusalReason string

const (
	RefusalNone                RefusalReason = ""
	RefusalInsufficientQuality RefusalReason = "insufficient_quality"
	RefusalNoLegalCombination  RefusalReason = "no_legal_combination"
	RefusalAlreadyProduced     RefusalReason = "already_produced"
	RefusalNoCandidates        RefusalReason = "no_candidates"
)

// CycleSummary is the structured result returned to the caller after a
// selection cycle. An unsuccessful cycle with a reason is an intended
// terminal state, not an error.
type CycleSummary struct {
	CycleID               uuid.UUID     `json:"cycle_id"`
	Success               bool          `json:"success"`
	Reason                RefusalReason `json:"reason,omitempty"`
	CandidatesIn          int           `json:"candidates_in"`
	CandidatesSkipped     int           `json:"candidates_skipped"`
	CandidatesAfterFilter int           `json:"candidates_after_filter"`
	EnginesResponded      int           `json:"engines_responded"`
	EnginesFailed         int           `json:"engines_failed"`
	Enumerated            int           `json:"enumerated"`
	Selected              int           `json:"selected"`
	Regime                Regime        `json:"regime,omitempty"`
	Replayed              bool          `json:"replayed,omitempty"`
	Duration              time.Duration `json:"duration"`
	StartedAt             time.Time     `json:"started_at"`
}
