package logger

import (
	"github.com/sirupsen/logrus"

	"github.com/yourusername/slipsmith/internal/models"
)

// CycleLogger provides a dedicated audit trail for selection cycles.
type CycleLogger struct {
	*logrus.Entry
}

// NewCycleLogger creates a new cycle audit logger.
func NewCycleLogger(baseLogger *logrus.Logger) *CycleLogger {
	return &CycleLogger{
		Entry: baseLogger.WithField("component", "cycle_audit"),
	}
}

// LogCycleResult logs the structured summary of a completed selection cycle.
func (cl *CycleLogger) LogCycleResult(summary *models.CycleSummary) {
	entry := cl.WithFields(logrus.Fields{
		"cycle_id":                summary.CycleID,
		"success":                 summary.Success,
		"candidates_in":           summary.CandidatesIn,
		"candidates_skipped":      summary.CandidatesSkipped,
		"candidates_after_filter": summary.CandidatesAfterFilter,
		"engines_responded":       summary.EnginesResponded,
		"engines_failed":          summary.EnginesFailed,
		"enumerated":              summary.Enumerated,
		"selected":                summary.Selected,
		"duration_ms":             summary.Duration.Milliseconds(),
	})
	if summary.Success {
		entry.Info("Selection cycle completed")
		return
	}
	entry.WithField("reason", summary.Reason).Warn("Selection cycle produced no output")
}

// LogSlipSelected logs one selected slip for the audit trail.
func (cl *CycleLogger) LogSlipSelected(slip *models.Slip) {
	cl.WithFields(logrus.Fields{
		"slip_id":              slip.ID,
		"cycle_id":             slip.CycleID,
		"legs":                 slip.Size(),
		"tier":                 slip.Tier,
		"rank":                 slip.Rank,
		"score":                slip.Score,
		"combined_probability": slip.CombinedProbability,
		"combined_price":       slip.CombinedPrice,
	}).Info("Slip selected")
}

// LogGateChange logs a gate auto-tune adjustment.
func (cl *CycleLogger) LogGateChange(gate string, oldValue, newValue float64, trailingWinRate float64) {
	cl.WithFields(logrus.Fields{
		"gate":              gate,
		"old_value":         oldValue,
		"new_value":         newValue,
		"trailing_win_rate": trailingWinRate,
	}).Info("Gate adjusted")
}

// LogCategoryBlocked logs a category entering or leaving the blocked state.
func (cl *CycleLogger) LogCategoryBlocked(category string, side models.Side, blocked bool, reason string) {
	cl.WithFields(logrus.Fields{
		"category": category,
		"side":     side,
		"blocked":  blocked,
		"reason":   reason,
	}).Warn("Category block state changed")
}
