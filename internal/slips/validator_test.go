package slips

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/yourusername/slipsmith/internal/config"
	"github.com/yourusername/slipsmith/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testSelectionConfig() config.SelectionConfig {
	return config.SelectionConfig{
		MinLegProbability:     0.55,
		RelaxedLegProbability: 0.50,
		ProbabilityCeiling:    0.92,
		MinSlipSize:           2,
		MaxSlipSize:           4,
		PoolCap:               18,
		MaxSelections:         3,
		EventExposureCap:      2,
		CategoryRepetitionCap: 2,
		CrossSlipSubjectCap:   2,
		TrustedSource:         "model",
		MinTrustedLegs:        1,
		AlternateProbFraction: 0.8,
	}
}

func testCalibrationConfig() config.CalibrationConfig {
	return config.CalibrationConfig{
		RecencyWindowDays:     45,
		HalfLifeDays:          10,
		PriorStrength:         20,
		BlockFloor:            0.42,
		BlockMinSamples:       25,
		UnblockMargin:         0.04,
		CorrelationMinSamples: 10,
		CorrelationTopPairs:   10,
		WinRateUpper:          0.60,
		WinRateLower:          0.45,
		TrailingWindowDays:    14,
		PatternMinSamples:     8,
		BoostAccuracyMin:      0.60,
		PenaltyAccuracyMax:    0.40,
	}
}

func candidate(subject, category, event string, prob float64) models.CandidateLeg {
	leg := models.CandidateLeg{
		Subject:           subject,
		NormalizedSubject: subject,
		Category:          category,
		Side:              models.SideOver,
		EventKey:          event,
		Probability:       prob,
		Volatility:        models.VolatilityMedium,
	}
	leg.AddSource("model", prob)
	return leg
}

func TestCategoriesCorrelated(t *testing.T) {
	tests := []struct {
		a, b     string
		expected bool
	}{
		{"points", "points", true},
		{"points", "pts_reb", true},        // points is a constituent
		{"pts_reb", "reb_ast", true},       // share rebounds
		{"pts_reb_ast", "assists", true},   // assists is a constituent
		{"points", "rebounds", false},
		{"stl_blk", "blocks", true},
		{"stl_blk", "points", false},
		{"threes", "points", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, CategoriesCorrelated(tt.a, tt.b), "%s vs %s", tt.a, tt.b)
	}
}

func TestValidatorRejectsDuplicateSubject(t *testing.T) {
	v := NewValidator(testSelectionConfig())
	acc := NewAccumulator(4)
	acc.Add(candidate("player a", "points", "e1", 0.7))

	dup := candidate("player a", "threes", "e2", 0.6)
	assert.False(t, v.CanAdd(&dup, acc))

	other := candidate("player b", "points", "e2", 0.6)
	assert.True(t, v.CanAdd(&other, acc))
}

func TestValidatorEventExposureCap(t *testing.T) {
	v := NewValidator(testSelectionConfig())
	acc := NewAccumulator(4)
	acc.Add(candidate("player a", "points", "e1", 0.7))
	acc.Add(candidate("player b", "rebounds", "e1", 0.65))

	third := candidate("player c", "assists", "e1", 0.6)
	assert.False(t, v.CanAdd(&third, acc), "third leg from same event exceeds cap of 2")

	elsewhere := candidate("player c", "assists", "e2", 0.6)
	assert.True(t, v.CanAdd(&elsewhere, acc))
}

func TestValidatorCategoryRepetitionCap(t *testing.T) {
	v := NewValidator(testSelectionConfig())
	acc := NewAccumulator(4)
	acc.Add(candidate("player a", "points", "e1", 0.7))
	acc.Add(candidate("player b", "points", "e2", 0.65))

	third := candidate("player c", "points", "e3", 0.6)
	assert.False(t, v.CanAdd(&third, acc))
}

func TestValidatorLineFloor(t *testing.T) {
	v := NewValidator(testSelectionConfig())
	acc := NewAccumulator(4)

	low := 0.5
	leg := candidate("player a", "steals", "e1", 0.6)
	leg.Line = &low
	assert.False(t, v.CanAdd(&leg, acc), "steals at 0.5 is below the floor")

	ok := 1.5
	leg.Line = &ok
	assert.True(t, v.CanAdd(&leg, acc))

	leg.Line = nil
	assert.False(t, v.CanAdd(&leg, acc), "floored category requires a line")
}

func TestAccumulatorBacktracking(t *testing.T) {
	acc := NewAccumulator(4)
	a := candidate("player a", "points", "e1", 0.7)
	b := candidate("player b", "rebounds", "e1", 0.65)

	acc.Add(a)
	acc.Add(b)
	assert.Equal(t, 2, acc.Size())

	acc.RemoveLast()
	assert.Equal(t, 1, acc.Size())

	v := NewValidator(testSelectionConfig())

	// After backtracking, player b's subject and event slot are free again
	again := candidate("player b", "assists", "e1", 0.6)
	assert.True(t, v.CanAdd(&again, acc))

	acc.RemoveLast()
	assert.Equal(t, 0, acc.Size())
	acc.RemoveLast() // popping empty is a no-op
	assert.Equal(t, 0, acc.Size())
}

func TestAccumulatorLegsReturnsCopy(t *testing.T) {
	acc := NewAccumulator(2)
	acc.Add(candidate("player a", "points", "e1", 0.7))

	legs := acc.Legs()
	legs[0].NormalizedSubject = "mutated"
	assert.Equal(t, "player a", acc.Legs()[0].NormalizedSubject)
}
