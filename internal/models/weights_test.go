package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordResultStreaks(t *testing.T) {
	var w CategoryWeight

	for _, won := range []bool{true, true, true, false, false, true} {
		w.RecordResult(won)
	}

	assert.Equal(t, 6, w.SampleCount)
	assert.Equal(t, 1, w.CurrentStreak)
	assert.Equal(t, 3, w.BestStreak)
	assert.Equal(t, -2, w.WorstStreak)
}

func TestEffectiveWeight(t *testing.T) {
	w := CategoryWeight{Weight: 1.2, RegimeMultiplier: 0.8}
	assert.InDelta(t, 0.96, w.EffectiveWeight(), 1e-9)

	// Unset multiplier behaves as 1.0
	w.RegimeMultiplier = 0
	assert.InDelta(t, 1.2, w.EffectiveWeight(), 1e-9)
}

func TestCategoryWeightKey(t *testing.T) {
	w := CategoryWeight{Category: "points", Side: SideOver}
	assert.Equal(t, "points|OVER", w.Key())
}
