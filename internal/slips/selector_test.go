package slips

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yourusername/slipsmith/internal/models"
)

func testGates() models.Gates {
	return models.Gates{
		MinEdge:         0.01,
		MinHitRate:      0.50,
		MinScore:        -3.0,
		MinCombinedProb: 0.15,
	}
}

// selectable builds a scored two-leg slip that clears the test gates
func selectable(score, combined float64, subjects ...string) models.Slip {
	legs := make([]models.CandidateLeg, 0, len(subjects))
	for _, s := range subjects {
		leg := candidate(s, "points", "e-"+s, 0.65)
		leg.Edge = 0.05
		legs = append(legs, leg)
	}
	return models.Slip{
		Legs:                legs,
		Score:               score,
		CombinedProbability: combined,
		TotalEdge:           0.05 * float64(len(legs)),
	}
}

func TestSelectRanksByScoreThenProbability(t *testing.T) {
	s := NewSelector(testSelectionConfig(), testLogger())

	a := selectable(-1.0, 0.40, "p1", "p2")
	b := selectable(-0.5, 0.35, "p3", "p4")
	c := selectable(-0.5, 0.45, "p5", "p6")

	result := s.Select([]models.Slip{a, b, c}, testGates())
	assert.Len(t, result.Slips, 3)

	// c outranks b on combined probability at equal score
	assert.Equal(t, []string{"p5", "p6"}, result.Slips[0].Subjects())
	assert.Equal(t, []string{"p3", "p4"}, result.Slips[1].Subjects())
	assert.Equal(t, []string{"p1", "p2"}, result.Slips[2].Subjects())

	assert.Equal(t, models.SlipTierPrimary, result.Slips[0].Tier)
	assert.Equal(t, 1, result.Slips[0].Rank)
	assert.Equal(t, models.SlipTierAlternate, result.Slips[1].Tier)
	assert.Equal(t, 3, result.Slips[2].Rank)
}

func TestSelectPrimaryMustClearGates(t *testing.T) {
	s := NewSelector(testSelectionConfig(), testLogger())
	gates := testGates()

	weak := selectable(-0.5, 0.10, "p1", "p2") // below MinCombinedProb
	result := s.Select([]models.Slip{weak}, gates)
	assert.Empty(t, result.Slips)
	assert.Equal(t, models.RefusalInsufficientQuality, result.Refusal)
}

func TestSelectTrustedSourceRetry(t *testing.T) {
	s := NewSelector(testSelectionConfig(), testLogger())

	slip := selectable(-0.5, 0.40, "p1", "p2")
	for i := range slip.Legs {
		slip.Legs[i].Sources = []string{"steam"}
	}

	result := s.Select([]models.Slip{slip}, testGates())
	assert.Len(t, result.Slips, 1)
	assert.True(t, result.TrustedRelaxed, "primary chosen only after dropping the trusted-source requirement")
}

func TestSelectAlternateUsesRelaxedThreshold(t *testing.T) {
	s := NewSelector(testSelectionConfig(), testLogger())
	gates := testGates() // MinCombinedProb 0.15, alternate floor 0.12

	primary := selectable(-0.5, 0.40, "p1", "p2")
	alternate := selectable(-1.0, 0.13, "p3", "p4")
	tooWeak := selectable(-1.5, 0.11, "p5", "p6")

	result := s.Select([]models.Slip{primary, alternate, tooWeak}, gates)
	assert.Len(t, result.Slips, 2)
	assert.Equal(t, models.SlipTierAlternate, result.Slips[1].Tier)
}

func TestSelectCrossSlipSubjectCap(t *testing.T) {
	s := NewSelector(testSelectionConfig(), testLogger())

	// The shared subject appears in the first two picks; a third slip
	// reusing it would exceed the cap of 2.
	first := selectable(-0.5, 0.40, "shared", "p1")
	second := selectable(-0.8, 0.35, "shared", "p2")
	third := selectable(-1.0, 0.30, "shared", "p3")
	fresh := selectable(-1.2, 0.30, "p4", "p5")

	result := s.Select([]models.Slip{first, second, third, fresh}, testGates())
	assert.Len(t, result.Slips, 3)
	for _, slip := range result.Slips {
		assert.NotEqual(t, []string{"shared", "p3"}, slip.Subjects())
	}
}

func TestSelectRespectsMaxSelections(t *testing.T) {
	cfg := testSelectionConfig()
	cfg.MaxSelections = 2
	s := NewSelector(cfg, testLogger())

	slips := []models.Slip{
		selectable(-0.5, 0.40, "p1", "p2"),
		selectable(-0.8, 0.35, "p3", "p4"),
		selectable(-1.0, 0.30, "p5", "p6"),
	}

	result := s.Select(slips, testGates())
	assert.Len(t, result.Slips, 2)
}

func TestSelectEmptyInput(t *testing.T) {
	s := NewSelector(testSelectionConfig(), testLogger())
	result := s.Select(nil, testGates())
	assert.Empty(t, result.Slips)
	assert.Equal(t, models.RefusalNoLegalCombination, result.Refusal)
}
