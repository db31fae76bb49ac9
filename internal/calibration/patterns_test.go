package calibration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/yourusername/slipsmith/internal/models"
)

func outcomeBatch(category string, side models.Side, wins, losses int) []*models.SettledOutcome {
	now := time.Now().UTC()
	outcomes := make([]*models.SettledOutcome, 0, wins+losses)
	for i := 0; i < wins; i++ {
		outcomes = append(outcomes, &models.SettledOutcome{
			Category: category, Side: side, Result: models.OutcomeWin, SettledAt: now,
		})
	}
	for i := 0; i < losses; i++ {
		outcomes = append(outcomes, &models.SettledOutcome{
			Category: category, Side: side, Result: models.OutcomeLoss, SettledAt: now,
		})
	}
	return outcomes
}

func TestMineCategorySidePatterns(t *testing.T) {
	miner := NewPatternMiner(testCalibConfig()) // min 8 samples, penalty below 0.40

	outcomes := outcomeBatch("threes", models.SideOver, 3, 7) // 0.30 accuracy
	outcomes = append(outcomes, outcomeBatch("points", models.SideOver, 7, 3)...)

	patterns := miner.MineCategorySidePatterns(outcomes)
	assert.Len(t, patterns, 2)

	byKey := map[string]models.LossPattern{}
	for _, p := range patterns {
		byKey[p.Key] = p
	}

	weak := byKey["threes|OVER"]
	assert.True(t, weak.Active)
	assert.Equal(t, models.PatternModeBlock, weak.Mode, "0.30 accuracy escalates to block")
	assert.InDelta(t, 0.20, weak.Penalty, 1e-9) // (0.40-0.30)*2

	strong := byKey["points|OVER"]
	assert.False(t, strong.Active)
}

func TestMineCategorySidePatternsMinSamples(t *testing.T) {
	miner := NewPatternMiner(testCalibConfig())

	patterns := miner.MineCategorySidePatterns(outcomeBatch("threes", models.SideOver, 1, 4))
	assert.Len(t, patterns, 1)
	assert.False(t, patterns[0].Active, "five samples is below the activation threshold")
}

func TestClassifyPenalizeWithoutBlock(t *testing.T) {
	miner := NewPatternMiner(testCalibConfig())

	// 0.375 accuracy: active penalize, above the 0.30 block line
	patterns := miner.MineCategorySidePatterns(outcomeBatch("steals", models.SideUnder, 6, 10))
	assert.Len(t, patterns, 1)

	p := patterns[0]
	assert.True(t, p.Active)
	assert.Equal(t, models.PatternModePenalize, p.Mode)
	assert.InDelta(t, (0.40-0.375)*2, p.Penalty, 1e-9)
}

func TestClassifyPenaltyCapped(t *testing.T) {
	cfg := testCalibConfig()
	cfg.PenaltyAccuracyMax = 0.90 // contrived gap to exercise the cap
	miner := NewPatternMiner(cfg)

	patterns := miner.MineCategorySidePatterns(outcomeBatch("threes", models.SideOver, 0, 10))
	assert.Len(t, patterns, 1)
	assert.Equal(t, 1.0, patterns[0].Penalty)
}

func TestMineSingleEnginePatterns(t *testing.T) {
	miner := NewPatternMiner(testCalibConfig())

	singleEngineSlip := func(engine string, outcome models.SlipOutcome) *models.Slip {
		leg := models.CandidateLeg{NormalizedSubject: "s", Category: "points", Side: models.SideOver}
		leg.AddSource(engine, 0.6)
		leg2 := models.CandidateLeg{NormalizedSubject: "t", Category: "rebounds", Side: models.SideOver}
		leg2.AddSource(engine, 0.6)
		return &models.Slip{Legs: []models.CandidateLeg{leg, leg2}, Outcome: outcome}
	}

	var slips []*models.Slip
	for i := 0; i < 2; i++ {
		slips = append(slips, singleEngineSlip("steam", models.SlipOutcomeWin))
	}
	for i := 0; i < 8; i++ {
		slips = append(slips, singleEngineSlip("steam", models.SlipOutcomeLoss))
	}
	// A mixed-engine slip never contributes
	mixed := singleEngineSlip("model", models.SlipOutcomeLoss)
	mixed.Legs[1].Sources = []string{"edge"}
	slips = append(slips, mixed)

	patterns := miner.MineSingleEnginePatterns(slips)
	assert.Len(t, patterns, 1)

	p := patterns[0]
	assert.Equal(t, models.SignatureSingleEngine, p.Kind)
	assert.Equal(t, "steam", p.Key)
	assert.True(t, p.Active)
	assert.Equal(t, models.PatternModeBlock, p.Mode) // 0.20 accuracy
}

func TestMineMatchupPatterns(t *testing.T) {
	miner := NewPatternMiner(testCalibConfig())
	now := time.Now().UTC()

	matchupOutcomes := func(tier models.OpponentTier, wins, losses int) []*models.SettledOutcome {
		outcomes := make([]*models.SettledOutcome, 0, wins+losses)
		for i := 0; i < wins; i++ {
			outcomes = append(outcomes, &models.SettledOutcome{
				Category: "points", Side: models.SideOver, OpponentTier: tier,
				Result: models.OutcomeWin, SettledAt: now,
			})
		}
		for i := 0; i < losses; i++ {
			outcomes = append(outcomes, &models.SettledOutcome{
				Category: "points", Side: models.SideOver, OpponentTier: tier,
				Result: models.OutcomeLoss, SettledAt: now,
			})
		}
		return outcomes
	}

	outcomes := matchupOutcomes(models.OpponentWeak, 7, 3)   // 0.70, boost
	outcomes = append(outcomes, matchupOutcomes(models.OpponentStrong, 3, 7)...) // 0.30, penalize
	// No tier recorded: excluded entirely
	outcomes = append(outcomes, &models.SettledOutcome{
		Category: "points", Side: models.SideOver, Result: models.OutcomeWin, SettledAt: now,
	})

	patterns := miner.MineMatchupPatterns(outcomes)
	assert.Len(t, patterns, 2)

	byTier := map[models.OpponentTier]models.MatchupPattern{}
	for _, p := range patterns {
		byTier[p.OpponentTier] = p
	}

	boost := byTier[models.OpponentWeak]
	assert.True(t, boost.Active)
	assert.True(t, boost.Boost)
	assert.InDelta(t, 0.20, boost.Adjustment, 1e-9)

	penalize := byTier[models.OpponentStrong]
	assert.True(t, penalize.Active)
	assert.False(t, penalize.Boost)
	assert.InDelta(t, 0.20, penalize.Adjustment, 1e-9)
}

func TestMineMatchupPatternsMiddlingAccuracyInactive(t *testing.T) {
	miner := NewPatternMiner(testCalibConfig())
	now := time.Now().UTC()

	var outcomes []*models.SettledOutcome
	for i := 0; i < 5; i++ {
		outcomes = append(outcomes, &models.SettledOutcome{
			Category: "points", Side: models.SideOver, OpponentTier: models.OpponentAverage,
			Result: models.OutcomeWin, SettledAt: now,
		})
		outcomes = append(outcomes, &models.SettledOutcome{
			Category: "points", Side: models.SideOver, OpponentTier: models.OpponentAverage,
			Result: models.OutcomeLoss, SettledAt: now,
		})
	}

	patterns := miner.MineMatchupPatterns(outcomes)
	assert.Len(t, patterns, 1)
	assert.False(t, patterns[0].Active, "0.50 accuracy is unremarkable")
}
