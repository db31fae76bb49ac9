package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yourusername/slipsmith/internal/models"
)

func TestNoopNotifier(t *testing.T) {
	assert.NoError(t, NoopNotifier{}.Send(context.Background(), "anything"))
}

func TestFormatCycleSummaryRefusal(t *testing.T) {
	summary := &models.CycleSummary{
		Success:               false,
		Reason:                models.RefusalInsufficientQuality,
		CandidatesIn:          12,
		CandidatesAfterFilter: 1,
	}

	out := FormatCycleSummary(summary, nil)
	assert.Contains(t, out, "insufficient_quality")
	assert.Contains(t, out, "12 in, 1 after filter")
}

func TestFormatCycleSummarySuccess(t *testing.T) {
	line := 24.5
	leg := models.CandidateLeg{
		Subject: "LeBron James", Category: "points", Side: models.SideOver,
		Line: &line, Probability: 0.72,
	}
	slips := []models.Slip{{
		Rank:                1,
		Tier:                models.SlipTierPrimary,
		CombinedProbability: 0.31,
		CombinedPrice:       264,
		Legs:                []models.CandidateLeg{leg},
	}}
	summary := &models.CycleSummary{Success: true, Selected: 1, CandidatesIn: 20, Enumerated: 14}

	out := FormatCycleSummary(summary, slips)
	assert.Contains(t, out, "Produced 1 slip(s) from 20 candidates")
	assert.Contains(t, out, "#1 [primary] p=0.310 price=+264")
	assert.Contains(t, out, "LeBron James OVER points 24.5 (p=0.72)")
}
