// Package notify delivers cycle results to an external channel. The core
// emits structured summaries; this package renders them as plain text.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/yourusername/slipsmith/internal/models"
)

// Notifier delivers a message to the configured channel
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// NoopNotifier discards messages; used when notification is disabled
type NoopNotifier struct{}

// Send does nothing
func (NoopNotifier) Send(ctx context.Context, message string) error {
	return nil
}

// FormatCycleSummary renders a cycle result for the notification channel
func FormatCycleSummary(summary *models.CycleSummary, slips []models.Slip) string {
	var b strings.Builder

	if !summary.Success {
		fmt.Fprintf(&b, "No slips produced: %s\n", summary.Reason)
		fmt.Fprintf(&b, "Candidates: %d in, %d after filter\n",
			summary.CandidatesIn, summary.CandidatesAfterFilter)
		return b.String()
	}

	fmt.Fprintf(&b, "Produced %d slip(s) from %d candidates (%d enumerated)\n",
		summary.Selected, summary.CandidatesIn, summary.Enumerated)
	for i := range slips {
		slip := &slips[i]
		fmt.Fprintf(&b, "\n#%d [%s] p=%.3f price=%+d\n",
			slip.Rank, slip.Tier, slip.CombinedProbability, slip.CombinedPrice)
		for j := range slip.Legs {
			fmt.Fprintf(&b, "  %s (p=%.2f)\n", slip.Legs[j].Label(), slip.Legs[j].Probability)
		}
	}
	return b.String()
}
