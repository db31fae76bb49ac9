package slips

import (
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/slipsmith/internal/config"
	"github.com/yourusername/slipsmith/internal/models"
)

// SelectionResult holds the chosen slips for one cycle. Zero selections
// with a refusal reason is a valid terminal state, not an error.
type SelectionResult struct {
	Slips          []models.Slip
	Refusal        models.RefusalReason
	TrustedRelaxed bool // primary was chosen without the trusted-source requirement
}

// Selector walks the ranked combinations picking up to K under the
// cross-slip exposure cap and the current quality gates.
type Selector struct {
	cfg    config.SelectionConfig
	logger *logrus.Logger
}

// NewSelector creates a slip selector
func NewSelector(cfg config.SelectionConfig, logger *logrus.Logger) *Selector {
	return &Selector{cfg: cfg, logger: logger}
}

// Select ranks the scored slips and picks up to MaxSelections. The
// top-ranked pick must clear every gate and carry enough trusted-source
// legs; alternates use a relaxed combined-probability threshold. If no
// primary qualifies, selection retries once without the trusted-source
// requirement.
func (s *Selector) Select(slips []models.Slip, gates models.Gates) *SelectionResult {
	if len(slips) == 0 {
		return &SelectionResult{Refusal: models.RefusalNoLegalCombination}
	}

	ranked := make([]models.Slip, len(slips))
	copy(ranked, slips)
	rankSlips(ranked)

	result := s.walk(ranked, gates, true)
	if len(result.Slips) == 0 {
		result = s.walk(ranked, gates, false)
		result.TrustedRelaxed = len(result.Slips) > 0
		if result.TrustedRelaxed {
			s.logger.WithField("trusted_source", s.cfg.TrustedSource).
				Info("Primary selected without trusted-source requirement")
		}
	}

	if len(result.Slips) == 0 {
		result.Refusal = models.RefusalInsufficientQuality
	}

	return result
}

// walk performs one greedy pass over the ranked list
func (s *Selector) walk(ranked []models.Slip, gates models.Gates, requireTrusted bool) *SelectionResult {
	result := &SelectionResult{}
	subjectUse := make(map[string]int)

	for i := range ranked {
		if len(result.Slips) >= s.cfg.MaxSelections {
			break
		}

		slip := ranked[i]
		isPrimary := len(result.Slips) == 0

		if isPrimary {
			if !s.clearsGates(&slip, gates) {
				continue
			}
			if requireTrusted && slip.SourceCount(s.cfg.TrustedSource) < s.cfg.MinTrustedLegs {
				continue
			}
		} else {
			if slip.CombinedProbability < gates.MinCombinedProb*s.cfg.AlternateProbFraction {
				continue
			}
		}

		if s.exceedsSubjectCap(&slip, subjectUse) {
			continue
		}

		for _, subject := range slip.Subjects() {
			subjectUse[subject]++
		}
		slip.Rank = len(result.Slips) + 1
		if isPrimary {
			slip.Tier = models.SlipTierPrimary
		} else {
			slip.Tier = models.SlipTierAlternate
		}
		result.Slips = append(result.Slips, slip)
	}

	return result
}

// clearsGates applies every quality gate to a primary candidate. Edge and
// hit-rate gates apply per leg on average; score and combined probability
// apply to the slip as a whole.
func (s *Selector) clearsGates(slip *models.Slip, gates models.Gates) bool {
	size := float64(slip.Size())
	if slip.CombinedProbability < gates.MinCombinedProb {
		return false
	}
	if slip.Score < gates.MinScore {
		return false
	}
	if slip.TotalEdge/size < gates.MinEdge {
		return false
	}
	avgProb := 0.0
	for i := range slip.Legs {
		avgProb += slip.Legs[i].Probability
	}
	if avgProb/size < gates.MinHitRate {
		return false
	}
	return true
}

// exceedsSubjectCap reports whether adding the slip would push any of its
// subjects past the cross-slip exposure cap.
func (s *Selector) exceedsSubjectCap(slip *models.Slip, subjectUse map[string]int) bool {
	for _, subject := range slip.Subjects() {
		if subjectUse[subject] >= s.cfg.CrossSlipSubjectCap {
			return true
		}
	}
	return false
}

// rankSlips sorts by score descending, breaking ties by combined
// probability and then by enumeration order so selection is reproducible.
func rankSlips(slips []models.Slip) {
	sort.SliceStable(slips, func(i, j int) bool {
		if slips[i].Score != slips[j].Score {
			return slips[i].Score > slips[j].Score
		}
		return slips[i].CombinedProbability > slips[j].CombinedProbability
	})
}
