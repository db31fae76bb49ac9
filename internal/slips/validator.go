package slips

import (
	"github.com/yourusername/slipsmith/internal/config"
	"github.com/yourusername/slipsmith/internal/models"
)

// categoryConstituents maps composite categories to their base statistics.
// Two categories are correlated when their constituent sets intersect.
var categoryConstituents = map[string][]string{
	"pts_reb":     {"points", "rebounds"},
	"pts_ast":     {"points", "assists"},
	"reb_ast":     {"rebounds", "assists"},
	"pts_reb_ast": {"points", "rebounds", "assists"},
	"stl_blk":     {"steals", "blocks"},
}

// lineFloors holds minimum lines for low-magnitude categories where a
// fractional threshold is effectively a coin flip.
var lineFloors = map[string]float64{
	"steals": 1.5,
	"blocks": 1.5,
	"threes": 1.5,
}

// constituentsOf returns a category's base statistics; a base category is
// its own sole constituent.
func constituentsOf(category string) []string {
	if parts, ok := categoryConstituents[category]; ok {
		return parts
	}
	return []string{category}
}

// CategoriesCorrelated reports whether two categories share any base
// statistic. Symmetric, and transitive through shared constituents.
func CategoriesCorrelated(a, b string) bool {
	partsA := constituentsOf(a)
	partsB := constituentsOf(b)
	for _, pa := range partsA {
		for _, pb := range partsB {
			if pa == pb {
				return true
			}
		}
	}
	return false
}

// Accumulator tracks the legs of a combination under construction. It is
// threaded explicitly through validator and selector calls so repeated or
// concurrent selection runs cannot interfere through shared state.
type Accumulator struct {
	legs           []models.CandidateLeg
	subjects       map[string]struct{}
	eventCounts    map[string]int
	categoryCounts map[string]int
}

// NewAccumulator creates an empty combination accumulator
func NewAccumulator(capacity int) *Accumulator {
	return &Accumulator{
		legs:           make([]models.CandidateLeg, 0, capacity),
		subjects:       make(map[string]struct{}, capacity),
		eventCounts:    make(map[string]int, capacity),
		categoryCounts: make(map[string]int, capacity),
	}
}

// Add appends a leg, assuming it has already passed validation
func (a *Accumulator) Add(leg models.CandidateLeg) {
	a.legs = append(a.legs, leg)
	a.subjects[leg.NormalizedSubject] = struct{}{}
	a.eventCounts[leg.EventKey]++
	a.categoryCounts[leg.Category]++
}

// RemoveLast pops the most recently added leg, for backtracking enumeration
func (a *Accumulator) RemoveLast() {
	if len(a.legs) == 0 {
		return
	}
	last := a.legs[len(a.legs)-1]
	a.legs = a.legs[:len(a.legs)-1]
	delete(a.subjects, last.NormalizedSubject)
	a.eventCounts[last.EventKey]--
	if a.eventCounts[last.EventKey] == 0 {
		delete(a.eventCounts, last.EventKey)
	}
	a.categoryCounts[last.Category]--
	if a.categoryCounts[last.Category] == 0 {
		delete(a.categoryCounts, last.Category)
	}
}

// Size returns the number of accumulated legs
func (a *Accumulator) Size() int {
	return len(a.legs)
}

// Legs returns a copy of the accumulated legs
func (a *Accumulator) Legs() []models.CandidateLeg {
	out := make([]models.CandidateLeg, len(a.legs))
	copy(out, a.legs)
	return out
}

// Validator is the stateless predicate layer deciding whether a candidate
// may join a partially built combination.
type Validator struct {
	eventExposureCap      int
	categoryRepetitionCap int
}

// NewValidator creates a validator from the selection configuration
func NewValidator(cfg config.SelectionConfig) *Validator {
	return &Validator{
		eventExposureCap:      cfg.EventExposureCap,
		categoryRepetitionCap: cfg.CategoryRepetitionCap,
	}
}

// CanAdd reports whether the candidate is legal against the combination so
// far. Rules are independent; cheap map lookups run before the correlation
// scan.
func (v *Validator) CanAdd(leg *models.CandidateLeg, acc *Accumulator) bool {
	// Same-subject legs are always mutually exclusive
	if _, taken := acc.subjects[leg.NormalizedSubject]; taken {
		return false
	}

	if acc.eventCounts[leg.EventKey] >= v.eventExposureCap {
		return false
	}

	if acc.categoryCounts[leg.Category] >= v.categoryRepetitionCap {
		return false
	}

	if floor, ok := lineFloors[leg.Category]; ok {
		if leg.Line == nil || *leg.Line < floor {
			return false
		}
	}

	for i := range acc.legs {
		if acc.legs[i].NormalizedSubject != leg.NormalizedSubject {
			continue
		}
		if CategoriesCorrelated(acc.legs[i].Category, leg.Category) {
			return false
		}
	}

	return true
}
