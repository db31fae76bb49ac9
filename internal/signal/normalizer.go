package signal

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/slipsmith/internal/models"
)

// categoryAliases maps engine-specific category spellings to canonical names
var categoryAliases = map[string]string{
	"pts":          "points",
	"reb":          "rebounds",
	"rebs":         "rebounds",
	"ast":          "assists",
	"asts":         "assists",
	"3pm":          "threes",
	"threes_made":  "threes",
	"stl":          "steals",
	"blk":          "blocks",
	"to":           "turnovers",
	"pr":           "pts_reb",
	"pa":           "pts_ast",
	"ra":           "reb_ast",
	"pra":          "pts_reb_ast",
	"pts+reb":      "pts_reb",
	"pts+ast":      "pts_ast",
	"reb+ast":      "reb_ast",
	"pts+reb+ast":  "pts_reb_ast",
	"stl+blk":      "stl_blk",
	"stocks":       "stl_blk",
}

// generational suffixes stripped during subject normalization
var subjectSuffixes = []string{"jr", "sr", "ii", "iii", "iv", "v"}

// Normalizer converts engine-specific raw picks into the common candidate
// leg shape. Malformed records are skipped and counted, never fatal.
type Normalizer struct {
	logger *logrus.Logger
}

// NewNormalizer creates a new signal normalizer
func NewNormalizer(logger *logrus.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// NormalizeBatch converts one engine's picks, returning the candidate legs
// and the count of malformed records skipped.
func (n *Normalizer) NormalizeBatch(engine string, picks []RawPick) ([]models.CandidateLeg, int) {
	legs := make([]models.CandidateLeg, 0, len(picks))
	skipped := 0

	for i := range picks {
		leg, err := n.Normalize(engine, &picks[i])
		if err != nil {
			skipped++
			n.logger.WithError(err).WithFields(logrus.Fields{
				"engine":  engine,
				"subject": picks[i].Subject,
			}).Debug("Skipping malformed candidate record")
			continue
		}
		legs = append(legs, *leg)
	}

	return legs, skipped
}

// Normalize converts one raw pick into a candidate leg
func (n *Normalizer) Normalize(engine string, pick *RawPick) (*models.CandidateLeg, error) {
	if pick.Subject == "" || pick.Category == "" || pick.EventKey == "" {
		return nil, models.ErrMalformedRecord
	}

	side, err := normalizeSide(pick.Side)
	if err != nil {
		return nil, err
	}

	leg := &models.CandidateLeg{
		Subject:           pick.Subject,
		NormalizedSubject: NormalizeSubject(pick.Subject),
		Category:          NormalizeCategory(pick.Category),
		Side:              side,
		Line:              pick.Line,
		Price:             pick.Price,
		EventKey:          pick.EventKey,
		Opponent:          pick.Opponent,
		OpponentTier:      normalizeOpponentTier(pick.OpponentTier),
		HitRateSignal:     pick.HitRate,
		ExplicitEdge:      pick.Edge,
	}
	leg.AddSource(engine, pick.Score)

	return leg, nil
}

// NormalizeSubject folds case, strips punctuation, and drops generational
// suffixes so near-duplicate subject spellings merge.
func NormalizeSubject(subject string) string {
	s := strings.ToLower(strings.TrimSpace(subject))

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		}
	}
	s = b.String()

	words := strings.Fields(s)
	if len(words) > 1 {
		last := words[len(words)-1]
		for _, suffix := range subjectSuffixes {
			if last == suffix {
				words = words[:len(words)-1]
				break
			}
		}
	}

	return strings.Join(words, " ")
}

// NormalizeCategory maps a category spelling to its canonical name
func NormalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if canonical, ok := categoryAliases[c]; ok {
		return canonical
	}
	return c
}

func normalizeSide(side string) (models.Side, error) {
	switch strings.ToUpper(strings.TrimSpace(side)) {
	case "OVER", "O":
		return models.SideOver, nil
	case "UNDER", "U":
		return models.SideUnder, nil
	default:
		return "", fmt.Errorf("%w: unknown side %q", models.ErrMalformedRecord, side)
	}
}

func normalizeOpponentTier(tier string) models.OpponentTier {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case "strong", "top":
		return models.OpponentStrong
	case "weak", "bottom":
		return models.OpponentWeak
	default:
		return models.OpponentAverage
	}
}
