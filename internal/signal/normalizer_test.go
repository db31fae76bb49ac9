package signal

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/yourusername/slipsmith/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestNormalizeSubject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases and trims", "  LeBron James ", "lebron james"},
		{"strips punctuation", "D'Angelo Russell", "dangelo russell"},
		{"drops generational suffix", "Tim Hardaway Jr.", "tim hardaway"},
		{"drops roman numeral suffix", "Kelly Oubre III", "kelly oubre"},
		{"keeps single-word subject intact", "jr", "jr"},
		{"collapses interior whitespace", "Jaren  Jackson   Jr", "jaren jackson"},
		{"keeps digits", "Metta World Peace 37", "metta world peace 37"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeSubject(tt.input))
		})
	}
}

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"PTS", "points"},
		{"pra", "pts_reb_ast"},
		{"pts+reb", "pts_reb"},
		{"stocks", "stl_blk"},
		{"3pm", "threes"},
		{"rebounds", "rebounds"}, // already canonical
		{"unknown_cat", "unknown_cat"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeCategory(tt.input), "input %q", tt.input)
	}
}

func TestNormalizeSides(t *testing.T) {
	n := NewNormalizer(testLogger())

	line := 24.5
	base := RawPick{Subject: "Test Player", Category: "pts", Side: "over", Line: &line, EventKey: "nba:LAL@BOS"}

	leg, err := n.Normalize("model", &base)
	assert.NoError(t, err)
	assert.Equal(t, models.SideOver, leg.Side)

	base.Side = "U"
	leg, err = n.Normalize("model", &base)
	assert.NoError(t, err)
	assert.Equal(t, models.SideUnder, leg.Side)

	base.Side = "middle"
	_, err = n.Normalize("model", &base)
	assert.ErrorIs(t, err, models.ErrMalformedRecord)
}

func TestNormalizeTagsEngineSource(t *testing.T) {
	n := NewNormalizer(testLogger())

	line := 7.5
	pick := RawPick{
		Subject:  "Nikola Jokic",
		Category: "ast",
		Side:     "OVER",
		Line:     &line,
		Price:    -115,
		EventKey: "nba:DEN@MIN",
		Score:    0.61,
	}

	leg, err := n.Normalize("edge", &pick)
	assert.NoError(t, err)
	assert.Equal(t, "nikola jokic", leg.NormalizedSubject)
	assert.Equal(t, "assists", leg.Category)
	assert.Equal(t, []string{"edge"}, leg.Sources)
	assert.Equal(t, 0.61, leg.SourceScores["edge"])
}

func TestNormalizeOpponentTier(t *testing.T) {
	n := NewNormalizer(testLogger())

	pick := RawPick{Subject: "A", Category: "pts", Side: "OVER", EventKey: "e1", OpponentTier: "TOP"}
	leg, err := n.Normalize("model", &pick)
	assert.NoError(t, err)
	assert.Equal(t, models.OpponentStrong, leg.OpponentTier)

	pick.OpponentTier = "bottom"
	leg, _ = n.Normalize("model", &pick)
	assert.Equal(t, models.OpponentWeak, leg.OpponentTier)

	pick.OpponentTier = ""
	leg, _ = n.Normalize("model", &pick)
	assert.Equal(t, models.OpponentAverage, leg.OpponentTier)
}

func TestNormalizeBatchSkipsMalformed(t *testing.T) {
	n := NewNormalizer(testLogger())

	picks := []RawPick{
		{Subject: "Good One", Category: "pts", Side: "OVER", EventKey: "e1"},
		{Subject: "", Category: "pts", Side: "OVER", EventKey: "e1"},       // missing subject
		{Subject: "Bad Side", Category: "pts", Side: "PUSH", EventKey: "e1"},
		{Subject: "No Event", Category: "pts", Side: "OVER", EventKey: ""}, // missing event
		{Subject: "Good Two", Category: "reb", Side: "UNDER", EventKey: "e2"},
	}

	legs, skipped := n.NormalizeBatch("model", picks)
	assert.Len(t, legs, 2)
	assert.Equal(t, 3, skipped)
}
