package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/courtside/pickem/internal/stats"
)

func TestScorePickKnownScenario(t *testing.T) {
	actual := stats.Line{
		stats.Points:        25,
		stats.Assists:       8,
		stats.Rebounds:      5,
		stats.Steals:        1,
		stats.Blocks:        0,
		stats.Turnovers:     3,
		stats.PersonalFouls: 2,
	}
	expected := stats.Line{
		stats.Points:        20,
		stats.Assists:       5,
		stats.Rebounds:      6,
		stats.Steals:        2,
		stats.Blocks:        1,
		stats.Turnovers:     2,
		stats.PersonalFouls: 3,
	}

	result := ScorePick(actual, expected)

	assert.InDelta(t, 1.3, result.Total, 1e-9)
	assert.InDelta(t, 5.0, result.Breakdown[stats.Points], 1e-9)
	assert.InDelta(t, 4.5, result.Breakdown[stats.Assists], 1e-9)
	assert.InDelta(t, -1.2, result.Breakdown[stats.Rebounds], 1e-9)
	assert.InDelta(t, -3.0, result.Breakdown[stats.Steals], 1e-9)
	assert.InDelta(t, -3.0, result.Breakdown[stats.Blocks], 1e-9)
	assert.InDelta(t, -1.5, result.Breakdown[stats.Turnovers], 1e-9)
	assert.InDelta(t, 0.5, result.Breakdown[stats.PersonalFouls], 1e-9)
}

func TestScorePickBreakdownRounding(t *testing.T) {
	// points contribution is 9.544: breakdown shows 9.54, total rounds the
	// unrounded 9.544 to one decimal.
	actual := stats.Line{stats.Points: 30}
	expected := stats.Line{stats.Points: 20.456}

	result := ScorePick(actual, expected)

	assert.InDelta(t, 9.54, result.Breakdown[stats.Points], 1e-9)
	assert.InDelta(t, 9.5, result.Total, 1e-9)
}

func TestScorePickNoDoubleRounding(t *testing.T) {
	// Contributions 2.554, 3.654 and 1.644 each lose 0.004 when rounded for
	// the breakdown. Summing the rounded breakdown gives 7.84 -> 7.8; the
	// unrounded sum is 7.852 -> 7.9. The total must come from the latter.
	actual := stats.Line{
		stats.Points:   22.554,
		stats.Assists:  5.436,
		stats.Rebounds: 7.37,
	}
	expected := stats.Line{
		stats.Points:   20,
		stats.Assists:  3,
		stats.Rebounds: 6,
	}

	result := ScorePick(actual, expected)

	assert.InDelta(t, 2.55, result.Breakdown[stats.Points], 1e-9)
	assert.InDelta(t, 3.65, result.Breakdown[stats.Assists], 1e-9)
	assert.InDelta(t, 1.64, result.Breakdown[stats.Rebounds], 1e-9)
	assert.InDelta(t, 7.9, result.Total, 1e-9)
}

func TestScorePickMissingCategoriesTreatedAsZero(t *testing.T) {
	actual := stats.Line{stats.Points: 10}
	expected := stats.Line{
		stats.Points:  10,
		stats.Assists: 4,
	}

	result := ScorePick(actual, expected)

	assert.Len(t, result.Breakdown, 7)
	assert.InDelta(t, 0.0, result.Breakdown[stats.Points], 1e-9)
	assert.InDelta(t, -6.0, result.Breakdown[stats.Assists], 1e-9)
	assert.InDelta(t, 0.0, result.Breakdown[stats.Rebounds], 1e-9)
}

func TestScorePickDeterministic(t *testing.T) {
	actual := stats.Line{stats.Points: 31.5, stats.Turnovers: 4}
	expected := stats.Line{stats.Points: 24.2, stats.Turnovers: 2.6}

	first := ScorePick(actual, expected)
	second := ScorePick(actual, expected)

	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, first.Breakdown, second.Breakdown)
}

func TestScorePickEmptyInputs(t *testing.T) {
	result := ScorePick(nil, nil)

	assert.Zero(t, result.Total)
	for _, c := range stats.Categories() {
		assert.Zero(t, result.Breakdown[c])
	}
}

func TestWeightValues(t *testing.T) {
	assert.Equal(t, 1.0, Weight(stats.Points))
	assert.Equal(t, 1.5, Weight(stats.Assists))
	assert.Equal(t, 1.2, Weight(stats.Rebounds))
	assert.Equal(t, 3.0, Weight(stats.Steals))
	assert.Equal(t, 3.0, Weight(stats.Blocks))
	assert.Equal(t, -1.5, Weight(stats.Turnovers))
	assert.Equal(t, -0.5, Weight(stats.PersonalFouls))
}
