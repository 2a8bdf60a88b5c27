// Package scoring converts an actual box-score outcome into a weighted point
// differential against an expected baseline.
package scoring

import (
	"math"

	"github.com/courtside/pickem/internal/stats"
)

// Category weights are fixed and global. Positive counting stats are weighted
// near their defensive rarity (steals/blocks highest); turnovers and fouls
// are penalized.
var weights = map[stats.Category]float64{
	stats.Points:        1.0,
	stats.Assists:       1.5,
	stats.Rebounds:      1.2,
	stats.Steals:        3.0,
	stats.Blocks:        3.0,
	stats.Turnovers:     -1.5,
	stats.PersonalFouls: -0.5,
}

// Weight returns the scoring weight for a category.
func Weight(c stats.Category) float64 {
	return weights[c]
}

// Result is the outcome of scoring one pick.
type Result struct {
	Total     float64                    `json:"score"`
	Breakdown map[stats.Category]float64 `json:"breakdown"`
}

// ScorePick computes the weighted differential between an actual line and an
// expected line. Per category: (actual - expected) * weight, rounded to 2
// decimals in the breakdown. The total is rounded to 1 decimal from the sum
// of the UNROUNDED contributions; summing the rounded breakdown would drift.
// Missing actual categories count as 0. Pure and deterministic.
func ScorePick(actual, expected stats.Line) Result {
	breakdown := make(map[stats.Category]float64, len(weights))
	total := 0.0
	for _, c := range stats.Categories() {
		contribution := (actual.Get(c) - expected.Get(c)) * weights[c]
		breakdown[c] = roundTo(contribution, 2)
		total += contribution
	}
	return Result{
		Total:     roundTo(total, 1),
		Breakdown: breakdown,
	}
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
