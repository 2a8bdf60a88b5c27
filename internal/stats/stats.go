package stats

import (
	"errors"
	"time"
)

// ErrSourceUnavailable indicates the upstream stats provider could not be
// reached or returned an unusable payload. Callers may retry later; nothing
// partial is ever persisted on this error.
var ErrSourceUnavailable = errors.New("stats source unavailable")

// Category is one of the tracked box-score statistics.
type Category string

const (
	Points        Category = "points"
	Assists       Category = "assists"
	Rebounds      Category = "rebounds"
	Steals        Category = "steals"
	Blocks        Category = "blocks"
	Turnovers     Category = "turnovers"
	PersonalFouls Category = "personal_fouls"
)

// Categories returns the fixed, ordered category set. Every external
// representation (JSON breakdowns, sportsbook lines, stored rows) must use
// exactly these keys.
func Categories() []Category {
	return []Category{Points, Assists, Rebounds, Steals, Blocks, Turnovers, PersonalFouls}
}

// Line maps categories to values. Missing categories read as 0.
type Line map[Category]float64

// Get returns the value for a category, 0 when absent.
func (l Line) Get(c Category) float64 {
	if l == nil {
		return 0
	}
	return l[c]
}

// GameLine is one player's box-score line for one past game, as returned by
// the stat source adapter. Immutable once recorded.
type GameLine struct {
	GameDate time.Time
	Stats    Line
}

// BoxScore is the observed outcome for a player in a finished game.
type BoxScore struct {
	Stats   Line
	Minutes string
}
