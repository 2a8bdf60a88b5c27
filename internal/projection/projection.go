// Package projection derives an expected-performance baseline for a player
// from recent-game history: a naive moving average over the last few games,
// with no recency weighting and no regression to a league baseline.
package projection

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/courtside/pickem/internal/models"
	"github.com/courtside/pickem/internal/stats"
)

// LookbackGames is the number of prior games averaged into a projection.
const LookbackGames = 5

// GameLogSource yields a player's most recent games strictly before a bound,
// most recent first, at most limit entries. The source is the only component
// allowed to talk to the network.
type GameLogSource interface {
	RecentGames(ctx context.Context, playerID int64, before time.Time, limit int) ([]stats.GameLine, error)
}

type Engine struct {
	source GameLogSource
	logger *logrus.Logger
}

func NewEngine(source GameLogSource, logger *logrus.Logger) *Engine {
	return &Engine{
		source: source,
		logger: logger,
	}
}

// ComputeExpected builds the projection for (playerID, targetDate): the
// arithmetic mean of each category over however many qualifying games the
// source returned. Zero games is not an error; the result carries all-zero
// values with NGamesUsed = 0 so callers can tell "no history" apart from
// "averaged to zero". The result is not persisted here.
func (e *Engine) ComputeExpected(ctx context.Context, playerID int64, targetDate time.Time) (*models.PlayerExpectedStat, error) {
	games, err := e.source.RecentGames(ctx, playerID, targetDate, LookbackGames)
	if err != nil {
		return nil, fmt.Errorf("recent games for player %d: %w", playerID, err)
	}

	totals := make(stats.Line, 7)
	used := 0
	for _, game := range games {
		// Games on or after the target date never feed the average, even if
		// the source misbehaves.
		if !game.GameDate.Before(targetDate) {
			continue
		}
		if used == LookbackGames {
			break
		}
		for _, c := range stats.Categories() {
			totals[c] += game.Stats.Get(c)
		}
		used++
	}

	averages := make(stats.Line, 7)
	if used > 0 {
		for _, c := range stats.Categories() {
			averages[c] = totals[c] / float64(used)
		}
	}

	e.logger.WithFields(logrus.Fields{
		"player_id":    playerID,
		"date":         targetDate.Format("2006-01-02"),
		"n_games_used": used,
	}).Debug("Computed expected stats")

	expected := &models.PlayerExpectedStat{
		Date:       targetDate,
		PlayerID:   playerID,
		NGamesUsed: used,
	}
	expected.SetLine(averages)
	return expected, nil
}
