package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/courtside/pickem/internal/models"
	"github.com/courtside/pickem/internal/projection"
	"github.com/courtside/pickem/internal/providers"
	"github.com/courtside/pickem/internal/scoring"
	"github.com/courtside/pickem/internal/stats"
	"github.com/courtside/pickem/pkg/database"
)

// BoxScoreSource fetches a player's actual line for a finished game.
// (nil, nil) means the player did not appear in the game.
type BoxScoreSource interface {
	BoxScore(ctx context.Context, gameID string, playerID int64) (*stats.BoxScore, error)
}

// SlateSource lists the games scheduled on a date.
type SlateSource interface {
	GamesForDate(ctx context.Context, date time.Time) ([]providers.ScheduledGame, error)
}

// Scorer drives the picked -> scored transition. Scoring a pick requires an
// actual box score and a frozen projection; when either cannot be obtained
// the pick silently stays picked and a later sweep retries it.
type Scorer struct {
	db     *database.DB
	store  *Store
	engine *projection.Engine
	source BoxScoreSource
	slate  SlateSource
	logger *logrus.Logger
}

func NewScorer(db *database.DB, store *Store, engine *projection.Engine, source BoxScoreSource, slate SlateSource, logger *logrus.Logger) *Scorer {
	return &Scorer{
		db:     db,
		store:  store,
		engine: engine,
		source: source,
		slate:  slate,
		logger: logger,
	}
}

// PickOutcome is one scored pick in a score-day response.
type PickOutcome struct {
	PickID     uint            `json:"pick_id"`
	UserID     uint            `json:"user_id"`
	PlayerName string          `json:"player_name"`
	Score      float64         `json:"score"`
	Breakdown  json.RawMessage `json:"breakdown"`
}

// LeaderboardRow is one user's total in a leaderboard.
type LeaderboardRow struct {
	UserID   uint    `json:"user_id"`
	UserName string  `json:"user_name"`
	Score    float64 `json:"score"`
}

// DayOutcome is the result of a score-day call.
type DayOutcome struct {
	Leaderboard []LeaderboardRow `json:"leaderboard"`
	Results     []PickOutcome    `json:"picks_with_results"`
}

// ScoreDay scores every pick a group made on a date. Already-scored picks
// contribute their stored result untouched; unscoreable picks are skipped
// without error. Repeated calls are idempotent by construction.
func (s *Scorer) ScoreDay(ctx context.Context, groupID uint, date time.Time) (*DayOutcome, error) {
	date = DateOnly(date)

	var picks []models.Pick
	if err := s.db.Where("group_id = ? AND date = ?", groupID, date).Find(&picks).Error; err != nil {
		return nil, err
	}

	results := make([]PickOutcome, 0, len(picks))
	for i := range picks {
		pick := &picks[i]
		result := s.scorePick(ctx, pick, date)
		if result == nil {
			continue
		}
		results = append(results, PickOutcome{
			PickID:     pick.ID,
			UserID:     pick.UserID,
			PlayerName: pick.PlayerName,
			Score:      result.Score,
			Breakdown:  json.RawMessage(result.Breakdown),
		})
	}

	leaderboard, err := s.DayLeaderboard(groupID, date)
	if err != nil {
		return nil, err
	}
	return &DayOutcome{
		Leaderboard: leaderboard,
		Results:     results,
	}, nil
}

func (s *Scorer) scorePick(ctx context.Context, pick *models.Pick, date time.Time) *models.PickResult {
	log := s.logger.WithFields(logrus.Fields{
		"pick_id":   pick.ID,
		"player_id": pick.PlayerID,
		"date":      date.Format("2006-01-02"),
	})

	if pick.Status == models.PickStatusScored {
		var result models.PickResult
		if err := s.db.Where("pick_id = ?", pick.ID).First(&result).Error; err != nil {
			log.WithError(err).Error("Scored pick has no stored result")
			return nil
		}
		return &result
	}

	actual := s.resolveActual(ctx, pick, date)
	if actual == nil {
		log.Debug("No box score yet; pick deferred")
		return nil
	}

	expected, err := s.store.GetOrCreateExpected(pick.PlayerID, date, func() (*models.PlayerExpectedStat, error) {
		return s.engine.ComputeExpected(ctx, pick.PlayerID, date)
	})
	if err != nil {
		log.WithError(err).Warn("Projection unavailable; pick deferred")
		return nil
	}

	scored := scoring.ScorePick(actual.Line(), expected.Line())
	payload, err := json.Marshal(map[string]interface{}{
		"expected":      expected.Line(),
		"actual":        actual.Line(),
		"contributions": scored.Breakdown,
	})
	if err != nil {
		log.WithError(err).Error("Failed to encode breakdown")
		return nil
	}

	result, err := s.store.GetOrCreateResult(pick.ID, func() (*models.PickResult, error) {
		return &models.PickResult{
			Score:     scored.Total,
			Breakdown: payload,
		}, nil
	})
	if err != nil {
		log.WithError(err).Error("Failed to store pick result")
		return nil
	}

	updates := map[string]interface{}{"status": models.PickStatusScored}
	if pick.GameID != "" {
		updates["game_id"] = pick.GameID
	}
	if err := s.db.Model(&models.Pick{}).Where("id = ?", pick.ID).Updates(updates).Error; err != nil {
		log.WithError(err).Error("Failed to mark pick scored")
		return nil
	}
	pick.Status = models.PickStatusScored

	log.WithField("score", result.Score).Info("Pick scored")
	return result
}

// resolveActual finds the player's box score for the date, resolving the
// pick's game id when it is not known yet. nil means not available (game not
// played, player absent, or source down) and the pick should wait.
func (s *Scorer) resolveActual(ctx context.Context, pick *models.Pick, date time.Time) *models.PlayerGameStat {
	fetchFrom := func(gameID string) func() (*models.PlayerGameStat, error) {
		return func() (*models.PlayerGameStat, error) {
			box, err := s.source.BoxScore(ctx, gameID, pick.PlayerID)
			if err != nil {
				return nil, err
			}
			if box == nil {
				return nil, nil
			}
			return newGameStat(pick.PlayerID, gameID, date, box), nil
		}
	}

	if pick.GameID != "" {
		actual, err := s.store.GetOrFetchActual(pick.PlayerID, pick.GameID, fetchFrom(pick.GameID))
		if err != nil {
			s.logger.WithError(err).Warnf("Box score unavailable for game %s", pick.GameID)
			return nil
		}
		return actual
	}

	games, err := s.slate.GamesForDate(ctx, date)
	if err != nil {
		s.logger.WithError(err).Warn("Schedule unavailable; cannot locate pick's game")
		return nil
	}
	for _, game := range games {
		actual, err := s.store.GetOrFetchActual(pick.PlayerID, game.GameID, fetchFrom(game.GameID))
		if err != nil {
			s.logger.WithError(err).Warnf("Box score unavailable for game %s", game.GameID)
			return nil
		}
		if actual != nil {
			pick.GameID = game.GameID
			return actual
		}
	}
	return nil
}

func newGameStat(playerID int64, gameID string, date time.Time, box *stats.BoxScore) *models.PlayerGameStat {
	return &models.PlayerGameStat{
		Date:          DateOnly(date),
		PlayerID:      playerID,
		GameID:        gameID,
		Points:        box.Stats.Get(stats.Points),
		Assists:       box.Stats.Get(stats.Assists),
		Rebounds:      box.Stats.Get(stats.Rebounds),
		Steals:        box.Stats.Get(stats.Steals),
		Blocks:        box.Stats.Get(stats.Blocks),
		Turnovers:     box.Stats.Get(stats.Turnovers),
		PersonalFouls: box.Stats.Get(stats.PersonalFouls),
		Minutes:       box.Minutes,
	}
}

const leaderboardSelect = "users.id AS user_id, users.display_name AS user_name, COALESCE(SUM(pick_results.score), 0) AS score"

// DayLeaderboard sums scored picks per user for one date.
func (s *Scorer) DayLeaderboard(groupID uint, date time.Time) ([]LeaderboardRow, error) {
	rows := make([]LeaderboardRow, 0)
	err := s.db.Table("picks").
		Select(leaderboardSelect).
		Joins("JOIN users ON users.id = picks.user_id").
		Joins("JOIN pick_results ON pick_results.pick_id = picks.id").
		Where("picks.group_id = ? AND picks.date = ?", groupID, DateOnly(date)).
		Group("users.id, users.display_name").
		Order("score DESC").
		Scan(&rows).Error
	return rows, err
}

// AllTimeLeaderboard sums every scored pick per user in a group.
func (s *Scorer) AllTimeLeaderboard(groupID uint) ([]LeaderboardRow, error) {
	rows := make([]LeaderboardRow, 0)
	err := s.db.Table("picks").
		Select(leaderboardSelect).
		Joins("JOIN users ON users.id = picks.user_id").
		Joins("JOIN pick_results ON pick_results.pick_id = picks.id").
		Where("picks.group_id = ?", groupID).
		Group("users.id, users.display_name").
		Order("score DESC").
		Scan(&rows).Error
	return rows, err
}
