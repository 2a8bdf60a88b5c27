package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/courtside/pickem/internal/models"
	"github.com/courtside/pickem/internal/providers"
	"github.com/courtside/pickem/internal/stats"
	"github.com/courtside/pickem/pkg/database"
)

// LinesService caches sportsbook lines per (player, date, provider) with a
// short TTL. Lines are display-only context next to the recent-games
// projection; scoring never reads them.
type LinesService struct {
	db       *database.DB
	provider providers.SportsbookProvider
	ttl      time.Duration
	logger   *logrus.Logger
}

func NewLinesService(db *database.DB, provider providers.SportsbookProvider, ttl time.Duration, logger *logrus.Logger) *LinesService {
	return &LinesService{
		db:       db,
		provider: provider,
		ttl:      ttl,
		logger:   logger,
	}
}

// Enabled reports whether a sportsbook provider is configured.
func (s *LinesService) Enabled() bool {
	return s.provider != nil
}

// PlayerLines returns cached or freshly fetched lines for a player on a
// date. nil means no lines are available; provider failures degrade to nil
// (with a stale cached row served when one exists) rather than erroring,
// since lines are optional context.
func (s *LinesService) PlayerLines(ctx context.Context, playerID int64, playerName string, date time.Time) *providers.LineResult {
	if s.provider == nil {
		return nil
	}
	date = DateOnly(date)

	var row models.PlayerSportsbookLine
	err := s.db.Where("player_id = ? AND date = ? AND provider = ?", playerID, date, s.provider.Name()).First(&row).Error
	haveRow := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.WithError(err).Warn("Sportsbook line lookup failed")
		return nil
	}

	if haveRow && time.Since(row.FetchedAt) < s.ttl && len(row.Lines) > 0 {
		return lineResultFromRow(&row, s.provider.Name())
	}

	result, err := s.provider.PlayerLines(ctx, playerID, playerName, date)
	if err != nil {
		s.logger.WithError(err).Warnf("Sportsbook provider %s failed", s.provider.Name())
		if haveRow && len(row.Lines) > 0 {
			return lineResultFromRow(&row, s.provider.Name())
		}
		return nil
	}
	if result == nil || len(result.Lines) == 0 {
		if haveRow && len(row.Lines) > 0 {
			return lineResultFromRow(&row, s.provider.Name())
		}
		return nil
	}

	lines := make(models.StatMap, len(result.Lines))
	for category, value := range result.Lines {
		lines[string(category)] = value
	}
	fresh := models.PlayerSportsbookLine{
		Date:       date,
		PlayerID:   playerID,
		Provider:   s.provider.Name(),
		PlayerName: playerName,
		Lines:      lines,
		FetchedAt:  result.LastUpdated,
	}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}, {Name: "date"}, {Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{"player_name", "lines", "fetched_at"}),
	}).Create(&fresh).Error
	if err != nil {
		s.logger.WithError(err).Warn("Failed to cache sportsbook lines")
	}

	return result
}

func lineResultFromRow(row *models.PlayerSportsbookLine, provider string) *providers.LineResult {
	lines := make(stats.Line, len(row.Lines))
	for key, value := range row.Lines {
		lines[stats.Category(key)] = value
	}
	return &providers.LineResult{
		Provider:    provider,
		LastUpdated: row.FetchedAt,
		Lines:       lines,
	}
}
