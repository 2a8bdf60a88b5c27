package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/courtside/pickem/internal/models"
	"github.com/courtside/pickem/pkg/database"
)

// Store owns the freeze-on-first-write persistence rules for projections,
// actuals and pick results. Every get-or-compute path goes through here so
// race handling lives in one place: read, compute if absent, insert with
// ON CONFLICT DO NOTHING, then re-read. The unique key constraint decides
// which of two racing writers survives; no engine-level locking.
type Store struct {
	db     *database.DB
	logger *logrus.Logger
}

func NewStore(db *database.DB, logger *logrus.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}

// DateOnly normalizes a timestamp to its calendar date in UTC. All date-keyed
// rows store this form so key equality is exact.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// GetOrCreateExpected returns the stored projection for (playerID, date),
// computing and inserting it only when absent. A stored projection is a
// frozen snapshot: later calls return it unchanged even if upstream history
// would now average differently. A failed compute persists nothing.
func (s *Store) GetOrCreateExpected(playerID int64, date time.Time, compute func() (*models.PlayerExpectedStat, error)) (*models.PlayerExpectedStat, error) {
	date = DateOnly(date)

	var existing models.PlayerExpectedStat
	err := s.db.Where("player_id = ? AND date = ?", playerID, date).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup expected stat: %w", err)
	}

	computed, err := compute()
	if err != nil {
		return nil, err
	}
	computed.PlayerID = playerID
	computed.Date = date

	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(computed).Error; err != nil {
		return nil, fmt.Errorf("store expected stat: %w", err)
	}

	// Re-read so a lost race still returns the surviving row.
	if err := s.db.Where("player_id = ? AND date = ?", playerID, date).First(&existing).Error; err != nil {
		return nil, fmt.Errorf("reload expected stat: %w", err)
	}
	return &existing, nil
}

// GetOrCreateResult returns the stored score for a pick, computing and
// inserting it only when absent. At most one PickResult row per pick exists.
func (s *Store) GetOrCreateResult(pickID uint, compute func() (*models.PickResult, error)) (*models.PickResult, error) {
	var existing models.PickResult
	err := s.db.Where("pick_id = ?", pickID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup pick result: %w", err)
	}

	computed, err := compute()
	if err != nil {
		return nil, err
	}
	computed.PickID = pickID

	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(computed).Error; err != nil {
		return nil, fmt.Errorf("store pick result: %w", err)
	}

	if err := s.db.Where("pick_id = ?", pickID).First(&existing).Error; err != nil {
		return nil, fmt.Errorf("reload pick result: %w", err)
	}
	return &existing, nil
}

// GetOrFetchActual returns the stored box score for (playerID, gameID),
// fetching and inserting it when absent. fetch may return (nil, nil) when
// the player did not appear in the game; nothing is stored then.
func (s *Store) GetOrFetchActual(playerID int64, gameID string, fetch func() (*models.PlayerGameStat, error)) (*models.PlayerGameStat, error) {
	var existing models.PlayerGameStat
	err := s.db.Where("player_id = ? AND game_id = ?", playerID, gameID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup game stat: %w", err)
	}

	fetched, err := fetch()
	if err != nil {
		return nil, err
	}
	if fetched == nil {
		return nil, nil
	}
	fetched.PlayerID = playerID
	fetched.GameID = gameID
	fetched.Date = DateOnly(fetched.Date)

	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(fetched).Error; err != nil {
		return nil, fmt.Errorf("store game stat: %w", err)
	}

	if err := s.db.Where("player_id = ? AND game_id = ?", playerID, gameID).First(&existing).Error; err != nil {
		return nil, fmt.Errorf("reload game stat: %w", err)
	}
	return &existing, nil
}
