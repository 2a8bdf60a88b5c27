package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/courtside/pickem/internal/stats"
)

// StatMap stores a category->value mapping as a JSON column.
type StatMap map[string]float64

// Scan implements the sql.Scanner interface for JSON columns.
func (m *StatMap) Scan(value interface{}) error {
	if value == nil {
		*m = make(StatMap)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StatMap", value)
	}

	var result map[string]float64
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}

	*m = StatMap(result)
	return nil
}

// Value implements the driver.Valuer interface for JSON columns.
func (m StatMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// PlayerGameStat is the actual box-score outcome for one player in one game.
// Written once when first observed, reused on later reads.
type PlayerGameStat struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Date          time.Time `gorm:"type:date;not null" json:"date"`
	PlayerID      int64     `gorm:"not null;uniqueIndex:idx_player_game" json:"player_id"`
	GameID        string    `gorm:"not null;uniqueIndex:idx_player_game" json:"game_id"`
	Points        float64   `gorm:"default:0" json:"points"`
	Assists       float64   `gorm:"default:0" json:"assists"`
	Rebounds      float64   `gorm:"default:0" json:"rebounds"`
	Steals        float64   `gorm:"default:0" json:"steals"`
	Blocks        float64   `gorm:"default:0" json:"blocks"`
	Turnovers     float64   `gorm:"default:0" json:"turnovers"`
	PersonalFouls float64   `gorm:"default:0" json:"personal_fouls"`
	Minutes       string    `json:"minutes"`
	FetchedAt     time.Time `gorm:"autoCreateTime" json:"fetched_at"`
}

func (PlayerGameStat) TableName() string {
	return "player_game_stats"
}

// Line returns the category values as a stat line.
func (s *PlayerGameStat) Line() stats.Line {
	return stats.Line{
		stats.Points:        s.Points,
		stats.Assists:       s.Assists,
		stats.Rebounds:      s.Rebounds,
		stats.Steals:        s.Steals,
		stats.Blocks:        s.Blocks,
		stats.Turnovers:     s.Turnovers,
		stats.PersonalFouls: s.PersonalFouls,
	}
}

// PlayerExpectedStat is the frozen projection for a (player, date) pair:
// the arithmetic mean of each category over the most recent qualifying games
// strictly before the date. Immutable after first write, never recomputed.
type PlayerExpectedStat struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Date             time.Time `gorm:"type:date;not null;uniqueIndex:idx_player_date" json:"date"`
	PlayerID         int64     `gorm:"not null;uniqueIndex:idx_player_date" json:"player_id"`
	NGamesUsed       int       `gorm:"not null" json:"n_games_used"` // 0 means no history
	ExpPoints        float64   `gorm:"default:0" json:"exp_points"`
	ExpAssists       float64   `gorm:"default:0" json:"exp_assists"`
	ExpRebounds      float64   `gorm:"default:0" json:"exp_rebounds"`
	ExpSteals        float64   `gorm:"default:0" json:"exp_steals"`
	ExpBlocks        float64   `gorm:"default:0" json:"exp_blocks"`
	ExpTurnovers     float64   `gorm:"default:0" json:"exp_turnovers"`
	ExpPersonalFouls float64   `gorm:"default:0" json:"exp_personal_fouls"`
	ComputedAt       time.Time `gorm:"autoCreateTime" json:"computed_at"`
}

func (PlayerExpectedStat) TableName() string {
	return "player_expected_stats"
}

// Line returns the expected category values as a stat line.
func (s *PlayerExpectedStat) Line() stats.Line {
	return stats.Line{
		stats.Points:        s.ExpPoints,
		stats.Assists:       s.ExpAssists,
		stats.Rebounds:      s.ExpRebounds,
		stats.Steals:        s.ExpSteals,
		stats.Blocks:        s.ExpBlocks,
		stats.Turnovers:     s.ExpTurnovers,
		stats.PersonalFouls: s.ExpPersonalFouls,
	}
}

// SetLine assigns the expected category values from a stat line.
func (s *PlayerExpectedStat) SetLine(l stats.Line) {
	s.ExpPoints = l.Get(stats.Points)
	s.ExpAssists = l.Get(stats.Assists)
	s.ExpRebounds = l.Get(stats.Rebounds)
	s.ExpSteals = l.Get(stats.Steals)
	s.ExpBlocks = l.Get(stats.Blocks)
	s.ExpTurnovers = l.Get(stats.Turnovers)
	s.ExpPersonalFouls = l.Get(stats.PersonalFouls)
}

// PlayerSportsbookLine caches per-category lines from an external sportsbook
// provider. Display only: the scoring path never reads these.
type PlayerSportsbookLine struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Date       time.Time `gorm:"type:date;not null;uniqueIndex:idx_player_date_provider" json:"date"`
	PlayerID   int64     `gorm:"not null;uniqueIndex:idx_player_date_provider" json:"player_id"`
	Provider   string    `gorm:"not null;uniqueIndex:idx_player_date_provider" json:"provider"`
	GameID     string    `json:"game_id"`
	PlayerName string    `json:"player_name"`
	Lines      StatMap   `gorm:"type:json;not null" json:"lines"`
	FetchedAt  time.Time `gorm:"autoCreateTime" json:"fetched_at"`
}

func (PlayerSportsbookLine) TableName() string {
	return "player_sportsbook_lines"
}
