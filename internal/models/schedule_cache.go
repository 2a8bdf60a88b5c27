package models

import (
	"time"

	"gorm.io/datatypes"
)

// ScheduleCache holds a day's parsed schedule payload so upstream is not hit
// on every page load. Rows are refreshed in place once the TTL lapses.
type ScheduleCache struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Date      time.Time      `gorm:"type:date;uniqueIndex;not null" json:"date"`
	Games     datatypes.JSON `gorm:"not null" json:"games"`
	FetchedAt time.Time      `gorm:"not null" json:"fetched_at"`
}

func (ScheduleCache) TableName() string {
	return "schedule_caches"
}

// GameMeta stores per-game metadata so roster lookups can resolve team ids
// from a game id alone.
type GameMeta struct {
	GameID     string    `gorm:"primaryKey" json:"game_id"`
	Date       time.Time `gorm:"type:date;not null" json:"date"`
	StartTime  string    `json:"start_time"`
	HomeTeam   string    `json:"home_team"`
	AwayTeam   string    `json:"away_team"`
	HomeTeamID string    `json:"home_team_id"`
	AwayTeamID string    `json:"away_team_id"`
	FetchedAt  time.Time `gorm:"not null" json:"fetched_at"`
}

func (GameMeta) TableName() string {
	return "game_metas"
}

// TeamRosterCache holds a team's roster payload (6h TTL).
type TeamRosterCache struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	TeamID    string         `gorm:"uniqueIndex;not null" json:"team_id"`
	TeamName  string         `json:"team_name"`
	TeamAbbr  string         `json:"team_abbr"`
	Roster    datatypes.JSON `gorm:"not null" json:"roster"`
	FetchedAt time.Time      `gorm:"not null" json:"fetched_at"`
}

func (TeamRosterCache) TableName() string {
	return "team_roster_caches"
}

// All lists every model for schema migration.
func All() []interface{} {
	return []interface{}{
		&Group{},
		&User{},
		&GroupMember{},
		&Pick{},
		&PickResult{},
		&PlayerGameStat{},
		&PlayerExpectedStat{},
		&PlayerSportsbookLine{},
		&ScheduleCache{},
		&GameMeta{},
		&TeamRosterCache{},
	}
}
