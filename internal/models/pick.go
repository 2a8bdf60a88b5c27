package models

import (
	"time"

	"gorm.io/datatypes"
)

// PickStatus is the pick lifecycle state. A pick moves picked -> scored
// exactly once; once scored it is never recomputed.
type PickStatus string

const (
	PickStatusPicked PickStatus = "picked"
	PickStatusScored PickStatus = "scored"
)

type Pick struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	GroupID    uint       `gorm:"not null;uniqueIndex:idx_group_user_date" json:"group_id"`
	UserID     uint       `gorm:"not null;uniqueIndex:idx_group_user_date" json:"user_id"`
	Date       time.Time  `gorm:"type:date;not null;uniqueIndex:idx_group_user_date" json:"date"`
	PlayerID   int64      `gorm:"not null" json:"player_id"`
	PlayerName string     `gorm:"not null" json:"player_name"`
	GameID     string     `json:"game_id"` // resolved lazily when the box score is found
	Status     PickStatus `gorm:"not null;default:picked" json:"status"`
	LockedAt   *time.Time `json:"locked_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`

	Group  *Group      `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	User   *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Result *PickResult `gorm:"foreignKey:PickID" json:"result,omitempty"`
}

func (Pick) TableName() string {
	return "picks"
}

// PickResult is the frozen outcome of scoring one pick. Created exactly once;
// repeated score-day calls return this row unchanged.
type PickResult struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	PickID     uint           `gorm:"uniqueIndex;not null" json:"pick_id"`
	Score      float64        `gorm:"not null" json:"score"`
	Breakdown  datatypes.JSON `gorm:"not null" json:"breakdown"`
	ComputedAt time.Time      `gorm:"autoCreateTime" json:"computed_at"`
}

func (PickResult) TableName() string {
	return "pick_results"
}
