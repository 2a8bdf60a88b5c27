package models

import "time"

type Group struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Code      string    `gorm:"uniqueIndex;not null" json:"code"` // 6-char invite code
	CreatedAt time.Time `json:"created_at"`

	Members []GroupMember `gorm:"foreignKey:GroupID" json:"members,omitempty"`
}

func (Group) TableName() string {
	return "groups"
}

type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	DisplayName string    `gorm:"not null" json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

type GroupMember struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	GroupID  uint      `gorm:"not null;uniqueIndex:idx_group_user" json:"group_id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_group_user" json:"user_id"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	Group *Group `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	User  *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (GroupMember) TableName() string {
	return "group_members"
}
