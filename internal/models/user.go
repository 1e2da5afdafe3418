package models

import (
	"time"
)

type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"uniqueIndex;size:150;not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"`
	FirstName string    `json:"first_name" gorm:"size:150"`
	LastName  string    `json:"last_name" gorm:"size:150"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Profile *Profile `json:"profile,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

type Profile struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UserID      uint       `json:"user_id" gorm:"uniqueIndex;not null"`
	DateOfBirth *time.Time `json:"date_of_birth" gorm:"type:date"`
	Photo       string     `json:"photo"`
}

// FollowEdge is a directed follow relation; at most one row per ordered pair.
type FollowEdge struct {
	FollowerID uint      `json:"follower_id" gorm:"primaryKey;autoIncrement:false"`
	FolloweeID uint      `json:"followee_id" gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt  time.Time `json:"created_at" gorm:"index:idx_follows_created,sort:desc"`

	Follower User `json:"-" gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE"`
	Followee User `json:"-" gorm:"foreignKey:FolloweeID;constraint:OnDelete:CASCADE"`
}

func (User) TableName() string {
	return "users"
}

func (Profile) TableName() string {
	return "profiles"
}

func (FollowEdge) TableName() string {
	return "follows"
}
