package models

import "time"

// TargetKind tags the entity an Action points at.
type TargetKind string

const (
	TargetUser  TargetKind = "user"
	TargetImage TargetKind = "image"
)

func (k TargetKind) Valid() bool {
	switch k {
	case TargetUser, TargetImage:
		return true
	}
	return false
}

// Target is a weak reference: the entity may be gone by the time it is read.
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   uint       `json:"id"`
}

const (
	VerbFollowing  = "is following"
	VerbLikes      = "likes"
	VerbBookmarked = "bookmarked image"
)

type Action struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	ActorID    uint        `json:"actor_id" gorm:"not null;index"`
	Verb       string      `json:"verb" gorm:"size:255;not null"`
	TargetKind *TargetKind `json:"target_kind" gorm:"size:16;index:idx_actions_target"`
	TargetID   *uint       `json:"target_id" gorm:"index:idx_actions_target"`
	CreatedAt  time.Time   `json:"created_at" gorm:"autoCreateTime:false;not null;default:now();index:idx_actions_created,sort:desc"`

	Actor User `json:"actor" gorm:"foreignKey:ActorID;constraint:OnDelete:CASCADE"`

	// Target holds the resolved *User or *Image, or nil when absent or dangling.
	Target interface{} `json:"target" gorm:"-"`
}

// Ref returns the action's target reference, if it has one.
func (a *Action) Ref() (Target, bool) {
	if a.TargetKind == nil || a.TargetID == nil {
		return Target{}, false
	}
	return Target{Kind: *a.TargetKind, ID: *a.TargetID}, true
}

func (Action) TableName() string {
	return "actions"
}
