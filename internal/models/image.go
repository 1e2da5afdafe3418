package models

import (
	"time"
)

type Image struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"not null;index"`
	Title       string    `json:"title" gorm:"size:200;not null"`
	Slug        string    `json:"slug" gorm:"size:200;index"`
	URL         string    `json:"url" gorm:"size:2000;not null"`
	Media       string    `json:"media"`
	Description string    `json:"description" gorm:"type:text"`
	TotalLikes  int64     `json:"total_likes" gorm:"default:0;index:idx_images_total_likes,sort:desc"`
	CreatedAt   time.Time `json:"created_at" gorm:"index:idx_images_created,sort:desc"`

	User User `json:"user" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// ImageLike is a member of an image's liked-by set.
type ImageLike struct {
	ImageID   uint      `json:"image_id" gorm:"primaryKey;autoIncrement:false"`
	UserID    uint      `json:"user_id" gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time `json:"created_at"`

	Image Image `json:"-" gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE"`
	User  User  `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (Image) TableName() string {
	return "images"
}

func (ImageLike) TableName() string {
	return "image_likes"
}
