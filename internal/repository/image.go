package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bookmarks/bookmarks/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ImageRepository struct {
	db *gorm.DB
}

func NewImageRepository(db *gorm.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

func (r *ImageRepository) Create(ctx context.Context, image *models.Image) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(image).Error; err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	return nil
}

func (r *ImageRepository) GetByID(ctx context.Context, id uint) (*models.Image, error) {
	var image models.Image
	if err := r.db.WithContext(ctx).
		Preload("User").
		First(&image, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return &image, nil
}

// GetByIDAndSlug keys on both columns since slugs are not unique.
func (r *ImageRepository) GetByIDAndSlug(ctx context.Context, id uint, slug string) (*models.Image, error) {
	var image models.Image
	if err := r.db.WithContext(ctx).
		Preload("User").
		First(&image, "id = ? AND slug = ?", id, slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return &image, nil
}

// GetByIDs makes no promise about the order of the result.
func (r *ImageRepository) GetByIDs(ctx context.Context, ids []uint) ([]*models.Image, error) {
	var images []*models.Image
	if len(ids) == 0 {
		return images, nil
	}
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("id IN ?", ids).
		Find(&images).Error; err != nil {
		return nil, fmt.Errorf("failed to get images by IDs: %w", err)
	}
	return images, nil
}

func (r *ImageRepository) ExistingIDs(ctx context.Context, ids []uint) ([]uint, error) {
	var found []uint
	if len(ids) == 0 {
		return found, nil
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Image{}).
		Where("id IN ?", ids).
		Pluck("id", &found).Error; err != nil {
		return nil, fmt.Errorf("failed to check image IDs: %w", err)
	}
	return found, nil
}

func (r *ImageRepository) List(ctx context.Context, offset, limit int) ([]*models.Image, error) {
	var images []*models.Image
	if err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&images).Error; err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	return images, nil
}

func (r *ImageRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Image{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count images: %w", err)
	}
	return count, nil
}

func (r *ImageRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Image{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// AddLike is a set insert: a repeated like leaves a single row.
func (r *ImageRepository) AddLike(ctx context.Context, imageID, userID uint) error {
	like := &models.ImageLike{ImageID: imageID, UserID: userID}
	if err := r.db.WithContext(ctx).
		Omit("Image", "User").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(like).Error; err != nil {
		return fmt.Errorf("failed to add like: %w", err)
	}
	return nil
}

func (r *ImageRepository) RemoveLike(ctx context.Context, imageID, userID uint) error {
	if err := r.db.WithContext(ctx).
		Where("image_id = ? AND user_id = ?", imageID, userID).
		Delete(&models.ImageLike{}).Error; err != nil {
		return fmt.Errorf("failed to remove like: %w", err)
	}
	return nil
}

func (r *ImageRepository) LikedBy(ctx context.Context, imageID uint) ([]*models.User, error) {
	var users []*models.User
	if err := r.db.WithContext(ctx).
		Table("users").
		Joins("JOIN image_likes ON image_likes.user_id = users.id").
		Where("image_likes.image_id = ?", imageID).
		Order("image_likes.created_at DESC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to get image likes: %w", err)
	}
	return users, nil
}

// RefreshTotalLikes recounts the liked-by set into images.total_likes.
func (r *ImageRepository) RefreshTotalLikes(ctx context.Context, imageID uint) error {
	if err := r.db.WithContext(ctx).Model(&models.Image{}).
		Where("id = ?", imageID).
		UpdateColumn("total_likes",
			r.db.Model(&models.ImageLike{}).Select("COUNT(*)").Where("image_id = ?", imageID),
		).Error; err != nil {
		return fmt.Errorf("failed to refresh total likes: %w", err)
	}
	return nil
}
