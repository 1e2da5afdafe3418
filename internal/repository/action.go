package repository

import (
	"context"
	"fmt"

	"github.com/bookmarks/bookmarks/internal/models"
	"gorm.io/gorm"
)

type ActionRepository struct {
	db *gorm.DB
}

func NewActionRepository(db *gorm.DB) *ActionRepository {
	return &ActionRepository{db: db}
}

// Create inserts the action; created_at comes back from the database default.
func (r *ActionRepository) Create(ctx context.Context, action *models.Action) error {
	if err := r.db.WithContext(ctx).Omit("Actor").Create(action).Error; err != nil {
		return fmt.Errorf("failed to create action: %w", err)
	}
	return nil
}

func (r *ActionRepository) RecentExcluding(ctx context.Context, actorID uint, limit int) ([]*models.Action, error) {
	var actions []*models.Action
	if err := r.db.WithContext(ctx).
		Preload("Actor.Profile").
		Where("actor_id <> ?", actorID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&actions).Error; err != nil {
		return nil, fmt.Errorf("failed to get recent actions: %w", err)
	}
	return actions, nil
}

func (r *ActionRepository) RecentByActors(ctx context.Context, actorIDs []uint, excludeID uint, limit int) ([]*models.Action, error) {
	var actions []*models.Action
	if len(actorIDs) == 0 {
		return actions, nil
	}
	if err := r.db.WithContext(ctx).
		Preload("Actor.Profile").
		Where("actor_id IN ? AND actor_id <> ?", actorIDs, excludeID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&actions).Error; err != nil {
		return nil, fmt.Errorf("failed to get actions by actors: %w", err)
	}
	return actions, nil
}
