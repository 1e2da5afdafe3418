package services

import (
	"context"

	"github.com/bookmarks/bookmarks/internal/models"
	"github.com/bookmarks/bookmarks/pkg/queue"
)

// The interfaces below are the slices of the repositories each service needs.

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	ListActive(ctx context.Context, offset, limit int) ([]*models.User, error)
}

type FollowStore interface {
	Create(ctx context.Context, edge *models.FollowEdge) (bool, error)
	Delete(ctx context.Context, followerID, followeeID uint) error
	FolloweeIDs(ctx context.Context, userID uint) ([]uint, error)
	GetFollowers(ctx context.Context, userID uint, offset, limit int) ([]*models.User, error)
	GetFollowing(ctx context.Context, userID uint, offset, limit int) ([]*models.User, error)
	CountFollowers(ctx context.Context, userID uint) (int64, error)
	CountFollowing(ctx context.Context, userID uint) (int64, error)
	IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error)
}

type ActionStore interface {
	Create(ctx context.Context, action *models.Action) error
	RecentExcluding(ctx context.Context, actorID uint, limit int) ([]*models.Action, error)
	RecentByActors(ctx context.Context, actorIDs []uint, excludeID uint, limit int) ([]*models.Action, error)
}

type ImageStore interface {
	Create(ctx context.Context, image *models.Image) error
	GetByID(ctx context.Context, id uint) (*models.Image, error)
	GetByIDAndSlug(ctx context.Context, id uint, slug string) (*models.Image, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.Image, error)
	ExistingIDs(ctx context.Context, ids []uint) ([]uint, error)
	List(ctx context.Context, offset, limit int) ([]*models.Image, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uint) error
	AddLike(ctx context.Context, imageID, userID uint) error
	RemoveLike(ctx context.Context, imageID, userID uint) error
	LikedBy(ctx context.Context, imageID uint) ([]*models.User, error)
	RefreshTotalLikes(ctx context.Context, imageID uint) error
}

type MediaStore interface {
	Fetch(ctx context.Context, sourceURL, name, ext string) (string, error)
	Remove(ref string) error
	URL(ref string) string
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event queue.Event) error
}
