package services

import (
	"context"
	"fmt"

	"github.com/bookmarks/bookmarks/internal/models"
	"github.com/bookmarks/bookmarks/pkg/logger"
)

// SocialGraph owns the directed follow relation between users.
type SocialGraph struct {
	follows FollowStore
	users   UserStore
	actions *ActionLog
	logger  *logger.Logger
}

func NewSocialGraph(follows FollowStore, users UserStore, actions *ActionLog, logger *logger.Logger) *SocialGraph {
	return &SocialGraph{
		follows: follows,
		users:   users,
		actions: actions,
		logger:  logger,
	}
}

type FollowStats struct {
	Followers   int64 `json:"followers"`
	Following   int64 `json:"following"`
	IsFollowing bool  `json:"is_following"`
}

// Follow creates the edge if absent. Only a newly created edge records an
// "is following" action; following again is a no-op.
func (g *SocialGraph) Follow(ctx context.Context, followerID, followeeID uint) error {
	if followerID == followeeID {
		return fmt.Errorf("%w: cannot follow yourself", ErrInvalidOperation)
	}

	followee, err := g.users.GetByID(ctx, followeeID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if followee == nil {
		return fmt.Errorf("user %d: %w", followeeID, ErrNotFound)
	}

	edge := &models.FollowEdge{
		FollowerID: followerID,
		FolloweeID: followeeID,
	}
	created, err := g.follows.Create(ctx, edge)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	if _, err := g.actions.Record(ctx, followerID, models.VerbFollowing,
		&models.Target{Kind: models.TargetUser, ID: followeeID}); err != nil {
		return err
	}

	g.logger.WithFields(map[string]interface{}{
		"follower_id": followerID,
		"followee_id": followeeID,
	}).Info("User followed successfully")

	return nil
}

// Unfollow removes the edge; a missing edge is not an error.
func (g *SocialGraph) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	followee, err := g.users.GetByID(ctx, followeeID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if followee == nil {
		return fmt.Errorf("user %d: %w", followeeID, ErrNotFound)
	}

	if err := g.follows.Delete(ctx, followerID, followeeID); err != nil {
		return err
	}

	g.logger.WithFields(map[string]interface{}{
		"follower_id": followerID,
		"followee_id": followeeID,
	}).Info("User unfollowed successfully")

	return nil
}

func (g *SocialGraph) FolloweesOf(ctx context.Context, userID uint) ([]uint, error) {
	return g.follows.FolloweeIDs(ctx, userID)
}

func (g *SocialGraph) Followers(ctx context.Context, userID uint, offset, limit int) ([]*models.User, error) {
	return g.follows.GetFollowers(ctx, userID, offset, limit)
}

func (g *SocialGraph) Following(ctx context.Context, userID uint, offset, limit int) ([]*models.User, error) {
	return g.follows.GetFollowing(ctx, userID, offset, limit)
}

// Stats returns follower counts for userID as seen by viewerID.
func (g *SocialGraph) Stats(ctx context.Context, userID, viewerID uint) (*FollowStats, error) {
	followers, err := g.follows.CountFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	following, err := g.follows.CountFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &FollowStats{Followers: followers, Following: following}
	if viewerID != 0 && viewerID != userID {
		if stats.IsFollowing, err = g.follows.IsFollowing(ctx, viewerID, userID); err != nil {
			return nil, err
		}
	}
	return stats, nil
}
