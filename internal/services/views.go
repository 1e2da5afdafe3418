package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/bookmarks/bookmarks/pkg/cache"
	"github.com/bookmarks/bookmarks/pkg/logger"
	"github.com/bookmarks/bookmarks/pkg/metrics"
)

const imageRankingKey = "image_ranking"

func imageViewsKey(imageID uint) string {
	return fmt.Sprintf("image:%d:views", imageID)
}

// ViewCounter keeps per-image view counts and the view ranking in Redis.
// Each view increments both in one MULTI/EXEC so they move together.
type ViewCounter struct {
	cache  *cache.RedisClient
	logger *logger.Logger
}

func NewViewCounter(cache *cache.RedisClient, logger *logger.Logger) *ViewCounter {
	return &ViewCounter{
		cache:  cache,
		logger: logger,
	}
}

// RecordView returns the image's view count after this view.
func (c *ViewCounter) RecordView(ctx context.Context, imageID uint) (int64, error) {
	member := strconv.FormatUint(uint64(imageID), 10)
	views, err := c.cache.IncrPaired(ctx, imageViewsKey(imageID), imageRankingKey, member)
	if err != nil {
		return 0, fmt.Errorf("failed to record view: %w", err)
	}
	metrics.ImageViews.Inc()
	return views, nil
}

func (c *ViewCounter) Views(ctx context.Context, imageID uint) (int64, error) {
	views, err := c.cache.GetInt64(ctx, imageViewsKey(imageID))
	if errors.Is(err, cache.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get views: %w", err)
	}
	return views, nil
}

// Top returns up to n image IDs by descending view score.
func (c *ViewCounter) Top(ctx context.Context, n int) ([]uint, error) {
	if n <= 0 {
		return []uint{}, nil
	}
	members, err := c.cache.ZRevRange(ctx, imageRankingKey, 0, int64(n-1))
	if err != nil {
		return nil, fmt.Errorf("failed to read ranking: %w", err)
	}
	return c.parseMembers(members), nil
}

// Ranked returns every image ID present in the ranking.
func (c *ViewCounter) Ranked(ctx context.Context) ([]uint, error) {
	members, err := c.cache.ZRange(ctx, imageRankingKey, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("failed to read ranking: %w", err)
	}
	return c.parseMembers(members), nil
}

// Forget drops the image's counter and ranking entry.
func (c *ViewCounter) Forget(ctx context.Context, imageID uint) error {
	member := strconv.FormatUint(uint64(imageID), 10)
	if err := c.cache.ForgetPaired(ctx, imageViewsKey(imageID), imageRankingKey, member); err != nil {
		return fmt.Errorf("failed to forget image %d: %w", imageID, err)
	}
	return nil
}

func (c *ViewCounter) parseMembers(members []string) []uint {
	ids := make([]uint, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			c.logger.WithField("member", m).Warn("Skipping malformed ranking member")
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids
}
