package services

import (
	"context"
	"fmt"

	"github.com/bookmarks/bookmarks/internal/config"
	"github.com/bookmarks/bookmarks/internal/models"
	"github.com/bookmarks/bookmarks/pkg/logger"
	"github.com/bookmarks/bookmarks/pkg/metrics"
)

const defaultFeedLimit = 10

// FeedAssembler builds a viewer's dashboard from the action log at read time.
type FeedAssembler struct {
	graph   *SocialGraph
	actions *ActionLog
	limit   int
	logger  *logger.Logger
}

func NewFeedAssembler(graph *SocialGraph, actions *ActionLog, cfg *config.FeedConfig, logger *logger.Logger) *FeedAssembler {
	limit := cfg.Limit
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	return &FeedAssembler{
		graph:   graph,
		actions: actions,
		limit:   limit,
		logger:  logger,
	}
}

// Dashboard returns at most limit actions, newest first. Viewers who follow
// nobody get the global stream; the viewer's own actions never appear.
func (f *FeedAssembler) Dashboard(ctx context.Context, viewerID uint) ([]*models.Action, error) {
	followees, err := f.graph.FolloweesOf(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get followees: %w", err)
	}

	if len(followees) == 0 {
		metrics.FeedRequest("global")
		return f.actions.RecentExcluding(ctx, viewerID, f.limit)
	}

	metrics.FeedRequest("followees")
	return f.actions.RecentByActors(ctx, followees, viewerID, f.limit)
}
