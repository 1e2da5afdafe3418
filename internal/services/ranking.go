package services

import (
	"context"
	"fmt"
	"time"

	"github.com/bookmarks/bookmarks/internal/models"
	"github.com/bookmarks/bookmarks/pkg/logger"
)

// pruneBatchSize caps the ids sent in one existence query.
const pruneBatchSize = 1000

// RankingReconciler joins the Redis ranking with image rows.
type RankingReconciler struct {
	counter *ViewCounter
	images  ImageStore
	logger  *logger.Logger
}

func NewRankingReconciler(counter *ViewCounter, images ImageStore, logger *logger.Logger) *RankingReconciler {
	return &RankingReconciler{
		counter: counter,
		images:  images,
		logger:  logger,
	}
}

// TopImages returns the n most viewed images in ranking order. Ranked IDs
// without an image row are skipped.
func (r *RankingReconciler) TopImages(ctx context.Context, n int) ([]*models.Image, error) {
	ids, err := r.counter.Top(ctx, n)
	if err != nil {
		return nil, err
	}

	found, err := r.images.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load ranked images: %w", err)
	}

	// GetByIDs does not keep the ranking order.
	byID := make(map[uint]*models.Image, len(found))
	for _, img := range found {
		byID[img.ID] = img
	}

	ranked := make([]*models.Image, 0, len(ids))
	for _, id := range ids {
		if img, ok := byID[id]; ok {
			ranked = append(ranked, img)
		}
	}
	return ranked, nil
}

// Prune removes counter entries for images that no longer exist and
// returns how many were removed.
func (r *RankingReconciler) Prune(ctx context.Context) (int, error) {
	ids, err := r.counter.Ranked(ctx)
	if err != nil {
		return 0, err
	}

	alive := make(map[uint]struct{}, len(ids))
	for start := 0; start < len(ids); start += pruneBatchSize {
		end := start + pruneBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		existing, err := r.images.ExistingIDs(ctx, ids[start:end])
		if err != nil {
			return 0, err
		}
		for _, id := range existing {
			alive[id] = struct{}{}
		}
	}

	removed := 0
	for _, id := range ids {
		if _, ok := alive[id]; ok {
			continue
		}
		if err := r.counter.Forget(ctx, id); err != nil {
			return removed, err
		}
		removed++
	}

	if removed > 0 {
		r.logger.WithField("removed", removed).Info("Pruned ranking entries of deleted images")
	}
	return removed, nil
}

// StartPruneJob runs Prune every interval until ctx is done.
func (r *RankingReconciler) StartPruneJob(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Ranking prune job stopped")
			return
		case <-ticker.C:
			if _, err := r.Prune(ctx); err != nil {
				r.logger.WithError(err).Error("Ranking prune job failed")
			}
		}
	}
}
