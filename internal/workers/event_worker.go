package workers

import (
	"context"
	"fmt"

	"github.com/bookmarks/bookmarks/internal/services"
	"github.com/bookmarks/bookmarks/pkg/logger"
	"github.com/bookmarks/bookmarks/pkg/metrics"
	"github.com/bookmarks/bookmarks/pkg/queue"
)

// EventSource is the consuming side of the bookmark event topic.
type EventSource interface {
	Subscribe(ctx context.Context, handler func(context.Context, queue.Event) error, onError func(error)) error
	Close() error
}

// LikeCounter recounts the denormalised like total of an image.
type LikeCounter interface {
	RefreshTotalLikes(ctx context.Context, imageID uint) error
}

// ViewForgetter drops an image from the view counter and ranking.
type ViewForgetter interface {
	Forget(ctx context.Context, imageID uint) error
}

// EventWorker applies the deferred side effects of bookmark events.
type EventWorker struct {
	likes    LikeCounter
	views    ViewForgetter
	consumer EventSource
	logger   *logger.Logger
}

func NewEventWorker(likes LikeCounter, views ViewForgetter, consumer EventSource, logger *logger.Logger) *EventWorker {
	return &EventWorker{
		likes:    likes,
		views:    views,
		consumer: consumer,
		logger:   logger,
	}
}

// Start blocks until ctx is cancelled or the consumer fails.
func (w *EventWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting event worker...")

	return w.consumer.Subscribe(ctx, w.Handle, func(err error) {
		metrics.EventsFailed.Inc()
		w.logger.WithError(err).Error("Failed to process event")
	})
}

func (w *EventWorker) Stop() error {
	w.logger.Info("Stopping event worker...")
	return w.consumer.Close()
}

// Handle dispatches a single event. Unknown types are skipped.
func (w *EventWorker) Handle(ctx context.Context, event queue.Event) error {
	w.logger.WithFields(map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.Type,
		"timestamp":  event.Timestamp,
	}).Debug("Processing event")

	var err error
	switch event.Type {
	case queue.EventImageLikesChanged:
		err = w.handleLikesChanged(ctx, event)
	case queue.EventImageDeleted:
		err = w.handleImageDeleted(ctx, event)
	case queue.EventActionRecorded:
		err = w.handleActionRecorded(event)
	default:
		w.logger.WithField("event_type", event.Type).Warn("Unknown event type")
		return nil
	}
	if err != nil {
		return err
	}

	metrics.EventsProcessed.Inc()
	return nil
}

func (w *EventWorker) handleLikesChanged(ctx context.Context, event queue.Event) error {
	var data queue.ImageEventData
	if err := event.Decode(&data); err != nil {
		return err
	}
	if data.ImageID == 0 {
		return fmt.Errorf("missing image_id in event data")
	}

	if err := w.likes.RefreshTotalLikes(ctx, data.ImageID); err != nil {
		return fmt.Errorf("failed to refresh total likes of image %d: %w", data.ImageID, err)
	}
	return nil
}

func (w *EventWorker) handleImageDeleted(ctx context.Context, event queue.Event) error {
	var data queue.ImageEventData
	if err := event.Decode(&data); err != nil {
		return err
	}
	if data.ImageID == 0 {
		return fmt.Errorf("missing image_id in event data")
	}

	if err := w.views.Forget(ctx, data.ImageID); err != nil {
		return err
	}

	w.logger.WithField("image_id", data.ImageID).Info("Dropped views of deleted image")
	return nil
}

func (w *EventWorker) handleActionRecorded(event queue.Event) error {
	var data queue.ActionEventData
	if err := event.Decode(&data); err != nil {
		return err
	}

	w.logger.WithFields(map[string]interface{}{
		"action_id": data.ActionID,
		"actor_id":  data.ActorID,
		"verb":      data.Verb,
	}).Debug("Action recorded")
	return nil
}

// Compile-time checks against the concrete services.
var (
	_ LikeCounter   = (*services.ImageService)(nil)
	_ ViewForgetter = (*services.ViewCounter)(nil)
	_ EventSource   = (*queue.KafkaConsumer)(nil)
)
