package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bookmarks/bookmarks/internal/config"
	"github.com/bookmarks/bookmarks/internal/models"
	"github.com/bookmarks/bookmarks/pkg/logger"
	"github.com/bookmarks/bookmarks/pkg/queue"
)

type ImageService struct {
	images   ImageStore
	media    MediaStore
	actions  *ActionLog
	counter  *ViewCounter
	producer EventPublisher
	config   *config.ImagesConfig
	logger   *logger.Logger
}

func NewImageService(
	images ImageStore,
	media MediaStore,
	actions *ActionLog,
	counter *ViewCounter,
	producer EventPublisher,
	config *config.ImagesConfig,
	logger *logger.Logger,
) *ImageService {
	return &ImageService{
		images:   images,
		media:    media,
		actions:  actions,
		counter:  counter,
		producer: producer,
		config:   config,
		logger:   logger,
	}
}

type CreateImageRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	URL         string `json:"url" binding:"required,url,max=2000,imageurl"`
	Description string `json:"description"`
}

type ImageDetail struct {
	Image      *models.Image  `json:"image"`
	MediaURL   string         `json:"media_url"`
	TotalViews int64          `json:"total_views"`
	LikedBy    []*models.User `json:"liked_by"`
}

type ImagePage struct {
	Images   []*models.Image `json:"images"`
	Page     int             `json:"page"`
	NumPages int             `json:"num_pages"`
}

// Create bookmarks an external image for ownerID.
func (s *ImageService) Create(ctx context.Context, ownerID uint, req *CreateImageRequest) (*models.Image, error) {
	if !AllowedExtension(req.URL, s.config.AllowedExtensions) {
		return nil, ErrInvalidImageURL
	}

	// The slug names both the media file and the detail route.
	slug := Slugify(req.Title)
	if slug == "" {
		slug = "image"
	}

	ref, err := s.media.Fetch(ctx, req.URL, slug, ImageExtension(req.URL))
	if err != nil {
		s.logger.WithError(err).WithField("url", req.URL).Warn("Failed to fetch image")
		return nil, fmt.Errorf("%w: %v", ErrImageUnavailable, err)
	}

	image := &models.Image{
		UserID:      ownerID,
		Title:       req.Title,
		Slug:        slug,
		URL:         req.URL,
		Media:       ref,
		Description: req.Description,
	}
	if err := s.images.Create(ctx, image); err != nil {
		if rmErr := s.media.Remove(ref); rmErr != nil {
			s.logger.WithError(rmErr).Error("Failed to remove orphaned media file")
		}
		return nil, err
	}

	if _, err := s.actions.Record(ctx, ownerID, models.VerbBookmarked,
		&models.Target{Kind: models.TargetImage, ID: image.ID}); err != nil {
		s.logger.WithError(err).Error("Failed to record bookmark action")
	}

	s.logger.WithFields(map[string]interface{}{
		"image_id": image.ID,
		"user_id":  ownerID,
	}).Info("Image bookmarked successfully")

	return image, nil
}

// Detail looks an image up by id and slug and counts the view.
func (s *ImageService) Detail(ctx context.Context, id uint, slug string) (*ImageDetail, error) {
	image, err := s.images.GetByIDAndSlug(ctx, id, slug)
	if err != nil {
		return nil, err
	}
	if image == nil {
		return nil, fmt.Errorf("image %d: %w", id, ErrNotFound)
	}

	views, err := s.counter.RecordView(ctx, image.ID)
	if err != nil {
		return nil, err
	}

	likedBy, err := s.images.LikedBy(ctx, image.ID)
	if err != nil {
		return nil, err
	}

	return &ImageDetail{
		Image:      image,
		MediaURL:   s.media.URL(image.Media),
		TotalViews: views,
		LikedBy:    likedBy,
	}, nil
}

// List returns one page of images, newest first. A page outside the valid
// range yields the last page, or an empty page when imagesOnly is set.
func (s *ImageService) List(ctx context.Context, page int, imagesOnly bool) (*ImagePage, error) {
	size := s.config.PageSize
	if size <= 0 {
		size = 8
	}

	total, err := s.images.Count(ctx)
	if err != nil {
		return nil, err
	}
	numPages := int((total + int64(size) - 1) / int64(size))
	if numPages == 0 {
		numPages = 1
	}

	if page < 1 || page > numPages {
		if imagesOnly {
			return &ImagePage{Images: []*models.Image{}, Page: page, NumPages: numPages}, nil
		}
		page = numPages
	}

	images, err := s.images.List(ctx, (page-1)*size, size)
	if err != nil {
		return nil, err
	}
	return &ImagePage{Images: images, Page: page, NumPages: numPages}, nil
}

// Like adds userID to the image's liked-by set and records a "likes" action.
func (s *ImageService) Like(ctx context.Context, userID, imageID uint) error {
	if err := s.mustExist(ctx, imageID); err != nil {
		return err
	}

	if err := s.images.AddLike(ctx, imageID, userID); err != nil {
		return err
	}

	if _, err := s.actions.Record(ctx, userID, models.VerbLikes,
		&models.Target{Kind: models.TargetImage, ID: imageID}); err != nil {
		return err
	}

	s.likesChanged(ctx, userID, imageID)
	return nil
}

// Unlike removes userID from the liked-by set. No action is recorded.
func (s *ImageService) Unlike(ctx context.Context, userID, imageID uint) error {
	if err := s.mustExist(ctx, imageID); err != nil {
		return err
	}

	if err := s.images.RemoveLike(ctx, imageID, userID); err != nil {
		return err
	}

	s.likesChanged(ctx, userID, imageID)
	return nil
}

// Delete removes an image owned by userID.
func (s *ImageService) Delete(ctx context.Context, userID, imageID uint) error {
	image, err := s.images.GetByID(ctx, imageID)
	if err != nil {
		return err
	}
	if image == nil {
		return fmt.Errorf("image %d: %w", imageID, ErrNotFound)
	}
	if image.UserID != userID {
		return ErrPermissionDenied
	}

	if err := s.images.Delete(ctx, imageID); err != nil {
		return err
	}

	if err := s.media.Remove(image.Media); err != nil {
		s.logger.WithError(err).Error("Failed to remove media file")
	}

	if err := s.publish(ctx, queue.EventImageDeleted, userID, imageID); err != nil {
		s.logger.WithError(err).Error("Failed to publish image deleted event")
		if err := s.counter.Forget(ctx, imageID); err != nil {
			s.logger.WithError(err).Error("Failed to drop view counter of deleted image")
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"image_id": imageID,
		"user_id":  userID,
	}).Info("Image deleted successfully")
	return nil
}

// RefreshTotalLikes recounts the denormalised like counter.
func (s *ImageService) RefreshTotalLikes(ctx context.Context, imageID uint) error {
	return s.images.RefreshTotalLikes(ctx, imageID)
}

func (s *ImageService) mustExist(ctx context.Context, imageID uint) error {
	image, err := s.images.GetByID(ctx, imageID)
	if err != nil {
		return err
	}
	if image == nil {
		return fmt.Errorf("image %d: %w", imageID, ErrNotFound)
	}
	return nil
}

// likesChanged hands the total_likes recount to the worker, doing it inline
// when the event cannot be published.
func (s *ImageService) likesChanged(ctx context.Context, userID, imageID uint) {
	if err := s.publish(ctx, queue.EventImageLikesChanged, userID, imageID); err != nil {
		s.logger.WithError(err).Error("Failed to publish likes changed event")
		if err := s.images.RefreshTotalLikes(ctx, imageID); err != nil {
			s.logger.WithError(err).Error("Failed to refresh total likes")
		}
	}
}

func (s *ImageService) publish(ctx context.Context, eventType queue.EventType, userID, imageID uint) error {
	event, err := queue.NewEvent(eventType, queue.ImageEventData{ImageID: imageID, UserID: userID})
	if err != nil {
		return err
	}
	return s.producer.Publish(ctx, strconv.FormatUint(uint64(imageID), 10), event)
}
