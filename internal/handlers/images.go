package handlers

import (
	"net/http"
	"strconv"

	"github.com/bookmarks/bookmarks/internal/middleware"
	"github.com/bookmarks/bookmarks/internal/services"
	"github.com/bookmarks/bookmarks/pkg/logger"
	"github.com/gin-gonic/gin"
)

type ImageHandler struct {
	images      *services.ImageService
	reconciler  *services.RankingReconciler
	rankingSize int
	logger      *logger.Logger
}

func NewImageHandler(images *services.ImageService, reconciler *services.RankingReconciler, rankingSize int, logger *logger.Logger) *ImageHandler {
	if rankingSize <= 0 {
		rankingSize = 10
	}
	return &ImageHandler{
		images:      images,
		reconciler:  reconciler,
		rankingSize: rankingSize,
		logger:      logger,
	}
}

type LikeRequest struct {
	ID     uint   `json:"id" binding:"required"`
	Action string `json:"action" binding:"required,oneof=like unlike"`
}

func (h *ImageHandler) Create(c *gin.Context) {
	var req services.CreateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	image, err := h.images.Create(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Image added successfully",
		"image":   image,
	})
}

func (h *ImageHandler) Detail(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		return
	}

	detail, err := h.images.Detail(c.Request.Context(), id, c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// List serves one page of images. A non-numeric page is treated as page 1.
func (h *ImageHandler) List(c *gin.Context) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil {
		page = 1
	}
	imagesOnly := c.Query("images_only") != ""

	result, err := h.images.List(c.Request.Context(), page, imagesOnly)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Like toggles the caller's like. Every failure is reported as
// {"status": "error"} with HTTP 200.
func (h *ImageHandler) Like(c *gin.Context) {
	var req LikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "error"})
		return
	}

	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	var err error
	if req.Action == "like" {
		err = h.images.Like(ctx, userID, req.ID)
	} else {
		err = h.images.Unlike(ctx, userID, req.ID)
	}
	if err != nil {
		h.logger.WithError(err).WithFields(map[string]interface{}{
			"user_id":  userID,
			"image_id": req.ID,
			"action":   req.Action,
		}).Warn("Like toggle failed")
		c.JSON(http.StatusOK, gin.H{"status": "error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *ImageHandler) Ranking(c *gin.Context) {
	images, err := h.reconciler.TopImages(c.Request.Context(), h.rankingSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"images": images})
}

func (h *ImageHandler) Delete(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		return
	}

	if err := h.images.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Image deleted successfully"})
}
