package handlers

import (
	"net/http"
	"time"

	"github.com/bookmarks/bookmarks/internal/middleware"
	"github.com/bookmarks/bookmarks/internal/models"
	"github.com/bookmarks/bookmarks/internal/services"
	"github.com/bookmarks/bookmarks/pkg/logger"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *services.UserService
	graph       *services.SocialGraph
	jwtSecret   string
	jwtExpire   time.Duration
	logger      *logger.Logger
}

func NewUserHandler(userService *services.UserService, graph *services.SocialGraph, jwtSecret string, jwtExpire time.Duration, logger *logger.Logger) *UserHandler {
	if jwtExpire <= 0 {
		jwtExpire = 24 * time.Hour
	}
	return &UserHandler{
		userService: userService,
		graph:       graph,
		jwtSecret:   jwtSecret,
		jwtExpire:   jwtExpire,
		logger:      logger,
	}
}

type FollowRequest struct {
	ID     uint   `json:"id" binding:"required"`
	Action string `json:"action" binding:"required,oneof=follow unfollow"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user,
	})
}

func (h *UserHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Username, h.jwtSecret, h.jwtExpire)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

func (h *UserHandler) List(c *gin.Context) {
	offset, limit := pagination(c)

	users, err := h.userService.ListActive(c.Request.Context(), offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":  users,
		"offset": offset,
		"limit":  limit,
	})
}

func (h *UserHandler) Detail(c *gin.Context) {
	user, ok := h.lookup(c)
	if !ok {
		return
	}

	stats, err := h.graph.Stats(c.Request.Context(), user.ID, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  user,
		"stats": stats,
	})
}

func (h *UserHandler) GetFollowers(c *gin.Context) {
	user, ok := h.lookup(c)
	if !ok {
		return
	}
	offset, limit := pagination(c)

	followers, err := h.graph.Followers(c.Request.Context(), user.ID, offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"followers": followers,
		"offset":    offset,
		"limit":     limit,
	})
}

func (h *UserHandler) GetFollowing(c *gin.Context) {
	user, ok := h.lookup(c)
	if !ok {
		return
	}
	offset, limit := pagination(c)

	following, err := h.graph.Following(c.Request.Context(), user.ID, offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"following": following,
		"offset":    offset,
		"limit":     limit,
	})
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// Follow toggles the follow edge. Every failure is reported as
// {"status": "error"} with HTTP 200.
func (h *UserHandler) Follow(c *gin.Context) {
	var req FollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "error"})
		return
	}

	ctx := c.Request.Context()
	followerID := middleware.GetUserID(c)

	var err error
	if req.Action == "follow" {
		err = h.graph.Follow(ctx, followerID, req.ID)
	} else {
		err = h.graph.Unfollow(ctx, followerID, req.ID)
	}
	if err != nil {
		h.logger.WithError(err).WithFields(map[string]interface{}{
			"follower_id": followerID,
			"followee_id": req.ID,
			"action":      req.Action,
		}).Warn("Follow toggle failed")
		c.JSON(http.StatusOK, gin.H{"status": "error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *UserHandler) lookup(c *gin.Context) (*models.User, bool) {
	user, err := h.userService.FindByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if user == nil || !user.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return nil, false
	}
	return user, true
}
