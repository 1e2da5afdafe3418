package handlers

import (
	"net/http"

	"github.com/bookmarks/bookmarks/internal/middleware"
	"github.com/bookmarks/bookmarks/internal/services"
	"github.com/gin-gonic/gin"
)

type FeedHandler struct {
	feed *services.FeedAssembler
}

func NewFeedHandler(feed *services.FeedAssembler) *FeedHandler {
	return &FeedHandler{feed: feed}
}

func (h *FeedHandler) Dashboard(c *gin.Context) {
	actions, err := h.feed.Dashboard(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"actions": actions})
}
