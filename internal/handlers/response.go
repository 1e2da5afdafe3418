package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bookmarks/bookmarks/internal/services"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func errorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, services.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInactiveAccount):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrInvalidOperation),
		errors.Is(err, services.ErrInvalidImageURL),
		errors.Is(err, services.ErrImageUnavailable):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		c.Error(err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// pagination reads offset and limit query parameters, clamping limit to [1, 100].
func pagination(c *gin.Context) (int, int) {
	query := struct {
		Offset int `form:"offset"`
		Limit  int `form:"limit"`
	}{Limit: defaultPageLimit}
	if err := c.ShouldBindQuery(&query); err != nil {
		return 0, defaultPageLimit
	}
	if query.Offset < 0 {
		query.Offset = 0
	}
	if query.Limit > maxPageLimit {
		query.Limit = maxPageLimit
	}
	if query.Limit < 1 {
		query.Limit = 1
	}
	return query.Offset, query.Limit
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
