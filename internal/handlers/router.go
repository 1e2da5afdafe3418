package handlers

import (
	"github.com/bookmarks/bookmarks/internal/middleware"
	"github.com/gin-gonic/gin"
)

type Router struct {
	Users     *UserHandler
	Images    *ImageHandler
	Feed      *FeedHandler
	JWT       *middleware.JWTConfig
	MediaRoot string
	MediaPath string
}

func cors(c *gin.Context) {
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if c.Request.Method == "OPTIONS" {
		c.AbortWithStatus(204)
		return
	}

	c.Next()
}

// Engine builds the gin engine with every route mounted.
func (r *Router) Engine() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), cors)

	router.GET("/health", Health)
	router.GET("/metrics", Metrics)
	if r.MediaRoot != "" && r.MediaPath != "" {
		router.Static(r.MediaPath, r.MediaRoot)
	}

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.Users.Register)
			auth.POST("/login", r.Users.Login)
		}

		api.GET("/images/:id/:slug", r.Images.Detail)

		protected := api.Group("")
		protected.Use(middleware.NewJWTAuth(r.JWT))
		{
			protected.GET("/dashboard", r.Feed.Dashboard)
			protected.PUT("/account/profile", r.Users.UpdateProfile)

			protected.GET("/users", r.Users.List)
			protected.POST("/users/follow", r.Users.Follow)
			protected.GET("/users/:username", r.Users.Detail)
			protected.GET("/users/:username/followers", r.Users.GetFollowers)
			protected.GET("/users/:username/following", r.Users.GetFollowing)

			protected.POST("/images", r.Images.Create)
			protected.GET("/images", r.Images.List)
			protected.POST("/images/like", r.Images.Like)
			protected.GET("/images/ranking", r.Images.Ranking)
			protected.DELETE("/images/:id", r.Images.Delete)
		}
	}

	return router
}
