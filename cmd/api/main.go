package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/bookmarks/bookmarks/internal/config"
	"github.com/bookmarks/bookmarks/internal/handlers"
	"github.com/bookmarks/bookmarks/internal/middleware"
	"github.com/bookmarks/bookmarks/internal/models"
	"github.com/bookmarks/bookmarks/internal/repository"
	"github.com/bookmarks/bookmarks/internal/services"
	"github.com/bookmarks/bookmarks/pkg/cache"
	"github.com/bookmarks/bookmarks/pkg/logger"
	"github.com/bookmarks/bookmarks/pkg/media"
	"github.com/bookmarks/bookmarks/pkg/queue"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logger.NewLogger(cfg.Log.Level)
	logger.Info("Starting Bookmarks API server...")

	db, err := repository.NewDatabase(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		logger.WithError(err).Fatal("Failed to migrate database")
	}

	redisClient := cache.NewRedisClient(
		cfg.Redis.Addr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
		cfg.Redis.MinIdleConns,
	)
	defer redisClient.Close()

	ctx := context.Background()
	if err := redisClient.Ping(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}

	producer := queue.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.BookmarkEvents)
	defer producer.Close()

	mediaStore := media.NewStore(cfg.Media.Root, cfg.Media.BaseURL, cfg.Images.DownloadTimeout)

	userRepo := repository.NewUserRepository(db.DB)
	followRepo := repository.NewFollowRepository(db.DB)
	actionRepo := repository.NewActionRepository(db.DB)
	imageRepo := repository.NewImageRepository(db.DB)

	resolvers := map[models.TargetKind]services.TargetResolver{
		models.TargetUser:  services.UserTargets(userRepo),
		models.TargetImage: services.ImageTargets(imageRepo),
	}

	userService := services.NewUserService(userRepo, logger)
	actionLog := services.NewActionLog(actionRepo, resolvers, producer, logger)
	graph := services.NewSocialGraph(followRepo, userRepo, actionLog, logger)
	feed := services.NewFeedAssembler(graph, actionLog, &cfg.Feed, logger)
	counter := services.NewViewCounter(redisClient, logger)
	reconciler := services.NewRankingReconciler(counter, imageRepo, logger)
	imageService := services.NewImageService(imageRepo, mediaStore, actionLog, counter, producer, &cfg.Images, logger)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := handlers.RegisterValidators(cfg.Images.AllowedExtensions); err != nil {
		logger.WithError(err).Fatal("Failed to register validators")
	}

	router := &handlers.Router{
		Users:     handlers.NewUserHandler(userService, graph, cfg.JWT.Secret, cfg.JWT.ExpireTime, logger),
		Images:    handlers.NewImageHandler(imageService, reconciler, cfg.Images.RankingSize, logger),
		Feed:      handlers.NewFeedHandler(feed),
		JWT:       &middleware.JWTConfig{Secret: cfg.JWT.Secret, Users: userService},
		MediaRoot: cfg.Media.Root,
	}
	// Only serve media ourselves when it lives under a local path.
	if strings.HasPrefix(cfg.Media.BaseURL, "/") {
		router.MediaPath = strings.TrimSuffix(cfg.Media.BaseURL, "/")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func init() {
	for _, dir := range []string{"configs", "media"} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Printf("Failed to create directory %s: %v", dir, err)
		}
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = filepath.Join("configs", "config.yaml")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := createDefaultConfig(configPath); err != nil {
			log.Printf("Failed to create default config: %v", err)
		}
	}
}

func createDefaultConfig(path string) error {
	defaultConfig := `server:
  port: ":8080"
  mode: "debug"
  read_timeout: 30s
  write_timeout: 30s

database:
  host: "localhost"
  port: 5432
  user: "bookmarks"
  password: "bookmarks"
  dbname: "bookmarks"
  sslmode: "disable"
  max_open_conns: 50
  max_idle_conns: 10

redis:
  host: "localhost"
  port: 6379
  password: ""
  db: 0
  pool_size: 50
  min_idle_conns: 5

kafka:
  brokers:
    - "localhost:9092"
  topics:
    bookmark_events: "bookmark-events"
  group_id: "bookmarks-worker-group"

jwt:
  secret: "` + uuid.NewString() + `"
  expire_time: 24h

feed:
  limit: 10

images:
  page_size: 8
  ranking_size: 10
  allowed_extensions: ["jpg", "jpeg", "png"]
  download_timeout: 15s
  prune_interval: 1h

media:
  root: "media"
  base_url: "/media/"

log:
  level: "info"
`

	return os.WriteFile(path, []byte(defaultConfig), 0600)
}
