package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bookmarks/bookmarks/internal/config"
	"github.com/bookmarks/bookmarks/internal/repository"
	"github.com/bookmarks/bookmarks/internal/services"
	"github.com/bookmarks/bookmarks/internal/workers"
	"github.com/bookmarks/bookmarks/pkg/cache"
	"github.com/bookmarks/bookmarks/pkg/logger"
	"github.com/bookmarks/bookmarks/pkg/queue"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logger.NewLogger(cfg.Log.Level)
	logger.Info("Starting Bookmarks Worker...")

	db, err := repository.NewDatabase(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	redisClient := cache.NewRedisClient(
		cfg.Redis.Addr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
		cfg.Redis.MinIdleConns,
	)
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := redisClient.Ping(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}

	consumer := queue.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.BookmarkEvents, cfg.Kafka.GroupID)

	imageRepo := repository.NewImageRepository(db.DB)
	counter := services.NewViewCounter(redisClient, logger)

	reconciler := services.NewRankingReconciler(counter, imageRepo, logger)
	worker := workers.NewEventWorker(imageRepo, counter, consumer, logger)

	if cfg.Images.PruneInterval > 0 {
		go reconciler.StartPruneJob(ctx, cfg.Images.PruneInterval)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := worker.Start(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("Event worker stopped with error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-done:
	}

	logger.Info("Shutting down worker...")
	cancel()
	<-done

	if err := worker.Stop(); err != nil {
		logger.WithError(err).Error("Failed to stop event worker")
	}

	logger.Info("Worker exited")
}
