package main

import (
	"fmt"
	"os"

	"github.com/bookmarks/bookmarks/internal/config"
	"github.com/bookmarks/bookmarks/internal/repository"
	"github.com/bookmarks/bookmarks/internal/services"
	"github.com/bookmarks/bookmarks/pkg/cache"
	"github.com/bookmarks/bookmarks/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:          "bookmarksctl",
		Short:        "Administer a bookmarks deployment",
		SilenceUsage: true,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := connect(false)
			if err != nil {
				return err
			}
			defer env.close()

			if err := env.db.AutoMigrate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "log level for the command")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(rankingCmd)
}

// env holds the connections a command needs.
type env struct {
	db         *repository.Database
	redis      *cache.RedisClient
	counter    *services.ViewCounter
	reconciler *services.RankingReconciler
	logger     *logger.Logger
}

func (e *env) close() {
	if e.redis != nil {
		e.redis.Close()
	}
	e.db.Close()
}

func connect(withRedis bool) (*env, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	log := logger.NewLoggerWithOutput(level, os.Stderr)

	// Keep SQL logging quiet regardless of server mode.
	db, err := repository.NewDatabase(&cfg.Database, "release")
	if err != nil {
		return nil, err
	}
	e := &env{db: db, logger: log}
	if !withRedis {
		return e, nil
	}

	e.redis = cache.NewRedisClient(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB, 2, 0)
	e.counter = services.NewViewCounter(e.redis, log)
	e.reconciler = services.NewRankingReconciler(e.counter, repository.NewImageRepository(db.DB), log)
	return e, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
