package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"kana-quiz-service/internal/app"
	"kana-quiz-service/internal/config"
	"kana-quiz-service/internal/dictionary"
	"kana-quiz-service/internal/generator"
	"kana-quiz-service/internal/infra/logger"
	"kana-quiz-service/internal/infra/memory"
	pgstore "kana-quiz-service/internal/infra/postgres"
	redisstore "kana-quiz-service/internal/infra/redis"
	sqlitestore "kana-quiz-service/internal/infra/sqlite"
	transport "kana-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	dict, err := loadDictionary(cfg)
	if err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	statsRepo, closeStats, err := openStatsRepository(ctx, cfg, redisClient)
	if err != nil {
		return err
	}
	defer closeStats()
	if cacheTTL := config.TTLDuration(cfg.Stats.CacheTTL, 0); cacheTTL > 0 {
		statsRepo = memory.NewStatsCache(statsRepo, cacheTTL)
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = redisstore.NewSessionStore(redisClient, redisTTL)
	} else {
		store = memory.NewSessionStore()
	}

	service := app.NewQuizService(store, generator.New(dict), app.NewStatsAggregator(statsRepo))

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     transport.NewRouter(service),
		ReadTimeout: 15 * time.Second,
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting quiz service", "port", finalPort, "symbols", dict.Len())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func loadDictionary(cfg config.Config) (*dictionary.Dictionary, error) {
	if cfg.Quiz.Dictionary == "" {
		return dictionary.Hiragana(), nil
	}
	dict, err := dictionary.Load(cfg.Quiz.Dictionary)
	if err != nil {
		return nil, fmt.Errorf("load dictionary: %w", err)
	}
	return dict, nil
}

// openStatsRepository picks the durable store: Postgres, then Redis, then
// SQLite, falling back to process memory.
func openStatsRepository(ctx context.Context, cfg config.Config, redisClient *redis.Client) (app.StatsRepository, func(), error) {
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("statistics stored in postgres")
		return pgstore.NewStatsStore(pool), pool.Close, nil
	case redisClient != nil:
		logger.Info("statistics stored in redis", "addr", cfg.Redis.Addr)
		return redisstore.NewStatsStore(redisClient), func() {}, nil
	case cfg.SQLite.Path != "":
		store, err := sqlitestore.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("statistics stored in sqlite", "path", cfg.SQLite.Path)
		return store, closer(store), nil
	}
	logger.Warn("no durable statistics store configured; using memory")
	return memory.NewStatsStore(), func() {}, nil
}

func closer(c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Warn("close failed", "err", err)
		}
	}
}
