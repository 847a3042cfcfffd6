package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"kana-quiz-service/internal/app"
	"kana-quiz-service/internal/dictionary"
	"kana-quiz-service/internal/domain"
	"kana-quiz-service/internal/generator"
	pgstore "kana-quiz-service/internal/infra/postgres"
	pgmigrations "kana-quiz-service/internal/infra/postgres/migrations"
	infraredis "kana-quiz-service/internal/infra/redis"
)

func TestSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	sessionStore := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	stats := app.NewStatsAggregator(pgstore.NewStatsStore(pool))
	service := app.NewQuizService(sessionStore, generator.New(dictionary.Hiragana()), stats)

	for round := 0; round < 2; round++ {
		progress, err := service.StartSession(ctx, "u1", domain.Tier2, domain.ModalityChoice)
		if err != nil {
			t.Fatalf("start round %d: %v", round, err)
		}
		if live, err := redisClient.Get(ctx, "quiz:session:u1").Result(); err != nil || live != progress.SessionID {
			t.Fatalf("expected liveness key, got %q err=%v", live, err)
		}
		for progress.Result == nil {
			answer := strconv.Itoa(progress.Question.CorrectIndex)
			outcome, err := service.SubmitAnswer(ctx, "u1", progress.Index, answer)
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
			progress = outcome.Progress
		}
		if progress.Result.Outcome != domain.StateCompleted || progress.Result.Score != 13 {
			t.Fatalf("unexpected result: %+v", progress.Result)
		}
	}

	got, err := service.GetStatistics(ctx, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if got.TotalGames != 2 || got.BestStreak != 2 || got.Tiers.Tier2.BestScore != 13 || got.Modalities.Choice.Total != 26 {
		t.Fatalf("unexpected stats: %+v", got)
	}
	if got.FirstPlayedAt.IsZero() || got.LastPlayedAt.Before(got.FirstPlayedAt) {
		t.Fatalf("unexpected timestamps: %+v", got)
	}

	history, err := service.GetHistory(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Result.Total != 13 || len(history[0].Result.Answers) != 13 {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	// Postgres may accept connections a moment after the port opens.
	var lastErr error
	for attempt := 0; attempt < 10; attempt++ {
		if lastErr = applyMigrations(ctx, dsn); lastErr == nil {
			return
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("migrate: %v", lastErr)
}

func applyMigrations(ctx context.Context, dsn string) error {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}
	_, err := migrator.Migrate(ctx)
	return err
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
