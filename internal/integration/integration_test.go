package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/RobertYoung/quizmaster/internal/app"
	"github.com/RobertYoung/quizmaster/internal/domain"
	pgloader "github.com/RobertYoung/quizmaster/internal/infra/postgres"
	pgmigrations "github.com/RobertYoung/quizmaster/internal/infra/postgres/migrations"
	infraredis "github.com/RobertYoung/quizmaster/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestQuizNightEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuestionSet(t, ctx, pgURL, sampleSet())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	catalog := infraredis.NewSetCatalog(redisClient, pgloader.NewSetLoader(pool), 5*time.Minute)
	store := infraredis.NewSnapshotStore(redisClient, 0)

	service := app.NewHostService(catalog, store)
	if err := service.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}

	service.StartQuiz(ctx)
	service.DismissSectionIntro(ctx)
	alpha, _ := service.AddTeam(ctx, "Alpha")
	service.AddTeam(ctx, "Beta")
	snap := service.ToggleQuestionAward(ctx, alpha)
	if snap.Leaderboard[0].Score != 10 {
		t.Fatalf("expected Alpha on 10 points, got %+v", snap.Leaderboard)
	}
	service.NextQuestion(ctx)

	// A fresh service over the same Redis store behaves like a page reload.
	reloaded := app.NewHostService(catalog, store)
	if err := reloaded.Restore(ctx); err != nil {
		t.Fatalf("restore after reload: %v", err)
	}
	after := reloaded.Snapshot()
	if after.Progression.Status != domain.StatusPlaying || after.QuestionOrdinal != 2 {
		t.Fatalf("expected playing at ordinal 2 after reload, got %+v", after)
	}
	if len(after.Leaderboard) != 2 || after.Leaderboard[0].Team.Name != "Alpha" || after.Leaderboard[0].Score != 10 {
		t.Fatalf("expected scores to survive reload, got %+v", after.Leaderboard)
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

func seedQuestionSet(t *testing.T, ctx context.Context, dsn string, set domain.QuestionSet) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal set: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO question_sets (id, position, data) VALUES (?, ?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, set.ID, 0, string(data)); err != nil {
		t.Fatalf("insert question set: %v", err)
	}
}

func sampleSet() domain.QuestionSet {
	return domain.QuestionSet{
		ID:          "pub-quiz",
		Name:        "Pub Quiz",
		Description: "Integration fixture",
		Icon:        "🍺",
		Categories: []domain.Category{
			{
				ID:            "history",
				Name:          "History",
				Icon:          "📜",
				Color:         "#f59e0b",
				QuestionCount: 2,
				Questions: []domain.Question{
					{ID: "hist-1", CategoryID: "history", QuestionNumber: 1, Type: domain.QuestionTypeText, QuestionText: "First moon landing year?", Answer: "1969", Points: 10},
					{ID: "hist-2", CategoryID: "history", QuestionNumber: 2, Type: domain.QuestionTypeText, QuestionText: "Rome founded on how many hills?", Answer: "7", Points: 10},
				},
			},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
