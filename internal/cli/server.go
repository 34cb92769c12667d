package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RobertYoung/quizmaster/internal/app"
	"github.com/RobertYoung/quizmaster/internal/config"
	"github.com/RobertYoung/quizmaster/internal/domain"
	fileloader "github.com/RobertYoung/quizmaster/internal/infra/file"
	"github.com/RobertYoung/quizmaster/internal/infra/memory"
	pgloader "github.com/RobertYoung/quizmaster/internal/infra/postgres"
	redisinfra "github.com/RobertYoung/quizmaster/internal/infra/redis"
	transport "github.com/RobertYoung/quizmaster/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quizmaster server",
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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	snapshotTTL := config.TTLDuration(cfg.Redis.TTL, 0)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	// Content precedence: Postgres, then a YAML directory, then the built-in
	// sample sets.
	var loader memory.SetLoader = memory.NewStaticSetLoader(sampleSets())
	if pool != nil {
		loader = pgloader.NewSetLoader(pool)
	} else if cfg.Content.Dir != "" {
		loader = fileloader.NewSetLoader(cfg.Content.Dir)
	}

	cacheTTL := config.TTLDuration(cfg.Content.CacheTTL, 10*time.Minute)
	var catalog app.SetCatalog
	if redisClient != nil {
		catalog = redisinfra.NewSetCatalog(redisClient, loader, cacheTTL)
	} else {
		catalog = memory.NewSetCatalog(loader, cacheTTL)
	}

	var store app.SnapshotStore
	if redisClient != nil {
		store = redisinfra.NewSnapshotStore(redisClient, snapshotTTL)
	} else {
		store = memory.NewSnapshotStore()
	}

	service := app.NewHostService(catalog, store)
	if err := service.Restore(ctx); err != nil {
		return err
	}
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quizmaster on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleSets is the built-in content used when no Postgres or content
// directory is configured; real quiz nights ship their own sets.
func sampleSets() []domain.QuestionSet {
	return []domain.QuestionSet{
		{
			ID:          "example-quiz",
			Name:        "Example Quiz",
			Description: "A short sample quiz to try out the presenter",
			Icon:        "🎲",
			Categories: []domain.Category{
				{
					ID:            "general",
					Name:          "General Knowledge",
					Icon:          "🧠",
					Color:         "#3b82f6",
					QuestionCount: 3,
					Questions: []domain.Question{
						{
							ID:             "general-1",
							CategoryID:     "general",
							QuestionNumber: 1,
							Type:           domain.QuestionTypeText,
							QuestionText:   "What is the largest planet in our solar system?",
							Answer:         "Jupiter",
							Points:         10,
						},
						{
							ID:                 "general-2",
							CategoryID:         "general",
							QuestionNumber:     2,
							Type:               domain.QuestionTypeMultipleChoice,
							QuestionText:       "Which of these is a primary color?",
							Answer:             "Blue",
							Points:             10,
							Options:            []string{"Green", "Blue", "Orange", "Purple"},
							CorrectOptionIndex: 1,
						},
						{
							ID:             "general-3",
							CategoryID:     "general",
							QuestionNumber: 3,
							Type:           domain.QuestionTypePicture,
							QuestionText:   "Which city is shown in this picture?",
							Answer:         "Paris",
							Points:         15,
							ImageURL:       "/images/example/paris.jpg",
							ImageAlt:       "A city skyline at dusk",
						},
					},
				},
				{
					ID:            "sports",
					Name:          "Sports",
					Icon:          "⚽",
					Color:         "#22c55e",
					QuestionCount: 2,
					Questions: []domain.Question{
						{
							ID:             "sports-1",
							CategoryID:     "sports",
							QuestionNumber: 1,
							Type:           domain.QuestionTypeText,
							QuestionText:   "How many players are on a football team on the pitch?",
							Answer:         "11",
							Points:         10,
							AcceptableAnswers: []string{
								"11",
								"eleven",
							},
						},
						{
							ID:             "sports-2",
							CategoryID:     "sports",
							QuestionNumber: 2,
							Type:           domain.QuestionTypeText,
							QuestionText:   "In which sport would you perform a slam dunk?",
							Answer:         "Basketball",
							Points:         10,
							FunFact:        "The first slam dunk in a professional game is credited to Joe Fortenberry in 1936.",
						},
					},
				},
			},
		},
	}
}
