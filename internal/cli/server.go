package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"mathstory-attempt-service/internal/app"
	"mathstory-attempt-service/internal/config"
	"mathstory-attempt-service/internal/domain"
	"mathstory-attempt-service/internal/infra/grading"
	"mathstory-attempt-service/internal/infra/memory"
	pgloader "mathstory-attempt-service/internal/infra/postgres"
	redisinfra "mathstory-attempt-service/internal/infra/redis"
	transport "mathstory-attempt-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the attempt service",
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

	if cfg.Grader.URL == "" {
		return fmt.Errorf("grader url not configured")
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
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.MaterialLoader = memory.NewStaticMaterialLoader(sampleMaterials())
	if pool != nil {
		loader = pgloader.NewMaterialLoader(pool)
	}

	materialTTL := config.TTLDuration(cfg.Material.TTL, 10*time.Minute)
	var materials app.MaterialRepository
	if redisClient != nil {
		materials = redisinfra.NewMaterialRepository(redisClient, loader, materialTTL)
	} else {
		materials = memory.NewMaterialRepository(loader, materialTTL)
	}

	handoffTTL := config.TTLDuration(cfg.Handoff.TTL, 30*time.Minute)
	var handoff app.HandoffStore
	var attempts app.AttemptRepository
	if redisClient != nil {
		handoff = redisinfra.NewHandoffStore(redisClient, handoffTTL)
		attempts = redisinfra.NewAttemptStore(redisClient, redisTTL)
	} else {
		handoff = memory.NewHandoffStore()
		attempts = memory.NewAttemptStore()
	}

	graderTimeout := config.TTLDuration(cfg.Grader.Timeout, 15*time.Second)
	grader := grading.NewClient(cfg.Grader.URL, graderTimeout)

	service := app.NewAttemptService(attempts, materials, handoff, grader)
	wsHandler := transport.NewWSHandler(service)
	attemptHandler := transport.NewAttemptHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/attempts/stage", attemptHandler.Stage)
	mux.HandleFunc("/attempts/result", attemptHandler.Result)
	mux.HandleFunc("/attempts/progress", attemptHandler.Progress)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting attempt service on :%s", finalPort)
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

// sampleMaterials provides minimal demo quiz material; swap this loader with
// the document DB-backed one in production.
func sampleMaterials() map[string]domain.QuizMaterial {
	return map[string]domain.QuizMaterial{
		"quiz-1": {
			ID:      "quiz-1",
			Subject: "Maths",
			Topic:   "Arithmetic",
			Mode:    "practice",
			Questions: []domain.Question{
				{
					ID:      "q1",
					Kind:    domain.KindMultipleChoice,
					Prompt:  "What is 2 + 2?",
					Options: []string{"A. 3", "B. 4", "C. 5", "D. 22"},
					Hint:    "Count up two from two.",
				},
				{
					ID:     "q2",
					Kind:   domain.KindOpenAnswer,
					Prompt: "What is 6 x 7?",
				},
			},
		},
	}
}
