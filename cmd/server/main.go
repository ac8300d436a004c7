package main

import (
	"amongirl/internal/cache"
	"amongirl/internal/config"
	"amongirl/internal/random"
	"amongirl/internal/repository"
	"amongirl/internal/service"
	"amongirl/internal/telemetry"
	"amongirl/internal/transport/rest"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	log.Println("started")
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	rules := cfg.Rules()
	log.Printf("Game rules:")
	log.Printf("  Tasks per player:  %d", rules.TasksPerPlayer)
	log.Printf("  Sabotage window:   %s", rules.SabotageWindow)
	log.Printf("  Sabotage cooldown: %s", rules.SabotageCooldown)
	log.Printf("  Voting duration:   %s", rules.VotingDuration)

	shutdownTracing, err := telemetry.Setup(ctx, "amongirl", cfg.OTelEndpoint)
	if err != nil {
		log.Fatal("Failed to set up tracing:", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()
	if cfg.OTelEndpoint != "" {
		log.Printf("Tracing to %s", cfg.OTelEndpoint)
	}

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(context.Background())

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr(),
	})
	defer rdb.Close()

	// Ping Redis
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize repositories
	taskRepo := repository.NewTaskRepo(db)
	var resultRepo repository.ResultRepo
	switch cfg.ResultStore {
	case "sqlite":
		archive, err := repository.OpenSQLiteResultRepo(cfg.SQLitePath)
		if err != nil {
			log.Fatal("Failed to open result archive:", err)
		}
		defer archive.Close()
		resultRepo = archive
		log.Printf("Archiving results to %s", cfg.SQLitePath)
	default:
		resultRepo = repository.NewResultRepo(db)
	}

	if cfg.SeedTasksOnStart {
		seeded, err := repository.SeedIfEmpty(ctx, taskRepo)
		if err != nil {
			log.Fatal("Failed to seed task catalog:", err)
		}
		if seeded {
			log.Println("Seeded default task catalog")
		}
	}

	// Initialize caches
	sessionStore := cache.NewSessionCache(rdb, cfg.SessionTTL)

	// Initialize services
	seed, err := random.NewSeed()
	if err != nil {
		log.Fatal("Failed to seed randomness:", err)
	}
	sessionSvc := service.NewSessionService(sessionStore, taskRepo, rules, random.NewLocked(seed))
	sessionSvc.SetMaxAttempts(cfg.CASMaxAttempts)
	sessionSvc.SetResultRepo(resultRepo)

	// Deadline timers for sabotage and voting
	watcher := service.NewDeadlineWatcher(ctx, sessionSvc)
	sessionSvc.SetWatcher(watcher)
	defer watcher.Stop()

	// Create router with container
	container := &rest.Container{
		SessionService: sessionSvc,
		Results:        resultRepo,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		log.Println("Endpoints:")
		log.Println("  POST /v1/sessions")
		log.Println("  POST /v1/sessions/join")
		log.Println("  GET  /v1/sessions/{id}")
		log.Println("  POST /v1/sessions/{id}/start")
		log.Println("  POST /v1/sessions/{id}/sabotage[/resolve|/timeout]")
		log.Println("  POST /v1/sessions/{id}/meeting[/end]")
		log.Println("  POST /v1/sessions/{id}/voting/{start|end|deadline}")
		log.Println("  POST /v1/sessions/{id}/votes")
		log.Println("  POST /v1/sessions/{id}/tasks/complete")
		log.Println("  POST /v1/sessions/{id}/dead")
		log.Println("  POST /v1/sessions/{id}/end")
		log.Println("  GET  /v1/sessions/{id}/proofs")
		log.Println("  GET  /v1/sessions/{id}/result")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
	stop()

	log.Println("Server exited")
}
