package main

import (
	"amongirl/internal/config"
	"amongirl/internal/repository"
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// seed replaces the task catalog with the default task list
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	taskRepo := repository.NewTaskRepo(client.Database(cfg.MongoDB))
	tasks := repository.DefaultTasks()

	if err := taskRepo.ReplaceAll(ctx, tasks); err != nil {
		log.Fatalf("Failed to write task catalog: %v", err)
	}

	fmt.Printf("Successfully wrote %d tasks to %s.tasks\n", len(tasks), cfg.MongoDB)
}
