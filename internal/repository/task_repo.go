package repository

import (
	"amongirl/internal/model"
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TaskCatalog is the read-only source of the task pool
type TaskCatalog interface {
	LoadAll(ctx context.Context) ([]model.CatalogTask, error)
}

// TaskRepo handles MongoDB operations for the task catalog
type TaskRepo interface {
	TaskCatalog
	ReplaceAll(ctx context.Context, tasks []model.CatalogTask) error
	Count(ctx context.Context) (int64, error)
}

type taskRepo struct {
	collection *mongo.Collection
}

// NewTaskRepo creates a new task repository
func NewTaskRepo(db *mongo.Database) TaskRepo {
	return &taskRepo{
		collection: db.Collection("tasks"),
	}
}

func (r *taskRepo) LoadAll(ctx context.Context) ([]model.CatalogTask, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "taskId", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tasks []model.CatalogTask
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ReplaceAll swaps the whole catalog; used by the seed tool between games
func (r *taskRepo) ReplaceAll(ctx context.Context, tasks []model.CatalogTask) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return err
	}
	if len(tasks) == 0 {
		return nil
	}
	docs := make([]interface{}, len(tasks))
	for i, t := range tasks {
		docs[i] = t
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

func (r *taskRepo) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
