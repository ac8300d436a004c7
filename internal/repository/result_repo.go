package repository

import (
	"amongirl/internal/model"
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ResultRepo archives finished games
type ResultRepo interface {
	Save(ctx context.Context, result *model.GameResult) error
	GetBySessionID(ctx context.Context, sessionID string) (*model.GameResult, error)
}

type resultRepo struct {
	collection *mongo.Collection
}

// NewResultRepo creates a new result repository
func NewResultRepo(db *mongo.Database) ResultRepo {
	return &resultRepo{
		collection: db.Collection("results"),
	}
}

// Save upserts by session id so a repeated archive of the same game is harmless
func (r *resultRepo) Save(ctx context.Context, result *model.GameResult) error {
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": result.SessionID},
		result,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (r *resultRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.GameResult, error) {
	var result model.GameResult
	err := r.collection.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&result)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}
