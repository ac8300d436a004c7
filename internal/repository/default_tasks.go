package repository

import (
	"amongirl/internal/model"
	"context"
)

// DefaultTasks is the stock catalog written by the seed tool
func DefaultTasks() []model.CatalogTask {
	return []model.CatalogTask{
		{TaskID: "task_1", Name: "Submit Scan", Kind: model.TaskCommon},
		{TaskID: "task_2", Name: "Fix the Reactor", Kind: model.TaskRotation},
		{TaskID: "task_3", Name: "Fuel Engines", Kind: model.TaskRotation},
		{TaskID: "task_4", Name: "Clear Asteroids", Kind: model.TaskRotation},
		{TaskID: "task_5", Name: "Inspect Sample", Kind: model.TaskRotation},
		{TaskID: "task_6", Name: "Calibrate Distributor", Kind: model.TaskRotation},
		{TaskID: "task_7", Name: "Align Engine Output", Kind: model.TaskRotation},
		{TaskID: "task_8", Name: "Prime Shields", Kind: model.TaskRotation},
		{TaskID: "task_9", Name: "Start Reactor", Kind: model.TaskRotation},
		{TaskID: "task_10", Name: "Empty Garbage", Kind: model.TaskFallback},
	}
}

// StaticCatalog serves a fixed task list without a database
type StaticCatalog []model.CatalogTask

func (c StaticCatalog) LoadAll(ctx context.Context) ([]model.CatalogTask, error) {
	out := make([]model.CatalogTask, len(c))
	copy(out, c)
	return out, nil
}

// SeedIfEmpty writes the default catalog when the collection has no tasks.
// It reports whether anything was written.
func SeedIfEmpty(ctx context.Context, repo TaskRepo) (bool, error) {
	n, err := repo.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	return true, repo.ReplaceAll(ctx, DefaultTasks())
}
