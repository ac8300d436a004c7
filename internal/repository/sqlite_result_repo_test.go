package repository

import (
	"amongirl/internal/model"
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestArchive(t *testing.T) *SQLiteResultRepo {
	t.Helper()
	repo, err := OpenSQLiteResultRepo(filepath.Join(t.TempDir(), "data", "results.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteResultRepoSaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := openTestArchive(t)

	started := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	result := &model.GameResult{
		SessionID:  "s1",
		Code:       "ABC234",
		Winner:     model.WinnerImposters,
		StartedAt:  started,
		FinishedAt: started.Add(12 * time.Minute),
		Players: []model.ResultPlayer{
			{PlayerID: "p_1", Nickname: "host", Role: model.RoleImposter, Alive: true},
			{PlayerID: "p_2", Nickname: "bob", Role: model.RoleCrewmate, CompletedAllTasks: true},
		},
	}
	if err := repo.Save(ctx, result); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.GetBySessionID(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("archived result not found")
	}
	if got.Winner != model.WinnerImposters || got.Code != "ABC234" {
		t.Fatalf("unexpected result %+v", got)
	}
	if !got.StartedAt.Equal(result.StartedAt) || !got.FinishedAt.Equal(result.FinishedAt) {
		t.Fatalf("timestamps changed: %v %v", got.StartedAt, got.FinishedAt)
	}
	if len(got.Players) != 2 || got.Players[1].Nickname != "bob" || !got.Players[1].CompletedAllTasks {
		t.Fatalf("unexpected players %+v", got.Players)
	}
}

func TestSQLiteResultRepoUpsert(t *testing.T) {
	ctx := context.Background()
	repo := openTestArchive(t)

	result := &model.GameResult{SessionID: "s1", Code: "ABC234", Winner: model.WinnerCrewmates}
	if err := repo.Save(ctx, result); err != nil {
		t.Fatalf("save: %v", err)
	}
	result.Winner = model.WinnerSnitch
	if err := repo.Save(ctx, result); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := repo.GetBySessionID(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Winner != model.WinnerSnitch {
		t.Fatalf("expected the second save to win, got %q", got.Winner)
	}
}

func TestSQLiteResultRepoMissing(t *testing.T) {
	repo := openTestArchive(t)
	got, err := repo.GetBySessionID(context.Background(), "nope")
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil for a missing result, got %+v %v", got, err)
	}
}

func TestOpenSQLiteResultRepoRequiresPath(t *testing.T) {
	if _, err := OpenSQLiteResultRepo("  "); err == nil {
		t.Fatal("expected an error for an empty path")
	}
}
