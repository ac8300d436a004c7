package game

import (
	"amongirl/internal/model"
	"time"
)

var testNow = time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

// testCatalog has one common task, five rotation tasks and the fallback.
func testCatalog() []model.CatalogTask {
	return []model.CatalogTask{
		{TaskID: "task_1", Name: "Submit Scan", Kind: model.TaskCommon},
		{TaskID: "task_2", Name: "Fix the Reactor", Kind: model.TaskRotation},
		{TaskID: "task_3", Name: "Fuel Engines", Kind: model.TaskRotation},
		{TaskID: "task_4", Name: "Clear Asteroids", Kind: model.TaskRotation},
		{TaskID: "task_10", Name: "Inspect Sample", Kind: model.TaskRotation},
		{TaskID: "task_11", Name: "Prime Shields", Kind: model.TaskRotation},
		{TaskID: "task_99", Name: "Empty Garbage", Kind: model.TaskFallback},
	}
}

type testPlayer struct {
	id   string
	role model.Role
}

// playingSession builds a started session; crew members get two open tasks.
func playingSession(players ...testPlayer) *model.Session {
	s := &model.Session{
		ID:           "s1",
		Code:         "ABC234",
		HostID:       players[0].id,
		Phase:        model.PhasePlaying,
		FallbackTask: &model.CatalogTask{TaskID: "task_99", Name: "Empty Garbage", Kind: model.TaskFallback},
		Sabotage:     model.SabotageState{Status: model.SabotageIdle},
		Meeting:      model.MeetingState{Status: model.MeetingNormal},
		Version:      1,
	}
	for _, p := range players {
		s.Players = append(s.Players, model.Player{
			ID:       p.id,
			Nickname: p.id,
			Role:     p.role,
			Alive:    true,
			Tasks: []model.Task{
				{TaskID: "task_1", Name: "Submit Scan"},
				{TaskID: "task_2", Name: "Fix the Reactor"},
			},
		})
	}
	return s
}

func finishTasks(p *model.Player) {
	for i := range p.Tasks {
		p.Tasks[i].Completed = true
	}
	p.CompletedAllTasks = true
}
