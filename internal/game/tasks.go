package game

import (
	"amongirl/internal/model"
	"fmt"
	"sort"
	"strconv"
)

// TaskPool is the immutable catalog split into the common task, the rotation
// pool and the fallback task.
type TaskPool struct {
	Common   model.CatalogTask
	Rotation []model.CatalogTask
	Fallback model.CatalogTask
}

// NewTaskPool partitions catalog entries by kind and checks that the pool can
// serve k rotation tasks per player.
func NewTaskPool(catalog []model.CatalogTask, k int) (*TaskPool, error) {
	var (
		pool                     TaskPool
		haveCommon, haveFallback bool
		seen                     = make(map[string]bool)
	)
	for _, t := range catalog {
		if t.TaskID == "" {
			return nil, New(CodeInvalidConfiguration, "catalog task without id")
		}
		if seen[t.TaskID] {
			return nil, New(CodeInvalidConfiguration, fmt.Sprintf("duplicate catalog task %q", t.TaskID))
		}
		seen[t.TaskID] = true

		switch t.Kind {
		case model.TaskCommon:
			if haveCommon {
				return nil, New(CodeInvalidConfiguration, "catalog has more than one common task")
			}
			pool.Common, haveCommon = t, true
		case model.TaskFallback:
			if haveFallback {
				return nil, New(CodeInvalidConfiguration, "catalog has more than one fallback task")
			}
			pool.Fallback, haveFallback = t, true
		case model.TaskRotation:
			pool.Rotation = append(pool.Rotation, t)
		default:
			return nil, New(CodeInvalidConfiguration, fmt.Sprintf("catalog task %q has unknown kind %q", t.TaskID, t.Kind))
		}
	}

	if !haveCommon {
		return nil, New(CodeMissingCommonTask, "catalog has no common task")
	}
	if len(pool.Rotation) < k {
		return nil, WithMetadata(CodeInsufficientTaskPool,
			fmt.Sprintf("rotation pool has %d tasks, need %d", len(pool.Rotation), k),
			map[string]string{"have": strconv.Itoa(len(pool.Rotation)), "need": strconv.Itoa(k)})
	}
	if !haveFallback {
		return nil, New(CodeInvalidConfiguration, "catalog has no fallback task")
	}
	return &pool, nil
}

// FallbackTask returns a fresh, uncompleted copy of the fallback task.
func (p *TaskPool) FallbackTask() model.Task {
	return newTask(p.Fallback)
}

// AssignTasks gives every player the common task plus k distinct rotation
// tasks, drawn independently per player and sorted by task order.
func (r Rules) AssignTasks(pool *TaskPool, players []model.Player, rng Rand) ([]model.Player, error) {
	k := r.TasksPerPlayer
	if len(pool.Rotation) < k {
		return nil, New(CodeInsufficientTaskPool, "rotation pool smaller than tasks per player")
	}

	out := make([]model.Player, len(players))
	copy(out, players)

	draw := make([]model.CatalogTask, len(pool.Rotation))
	for i := range out {
		copy(draw, pool.Rotation)
		rng.Shuffle(len(draw), func(a, b int) {
			draw[a], draw[b] = draw[b], draw[a]
		})

		tasks := make([]model.Task, 0, k+1)
		tasks = append(tasks, newTask(pool.Common))
		for _, t := range draw[:k] {
			tasks = append(tasks, newTask(t))
		}
		SortTasks(tasks)

		out[i].Tasks = tasks
		out[i].CompletedAllTasks = false
	}
	return out, nil
}

// SortTasks orders tasks by the numeric suffix of their ids ("task_2" before
// "task_10"). Ids without a numeric suffix go last, ordered by id.
func SortTasks(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		ni, oki := taskOrder(tasks[i].TaskID)
		nj, okj := taskOrder(tasks[j].TaskID)
		switch {
		case oki && okj && ni != nj:
			return ni < nj
		case oki != okj:
			return oki
		default:
			return tasks[i].TaskID < tasks[j].TaskID
		}
	})
}

func taskOrder(id string) (int, bool) {
	end := len(id)
	start := end
	for start > 0 && id[start-1] >= '0' && id[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0, false
	}
	n, err := strconv.Atoi(id[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func newTask(t model.CatalogTask) model.Task {
	return model.Task{TaskID: t.TaskID, Name: t.Name}
}

// CompleteTask marks a player's task done with its proof reference and
// recomputes CompletedAllTasks.
func CompleteTask(p *model.Player, taskID, proofRef string) error {
	idx := -1
	for i := range p.Tasks {
		if p.Tasks[i].TaskID == taskID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return New(CodeNotFound, fmt.Sprintf("task %q not assigned to player %s", taskID, p.ID))
	}
	if p.Tasks[idx].Completed {
		return New(CodeTaskAlreadyCompleted, fmt.Sprintf("task %q already completed", taskID))
	}
	p.Tasks[idx].Completed = true
	p.Tasks[idx].ProofRef = proofRef
	p.CompletedAllTasks = allCompleted(p.Tasks)
	return nil
}

func allCompleted(tasks []model.Task) bool {
	if len(tasks) == 0 {
		return false
	}
	for _, t := range tasks {
		if !t.Completed {
			return false
		}
	}
	return true
}
