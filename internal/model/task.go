package model

// TaskKind places a catalog entry in the task pool
type TaskKind string

const (
	TaskCommon   TaskKind = "common"   // Assigned to every player
	TaskRotation TaskKind = "rotation" // Drawn at random per player
	TaskFallback TaskKind = "fallback" // Replaces an eliminated player's unfinished list
)

// CatalogTask is one entry of the task catalog
type CatalogTask struct {
	TaskID string   `json:"taskId" bson:"taskId"`
	Name   string   `json:"name" bson:"name"`
	Kind   TaskKind `json:"kind" bson:"kind"`
}

// Task is a player's copy of a catalog task
type Task struct {
	TaskID    string `json:"taskId" bson:"taskId"`
	Name      string `json:"name" bson:"name"`
	Completed bool   `json:"completed" bson:"completed"`
	ProofRef  string `json:"proofRef,omitempty" bson:"proofRef,omitempty"` // Opaque, owned by the proof uploader
}

// Proof is a completed task with its proof reference, for host review
type Proof struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
	TaskID   string `json:"taskId"`
	TaskName string `json:"taskName"`
	ProofRef string `json:"proofRef"`
}
