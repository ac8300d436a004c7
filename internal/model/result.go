package model

import "time"

// VoteTally is the outcome of one voting round
type VoteTally struct {
	Counts     map[string]int `json:"counts" bson:"counts"` // target player id -> votes
	Abstained  int            `json:"abstained" bson:"abstained"`
	MaxVotes   int            `json:"maxVotes" bson:"maxVotes"`
	Eliminated string         `json:"eliminated,omitempty" bson:"eliminated,omitempty"`
}

// ResultPlayer is a player's final state in an archived game
type ResultPlayer struct {
	PlayerID          string `json:"playerId" bson:"playerId"`
	Nickname          string `json:"nickname" bson:"nickname"`
	Role              Role   `json:"role" bson:"role"`
	Alive             bool   `json:"alive" bson:"alive"`
	CompletedAllTasks bool   `json:"completedAllTasks" bson:"completedAllTasks"`
}

// GameResult is the archived summary of a finished session
type GameResult struct {
	SessionID  string         `json:"sessionId" bson:"_id"`
	Code       string         `json:"code" bson:"code"`
	Winner     Winner         `json:"winner" bson:"winner"`
	Players    []ResultPlayer `json:"players" bson:"players"`
	StartedAt  time.Time      `json:"startedAt" bson:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt" bson:"finishedAt"`
}

// NewGameResult summarises a finished session for the archive
func NewGameResult(s *Session) *GameResult {
	r := &GameResult{
		SessionID: s.ID,
		Code:      s.Code,
		Winner:    s.Winner,
		StartedAt: s.CreatedAt,
	}
	if s.FinishedAt != nil {
		r.FinishedAt = *s.FinishedAt
	}
	for _, p := range s.Players {
		r.Players = append(r.Players, ResultPlayer{
			PlayerID:          p.ID,
			Nickname:          p.Nickname,
			Role:              p.Role,
			Alive:             p.Alive,
			CompletedAllTasks: p.CompletedAllTasks,
		})
	}
	return r
}
