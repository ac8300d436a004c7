package model

// CreateSessionRequest is the request body for creating a session
type CreateSessionRequest struct {
	HostNickname  string `json:"hostNickname"`
	ImposterCount int    `json:"imposterCount"`
	Snitch        bool   `json:"snitch"`
}

// JoinSessionRequest is the request body for joining by code
type JoinSessionRequest struct {
	Code     string `json:"code"`
	Nickname string `json:"nickname"`
}

// JoinResponse is returned when a player creates or joins a session
type JoinResponse struct {
	PlayerID string   `json:"playerId"`
	Session  *Session `json:"session"`
}

// PlayerRequest identifies the acting player
type PlayerRequest struct {
	PlayerID string `json:"playerId"`
}

// ImposterCountRequest is the host's lobby setting change
type ImposterCountRequest struct {
	PlayerID      string `json:"playerId"`
	ImposterCount int    `json:"imposterCount"`
}

// VoteRequest casts a vote for a player id or "abstain"
type VoteRequest struct {
	PlayerID string `json:"playerId"`
	TargetID string `json:"targetId"`
}

// CompleteTaskRequest marks a task done with its uploaded proof
type CompleteTaskRequest struct {
	PlayerID string `json:"playerId"`
	TaskID   string `json:"taskId"`
	ProofRef string `json:"proofRef"`
}

// EndGameRequest is the host's manual override
type EndGameRequest struct {
	PlayerID string `json:"playerId"`
	Winner   Winner `json:"winner"`
}

// VotingResult is returned when a voting round closes
type VotingResult struct {
	Session *Session  `json:"session"`
	Tally   VoteTally `json:"tally"`
}
