package model

import "time"

type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// CanTransitionTo reports whether the lifecycle allows moving from p to target.
func (p Phase) CanTransitionTo(target Phase) bool {
	switch p {
	case PhaseWaiting:
		return target == PhasePlaying
	case PhasePlaying:
		return target == PhaseFinished
	default:
		return false
	}
}

type Winner string

const (
	WinnerNone      Winner = ""
	WinnerImposters Winner = "imposters"
	WinnerCrewmates Winner = "crewmates"
	WinnerSnitch    Winner = "snitch"
)

// Valid reports whether w names one of the three possible winners.
func (w Winner) Valid() bool {
	return w == WinnerImposters || w == WinnerCrewmates || w == WinnerSnitch
}

type SabotageStatus string

const (
	SabotageIdle     SabotageStatus = "idle"
	SabotageOngoing  SabotageStatus = "ongoing"
	SabotageCooldown SabotageStatus = "cooldown"
)

// SabotageState is Idle, Ongoing (since StartedAt) or Cooldown (until CooldownUntil).
type SabotageState struct {
	Status        SabotageStatus `json:"status" bson:"status"`
	StartedAt     *time.Time     `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	CooldownUntil *time.Time     `json:"cooldownUntil,omitempty" bson:"cooldownUntil,omitempty"`
}

type MeetingStatus string

const (
	MeetingNormal MeetingStatus = "normal"
	MeetingCalled MeetingStatus = "called"
	MeetingVoting MeetingStatus = "voting"
)

// MeetingState is Normal, MeetingCalled or Voting (until VotingEndsAt).
// VotingEndsAt is only set while Status is MeetingVoting.
type MeetingState struct {
	Status       MeetingStatus `json:"status" bson:"status"`
	VotingEndsAt *time.Time    `json:"votingEndsAt,omitempty" bson:"votingEndsAt,omitempty"`
}

// Session is one play-through shared by every device in the group.
type Session struct {
	ID            string        `json:"id" bson:"_id"`
	Code          string        `json:"code" bson:"code"`
	HostID        string        `json:"hostId" bson:"hostId"`
	Phase         Phase         `json:"phase" bson:"phase"`
	Players       []Player      `json:"players" bson:"players"`
	ImposterCount int           `json:"imposterCount" bson:"imposterCount"`
	SnitchEnabled bool          `json:"snitchEnabled" bson:"snitchEnabled"`
	FallbackTask  *CatalogTask  `json:"fallbackTask,omitempty" bson:"fallbackTask,omitempty"` // Fixed at game start
	Sabotage      SabotageState `json:"sabotage" bson:"sabotage"`
	Meeting       MeetingState  `json:"meeting" bson:"meeting"`
	Winner        Winner        `json:"winner,omitempty" bson:"winner,omitempty"`
	Version       int64         `json:"version" bson:"version"`
	CreatedAt     time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt" bson:"updatedAt"`
	FinishedAt    *time.Time    `json:"finishedAt,omitempty" bson:"finishedAt,omitempty"`
}

// Player returns a pointer into s.Players for the given id, or nil.
func (s *Session) Player(id string) *Player {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}

// Clone returns a deep copy so a mutation can be discarded on failure.
func (s *Session) Clone() *Session {
	c := *s
	c.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		c.Players[i] = p.clone()
	}
	c.Sabotage.StartedAt = cloneTime(s.Sabotage.StartedAt)
	c.Sabotage.CooldownUntil = cloneTime(s.Sabotage.CooldownUntil)
	c.Meeting.VotingEndsAt = cloneTime(s.Meeting.VotingEndsAt)
	c.FinishedAt = cloneTime(s.FinishedAt)
	if s.FallbackTask != nil {
		t := *s.FallbackTask
		c.FallbackTask = &t
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
