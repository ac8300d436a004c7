package model

type Role string

const (
	RoleNone     Role = ""
	RoleImposter Role = "imposter"
	RoleCrewmate Role = "crewmate"
	RoleSnitch   Role = "snitch"
)

// IsCrew reports whether the role plays for the crew side (crewmate or snitch).
func (r Role) IsCrew() bool {
	return r == RoleCrewmate || r == RoleSnitch
}

// VoteAbstain is the vote sentinel for "no elimination preference".
const VoteAbstain = "abstain"

// Player represents a participant in a session
type Player struct {
	ID                string `json:"id" bson:"id"`
	Nickname          string `json:"nickname" bson:"nickname"`
	IsHost            bool   `json:"isHost" bson:"isHost"`
	Role              Role   `json:"role,omitempty" bson:"role,omitempty"`
	Alive             bool   `json:"alive" bson:"alive"`
	Tasks             []Task `json:"tasks,omitempty" bson:"tasks,omitempty"`
	CompletedAllTasks bool   `json:"completedAllTasks" bson:"completedAllTasks"`
	Vote              string `json:"vote,omitempty" bson:"vote,omitempty"` // player id, VoteAbstain, or empty
}

// HasVoted reports whether the player cast a vote this round
func (p *Player) HasVoted() bool {
	return p.Vote != ""
}

func (p Player) clone() Player {
	if p.Tasks != nil {
		tasks := make([]Task, len(p.Tasks))
		copy(tasks, p.Tasks)
		p.Tasks = tasks
	}
	return p
}
