package game

import (
	"amongirl/internal/model"
	"fmt"
	"time"
)

func meetingStatus(s *model.Session) model.MeetingStatus {
	if s.Meeting.Status == "" {
		return model.MeetingNormal
	}
	return s.Meeting.Status
}

func livingPlayer(s *model.Session, id string) (*model.Player, error) {
	p := s.Player(id)
	if p == nil {
		return nil, New(CodeNotFound, fmt.Sprintf("player %s not in session", id))
	}
	if !p.Alive {
		return nil, New(CodeInvalidPhase, fmt.Sprintf("player %s is dead", id))
	}
	return p, nil
}

// CallMeeting moves Normal to MeetingCalled. Any living player may call it.
func CallMeeting(s *model.Session, callerID string) error {
	if _, err := livingPlayer(s, callerID); err != nil {
		return err
	}
	if meetingStatus(s) != model.MeetingNormal {
		return New(CodeInvalidPhase, "a meeting is already in progress")
	}
	s.Meeting = model.MeetingState{Status: model.MeetingCalled}
	return nil
}

// EndMeeting dismisses a called meeting without a vote.
func EndMeeting(s *model.Session) error {
	if meetingStatus(s) != model.MeetingCalled {
		return New(CodeInvalidPhase, "no meeting to end")
	}
	s.Meeting = model.MeetingState{Status: model.MeetingNormal}
	return nil
}

// StartVoting moves MeetingCalled to Voting(now + VotingDuration).
func (r Rules) StartVoting(s *model.Session, now time.Time) error {
	if meetingStatus(s) != model.MeetingCalled {
		return New(CodeInvalidPhase, "voting requires a called meeting")
	}
	endsAt := now.Add(r.VotingDuration)
	s.Meeting = model.MeetingState{
		Status:       model.MeetingVoting,
		VotingEndsAt: &endsAt,
	}
	return nil
}

// SubmitVote records a living player's single vote for another living player
// or for abstain.
func SubmitVote(s *model.Session, voterID, target string) error {
	if meetingStatus(s) != model.MeetingVoting {
		return New(CodeInvalidPhase, "voting is not open")
	}
	voter, err := livingPlayer(s, voterID)
	if err != nil {
		return err
	}
	if voter.HasVoted() {
		return New(CodeAlreadyVoted, fmt.Sprintf("player %s already voted", voterID))
	}

	if target != model.VoteAbstain {
		if target == voterID {
			return New(CodeInvalidArgument, "players cannot vote for themselves")
		}
		t := s.Player(target)
		if t == nil || !t.Alive {
			return New(CodeInvalidArgument, fmt.Sprintf("vote target %q is not a living player", target))
		}
	}
	voter.Vote = target
	return nil
}

// Tally counts the votes of living players. Votes for dead or unknown players
// and missing votes count as abstentions.
func Tally(s *model.Session) model.VoteTally {
	tally := model.VoteTally{Counts: make(map[string]int)}
	for i := range s.Players {
		p := &s.Players[i]
		if !p.Alive {
			continue
		}
		if !p.HasVoted() || p.Vote == model.VoteAbstain {
			tally.Abstained++
			continue
		}
		if t := s.Player(p.Vote); t == nil || !t.Alive {
			tally.Abstained++
			continue
		}
		tally.Counts[p.Vote]++
	}

	leaders := 0
	for id, n := range tally.Counts {
		switch {
		case n > tally.MaxVotes:
			tally.MaxVotes = n
			tally.Eliminated = id
			leaders = 1
		case n == tally.MaxVotes:
			leaders++
		}
	}
	if leaders != 1 || tally.MaxVotes == 0 {
		tally.Eliminated = ""
	}
	return tally
}

// EndVoting tallies the round, eliminates a unique top vote-getter, clears
// every vote and returns to Normal. The caller runs the win check.
func EndVoting(s *model.Session) (model.VoteTally, error) {
	if meetingStatus(s) != model.MeetingVoting {
		return model.VoteTally{}, New(CodeInvalidPhase, "voting is not open")
	}

	tally := Tally(s)
	if tally.Eliminated != "" {
		Eliminate(s, s.Player(tally.Eliminated))
	}
	for i := range s.Players {
		s.Players[i].Vote = ""
	}
	s.Meeting = model.MeetingState{Status: model.MeetingNormal}
	return tally, nil
}

// VotingExpired reports whether the current voting round is past its deadline.
func VotingExpired(s *model.Session, now time.Time) bool {
	return meetingStatus(s) == model.MeetingVoting &&
		s.Meeting.VotingEndsAt != nil &&
		!now.Before(*s.Meeting.VotingEndsAt)
}

// Eliminate kills a player. A crewmate or snitch who had not finished their
// tasks gets the fallback task in place of their list.
func Eliminate(s *model.Session, p *model.Player) {
	p.Alive = false
	p.Vote = ""
	if p.Role.IsCrew() && !p.CompletedAllTasks && s.FallbackTask != nil {
		p.Tasks = []model.Task{newTask(*s.FallbackTask)}
		p.CompletedAllTasks = false
	}
}

// MarkSelfDead eliminates a living player outside of a vote.
func MarkSelfDead(s *model.Session, playerID string) error {
	p, err := livingPlayer(s, playerID)
	if err != nil {
		return err
	}
	Eliminate(s, p)
	return nil
}
