package game

import (
	"amongirl/internal/model"
	"errors"
	"testing"
	"time"
)

func votingSession(t *testing.T) *model.Session {
	t.Helper()
	s := playingSession(
		testPlayer{"a", model.RoleImposter},
		testPlayer{"b", model.RoleCrewmate},
		testPlayer{"c", model.RoleCrewmate},
		testPlayer{"d", model.RoleCrewmate},
	)
	if err := CallMeeting(s, "b"); err != nil {
		t.Fatalf("call meeting: %v", err)
	}
	if err := DefaultRules().StartVoting(s, testNow); err != nil {
		t.Fatalf("start voting: %v", err)
	}
	return s
}

func castVotes(t *testing.T, s *model.Session, votes map[string]string) {
	t.Helper()
	for voter, target := range votes {
		if err := SubmitVote(s, voter, target); err != nil {
			t.Fatalf("%s votes %s: %v", voter, target, err)
		}
	}
}

func TestMeetingTransitions(t *testing.T) {
	s := playingSession(testPlayer{"a", model.RoleImposter}, testPlayer{"b", model.RoleCrewmate})

	if err := EndMeeting(s); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("expected invalid phase ending a meeting that was never called, got %v", err)
	}
	if err := DefaultRules().StartVoting(s, testNow); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("expected invalid phase starting voting without a meeting, got %v", err)
	}

	if err := CallMeeting(s, "a"); err != nil {
		t.Fatalf("call meeting: %v", err)
	}
	if err := CallMeeting(s, "b"); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("expected invalid phase on second call, got %v", err)
	}
	if err := EndMeeting(s); err != nil {
		t.Fatalf("end meeting: %v", err)
	}
	if s.Meeting.Status != model.MeetingNormal {
		t.Fatalf("expected normal, got %s", s.Meeting.Status)
	}

	s.Players[1].Alive = false
	if err := CallMeeting(s, "b"); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("expected dead caller rejected, got %v", err)
	}
	if err := CallMeeting(s, "zz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected unknown caller rejected, got %v", err)
	}
}

func TestStartVotingSetsDeadline(t *testing.T) {
	s := votingSession(t)
	if s.Meeting.Status != model.MeetingVoting {
		t.Fatalf("expected voting, got %s", s.Meeting.Status)
	}
	if !s.Meeting.VotingEndsAt.Equal(testNow.Add(30 * time.Second)) {
		t.Fatalf("unexpected deadline %v", s.Meeting.VotingEndsAt)
	}
	if VotingExpired(s, testNow.Add(29*time.Second)) {
		t.Fatal("expired early")
	}
	if !VotingExpired(s, testNow.Add(30*time.Second)) {
		t.Fatal("not expired at the deadline")
	}
}

func TestEndVotingEliminatesLeader(t *testing.T) {
	s := votingSession(t)
	castVotes(t, s, map[string]string{
		"a": "b",
		"c": "b",
		"d": "a",
		"b": model.VoteAbstain,
	})

	tally, err := EndVoting(s)
	if err != nil {
		t.Fatalf("end voting: %v", err)
	}
	if tally.Eliminated != "b" || tally.MaxVotes != 2 || tally.Abstained != 1 {
		t.Fatalf("unexpected tally %+v", tally)
	}
	if s.Player("b").Alive {
		t.Fatal("b survived the vote")
	}
	for _, p := range s.Players {
		if p.Vote != "" {
			t.Fatalf("vote of %s not cleared", p.ID)
		}
	}
	if s.Meeting.Status != model.MeetingNormal || s.Meeting.VotingEndsAt != nil {
		t.Fatalf("meeting not reset: %+v", s.Meeting)
	}
}

func TestEndVotingNoElimination(t *testing.T) {
	tests := []struct {
		name  string
		votes map[string]string
	}{
		{
			name:  "tie",
			votes: map[string]string{"a": "b", "b": "a", "c": "a", "d": "b"},
		},
		{
			name: "all abstain",
			votes: map[string]string{
				"a": model.VoteAbstain,
				"b": model.VoteAbstain,
				"c": model.VoteAbstain,
				"d": model.VoteAbstain,
			},
		},
		{
			name:  "nobody voted",
			votes: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := votingSession(t)
			castVotes(t, s, tt.votes)

			tally, err := EndVoting(s)
			if err != nil {
				t.Fatalf("end voting: %v", err)
			}
			if tally.Eliminated != "" {
				t.Fatalf("expected no elimination, got %s", tally.Eliminated)
			}
			for _, p := range s.Players {
				if !p.Alive {
					t.Fatalf("%s died without a majority", p.ID)
				}
			}
		})
	}
}

func TestSubmitVoteRejections(t *testing.T) {
	s := votingSession(t)
	s.Players[3].Alive = false

	if err := SubmitVote(s, "a", "b"); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if err := SubmitVote(s, "a", "c"); !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("expected already voted, got %v", err)
	}
	if s.Player("a").Vote != "b" {
		t.Fatal("rejected vote replaced the first one")
	}
	if err := SubmitVote(s, "b", "b"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected self vote rejected, got %v", err)
	}
	if err := SubmitVote(s, "b", "d"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected vote for dead player rejected, got %v", err)
	}
	if err := SubmitVote(s, "b", "nobody"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected vote for unknown player rejected, got %v", err)
	}
	if err := SubmitVote(s, "d", "a"); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("expected dead voter rejected, got %v", err)
	}

	if _, err := EndVoting(s); err != nil {
		t.Fatalf("end voting: %v", err)
	}
	if err := SubmitVote(s, "c", "a"); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("expected vote outside voting rejected, got %v", err)
	}
}

func TestTallyIgnoresDeadVoters(t *testing.T) {
	s := votingSession(t)
	castVotes(t, s, map[string]string{"a": "b", "c": "d", "d": "b"})
	s.Players[3].Alive = false // d dies after voting

	tally := Tally(s)
	if tally.Counts["b"] != 1 {
		t.Fatalf("expected one counted vote for b, got %d", tally.Counts["b"])
	}
	// c voted for the now-dead d; b never voted
	if tally.Abstained != 2 {
		t.Fatalf("expected 2 abstentions, got %d", tally.Abstained)
	}
	if tally.Eliminated != "b" {
		t.Fatalf("expected b eliminated, got %q", tally.Eliminated)
	}
}

func TestEliminateAssignsFallback(t *testing.T) {
	s := playingSession(
		testPlayer{"a", model.RoleImposter},
		testPlayer{"b", model.RoleCrewmate},
		testPlayer{"c", model.RoleSnitch},
		testPlayer{"d", model.RoleCrewmate},
	)
	finishTasks(s.Player("d"))

	Eliminate(s, s.Player("b"))
	b := s.Player("b")
	if len(b.Tasks) != 1 || b.Tasks[0].TaskID != "task_99" || b.Tasks[0].Completed {
		t.Fatalf("expected open fallback task, got %+v", b.Tasks)
	}
	if b.CompletedAllTasks {
		t.Fatal("fallback player marked complete")
	}

	Eliminate(s, s.Player("c"))
	if tasks := s.Player("c").Tasks; len(tasks) != 1 || tasks[0].TaskID != "task_99" {
		t.Fatalf("snitch did not get the fallback: %+v", tasks)
	}

	Eliminate(s, s.Player("d"))
	if d := s.Player("d"); len(d.Tasks) != 2 || !d.CompletedAllTasks {
		t.Fatalf("finished crewmate lost their tasks: %+v", d)
	}

	Eliminate(s, s.Player("a"))
	if a := s.Player("a"); len(a.Tasks) != 2 {
		t.Fatalf("imposter task list replaced: %+v", a.Tasks)
	}
}

func TestFallbackCanBeCompletedWhileDead(t *testing.T) {
	s := playingSession(testPlayer{"a", model.RoleImposter}, testPlayer{"b", model.RoleCrewmate})
	if err := MarkSelfDead(s, "b"); err != nil {
		t.Fatalf("mark dead: %v", err)
	}
	if err := MarkSelfDead(s, "b"); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("expected second death rejected, got %v", err)
	}

	b := s.Player("b")
	if err := CompleteTask(b, "task_99", "proofs/b/garbage.jpg"); err != nil {
		t.Fatalf("complete fallback: %v", err)
	}
	if !b.CompletedAllTasks {
		t.Fatal("dead player with finished fallback not marked complete")
	}
}
