package game

import (
	"amongirl/internal/model"
	"fmt"
	"time"
)

// EvaluateWinner returns the winner implied by the roster, or WinnerNone.
// Rules are checked in priority order: imposter parity, no imposters left,
// every crew member done with their tasks. Only a playing session can have
// a rule-based winner.
func EvaluateWinner(s *model.Session) model.Winner {
	if s.Phase != model.PhasePlaying {
		return model.WinnerNone
	}

	var aliveImposters, aliveCrew int
	allCrewDone := true
	for i := range s.Players {
		p := &s.Players[i]
		switch {
		case p.Role == model.RoleImposter:
			if p.Alive {
				aliveImposters++
			}
		case p.Role.IsCrew():
			if p.Alive {
				aliveCrew++
			}
			if !p.CompletedAllTasks {
				allCrewDone = false
			}
		}
	}

	switch {
	case aliveImposters >= aliveCrew && aliveCrew > 0:
		return model.WinnerImposters
	case aliveImposters == 0:
		return model.WinnerCrewmates
	case allCrewDone:
		return model.WinnerCrewmates
	}
	return model.WinnerNone
}

// Finish sets the winner and moves the session to finished. The winner is
// set once: it reports false and leaves s untouched if the session is not
// playing.
func Finish(s *model.Session, w model.Winner, now time.Time) bool {
	if !s.Phase.CanTransitionTo(model.PhaseFinished) || s.Winner != model.WinnerNone || !w.Valid() {
		return false
	}
	finished := now
	s.Winner = w
	s.Phase = model.PhaseFinished
	s.FinishedAt = &finished
	return true
}

// CheckWin applies an expired sabotage first, then the roster rules.
// It reports whether the session finished.
func (r Rules) CheckWin(s *model.Session, now time.Time) bool {
	if r.ApplySabotageTimeout(s, now) {
		return true
	}
	if w := EvaluateWinner(s); w != model.WinnerNone {
		return Finish(s, w, now)
	}
	return false
}

// EndGameManually forces a winner, bypassing rule evaluation.
func EndGameManually(s *model.Session, w model.Winner, now time.Time) error {
	if !w.Valid() {
		return New(CodeInvalidArgument, fmt.Sprintf("unknown winner %q", w))
	}
	if s.Phase != model.PhasePlaying {
		return New(CodeInvalidPhase, fmt.Sprintf("cannot end a game in phase %s", s.Phase))
	}
	Finish(s, w, now)
	return nil
}
