package game

import (
	"amongirl/internal/model"
	"fmt"
	"math"
	"strconv"
	"time"
)

// sabotageStatusAt folds an expired cooldown back into idle.
func sabotageStatusAt(s *model.SabotageState, now time.Time) model.SabotageStatus {
	if s.Status == model.SabotageCooldown && (s.CooldownUntil == nil || !now.Before(*s.CooldownUntil)) {
		return model.SabotageIdle
	}
	if s.Status == "" {
		return model.SabotageIdle
	}
	return s.Status
}

// TriggerSabotage moves Idle or an expired Cooldown to Ongoing.
func (r Rules) TriggerSabotage(s *model.Session, now time.Time) error {
	switch sabotageStatusAt(&s.Sabotage, now) {
	case model.SabotageOngoing:
		return New(CodeSabotageAlreadyOngoing, "sabotage already ongoing")
	case model.SabotageCooldown:
		remaining := s.Sabotage.CooldownUntil.Sub(now)
		secs := int(math.Ceil(remaining.Seconds()))
		return WithMetadata(CodeSabotageOnCooldown,
			fmt.Sprintf("sabotage on cooldown for %ds", secs),
			map[string]string{"remaining_seconds": strconv.Itoa(secs)})
	}

	started := now
	s.Sabotage = model.SabotageState{
		Status:    model.SabotageOngoing,
		StartedAt: &started,
	}
	return nil
}

// ResolveSabotage moves Ongoing to Cooldown(now + SabotageCooldown).
func (r Rules) ResolveSabotage(s *model.Session, now time.Time) error {
	if sabotageStatusAt(&s.Sabotage, now) != model.SabotageOngoing {
		return New(CodeInvalidPhase, "no sabotage to resolve")
	}
	if deadline, ok := r.SabotageDeadline(s); ok && !now.Before(deadline) {
		return New(CodeInvalidPhase, "sabotage window has elapsed")
	}
	until := now.Add(r.SabotageCooldown)
	s.Sabotage = model.SabotageState{
		Status:        model.SabotageCooldown,
		CooldownUntil: &until,
	}
	return nil
}

// SabotageDeadline returns when an ongoing sabotage is lost, if one is ongoing.
func (r Rules) SabotageDeadline(s *model.Session) (time.Time, bool) {
	if s.Sabotage.Status != model.SabotageOngoing || s.Sabotage.StartedAt == nil {
		return time.Time{}, false
	}
	return s.Sabotage.StartedAt.Add(r.SabotageWindow), true
}

// ApplySabotageTimeout ends the game in the imposters' favour when a sabotage
// has been ongoing for the whole window. It reports whether it changed s and
// is a no-op outside the playing phase or when no sabotage has expired.
func (r Rules) ApplySabotageTimeout(s *model.Session, now time.Time) bool {
	if s.Phase != model.PhasePlaying {
		return false
	}
	deadline, ok := r.SabotageDeadline(s)
	if !ok || now.Before(deadline) {
		return false
	}
	return Finish(s, model.WinnerImposters, now)
}
