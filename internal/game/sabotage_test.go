package game

import (
	"amongirl/internal/model"
	"errors"
	"testing"
	"time"
)

func TestSabotageLifecycle(t *testing.T) {
	rules := DefaultRules()
	s := playingSession(testPlayer{"a", model.RoleImposter}, testPlayer{"b", model.RoleCrewmate}, testPlayer{"c", model.RoleCrewmate})

	if err := rules.TriggerSabotage(s, testNow); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if s.Sabotage.Status != model.SabotageOngoing || !s.Sabotage.StartedAt.Equal(testNow) {
		t.Fatalf("unexpected state after trigger: %+v", s.Sabotage)
	}

	if err := rules.TriggerSabotage(s, testNow.Add(time.Second)); !errors.Is(err, ErrSabotageAlreadyOngoing) {
		t.Fatalf("expected already ongoing, got %v", err)
	}

	resolvedAt := testNow.Add(20 * time.Second)
	if err := rules.ResolveSabotage(s, resolvedAt); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.Sabotage.Status != model.SabotageCooldown || !s.Sabotage.CooldownUntil.Equal(resolvedAt.Add(120*time.Second)) {
		t.Fatalf("unexpected state after resolve: %+v", s.Sabotage)
	}
	if s.Sabotage.StartedAt != nil {
		t.Fatal("StartedAt kept after resolve")
	}

	if err := rules.ResolveSabotage(s, resolvedAt.Add(time.Second)); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("expected invalid phase on second resolve, got %v", err)
	}

	// Cooldown is exclusive of its end
	if err := rules.TriggerSabotage(s, resolvedAt.Add(120*time.Second)); err != nil {
		t.Fatalf("trigger after cooldown: %v", err)
	}
}

func TestTriggerDuringCooldown(t *testing.T) {
	rules := DefaultRules()
	s := playingSession(testPlayer{"a", model.RoleImposter}, testPlayer{"b", model.RoleCrewmate})
	until := testNow.Add(45 * time.Second)
	s.Sabotage = model.SabotageState{Status: model.SabotageCooldown, CooldownUntil: &until}

	err := rules.TriggerSabotage(s, testNow.Add(500*time.Millisecond))
	if !errors.Is(err, ErrSabotageOnCooldown) {
		t.Fatalf("expected on cooldown, got %v", err)
	}
	var gameErr *Error
	errors.As(err, &gameErr)
	if got := gameErr.Metadata["remaining_seconds"]; got != "45" {
		t.Fatalf("expected 45 remaining seconds, got %q", got)
	}
	if s.Sabotage.Status != model.SabotageCooldown {
		t.Fatal("failed trigger changed state")
	}
}

func TestSabotageTimeout(t *testing.T) {
	rules := DefaultRules()
	s := playingSession(testPlayer{"a", model.RoleImposter}, testPlayer{"b", model.RoleCrewmate}, testPlayer{"c", model.RoleCrewmate})
	if err := rules.TriggerSabotage(s, testNow); err != nil {
		t.Fatalf("trigger: %v", err)
	}

	if rules.ApplySabotageTimeout(s, testNow.Add(59*time.Second)) {
		t.Fatal("timeout applied before the window elapsed")
	}
	if s.Phase != model.PhasePlaying {
		t.Fatalf("phase changed early: %s", s.Phase)
	}

	if !rules.ApplySabotageTimeout(s, testNow.Add(60*time.Second)) {
		t.Fatal("timeout not applied at the deadline")
	}
	if s.Phase != model.PhaseFinished || s.Winner != model.WinnerImposters {
		t.Fatalf("expected imposters to win, got phase %s winner %q", s.Phase, s.Winner)
	}

	// Idempotent
	if rules.ApplySabotageTimeout(s, testNow.Add(61*time.Second)) {
		t.Fatal("timeout applied twice")
	}
}

func TestResolveAfterWindowRejected(t *testing.T) {
	rules := DefaultRules()
	s := playingSession(testPlayer{"a", model.RoleImposter}, testPlayer{"b", model.RoleCrewmate})
	if err := rules.TriggerSabotage(s, testNow); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if err := rules.ResolveSabotage(s, testNow.Add(60*time.Second)); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("expected invalid phase, got %v", err)
	}
	if s.Sabotage.Status != model.SabotageOngoing {
		t.Fatal("rejected resolve changed state")
	}
}

func TestTimeoutWithoutSabotage(t *testing.T) {
	rules := DefaultRules()
	s := playingSession(testPlayer{"a", model.RoleImposter}, testPlayer{"b", model.RoleCrewmate})
	if rules.ApplySabotageTimeout(s, testNow.Add(time.Hour)) {
		t.Fatal("timeout applied with no sabotage")
	}
}
