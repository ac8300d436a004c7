package service

import (
	"amongirl/internal/cache"
	"amongirl/internal/game"
	"amongirl/internal/model"
	"amongirl/internal/repository"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("amongirl/internal/service")

// DefaultMaxAttempts bounds the load-mutate-swap retry loop
const DefaultMaxAttempts = 5

// errNoChange lets a mutation report that the session is already in the
// requested state, so nothing is written.
var errNoChange = errors.New("no change")

// SessionService owns every state transition of a game session. Each
// operation reads the current version, applies a pure game-rule mutation to
// a clone and commits it with a compare-and-swap, retrying on conflict.
type SessionService struct {
	store       cache.SessionStore
	catalog     repository.TaskCatalog
	results     repository.ResultRepo
	watcher     SessionWatcher
	rules       game.Rules
	rng         game.Rand
	now         func() time.Time
	maxAttempts int
}

// NewSessionService creates a new session service
func NewSessionService(
	store cache.SessionStore,
	catalog repository.TaskCatalog,
	rules game.Rules,
	rng game.Rand,
) *SessionService {
	return &SessionService{
		store:       store,
		catalog:     catalog,
		rules:       rules,
		rng:         rng,
		now:         time.Now,
		maxAttempts: DefaultMaxAttempts,
	}
}

// SetResultRepo enables archiving of finished games
func (s *SessionService) SetResultRepo(results repository.ResultRepo) {
	s.results = results
}

// SetClock replaces the wall clock, mainly for tests
func (s *SessionService) SetClock(now func() time.Time) {
	s.now = now
}

// SetMaxAttempts sets how many compare-and-swap attempts an operation makes
func (s *SessionService) SetMaxAttempts(n int) {
	if n > 0 {
		s.maxAttempts = n
	}
}

// Rules returns the game constants in use
func (s *SessionService) Rules() game.Rules {
	return s.rules
}

// Subscribe forwards to the store's change feed
func (s *SessionService) Subscribe(ctx context.Context, id string, onChange func(*model.Session)) (func(), error) {
	return s.store.Subscribe(ctx, id, onChange)
}

// mutate runs fn against a fresh clone of the session and commits the result.
// On a version conflict the whole read-mutate-write cycle is repeated, so fn
// must be free of side effects outside the session it is given.
func (s *SessionService) mutate(ctx context.Context, id string, fn func(sess *model.Session, now time.Time) error) (sess *model.Session, err error) {
	ctx, span := tracer.Start(ctx, "SessionService.mutate", trace.WithAttributes(attribute.String("session.id", id)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(game.CodeOf(err)))
		} else if sess != nil {
			span.SetAttributes(
				attribute.Int64("session.version", sess.Version),
				attribute.String("session.phase", string(sess.Phase)),
			)
		}
		span.End()
	}()

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		span.SetAttributes(attribute.Int("cas.attempt", attempt))
		current, err := s.store.Load(ctx, id)
		if err != nil {
			return nil, err
		}

		next := current.Clone()
		now := s.now()
		if err := fn(next, now); err != nil {
			if errors.Is(err, errNoChange) {
				return current, nil
			}
			return nil, err
		}
		next.UpdatedAt = now

		err = s.store.CompareAndSwap(ctx, id, current.Version, next)
		if err == nil {
			s.afterCommit(ctx, current, next)
			return next, nil
		}
		if game.CodeOf(err) != game.CodeVersionConflict {
			return nil, fmt.Errorf("failed to store session %s: %w", id, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	log.Printf("session %s: gave up after %d conflicting writes", id, s.maxAttempts)
	return nil, game.Wrap(game.CodeTransientFailure,
		fmt.Sprintf("session %s is busy, retry the request", id), game.ErrVersionConflict)
}

func (s *SessionService) afterCommit(ctx context.Context, prev, next *model.Session) {
	if prev.Phase != next.Phase {
		log.Printf("session %s: %s -> %s (version %d)", next.ID, prev.Phase, next.Phase, next.Version)
	}
	s.watch(ctx, next)
	if next.Phase != model.PhaseFinished || prev.Phase == model.PhaseFinished {
		return
	}

	log.Printf("session %s: finished, winner %s", next.ID, next.Winner)
	if s.results == nil {
		return
	}
	if err := s.results.Save(ctx, model.NewGameResult(next)); err != nil {
		log.Printf("failed to archive result for session %s: %v", next.ID, err)
	}
}

func requireHost(sess *model.Session, playerID string) error {
	if sess.HostID != playerID {
		return game.New(game.CodePermissionDenied, "only the host can do this")
	}
	return nil
}

func requirePhase(sess *model.Session, phase model.Phase) error {
	if sess.Phase != phase {
		return game.WithMetadata(game.CodeInvalidPhase,
			fmt.Sprintf("session is %s, expected %s", sess.Phase, phase),
			map[string]string{"phase": string(sess.Phase), "expected": string(phase)})
	}
	return nil
}

func newPlayerID() string {
	return "p_" + uuid.New().String()[:8]
}

// CreateSession opens a lobby with the caller as host
func (s *SessionService) CreateSession(ctx context.Context, hostNickname string, imposterCount int, snitch bool) (*model.JoinResponse, error) {
	hostNickname = strings.TrimSpace(hostNickname)
	if hostNickname == "" {
		return nil, game.New(game.CodeInvalidArgument, "nickname is required")
	}
	if imposterCount < 1 {
		imposterCount = 1
	}
	if imposterCount > s.rules.MaxImposters {
		imposterCount = s.rules.MaxImposters
	}

	hostID := newPlayerID()
	now := s.now()

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code, err := s.generateJoinCode(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to generate join code: %w", err)
		}

		sess := &model.Session{
			ID:            uuid.New().String(),
			Code:          code,
			HostID:        hostID,
			Phase:         model.PhaseWaiting,
			ImposterCount: imposterCount,
			SnitchEnabled: snitch,
			Players: []model.Player{{
				ID:       hostID,
				Nickname: hostNickname,
				IsHost:   true,
				Alive:    true,
			}},
			Sabotage:  model.SabotageState{Status: model.SabotageIdle},
			Meeting:   model.MeetingState{Status: model.MeetingNormal},
			CreatedAt: now,
			UpdatedAt: now,
		}

		err = s.store.Create(ctx, sess)
		if err == nil {
			log.Printf("session %s: created with code %s", sess.ID, sess.Code)
			s.watch(ctx, sess)
			return &model.JoinResponse{PlayerID: hostID, Session: sess}, nil
		}
		if game.CodeOf(err) != game.CodeVersionConflict {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
	}
	return nil, game.New(game.CodeTransientFailure, "could not reserve a join code")
}

// generateJoinCode creates a 6-char code that no live session uses
func (s *SessionService) generateJoinCode(ctx context.Context) (string, error) {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	const codeLen = 6

	for attempts := 0; attempts < 10; attempts++ {
		b := make([]byte, codeLen)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}

		code := make([]byte, codeLen)
		for i := range code {
			code[i] = chars[int(b[i])%len(chars)]
		}
		codeStr := string(code)

		exists, err := s.store.CodeExists(ctx, codeStr)
		if err != nil {
			return "", err
		}
		if !exists {
			return codeStr, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique join code")
}

// JoinSession adds a player to a waiting session found by its join code
func (s *SessionService) JoinSession(ctx context.Context, code, nickname string) (*model.JoinResponse, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, game.New(game.CodeInvalidArgument, "nickname is required")
	}

	found, err := s.store.LoadByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}

	playerID := newPlayerID()
	sess, err := s.mutate(ctx, found.ID, func(sess *model.Session, now time.Time) error {
		if err := requirePhase(sess, model.PhaseWaiting); err != nil {
			return err
		}
		for _, p := range sess.Players {
			if strings.EqualFold(p.Nickname, nickname) {
				return game.New(game.CodeInvalidArgument, fmt.Sprintf("nickname %q is taken", nickname))
			}
		}
		sess.Players = append(sess.Players, model.Player{
			ID:       playerID,
			Nickname: nickname,
			Alive:    true,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &model.JoinResponse{PlayerID: playerID, Session: sess}, nil
}

// GetSession returns the current state of a session
func (s *SessionService) GetSession(ctx context.Context, id string) (*model.Session, error) {
	sess, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	// Sessions written by another instance, or before a restart, are
	// picked up the first time this instance sees them.
	s.watch(ctx, sess)
	return sess, nil
}

// watch hands an unfinished session to the deadline watcher. Watch is a
// no-op for sessions already tracked.
func (s *SessionService) watch(ctx context.Context, sess *model.Session) {
	if s.watcher == nil || sess.Phase == model.PhaseFinished {
		return
	}
	if err := s.watcher.Watch(ctx, sess.ID); err != nil {
		log.Printf("failed to watch deadlines for session %s: %v", sess.ID, err)
	}
}

// UpdateImposterCount changes the lobby setting, clamped to what the roster allows
func (s *SessionService) UpdateImposterCount(ctx context.Context, id, hostID string, n int) (*model.Session, error) {
	return s.mutate(ctx, id, func(sess *model.Session, now time.Time) error {
		if err := requireHost(sess, hostID); err != nil {
			return err
		}
		if err := requirePhase(sess, model.PhaseWaiting); err != nil {
			return err
		}
		sess.ImposterCount = s.rules.ClampImposterCount(n, len(sess.Players))
		return nil
	})
}

// AssignRoles starts the game: roles and task lists are dealt in one write
func (s *SessionService) AssignRoles(ctx context.Context, id, hostID string) (*model.Session, error) {
	catalog, err := s.catalog.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load task catalog: %w", err)
	}
	pool, err := game.NewTaskPool(catalog, s.rules.TasksPerPlayer)
	if err != nil {
		return nil, err
	}
	fallback := pool.Fallback

	return s.mutate(ctx, id, func(sess *model.Session, now time.Time) error {
		if err := requireHost(sess, hostID); err != nil {
			return err
		}
		if err := requirePhase(sess, model.PhaseWaiting); err != nil {
			return err
		}
		if len(sess.Players) < s.rules.MinPlayers {
			return game.WithMetadata(game.CodeInvalidConfiguration,
				fmt.Sprintf("need at least %d players, have %d", s.rules.MinPlayers, len(sess.Players)),
				map[string]string{"min_players": fmt.Sprint(s.rules.MinPlayers)})
		}

		players, err := s.rules.AssignRoles(sess.Players, sess.ImposterCount, sess.SnitchEnabled, s.rng)
		if err != nil {
			return err
		}
		players, err = s.rules.AssignTasks(pool, players, s.rng)
		if err != nil {
			return err
		}
		for i := range players {
			players[i].Alive = true
			players[i].Vote = ""
		}

		sess.Players = players
		if !sess.Phase.CanTransitionTo(model.PhasePlaying) {
			return requirePhase(sess, model.PhaseWaiting)
		}
		sess.FallbackTask = &fallback
		sess.Phase = model.PhasePlaying
		sess.Sabotage = model.SabotageState{Status: model.SabotageIdle}
		sess.Meeting = model.MeetingState{Status: model.MeetingNormal}
		return nil
	})
}

// TriggerSabotage starts a sabotage on behalf of a living imposter
func (s *SessionService) TriggerSabotage(ctx context.Context, id, playerID string) (*model.Session, error) {
	return s.mutate(ctx, id, func(sess *model.Session, now time.Time) error {
		if err := requirePhase(sess, model.PhasePlaying); err != nil {
			return err
		}
		p := sess.Player(playerID)
		if p == nil {
			return game.New(game.CodeNotFound, fmt.Sprintf("player %s not in session", playerID))
		}
		if p.Role != model.RoleImposter || !p.Alive {
			return game.New(game.CodePermissionDenied, "only a living imposter can sabotage")
		}
		return s.rules.TriggerSabotage(sess, now)
	})
}

// ResolveSabotage is called by the device that fixed the sabotage
func (s *SessionService) ResolveSabotage(ctx context.Context, id string) (*model.Session, error) {
	return s.mutate(ctx, id, func(sess *model.Session, now time.Time) error {
		if err := requirePhase(sess, model.PhasePlaying); err != nil {
			return err
		}
		return s.rules.ResolveSabotage(sess, now)
	})
}

// SabotageTimeout ends the game if the ongoing sabotage ran out. Calling it
// early, twice, or after the game ended leaves the session unchanged.
func (s *SessionService) SabotageTimeout(ctx context.Context, id string) (*model.Session, error) {
	return s.mutate(ctx, id, func(sess *model.Session, now time.Time) error {
		if !s.rules.ApplySabotageTimeout(sess, now) {
			return errNoChange
		}
		return nil
	})
}

// CallMeeting is requested by any living player
func (s *SessionService) CallMeeting(ctx context.Context, id, playerID string) (*model.Session, error) {
	return s.mutate(ctx, id, func(sess *model.Session, now time.Time) error {
		if err := requirePhase(sess, model.PhasePlaying); err != nil {
			return err
		}
		return game.CallMeeting(sess, playerID)
	})
}

// EndMeeting dismisses a called meeting without voting
func (s *SessionService) EndMeeting(ctx context.Context, id string) (*model.Session, error) {
	return s.mutate(ctx, id, func(sess *model.Session, now time.Time) error {
		if err := requirePhase(sess, model.PhasePlaying); err != nil {
			return err
		}
		return game.EndMeeting(sess)
	})
}

// StartVoting opens the voting window on a called meeting
func (s *SessionService) StartVoting(ctx context.Context, id string) (*model.Session, error) {
	return s.mutate(ctx, id, func(sess *model.Session, now time.Time) error {
		if err := requirePhase(sess, model.PhasePlaying); err != nil {
			return err
		}
		return s.rules.StartVoting(sess, now)
	})
}

// SubmitVote records one vote per living player per round
func (s *SessionService) SubmitVote(ctx context.Context, id, voterID, targetID string) (*model.Session, error) {
	return s.mutate(ctx, id, func(sess *model.Session, now time.Time) error {
		if err := requirePhase(sess, model.PhasePlaying); err != nil {
			return err
		}
		return game.SubmitVote(sess, voterID, targetID)
	})
}

// EndVoting tallies the round, applies the elimination and checks for a winner
func (s *SessionService) EndVoting(ctx context.Context, id string) (*model.VotingResult, error) {
	var tally model.VoteTally
	sess, err := s.mutate(ctx, id, func(sess *model.Session, now time.Time) error {
		if err := requirePhase(sess, model.PhasePlaying); err != nil {
			return err
		}
		t, err := game.EndVoting(sess)
		if err != nil {
			return err
		}
		tally = t
		s.rules.CheckWin(sess, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if tally.Eliminated != "" {
		log.Printf("session %s: player %s voted out", id, tally.Eliminated)
	}
	return &model.VotingResult{Session: sess, Tally: tally}, nil
}

// VotingDeadline closes voting once its window has passed. Before the
// deadline, or when no vote is open, it changes nothing.
func (s *SessionService) VotingDeadline(ctx context.Context, id string) (*model.VotingResult, error) {
	var tally model.VoteTally
	sess, err := s.mutate(ctx, id, func(sess *model.Session, now time.Time) error {
		if sess.Phase != model.PhasePlaying || !game.VotingExpired(sess, now) {
			return errNoChange
		}
		t, err := game.EndVoting(sess)
		if err != nil {
			return err
		}
		tally = t
		s.rules.CheckWin(sess, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &model.VotingResult{Session: sess, Tally: tally}, nil
}

// CompleteTask records a task proof and checks for a crew task victory
func (s *SessionService) CompleteTask(ctx context.Context, id, playerID, taskID, proofRef string) (*model.Session, error) {
	return s.mutate(ctx, id, func(sess *model.Session, now time.Time) error {
		if err := requirePhase(sess, model.PhasePlaying); err != nil {
			return err
		}
		p := sess.Player(playerID)
		if p == nil {
			return game.New(game.CodeNotFound, fmt.Sprintf("player %s not in session", playerID))
		}
		if err := game.CompleteTask(p, taskID, proofRef); err != nil {
			return err
		}
		s.rules.CheckWin(sess, now)
		return nil
	})
}

// MarkSelfDead lets a killed player report their own death
func (s *SessionService) MarkSelfDead(ctx context.Context, id, playerID string) (*model.Session, error) {
	return s.mutate(ctx, id, func(sess *model.Session, now time.Time) error {
		if err := requirePhase(sess, model.PhasePlaying); err != nil {
			return err
		}
		if err := game.MarkSelfDead(sess, playerID); err != nil {
			return err
		}
		s.rules.CheckWin(sess, now)
		return nil
	})
}

// EndGameManually is the host's override of the winner
func (s *SessionService) EndGameManually(ctx context.Context, id, hostID string, winner model.Winner) (*model.Session, error) {
	return s.mutate(ctx, id, func(sess *model.Session, now time.Time) error {
		if err := requireHost(sess, hostID); err != nil {
			return err
		}
		return game.EndGameManually(sess, winner, now)
	})
}

// ListProofs returns every completed task that carries a proof, in roster order
func (s *SessionService) ListProofs(ctx context.Context, id string) ([]model.Proof, error) {
	sess, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	proofs := []model.Proof{}
	for _, p := range sess.Players {
		for _, t := range p.Tasks {
			if !t.Completed || t.ProofRef == "" {
				continue
			}
			proofs = append(proofs, model.Proof{
				PlayerID: p.ID,
				Nickname: p.Nickname,
				TaskID:   t.TaskID,
				TaskName: t.Name,
				ProofRef: t.ProofRef,
			})
		}
	}
	return proofs, nil
}
