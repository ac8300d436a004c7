package cache

import (
	"amongirl/internal/game"
	"amongirl/internal/model"
	"context"
	"fmt"
	"sync"
)

// MemorySessionStore is an in-process SessionStore for tests and single-node runs
type MemorySessionStore struct {
	sessions map[string]*model.Session
	codes    map[string]string
	subs     map[string]map[int]func(*model.Session)
	nextSub  int
	mu       sync.RWMutex
}

// NewMemorySessionStore creates an empty in-memory store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*model.Session),
		codes:    make(map[string]string),
		subs:     make(map[string]map[int]func(*model.Session)),
	}
}

func (s *MemorySessionStore) Create(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.codes[session.Code]; exists {
		return game.New(game.CodeVersionConflict, fmt.Sprintf("join code %s already in use", session.Code))
	}
	if _, exists := s.sessions[session.ID]; exists {
		return game.New(game.CodeVersionConflict, fmt.Sprintf("session %s already exists", session.ID))
	}
	session.Version = 1
	s.sessions[session.ID] = session.Clone()
	s.codes[session.Code] = session.ID
	return nil
}

func (s *MemorySessionStore) Load(ctx context.Context, id string) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[id]
	if !exists {
		return nil, game.New(game.CodeNotFound, fmt.Sprintf("session %s not found", id))
	}
	return session.Clone(), nil
}

func (s *MemorySessionStore) LoadByCode(ctx context.Context, code string) (*model.Session, error) {
	s.mu.RLock()
	id, exists := s.codes[code]
	s.mu.RUnlock()
	if !exists {
		return nil, game.New(game.CodeNotFound, fmt.Sprintf("no session with code %s", code))
	}
	return s.Load(ctx, id)
}

func (s *MemorySessionStore) CodeExists(ctx context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.codes[code]
	return exists, nil
}

func (s *MemorySessionStore) CompareAndSwap(ctx context.Context, id string, expectedVersion int64, next *model.Session) error {
	s.mu.Lock()
	current, exists := s.sessions[id]
	if !exists {
		s.mu.Unlock()
		return game.New(game.CodeNotFound, fmt.Sprintf("session %s not found", id))
	}
	if current.Version != expectedVersion {
		s.mu.Unlock()
		return game.New(game.CodeVersionConflict,
			fmt.Sprintf("session %s at version %d, expected %d", id, current.Version, expectedVersion))
	}
	next.Version = expectedVersion + 1
	stored := next.Clone()
	s.sessions[id] = stored

	// Collect subscribers while holding the lock, notify without it
	var callbacks []func(*model.Session)
	for _, fn := range s.subs[id] {
		callbacks = append(callbacks, fn)
	}
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(stored.Clone())
	}
	return nil
}

func (s *MemorySessionStore) Subscribe(ctx context.Context, id string, onChange func(*model.Session)) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs[id] == nil {
		s.subs[id] = make(map[int]func(*model.Session))
	}
	subID := s.nextSub
	s.nextSub++

	// Swaps notify outside the store lock, so two writers can race here.
	// Serialise delivery and drop anything older than what was already seen.
	var (
		deliverMu sync.Mutex
		last      int64
	)
	s.subs[id][subID] = func(session *model.Session) {
		deliverMu.Lock()
		defer deliverMu.Unlock()
		if session.Version < last {
			return
		}
		last = session.Version
		onChange(session)
	}

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[id], subID)
	}, nil
}
