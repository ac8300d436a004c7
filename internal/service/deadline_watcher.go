package service

import (
	"amongirl/internal/model"
	"context"
	"log"
	"sync"
	"time"
)

// SessionWatcher is told about every unfinished session this instance
// touches so their deadlines get enforced
type SessionWatcher interface {
	Watch(ctx context.Context, sessionID string) error
}

// SetWatcher registers the watcher that sessions are handed to
func (s *SessionService) SetWatcher(w SessionWatcher) {
	s.watcher = w
}

type deadlineKind int

const (
	sabotageDeadline deadlineKind = iota
	votingDeadline
)

func (k deadlineKind) String() string {
	if k == sabotageDeadline {
		return "sabotage"
	}
	return "voting"
}

const (
	minTimerDelay  = 10 * time.Millisecond
	fireAttempts   = 3
	fireRetryDelay = 500 * time.Millisecond
)

type sessionWatch struct {
	unsubscribe func()
	version     int64
	timers      [2]*time.Timer
	due         [2]time.Time
}

// DeadlineWatcher follows each session's change feed and arms a timer for
// the ongoing sabotage and the open voting round. When a timer fires it calls
// SabotageTimeout or VotingDeadline, both of which are no-ops if the deadline
// was already handled elsewhere.
type DeadlineWatcher struct {
	svc *SessionService
	ctx context.Context

	mu      sync.Mutex
	watches map[string]*sessionWatch
}

// NewDeadlineWatcher creates a watcher; ctx bounds the operations it triggers
func NewDeadlineWatcher(ctx context.Context, svc *SessionService) *DeadlineWatcher {
	return &DeadlineWatcher{
		svc:     svc,
		ctx:     ctx,
		watches: make(map[string]*sessionWatch),
	}
}

// Watch starts tracking a session until it finishes
func (w *DeadlineWatcher) Watch(ctx context.Context, sessionID string) error {
	w.mu.Lock()
	if _, exists := w.watches[sessionID]; exists {
		w.mu.Unlock()
		return nil
	}
	sw := &sessionWatch{}
	w.watches[sessionID] = sw
	w.mu.Unlock()

	unsubscribe, err := w.svc.Subscribe(w.ctx, sessionID, func(sess *model.Session) {
		w.update(sessionID, sess)
	})
	if err != nil {
		w.Unwatch(sessionID)
		return err
	}

	w.mu.Lock()
	current, exists := w.watches[sessionID]
	if exists && current == sw {
		sw.unsubscribe = unsubscribe
	}
	w.mu.Unlock()
	if !exists || current != sw {
		// Finished before the subscription was in place
		unsubscribe()
		return nil
	}

	sess, err := w.svc.GetSession(ctx, sessionID)
	if err != nil {
		w.Unwatch(sessionID)
		return err
	}
	w.update(sessionID, sess)
	return nil
}

// Unwatch stops tracking a session and cancels its timers
func (w *DeadlineWatcher) Unwatch(sessionID string) {
	w.mu.Lock()
	sw, exists := w.watches[sessionID]
	if exists {
		delete(w.watches, sessionID)
	}
	w.mu.Unlock()
	if exists {
		sw.stop()
	}
}

// Stop cancels every timer and subscription
func (w *DeadlineWatcher) Stop() {
	w.mu.Lock()
	watches := w.watches
	w.watches = make(map[string]*sessionWatch)
	w.mu.Unlock()

	for _, sw := range watches {
		sw.stop()
	}
}

// Watching reports how many sessions are tracked
func (w *DeadlineWatcher) Watching() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.watches)
}

func (sw *sessionWatch) stop() {
	for i, t := range sw.timers {
		if t != nil {
			t.Stop()
			sw.timers[i] = nil
		}
	}
	if sw.unsubscribe != nil {
		sw.unsubscribe()
	}
}

// update re-arms the timers from a session snapshot. Snapshots older than
// the last one seen are ignored.
func (w *DeadlineWatcher) update(sessionID string, sess *model.Session) {
	w.mu.Lock()
	sw, exists := w.watches[sessionID]
	if !exists || sess.Version < sw.version {
		w.mu.Unlock()
		return
	}
	sw.version = sess.Version

	if sess.Phase == model.PhaseFinished {
		delete(w.watches, sessionID)
		w.mu.Unlock()
		sw.stop()
		return
	}
	defer w.mu.Unlock()

	rules := w.svc.Rules()
	sabotageAt, sabotageOn := rules.SabotageDeadline(sess)
	w.arm(sessionID, sw, sabotageDeadline, sabotageAt, sabotageOn && sess.Phase == model.PhasePlaying)

	var votingAt time.Time
	votingOn := sess.Meeting.Status == model.MeetingVoting && sess.Meeting.VotingEndsAt != nil
	if votingOn {
		votingAt = *sess.Meeting.VotingEndsAt
	}
	w.arm(sessionID, sw, votingDeadline, votingAt, votingOn && sess.Phase == model.PhasePlaying)
}

// arm must be called with w.mu held
func (w *DeadlineWatcher) arm(sessionID string, sw *sessionWatch, kind deadlineKind, due time.Time, active bool) {
	t := sw.timers[kind]
	if !active {
		if t != nil {
			t.Stop()
		}
		sw.timers[kind] = nil
		sw.due[kind] = time.Time{}
		return
	}
	if t != nil && sw.due[kind].Equal(due) {
		return
	}
	if t != nil {
		t.Stop()
	}

	delay := due.Sub(w.svc.now())
	if delay < minTimerDelay {
		delay = minTimerDelay
	}
	sw.due[kind] = due
	sw.timers[kind] = time.AfterFunc(delay, func() {
		w.fire(sessionID, kind)
	})
}

func (w *DeadlineWatcher) fire(sessionID string, kind deadlineKind) {
	w.mu.Lock()
	sw, exists := w.watches[sessionID]
	if exists {
		sw.timers[kind] = nil
	}
	w.mu.Unlock()
	if !exists {
		return
	}

	for attempt := 1; attempt <= fireAttempts; attempt++ {
		sess, err := w.apply(sessionID, kind)
		if err == nil {
			// A no-op leaves the version unchanged, so re-arm from what we got
			w.update(sessionID, sess)
			return
		}
		log.Printf("session %s: %s deadline attempt %d failed: %v", sessionID, kind, attempt, err)

		select {
		case <-w.ctx.Done():
			return
		case <-time.After(fireRetryDelay):
		}
	}
}

func (w *DeadlineWatcher) apply(sessionID string, kind deadlineKind) (*model.Session, error) {
	if kind == sabotageDeadline {
		return w.svc.SabotageTimeout(w.ctx, sessionID)
	}
	res, err := w.svc.VotingDeadline(w.ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return res.Session, nil
}
