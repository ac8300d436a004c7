package cache

import (
	"amongirl/internal/game"
	"amongirl/internal/model"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore holds live sessions and serialises writes with a version check
type SessionStore interface {
	Create(ctx context.Context, session *model.Session) error
	Load(ctx context.Context, id string) (*model.Session, error)
	LoadByCode(ctx context.Context, code string) (*model.Session, error)
	CodeExists(ctx context.Context, code string) (bool, error)

	// CompareAndSwap writes next only if the stored version still equals
	// expectedVersion; next.Version becomes expectedVersion+1.
	CompareAndSwap(ctx context.Context, id string, expectedVersion int64, next *model.Session) error

	// Subscribe calls onChange with the latest state after every successful write.
	Subscribe(ctx context.Context, id string, onChange func(*model.Session)) (unsubscribe func(), err error)
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a Redis-backed session store
func NewSessionCache(client *redis.Client, ttl time.Duration) SessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &sessionCache{
		client: client,
		ttl:    ttl,
	}
}

// Key helpers
func (c *sessionCache) key(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (c *sessionCache) codeKey(code string) string {
	return fmt.Sprintf("session:code:%s", code)
}

func (c *sessionCache) channel(id string) string {
	return fmt.Sprintf("session:%s:changes", id)
}

// Create writes the session and its join-code index in one transaction, so a
// failed create never leaves a code pointing at a missing session.
func (c *sessionCache) Create(ctx context.Context, session *model.Session) error {
	session.Version = 1
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	key, codeKey := c.key(session.ID), c.codeKey(session.Code)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, codeKey).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return game.New(game.CodeVersionConflict, fmt.Sprintf("join code %s already in use", session.Code))
		}
		n, err = tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return game.New(game.CodeVersionConflict, fmt.Sprintf("session %s already exists", session.ID))
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, codeKey, session.ID, c.ttl)
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}, codeKey, key)

	if errors.Is(err, redis.TxFailedErr) {
		return game.Wrap(game.CodeVersionConflict, fmt.Sprintf("join code %s taken during create", session.Code), err)
	}
	if err != nil && game.CodeOf(err) == "" {
		return fmt.Errorf("create session: %w", err)
	}
	return err
}

func (c *sessionCache) Load(ctx context.Context, id string) (*model.Session, error) {
	data, err := c.client.Get(ctx, c.key(id)).Result()
	if err == redis.Nil {
		return nil, game.New(game.CodeNotFound, fmt.Sprintf("session %s not found", id))
	}
	if err != nil {
		return nil, err
	}
	var session model.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *sessionCache) LoadByCode(ctx context.Context, code string) (*model.Session, error) {
	id, err := c.client.Get(ctx, c.codeKey(code)).Result()
	if err == redis.Nil {
		return nil, game.New(game.CodeNotFound, fmt.Sprintf("no session with code %s", code))
	}
	if err != nil {
		return nil, err
	}
	return c.Load(ctx, id)
}

func (c *sessionCache) CodeExists(ctx context.Context, code string) (bool, error) {
	n, err := c.client.Exists(ctx, c.codeKey(code)).Result()
	return n > 0, err
}

func (c *sessionCache) CompareAndSwap(ctx context.Context, id string, expectedVersion int64, next *model.Session) error {
	key := c.key(id)
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return game.New(game.CodeNotFound, fmt.Sprintf("session %s not found", id))
		}
		if err != nil {
			return err
		}
		var current model.Session
		if err := json.Unmarshal(data, &current); err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return game.New(game.CodeVersionConflict,
				fmt.Sprintf("session %s at version %d, expected %d", id, current.Version, expectedVersion))
		}

		next.Version = expectedVersion + 1
		payload, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, c.ttl)
			pipe.Expire(ctx, c.codeKey(next.Code), c.ttl)
			pipe.Publish(ctx, c.channel(id), payload)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return game.Wrap(game.CodeVersionConflict, fmt.Sprintf("session %s changed during write", id), err)
	}
	return err
}

func (c *sessionCache) Subscribe(ctx context.Context, id string, onChange func(*model.Session)) (func(), error) {
	pubsub := c.client.Subscribe(ctx, c.channel(id))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe to session %s: %w", id, err)
	}

	go func() {
		var last int64
		for msg := range pubsub.Channel() {
			var session model.Session
			if err := json.Unmarshal([]byte(msg.Payload), &session); err != nil {
				log.Printf("session %s: dropping malformed change: %v", id, err)
				continue
			}
			// Pub/sub may redeliver; never go backwards.
			if session.Version < last {
				continue
			}
			last = session.Version
			onChange(&session)
		}
	}()

	return func() { pubsub.Close() }, nil
}
