package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound means the session is unknown or has expired.
var ErrSessionNotFound = errors.New("session not found")

// Session is one issued login session. Expiry is stored in the payload and
// checked on every access in addition to the store-level TTL.
type Session struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session has passed its expiry.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionStore persists login sessions. Owned by the authentication layer;
// the policy core never touches it.
type SessionStore interface {
	Create(ctx context.Context, session Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

type redisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore constructs a Redis-backed session store.
func NewRedisSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client}
}

func sessionKey(id string) string {
	return "session:" + id
}

func (s *redisSessionStore) Create(ctx context.Context, session Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return s.client.Set(ctx, sessionKey(session.ID), payload, ttl).Err()
}

func (s *redisSessionStore) Get(ctx context.Context, id string) (Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, err
	}

	var session Session
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return Session{}, fmt.Errorf("failed to decode session: %w", err)
	}
	if session.Expired(time.Now()) {
		_ = s.client.Del(ctx, sessionKey(id)).Err()
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, sessionKey(id)).Err()
}
