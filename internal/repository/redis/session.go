// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrSessionNotFound is returned when a session ID does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned when a session exists but is past its
	// expiry timestamp.
	ErrSessionExpired = errors.New("session expired")
)

// Session is a browser session stored in Redis. Data is a free-form map the
// web layer uses for per-session state (CSRF token, remembered settings
// selection, pending URL replacement).
type Session struct {
	ID           string                 `json:"id"`
	UserID       string                 `json:"user_id"`
	Username     string                 `json:"username"`
	Role         string                 `json:"role"`
	UserAgent    string                 `json:"user_agent,omitempty"`
	IPAddress    string                 `json:"ip_address,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	LastAccessAt time.Time              `json:"last_access_at"`
	ExpiresAt    time.Time              `json:"expires_at"`
	Data         map[string]interface{} `json:"data"`
}

// SessionStore persists sessions in Redis under "session:<id>" with a TTL,
// plus a "user_sessions:<userID>" set for per-user bulk operations.
type SessionStore struct {
	client *Client
	ttl    time.Duration
}

// NewSessionStore creates a session store with the given session TTL.
func NewSessionStore(client *Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// Create builds a new session, stores it and indexes it under the user.
func (s *SessionStore) Create(ctx context.Context, userID, username, role, userAgent, ip string) (*Session, error) {
	now := time.Now().UTC()
	session := &Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		Username:     username,
		Role:         role,
		UserAgent:    userAgent,
		IPAddress:    ip,
		CreatedAt:    now,
		LastAccessAt: now,
		ExpiresAt:    now.Add(s.ttl),
		Data:         make(map[string]interface{}),
	}

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	userKey := s.client.UserSessionsKey(userID)
	pipe := s.client.Redis().TxPipeline()
	pipe.SAdd(ctx, userKey, session.ID)
	pipe.Expire(ctx, userKey, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("index session: %w", err)
	}

	return session, nil
}

// Get loads a session by ID.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	raw, err := s.client.Redis().Get(ctx, s.client.SessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, ErrSessionExpired
	}
	if session.Data == nil {
		session.Data = make(map[string]interface{})
	}
	return &session, nil
}

// Exists reports whether a session ID is present, without decoding it.
func (s *SessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Redis().Exists(ctx, s.client.SessionKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("session exists: %w", err)
	}
	return n > 0, nil
}

// Touch updates LastAccessAt and slides the expiry window.
func (s *SessionStore) Touch(ctx context.Context, sessionID string) error {
	return s.Update(ctx, sessionID, func(session *Session) {
		now := time.Now().UTC()
		session.LastAccessAt = now
		session.ExpiresAt = now.Add(s.ttl)
	})
}

// Update applies fn to the session and writes it back.
func (s *SessionStore) Update(ctx context.Context, sessionID string, fn func(*Session)) error {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	fn(session)
	return s.save(ctx, session)
}

// SetData stores one entry in the session's data map.
func (s *SessionStore) SetData(ctx context.Context, sessionID, key string, value interface{}) error {
	return s.Update(ctx, sessionID, func(session *Session) {
		session.Data[key] = value
	})
}

// GetData reads one entry from the session's data map; missing keys yield
// nil without error.
func (s *SessionStore) GetData(ctx context.Context, sessionID, key string) (interface{}, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Data[key], nil
}

// Delete removes a session and its user-set entry.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		if !errors.Is(err, ErrSessionExpired) {
			return err
		}
	}

	pipe := s.client.Redis().TxPipeline()
	pipe.Del(ctx, s.client.SessionKey(sessionID))
	if session != nil {
		pipe.SRem(ctx, s.client.UserSessionsKey(session.UserID), sessionID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// GetAllForUser returns all live sessions for a user. Stale set members
// (sessions that already expired out of Redis) are pruned as a side effect.
func (s *SessionStore) GetAllForUser(ctx context.Context, userID string) ([]*Session, error) {
	userKey := s.client.UserSessionsKey(userID)
	ids, err := s.client.Redis().SMembers(ctx, userKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}

	sessions := make([]*Session, 0, len(ids))
	for _, id := range ids {
		session, err := s.Get(ctx, id)
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionExpired) {
			s.client.Redis().SRem(ctx, userKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// CountForUser returns the number of live sessions for a user.
func (s *SessionStore) CountForUser(ctx context.Context, userID string) (int, error) {
	sessions, err := s.GetAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(sessions), nil
}

// DeleteAllForUser removes every session belonging to a user.
func (s *SessionStore) DeleteAllForUser(ctx context.Context, userID string) error {
	return s.deleteForUser(ctx, userID, "")
}

// DeleteAllForUserExcept removes every session belonging to a user except
// the given one (used for "log out other devices").
func (s *SessionStore) DeleteAllForUserExcept(ctx context.Context, userID, keepID string) error {
	return s.deleteForUser(ctx, userID, keepID)
}

func (s *SessionStore) deleteForUser(ctx context.Context, userID, keepID string) error {
	userKey := s.client.UserSessionsKey(userID)
	ids, err := s.client.Redis().SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	pipe := s.client.Redis().TxPipeline()
	for _, id := range ids {
		if id == keepID {
			continue
		}
		pipe.Del(ctx, s.client.SessionKey(id))
		pipe.SRem(ctx, userKey, id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

func (s *SessionStore) save(ctx context.Context, session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := s.client.Redis().Set(ctx, s.client.SessionKey(session.ID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}
