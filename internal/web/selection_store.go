// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package web

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parleyhq/parley/internal/models"
	"github.com/parleyhq/parley/internal/settings"
)

// storeTimeout bounds the Redis/Postgres round trips behind the synchronous
// settings.KVStore port.
const storeTimeout = 3 * time.Second

// sessionDataStore is the slice of redis.SessionStore the selection store
// needs.
type sessionDataStore interface {
	GetData(ctx context.Context, sessionID, key string) (interface{}, error)
	SetData(ctx context.Context, sessionID, key string, value interface{}) error
}

// preferencesStore is the slice of postgres.PreferencesRepository the
// selection store needs.
type preferencesStore interface {
	Get(ctx context.Context, userID uuid.UUID) (string, error)
	Save(ctx context.Context, userID uuid.UUID, prefsJSON string) error
}

// selectionStore implements settings.KVStore for one browser. Reads hit the
// Redis session data first and fall back to the user's durable preferences;
// writes go to both, so the remembered selection survives the session.
//
// The store is rebound on every settings request because the login session
// behind a browser changes over time. Unbound (anonymous) stores read and
// write nothing.
type selectionStore struct {
	sessions sessionDataStore
	prefs    preferencesStore

	mu        sync.Mutex
	sessionID string
	userID    uuid.UUID
	hasUser   bool
}

func newSelectionStore(sessions sessionDataStore, prefs preferencesStore) *selectionStore {
	return &selectionStore{sessions: sessions, prefs: prefs}
}

// Bind points the store at the current login session. A nil session unbinds
// it (anonymous browser).
func (s *selectionStore) Bind(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session == nil {
		s.sessionID = ""
		s.hasUser = false
		return
	}
	s.sessionID = session.ID
	if uid, err := uuid.Parse(session.UserID); err == nil {
		s.userID = uid
		s.hasUser = true
	} else {
		s.hasUser = false
	}
}

func (s *selectionStore) Get(key string) (string, error) {
	s.mu.Lock()
	sessionID, userID, hasUser := s.sessionID, s.userID, s.hasUser
	s.mu.Unlock()

	if sessionID == "" {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if s.sessions != nil {
		value, err := s.sessions.GetData(ctx, sessionID, key)
		if err == nil {
			if str, ok := value.(string); ok && str != "" {
				return str, nil
			}
		}
	}

	// Fresh session: fall back to the durable preferences.
	if s.prefs == nil || !hasUser {
		return "", nil
	}
	raw, err := s.prefs.Get(ctx, userID)
	if err != nil || raw == "" {
		return "", err
	}
	prefs := models.ParsePreferences(raw)
	switch key {
	case settings.KeyLastMain:
		return prefs.SettingsLastMain, nil
	case settings.KeyLastSub:
		return prefs.SettingsLastSub, nil
	}
	return "", nil
}

func (s *selectionStore) Set(key, value string) error {
	s.mu.Lock()
	sessionID, userID, hasUser := s.sessionID, s.userID, s.hasUser
	s.mu.Unlock()

	if sessionID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if s.sessions != nil {
		if err := s.sessions.SetData(ctx, sessionID, key, value); err != nil {
			return err
		}
	}

	if s.prefs == nil || !hasUser {
		return nil
	}
	raw, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return err
	}
	prefs := models.ParsePreferences(raw)
	switch key {
	case settings.KeyLastMain:
		prefs.SettingsLastMain = value
	case settings.KeyLastSub:
		prefs.SettingsLastSub = value
	default:
		return nil
	}
	encoded, err := prefs.Encode()
	if err != nil {
		return err
	}
	return s.prefs.Save(ctx, userID, encoded)
}
