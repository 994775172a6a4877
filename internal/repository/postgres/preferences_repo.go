// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PreferencesRepository stores the durable per-user preference document
// (theme, language, remembered settings selection) as JSONB.
type PreferencesRepository struct {
	db *DB
}

// NewPreferencesRepository creates a new preferences repository.
func NewPreferencesRepository(db *DB) *PreferencesRepository {
	return &PreferencesRepository{db: db}
}

// Get returns the JSON preferences document for a user, or empty string
// when none is stored.
func (r *PreferencesRepository) Get(ctx context.Context, userID uuid.UUID) (string, error) {
	var prefs string
	err := r.db.QueryRow(ctx,
		`SELECT preferences::text FROM user_preferences WHERE user_id = $1`,
		userID,
	).Scan(&prefs)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get user preferences: %w", err)
	}
	return prefs, nil
}

// Save upserts the preferences document for a user.
func (r *PreferencesRepository) Save(ctx context.Context, userID uuid.UUID, prefsJSON string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO user_preferences (user_id, preferences)
		 VALUES ($1, $2::jsonb)
		 ON CONFLICT (user_id) DO UPDATE SET preferences = $2::jsonb, updated_at = NOW()`,
		userID, prefsJSON,
	)
	if err != nil {
		return fmt.Errorf("save user preferences: %w", err)
	}
	return nil
}

// Delete removes all preferences for a user (reset to defaults).
func (r *PreferencesRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM user_preferences WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user preferences: %w", err)
	}
	return nil
}
