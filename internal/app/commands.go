// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/parleyhq/parley/internal/pkg/crypto"
	"github.com/parleyhq/parley/internal/repository/postgres"
)

// openDatabase loads config and connects to Postgres for one-shot CLI
// actions that do not need the full application.
func openDatabase(ctx context.Context, cfgFile string) (*postgres.DB, *Config, error) {
	cfg, err := LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.Database.URL == "" {
		return nil, nil, fmt.Errorf("database.url is required")
	}
	db, err := postgres.New(ctx, cfg.Database.URL, postgres.Options{
		MaxOpenConns: 2,
		MaxIdleConns: 1,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return db, cfg, nil
}

// RunMigrations executes a migration action: "up", "status", or
// "down:<version>" to roll back to a specific version.
func RunMigrations(cfgFile, action string) error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	db, _, err := openDatabase(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer db.Close()

	switch {
	case action == "up":
		return db.Migrate(ctx)
	case action == "status":
		return db.MigrationStatus(ctx)
	case strings.HasPrefix(action, "down:"):
		version := strings.TrimPrefix(action, "down:")
		if version == "" {
			return fmt.Errorf("migrate down requires a target version")
		}
		return db.MigrateDown(ctx, version)
	default:
		return fmt.Errorf("unknown migration action %q", action)
	}
}

// ResetAdminPassword sets a new random password for the named account and
// prints it to stdout. Used when the operator locks themselves out.
func ResetAdminPassword(cfgFile, username string) error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	db, _, err := openDatabase(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer db.Close()

	users := postgres.NewUserRepository(db)
	user, err := users.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("looking up user %q: %w", username, err)
	}

	password, err := crypto.RandomHex(12)
	if err != nil {
		return fmt.Errorf("generating password: %w", err)
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if err := users.ResetFailedAttempts(ctx, user.ID); err != nil {
		return fmt.Errorf("clearing lockout: %w", err)
	}

	fmt.Printf("Password for %q reset to: %s\n", username, password)
	fmt.Println("Change it after the next login.")
	return nil
}
