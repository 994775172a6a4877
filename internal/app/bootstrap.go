// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/parleyhq/parley/internal/models"
	"github.com/parleyhq/parley/internal/pkg/crypto"
	"github.com/parleyhq/parley/internal/repository/postgres"
)

// defaultAdminUsername is the bootstrap account created on an empty database.
const defaultAdminUsername = "admin"

// bootstrapAdminUser creates the initial admin account when the user table
// is empty, so a fresh install is reachable without manual SQL.
func (a *Application) bootstrapAdminUser(ctx context.Context) error {
	users := postgres.NewUserRepository(a.db)

	_, total, err := users.List(ctx, postgres.UserListOptions{Limit: 1})
	if err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	if total > 0 {
		return nil
	}

	password, err := crypto.RandomHex(12)
	if err != nil {
		return fmt.Errorf("generating admin password: %w", err)
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}

	admin := &models.User{
		ID:           uuid.New(),
		Username:     defaultAdminUsername,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	// The log pipeline redacts password values, so the generated credential
	// goes to stdout where the operator can read it.
	fmt.Printf("Created default admin user %q with password: %s\n", defaultAdminUsername, password)
	fmt.Println("CHANGE THE PASSWORD AFTER FIRST LOGIN.")
	a.log.Warn("created default admin user", "username", defaultAdminUsername)
	return nil
}
